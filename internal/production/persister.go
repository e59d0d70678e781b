// Package production provides production integrations: persistence, event
// publishing, visualization. Implements core interfaces using stdlib plus
// the teacher's own yaml dependency where serialization formats demand it.
package production

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/comalice/scxmlcore/internal/core"
)

// JSONPersister is a stdlib-only file-based persister using JSON
// serialization, keyed by session id.
type JSONPersister struct {
	dir string
}

// NewJSONPersister creates a JSONPersister, ensuring the directory exists.
func NewJSONPersister(dir string) (*JSONPersister, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return &JSONPersister{dir: dir}, nil
}

func (p *JSONPersister) Save(ctx context.Context, snapshot core.SessionSnapshot) error {
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("json marshal: %w", err)
	}

	fn := filepath.Join(p.dir, snapshot.SessionID+".json")
	if err := os.WriteFile(fn, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", fn, err)
	}
	return nil
}

func (p *JSONPersister) Load(ctx context.Context, sessionID string) (core.SessionSnapshot, error) {
	fn := filepath.Join(p.dir, sessionID+".json")
	data, err := os.ReadFile(fn)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return core.SessionSnapshot{}, fmt.Errorf("session %q: %w", sessionID, os.ErrNotExist)
		}
		return core.SessionSnapshot{}, fmt.Errorf("read %s: %w", fn, err)
	}

	var snapshot core.SessionSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return core.SessionSnapshot{}, fmt.Errorf("json unmarshal: %w", err)
	}
	snapshot.SessionID = sessionID
	return snapshot, nil
}

// YAMLPersister is a file-based persister using YAML serialization for
// SessionSnapshot.
type YAMLPersister struct {
	dir string
}

// NewYAMLPersister creates a YAMLPersister, ensuring the directory exists.
func NewYAMLPersister(dir string) (*YAMLPersister, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return &YAMLPersister{dir: dir}, nil
}

func (p *YAMLPersister) Save(ctx context.Context, snapshot core.SessionSnapshot) error {
	data, err := yaml.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("yaml marshal: %w", err)
	}

	fn := filepath.Join(p.dir, snapshot.SessionID+".yaml")
	if err := os.WriteFile(fn, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", fn, err)
	}
	return nil
}

func (p *YAMLPersister) Load(ctx context.Context, sessionID string) (core.SessionSnapshot, error) {
	fn := filepath.Join(p.dir, sessionID+".yaml")
	data, err := os.ReadFile(fn)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return core.SessionSnapshot{}, fmt.Errorf("session %q: %w", sessionID, os.ErrNotExist)
		}
		return core.SessionSnapshot{}, fmt.Errorf("read %s: %w", fn, err)
	}

	var snapshot core.SessionSnapshot
	if err := yaml.Unmarshal(data, &snapshot); err != nil {
		return core.SessionSnapshot{}, fmt.Errorf("yaml unmarshal: %w", err)
	}
	snapshot.SessionID = sessionID
	return snapshot, nil
}
