// Tests for JSONPersister/YAMLPersister round-trip against SessionSnapshot.
package production

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"testing"

	"github.com/comalice/scxmlcore/internal/core"
)

func TestJSONPersister_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	p, err := NewJSONPersister(dir)
	if err != nil {
		t.Fatalf("NewJSONPersister failed: %v", err)
	}

	snapshot := core.SessionSnapshot{
		SessionID: "test-session",
		MachineID: "test-machine",
		Active:    []string{"s1"},
	}

	if err := p.Save(context.Background(), snapshot); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := p.Load(context.Background(), "test-session")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	snapJSON, _ := json.Marshal(snapshot)
	loadedJSON, _ := json.Marshal(loaded)
	if !bytes.Equal(snapJSON, loadedJSON) {
		t.Errorf("Snapshot JSON mismatch: got %s, want %s", loadedJSON, snapJSON)
	}
}

func TestJSONPersister_LoadNonExistent(t *testing.T) {
	dir := t.TempDir()
	p, err := NewJSONPersister(dir)
	if err != nil {
		t.Fatalf("NewJSONPersister failed: %v", err)
	}

	_, err = p.Load(context.Background(), "nonexistent")
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Expected os.ErrNotExist wrapped error, got %v", err)
	}
}

func TestYAMLPersister_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	p, err := NewYAMLPersister(dir)
	if err != nil {
		t.Fatalf("NewYAMLPersister failed: %v", err)
	}

	snapshot := core.SessionSnapshot{
		SessionID: "yaml-session",
		MachineID: "yaml-machine",
		Active:    []string{"yellow"},
	}
	if err := p.Save(context.Background(), snapshot); err != nil {
		t.Fatal(err)
	}

	loaded, err := p.Load(context.Background(), "yaml-session")
	if err != nil {
		t.Fatal(err)
	}
	if loaded.MachineID != "yaml-machine" || len(loaded.Active) != 1 || loaded.Active[0] != "yellow" {
		t.Errorf("unexpected loaded snapshot: %+v", loaded)
	}
}
