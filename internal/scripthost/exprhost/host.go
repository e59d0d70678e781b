// Package exprhost implements scripthost.Host on top of
// github.com/expr-lang/expr. expr is a pure expression language: it has no
// statements, loops or assignment, so this backend suits documents that
// only need location/condition evaluation (the "minimal" datamodel
// profile) and rejects <script> content outright rather than silently
// ignoring it.
package exprhost

import (
	"fmt"
	"strings"

	"github.com/expr-lang/expr"

	"github.com/comalice/scxmlcore/internal/scripthost"
)

// Host is an exprhost-backed scripthost.Host. The zero value is not usable;
// construct with New.
type Host struct {
	env map[string]any
	in  func(string) bool
}

// New returns a fresh exprhost.Host with an empty root scope.
func New() (scripthost.Host, error) {
	return &Host{env: make(map[string]any)}, nil
}

func (h *Host) SetInPredicate(fn func(string) bool) {
	h.in = fn
}

func (h *Host) buildEnv() map[string]any {
	env := make(map[string]any, len(h.env)+1)
	for k, v := range h.env {
		env[k] = v
	}
	env["In"] = func(stateID string) bool {
		if h.in == nil {
			return false
		}
		return h.in(stateID)
	}
	return env
}

func (h *Host) SetVariable(name string, value any) error {
	h.env[name] = value
	return nil
}

func (h *Host) Get(name string) (any, error) {
	v, ok := h.env[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", scripthost.ErrUndefined, name)
	}
	return v, nil
}

func (h *Host) Eval(code string) (any, error) {
	out, err := expr.Eval(code, h.buildEnv())
	if err != nil {
		return nil, fmt.Errorf("exprhost: eval %q: %w", code, err)
	}
	return out, nil
}

func (h *Host) EvalBool(code string) (bool, error) {
	v, err := h.Eval(code)
	if err != nil {
		return false, err
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("exprhost: condition %q did not evaluate to a boolean, got %T", code, v)
	}
	return b, nil
}

func (h *Host) Assign(location, code string) error {
	v, err := h.Eval(code)
	if err != nil {
		return err
	}
	return h.AssignValue(location, v)
}

// AssignValue sets location, supporting one level of dot-nesting into a
// map[string]any (location "obj.field" assigns into h.env["obj"]["field"]).
// Deeper nesting is rejected; exprhost's data model is intentionally flat.
func (h *Host) AssignValue(location string, value any) error {
	parts := strings.SplitN(location, ".", 2)
	if len(parts) == 1 {
		h.env[location] = value
		return nil
	}
	root, field := parts[0], parts[1]
	if strings.Contains(field, ".") {
		return fmt.Errorf("exprhost: location %q exceeds one level of nesting", location)
	}
	obj, ok := h.env[root].(map[string]any)
	if !ok {
		obj = make(map[string]any)
	}
	obj[field] = value
	h.env[root] = obj
	return nil
}

func (h *Host) ExecuteScript(body string) error {
	return fmt.Errorf("exprhost: <script> is not supported by the expression-only data model; body: %q", body)
}
