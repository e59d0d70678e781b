// Package luahost implements scripthost.Host on top of
// github.com/yuin/gopher-lua. Unlike exprhost, Lua is a full scripting
// language, so this backend serves documents that use <script> for
// imperative logic. A session uses it when the embedder passes luahost.New
// to core.WithScriptHostFactory.
package luahost

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"github.com/comalice/scxmlcore/internal/scripthost"
)

// Host is a gopher-lua-backed scripthost.Host. Each session owns exactly
// one *lua.LState; Host is not safe for concurrent use.
type Host struct {
	L  *lua.LState
	in func(string) bool
}

// New returns a fresh luahost.Host with its own Lua global table.
func New() (scripthost.Host, error) {
	h := &Host{L: lua.NewState()}
	h.L.SetGlobal("In", h.L.NewFunction(func(L *lua.LState) int {
		id := L.CheckString(1)
		result := false
		if h.in != nil {
			result = h.in(id)
		}
		L.Push(lua.LBool(result))
		return 1
	}))
	return h, nil
}

func (h *Host) SetInPredicate(fn func(string) bool) {
	h.in = fn
}

func (h *Host) SetVariable(name string, value any) error {
	h.L.SetGlobal(name, toLua(h.L, value))
	return nil
}

func (h *Host) Get(name string) (any, error) {
	v := h.L.GetGlobal(name)
	if v == lua.LNil {
		return nil, fmt.Errorf("%w: %s", scripthost.ErrUndefined, name)
	}
	return fromLua(v), nil
}

func (h *Host) Eval(code string) (any, error) {
	fn, err := h.L.LoadString("return (" + code + ")")
	if err != nil {
		return nil, fmt.Errorf("luahost: parse %q: %w", code, err)
	}
	h.L.Push(fn)
	if err := h.L.PCall(0, 1, nil); err != nil {
		return nil, fmt.Errorf("luahost: eval %q: %w", code, err)
	}
	ret := h.L.Get(-1)
	h.L.Pop(1)
	return fromLua(ret), nil
}

func (h *Host) EvalBool(code string) (bool, error) {
	v, err := h.Eval(code)
	if err != nil {
		return false, err
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("luahost: condition %q did not evaluate to a boolean, got %T", code, v)
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

func (h *Host) AssignValue(location string, value any) error {
	// location may be a bare name or a dotted path into an existing table.
	h.L.SetGlobal("__assign_tmp", toLua(h.L, value))
	code := location + " = __assign_tmp"
	if err := h.L.DoString(code); err != nil {
		return fmt.Errorf("luahost: assign %q: %w", location, err)
	}
	h.L.SetGlobal("__assign_tmp", lua.LNil)
	return nil
}

func (h *Host) ExecuteScript(body string) error {
	if err := h.L.DoString(body); err != nil {
		return fmt.Errorf("luahost: script execution: %w", err)
	}
	return nil
}

func toLua(L *lua.LState, v any) lua.LValue {
	switch val := v.(type) {
	case nil:
		return lua.LNil
	case bool:
		return lua.LBool(val)
	case string:
		return lua.LString(val)
	case int:
		return lua.LNumber(val)
	case int64:
		return lua.LNumber(val)
	case float64:
		return lua.LNumber(val)
	case []any:
		t := L.NewTable()
		for i, item := range val {
			t.RawSetInt(i+1, toLua(L, item))
		}
		return t
	case map[string]any:
		t := L.NewTable()
		for k, item := range val {
			t.RawSetString(k, toLua(L, item))
		}
		return t
	default:
		return lua.LString(fmt.Sprintf("%v", val))
	}
}

func fromLua(v lua.LValue) any {
	switch val := v.(type) {
	case lua.LBool:
		return bool(val)
	case lua.LNumber:
		return float64(val)
	case lua.LString:
		return string(val)
	case *lua.LTable:
		return tableToGo(val)
	case *lua.LNilType:
		return nil
	default:
		return nil
	}
}

func tableToGo(t *lua.LTable) any {
	maxN := t.MaxN()
	if maxN > 0 {
		arr := make([]any, 0, maxN)
		for i := 1; i <= maxN; i++ {
			arr = append(arr, fromLua(t.RawGetInt(i)))
		}
		return arr
	}
	m := make(map[string]any)
	t.ForEach(func(k, v lua.LValue) {
		m[k.String()] = fromLua(v)
	})
	return m
}
