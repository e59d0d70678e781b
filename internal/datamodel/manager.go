// Package datamodel binds <data> elements and the SCXML system variables
// (_sessionid, _name, _event, _ioprocessors) into a session's scripthost.Host.
// When <data> items are bound is the caller's choice: core.Session binds a
// state's items on that state's first entry (late binding).
package datamodel

import (
	"fmt"

	"github.com/comalice/scxmlcore/internal/primitives"
	"github.com/comalice/scxmlcore/internal/scripthost"
)

// SrcLoader fetches the textual content referenced by a <data src="..."/>
// attribute. Callers that never use src may pass nil; Bind then reports an
// error for any item with Src set.
type SrcLoader func(src string) (string, error)

// Manager owns the lifecycle of a session's data model: seeding system
// variables and binding <data> items into the underlying scripthost.Host.
type Manager struct {
	host   scripthost.Host
	loader SrcLoader
}

// New wraps host with data-model binding behavior.
func New(host scripthost.Host, loader SrcLoader) *Manager {
	return &Manager{host: host, loader: loader}
}

// Host returns the underlying scripthost.Host, for callers (the executable
// content interpreter) that need to evaluate expressions directly.
func (m *Manager) Host() scripthost.Host {
	return m.host
}

// SeedSystemVars assigns the four system variables a conformant session
// must expose from its first microstep onward. _event is left undefined
// until the first event is processed; call SetEvent for that.
func (m *Manager) SeedSystemVars(sessionID, name string, ioprocessors map[string]string) error {
	if err := m.host.SetVariable("_sessionid", sessionID); err != nil {
		return err
	}
	if err := m.host.SetVariable("_name", name); err != nil {
		return err
	}
	procs := make(map[string]any, len(ioprocessors))
	for k, v := range ioprocessors {
		procs[k] = v
	}
	return m.host.SetVariable("_ioprocessors", procs)
}

// SetEvent updates _event ahead of running a state's transition/entry
// actions, per 5.10: name, type ("platform"/"internal"/"external"), data,
// sendid, origin, origintype and invokeid mirror the processed Event.
func (m *Manager) SetEvent(e primitives.Event) error {
	return m.host.SetVariable("_event", map[string]any{
		"name":       e.Name,
		"type":       string(e.Kind),
		"data":       e.Data,
		"sendid":     e.SendID,
		"origin":     e.Origin,
		"origintype": e.OriginType,
		"invokeid":   e.InvokeID,
	})
}

// Bind initializes each data item in document order. core.Session calls it
// once per state, on that state's first entry, with only that state's own
// <data> items; there is no early-binding mode.
func (m *Manager) Bind(items []primitives.DataItem) error {
	for _, item := range items {
		if err := m.bindOne(item); err != nil {
			return fmt.Errorf("datamodel: binding %q: %w", item.ID, err)
		}
	}
	return nil
}

func (m *Manager) bindOne(item primitives.DataItem) error {
	switch {
	case item.Expr != "":
		v, err := m.host.Eval(item.Expr)
		if err != nil {
			return err
		}
		return m.host.SetVariable(item.ID, v)
	case item.Src != "":
		if m.loader == nil {
			return fmt.Errorf("no src loader configured for src=%q", item.Src)
		}
		content, err := m.loader(item.Src)
		if err != nil {
			return err
		}
		return m.host.SetVariable(item.ID, content)
	case item.Content != "":
		return m.host.SetVariable(item.ID, item.Content)
	default:
		return m.host.SetVariable(item.ID, nil)
	}
}
