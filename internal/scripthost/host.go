// Package scripthost defines the pluggable expression/script backend that
// the data model manager and executable content interpreter evaluate
// locations, conditions and scripts through. Two backends are provided:
// exprhost (github.com/expr-lang/expr, used for SCXML's "null" and "ecma"-ish
// read-mostly profiles without full scripting) and luahost
// (github.com/yuin/gopher-lua, for full scripting). The embedder picks the
// backend with core.WithScriptHostFactory; a document's datamodel attribute
// does not select it.
package scripthost

import "errors"

// ErrUndefined is returned by Get when a variable has never been assigned.
var ErrUndefined = errors.New("scripthost: variable undefined")

// Host evaluates SCXML expressions, locations and inline scripts against a
// single session's data model. Implementations are not required to be safe
// for concurrent use; each session owns exactly one Host.
type Host interface {
	// SetVariable binds name to value in the root scope, creating it if it
	// does not already exist. Used to seed system variables (_sessionid,
	// _name, _event, _ioprocessors) and <data> elements.
	SetVariable(name string, value any) error

	// Get returns the current value bound to name.
	Get(name string) (any, error)

	// Eval evaluates expr and returns its value. Used for <data expr="...">,
	// <param expr="...">, <content expr="...">, <send idlocation=""> computed
	// values, and any other "expr"-flavored attribute.
	Eval(expr string) (any, error)

	// EvalBool evaluates expr and coerces it to a boolean. Used for
	// transition cond attributes and <if>/<elseif> conditions. A
	// non-boolean result that cannot be coerced is an error, reported to
	// the caller as an execution error (the caller raises error.execution;
	// a failing transition guard also counts as false, per 5.9).
	EvalBool(expr string) (bool, error)

	// Assign evaluates expr and stores it at location, per the assign
	// rules for the backend's datamodel type.
	Assign(location, expr string) error

	// AssignValue stores value directly at location, bypassing expression
	// evaluation. Used for <invoke> parameters and namelist copies.
	AssignValue(location string, value any) error

	// ExecuteScript runs a block of inline script for side effects only
	// (<script>, the inline form of <data> content is NOT run as script).
	ExecuteScript(body string) error

	// In reports whether stateID is part of the session's current
	// configuration. Wired by the session so the In() predicate is visible
	// to every expression the host evaluates.
	SetInPredicate(fn func(stateID string) bool)
}

// Factory constructs a fresh Host for a new session. A session uses the
// Factory given to core.WithScriptHostFactory (exprhost.New by default).
type Factory func() (Host, error)
