// Package actions implements the executable content interpreter: it walks
// primitives.Action blocks (the contents of <onentry>, <onexit>,
// <transition>, <if>/<foreach> bodies, and <finalize>) and drives them
// through a Runtime supplied by the owning session.
package actions

import (
	"errors"
	"fmt"
	"time"

	"github.com/comalice/scxmlcore/internal/primitives"
	"github.com/comalice/scxmlcore/internal/scripthost"
)

// ResolvedSend is a <send> action after its target/type/delay/id
// expressions have been evaluated, ready for a Runtime to route.
type ResolvedSend struct {
	ID     string
	Event  string
	Target string
	Type   string
	Delay  time.Duration
	Data   any
}

// Runtime is the set of session-level hooks executable content needs
// beyond pure expression evaluation: raising internal events, dispatching
// <send>/<cancel>, and logging. A core.Session implements this by
// delegating expression evaluation to its data model manager's Host and
// handling the rest itself, which keeps this package free of any
// dependency on session/queue/scheduler machinery.
type Runtime interface {
	scripthost.Host
	RaiseInternal(e primitives.Event)
	Send(send ResolvedSend) error
	CancelSend(sendID string) error
	Log(label string, value any)
}

// CommunicationError marks a Runtime.Send/CancelSend failure that the
// Runtime has already turned into a queued error.communication event (5.10,
// 6.2.4: an unreachable/undefined send target is a communication failure,
// not an execution one). Run recognizes
// it and does not also raise error.execution for the same failure.
type CommunicationError struct {
	Err error
}

func (e *CommunicationError) Error() string { return e.Err.Error() }
func (e *CommunicationError) Unwrap() error { return e.Err }

// Run executes a block of actions in document order. Per 3.13, if an
// action raises an error the processor ceases execution of the remaining
// actions in this block. A plain execution failure raises error.execution
// on the internal queue; a CommunicationError from Runtime.Send is left
// alone since the Runtime already raised error.communication itself. Either
// way Run returns the causing error so the caller can log it, but the
// caller should treat the block as having completed (the error has already
// been turned into a queued event, it must not propagate further up as a
// fatal condition).
func Run(rt Runtime, block []primitives.Action) error {
	if err := execBlock(rt, block); err != nil {
		var commErr *CommunicationError
		if !errors.As(err, &commErr) {
			rt.RaiseInternal(primitives.ErrorExecution(""))
		}
		return fmt.Errorf("actions: %w", err)
	}
	return nil
}

// execBlock runs a block without converting a failure into error.execution;
// only the outermost Run call does that conversion, so nested blocks
// (<if> branches, <foreach> bodies) don't raise the event once per nesting
// level.
func execBlock(rt Runtime, block []primitives.Action) error {
	for _, action := range block {
		if err := runOne(rt, action); err != nil {
			return err
		}
	}
	return nil
}

func runOne(rt Runtime, action primitives.Action) error {
	switch action.Kind {
	case primitives.ActionRaise:
		return runRaise(rt, action.Raise)
	case primitives.ActionSend:
		return runSend(rt, action.Send)
	case primitives.ActionCancel:
		return runCancel(rt, action.Cancel)
	case primitives.ActionAssign:
		return runAssign(rt, action.Assign)
	case primitives.ActionScript:
		return rt.ExecuteScript(action.Script.Body)
	case primitives.ActionIf:
		return runIf(rt, action.If)
	case primitives.ActionForeach:
		return runForeach(rt, action.Foreach)
	case primitives.ActionLog:
		return runLog(rt, action.Log)
	default:
		return fmt.Errorf("unknown action kind %q", action.Kind)
	}
}

func runRaise(rt Runtime, a *primitives.RaiseAction) error {
	rt.RaiseInternal(primitives.NewInternalEvent(a.Event, nil))
	return nil
}

func runSend(rt Runtime, a *primitives.SendAction) error {
	resolved := ResolvedSend{ID: a.ID}

	eventName := a.Event
	if a.EventExpr != "" {
		v, err := rt.Eval(a.EventExpr)
		if err != nil {
			return err
		}
		eventName = fmt.Sprintf("%v", v)
	}
	resolved.Event = eventName

	target := a.Target
	if a.TargetExpr != "" {
		v, err := rt.Eval(a.TargetExpr)
		if err != nil {
			return err
		}
		target = fmt.Sprintf("%v", v)
	}
	resolved.Target = target

	sendType := a.Type
	if a.TypeExpr != "" {
		v, err := rt.Eval(a.TypeExpr)
		if err != nil {
			return err
		}
		sendType = fmt.Sprintf("%v", v)
	}
	resolved.Type = sendType

	if a.DelayExpr != "" {
		v, err := rt.Eval(a.DelayExpr)
		if err != nil {
			return err
		}
		d, err := time.ParseDuration(fmt.Sprintf("%v", v))
		if err != nil {
			return fmt.Errorf("invalid delayexpr result %v: %w", v, err)
		}
		resolved.Delay = d
	} else if a.Delay != "" {
		d, err := time.ParseDuration(a.Delay)
		if err != nil {
			return fmt.Errorf("invalid delay %q: %w", a.Delay, err)
		}
		resolved.Delay = d
	}

	data, err := buildSendData(rt, a.Namelist, a.Params, a.Content, a.ContentExpr)
	if err != nil {
		return err
	}
	resolved.Data = data

	return rt.Send(resolved)
}

func buildSendData(rt Runtime, namelist []string, params []primitives.Param, content, contentExpr string) (any, error) {
	if contentExpr != "" {
		return rt.Eval(contentExpr)
	}
	if len(namelist) == 0 && len(params) == 0 {
		if content != "" {
			return content, nil
		}
		return nil, nil
	}
	data := make(map[string]any, len(namelist)+len(params))
	for _, name := range namelist {
		v, err := rt.Get(name)
		if err != nil {
			return nil, err
		}
		data[name] = v
	}
	for _, p := range params {
		var v any
		var err error
		switch {
		case p.Expr != "":
			v, err = rt.Eval(p.Expr)
		case p.Location != "":
			v, err = rt.Get(p.Location)
		}
		if err != nil {
			return nil, err
		}
		data[p.Name] = v
	}
	return data, nil
}

func runCancel(rt Runtime, a *primitives.CancelAction) error {
	id := a.SendID
	if a.SendIDExpr != "" {
		v, err := rt.Eval(a.SendIDExpr)
		if err != nil {
			return err
		}
		id = fmt.Sprintf("%v", v)
	}
	return rt.CancelSend(id)
}

func runAssign(rt Runtime, a *primitives.AssignAction) error {
	return rt.Assign(a.Location, a.Expr)
}

func runIf(rt Runtime, a *primitives.IfAction) error {
	for _, branch := range a.Branches {
		matched := branch.Cond == ""
		if !matched {
			ok, err := rt.EvalBool(branch.Cond)
			if err != nil {
				return err
			}
			matched = ok
		}
		if matched {
			return execBlock(rt, branch.Actions)
		}
	}
	return nil
}

func runForeach(rt Runtime, a *primitives.ForeachAction) error {
	v, err := rt.Eval(a.Array)
	if err != nil {
		return err
	}
	items, ok := v.([]any)
	if !ok {
		return fmt.Errorf("foreach array %q did not evaluate to a list, got %T", a.Array, v)
	}
	for i, item := range items {
		if err := rt.AssignValue(a.Item, item); err != nil {
			return err
		}
		if a.Index != "" {
			if err := rt.AssignValue(a.Index, i); err != nil {
				return err
			}
		}
		if err := execBlock(rt, a.Body); err != nil {
			return err
		}
	}
	return nil
}

func runLog(rt Runtime, a *primitives.LogAction) error {
	var value any
	if a.Expr != "" {
		v, err := rt.Eval(a.Expr)
		if err != nil {
			return err
		}
		value = v
	}
	rt.Log(a.Label, value)
	return nil
}
