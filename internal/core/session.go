// Package core implements the statechart interpreter proper: Session ties
// together the document model (primitives), the transition selector
// (selector.go, configuration.go), the executable content interpreter
// (actions), the data model (datamodel/scripthost), the event queues
// (events), delayed send scheduling (scheduler), history (history), invoked
// children (invoke), and cross-session routing (registry) into a single
// run-to-completion event loop per the microstep/macrostep algorithm.
package core

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/comalice/scxmlcore/internal/actions"
	"github.com/comalice/scxmlcore/internal/datamodel"
	"github.com/comalice/scxmlcore/internal/events"
	"github.com/comalice/scxmlcore/internal/history"
	"github.com/comalice/scxmlcore/internal/invoke"
	"github.com/comalice/scxmlcore/internal/logging"
	"github.com/comalice/scxmlcore/internal/primitives"
	"github.com/comalice/scxmlcore/internal/registry"
	"github.com/comalice/scxmlcore/internal/scheduler"
	"github.com/comalice/scxmlcore/internal/scripthost"
	"github.com/comalice/scxmlcore/internal/scripthost/exprhost"
)

// scxmlEventProcessorType is the only _ioprocessors entry a Session exposes
// by default; additional transports (e.g. BasicHTTP) are wired in via
// WithIOProcessor.
const scxmlEventProcessorType = "http://www.w3.org/TR/scxml/#SCXMLEventProcessor"

type pendingInvoke struct {
	state *primitives.StateConfig
}

// Session is one running instance of a statechart document: its own
// configuration, data model, event queues and subsystem managers. A
// top-level session is created with New; a session started to service an
// <invoke> is created the same way, with WithParent recording the routing
// back to its invoker.
type Session struct {
	mu sync.Mutex

	doc    *primitives.MachineConfig
	config *Configuration
	queues events.Pair

	hist *history.Manager
	inv  *invoke.Manager
	sched *scheduler.Scheduler
	reg  *registry.Registry
	dm   *datamodel.Manager

	logger logging.Logger

	id           string
	parentID     string // set when this session is an invoked child
	invokeID     string // the <invoke> id the parent knows this session by
	ioprocessors map[string]string

	scriptFactory scripthost.Factory
	srcLoader     datamodel.SrcLoader
	invokeFactory invoke.Factory

	notify  chan struct{}
	stop    chan struct{}
	doneCh  chan struct{}
	started bool
	stopped bool
	final   bool

	dataBound map[string]bool
	pending   []pendingInvoke
}

// New builds a Session over doc. doc.Build must already have succeeded (New
// calls it defensively if doc.Root is nil). The session is not running until
// Start is called.
func New(doc *primitives.MachineConfig, opts ...Option) (*Session, error) {
	if doc.Root == nil {
		if err := doc.Build(); err != nil {
			return nil, fmt.Errorf("session: building document: %w", err)
		}
	}

	s := &Session{
		doc:          doc,
		config:       NewConfiguration(),
		hist:         history.New(),
		reg:          registry.New(),
		logger:       logging.NewNop(),
		id:           uuid.NewString(),
		ioprocessors: map[string]string{scxmlEventProcessorType: ""},
		notify:       make(chan struct{}, 1),
		stop:         make(chan struct{}),
		doneCh:       make(chan struct{}),
		dataBound:    make(map[string]bool),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.scriptFactory == nil {
		s.scriptFactory = exprhost.New
	}
	host, err := s.scriptFactory()
	if err != nil {
		return nil, fmt.Errorf("session: constructing script host: %w", err)
	}
	host.SetInPredicate(s.config.Has)
	s.dm = datamodel.New(host, s.srcLoader)

	s.sched = scheduler.New(s.deliverScheduled)

	if s.invokeFactory == nil {
		s.invokeFactory = defaultInvokeFactory
	}
	s.inv = invoke.New(s.invokeFactory)

	s.reg.Register(s)

	return s, nil
}

func defaultInvokeFactory(spec primitives.InvokeSpec, parentSessionID string, data map[string]any) (invoke.ChildSession, error) {
	return nil, fmt.Errorf("invoke: no factory configured for invoke type %q", spec.Type)
}

// SessionID returns this session's id, used for _sessionid, registry
// routing, and invoke/#_parent target resolution.
func (s *Session) SessionID() string { return s.id }

// Start seeds system variables, enters the document's initial configuration,
// runs any eventless transitions that immediately fire, executes invocations
// started by that settling, and launches the background event loop.
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return errors.New("session: already started")
	}
	s.started = true

	if err := s.dm.SeedSystemVars(s.id, s.doc.ID, s.ioprocessors); err != nil {
		return fmt.Errorf("session: seeding system variables: %w", err)
	}

	initial := []resolvedTransition{{
		source:  primitives.RootID,
		trans:   primitives.TransitionConfig{Targets: []string{s.doc.Initial}},
		targets: []string{s.doc.Initial},
	}}
	entry := ComputeEntrySet(s.doc, s.hist, initial)
	s.enterStates(entry.toEnter)
	s.runToQuiescence()
	s.flushPendingInvokes()

	go s.loop()
	return nil
}

// Stop tears down the session: invoked children are cancelled, the session
// unregisters itself, and the background loop exits. Stop is idempotent.
func (s *Session) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	s.mu.Unlock()

	close(s.stop)
	s.inv.StopAll()
	s.reg.Unregister(s.id)
}

// Wait blocks until the session reaches its top-level final state.
func (s *Session) Wait() { <-s.doneCh }

// Done reports whether the document has reached its top-level final state.
func (s *Session) Done() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.final
}

// ActiveStates returns a sorted snapshot of the session's current
// configuration, for diagnostics, persistence, and visualization.
func (s *Session) ActiveStates() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := s.config.IDs()
	sort.Strings(ids)
	return ids
}

// IsIn reports whether stateID is part of the current configuration.
func (s *Session) IsIn(stateID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.config.Has(stateID)
}

// EnqueueExternal delivers an externally originated event (I/O processor,
// invoked child, another session's <send>, or a delayed send firing) to this
// session and wakes its event loop. Implements registry.Handle and
// invoke.ChildSession.
func (s *Session) EnqueueExternal(e primitives.Event) {
	s.queues.Deliver(e)
	s.wake()
}

// Dispatch is a convenience wrapper around EnqueueExternal for callers
// driving a session directly rather than through an I/O processor.
func (s *Session) Dispatch(name string, data any) {
	s.EnqueueExternal(primitives.NewEvent(name, data))
}

func (s *Session) wake() {
	select {
	case s.notify <- struct{}{}:
	default:
	}
}

// loop is the session's background run-to-completion driver: block until an
// external event (or stop) arrives, process it to quiescence, execute any
// invocations that settling deferred, repeat.
func (s *Session) loop() {
	for {
		s.mu.Lock()
		if s.stopped || s.final {
			s.mu.Unlock()
			return
		}
		e, ok := s.queues.NextExternal()
		if !ok {
			s.mu.Unlock()
			select {
			case <-s.stop:
				return
			case <-s.notify:
			}
			continue
		}

		s.inv.Forward(e)
		s.processEvent(e)
		s.runToQuiescence()
		s.flushPendingInvokes()
		s.mu.Unlock()
	}
}

func (s *Session) processEvent(e primitives.Event) {
	if err := s.dm.SetEvent(e); err != nil {
		s.logger.Warnw("failed to set _event", "error", err)
	}
	if e.InvokeID != "" {
		if act, ok := s.inv.Lookup(e.InvokeID); ok && len(act.Finalize) > 0 {
			if err := actions.Run(s, act.Finalize); err != nil {
				s.logger.Warnw("finalize failed", "invoke", e.InvokeID, "error", err)
			}
		}
	}
	transitions := SelectTransitions(s.doc, s.hist, s.config, s.evalGuard, &e)
	if len(transitions) == 0 {
		return
	}
	s.microstep(transitions)
}

// runToQuiescence drains the internal queue and fires eventless transitions
// until neither applies, per 3.13's macrostep loop. Must be called with mu
// held.
func (s *Session) runToQuiescence() {
	for {
		if s.final {
			return
		}
		if e, ok := s.queues.NextInternal(); ok {
			if err := s.dm.SetEvent(e); err != nil {
				s.logger.Warnw("failed to set _event", "error", err)
			}
			if transitions := SelectTransitions(s.doc, s.hist, s.config, s.evalGuard, &e); len(transitions) > 0 {
				s.microstep(transitions)
			}
			continue
		}
		transitions := SelectTransitions(s.doc, s.hist, s.config, s.evalGuard, nil)
		if len(transitions) == 0 {
			return
		}
		s.microstep(transitions)
	}
}

// microstep runs one exit/transition-actions/entry cycle for an already
// conflict-resolved set of transitions.
func (s *Session) microstep(transitions []resolvedTransition) {
	exitIDs := ComputeExitSet(s.doc, s.config, transitions)
	s.recordHistories(exitIDs)
	s.exitStates(exitIDs)

	ordered := append([]resolvedTransition(nil), transitions...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return s.doc.StateByID(ordered[i].source).DocOrder < s.doc.StateByID(ordered[j].source).DocOrder
	})
	for _, t := range ordered {
		if err := actions.Run(s, s.resolveActions(t.trans.Actions)); err != nil {
			s.logger.Warnw("transition action failed", "event", t.trans.Event, "error", err)
		}
	}

	entry := ComputeEntrySet(s.doc, s.hist, transitions)
	s.enterStates(entry.toEnter)
}

// recordHistories snapshots, for every history pseudo-state whose parent is
// about to be exited, the configuration that its default transition should
// restore next time the parent is (re-)entered via that history. Must run
// before exitStates removes anything from the configuration.
func (s *Session) recordHistories(exitIDs []string) {
	for _, id := range exitIDs {
		st := s.doc.StateByID(id)
		if st == nil {
			continue
		}
		for _, child := range st.Children {
			if !child.IsHistory() {
				continue
			}
			var ids []string
			if child.Type == primitives.ShallowHistory {
				for _, sibling := range st.Children {
					if sibling.IsHistory() {
						continue
					}
					if s.config.Has(sibling.ID) {
						ids = append(ids, sibling.ID)
					}
				}
			} else {
				// Deep history records only the active atomic descendants,
				// not every active ancestor in between: restoring replays
				// each recorded leaf's own ancestor chain (addAncestor), so
				// recording an intermediate compound state here as well
				// would make it re-enter via its default Initial child and
				// clobber the very leaf this history is meant to restore.
				for _, activeID := range s.config.IDs() {
					activeSt := s.doc.StateByID(activeID)
					if activeSt != nil && activeSt.IsAtomicLike() && isDescendant(s.doc, activeID, st.ID) {
						ids = append(ids, activeID)
					}
				}
			}
			s.hist.Record(child.ID, ids)
		}
	}
}

func (s *Session) exitStates(ids []string) {
	for _, id := range ids {
		st := s.doc.StateByID(id)
		if st == nil {
			continue
		}
		s.inv.CancelForState(id)
		if err := actions.Run(s, s.resolveActions(st.Exit)); err != nil {
			s.logger.Warnw("exit action failed", "state", id, "error", err)
		}
		s.config.Remove(id)
	}
}

func (s *Session) enterStates(ids []string) {
	for _, id := range ids {
		st := s.doc.StateByID(id)
		if st == nil {
			continue
		}
		s.config.Add(id)

		if !s.dataBound[id] && len(st.Data) > 0 {
			if err := s.dm.Bind(st.Data); err != nil {
				s.logger.Warnw("data binding failed", "state", id, "error", err)
				s.queues.Raise(primitives.ErrorExecution(""))
			}
			s.dataBound[id] = true
		}

		if err := actions.Run(s, s.resolveActions(st.Entry)); err != nil {
			s.logger.Warnw("entry action failed", "state", id, "error", err)
		}

		if len(st.Invoke) > 0 {
			s.pending = append(s.pending, pendingInvoke{state: st})
		}

		if st.Type == primitives.Final {
			s.onFinalEntered(st)
		}
	}
}

// onFinalEntered implements done.state.* generation (3.13, 3.7): entering a
// <final> raises done.state on its compound parent; if that parent is one
// region of a <parallel> and every region is now likewise done, done.state
// fires on the parallel too, propagating upward. A final directly under the
// document root ends the session.
func (s *Session) onFinalEntered(final *primitives.StateConfig) {
	parent := s.doc.StateByID(final.ParentID)
	if parent == nil {
		return
	}
	if parent.ID == primitives.RootID {
		s.finishDocument(final)
		return
	}
	if parent.Type != primitives.Compound {
		return
	}

	s.queues.Raise(primitives.NewPlatformEvent("done.state."+parent.ID, s.buildDoneData(final.Donedata)))

	grandparent := s.doc.StateByID(parent.ParentID)
	for grandparent != nil && grandparent.Type == primitives.Parallel && s.parallelRegionsDone(grandparent) {
		s.queues.Raise(primitives.NewPlatformEvent("done.state."+grandparent.ID, nil))
		if grandparent.ParentID == primitives.RootID || grandparent.ParentID == "" {
			s.finishDocument(final)
			return
		}
		greatGrandparent := s.doc.StateByID(grandparent.ParentID)
		if greatGrandparent == nil || greatGrandparent.Type != primitives.Compound {
			return
		}
		parent = greatGrandparent
		grandparent = s.doc.StateByID(parent.ParentID)
	}
}

func (s *Session) parallelRegionsDone(parallel *primitives.StateConfig) bool {
	for _, region := range parallel.Children {
		if !s.regionInFinal(region) {
			return false
		}
	}
	return true
}

func (s *Session) regionInFinal(region *primitives.StateConfig) bool {
	for _, c := range region.Children {
		if c.Type == primitives.Final && s.config.Has(c.ID) {
			return true
		}
	}
	return false
}

// finishDocument marks the session done and, if it is an invoked child,
// delivers done.invoke.<id> to its parent.
func (s *Session) finishDocument(final *primitives.StateConfig) {
	s.final = true
	select {
	case <-s.doneCh:
	default:
		close(s.doneCh)
	}
	if s.parentID == "" || s.invokeID == "" {
		return
	}
	ev := primitives.NewPlatformEvent("done.invoke."+s.invokeID, s.buildDoneData(final.Donedata))
	ev.InvokeID = s.invokeID
	ev.Origin = s.id
	if err := s.reg.Deliver(s.parentID, ev); err != nil {
		s.logger.Warnw("failed to deliver done.invoke to parent", "parent", s.parentID, "error", err)
	}
}

func (s *Session) buildDoneData(dd *primitives.DoneData) any {
	if dd == nil {
		return nil
	}
	if dd.ContentExpr != "" {
		v, err := s.Eval(dd.ContentExpr)
		if err != nil {
			s.logger.Warnw("donedata contentexpr failed", "error", err)
			return nil
		}
		return v
	}
	if dd.Content != "" {
		return dd.Content
	}
	if len(dd.Params) == 0 {
		return nil
	}
	out := make(map[string]any, len(dd.Params))
	for _, p := range dd.Params {
		var v any
		var err error
		switch {
		case p.Expr != "":
			v, err = s.Eval(p.Expr)
		case p.Location != "":
			v, err = s.Get(p.Location)
		}
		if err != nil {
			s.logger.Warnw("donedata param failed", "param", p.Name, "error", err)
			continue
		}
		out[p.Name] = v
	}
	return out
}

// flushPendingInvokes executes every invocation deferred by enterStates
// during this macrostep whose state survived to quiescence, per 6.4.
func (s *Session) flushPendingInvokes() {
	pending := s.pending
	s.pending = nil
	for _, p := range pending {
		if !s.config.Has(p.state.ID) {
			continue
		}
		for i, spec := range p.state.Invoke {
			invokeID := spec.ID
			if invokeID == "" {
				invokeID = fmt.Sprintf("%s.%d.%s", p.state.ID, i, uuid.NewString())
			}
			if spec.IDLocation != "" {
				if err := s.AssignValue(spec.IDLocation, invokeID); err != nil {
					s.logger.Warnw("invoke idlocation assignment failed", "state", p.state.ID, "error", err)
				}
			}
			data, err := s.resolveInvokeData(spec)
			if err != nil {
				s.logger.Warnw("invoke data resolution failed", "state", p.state.ID, "error", err)
				s.queues.Raise(primitives.ErrorExecution(""))
				continue
			}
			if err := s.inv.Execute(spec, invokeID, p.state.ID, s.id, data); err != nil {
				s.logger.Warnw("invoke execution failed", "state", p.state.ID, "error", err)
				s.queues.Raise(primitives.ErrorCommunication(""))
			}
		}
	}
}

func (s *Session) resolveInvokeData(spec primitives.InvokeSpec) (map[string]any, error) {
	data := make(map[string]any, len(spec.Namelist)+len(spec.Params))
	for _, name := range spec.Namelist {
		v, err := s.Get(name)
		if err != nil {
			return nil, err
		}
		data[name] = v
	}
	for _, p := range spec.Params {
		var v any
		var err error
		switch {
		case p.Expr != "":
			v, err = s.Eval(p.Expr)
		case p.Location != "":
			v, err = s.Get(p.Location)
		}
		if err != nil {
			return nil, err
		}
		data[p.Name] = v
	}
	return data, nil
}

// resolveActions extracts the concrete primitives.Action blocks from a slice
// of the document model's polymorphic ActionRef (which also allows hand-built
// Go closures and registered action ids for non-SCXML-sourced documents).
// Every document this session can load (MachineBuilder, scxmlxml) only ever
// populates ActionRef with primitives.Action values, so a ref of any other
// underlying type is logged and dropped rather than executed.
func (s *Session) resolveActions(refs []primitives.ActionRef) []primitives.Action {
	if len(refs) == 0 {
		return nil
	}
	out := make([]primitives.Action, 0, len(refs))
	for _, ref := range refs {
		act, ok := ref.(primitives.Action)
		if !ok {
			s.logger.Warnw("unsupported action reference type", "type", fmt.Sprintf("%T", ref))
			continue
		}
		out = append(out, act)
	}
	return out
}

func (s *Session) evalGuard(t primitives.TransitionConfig) bool {
	if t.Guard == nil {
		return true
	}
	expr, ok := t.Guard.(string)
	if !ok {
		s.logger.Warnw("unsupported guard reference type", "type", fmt.Sprintf("%T", t.Guard))
		return false
	}
	if expr == "" {
		return true
	}
	result, err := s.EvalBool(expr)
	if err != nil {
		s.logger.Warnw("guard evaluation failed", "cond", expr, "error", err)
		s.queues.Raise(primitives.ErrorExecution(""))
		return false
	}
	return result
}

// resolveTarget maps a <send> target attribute to a routable session id, per
// 6.2.4 and the special "#_internal"/"#_parent"/"#_scxml_<sessionid>"/
// "#_<invokeid>" forms.
func (s *Session) resolveTarget(target string) (sessionID string, internal bool, err error) {
	switch {
	case target == "":
		return s.id, false, nil
	case target == "#_internal":
		return "", true, nil
	case target == "#_parent":
		if s.parentID == "" {
			return "", false, errors.New("send: session has no parent")
		}
		return s.parentID, false, nil
	case target == s.id:
		return s.id, false, nil
	case strings.HasPrefix(target, "#_scxml_"):
		return strings.TrimPrefix(target, "#_scxml_"), false, nil
	case strings.HasPrefix(target, "#_"):
		invokeID := strings.TrimPrefix(target, "#_")
		act, ok := s.inv.Lookup(invokeID)
		if !ok {
			return "", false, fmt.Errorf("send: unknown invocation %q", invokeID)
		}
		return act.Child.SessionID(), false, nil
	default:
		return target, false, nil
	}
}

// Send implements actions.Runtime: resolves a <send>'s target and either
// raises it internally, delivers it immediately, or schedules it for
// delayed delivery.
func (s *Session) Send(send actions.ResolvedSend) error {
	if send.Type != "" && send.Type != scxmlEventProcessorType {
		return fmt.Errorf("send: unsupported I/O processor type %q", send.Type)
	}

	sessionID, internal, err := s.resolveTarget(send.Target)
	if err != nil {
		return s.sendFailure(send.ID, err)
	}

	ev := primitives.Event{
		Name:       send.Event,
		Data:       send.Data,
		Origin:     s.id,
		OriginType: scxmlEventProcessorType,
		SendID:     send.ID,
	}
	if send.Target == "#_parent" {
		ev.InvokeID = s.invokeID
	}

	if internal {
		ev.Kind = primitives.EventInternal
		s.queues.Raise(ev)
		return nil
	}

	ev.Kind = primitives.EventExternal
	if send.Delay > 0 {
		id := send.ID
		if id == "" {
			id = uuid.NewString()
		}
		s.sched.Schedule(id, sessionID, ev, send.Delay)
		return nil
	}
	if err := s.routeExternal(sessionID, ev); err != nil {
		return s.sendFailure(send.ID, err)
	}
	return nil
}

// sendFailure handles a <send> routing/delivery failure per 6.2.4 (an
// unsupported type is not one: Send returns that as a plain error, which
// actions.Run turns into error.execution): it raises
// error.communication carrying the failing send's id and returns a
// CommunicationError so actions.Run does not also raise error.execution on
// top of it.
func (s *Session) sendFailure(sendID string, err error) error {
	s.queues.Raise(primitives.ErrorCommunication(sendID))
	return &actions.CommunicationError{Err: fmt.Errorf("send: %w", err)}
}

func (s *Session) routeExternal(sessionID string, e primitives.Event) error {
	if sessionID == s.id {
		s.queues.Deliver(e)
		return nil
	}
	return s.reg.Deliver(sessionID, e)
}

// deliverScheduled is the scheduler.Deliver callback: it fires on the
// scheduler's own timer goroutine, so it must not touch session state
// directly — EnqueueExternal/queues.Deliver are already safe for that.
func (s *Session) deliverScheduled(sessionID string, e primitives.Event) {
	if sessionID == s.id {
		s.EnqueueExternal(e)
		return
	}
	if err := s.reg.Deliver(sessionID, e); err != nil {
		s.logger.Warnw("scheduled send delivery failed", "target", sessionID, "error", err)
		s.reg.Deliver(s.id, primitives.ErrorCommunication(e.SendID))
	}
}

// CancelSend implements actions.Runtime. Cancelling an unknown or
// already-fired send id is a no-op, per 6.3.
func (s *Session) CancelSend(sendID string) error {
	s.sched.Cancel(sendID)
	return nil
}

// RaiseInternal implements actions.Runtime.
func (s *Session) RaiseInternal(e primitives.Event) {
	s.queues.Raise(e)
}

// Log implements actions.Runtime.
func (s *Session) Log(label string, value any) {
	s.logger.Infow("scxml log", "label", label, "value", value)
}

// scripthost.Host forwarding, so Session satisfies actions.Runtime directly
// without exposing the underlying datamodel.Manager to callers.

func (s *Session) SetVariable(name string, value any) error { return s.dm.Host().SetVariable(name, value) }
func (s *Session) Get(name string) (any, error)              { return s.dm.Host().Get(name) }
func (s *Session) Eval(expr string) (any, error)              { return s.dm.Host().Eval(expr) }
func (s *Session) EvalBool(expr string) (bool, error)         { return s.dm.Host().EvalBool(expr) }
func (s *Session) Assign(location, expr string) error         { return s.dm.Host().Assign(location, expr) }
func (s *Session) AssignValue(location string, value any) error {
	return s.dm.Host().AssignValue(location, value)
}
func (s *Session) ExecuteScript(body string) error { return s.dm.Host().ExecuteScript(body) }
func (s *Session) SetInPredicate(fn func(stateID string) bool) {
	s.dm.Host().SetInPredicate(fn)
}
