// Event provides the immutable event primitive for statechart transitions.
//
// Events are value types. Once created, Events should not be mutated. Use
// NewEvent or one of the Kind-specific constructors.
//
// Kind distinguishes platform-generated events (done.state.*, error.*) from
// internally raised events (<raise>, <send target="#_internal">) and
// externally delivered events (I/O processors, invoked children, delayed
// sends). The microstep engine treats all three uniformly once queued; Kind
// exists so producers, queue routing, and diagnostics can tell them apart.
package primitives

// EventKind classifies the origin of an Event.
type EventKind string

const (
	EventPlatform EventKind = "platform"
	EventInternal EventKind = "internal"
	EventExternal EventKind = "external"
)

// Event is the unit consumed by the microstep engine. Fields mirror the
// SCXML _event system variable.
type Event struct {
	Name       string
	Kind       EventKind
	Data       any    // payload; may be nil/undefined
	Origin     string // origin session id, if any
	OriginType string // origin processor type URI, if any
	InvokeID   string // set when the event was emitted by an invoked child
	SendID     string // set for error events tied to a failed <send>
}

// NewEvent creates an external Event with the given name and payload.
func NewEvent(name string, data any) Event {
	return Event{Name: name, Kind: EventExternal, Data: data}
}

// NewInternalEvent creates an internal (raised) Event.
func NewInternalEvent(name string, data any) Event {
	return Event{Name: name, Kind: EventInternal, Data: data}
}

// NewPlatformEvent creates a platform Event (done.state.*, error.*, done.invoke.*).
func NewPlatformEvent(name string, data any) Event {
	return Event{Name: name, Kind: EventPlatform, Data: data}
}

// ErrorExecution builds the standard error.execution platform event.
func ErrorExecution(sendID string) Event {
	return Event{Name: "error.execution", Kind: EventPlatform, Data: map[string]any{}, SendID: sendID}
}

// ErrorCommunication builds the standard error.communication platform event.
func ErrorCommunication(sendID string) Event {
	return Event{Name: "error.communication", Kind: EventPlatform, Data: map[string]any{}, SendID: sendID}
}
