package core

// SessionSnapshot is the serializable state of a running Session: enough to
// diagnose, persist, or restart from. It does not (yet) capture data model
// variable bindings, since scripthost.Host exposes no generic enumeration —
// only named Get/Eval access — so a full state restore still needs the
// document's <data> to be re-bound from source on reload.
type SessionSnapshot struct {
	SessionID string   `json:"sessionId" yaml:"sessionId"`
	MachineID string   `json:"machineId" yaml:"machineId"`
	Active    []string `json:"active" yaml:"active"`
}

// Snapshot captures the session's current configuration.
func (s *Session) Snapshot() SessionSnapshot {
	return SessionSnapshot{
		SessionID: s.id,
		MachineID: s.doc.ID,
		Active:    s.ActiveStates(),
	}
}
