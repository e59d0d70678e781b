// Package basichttp is a BasicHTTP Event I/O Processor: an HTTP endpoint
// that receives POSTed SCXML events and delivers them into a running
// session's external queue via the registry, the same delivery path
// "#_scxml_<sessionid>" targets use in-process.
//
// It addresses sessions by id in the URL path, so a <send> elsewhere that
// wants to reach a session behind this endpoint uses an absolute URL of the
// form "http://host:port/events/<sessionid>" as its target rather than one
// of core's in-process "#_..." aliases. Outbound delivery for
// <send type="basichttp"> is not wired into Session.Send, which currently
// only resolves the default SCXML Event I/O Processor; a session that wants
// to reach a remote BasicHTTP endpoint needs a dedicated Runtime.Send
// implementation, which is out of scope here.
package basichttp

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/comalice/scxmlcore/internal/logging"
	"github.com/comalice/scxmlcore/internal/primitives"
	"github.com/comalice/scxmlcore/internal/registry"
)

// ProcessorType is the _ioprocessors name a Session should register under
// WithIOProcessor for send targets routed through a Server.
const ProcessorType = "http://www.w3.org/TR/scxml/#BasicHTTPEventProcessor"

// eventRequest is the wire shape of a POSTed event body.
type eventRequest struct {
	Name string `json:"name"`
	Data any    `json:"data,omitempty"`
}

// Server is an HTTP front door onto a family of sessions sharing one
// registry.Registry. Each Session that should be reachable this way must be
// constructed with the same registry, normally via core.WithRegistry.
type Server struct {
	reg    *registry.Registry
	logger logging.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithLogger overrides the default no-op Logger.
func WithLogger(l logging.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// New builds a Server that delivers into sessions registered with reg.
func New(reg *registry.Registry, opts ...Option) *Server {
	s := &Server{reg: reg, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router builds the mux.Router exposing this Server's endpoints:
//
//	POST /events/{sessionid}  deliver a JSON event body to sessionid
//	GET  /events/{sessionid}  report whether sessionid is currently live
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/events/{sessionid}", s.handleDeliver).Methods(http.MethodPost)
	r.HandleFunc("/events/{sessionid}", s.handleStatus).Methods(http.MethodGet)
	return r
}

func (s *Server) handleDeliver(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionid"]

	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON event body", http.StatusBadRequest)
		return
	}
	if req.Name == "" {
		http.Error(w, "event name is required", http.StatusBadRequest)
		return
	}

	ev := primitives.Event{
		Name:       req.Name,
		Kind:       primitives.EventExternal,
		Data:       req.Data,
		OriginType: ProcessorType,
	}

	if err := s.reg.Deliver(sessionID, ev); err != nil {
		s.logger.Warnw("basichttp: delivery failed", "session", sessionID, "event", req.Name, "error", err)
		http.Error(w, fmt.Sprintf("no such session %q", sessionID), http.StatusNotFound)
		return
	}

	s.logger.Infow("basichttp: delivered event", "session", sessionID, "event", req.Name)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]string{"status": "delivered"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionid"]
	_, live := s.reg.Lookup(sessionID)

	w.Header().Set("Content-Type", "application/json")
	if !live {
		w.WriteHeader(http.StatusNotFound)
	}
	json.NewEncoder(w).Encode(map[string]bool{"live": live})
}
