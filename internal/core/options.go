package core

import (
	"github.com/comalice/scxmlcore/internal/datamodel"
	"github.com/comalice/scxmlcore/internal/invoke"
	"github.com/comalice/scxmlcore/internal/logging"
	"github.com/comalice/scxmlcore/internal/registry"
	"github.com/comalice/scxmlcore/internal/scripthost"
)

// Option configures a Session at construction time.
type Option func(*Session)

// WithLogger overrides the default no-op Logger.
func WithLogger(l logging.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// WithScriptHostFactory selects the scripthost.Host backend a session's data
// model runs against (exprhost by default). Use exprhost.New or
// luahost.New, or any other scripthost.Factory.
func WithScriptHostFactory(f scripthost.Factory) Option {
	return func(s *Session) { s.scriptFactory = f }
}

// WithSrcLoader configures how <data src="..."/> content is fetched. Without
// one, any src-based <data> item fails to bind. <invoke src="..."/> is not
// fetched through it; the invoke.Factory receives the spec as written.
func WithSrcLoader(loader datamodel.SrcLoader) Option {
	return func(s *Session) { s.srcLoader = loader }
}

// WithInvokeFactory configures how <invoke> elements are realized as child
// sessions. Without one, every invocation fails with error.communication.
func WithInvokeFactory(f invoke.Factory) Option {
	return func(s *Session) { s.invokeFactory = f }
}

// WithRegistry shares a single cross-session registry across a family of
// sessions (a parent and the children it invokes), so #_parent and
// #_<invokeid> sends can resolve. Sessions that don't share a registry can
// never reach each other by send target.
func WithRegistry(r *registry.Registry) Option {
	return func(s *Session) { s.reg = r }
}

// WithSessionID overrides the generated session id. Mostly useful for tests
// that want deterministic ids; production callers should let New generate
// one.
func WithSessionID(id string) Option {
	return func(s *Session) { s.id = id }
}

// WithParent marks this session as an invoked child: parentID is the
// invoking session's id (the target of "#_parent" sends) and invokeID is
// the <invoke> id the parent will recognize in its done.invoke.<id> and
// "#_<invokeid>" routing.
func WithParent(parentID, invokeID string) Option {
	return func(s *Session) {
		s.parentID = parentID
		s.invokeID = invokeID
	}
}

// WithIOProcessor registers an additional _ioprocessors entry beyond the
// default SCXML Event I/O Processor, e.g. a BasicHTTP endpoint URL.
func WithIOProcessor(name, location string) Option {
	return func(s *Session) { s.ioprocessors[name] = location }
}
