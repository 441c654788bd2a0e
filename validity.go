// Package validity instruments a graph-shaped schema so business-rule
// validators run around field resolution without touching the schema's
// declarations. Wrapping replaces each field's resolver with one that selects
// and runs registered validators, collects their violations on a per-request
// Context, invokes the original resolver, and unwraps combined data+errors
// results. The aggregate is merged into the outgoing response as non-fatal
// errors next to the data.
package validity

import (
	"context"
	"fmt"

	"github.com/jensneuse/abstractlogger"

	"github.com/hanpama/validity/schema"
)

// FindContextFunc locates the request's validation Context from a resolver's
// invocation arguments. Integration adapters decide where the Context lives;
// the default looks it up on ctx via FromContext. Returning nil skips
// validation and profiling for that invocation.
type FindContextFunc func(ctx context.Context, source any, args map[string]any) *Context

type Options struct {
	// WrapErrors sanitizes errors escaping a wrapped resolver through
	// UnhandledErrorWrapper instead of propagating them unchanged.
	WrapErrors bool

	// EnableProfiling records a timing entry per wrapped field resolution.
	EnableProfiling bool

	// UnhandledErrorWrapper overrides the default sanitizer, which logs the
	// original error under a generated correlation id and returns a generic
	// message embedding that id.
	UnhandledErrorWrapper ErrorWrapper

	// ProfilingResultHandler overrides the default profiling sink, a
	// pretty-printed table on stderr.
	ProfilingResultHandler ProfilingHandler

	// ParentTypeName is used only when wrapping a single bare field outside
	// any type context.
	ParentTypeName string

	// FindContext overrides the default Context discovery.
	FindContext FindContextFunc

	// Logger receives sanitizer and profiling diagnostics. Defaults to a
	// no-op logger.
	Logger abstractlogger.Logger
}

type Option func(*Options)

func WithWrapErrors() Option      { return func(o *Options) { o.WrapErrors = true } }
func WithProfiling() Option       { return func(o *Options) { o.EnableProfiling = true } }
func WithParentTypeName(name string) Option {
	return func(o *Options) { o.ParentTypeName = name }
}
func WithUnhandledErrorWrapper(f ErrorWrapper) Option {
	return func(o *Options) { o.UnhandledErrorWrapper = f }
}
func WithProfilingResultHandler(f ProfilingHandler) Option {
	return func(o *Options) { o.ProfilingResultHandler = f }
}
func WithFindContext(f FindContextFunc) Option {
	return func(o *Options) { o.FindContext = f }
}
func WithLogger(l abstractlogger.Logger) Option {
	return func(o *Options) { o.Logger = l }
}

// Wrapper walks schema entities and intercepts their field resolvers. It
// owns the "already wrapped" side tables, so overlapping wrap calls through
// the same Wrapper never stack a second interception layer onto a field.
type Wrapper struct {
	reg *Registry
	opt Options

	wrappedObjects map[*schema.Object]struct{}
	wrappedFields  map[*schema.Field]struct{}
}

// New creates a Wrapper over the given registry. The registry must be fully
// populated before the wrapped schema serves its first request.
func New(reg *Registry, opts ...Option) *Wrapper {
	opt := Options{}
	for _, f := range opts {
		f(&opt)
	}
	if opt.Logger == nil {
		opt.Logger = abstractlogger.Noop{}
	}
	if opt.UnhandledErrorWrapper == nil {
		opt.UnhandledErrorWrapper = newDefaultErrorWrapper(opt.Logger)
	}
	if opt.ProfilingResultHandler == nil {
		opt.ProfilingResultHandler = DefaultProfilingHandler
	}
	if opt.FindContext == nil {
		opt.FindContext = func(ctx context.Context, source any, args map[string]any) *Context {
			return FromContext(ctx)
		}
	}
	return &Wrapper{
		reg:            reg,
		opt:            opt,
		wrappedObjects: map[*schema.Object]struct{}{},
		wrappedFields:  map[*schema.Field]struct{}{},
	}
}

// WrapResolvers wraps every field resolver reachable from entity using a
// fresh Wrapper and returns it. Callers that wrap overlapping subgraphs in
// separate calls should construct one Wrapper with New and reuse it, so the
// idempotency side tables are shared.
func WrapResolvers(entity any, reg *Registry, opts ...Option) (*Wrapper, error) {
	w := New(reg, opts...)
	if err := w.Wrap(entity); err != nil {
		return nil, err
	}
	return w, nil
}

// Wrap dispatches on the entity's concrete type: a whole schema, one object
// type, or a single field. Each field is visited exactly once per call and
// wrapping an already wrapped entity is a no-op.
func (w *Wrapper) Wrap(entity any) error {
	switch e := entity.(type) {
	case *schema.Schema:
		w.wrapSchema(e)
	case *schema.Object:
		w.wrapObject(e)
	case *schema.Field:
		w.wrapField(e, w.opt.ParentTypeName)
	default:
		return fmt.Errorf("validity: cannot wrap %T: want *schema.Schema, *schema.Object or *schema.Field", entity)
	}
	return nil
}

func (w *Wrapper) wrapSchema(s *schema.Schema) {
	for _, t := range s.Types {
		w.wrapObject(t)
	}
}

func (w *Wrapper) wrapObject(o *schema.Object) {
	if o == nil || len(o.Fields) == 0 {
		return
	}
	if _, done := w.wrappedObjects[o]; done {
		return
	}
	w.wrappedObjects[o] = struct{}{}
	for _, f := range o.Fields {
		w.wrapField(f, o.Name)
	}
}
