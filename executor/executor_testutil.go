package executor

import (
	"context"
	"testing"

	language "github.com/hanpama/validity/language"
	schema "github.com/hanpama/validity/schema"
)

// mustParseQuery parses a GraphQL query and fails the test on error.
func mustParseQuery(t *testing.T, q string) *language.QueryDocument {
	t.Helper()
	d, err := language.ParseQuery(q)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	return d
}

// valueResolver returns a resolver that always yields v.
func valueResolver(v any) schema.ResolveFunc {
	return func(ctx context.Context, source any, args map[string]any) (any, error) {
		return v, nil
	}
}

// errResolver returns a resolver that always fails with err.
func errResolver(err error) schema.ResolveFunc {
	return func(ctx context.Context, source any, args map[string]any) (any, error) {
		return nil, err
	}
}

// resolverCall records one resolver invocation for call-sequence assertions.
type resolverCall struct {
	Field  string
	Source any
	Args   map[string]any
	Path   schema.Path
}

// callRecorder wraps resolvers so their invocations are captured in order.
type callRecorder struct {
	calls []resolverCall
}

func (r *callRecorder) wrap(field string, inner schema.ResolveFunc) schema.ResolveFunc {
	return func(ctx context.Context, source any, args map[string]any) (any, error) {
		p, _ := schema.PathFromContext(ctx)
		r.calls = append(r.calls, resolverCall{Field: field, Source: source, Args: args, Path: p})
		return inner(ctx, source, args)
	}
}
