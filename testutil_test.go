package validity

import (
	"context"
	"reflect"
	"sync/atomic"

	"github.com/hanpama/validity/schema"
)

// fnPointer identifies a function value for equality checks.
func fnPointer(f schema.ResolveFunc) uintptr {
	return reflect.ValueOf(f).Pointer()
}

// countingResolver returns value and bumps calls on every invocation.
func countingResolver(value any, calls *atomic.Int32) schema.ResolveFunc {
	return func(ctx context.Context, source any, args map[string]any) (any, error) {
		calls.Add(1)
		return value, nil
	}
}

// violationValidator reports a single violation with the given message.
func violationValidator(message string) Validator {
	return func(ctx context.Context, source any, args map[string]any) ([]Result, error) {
		return []Result{{Message: message}}, nil
	}
}

// testUserSchema builds a two-type schema: Query.user returning User, and
// User.name returning String. Both fields carry resolvers.
func testUserSchema(userCalls, nameCalls *atomic.Int32) *schema.Schema {
	user := schema.NewObject("User").
		AddField(&schema.Field{
			Name:    "name",
			Type:    schema.NamedType("String"),
			Resolve: countingResolver("John", nameCalls),
		})
	query := schema.NewObject("Query").
		AddField(&schema.Field{
			Name:    "user",
			Type:    schema.NamedType("User"),
			Resolve: countingResolver(map[string]any{}, userCalls),
		})
	s := schema.NewSchema("")
	s.SetQueryType("Query").AddType(query).AddType(user)
	return s
}
