package validity

import "context"

// Selector forms recognized by the registry:
//
//	"*"           every field
//	"TypeName"    every field returning TypeName
//	"Parent:field"  one specific field
//	"$"           global validators, run once per request
const (
	SelectorAll    = "*"
	SelectorGlobal = "$"
)

// FieldSelector builds the selector for one specific field.
func FieldSelector(parentType, field string) string {
	return parentType + ":" + field
}

// Validator checks a business rule around one field resolution. It receives
// exactly the arguments the resolver would receive and returns zero or more
// violations. A returned error aborts the resolution; violations do not.
type Validator func(ctx context.Context, source any, args map[string]any) ([]Result, error)

// Registry maps selectors to ordered validator lists. All registration
// happens during setup, before any request is served; afterwards the registry
// is only read, concurrently and without locking.
type Registry struct {
	validators map[string][]Validator
}

func NewRegistry() *Registry {
	return &Registry{validators: map[string][]Validator{}}
}

// Register appends v to the list for selector. Registering the same function
// twice under one selector runs it twice; nothing is deduplicated.
func (r *Registry) Register(selector string, v Validator) *Registry {
	r.validators[selector] = append(r.validators[selector], v)
	return r
}

// Lookup returns the validators registered under selector in registration
// order, or nil if there are none.
func (r *Registry) Lookup(selector string) []Validator {
	return r.validators[selector]
}
