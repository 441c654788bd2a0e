package schema

import "context"

// Schema is the root of an executable schema: all object types keyed by name
// plus the names of the root operation types.
type Schema struct {
	QueryType    string
	MutationType string
	Types        map[string]*Object
	Description  string
}

func NewSchema(description string) *Schema {
	return &Schema{Types: map[string]*Object{}, Description: description}
}

func (s *Schema) SetQueryType(name string) *Schema    { s.QueryType = name; return s }
func (s *Schema) SetMutationType(name string) *Schema { s.MutationType = name; return s }

func (s *Schema) AddType(t *Object) *Schema {
	s.Types[t.Name] = t
	return s
}

// GetQueryType returns the root query type (may be nil if absent)
func (s *Schema) GetQueryType() *Object { return s.Types[s.QueryType] }

// GetMutationType returns the root mutation type (may be nil if absent)
func (s *Schema) GetMutationType() *Object { return s.Types[s.MutationType] }

// Object is a named object type with resolvable fields. Scalars and enums are
// not registered here; a type name absent from Schema.Types is a leaf.
type Object struct {
	Name        string
	Description string
	Fields      []*Field
}

func NewObject(name string) *Object { return &Object{Name: name} }

func (o *Object) AddField(f *Field) *Object {
	o.Fields = append(o.Fields, f)
	return o
}

// Field returns the field definition with the given name, or nil.
func (o *Object) Field(name string) *Field {
	for _, f := range o.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// ResolveFunc computes a field's value. source is the parent object value
// (nil for root fields) and args holds the field arguments.
type ResolveFunc func(ctx context.Context, source any, args map[string]any) (any, error)

// Field is a field declaration on an object type. Resolve may be nil, in
// which case execution falls back to looking the field up on the source.
type Field struct {
	Name        string
	Description string
	Type        *TypeRef
	Resolve     ResolveFunc
}

// TypeRef represents a reference to a type (can be wrapped)
type TypeRef struct {
	Kind   TypeRefKind
	OfType *TypeRef // For List and NonNull
	Named  string   // For named types
}

type TypeRefKind string

const (
	TypeRefKindNamed   TypeRefKind = "NAMED"
	TypeRefKindList    TypeRefKind = "LIST"
	TypeRefKindNonNull TypeRefKind = "NON_NULL"
)

func NamedType(name string) *TypeRef { return &TypeRef{Kind: TypeRefKindNamed, Named: name} }
func ListType(of *TypeRef) *TypeRef  { return &TypeRef{Kind: TypeRefKindList, OfType: of} }
func NonNullType(of *TypeRef) *TypeRef {
	return &TypeRef{Kind: TypeRefKindNonNull, OfType: of}
}

func (t *TypeRef) IsNonNull() bool { return t != nil && t.Kind == TypeRefKindNonNull }
func (t *TypeRef) IsList() bool {
	if t == nil {
		return false
	}
	if t.Kind == TypeRefKindNonNull {
		return t.OfType.IsList()
	}
	return t.Kind == TypeRefKindList
}

// Unwrap removes one layer of List or NonNull wrapping.
func (t *TypeRef) Unwrap() *TypeRef {
	if t != nil && t.OfType != nil {
		return t.OfType
	}
	return t
}

// NamedTypeName returns the innermost named type, ignoring wrappers.
func (t *TypeRef) NamedTypeName() string {
	for t != nil {
		if t.Kind == TypeRefKindNamed {
			return t.Named
		}
		t = t.OfType
	}
	return ""
}
