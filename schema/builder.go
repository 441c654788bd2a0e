package schema

import (
	"fmt"

	language "github.com/hanpama/validity/language"
)

// Resolvers binds resolver functions to fields. Keys are of the form
// "TypeName.fieldName".
type Resolvers map[string]ResolveFunc

// BuildSDL builds an executable schema from GraphQL SDL, attaching the given
// resolvers to their fields. Object and interface definitions become Object
// types; scalar, enum, union and input definitions are left unregistered so
// execution treats them as leaves. A resolver bound to an unknown field is an
// error, catching typos in the binding map early.
func BuildSDL(name, sdl string, resolvers Resolvers) (*Schema, error) {
	doc, err := language.ParseSchema(name, sdl)
	if err != nil {
		return nil, err
	}

	s := NewSchema("")
	s.SetQueryType("Query").SetMutationType("Mutation")
	for _, sd := range doc.Schema {
		for _, op := range sd.OperationTypes {
			switch op.Operation {
			case language.Query:
				s.SetQueryType(op.Type)
			case language.Mutation:
				s.SetMutationType(op.Type)
			}
		}
	}

	bound := make(map[string]bool, len(resolvers))
	for _, def := range doc.Definitions {
		if def.Kind != language.Object && def.Kind != language.Interface {
			continue
		}
		t := buildObject(def, resolvers, bound)
		s.AddType(t)
	}

	for key := range resolvers {
		if !bound[key] {
			return nil, fmt.Errorf("schema %s: resolver %q does not match any field", name, key)
		}
	}
	return s, nil
}

func buildObject(def *language.Definition, resolvers Resolvers, bound map[string]bool) *Object {
	t := NewObject(def.Name)
	t.Description = def.Description
	for _, fd := range def.Fields {
		f := &Field{
			Name:        fd.Name,
			Description: fd.Description,
			Type:        typeRefFromAST(fd.Type),
		}
		key := def.Name + "." + fd.Name
		if r, ok := resolvers[key]; ok {
			f.Resolve = r
			bound[key] = true
		}
		t.AddField(f)
	}
	return t
}

func typeRefFromAST(t *language.Type) *TypeRef {
	if t == nil {
		return nil
	}
	if t.NonNull {
		return NonNullType(typeRefFromAST(&language.Type{NamedType: t.NamedType, Elem: t.Elem}))
	}
	if t.NamedType != "" {
		return NamedType(t.NamedType)
	}
	if t.Elem != nil {
		return ListType(typeRefFromAST(t.Elem))
	}
	return nil
}
