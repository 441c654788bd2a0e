// Package executor runs GraphQL selection sets against a schema whose fields
// carry resolver functions. Execution is depth-first and sequential; each
// field's response path is placed on the context before its resolver runs so
// instrumentation layered onto the resolvers can locate the field in the
// response tree.
package executor

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	language "github.com/hanpama/validity/language"
	schema "github.com/hanpama/validity/schema"
)

// executionState holds the state during query execution
type executionState struct {
	schema         *schema.Schema
	document       *language.QueryDocument
	variableValues map[string]any
	context        context.Context
	errors         []GraphQLError
}

type Executor struct {
	schema *schema.Schema
}

func NewExecutor(s *schema.Schema) *Executor {
	return &Executor{schema: s}
}

func (e *Executor) ExecuteRequest(
	ctx context.Context,
	document *language.QueryDocument,
	operationName string,
	variableValues map[string]any,
	initialValue any,
) *ExecutionResult {
	operation := getOperation(document, operationName)
	if operation == nil {
		return &ExecutionResult{Errors: []GraphQLError{{Message: "operation not found"}}}
	}

	var rootType *schema.Object
	switch operation.Operation {
	case language.Query:
		rootType = e.schema.GetQueryType()
	case language.Mutation:
		rootType = e.schema.GetMutationType()
	default:
		return &ExecutionResult{Errors: []GraphQLError{{Message: fmt.Sprintf("unsupported operation type: %s", operation.Operation)}}}
	}
	if rootType == nil {
		return &ExecutionResult{Errors: []GraphQLError{{Message: fmt.Sprintf("root type not found for %s operation", operation.Operation)}}}
	}

	state := &executionState{
		schema:         e.schema,
		document:       document,
		variableValues: variableValues,
		context:        ctx,
		errors:         []GraphQLError{},
	}

	data := executeSelectionSet(state, rootType, operation.SelectionSet, initialValue, schema.Path{})
	return &ExecutionResult{Data: data, Errors: state.errors}
}

func executeSelectionSet(state *executionState, objectType *schema.Object, selectionSet language.SelectionSet, objectValue any, path schema.Path) map[string]any {
	groupedFields := collectFields(state, objectType, selectionSet)
	resultMap := make(map[string]any)

	for _, collected := range groupedFields.orderedFields() {
		responseName := collected.ResponseName
		fields := collected.Fields
		fieldPath := path.Append(responseName)

		if fields[0].Name == "__typename" {
			resultMap[responseName] = objectType.Name
			continue
		}

		fieldDef := objectType.Field(fields[0].Name)
		if fieldDef == nil {
			state.addError(fmt.Sprintf("Cannot query field '%s' on type '%s'", fields[0].Name, objectType.Name), fieldPath)
			continue
		}

		resolved := resolveField(state, fieldDef, objectValue, fields[0], fieldPath)
		completed := completeValue(state, fieldDef.Type, fields, resolved, fieldPath)

		if fieldDef.Type.IsNonNull() && isNullish(completed) {
			if len(path) > 0 {
				// Null propagates to the nearest nullable ancestor.
				return nil
			}
			resultMap[responseName] = nil
			continue
		}
		if isNullish(completed) {
			resultMap[responseName] = nil
		} else {
			resultMap[responseName] = completed
		}
	}

	return resultMap
}

// resolveField invokes the field's resolver, or falls back to looking the
// field up on the source value when no resolver is declared. The field's
// response path is stored on the context for the duration of the call.
func resolveField(state *executionState, fieldDef *schema.Field, source any, field *language.Field, path schema.Path) any {
	if fieldDef.Resolve == nil {
		return defaultResolve(source, fieldDef.Name)
	}
	args := argumentValues(state, field)
	ctx := schema.WithPath(state.context, path)
	value, err := fieldDef.Resolve(ctx, source, args)
	if err != nil {
		state.addError(err.Error(), path)
		return nil
	}
	return value
}

// defaultResolve reads a field from a map or an exported struct field with a
// matching name.
func defaultResolve(source any, name string) any {
	switch s := source.(type) {
	case nil:
		return nil
	case map[string]any:
		return s[name]
	}
	rv := reflect.ValueOf(source)
	if rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		f := rt.Field(i)
		if !f.IsExported() {
			continue
		}
		if strings.EqualFold(f.Name, name) || f.Tag.Get("json") == name {
			return rv.Field(i).Interface()
		}
	}
	return nil
}

func completeValue(state *executionState, fieldType *schema.TypeRef, fields []*language.Field, result any, path schema.Path) any {
	if fieldType.IsNonNull() {
		if isNullish(result) {
			if !state.hasErrorAtPath(path) {
				state.addError(fmt.Sprintf("Cannot return null for non-nullable field %s", path), path)
			}
			return nil
		}
		return completeValue(state, fieldType.Unwrap(), fields, result, path)
	}

	if isNullish(result) {
		return nil
	}

	if fieldType.IsList() {
		return completeListValue(state, fieldType, fields, result, path)
	}

	namedType := fieldType.NamedTypeName()
	if objectType, ok := state.schema.Types[namedType]; ok {
		sub := mergeSelectionSets(fields)
		return executeSelectionSet(state, objectType, sub, result, path)
	}
	// Leaf value: scalars and enums pass through as-is.
	return result
}

func completeListValue(state *executionState, listType *schema.TypeRef, fields []*language.Field, result any, path schema.Path) any {
	var items []any
	if direct, ok := result.([]any); ok {
		items = direct
	} else {
		rv := reflect.ValueOf(result)
		if rv.Kind() != reflect.Slice {
			state.addError(fmt.Sprintf("Expected list value, got %T", result), path)
			return nil
		}
		items = make([]any, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			items[i] = rv.Index(i).Interface()
		}
	}

	inner := listType.Unwrap()
	completed := make([]any, len(items))
	for i, item := range items {
		p := path.Append(i)
		v := completeValue(state, inner, fields, item, p)
		if inner.IsNonNull() && isNullish(v) {
			// Error already recorded by inner completion; null the list.
			return nil
		}
		completed[i] = v
	}
	return completed
}

// mergeSelectionSets merges selection sets from multiple fields
func mergeSelectionSets(fields []*language.Field) language.SelectionSet {
	var merged language.SelectionSet
	for _, f := range fields {
		merged = append(merged, f.SelectionSet...)
	}
	return merged
}

// getOperation retrieves the operation from the document
func getOperation(document *language.QueryDocument, operationName string) *language.OperationDefinition {
	if operationName == "" && len(document.Operations) == 1 {
		for _, op := range document.Operations {
			return op
		}
	}
	for _, op := range document.Operations {
		if op.Name == operationName {
			return op
		}
	}
	return nil
}

func (state *executionState) addError(message string, path schema.Path) {
	state.errors = append(state.errors, GraphQLError{Message: message, Path: path})
}

// hasErrorAtPath reports whether an error with the given path already exists.
func (state *executionState) hasErrorAtPath(path schema.Path) bool {
	for _, err := range state.errors {
		if reflect.DeepEqual(err.Path, path) {
			return true
		}
	}
	return false
}

// isNullish returns true for nil interfaces and typed nils (map, slice, ptr, interface)
func isNullish(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Interface, reflect.Ptr, reflect.Slice, reflect.Map, reflect.Func, reflect.Chan:
		return rv.IsNil()
	default:
		return false
	}
}
