package executor

import (
	"context"
	"fmt"
	"reflect"
	"slices"

	language "github.com/hanpama/graphcypher/internal/language"
	schema "github.com/hanpama/graphcypher/internal/schema"
)

// Executor runs GraphQL operations: root fields go to the Runtime in one
// batch and the trees they return are completed against the schema.
type Executor struct {
	runtime Runtime
	schema  *schema.Schema
}

func NewExecutor(runtime Runtime, schema *schema.Schema) *Executor {
	return &Executor{runtime: runtime, schema: schema}
}

// request is the state of one ExecuteRequest call.
type request struct {
	ctx       context.Context
	runtime   Runtime
	schema    *schema.Schema
	document  *language.QueryDocument
	operation language.Operation
	variables map[string]any
	errors    []GraphQLError
}

// projectedRead remembers the first response key reading a projected field.
type projectedRead struct {
	key  string
	args map[string]any
}

// pendingRoot is a root field waiting for its batch result.
type pendingRoot struct {
	group fieldGroup
	def   *schema.Field
	path  Path
}

func (e *Executor) ExecuteRequest(
	ctx context.Context,
	document *language.QueryDocument,
	operationName string,
	variableValues map[string]any,
	rootValue any,
) *ExecutionResult {
	op := selectOperation(document, operationName)
	if op == nil {
		return &ExecutionResult{Errors: []GraphQLError{{Message: "operation not found"}}}
	}
	variables, err := coerceVariableValues(op, variableValues)
	if err != nil {
		return &ExecutionResult{Errors: []GraphQLError{{Message: err.Error()}}}
	}

	var rootType *schema.Type
	switch op.Operation {
	case language.Query:
		rootType = e.schema.GetQueryType()
	case language.Mutation:
		rootType = e.schema.GetMutationType()
	default:
		return &ExecutionResult{Errors: []GraphQLError{{Message: fmt.Sprintf("unsupported operation type: %s", op.Operation)}}}
	}
	if rootType == nil {
		return &ExecutionResult{Errors: []GraphQLError{{Message: fmt.Sprintf("root type not found for %s operation", op.Operation)}}}
	}

	r := &request{
		ctx:       ctx,
		runtime:   e.runtime,
		schema:    e.schema,
		document:  document,
		operation: op.Operation,
		variables: variables,
		errors:    []GraphQLError{},
	}
	data := r.executeRoot(rootType, op.SelectionSet, rootValue)
	return &ExecutionResult{Data: data, Errors: r.errors}
}

// executeRoot resolves sync root fields in place and every async root field
// through a single BatchResolveAsync call. A null at a non-null root field
// nulls that field only.
func (r *request) executeRoot(rootType *schema.Type, set language.SelectionSet, rootValue any) map[string]any {
	data := map[string]any{}
	var (
		tasks   []AsyncResolveTask
		pending []pendingRoot
	)
	for _, g := range r.collect(rootType, set) {
		path := Path{g.key}
		if g.name == "__typename" {
			data[g.key] = rootType.Name
			continue
		}
		def := rootType.Field(g.name)
		if def == nil {
			r.fail(path, fmt.Sprintf("Cannot query field '%s' on type '%s'", g.name, rootType.Name))
			continue
		}
		args := r.arguments(def, g.nodes[0], path)
		if !def.Async {
			v, err := r.runtime.ResolveSync(r.ctx, rootType.Name, g.name, rootValue, args)
			data[g.key], _ = r.completeResolved(def, g.nodes, v, err, path)
			continue
		}
		data[g.key] = nil
		tasks = append(tasks, AsyncResolveTask{
			ObjectType: rootType.Name,
			Field:      g.name,
			Source:     rootValue,
			Args:       args,
			Fields:     g.nodes,
			Fragments:  r.document.Fragments,
			Variables:  r.variables,
			Operation:  r.operation,
		})
		pending = append(pending, pendingRoot{group: g, def: def, path: path})
	}
	if len(tasks) == 0 {
		return data
	}

	results := r.runtime.BatchResolveAsync(r.ctx, tasks)
	for i, p := range pending {
		var res AsyncResolveResult
		if i < len(results) {
			res = results[i]
		} else {
			res.Error = fmt.Errorf("runtime returned no result for %s", p.def.Name)
		}
		data[p.group.key], _ = r.completeResolved(p.def, p.group.nodes, res.Value, res.Error, p.path)
	}
	return data
}

// completeResolved completes a field value fresh from a resolver. A resolver
// error is reported once and only propagates when the field is non-null.
func (r *request) completeResolved(def *schema.Field, nodes []*language.Field, v any, err error, path Path) (any, bool) {
	if err != nil {
		r.fail(path, err.Error())
		return nil, !def.Type.IsNonNull()
	}
	return r.complete(def.Type, nodes, v, path)
}

// complete shapes v by t. The boolean is false when the value is null at a
// non-null position: the error is already reported and the nearest nullable
// enclosing position must become null.
func (r *request) complete(t *schema.TypeRef, nodes []*language.Field, v any, path Path) (any, bool) {
	if t.IsNonNull() {
		out, ok := r.completeNullable(t.Unwrap(), nodes, v, path)
		if !ok {
			return nil, false
		}
		if out == nil {
			r.fail(path, "Cannot return null for non-nullable field "+path.String())
			return nil, false
		}
		return out, true
	}
	out, ok := r.completeNullable(t, nodes, v, path)
	if !ok {
		return nil, true
	}
	return out, true
}

func (r *request) completeNullable(t *schema.TypeRef, nodes []*language.Field, v any, path Path) (any, bool) {
	if isNullish(v) {
		return nil, true
	}
	if t.IsList() {
		return r.completeList(t.Unwrap(), nodes, v, path)
	}

	named := r.schema.NamedTypeOf(t)
	if named == nil {
		r.fail(path, "Unknown type: "+t.GetNamedType())
		return nil, false
	}
	switch named.Kind {
	case schema.TypeKindScalar, schema.TypeKindEnum:
		out, err := r.runtime.SerializeLeafValue(r.ctx, named.Name, v)
		if err != nil {
			r.fail(path, err.Error())
			return nil, false
		}
		return out, true
	case schema.TypeKindObject:
		return r.completeObject(named, nodes, v, path)
	case schema.TypeKindInterface, schema.TypeKindUnion:
		name, err := r.runtime.ResolveType(r.ctx, named.Name, v)
		if err != nil {
			r.fail(path, err.Error())
			return nil, false
		}
		if !slices.Contains(r.schema.PossibleObjects(named.Name), name) {
			r.fail(path, fmt.Sprintf("Abstract type %s must resolve to an Object type at runtime. Got: %s", named.Name, name))
			return nil, false
		}
		return r.completeObject(r.schema.Types[name], nodes, v, path)
	}
	r.fail(path, fmt.Sprintf("Cannot complete value of unexpected type: %s", named.Kind))
	return nil, false
}

func (r *request) completeList(item *schema.TypeRef, nodes []*language.Field, v any, path Path) (any, bool) {
	items, ok := v.([]any)
	if !ok {
		rv := reflect.ValueOf(v)
		if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
			r.fail(path, fmt.Sprintf("Expected list value, got %T", v))
			return nil, false
		}
		items = make([]any, rv.Len())
		for i := range items {
			items[i] = rv.Index(i).Interface()
		}
	}
	out := make([]any, len(items))
	for i, it := range items {
		cv, ok := r.complete(item, nodes, it, path.With(i))
		if !ok {
			return nil, false
		}
		out[i] = cv
	}
	return out, true
}

// completeObject completes the merged sub-selections of nodes on v.
// A map value is the projection a statement returned for the object: fields
// are read from it by name, and two response keys that would read one key
// with different arguments are reported instead of sharing a value.
func (r *request) completeObject(objectType *schema.Type, nodes []*language.Field, v any, path Path) (any, bool) {
	var set language.SelectionSet
	for _, n := range nodes {
		set = append(set, n.SelectionSet...)
	}
	projected, isProjection := v.(map[string]any)

	out := make(map[string]any)
	read := map[string]projectedRead{}
	for _, g := range r.collect(objectType, set) {
		fieldPath := path.With(g.key)
		if g.name == "__typename" {
			out[g.key] = objectType.Name
			continue
		}
		def := objectType.Field(g.name)
		if def == nil {
			r.fail(fieldPath, fmt.Sprintf("Cannot query field '%s' on type '%s'", g.name, objectType.Name))
			continue
		}
		args := r.arguments(def, g.nodes[0], fieldPath)

		var (
			value any
			err   error
		)
		if isProjection {
			prev, seen := read[g.name]
			if seen && !reflect.DeepEqual(prev.args, args) {
				err = fmt.Errorf("%s and %s both read %s.%s with different arguments", prev.key, g.key, objectType.Name, g.name)
			} else {
				if !seen {
					read[g.name] = projectedRead{key: g.key, args: args}
				}
				value = projected[g.name]
			}
		} else {
			value, err = r.runtime.ResolveSync(r.ctx, objectType.Name, g.name, v, args)
		}

		cv, ok := r.completeResolved(def, g.nodes, value, err, fieldPath)
		if !ok {
			return nil, false
		}
		out[g.key] = cv
	}
	return out, true
}

func (r *request) fail(path Path, message string) {
	r.errors = append(r.errors, GraphQLError{Message: message, Path: path})
}

// selectOperation returns the named operation, or the only one when name is empty.
func selectOperation(document *language.QueryDocument, name string) *language.OperationDefinition {
	if name == "" {
		if len(document.Operations) == 1 {
			return document.Operations[0]
		}
		return nil
	}
	return document.Operations.ForName(name)
}

// isNullish reports nil interfaces and typed nils.
func isNullish(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Interface, reflect.Pointer, reflect.Slice, reflect.Map, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}
