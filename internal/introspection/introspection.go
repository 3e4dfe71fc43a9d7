// Package introspection answers __schema, __type and the nested
// introspection fields from the built schema, delegating everything else to
// the wrapped runtime.
package introspection

import (
	"context"
	"maps"
	"sync"

	executor "github.com/hanpama/graphcypher/internal/executor"
	schema "github.com/hanpama/graphcypher/internal/schema"
)

const metaSDL = `
type __Schema {
  description: String
  types: [__Type!]!
  queryType: __Type!
  mutationType: __Type
  subscriptionType: __Type
  directives: [__Directive!]!
}

type __Type {
  kind: __TypeKind!
  name: String
  description: String
  specifiedByURL: String
  fields(includeDeprecated: Boolean = false): [__Field!]
  interfaces: [__Type!]
  possibleTypes: [__Type!]
  enumValues(includeDeprecated: Boolean = false): [__EnumValue!]
  inputFields(includeDeprecated: Boolean = false): [__InputValue!]
  ofType: __Type
  isOneOf: Boolean
}

enum __TypeKind { SCALAR OBJECT INTERFACE UNION ENUM INPUT_OBJECT LIST NON_NULL }

type __Field {
  name: String!
  description: String
  args(includeDeprecated: Boolean = false): [__InputValue!]!
  type: __Type!
  isDeprecated: Boolean!
  deprecationReason: String
}

type __InputValue {
  name: String!
  description: String
  type: __Type!
  defaultValue: String
  isDeprecated: Boolean!
  deprecationReason: String
}

type __EnumValue {
  name: String!
  description: String
  isDeprecated: Boolean!
  deprecationReason: String
}

type __Directive {
  name: String!
  description: String
  locations: [__DirectiveLocation!]!
  args(includeDeprecated: Boolean = false): [__InputValue!]!
  isRepeatable: Boolean!
}

enum __DirectiveLocation {
  QUERY MUTATION SUBSCRIPTION FIELD FRAGMENT_DEFINITION FRAGMENT_SPREAD INLINE_FRAGMENT
  VARIABLE_DEFINITION SCHEMA SCALAR OBJECT FIELD_DEFINITION ARGUMENT_DEFINITION INTERFACE
  UNION ENUM ENUM_VALUE INPUT_OBJECT INPUT_FIELD_DEFINITION
}
`

var metaTypes = sync.OnceValue(func() map[string]*schema.Type {
	s, err := schema.BuildFromSDL(metaSDL)
	if err != nil {
		panic("introspection: " + err.Error())
	}
	out := map[string]*schema.Type{}
	for name, t := range s.Types {
		if len(name) > 2 && name[:2] == "__" {
			out[name] = t
		}
	}
	return out
})

// Wrap returns a runtime answering introspection fields on top of base, and
// the schema to execute against: s plus the meta types and the __schema and
// __type root fields. s itself is not modified.
func Wrap(base executor.Runtime, s *schema.Schema) (executor.Runtime, *schema.Schema) {
	// catalog is what introspection reports: the user schema and the meta types.
	catalog := *s
	catalog.Types = maps.Clone(s.Types)
	maps.Copy(catalog.Types, metaTypes())

	exec := catalog
	exec.Types = maps.Clone(catalog.Types)
	if q := s.GetQueryType(); q != nil {
		root := *q
		root.Fields = append(append([]*schema.Field(nil), q.Fields...),
			schema.NewField("__schema", "Access the current type schema of this server.",
				schema.NonNullType(schema.NamedType("__Schema"))),
			schema.NewField("__type", "Request the type information of a single type.",
				schema.NamedType("__Type")).
				AddArgument(schema.NewInputValue("name", "", schema.NonNullType(schema.NamedType("String")))),
		)
		exec.Types[root.Name] = &root
	}
	return &runtime{Runtime: base, catalog: &catalog}, &exec
}

type runtime struct {
	executor.Runtime
	catalog *schema.Schema
}

func (r *runtime) ResolveSync(ctx context.Context, objectType, field string, source any, args map[string]any) (any, error) {
	if source == nil && objectType == r.catalog.QueryType {
		switch field {
		case "__schema":
			return r.catalog, nil
		case "__type":
			name, _ := args["name"].(string)
			return r.named(name), nil
		}
	}
	if v, ok := r.resolve(source, field, args); ok {
		return v, nil
	}
	return r.Runtime.ResolveSync(ctx, objectType, field, source, args)
}

func (r *runtime) SerializeLeafValue(ctx context.Context, typeName string, value any) (any, error) {
	if _, ok := metaTypes()[typeName]; ok {
		return value, nil
	}
	return r.Runtime.SerializeLeafValue(ctx, typeName, value)
}
