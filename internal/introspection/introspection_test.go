package introspection

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	executor "github.com/hanpama/graphcypher/internal/executor"
	"github.com/hanpama/graphcypher/internal/executor/executortest"
	language "github.com/hanpama/graphcypher/internal/language"
	schema "github.com/hanpama/graphcypher/internal/schema"
)

const sdl = `
type Movie {
  title: String
  year: Int @deprecated(reason: "use released")
  genres(first: Int = 3): [Genre!]
}
type Genre { name: String }
type Query { Movie(title: String): [Movie] }
`

func execute(t *testing.T, query string) *executor.ExecutionResult {
	t.Helper()
	s, err := schema.BuildFromSDL(sdl)
	require.NoError(t, err)
	base := &executortest.Runtime{Values: map[string]any{
		"Query.Movie": []any{map[string]any{"title": "Heat"}},
	}}
	rt, extended := Wrap(base, s)
	doc, err := language.ParseQuery(query)
	require.NoError(t, err)
	return executor.NewExecutor(rt, extended).ExecuteRequest(context.Background(), doc, "", nil, nil)
}

func TestSchemaQueryType(t *testing.T) {
	res := execute(t, `{ __schema { queryType { name kind } mutationType { name } } }`)
	require.Empty(t, res.Errors)
	want := map[string]any{"__schema": map[string]any{
		"queryType":    map[string]any{"name": "Query", "kind": "OBJECT"},
		"mutationType": nil,
	}}
	if diff := cmp.Diff(want, res.Data); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
}

func TestTypeFieldsAndWrappers(t *testing.T) {
	res := execute(t, `{
		__type(name: "Movie") {
			name
			fields {
				name
				type { kind name ofType { kind name ofType { kind name } } }
				args { name defaultValue type { name } }
			}
		}
	}`)
	require.Empty(t, res.Errors)

	want := map[string]any{"__type": map[string]any{
		"name": "Movie",
		"fields": []any{
			map[string]any{
				"name": "title",
				"type": map[string]any{"kind": "SCALAR", "name": "String", "ofType": nil},
				"args": []any{},
			},
			map[string]any{
				"name": "genres",
				"type": map[string]any{"kind": "LIST", "name": nil, "ofType": map[string]any{
					"kind": "NON_NULL", "name": nil, "ofType": map[string]any{"kind": "OBJECT", "name": "Genre"},
				}},
				"args": []any{map[string]any{"name": "first", "defaultValue": "3", "type": map[string]any{"name": "Int"}}},
			},
		},
	}}
	if diff := cmp.Diff(want, res.Data); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
}

func TestDeprecatedFields(t *testing.T) {
	res := execute(t, `{ __type(name: "Movie") { fields(includeDeprecated: true) { name isDeprecated deprecationReason } } }`)
	require.Empty(t, res.Errors)
	fields := res.Data.(map[string]any)["__type"].(map[string]any)["fields"].([]any)
	require.Len(t, fields, 3)
	require.Equal(t, map[string]any{"name": "year", "isDeprecated": true, "deprecationReason": "use released"}, fields[1])
}

func TestUnknownTypeIsNull(t *testing.T) {
	res := execute(t, `{ __type(name: "Nope") { name } }`)
	require.Empty(t, res.Errors)
	require.Equal(t, map[string]any{"__type": nil}, res.Data)
}

func TestDelegatesOrdinaryFields(t *testing.T) {
	res := execute(t, `{ Movie { title } __typename }`)
	require.Empty(t, res.Errors)
	require.Equal(t, map[string]any{
		"Movie":      []any{map[string]any{"title": "Heat"}},
		"__typename": "Query",
	}, res.Data)
}

func TestSchemaListsMetaTypes(t *testing.T) {
	res := execute(t, `{ __schema { types { name } directives { name } } }`)
	require.Empty(t, res.Errors)
	sch := res.Data.(map[string]any)["__schema"].(map[string]any)
	var names []string
	for _, ty := range sch["types"].([]any) {
		names = append(names, ty.(map[string]any)["name"].(string))
	}
	require.Contains(t, names, "__Type")
	require.Contains(t, names, "Movie")
	require.NotEmpty(t, sch["directives"])
}
