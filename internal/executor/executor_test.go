package executor_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	executor "github.com/hanpama/graphcypher/internal/executor"
	"github.com/hanpama/graphcypher/internal/executor/executortest"
	language "github.com/hanpama/graphcypher/internal/language"
	schema "github.com/hanpama/graphcypher/internal/schema"
)

const moviesSDL = `
interface Named { name: String }
type Movie { title: String year: Int code: String! actors(first: Int = 3): [Actor] }
type Actor implements Named { name: String }
type Book { isbn: String }
union Item = Movie | Book
type Query {
  movie: Movie
  movies(year: Int): [Movie]
  required: Movie!
  items: [Item]
  named: [Named]
}
type Mutation {
  CreateA: String
  CreateB: String
}
`

func mustBuildSchema(t *testing.T, sdl string) *schema.Schema {
	t.Helper()
	s, err := schema.BuildFromSDL(sdl)
	require.NoError(t, err, "schema error")
	return s
}

func run(t *testing.T, rt executor.Runtime, sch *schema.Schema, query string, operation string, vars map[string]any) *executor.ExecutionResult {
	t.Helper()
	doc, err := language.ParseQuery(query)
	require.NoError(t, err, "parse error")
	return executor.NewExecutor(rt, sch).ExecuteRequest(context.Background(), doc, operation, vars, nil)
}

func TestRootFieldsShareOneBatch(t *testing.T) {
	sch := mustBuildSchema(t, moviesSDL)
	rt := &executortest.Runtime{Values: map[string]any{
		"Query.movie":  map[string]any{"title": "Heat", "year": 1995},
		"Query.movies": []any{map[string]any{"title": "Ronin"}},
	}}

	got := run(t, rt, sch, "{ a: movie { title year } movies { title } }", "", nil)

	want := &executor.ExecutionResult{
		Data: map[string]any{
			"a":      map[string]any{"title": "Heat", "year": 1995},
			"movies": []any{map[string]any{"title": "Ronin"}},
		},
		Errors: []executor.GraphQLError{},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
	}

	batches := rt.Batches()
	require.Len(t, batches, 1)
	require.Len(t, batches[0], 2)
	require.Equal(t, "movie", batches[0][0].Field)
	require.Equal(t, "movies", batches[0][1].Field)
}

func TestAsyncTaskCarriesSelection(t *testing.T) {
	sch := mustBuildSchema(t, moviesSDL)
	rt := &executortest.Runtime{}

	res := run(t, rt, sch, `query Q($y: Int) { movies(year: $y) { ...F } movies(year: $y) { year } } fragment F on Movie { title }`, "", map[string]any{"y": 1995})
	require.Empty(t, res.Errors)

	batches := rt.Batches()
	require.Len(t, batches, 1)
	require.Len(t, batches[0], 1)
	task := batches[0][0]
	require.Equal(t, "Query", task.ObjectType)
	require.Equal(t, "movies", task.Field)
	require.Equal(t, map[string]any{"year": 1995}, task.Args)
	require.Equal(t, map[string]any{"y": 1995}, task.Variables)
	require.Equal(t, language.Query, task.Operation)
	require.Len(t, task.Fields, 2)
	require.NotNil(t, task.Fragments.ForName("F"))
}

func TestArgumentDefaultsAndAbsentVariables(t *testing.T) {
	sch := mustBuildSchema(t, `type Query { movies(year: Int = 1999, first: Int): [String] }`)
	rt := &executortest.Runtime{}

	res := run(t, rt, sch, `query($y: Int) { movies(year: $y, first: 2) }`, "", nil)
	require.Empty(t, res.Errors)
	require.Equal(t, map[string]any{"year": 1999, "first": 2}, rt.Batches()[0][0].Args)
}

func TestMutationPartialSuccess(t *testing.T) {
	sch := mustBuildSchema(t, moviesSDL)
	rt := &executortest.Runtime{
		Values: map[string]any{"Mutation.CreateA": "A"},
		Errors: map[string]error{"Mutation.CreateB": errors.New("boom")},
	}

	got := run(t, rt, sch, "mutation { CreateA CreateB }", "", nil)

	want := &executor.ExecutionResult{
		Data:   map[string]any{"CreateA": "A", "CreateB": nil},
		Errors: []executor.GraphQLError{{Message: "boom", Path: executor.Path{"CreateB"}}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
	}
}

func TestCompletion(t *testing.T) {
	tests := []struct {
		name      string
		values    map[string]any
		query     string
		variables map[string]any
		want      *executor.ExecutionResult
	}{
		{
			name:   "non-null root returns null",
			values: map[string]any{},
			query:  "{ required { title } }",
			want: &executor.ExecutionResult{
				Data:   map[string]any{"required": nil},
				Errors: []executor.GraphQLError{{Message: "Cannot return null for non-nullable field required", Path: executor.Path{"required"}}},
			},
		},
		{
			name: "non-null field nulls its object",
			values: map[string]any{"Query.movies": []any{
				map[string]any{"title": "Heat", "code": "h"},
				map[string]any{"title": "Ronin"},
			}},
			query: "{ movies { title code } }",
			want: &executor.ExecutionResult{
				Data: map[string]any{"movies": []any{
					map[string]any{"title": "Heat", "code": "h"},
					nil,
				}},
				Errors: []executor.GraphQLError{{Message: "Cannot return null for non-nullable field movies[1].code", Path: executor.Path{"movies", 1, "code"}}},
			},
		},
		{
			name: "union members",
			values: map[string]any{"Query.items": []any{
				map[string]any{"__typename": "Movie", "title": "Heat"},
				map[string]any{"__typename": "Book", "isbn": "0-00"},
			}},
			query: "{ items { __typename ... on Movie { title } ... on Book { isbn } } }",
			want: &executor.ExecutionResult{
				Data: map[string]any{"items": []any{
					map[string]any{"__typename": "Movie", "title": "Heat"},
					map[string]any{"__typename": "Book", "isbn": "0-00"},
				}},
				Errors: []executor.GraphQLError{},
			},
		},
		{
			name:   "interface fragments",
			values: map[string]any{"Query.named": []any{map[string]any{"__typename": "Actor", "name": "Val"}}},
			query:  "{ named { ...N } } fragment N on Named { name }",
			want: &executor.ExecutionResult{
				Data:   map[string]any{"named": []any{map[string]any{"name": "Val"}}},
				Errors: []executor.GraphQLError{},
			},
		},
		{
			name:      "skip and include",
			values:    map[string]any{"Query.movie": map[string]any{"title": "Heat", "year": 1995}},
			query:     "query($s: Boolean!) { movie { title @include(if: $s) year @skip(if: $s) } }",
			variables: map[string]any{"s": true},
			want: &executor.ExecutionResult{
				Data:   map[string]any{"movie": map[string]any{"title": "Heat"}},
				Errors: []executor.GraphQLError{},
			},
		},
		{
			name:   "aliases of one field share its projected key",
			values: map[string]any{"Query.movie": map[string]any{"title": "Heat"}},
			query:  "{ movie { a: title b: title } }",
			want: &executor.ExecutionResult{
				Data:   map[string]any{"movie": map[string]any{"a": "Heat", "b": "Heat"}},
				Errors: []executor.GraphQLError{},
			},
		},
		{
			name:   "aliases with different arguments",
			values: map[string]any{"Query.movie": map[string]any{"actors": []any{map[string]any{"name": "Val"}}}},
			query:  "{ movie { a: actors(first: 1) { name } b: actors(first: 2) { name } } }",
			want: &executor.ExecutionResult{
				Data: map[string]any{"movie": map[string]any{
					"a": []any{map[string]any{"name": "Val"}},
					"b": nil,
				}},
				Errors: []executor.GraphQLError{{Message: "a and b both read Movie.actors with different arguments", Path: executor.Path{"movie", "b"}}},
			},
		},
		{
			name:  "missing required variable",
			query: "query($n: Int!) { movie { title } }",
			want:  &executor.ExecutionResult{Errors: []executor.GraphQLError{{Message: "variable $n of required type Int! was not provided"}}},
		},
		{
			name:  "unknown field",
			query: "{ nope }",
			want: &executor.ExecutionResult{
				Data:   map[string]any{},
				Errors: []executor.GraphQLError{{Message: "Cannot query field 'nope' on type 'Query'", Path: executor.Path{"nope"}}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rt := &executortest.Runtime{Values: tt.values}
			got := run(t, rt, mustBuildSchema(t, moviesSDL), tt.query, "", tt.variables)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

type version struct{}

func TestNonMapValuesResolveThroughRuntime(t *testing.T) {
	sch := mustBuildSchema(t, `type Version { name: String } type Query { version: Version }`)
	sch.GetQueryType().Field("version").SetAsync(false)
	rt := &executortest.Runtime{Values: map[string]any{
		"Query.version": &version{},
		"Version.name":  "1.0",
	}}

	res := run(t, rt, sch, "{ version { name } }", "", nil)
	require.Empty(t, res.Errors)
	require.Equal(t, map[string]any{"version": map[string]any{"name": "1.0"}}, res.Data)
	require.Empty(t, rt.Batches())
}

func TestOperationSelection(t *testing.T) {
	sch := mustBuildSchema(t, moviesSDL)
	rt := &executortest.Runtime{Values: map[string]any{"Mutation.CreateA": "A"}}
	const doc = "query Q { movie { title } } mutation M { CreateA }"

	got := run(t, rt, sch, doc, "M", nil)
	require.Equal(t, map[string]any{"CreateA": "A"}, got.Data)

	missing := run(t, rt, sch, doc, "", nil)
	require.Equal(t, []executor.GraphQLError{{Message: "operation not found"}}, missing.Errors)
}

func TestPathString(t *testing.T) {
	require.Equal(t, "movies[1].actors[0].name", executor.Path{"movies", 1, "actors", 0, "name"}.String())
	require.Equal(t, "", executor.Path{}.String())
}
