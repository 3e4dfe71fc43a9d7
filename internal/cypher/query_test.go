package cypher

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	language "github.com/hanpama/graphcypher/internal/language"
)

func TestQuery(t *testing.T) {
	tr := NewTranslator(mustSchema(t))

	tests := []struct {
		name       string
		query      string
		variables  map[string]any
		wantQuery  string
		wantParams map[string]any
	}{
		{
			name:       "filter arguments",
			query:      `{ Movie(title: "River Runs Through It, A") { title year } }`,
			wantQuery:  `MATCH (movie:Movie {title: "River Runs Through It, A"}) RETURN movie {.title, .year} AS movie SKIP 0`,
			wantParams: map[string]any{"title": "River Runs Through It, A"},
		},
		{
			name:       "pagination",
			query:      `{ Movie(year: 1995, first: 10, offset: 5) { title } }`,
			wantQuery:  `MATCH (movie:Movie {year: 1995}) RETURN movie {.title} AS movie SKIP 5 LIMIT 10`,
			wantParams: map[string]any{"year": 1995, "first": 10, "offset": 5},
		},
		{
			name:       "identity filter",
			query:      `{ Movie(_id: "42") { title } }`,
			wantQuery:  `MATCH (movie:Movie) WHERE ID(movie)=42 RETURN movie {.title} AS movie SKIP 0`,
			wantParams: map[string]any{"_id": "42"},
		},
		{
			name:       "variables",
			query:      `query($title: String) { Movie(title: $title) { title } }`,
			variables:  map[string]any{"title": "Heat"},
			wantQuery:  `MATCH (movie:Movie {title: "Heat"}) RETURN movie {.title} AS movie SKIP 0`,
			wantParams: map[string]any{"title": "Heat"},
		},
		{
			name:       "root statement",
			query:      `{ GenresBySubstring(substring: "dr") { name } }`,
			wantQuery:  `WITH apoc.cypher.runFirstColumnMany("MATCH (g:Genre) WHERE toLower(g.name) CONTAINS toLower($substring) RETURN g", {substring: "dr"}) AS x UNWIND x AS genre RETURN genre {.name} AS genre SKIP 0`,
			wantParams: map[string]any{"substring": "dr"},
		},
		{
			name:       "null arguments are dropped",
			query:      `{ Movie(title: null) { title } }`,
			wantQuery:  `MATCH (movie:Movie) RETURN movie {.title} AS movie SKIP 0`,
			wantParams: map[string]any{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stmt := mustTranslate(t, tr, tt.query, tt.variables)
			if diff := cmp.Diff(tt.wantQuery, stmt.Query); diff != "" {
				t.Fatalf("query mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.wantParams, stmt.Params); diff != "" {
				t.Fatalf("params mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestQuery_TemporalArgument(t *testing.T) {
	tr := NewTranslator(mustSchema(t))

	temporal := mustTranslate(t, tr, `{ Movie(released: "2020-01-02T03:04:05Z") { title } }`, nil)
	require.Equal(t,
		`MATCH (movie:Movie {released: datetime("2020-01-02T03:04:05Z")}) RETURN movie {.title} AS movie SKIP 0`,
		temporal.Query)
	released, ok := temporal.Params["released"].(time.Time)
	require.True(t, ok, "temporal parameter should be bound as time.Time")
	require.True(t, released.Equal(time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)))

	text := mustTranslate(t, tr, `{ Movie(title: "2020-01-02T03:04:05Z") { title } }`, nil)
	require.Equal(t,
		`MATCH (movie:Movie {title: "2020-01-02T03:04:05Z"}) RETURN movie {.title} AS movie SKIP 0`,
		text.Query)
}

func TestQuery_ExplicitArgs(t *testing.T) {
	tr := NewTranslator(mustSchema(t))
	req, _ := request(t, `{ Movie(title: "ignored") { title } }`, nil)
	req.Args = map[string]any{"year": 1999, "first": 2}

	stmt, err := tr.Query(req)
	require.NoError(t, err)
	require.Equal(t, `MATCH (movie:Movie {year: 1999}) RETURN movie {.title} AS movie SKIP 0 LIMIT 2`, stmt.Query)
	require.Equal(t, "movie", stmt.Binding)
	require.True(t, stmt.Type.HasList())
}

func TestQuery_MultipleNodes(t *testing.T) {
	tr := NewTranslator(mustSchema(t))

	nodes := func(query string) Request {
		doc, err := language.ParseQuery(query)
		require.NoError(t, err)
		req := Request{Field: "Movie", Fragments: doc.Fragments}
		for _, sel := range doc.Operations[0].SelectionSet {
			req.Nodes = append(req.Nodes, sel.(*language.Field))
		}
		return req
	}

	stmt, err := tr.Query(nodes(`{ Movie(year: 1) { title } Movie(year: 1) { year } }`))
	require.NoError(t, err)
	require.Equal(t, `MATCH (movie:Movie {year: 1}) RETURN movie {.title, .year} AS movie SKIP 0`, stmt.Query)

	_, err = tr.Query(nodes(`{ Movie(year: 1) { title } Movie(year: 2) { year } }`))
	require.ErrorIs(t, err, ErrAmbiguousFieldSelection)
}

func TestQuery_UnknownField(t *testing.T) {
	tr := NewTranslator(mustSchema(t))
	_, err := tr.Query(Request{Field: "Nope"})
	require.ErrorIs(t, err, ErrUnknownField)
}
