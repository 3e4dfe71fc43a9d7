package cypher

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	schema "github.com/hanpama/graphcypher/internal/schema"
)

func TestCompile_Projection(t *testing.T) {
	tr := NewTranslator(mustSchema(t))

	tests := []struct {
		name      string
		query     string
		variables map[string]any
		want      string
	}{
		{
			name:  "scalars only",
			query: `{ Movie { title year movieId } }`,
			want:  `MATCH (movie:Movie) RETURN movie {.title, .year, .movieId} AS movie SKIP 0`,
		},
		{
			name:  "identity field keeps its position",
			query: `{ Movie { title _id year } }`,
			want:  `MATCH (movie:Movie) RETURN movie {.title, _id: ID(movie), .year} AS movie SKIP 0`,
		},
		{
			name:  "meta fields are skipped",
			query: `{ Movie { __typename title } }`,
			want:  `MATCH (movie:Movie) RETURN movie {.title} AS movie SKIP 0`,
		},
		{
			name:  "trailing meta field",
			query: `{ Movie { title __typename } }`,
			want:  `MATCH (movie:Movie) RETURN movie {.title} AS movie SKIP 0`,
		},
		{
			name:  "scalar with statement",
			query: `{ Movie { degree } }`,
			want:  `MATCH (movie:Movie) RETURN movie {degree: apoc.cypher.runFirstColumnSingle("WITH {this} AS this RETURN SIZE((this)--())", {this: movie})} AS movie SKIP 0`,
		},
		{
			name:  "list with statement and defaults",
			query: `{ Movie { similar(first: 2) { title } } }`,
			want:  `MATCH (movie:Movie) RETURN movie {similar: [movie_similar IN apoc.cypher.runFirstColumnMany("WITH {this} AS this MATCH (this)--(:Genre)--(o:Movie) RETURN o LIMIT $limit", {this: movie, first: 2, limit: 5, offset: 0}) | movie_similar {.title}][..2]} AS movie SKIP 0`,
		},
		{
			name:  "singular object with statement",
			query: `{ Movie { mostSimilar { title } } }`,
			want:  `MATCH (movie:Movie) RETURN movie {mostSimilar: head([movie_mostSimilar IN apoc.cypher.runFirstColumnMany("WITH {this} AS this MATCH (this)--(:Genre)--(o:Movie) RETURN o", {this: movie}) | movie_mostSimilar {.title}])} AS movie SKIP 0`,
		},
		{
			name:  "outgoing relation",
			query: `{ Movie { genres { name } } }`,
			want:  `MATCH (movie:Movie) RETURN movie {genres: [(movie)-[:IN_GENRE]->(movie_genres:Genre) | movie_genres {.name}]} AS movie SKIP 0`,
		},
		{
			name:  "singular relation",
			query: `{ Movie { filmedIn { name } } }`,
			want:  `MATCH (movie:Movie) RETURN movie {filmedIn: head([(movie)-[:FILMED_IN]->(movie_filmedIn:State) | movie_filmedIn {.name}])} AS movie SKIP 0`,
		},
		{
			name:  "nested bindings",
			query: `{ Movie { genres { movies { title } } } }`,
			want:  `MATCH (movie:Movie) RETURN movie {genres: [(movie)-[:IN_GENRE]->(movie_genres:Genre) | movie_genres {movies: [(movie_genres)<-[:IN_GENRE]-(movie_genres_movies:Movie) | movie_genres_movies {.title}]}]} AS movie SKIP 0`,
		},
		{
			name:  "relation filter",
			query: `{ Movie { actors(name: "Keanu", first: 1) { name } } }`,
			want:  `MATCH (movie:Movie) RETURN movie {actors: [(movie)<-[:ACTED_IN]-(movie_actors:Actor {name: "Keanu"}) | movie_actors {.name}][..1]} AS movie SKIP 0`,
		},
		{
			name:  "embedded objects",
			query: `{ Movie { ratings { source value } } }`,
			want:  `MATCH (movie:Movie) RETURN movie {ratings: [movie_ratings IN movie.ratings | movie_ratings {.source, .value}]} AS movie SKIP 0`,
		},
		{
			name:  "object without sub-selection",
			query: `{ Movie { genres { __typename } } }`,
			want:  `MATCH (movie:Movie) RETURN movie {genres: [(movie)-[:IN_GENRE]->(movie_genres:Genre) | movie_genres]} AS movie SKIP 0`,
		},
		{
			name:      "skip directive",
			query:     `query($s: Boolean) { Movie { title year @skip(if: $s) } }`,
			variables: map[string]any{"s": true},
			want:      `MATCH (movie:Movie) RETURN movie {.title} AS movie SKIP 0`,
		},
		{
			name:  "repeated selections merge",
			query: `{ Movie { genres { name } title genres { _id } } }`,
			want:  `MATCH (movie:Movie) RETURN movie {genres: [(movie)-[:IN_GENRE]->(movie_genres:Genre) | movie_genres {.name, _id: ID(movie_genres)}], .title} AS movie SKIP 0`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stmt := mustTranslate(t, tr, tt.query, tt.variables)
			if diff := cmp.Diff(tt.want, stmt.Query); diff != "" {
				t.Fatalf("query mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCompile_Slices(t *testing.T) {
	tr := NewTranslator(mustSchema(t))

	tests := []struct {
		name      string
		args      string
		variables map[string]any
		want      string
	}{
		{"first and offset", `(first: 5, offset: 2)`, nil, `[2..7]`},
		{"offset only", `(offset: 3)`, nil, `[3..]`},
		{"first only", `(first: 5)`, nil, `[..5]`},
		{"neither", ``, nil, ``},
		{"negative first", `(first: -1, offset: 4)`, nil, `[4..]`},
		{"variables", `(first: $n, offset: $o)`, map[string]any{"n": 4, "o": float64(1)}, `[1..5]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query := `query($n: Int, $o: Int) { Movie { actors` + tt.args + ` { name } } }`
			stmt := mustTranslate(t, tr, query, tt.variables)
			want := `MATCH (movie:Movie) RETURN movie {actors: [(movie)<-[:ACTED_IN]-(movie_actors:Actor) | movie_actors {.name}]` + tt.want + `} AS movie SKIP 0`
			if diff := cmp.Diff(want, stmt.Query); diff != "" {
				t.Fatalf("query mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCompile_FragmentsAreTransparent(t *testing.T) {
	tr := NewTranslator(mustSchema(t))

	inlined := mustTranslate(t, tr, `{ Movie { year title genres { name } degree } }`, nil)

	tests := []struct {
		name  string
		query string
	}{
		{"spread", `{ Movie { year ...F degree } } fragment F on Movie { title genres { name } }`},
		{"nested spreads", `{ Movie { year ...F degree } } fragment F on Movie { title ...G } fragment G on Movie { genres { name } }`},
		{"inline fragment", `{ Movie { year ... on Movie { title genres { name } } degree } }`},
		{"untyped inline fragment", `{ Movie { year ... { title genres { name } } degree } }`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stmt := mustTranslate(t, tr, tt.query, nil)
			if diff := cmp.Diff(inlined.Query, stmt.Query); diff != "" {
				t.Fatalf("fragment output differs from inlined selections (-want +got):\n%s", diff)
			}
		})
	}
}

const creditsSDL = `
interface Named { name: String }
type Person implements Named { name: String born: Int }
type Studio implements Named { name: String founded: Int }
union Credit = Person | Studio
type Movie {
  title: String
  cast: [Named] @relation(name: "CREDITED", direction: "IN")
  credits: [Credit] @relation(name: "CREDITED", direction: "IN")
}
type Query { Person(name: String): [Person] Movie: [Movie] }
`

func TestCompile_AbstractFragments(t *testing.T) {
	s, err := schema.BuildFromSDL(creditsSDL)
	require.NoError(t, err)
	tr := NewTranslator(s)

	inlined := mustTranslate(t, tr, `{ Person { born name } }`, nil)
	for _, query := range []string{
		`{ Person { born ...N } } fragment N on Named { name }`,
		`{ Person { born ... on Named { name } } }`,
		`{ Person { born ...C } } fragment C on Credit { ... on Named { name } }`,
	} {
		stmt := mustTranslate(t, tr, query, nil)
		if diff := cmp.Diff(inlined.Query, stmt.Query); diff != "" {
			t.Fatalf("%s: fragment output differs from inlined selections (-want +got):\n%s", query, diff)
		}
	}

	skipped := mustTranslate(t, tr, `{ Person { born ...N } } fragment N on Named @skip(if: true) { name }`, nil)
	require.Equal(t, `MATCH (person:Person) RETURN person {.born} AS person SKIP 0`, skipped.Query)

	tests := []struct {
		name  string
		query string
		want  string
	}{
		{
			name:  "possible types under an interface",
			query: `{ Movie { cast { name ... on Person { born } ... on Studio { founded } } } }`,
			want:  `MATCH (movie:Movie) RETURN movie {cast: [(movie)<-[:CREDITED]-(movie_cast:Named) | movie_cast {__typename: head(labels(movie_cast)), .name, .born, .founded}]} AS movie SKIP 0`,
		},
		{
			name:  "possible types under a union",
			query: `{ Movie { credits { ...P ... on Studio { name } } } } fragment P on Person { born }`,
			want:  `MATCH (movie:Movie) RETURN movie {credits: [(movie)<-[:CREDITED]-(movie_credits:Credit) | movie_credits {__typename: head(labels(movie_credits)), .born, .name}]} AS movie SKIP 0`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stmt := mustTranslate(t, tr, tt.query, nil)
			if diff := cmp.Diff(tt.want, stmt.Query); diff != "" {
				t.Fatalf("query mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCompile_Errors(t *testing.T) {
	tests := []struct {
		name  string
		opts  []Option
		query string
		want  error
	}{
		{
			name:  "conflicting arguments",
			query: `{ Movie { actors(first: 1) { name } actors(first: 2) { name } } }`,
			want:  ErrAmbiguousFieldSelection,
		},
		{
			name:  "depth limit",
			opts:  []Option{WithMaxDepth(2)},
			query: `{ Movie { genres { movies { title } } } }`,
			want:  ErrMaxDepthExceeded,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := NewTranslator(mustSchema(t), tt.opts...)
			_, err := translate(t, tr, tt.query, nil)
			require.Error(t, err)
			require.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestCompile_DepthWithinLimit(t *testing.T) {
	tr := NewTranslator(mustSchema(t), WithMaxDepth(3))
	_, err := translate(t, tr, `{ Movie { genres { movies { title } } } }`, nil)
	require.NoError(t, err)
}
