package cypher

import (
	"testing"

	"github.com/stretchr/testify/require"

	language "github.com/hanpama/graphcypher/internal/language"
	schema "github.com/hanpama/graphcypher/internal/schema"
)

const moviesSDL = `
scalar DateTime

type Movie {
  _id: ID
  movieId: ID!
  title: String
  year: Int
  released: DateTime
  genres: [Genre] @relation(name: "IN_GENRE", direction: "OUT")
  actors(first: Int = 3, offset: Int = 0): [Actor] @relation(name: "ACTED_IN", direction: "IN")
  filmedIn: State @relation(name: "FILMED_IN", direction: "OUT")
  similar(first: Int = 3, offset: Int = 0, limit: Int = 5): [Movie] @cypher(statement: "WITH {this} AS this MATCH (this)--(:Genre)--(o:Movie) RETURN o LIMIT $limit")
  mostSimilar: Movie @cypher(statement: "WITH {this} AS this MATCH (this)--(:Genre)--(o:Movie) RETURN o")
  degree: Int @cypher(statement: "WITH {this} AS this RETURN SIZE((this)--())")
  ratings: [Rating]
}

type Genre {
  _id: ID!
  name: String
  movies(first: Int = 3, offset: Int = 0): [Movie] @relation(name: "IN_GENRE", direction: "IN")
}

type Actor {
  name: String
  movies: [Movie] @relation(name: "ACTED_IN", direction: "OUT")
}

type State {
  name: String
}

type Rating {
  source: String
  value: Float
}

type Query {
  Movie(_id: ID, movieId: ID, title: String, year: Int, released: DateTime, first: Int, offset: Int): [Movie]
  GenresBySubstring(substring: String): [Genre] @cypher(statement: "MATCH (g:Genre) WHERE toLower(g.name) CONTAINS toLower($substring) RETURN g")
}

type Mutation {
  CreateMovie(movieId: ID!, title: String, year: Int, released: DateTime): Movie
  AddMovieGenre(moviemovieId: ID!, genrename: String): Movie @MutationMeta(relationship: "IN_GENRE", from: "Movie", to: "Genre")
  AddMovieActor(moviemovieId: ID!, actorname: String): Movie
  RateMovie(movieId: ID!, rating: Float): Movie @cypher(statement: "MATCH (m:Movie {movieId: $movieId}) SET m.rating = $rating RETURN m")
  DeleteMovie(movieId: ID!): Movie
}
`

func mustSchema(t *testing.T) *schema.Schema {
	t.Helper()
	s, err := schema.BuildFromSDL(moviesSDL)
	require.NoError(t, err)
	return s
}

// request builds a Request for the first root field of the document's only
// operation.
func request(t *testing.T, query string, variables map[string]any) (Request, language.Operation) {
	t.Helper()
	doc, err := language.ParseQuery(query)
	require.NoError(t, err)
	require.Len(t, doc.Operations, 1)
	op := doc.Operations[0]
	field, ok := op.SelectionSet[0].(*language.Field)
	require.True(t, ok, "first root selection must be a field")
	return Request{
		Field:     field.Name,
		Nodes:     []*language.Field{field},
		Variables: variables,
		Fragments: doc.Fragments,
	}, op.Operation
}

func translate(t *testing.T, tr *Translator, query string, variables map[string]any) (*Statement, error) {
	t.Helper()
	req, op := request(t, query, variables)
	if op == language.Mutation {
		return tr.Mutation(req)
	}
	return tr.Query(req)
}

func mustTranslate(t *testing.T, tr *Translator, query string, variables map[string]any) *Statement {
	t.Helper()
	stmt, err := translate(t, tr, query, variables)
	require.NoError(t, err)
	return stmt
}
