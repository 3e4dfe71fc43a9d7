// Package cypher translates GraphQL root field selections into single Cypher
// statements against a schema annotated with @cypher, @relation and
// @MutationMeta.
package cypher

import (
	"fmt"
	"reflect"
	"strconv"

	language "github.com/hanpama/graphcypher/internal/language"
	schema "github.com/hanpama/graphcypher/internal/schema"
)

// DefaultMaxDepth bounds the nesting of compiled selection sets.
const DefaultMaxDepth = 64

// Translator turns root Query and Mutation field selections into Cypher.
// It holds no per-request state and is safe for concurrent use.
type Translator struct {
	schema   *schema.Schema
	maxDepth int
}

type Option func(*Translator)

// WithMaxDepth sets the deepest selection level a translation may reach.
func WithMaxDepth(n int) Option { return func(t *Translator) { t.maxDepth = n } }

func NewTranslator(s *schema.Schema, opts ...Option) *Translator {
	t := &Translator{schema: s, maxDepth: DefaultMaxDepth}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Request describes one root field to translate.
type Request struct {
	// Field is the root field name.
	Field string
	// Nodes are the field nodes sharing the response key of the root field.
	Nodes []*language.Field
	// Args are the coerced root arguments with defaults applied. When nil
	// they are read from the first node.
	Args map[string]any
	// Variables are the coerced operation variables.
	Variables map[string]any
	// Fragments are the fragment definitions of the request document.
	Fragments language.FragmentDefinitionList
}

// Statement is a generated Cypher query with its parameters. Records carry
// the translated value under Binding.
type Statement struct {
	Query   string
	Params  map[string]any
	Binding string
	// Type is the declared return type of the root field.
	Type *schema.TypeRef
}

// Query translates a root field of the query type.
func (t *Translator) Query(req Request) (*Statement, error) {
	root := t.schema.GetQueryType()
	def := root.Field(req.Field)
	if def == nil {
		return nil, fmt.Errorf("%w: Query.%s", ErrUnknownField, req.Field)
	}
	c, set, err := t.prepare(req, def)
	if err != nil {
		return nil, err
	}

	typeName := def.Type.GetNamedType()
	binding := lowerFirst(typeName)
	args := coerceArgs(def.Arguments, t.rootArgs(req, def))

	sub, err := c.compile(set, binding, t.schema.Types[typeName], 1)
	if err != nil {
		return nil, err
	}

	filter := map[string]any{}
	for k, v := range args {
		switch k {
		case "first", "offset", "_id":
		default:
			filter[k] = v
		}
	}
	encoded, err := EncodeMap(filter)
	if err != nil {
		return nil, fmt.Errorf("Query.%s: %w", req.Field, err)
	}

	var q string
	if statement := schema.CypherOf(root, req.Field).Statement; statement != "" {
		q = "WITH apoc.cypher.runFirstColumnMany(" + encodeString(statement) + ", " + encoded + ") AS x " +
			"UNWIND x AS " + binding + " "
	} else {
		q = "MATCH (" + binding + ":" + typeName
		if len(filter) > 0 {
			q += " " + encoded
		}
		q += ") "
		if id, ok := args["_id"]; ok {
			lit, err := identity(id)
			if err != nil {
				return nil, fmt.Errorf("Query.%s: %w", req.Field, err)
			}
			q += "WHERE ID(" + binding + ")=" + lit + " "
		}
	}
	q += "RETURN " + project(binding, sub) + " AS " + binding + " " + skipLimit(args)

	return &Statement{Query: q, Params: args, Binding: binding, Type: def.Type}, nil
}

// prepare builds the compiler for req and merges the selection sets of its
// nodes. Nodes that disagree on arguments are ambiguous.
func (t *Translator) prepare(req Request, def *schema.Field) (*compiler, language.SelectionSet, error) {
	c := &compiler{
		schema:    t.schema,
		fragments: req.Fragments,
		variables: req.Variables,
		maxDepth:  t.maxDepth,
	}
	var set language.SelectionSet
	var first map[string]any
	for _, n := range req.Nodes {
		if n.Name != def.Name {
			continue
		}
		args := c.argumentValues(n.Arguments)
		if first == nil {
			first = args
		} else if !reflect.DeepEqual(first, args) {
			return nil, nil, fmt.Errorf("%w: %s is selected with different arguments", ErrAmbiguousFieldSelection, def.Name)
		}
		set = append(set, n.SelectionSet...)
	}
	return c, set, nil
}

// rootArgs returns the request arguments, or reads them from the first node
// and fills in declared defaults.
func (t *Translator) rootArgs(req Request, def *schema.Field) map[string]any {
	if req.Args != nil {
		return req.Args
	}
	args := map[string]any{}
	for _, a := range def.Arguments {
		if a.DefaultValue != nil {
			args[a.Name] = a.DefaultValue
		}
	}
	if len(req.Nodes) > 0 {
		for _, a := range req.Nodes[0].Arguments {
			args[a.Name] = language.ValueOf(a.Value, req.Variables)
		}
	}
	return args
}

// skipLimit renders the outer pagination clause. Offset defaults to 0; a
// missing or negative first means no limit.
func skipLimit(args map[string]any) string {
	offset, _ := toInt(args["offset"])
	s := "SKIP " + strconv.Itoa(offset)
	if first, ok := toInt(args["first"]); ok && first > -1 {
		s += " LIMIT " + strconv.Itoa(first)
	}
	return s
}

// identity renders an _id argument. Numeric ids are compared as integers.
func identity(id any) (string, error) {
	if s, ok := id.(string); ok {
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return strconv.FormatInt(n, 10), nil
		}
	}
	return EncodeValue(id)
}
