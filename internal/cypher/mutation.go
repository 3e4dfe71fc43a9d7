package cypher

import (
	"fmt"
	"strings"

	language "github.com/hanpama/graphcypher/internal/language"
	schema "github.com/hanpama/graphcypher/internal/schema"
)

// Mutation translates a root field of the mutation type. The shape is chosen
// by precedence: a @cypher statement, then a create* name, then an add* name
// backed by @MutationMeta.
func (t *Translator) Mutation(req Request) (*Statement, error) {
	root := t.schema.GetMutationType()
	def := root.Field(req.Field)
	if def == nil {
		return nil, fmt.Errorf("%w: Mutation.%s", ErrUnknownField, req.Field)
	}
	c, set, err := t.prepare(req, def)
	if err != nil {
		return nil, err
	}

	typeName := def.Type.GetNamedType()
	binding := lowerFirst(typeName)
	args := coerceArgs(def.Arguments, t.rootArgs(req, def))
	lower := strings.ToLower(req.Field)

	switch statement := schema.CypherOf(root, req.Field).Statement; {
	case statement != "":
		sub, err := c.compile(set, binding, t.schema.Types[typeName], 1)
		if err != nil {
			return nil, err
		}
		encoded, err := EncodeMap(args)
		if err != nil {
			return nil, fmt.Errorf("Mutation.%s: %w", req.Field, err)
		}
		q := "CALL apoc.cypher.doIt(" + encodeString(statement) + ", " + encoded + ") YIELD value " +
			"WITH apoc.map.values(value, [keys(value)[0]])[0] AS " + binding + " " +
			"RETURN " + project(binding, sub) + " AS " + binding
		return &Statement{Query: q, Params: args, Binding: binding, Type: def.Type}, nil

	case strings.HasPrefix(lower, "create"):
		sub, err := c.compile(set, binding, t.schema.Types[typeName], 1)
		if err != nil {
			return nil, err
		}
		q := "CREATE (" + binding + ":" + typeName + ") SET " + binding + " = $params " +
			"RETURN " + project(binding, sub) + " AS " + binding
		return &Statement{Query: q, Params: map[string]any{"params": args}, Binding: binding, Type: def.Type}, nil

	case strings.HasPrefix(lower, "add"):
		return t.addRelationship(c, set, root, def, args)
	}
	return nil, fmt.Errorf("%w: Mutation.%s has no @cypher and starts with neither create nor add", ErrNamingConventionViolation, req.Field)
}

// addRelationship matches the two nodes identified by the first two declared
// arguments and connects them with the @MutationMeta relationship. The
// selection is projected from the source node. Both identifying arguments
// must be present; a relationship between nodes of one type binds the target
// as <type>_to.
func (t *Translator) addRelationship(c *compiler, set language.SelectionSet, root *schema.Type, def *schema.Field, args map[string]any) (*Statement, error) {
	meta := schema.MutationMetaOf(root, def.Name)
	if meta.Relationship == "" || meta.From == "" || meta.To == "" {
		return nil, fmt.Errorf("%w: Mutation.%s requires @MutationMeta(relationship, from, to)", ErrUnresolvedDirective, def.Name)
	}
	if len(def.Arguments) < 2 {
		return nil, fmt.Errorf("%w: Mutation.%s must declare the source and target arguments", ErrMissingArguments, def.Name)
	}

	fromArg, toArg := def.Arguments[0].Name, def.Arguments[1].Name
	for _, name := range []string{fromArg, toArg} {
		if _, ok := args[name]; !ok {
			return nil, fmt.Errorf("%w: Mutation.%s requires argument %s", ErrMissingArguments, def.Name, name)
		}
	}

	fromPrefix, toPrefix := lowerFirst(meta.From), lowerFirst(meta.To)
	fromVar, toVar := fromPrefix, toPrefix
	if toVar == fromVar {
		toVar = fromVar + "_to"
	}

	sub, err := c.compile(set, fromVar, t.schema.Types[meta.From], 1)
	if err != nil {
		return nil, err
	}

	q := "MATCH (" + fromVar + ":" + meta.From + " {" + encodeKey(propertyOf(fromArg, fromPrefix)) + ": $" + fromArg + "}) " +
		"MATCH (" + toVar + ":" + meta.To + " {" + encodeKey(propertyOf(toArg, toPrefix)) + ": $" + toArg + "}) " +
		"CREATE (" + fromVar + ")-[:" + meta.Relationship + "]->(" + toVar + ") " +
		"RETURN " + project(fromVar, sub) + " AS " + fromVar
	return &Statement{Query: q, Params: args, Binding: fromVar, Type: def.Type}, nil
}

// propertyOf strips the lower-camel type prefix from an add mutation argument
// name: moviemovieId on movie identifies the movieId property. The prefix is
// only stripped when a lower-case property name follows it, so movieTitle and
// movieId stay as they are.
func propertyOf(arg, prefix string) string {
	rest, ok := strings.CutPrefix(arg, prefix)
	if !ok || rest == "" {
		return arg
	}
	if c := rest[0]; c >= 'a' && c <= 'z' || c == '_' {
		return rest
	}
	return arg
}
