package cypher

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	language "github.com/hanpama/graphcypher/internal/language"
	schema "github.com/hanpama/graphcypher/internal/schema"
)

// compiler holds the per-translation inputs shared by every level of a
// selection tree.
type compiler struct {
	schema    *schema.Schema
	fragments language.FragmentDefinitionList
	variables map[string]any
	maxDepth  int
}

// selection is one field of a level after flattening, with all occurrences
// of that field merged.
type selection struct {
	name     string
	args     map[string]any
	children language.SelectionSet
}

// group flattens set against typ and merges repeated selections of a field in
// first-occurrence order.
func (c *compiler) group(set language.SelectionSet, typ *schema.Type) ([]*selection, error) {
	var out []*selection
	index := map[string]*selection{}
	for _, f := range Flatten(c.schema, set, typ.Name, c.fragments, c.variables) {
		args := c.argumentValues(f.Arguments)
		if prev, ok := index[f.Name]; ok {
			if !reflect.DeepEqual(prev.args, args) {
				return nil, fmt.Errorf("%w: %s.%s is selected with different arguments", ErrAmbiguousFieldSelection, typ.Name, f.Name)
			}
			prev.children = append(prev.children, f.SelectionSet...)
			continue
		}
		s := &selection{name: f.Name, args: args}
		s.children = append(s.children, f.SelectionSet...)
		index[f.Name] = s
		out = append(out, s)
	}
	return out, nil
}

func (c *compiler) argumentValues(list language.ArgumentList) map[string]any {
	args := make(map[string]any, len(list))
	for _, a := range list {
		args[a.Name] = language.ValueOf(a.Value, c.variables)
	}
	return args
}

// compile renders the map projection entries for set selected on typ, with
// binding naming the current element.
func (c *compiler) compile(set language.SelectionSet, binding string, typ *schema.Type, depth int) (*projection, error) {
	if depth > c.maxDepth {
		return nil, fmt.Errorf("%w: %d levels at %s", ErrMaxDepthExceeded, c.maxDepth, binding)
	}
	p := &projection{}
	if typ == nil {
		return p, nil
	}
	selections, err := c.group(set, typ)
	if err != nil {
		return nil, err
	}
	if typ.IsAbstract() && len(selections) > 0 {
		p.field("__typename", "head(labels("+binding+"))")
	}
	for _, sel := range selections {
		def, owner := c.fieldOf(typ, sel.name)
		if def == nil {
			continue
		}
		if sel.name == "_id" {
			p.field("_id", "ID("+binding+")")
			continue
		}
		if err := c.compileField(p, sel, def, binding, owner, depth); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// fieldOf finds the definition of name on typ. Under an interface or union
// a field selected through a fragment on a possible type is looked up on the
// first possible type declaring it.
func (c *compiler) fieldOf(typ *schema.Type, name string) (*schema.Field, *schema.Type) {
	if f := typ.Field(name); f != nil {
		return f, typ
	}
	if !typ.IsAbstract() {
		return nil, nil
	}
	for _, n := range c.schema.PossibleObjects(typ.Name) {
		if owner := c.schema.Types[n]; owner != nil {
			if f := owner.Field(name); f != nil {
				return f, owner
			}
		}
	}
	return nil, nil
}

func (c *compiler) compileField(p *projection, sel *selection, def *schema.Field, binding string, typ *schema.Type, depth int) error {
	statement := schema.CypherOf(typ, sel.name).Statement
	list := def.Type.HasList()

	if c.schema.Classify(def.Type) != schema.KindObject {
		if statement == "" {
			p.property(sel.name)
			return nil
		}
		args, err := c.statementArgs(binding, def, sel)
		if err != nil {
			return err
		}
		if list {
			p.field(sel.name, "apoc.cypher.runFirstColumnMany("+encodeString(statement)+", "+args+")"+c.slice(sel))
			return nil
		}
		p.field(sel.name, "apoc.cypher.runFirstColumnSingle("+encodeString(statement)+", "+args+")")
		return nil
	}

	nested := binding + "_" + sel.name
	target := c.schema.NamedTypeOf(def.Type)
	sub, err := c.compile(sel.children, nested, target, depth+1)
	if err != nil {
		return err
	}

	var expr string
	switch rel := schema.RelationOf(typ, sel.name); {
	case statement != "":
		args, err := c.statementArgs(binding, def, sel)
		if err != nil {
			return err
		}
		expr = "[" + nested + " IN apoc.cypher.runFirstColumnMany(" + encodeString(statement) + ", " + args + ") | " + project(nested, sub) + "]"
	case rel.Name != "":
		filter, err := c.relationFilter(def, sel)
		if err != nil {
			return err
		}
		expr = "[" + pattern(binding, rel, nested+":"+target.Name+filter) + " | " + project(nested, sub) + "]"
	default:
		expr = "[" + nested + " IN " + binding + "." + sel.name + " | " + project(nested, sub) + "]"
	}

	if list {
		expr += c.slice(sel)
	} else {
		expr = "head(" + expr + ")"
	}
	p.field(sel.name, expr)
	return nil
}

// pattern renders a single-hop relationship pattern from binding to node.
func pattern(binding string, rel schema.Relation, node string) string {
	edge := "-[:" + rel.Name + "]-"
	switch rel.Direction {
	case schema.DirectionIn:
		edge = "<" + edge
	case schema.DirectionOut:
		edge += ">"
	}
	return "(" + binding + ")" + edge + "(" + node + ")"
}

// statementArgs renders the parameter map passed to a field's @cypher
// statement: the current element as this, then the selection's arguments
// with declared defaults filled in.
func (c *compiler) statementArgs(binding string, def *schema.Field, sel *selection) (string, error) {
	args := map[string]any{}
	for _, a := range def.Arguments {
		if a.DefaultValue != nil {
			args[a.Name] = a.DefaultValue
		}
	}
	for k, v := range sel.args {
		args[k] = v
	}
	encoded, err := EncodeMap(coerceArgs(def.Arguments, args))
	if err != nil {
		return "", fmt.Errorf("%s: %w", sel.name, err)
	}
	if encoded == "{}" {
		return "{this: " + binding + "}", nil
	}
	return "{this: " + binding + ", " + encoded[1:], nil
}

// relationFilter renders the inline property filter of a relation target
// from the selection's own arguments, excluding pagination.
func (c *compiler) relationFilter(def *schema.Field, sel *selection) (string, error) {
	args := map[string]any{}
	for k, v := range sel.args {
		if k == "first" || k == "offset" {
			continue
		}
		args[k] = v
	}
	args = coerceArgs(def.Arguments, args)
	if len(args) == 0 {
		return "", nil
	}
	encoded, err := EncodeMap(args)
	if err != nil {
		return "", fmt.Errorf("%s: %w", sel.name, err)
	}
	return " " + encoded, nil
}

// slice renders the list slice for the selection's own first/offset
// arguments. A negative first is treated as absent.
func (c *compiler) slice(sel *selection) string {
	first, hasFirst := toInt(sel.args["first"])
	if hasFirst && first < 0 {
		hasFirst = false
	}
	offset, hasOffset := toInt(sel.args["offset"])
	switch {
	case hasFirst && hasOffset:
		return "[" + strconv.Itoa(offset) + ".." + strconv.Itoa(offset+first) + "]"
	case hasOffset:
		return "[" + strconv.Itoa(offset) + "..]"
	case hasFirst:
		return "[.." + strconv.Itoa(first) + "]"
	}
	return ""
}

// lowerFirst derives a binding name from a type name.
func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
