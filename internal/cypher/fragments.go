package cypher

import (
	"slices"

	language "github.com/hanpama/graphcypher/internal/language"
	schema "github.com/hanpama/graphcypher/internal/schema"
)

// Flatten expands fragment spreads and inline fragments of set in place and
// returns the field selections in document order. A fragment applies when
// its type condition can share a concrete type with typeName: the type
// itself, an interface it implements, a union holding it, or, under an
// interface or union, one of its possible types. @skip and @include are
// evaluated against variables on fields, fragments and fragment definitions.
func Flatten(s *schema.Schema, set language.SelectionSet, typeName string, fragments language.FragmentDefinitionList, variables map[string]any) []*language.Field {
	f := flattener{schema: s, typeName: typeName, fragments: fragments, variables: variables, visited: map[string]bool{}}
	f.flatten(set)
	return f.out
}

type flattener struct {
	schema    *schema.Schema
	typeName  string
	fragments language.FragmentDefinitionList
	variables map[string]any
	visited   map[string]bool
	out       []*language.Field
}

func (f *flattener) flatten(set language.SelectionSet) {
	for _, selection := range set {
		switch sel := selection.(type) {
		case *language.Field:
			if !included(sel.Directives, f.variables) {
				continue
			}
			f.out = append(f.out, sel)

		case *language.InlineFragment:
			if !included(sel.Directives, f.variables) || !f.applies(sel.TypeCondition) {
				continue
			}
			f.flatten(sel.SelectionSet)

		case *language.FragmentSpread:
			if !included(sel.Directives, f.variables) || f.visited[sel.Name] {
				continue
			}
			def := f.fragments.ForName(sel.Name)
			if def == nil || !included(def.Directives, f.variables) || !f.applies(def.TypeCondition) {
				continue
			}
			f.visited[sel.Name] = true
			f.flatten(def.SelectionSet)
			delete(f.visited, sel.Name)
		}
	}
}

func (f *flattener) applies(condition string) bool {
	if condition == "" || condition == f.typeName {
		return true
	}
	if f.schema == nil {
		return false
	}
	possible := f.schema.PossibleObjects(f.typeName)
	for _, name := range f.schema.PossibleObjects(condition) {
		if slices.Contains(possible, name) {
			return true
		}
	}
	return false
}

func included(directives language.DirectiveList, variables map[string]any) bool {
	if skip := directives.ForName("skip"); skip != nil {
		if v, ok := directiveArg(skip, "if", variables).(bool); ok && v {
			return false
		}
	}
	if include := directives.ForName("include"); include != nil {
		if v, ok := directiveArg(include, "if", variables).(bool); ok && !v {
			return false
		}
	}
	return true
}

func directiveArg(d *language.Directive, name string, variables map[string]any) any {
	arg := d.Arguments.ForName(name)
	if arg == nil {
		return nil
	}
	return language.ValueOf(arg.Value, variables)
}
