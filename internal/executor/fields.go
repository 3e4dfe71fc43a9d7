package executor

import (
	"slices"

	language "github.com/hanpama/graphcypher/internal/language"
	schema "github.com/hanpama/graphcypher/internal/schema"
)

// fieldGroup is every field node selected under one response key.
type fieldGroup struct {
	key   string
	name  string
	nodes []*language.Field
}

// collect groups the fields of set that apply to objectType by response key,
// in first-occurrence order. Fragments are expanded once per spread chain.
func (r *request) collect(objectType *schema.Type, set language.SelectionSet) []fieldGroup {
	var groups []fieldGroup
	index := map[string]int{}
	var walk func(set language.SelectionSet, visiting map[string]bool)
	walk = func(set language.SelectionSet, visiting map[string]bool) {
		for _, selection := range set {
			switch sel := selection.(type) {
			case *language.Field:
				if !r.included(sel.Directives) {
					continue
				}
				key := sel.Alias
				if key == "" {
					key = sel.Name
				}
				if i, ok := index[key]; ok {
					groups[i].nodes = append(groups[i].nodes, sel)
					continue
				}
				index[key] = len(groups)
				groups = append(groups, fieldGroup{key: key, name: sel.Name, nodes: []*language.Field{sel}})

			case *language.InlineFragment:
				if r.included(sel.Directives) && fragmentTypeApplies(r.schema, objectType, sel.TypeCondition) {
					walk(sel.SelectionSet, visiting)
				}

			case *language.FragmentSpread:
				if visiting[sel.Name] || !r.included(sel.Directives) {
					continue
				}
				def := r.document.Fragments.ForName(sel.Name)
				if def == nil || !r.included(def.Directives) || !fragmentTypeApplies(r.schema, objectType, def.TypeCondition) {
					continue
				}
				visiting[sel.Name] = true
				walk(def.SelectionSet, visiting)
				delete(visiting, sel.Name)
			}
		}
	}
	walk(set, map[string]bool{})
	return groups
}

// included evaluates @skip and @include.
func (r *request) included(directives language.DirectiveList) bool {
	if skip, ok := r.directiveFlag(directives, "skip"); ok && skip {
		return false
	}
	if include, ok := r.directiveFlag(directives, "include"); ok && !include {
		return false
	}
	return true
}

func (r *request) directiveFlag(directives language.DirectiveList, name string) (bool, bool) {
	d := directives.ForName(name)
	if d == nil {
		return false, false
	}
	arg := d.Arguments.ForName("if")
	if arg == nil {
		return false, false
	}
	v, ok := language.ValueOf(arg.Value, r.variables).(bool)
	return v, ok
}

// fragmentTypeApplies reports whether a fragment on condition selects from
// objectType: the same type, an interface it implements, or a union holding it.
func fragmentTypeApplies(s *schema.Schema, objectType *schema.Type, condition string) bool {
	if condition == "" || condition == objectType.Name {
		return true
	}
	return slices.Contains(s.PossibleObjects(condition), objectType.Name)
}
