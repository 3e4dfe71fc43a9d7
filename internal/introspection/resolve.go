package introspection

import (
	"fmt"
	"sort"

	"github.com/goccy/go-json"

	schema "github.com/hanpama/graphcypher/internal/schema"
)

// resolve reads field from an introspection value. ok is false when source
// is not one.
func (r *runtime) resolve(source any, field string, args map[string]any) (any, bool) {
	switch src := source.(type) {
	case *schema.Schema:
		return r.schemaField(src, field), true
	case *schema.Type:
		return r.typeField(src, field, args), true
	case *schema.TypeRef:
		return r.wrapperField(src, field), true
	case *schema.Field:
		return r.fieldField(src, field, args), true
	case *schema.InputValue:
		return r.inputValueField(src, field), true
	case *schema.EnumValue:
		return deprecation(field, src.Name, src.Description, src.IsDeprecated, src.DeprecationReason), true
	case *schema.Directive:
		return directiveField(src, field, args), true
	}
	return nil, false
}

// named returns the declared type or an untyped nil.
func (r *runtime) named(name string) any {
	if t := r.catalog.Types[name]; t != nil {
		return t
	}
	return nil
}

// ref resolves a type reference: wrappers stay TypeRefs, names become Types.
func (r *runtime) ref(t *schema.TypeRef) any {
	if t == nil {
		return nil
	}
	if t.Kind == schema.TypeRefKindNamed {
		return r.named(t.Named)
	}
	return t
}

func (r *runtime) schemaField(s *schema.Schema, field string) any {
	switch field {
	case "description":
		return nullable(s.Description)
	case "types":
		names := make([]string, 0, len(s.Types))
		for name := range s.Types {
			names = append(names, name)
		}
		sort.Strings(names)
		out := make([]any, len(names))
		for i, name := range names {
			out[i] = s.Types[name]
		}
		return out
	case "queryType":
		return r.named(s.QueryType)
	case "mutationType":
		return r.named(s.MutationType)
	case "subscriptionType":
		return r.named(s.SubscriptionType)
	case "directives":
		names := make([]string, 0, len(s.Directives))
		for name := range s.Directives {
			names = append(names, name)
		}
		sort.Strings(names)
		out := make([]any, len(names))
		for i, name := range names {
			out[i] = s.Directives[name]
		}
		return out
	}
	return nil
}

func (r *runtime) typeField(t *schema.Type, field string, args map[string]any) any {
	all, _ := args["includeDeprecated"].(bool)
	switch field {
	case "kind":
		return string(t.Kind)
	case "name":
		return t.Name
	case "description":
		return nullable(t.Description)
	case "specifiedByURL":
		if t.SpecifiedByURL == nil {
			return nil
		}
		return *t.SpecifiedByURL
	case "fields":
		if t.Kind != schema.TypeKindObject && t.Kind != schema.TypeKindInterface {
			return nil
		}
		var out []any
		for _, f := range t.Fields {
			if all || !f.IsDeprecated {
				out = append(out, f)
			}
		}
		return orEmpty(out)
	case "interfaces":
		if t.Kind != schema.TypeKindObject && t.Kind != schema.TypeKindInterface {
			return nil
		}
		return r.namedList(t.Interfaces)
	case "possibleTypes":
		switch t.Kind {
		case schema.TypeKindUnion:
			return r.namedList(t.PossibleTypes)
		case schema.TypeKindInterface:
			var names []string
			for name, candidate := range r.catalog.Types {
				for _, iface := range candidate.Interfaces {
					if iface == t.Name && candidate.Kind == schema.TypeKindObject {
						names = append(names, name)
					}
				}
			}
			sort.Strings(names)
			return r.namedList(names)
		}
		return nil
	case "enumValues":
		if t.Kind != schema.TypeKindEnum {
			return nil
		}
		var out []any
		for _, v := range t.EnumValues {
			if all || !v.IsDeprecated {
				out = append(out, v)
			}
		}
		return orEmpty(out)
	case "inputFields":
		if t.Kind != schema.TypeKindInputObject {
			return nil
		}
		return inputValues(t.InputFields, all)
	case "isOneOf":
		if t.Kind != schema.TypeKindInputObject {
			return nil
		}
		return t.OneOf
	}
	return nil
}

// wrapperField answers __Type fields for LIST and NON_NULL references.
func (r *runtime) wrapperField(t *schema.TypeRef, field string) any {
	switch field {
	case "kind":
		return string(t.Kind)
	case "ofType":
		return r.ref(t.OfType)
	}
	return nil
}

func (r *runtime) fieldField(f *schema.Field, field string, args map[string]any) any {
	switch field {
	case "args":
		all, _ := args["includeDeprecated"].(bool)
		return inputValues(f.Arguments, all)
	case "type":
		return r.ref(f.Type)
	}
	return deprecation(field, f.Name, f.Description, f.IsDeprecated, f.DeprecationReason)
}

func (r *runtime) inputValueField(v *schema.InputValue, field string) any {
	switch field {
	case "type":
		return r.ref(v.Type)
	case "defaultValue":
		if v.DefaultValue == nil {
			return nil
		}
		return literal(v.DefaultValue)
	}
	return deprecation(field, v.Name, v.Description, v.IsDeprecated, v.DeprecationReason)
}

func directiveField(d *schema.Directive, field string, args map[string]any) any {
	switch field {
	case "name":
		return d.Name
	case "description":
		return nullable(d.Description)
	case "locations":
		out := make([]any, len(d.Locations))
		for i, loc := range d.Locations {
			out[i] = loc
		}
		return out
	case "args":
		all, _ := args["includeDeprecated"].(bool)
		return inputValues(d.Arguments, all)
	case "isRepeatable":
		return d.IsRepeatable
	}
	return nil
}

// deprecation answers the fields shared by __Field, __InputValue and __EnumValue.
func deprecation(field, name, description string, deprecated bool, reason string) any {
	switch field {
	case "name":
		return name
	case "description":
		return nullable(description)
	case "isDeprecated":
		return deprecated
	case "deprecationReason":
		if !deprecated {
			return nil
		}
		return reason
	}
	return nil
}

func (r *runtime) namedList(names []string) any {
	out := []any{}
	for _, name := range names {
		if t := r.catalog.Types[name]; t != nil {
			out = append(out, t)
		}
	}
	return out
}

func inputValues(values []*schema.InputValue, all bool) any {
	out := []any{}
	for _, v := range values {
		if all || !v.IsDeprecated {
			out = append(out, v)
		}
	}
	return out
}

func orEmpty(xs []any) []any {
	if xs == nil {
		return []any{}
	}
	return xs
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// literal renders a Go default value as a GraphQL value literal.
func literal(v any) string {
	switch x := v.(type) {
	case string:
		b, _ := json.Marshal(x)
		return string(b)
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		s := "{"
		for i, k := range keys {
			if i > 0 {
				s += ", "
			}
			s += k + ": " + literal(x[k])
		}
		return s + "}"
	case []any:
		s := "["
		for i, item := range x {
			if i > 0 {
				s += ", "
			}
			s += literal(item)
		}
		return s + "]"
	case nil:
		return "null"
	default:
		return fmt.Sprint(v)
	}
}
