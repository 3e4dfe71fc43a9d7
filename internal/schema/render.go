package schema

import (
	"fmt"
	"maps"
	"slices"
	"strconv"

	language "github.com/hanpama/graphcypher/internal/language"
)

// Render prints s as SDL: directive definitions, then types, each sorted by
// name. Built-in scalars and directives are left out, as are the field
// directives the translator consumes, so the output is a plain executable
// schema. Directives applied to fields are kept.
func Render(s *Schema) string {
	if s == nil {
		return ""
	}
	doc := &language.SchemaDocument{}
	for _, name := range slices.Sorted(maps.Keys(s.Directives)) {
		d := s.Directives[name]
		if isBuiltinDirective(d) {
			continue
		}
		doc.Directives = append(doc.Directives, s.directiveDocument(d))
	}
	for _, name := range slices.Sorted(maps.Keys(s.Types)) {
		t := s.Types[name]
		if isBuiltinScalar(t) {
			continue
		}
		doc.Definitions = append(doc.Definitions, s.typeDocument(t))
	}
	return language.FormatSchema(doc)
}

func isBuiltinScalar(t *Type) bool {
	switch t {
	case stringType, intType, floatType, booleanType, idType:
		return true
	}
	return false
}

func isBuiltinDirective(d *Directive) bool {
	switch d {
	case includeDirective, skipDirective, cypherDirective, relationDirective, mutationMetaDirective:
		return true
	}
	return false
}

var definitionKinds = map[TypeKind]language.DefinitionKind{
	TypeKindScalar:      language.Scalar,
	TypeKindObject:      language.Object,
	TypeKindInterface:   language.Interface,
	TypeKindUnion:       language.Union,
	TypeKindEnum:        language.Enum,
	TypeKindInputObject: language.InputObject,
}

func (s *Schema) typeDocument(t *Type) *language.Definition {
	def := &language.Definition{
		Kind:        definitionKinds[t.Kind],
		Name:        t.Name,
		Description: t.Description,
		Interfaces:  t.Interfaces,
	}
	if t.Kind == TypeKindUnion {
		def.Types = t.PossibleTypes
	}
	if t.SpecifiedByURL != nil {
		def.Directives = append(def.Directives, directiveUse("specifiedBy", "url", stringValue(*t.SpecifiedByURL)))
	}
	if t.OneOf {
		def.Directives = append(def.Directives, &language.Directive{Name: "oneOf"})
	}
	for _, f := range t.Fields {
		fd := &language.FieldDefinition{
			Name:        f.Name,
			Description: f.Description,
			Type:        typeDocument(f.Type),
			Arguments:   s.argumentDocuments(f.Arguments),
		}
		for _, d := range f.Directives {
			fd.Directives = append(fd.Directives, s.appliedDirective(d))
		}
		fd.Directives = appendDeprecated(fd.Directives, f.IsDeprecated, f.DeprecationReason)
		def.Fields = append(def.Fields, fd)
	}
	for _, in := range t.InputFields {
		fd := &language.FieldDefinition{
			Name:        in.Name,
			Description: in.Description,
			Type:        typeDocument(in.Type),
		}
		if in.DefaultValue != nil {
			fd.DefaultValue = s.valueDocument(in.DefaultValue, in.Type)
		}
		fd.Directives = appendDeprecated(fd.Directives, in.IsDeprecated, in.DeprecationReason)
		def.Fields = append(def.Fields, fd)
	}
	for _, ev := range t.EnumValues {
		def.EnumValues = append(def.EnumValues, &language.EnumValueDefinition{
			Name:        ev.Name,
			Description: ev.Description,
			Directives:  appendDeprecated(nil, ev.IsDeprecated, ev.DeprecationReason),
		})
	}
	return def
}

func (s *Schema) directiveDocument(d *Directive) *language.DirectiveDefinition {
	def := &language.DirectiveDefinition{
		Name:         d.Name,
		Description:  d.Description,
		Arguments:    s.argumentDocuments(d.Arguments),
		IsRepeatable: d.IsRepeatable,
		Position:     &language.Position{Src: &language.Source{}},
	}
	for _, loc := range d.Locations {
		def.Locations = append(def.Locations, language.DirectiveLocation(loc))
	}
	return def
}

func (s *Schema) argumentDocuments(args []*InputValue) language.ArgumentDefinitionList {
	var out language.ArgumentDefinitionList
	for _, arg := range args {
		ad := &language.ArgumentDefinition{
			Name:        arg.Name,
			Description: arg.Description,
			Type:        typeDocument(arg.Type),
		}
		if arg.DefaultValue != nil {
			ad.DefaultValue = s.valueDocument(arg.DefaultValue, arg.Type)
		}
		ad.Directives = appendDeprecated(ad.Directives, arg.IsDeprecated, arg.DeprecationReason)
		out = append(out, ad)
	}
	return out
}

// appliedDirective prints arguments in name order, typed by the directive
// definition when one is known.
func (s *Schema) appliedDirective(d *AppliedDirective) *language.Directive {
	out := &language.Directive{Name: d.Name}
	var argTypes map[string]*TypeRef
	if def := s.Directives[d.Name]; def != nil {
		argTypes = make(map[string]*TypeRef, len(def.Arguments))
		for _, arg := range def.Arguments {
			argTypes[arg.Name] = arg.Type
		}
	}
	for _, name := range slices.Sorted(maps.Keys(d.Arguments)) {
		out.Arguments = append(out.Arguments, &language.Argument{
			Name:  name,
			Value: s.valueDocument(d.Arguments[name], argTypes[name]),
		})
	}
	return out
}

func appendDeprecated(list language.DirectiveList, deprecated bool, reason string) language.DirectiveList {
	if !deprecated {
		return list
	}
	if reason == "" {
		return append(list, &language.Directive{Name: "deprecated"})
	}
	return append(list, directiveUse("deprecated", "reason", stringValue(reason)))
}

func directiveUse(name, arg string, v *language.Value) *language.Directive {
	return &language.Directive{Name: name, Arguments: language.ArgumentList{{Name: arg, Value: v}}}
}

func typeDocument(t *TypeRef) *language.Type {
	switch {
	case t == nil:
		return nil
	case t.Kind == TypeRefKindNonNull:
		inner := typeDocument(t.OfType)
		inner.NonNull = true
		return inner
	case t.Kind == TypeRefKindList:
		return &language.Type{Elem: typeDocument(t.OfType)}
	}
	return &language.Type{NamedType: t.Named}
}

func stringValue(s string) *language.Value {
	return &language.Value{Kind: language.StringValue, Raw: s}
}

// valueDocument converts a decoded input value back to a literal. Strings
// typed by an enum print bare.
func (s *Schema) valueDocument(v any, t *TypeRef) *language.Value {
	switch x := v.(type) {
	case nil:
		return &language.Value{Kind: language.NullValue, Raw: "null"}
	case string:
		if named := s.NamedTypeOf(t); named != nil && named.Kind == TypeKindEnum {
			return &language.Value{Kind: language.EnumValue, Raw: x}
		}
		return stringValue(x)
	case bool:
		return &language.Value{Kind: language.BooleanValue, Raw: strconv.FormatBool(x)}
	case int:
		return &language.Value{Kind: language.IntValue, Raw: strconv.Itoa(x)}
	case int32:
		return &language.Value{Kind: language.IntValue, Raw: strconv.FormatInt(int64(x), 10)}
	case int64:
		return &language.Value{Kind: language.IntValue, Raw: strconv.FormatInt(x, 10)}
	case float32:
		return &language.Value{Kind: language.FloatValue, Raw: strconv.FormatFloat(float64(x), 'g', -1, 32)}
	case float64:
		return &language.Value{Kind: language.FloatValue, Raw: strconv.FormatFloat(x, 'g', -1, 64)}
	case []any:
		var item *TypeRef
		if t != nil && t.IsList() {
			item = t
			if item.IsNonNull() {
				item = item.Unwrap()
			}
			item = item.Unwrap()
		}
		out := &language.Value{Kind: language.ListValue}
		for _, elem := range x {
			out.Children = append(out.Children, &language.ChildValue{Value: s.valueDocument(elem, item)})
		}
		return out
	case map[string]any:
		var fields map[string]*TypeRef
		if named := s.NamedTypeOf(t); named != nil {
			fields = make(map[string]*TypeRef, len(named.InputFields))
			for _, in := range named.InputFields {
				fields[in.Name] = in.Type
			}
		}
		out := &language.Value{Kind: language.ObjectValue}
		for _, k := range slices.Sorted(maps.Keys(x)) {
			out.Children = append(out.Children, &language.ChildValue{Name: k, Value: s.valueDocument(x[k], fields[k])})
		}
		return out
	}
	return &language.Value{Kind: language.EnumValue, Raw: fmt.Sprint(v)}
}
