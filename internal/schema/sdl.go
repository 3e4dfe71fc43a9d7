package schema

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	language "github.com/hanpama/graphcypher/internal/language"
)

// Source is one named SDL document.
type Source struct {
	Name    string
	Content string
}

// BuildFromSDL parses a single SDL string and returns the corresponding Schema.
func BuildFromSDL(sdl string) (*Schema, error) {
	return BuildFromSources(Source{Name: "schema.graphql", Content: sdl})
}

// Load reads the given SDL files and builds one schema from all of them.
func Load(paths ...string) (*Schema, error) {
	sources := make([]Source, 0, len(paths))
	for _, p := range paths {
		content, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("read schema %s: %w", p, err)
		}
		sources = append(sources, Source{Name: filepath.Base(p), Content: string(content)})
	}
	return BuildFromSources(sources...)
}

// BuildFromSources merges the documents, folding type extensions into their
// base definitions, and validates the Cypher directives used on fields.
func BuildFromSources(sources ...Source) (*Schema, error) {
	docs := make([]*language.SchemaDocument, 0, len(sources))
	for _, src := range sources {
		doc, err := language.ParseSchema(src.Name, src.Content)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}

	b := &sdlBuilder{schema: NewSchema("")}
	b.addBuiltins()
	for _, doc := range docs {
		for _, def := range doc.Definitions {
			b.addDefinition(def)
		}
		for _, dir := range doc.Directives {
			b.schema.AddDirective(buildDirectiveDefinition(dir))
		}
	}
	for _, doc := range docs {
		for _, ext := range doc.Extensions {
			b.addExtension(ext)
		}
		for _, sd := range doc.Schema {
			b.setOperationTypes(sd.OperationTypes)
		}
		for _, sd := range doc.SchemaExtension {
			b.setOperationTypes(sd.OperationTypes)
		}
	}
	b.defaultOperationTypes()
	b.markRootFieldsAsync()
	b.validate()

	if len(b.violations) > 0 {
		return nil, ValidationError(b.violations)
	}
	return b.schema, nil
}

type sdlBuilder struct {
	schema     *Schema
	positions  map[*Field]*language.Position
	violations []*Violation
}

func (b *sdlBuilder) addViolation(v *Violation) { b.violations = append(b.violations, v) }

func (b *sdlBuilder) addBuiltins() {
	b.schema.AddType(stringType).
		AddType(intType).
		AddType(floatType).
		AddType(booleanType).
		AddType(idType)
	b.schema.AddDirective(includeDirective).
		AddDirective(skipDirective).
		AddDirective(cypherDirective).
		AddDirective(relationDirective).
		AddDirective(mutationMetaDirective)
	b.positions = make(map[*Field]*language.Position)
}

func (b *sdlBuilder) addDefinition(def *language.Definition) {
	if existing, ok := b.schema.Types[def.Name]; ok && !isBuiltinType(existing) {
		b.addViolation(violationDuplicateType(def.Name, def.Position))
		return
	}
	var t *Type
	switch def.Kind {
	case language.Object:
		t = NewType(def.Name, TypeKindObject, def.Description)
	case language.Interface:
		t = NewType(def.Name, TypeKindInterface, def.Description)
	case language.Union:
		t = NewType(def.Name, TypeKindUnion, def.Description)
	case language.Scalar:
		t = NewType(def.Name, TypeKindScalar, def.Description)
	case language.Enum:
		t = NewType(def.Name, TypeKindEnum, def.Description)
	case language.InputObject:
		t = NewType(def.Name, TypeKindInputObject, def.Description)
	default:
		return
	}
	b.fill(t, def)
	b.schema.AddType(t)
}

func (b *sdlBuilder) addExtension(def *language.Definition) {
	t, ok := b.schema.Types[def.Name]
	if !ok {
		b.addViolation(violationExtensionWithoutBase(def.Name, def.Position))
		return
	}
	b.fill(t, def)
}

// fill appends the members declared by def to t.
func (b *sdlBuilder) fill(t *Type, def *language.Definition) {
	for _, name := range def.Interfaces {
		t.AddInterface(name)
	}
	for _, name := range def.Types {
		t.AddPossibleType(name)
	}
	for _, ev := range def.EnumValues {
		v := NewEnumValue(ev.Name, ev.Description)
		if dep := ev.Directives.ForName("deprecated"); dep != nil {
			v.Deprecate(deprecationReason(dep))
		}
		t.AddEnumValue(v)
	}
	for _, fd := range def.Fields {
		if t.Kind == TypeKindInputObject {
			t.AddInputField(NewInputValue(fd.Name, fd.Description, typeRefFromAST(fd.Type)).
				SetDefault(language.ValueOf(fd.DefaultValue, nil)))
			continue
		}
		if t.Field(fd.Name) != nil {
			b.addViolation(violationDuplicateField(fd.Name, t.Name, fd.Position))
			continue
		}
		f := buildField(fd)
		b.positions[f] = fd.Position
		t.AddField(f)
	}
}

func buildField(fd *language.FieldDefinition) *Field {
	f := NewField(fd.Name, fd.Description, typeRefFromAST(fd.Type))
	for _, arg := range fd.Arguments {
		f.AddArgument(NewInputValue(arg.Name, arg.Description, typeRefFromAST(arg.Type)).
			SetDefault(language.ValueOf(arg.DefaultValue, nil)))
	}
	for _, dir := range fd.Directives {
		if dir.Name == "deprecated" {
			f.Deprecate(deprecationReason(dir))
			continue
		}
		args := make(map[string]any, len(dir.Arguments))
		for _, a := range dir.Arguments {
			args[a.Name] = language.ValueOf(a.Value, nil)
		}
		f.AddDirective(&AppliedDirective{Name: dir.Name, Arguments: args})
	}
	return f
}

func buildDirectiveDefinition(dir *language.DirectiveDefinition) *Directive {
	d := NewDirective(dir.Name, dir.Description).SetRepeatable(dir.IsRepeatable)
	for _, loc := range dir.Locations {
		d.AddLocation(string(loc))
	}
	for _, arg := range dir.Arguments {
		d.AddArgument(NewInputValue(arg.Name, arg.Description, typeRefFromAST(arg.Type)).
			SetDefault(language.ValueOf(arg.DefaultValue, nil)))
	}
	return d
}

func deprecationReason(dir *language.Directive) string {
	if arg := dir.Arguments.ForName("reason"); arg != nil && arg.Value != nil {
		return arg.Value.Raw
	}
	return ""
}

func typeRefFromAST(t *language.Type) *TypeRef {
	if t == nil {
		return nil
	}
	if t.NonNull {
		return NonNullType(typeRefFromAST(&language.Type{NamedType: t.NamedType, Elem: t.Elem}))
	}
	if t.NamedType != "" {
		return NamedType(t.NamedType)
	}
	return ListType(typeRefFromAST(t.Elem))
}

func (b *sdlBuilder) setOperationTypes(ops []*language.OperationTypeDefinition) {
	for _, op := range ops {
		switch op.Operation {
		case language.Query:
			b.schema.SetQueryType(op.Type)
		case language.Mutation:
			b.schema.SetMutationType(op.Type)
		case language.Subscription:
			b.schema.SetSubscriptionType(op.Type)
		}
	}
}

func (b *sdlBuilder) defaultOperationTypes() {
	if b.schema.QueryType == "" {
		if _, ok := b.schema.Types["Query"]; ok {
			b.schema.SetQueryType("Query")
		}
	}
	if b.schema.MutationType == "" {
		if _, ok := b.schema.Types["Mutation"]; ok {
			b.schema.SetMutationType("Mutation")
		}
	}
	if b.schema.SubscriptionType == "" {
		if _, ok := b.schema.Types["Subscription"]; ok {
			b.schema.SetSubscriptionType("Subscription")
		}
	}
}

// markRootFieldsAsync flags every Query and Mutation field as resolved by the
// runtime; nested fields are projections of the root result.
func (b *sdlBuilder) markRootFieldsAsync() {
	for _, root := range []*Type{b.schema.GetQueryType(), b.schema.GetMutationType()} {
		if root == nil {
			continue
		}
		for _, f := range root.Fields {
			f.SetAsync(true)
		}
	}
}

func (b *sdlBuilder) validate() {
	names := make([]string, 0, len(b.schema.Types))
	for name := range b.schema.Types {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		t := b.schema.Types[name]
		for _, f := range t.Fields {
			pos := b.positions[f]
			if _, ok := b.schema.Types[f.Type.GetNamedType()]; !ok {
				b.addViolation(violationUnknownType(f.Type.GetNamedType(), t.Name+"."+f.Name, pos))
			}
			for _, arg := range f.Arguments {
				if _, ok := b.schema.Types[arg.Type.GetNamedType()]; !ok {
					b.addViolation(violationUnknownType(arg.Type.GetNamedType(), t.Name+"."+f.Name+"("+arg.Name+")", pos))
				}
			}
			b.validateFieldDirectives(t, f, pos)
		}
		for _, in := range t.InputFields {
			if _, ok := b.schema.Types[in.Type.GetNamedType()]; !ok {
				b.addViolation(violationUnknownType(in.Type.GetNamedType(), t.Name+"."+in.Name, nil))
			}
		}
	}
}

func (b *sdlBuilder) validateFieldDirectives(t *Type, f *Field, pos *language.Position) {
	if d := f.Directive(DirectiveCypher); d != nil {
		if s, _ := d.Arguments["statement"].(string); s == "" {
			b.addViolation(violationMissingDirectiveArgument(d.Name, "statement", f.Name, t.Name, pos))
		}
	}
	if d := f.Directive(DirectiveRelation); d != nil {
		if s, _ := d.Arguments["name"].(string); s == "" {
			b.addViolation(violationMissingDirectiveArgument(d.Name, "name", f.Name, t.Name, pos))
		}
		dir, _ := d.Arguments["direction"].(string)
		switch Direction(strings.ToUpper(dir)) {
		case DirectionIn, DirectionOut:
		default:
			b.addViolation(violationInvalidRelationDirection(dir, f.Name, t.Name, pos))
		}
		if target := b.schema.NamedTypeOf(f.Type); target != nil && target.IsLeaf() {
			b.addViolation(violationRelationOnLeaf(f.Name, t.Name, pos))
		}
	}
	if d := f.Directive(DirectiveMutationMeta); d != nil {
		for _, arg := range []string{"relationship", "from", "to"} {
			s, _ := d.Arguments[arg].(string)
			if s == "" {
				b.addViolation(violationMissingDirectiveArgument(d.Name, arg, f.Name, t.Name, pos))
				continue
			}
			if arg != "relationship" {
				if _, ok := b.schema.Types[s]; !ok {
					b.addViolation(violationUnknownType(s, "@"+d.Name+" on "+t.Name+"."+f.Name, pos))
				}
			}
		}
	}
}

func isBuiltinType(t *Type) bool {
	switch t {
	case stringType, intType, floatType, booleanType, idType:
		return true
	}
	return false
}
