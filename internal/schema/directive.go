package schema

import (
	"fmt"
	"strings"
)

// DirectiveKind names one of the field directives that steer Cypher generation.
type DirectiveKind string

const (
	DirectiveCypher       DirectiveKind = "cypher"
	DirectiveRelation     DirectiveKind = "relation"
	DirectiveMutationMeta DirectiveKind = "MutationMeta"
)

// AppliedDirective is a directive use on a field definition with its
// arguments already converted to Go values.
type AppliedDirective struct {
	Name      string
	Arguments map[string]any
}

// Directive returns the first directive on the field whose name matches kind
// case-insensitively, or nil.
func (f *Field) Directive(kind DirectiveKind) *AppliedDirective {
	if f == nil {
		return nil
	}
	for _, d := range f.Directives {
		if strings.EqualFold(d.Name, string(kind)) {
			return d
		}
	}
	return nil
}

// LookupDirective returns the string arguments of the kind directive applied
// to typ.field. The map is empty, never nil, when the type, field or directive
// is absent; callers test for the argument they need.
func LookupDirective(typ *Type, field string, kind DirectiveKind) map[string]string {
	out := map[string]string{}
	d := typ.Field(field).Directive(kind)
	if d == nil {
		return out
	}
	for k, v := range d.Arguments {
		if v == nil {
			continue
		}
		out[k] = fmt.Sprint(v)
	}
	return out
}

// Cypher carries the @cypher(statement:) template. Statement is empty when absent.
type Cypher struct {
	Statement string
}

// Direction of a @relation edge as seen from the declaring type.
type Direction string

const (
	DirectionIn  Direction = "IN"
	DirectionOut Direction = "OUT"
)

// Relation carries @relation(name:, direction:). Name is empty when absent.
type Relation struct {
	Name      string
	Direction Direction
}

// MutationMeta carries @MutationMeta(relationship:, from:, to:).
// Relationship is empty when absent.
type MutationMeta struct {
	Relationship string
	From         string
	To           string
}

func CypherOf(typ *Type, field string) Cypher {
	args := LookupDirective(typ, field, DirectiveCypher)
	return Cypher{Statement: args["statement"]}
}

func RelationOf(typ *Type, field string) Relation {
	args := LookupDirective(typ, field, DirectiveRelation)
	return Relation{
		Name:      args["name"],
		Direction: Direction(strings.ToUpper(args["direction"])),
	}
}

func MutationMetaOf(typ *Type, field string) MutationMeta {
	args := LookupDirective(typ, field, DirectiveMutationMeta)
	return MutationMeta{
		Relationship: args["relationship"],
		From:         args["from"],
		To:           args["to"],
	}
}
