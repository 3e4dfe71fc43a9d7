package schema

import (
	"fmt"

	language "github.com/hanpama/graphcypher/internal/language"
)

type Violation struct {
	Message string `json:"message"`
	File    string `json:"file,omitempty"`
	Line    int    `json:"positionStart,omitempty"`
	Column  int    `json:"positionEnd,omitempty"`
}

type ValidationError []*Violation

func (e ValidationError) Error() string {
	msg := "violations found:\n"
	for _, v := range e {
		line := "- " + v.Message
		if v.File != "" {
			line += fmt.Sprintf(" %s:%d:%d", v.File, v.Line, v.Column)
		}
		msg += line + "\n"
	}
	return msg
}

func violationWithPosition(message string, pos *language.Position) *Violation {
	v := &Violation{Message: message}
	if pos == nil {
		return v
	}
	if pos.Src != nil {
		v.File = pos.Src.Name
	}
	v.Line = pos.Line
	v.Column = pos.Column
	return v
}

// NOTE: Keep messages stable; tests match on them.

func violationDuplicateType(name string, pos *language.Position) *Violation {
	return violationWithPosition(fmt.Sprintf("Duplicate type %q", name), pos)
}

func violationDuplicateField(fieldName, typeName string, pos *language.Position) *Violation {
	return violationWithPosition(
		fmt.Sprintf("Duplicate field %q found in type %q", fieldName, typeName),
		pos,
	)
}

func violationUnknownType(name, where string, pos *language.Position) *Violation {
	return violationWithPosition(fmt.Sprintf("Unknown type %q referenced by %s", name, where), pos)
}

func violationExtensionWithoutBase(name string, pos *language.Position) *Violation {
	return violationWithPosition(fmt.Sprintf("Cannot extend undefined type %q", name), pos)
}

func violationMissingDirectiveArgument(directive, arg, fieldName, typeName string, pos *language.Position) *Violation {
	return violationWithPosition(
		fmt.Sprintf("Missing required argument '%s' in @%s directive on %s.%s", arg, directive, typeName, fieldName),
		pos,
	)
}

func violationInvalidRelationDirection(direction, fieldName, typeName string, pos *language.Position) *Violation {
	return violationWithPosition(
		fmt.Sprintf("Invalid @relation direction %q on %s.%s (expected IN or OUT)", direction, typeName, fieldName),
		pos,
	)
}

func violationRelationOnLeaf(fieldName, typeName string, pos *language.Position) *Violation {
	return violationWithPosition(
		fmt.Sprintf("@relation on %s.%s requires an object or list of objects", typeName, fieldName),
		pos,
	)
}
