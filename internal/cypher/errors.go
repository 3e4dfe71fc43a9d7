package cypher

import "errors"

var (
	// ErrUnresolvedDirective indicates a directive required by the field's
	// translation shape is missing, e.g. @MutationMeta on an add mutation.
	ErrUnresolvedDirective = errors.New("cypher: unresolved directive")
	// ErrNamingConventionViolation indicates a mutation field without @cypher
	// whose name starts with neither "create" nor "add".
	ErrNamingConventionViolation = errors.New("cypher: mutation does not follow naming conventions")
	// ErrAmbiguousFieldSelection indicates two selections of the same field
	// with different arguments at one level.
	ErrAmbiguousFieldSelection = errors.New("cypher: ambiguous field selection")
	// ErrUnsupportedLiteral indicates an argument value with no Cypher literal form.
	ErrUnsupportedLiteral = errors.New("cypher: unsupported literal")
	// ErrMaxDepthExceeded indicates a selection tree deeper than the translator allows.
	ErrMaxDepthExceeded = errors.New("cypher: maximum selection depth exceeded")
	// ErrMissingArguments indicates an add mutation without both identifying
	// arguments, either undeclared or absent from the request.
	ErrMissingArguments = errors.New("cypher: missing arguments")
	// ErrUnknownField indicates a root field that is not declared on the root type.
	ErrUnknownField = errors.New("cypher: unknown field")
)
