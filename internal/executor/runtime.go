package executor

import (
	"context"

	language "github.com/hanpama/graphcypher/internal/language"
)

// Runtime answers the fields an Executor cannot read from projected maps.
//
// BatchResolveAsync receives every async root field of a request in one call
// and must return one result per task, in task order. ResolveSync serves sync
// root fields and fields of non-map values. Errors become located GraphQL
// errors. Implementations must be safe for concurrent use.
type Runtime interface {
	// ResolveSync resolves a synchronous field from its parent value. Return
	// (nil, nil) to produce a GraphQL null for nullable fields.
	ResolveSync(ctx context.Context, objectType string, field string, source any, args map[string]any) (any, error)

	// BatchResolveAsync resolves the async root fields of a request. A
	// failure in one result does not affect the others.
	BatchResolveAsync(ctx context.Context, tasks []AsyncResolveTask) []AsyncResolveResult

	// ResolveType returns the concrete object type name for a value of an
	// interface or union type.
	ResolveType(ctx context.Context, abstractType string, value any) (string, error)

	// SerializeLeafValue converts a scalar or enum value to a JSON-safe Go
	// value. Enums serialize to their name.
	SerializeLeafValue(ctx context.Context, scalarOrEnumTypeName string, value any) (any, error)
}

type AsyncResolveTask struct {
	// ObjectType is the parent GraphQL object type name for the field.
	ObjectType string
	// Field is the GraphQL field name to resolve.
	Field string
	// Source is the root value passed to ExecuteRequest.
	Source any
	// Args are the field arguments, coerced to Go values per the schema.
	Args map[string]any
	// Fields are the field nodes merged under this response key.
	Fields []*language.Field
	// Fragments are the fragment definitions of the request document.
	Fragments language.FragmentDefinitionList
	// Variables are the coerced operation variables.
	Variables map[string]any
	// Operation is the kind of the executing operation.
	Operation language.Operation
}

type AsyncResolveResult struct {
	// Value is the resolved raw value prior to completion, or nil on error.
	Value any
	// Error contains a failure specific to this element; other elements in the
	// same batch are unaffected.
	Error error
}
