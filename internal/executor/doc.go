// Package executor runs GraphQL operations whose root fields are answered by
// generated statements.
//
// An operation is selected by name, or the only one when unnamed, and its
// variables are coerced before anything runs. Root fields marked
// schema.Field.Async are handed to Runtime.BatchResolveAsync together, one
// task per response key, so the runtime sees every statement of the request
// at once. Other root fields resolve through Runtime.ResolveSync.
//
// A root result is a tree of projected maps. Completing it reads each object
// field from its parent map by field name, without calling the runtime; only
// values that are not maps, like schema objects answering introspection,
// resolve through ResolveSync. Because one projected key backs every alias of
// a field, aliases of one field with different arguments under the same
// parent are reported as errors.
//
// Null propagation follows GraphQL: a null at a non-null position is reported
// once and nulls the nearest nullable enclosing position. At the root a
// failing field nulls only itself, so sibling statements keep their data.
package executor
