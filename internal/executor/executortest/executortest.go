// Package executortest provides a table-driven Runtime for tests of packages
// built on the executor.
package executortest

import (
	"context"
	"fmt"
	"slices"
	"sync"

	executor "github.com/hanpama/graphcypher/internal/executor"
)

// Runtime answers fields from fixed tables keyed by "Type.field". Fields with
// no entry resolve to null. Leaf values are returned unchanged.
type Runtime struct {
	Values map[string]any
	Errors map[string]error

	mu      sync.Mutex
	batches [][]executor.AsyncResolveTask
}

var _ executor.Runtime = (*Runtime)(nil)

func (r *Runtime) answer(objectType, field string) (any, error) {
	key := objectType + "." + field
	if err := r.Errors[key]; err != nil {
		return nil, err
	}
	return r.Values[key], nil
}

func (r *Runtime) ResolveSync(_ context.Context, objectType, field string, _ any, _ map[string]any) (any, error) {
	return r.answer(objectType, field)
}

func (r *Runtime) BatchResolveAsync(_ context.Context, tasks []executor.AsyncResolveTask) []executor.AsyncResolveResult {
	r.mu.Lock()
	r.batches = append(r.batches, slices.Clone(tasks))
	r.mu.Unlock()

	out := make([]executor.AsyncResolveResult, len(tasks))
	for i, t := range tasks {
		out[i].Value, out[i].Error = r.answer(t.ObjectType, t.Field)
	}
	return out
}

// ResolveType reads the __typename key of a map value.
func (r *Runtime) ResolveType(_ context.Context, abstractType string, value any) (string, error) {
	if m, ok := value.(map[string]any); ok {
		if name, ok := m["__typename"].(string); ok {
			return name, nil
		}
	}
	return "", fmt.Errorf("cannot resolve concrete type of %s", abstractType)
}

func (r *Runtime) SerializeLeafValue(_ context.Context, _ string, value any) (any, error) {
	return value, nil
}

// Batches returns the task lists passed to BatchResolveAsync, in call order.
func (r *Runtime) Batches() [][]executor.AsyncResolveTask {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.batches)
}
