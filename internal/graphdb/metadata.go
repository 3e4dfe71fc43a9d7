package graphdb

import (
	"context"
	"maps"
)

type metadataKey struct{}

// WithMetadata returns a copy of ctx whose statements carry md as transaction
// metadata. Entries merge over metadata already present in ctx.
func WithMetadata(ctx context.Context, md map[string]any) context.Context {
	merged := maps.Clone(MetadataFromContext(ctx))
	if merged == nil {
		merged = make(map[string]any, len(md))
	}
	maps.Copy(merged, md)
	return context.WithValue(ctx, metadataKey{}, merged)
}

// MetadataFromContext returns the transaction metadata attached to ctx, or nil.
func MetadataFromContext(ctx context.Context) map[string]any {
	md, _ := ctx.Value(metadataKey{}).(map[string]any)
	return md
}
