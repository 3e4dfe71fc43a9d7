package graphdb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMetadataMerges(t *testing.T) {
	require.Nil(t, MetadataFromContext(context.Background()))

	base := WithMetadata(context.Background(), map[string]any{"a": "1", "b": "2"})
	child := WithMetadata(base, map[string]any{"b": "3"})

	require.Equal(t, map[string]any{"a": "1", "b": "2"}, MetadataFromContext(base))
	require.Equal(t, map[string]any{"a": "1", "b": "3"}, MetadataFromContext(child))
}

func TestAccessModeString(t *testing.T) {
	require.Equal(t, "read", Read.String())
	require.Equal(t, "write", Write.String())
}

func TestFuncSession(t *testing.T) {
	var s Session = Func(func(_ context.Context, q string, p map[string]any, m AccessMode) ([]map[string]any, error) {
		return []map[string]any{{"q": q, "mode": m}}, nil
	})
	recs, err := s.Run(context.Background(), "RETURN 1", nil, Write)
	require.NoError(t, err)
	require.Equal(t, []map[string]any{{"q": "RETURN 1", "mode": Write}}, recs)
}

func TestOpenRequiresURI(t *testing.T) {
	_, err := Open(context.Background(), Config{})
	require.ErrorContains(t, err, "missing URI")
}
