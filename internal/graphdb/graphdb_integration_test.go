package graphdb

import (
	"context"
	"os"
	"testing"
	"time"

	eventbus "github.com/hanpama/graphcypher/internal/eventbus"
	events "github.com/hanpama/graphcypher/internal/events"
	"github.com/stretchr/testify/require"
)

// openTestDB connects to the server named by NEO4J_TEST_URI or skips.
func openTestDB(t *testing.T) *Neo4j {
	t.Helper()
	uri := os.Getenv("NEO4J_TEST_URI")
	if uri == "" {
		t.Skip("NEO4J_TEST_URI not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	db, err := Open(ctx, Config{
		URI:      uri,
		Username: os.Getenv("NEO4J_TEST_USER"),
		Password: os.Getenv("NEO4J_TEST_PASSWORD"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close(context.Background()) })
	return db
}

func TestNeo4jRun(t *testing.T) {
	db := openTestDB(t)

	eventbus.Use(eventbus.New())
	t.Cleanup(func() { eventbus.Use(nil) })
	var finished []events.CypherFinish
	eventbus.Subscribe(func(_ context.Context, e events.CypherFinish) { finished = append(finished, e) })

	ctx := WithMetadata(context.Background(), map[string]any{"app": "graphcypher-test"})
	recs, err := db.Run(ctx, "UNWIND $xs AS x RETURN x", map[string]any{"xs": []any{1, 2, 3}}, Read)
	require.NoError(t, err)
	require.Equal(t, []map[string]any{{"x": int64(1)}, {"x": int64(2)}, {"x": int64(3)}}, recs)

	require.Len(t, finished, 1)
	require.Equal(t, 3, finished[0].Records)
	require.NoError(t, finished[0].Err)
}
