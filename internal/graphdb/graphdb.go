// Package graphdb runs Cypher statements against a Neo4j database and returns
// their records as plain maps.
package graphdb

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	eventbus "github.com/hanpama/graphcypher/internal/eventbus"
	events "github.com/hanpama/graphcypher/internal/events"
	reqid "github.com/hanpama/graphcypher/internal/reqid"
)

// AccessMode tells the database whether a statement writes.
type AccessMode int

const (
	Read AccessMode = iota
	Write
)

func (m AccessMode) String() string {
	if m == Write {
		return "write"
	}
	return "read"
}

// Session executes one statement in its own transaction.
type Session interface {
	Run(ctx context.Context, query string, params map[string]any, mode AccessMode) ([]map[string]any, error)
}

// Config describes how to reach the database.
type Config struct {
	URI      string
	Username string
	Password string
	Database string
	// FetchSize bounds records pulled per round trip. 0 keeps the driver default.
	FetchSize int
}

// Neo4j is a Session backed by the official driver.
type Neo4j struct {
	driver   neo4j.DriverWithContext
	database string
	fetch    int
}

// Open creates a driver for cfg and verifies that the server is reachable.
func Open(ctx context.Context, cfg Config) (*Neo4j, error) {
	if cfg.URI == "" {
		return nil, fmt.Errorf("graphdb: missing URI")
	}
	auth := neo4j.NoAuth()
	if cfg.Username != "" {
		auth = neo4j.BasicAuth(cfg.Username, cfg.Password, "")
	}
	driver, err := neo4j.NewDriverWithContext(cfg.URI, auth)
	if err != nil {
		return nil, fmt.Errorf("graphdb: create driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("graphdb: connect %s: %w", cfg.URI, err)
	}
	return &Neo4j{driver: driver, database: cfg.Database, fetch: cfg.FetchSize}, nil
}

// Close releases the driver's connections.
func (n *Neo4j) Close(ctx context.Context) error { return n.driver.Close(ctx) }

// Run executes query inside a managed transaction and collects every record.
// Metadata attached to ctx with WithMetadata travels as transaction metadata.
func (n *Neo4j) Run(ctx context.Context, query string, params map[string]any, mode AccessMode) ([]map[string]any, error) {
	id := reqid.NextID()
	start := time.Now()
	eventbus.Publish(ctx, events.CypherStart{
		ID: id, Database: n.database, Query: query, Params: params, AccessMode: mode.String(),
	})

	records, err := n.run(ctx, query, params, mode)

	eventbus.Publish(ctx, events.CypherFinish{
		ID: id, Database: n.database, Query: query, Records: len(records), Err: err, Duration: time.Since(start),
	})
	return records, err
}

func (n *Neo4j) run(ctx context.Context, query string, params map[string]any, mode AccessMode) ([]map[string]any, error) {
	cfg := neo4j.SessionConfig{DatabaseName: n.database, AccessMode: neo4j.AccessModeRead, FetchSize: n.fetch}
	if mode == Write {
		cfg.AccessMode = neo4j.AccessModeWrite
	}
	session := n.driver.NewSession(ctx, cfg)
	defer session.Close(ctx)

	work := func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, query, params)
		if err != nil {
			return nil, err
		}
		records, err := result.Collect(ctx)
		if err != nil {
			return nil, err
		}
		out := make([]map[string]any, len(records))
		for i, rec := range records {
			out[i] = rec.AsMap()
		}
		return out, nil
	}

	var txOpts []func(*neo4j.TransactionConfig)
	if md := MetadataFromContext(ctx); len(md) > 0 {
		txOpts = append(txOpts, neo4j.WithTxMetadata(md))
	}

	var (
		res any
		err error
	)
	if mode == Write {
		res, err = session.ExecuteWrite(ctx, work, txOpts...)
	} else {
		res, err = session.ExecuteRead(ctx, work, txOpts...)
	}
	if err != nil {
		return nil, err
	}
	return res.([]map[string]any), nil
}

// Func adapts a plain function to Session.
type Func func(ctx context.Context, query string, params map[string]any, mode AccessMode) ([]map[string]any, error)

func (f Func) Run(ctx context.Context, query string, params map[string]any, mode AccessMode) ([]map[string]any, error) {
	return f(ctx, query, params, mode)
}
