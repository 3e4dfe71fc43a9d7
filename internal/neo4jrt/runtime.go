// Package neo4jrt implements the executor runtime on top of the Cypher
// translator: every root field becomes one statement run against Neo4j, and
// nested fields are read back from the records it returned.
package neo4jrt

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	cypher "github.com/hanpama/graphcypher/internal/cypher"
	executor "github.com/hanpama/graphcypher/internal/executor"
	graphdb "github.com/hanpama/graphcypher/internal/graphdb"
	language "github.com/hanpama/graphcypher/internal/language"
	schema "github.com/hanpama/graphcypher/internal/schema"
)

// Runtime resolves root fields with generated Cypher.
type Runtime struct {
	schema     *schema.Schema
	translator *cypher.Translator
	session    graphdb.Session
	logger     *slog.Logger
	limit      int
}

var _ executor.Runtime = (*Runtime)(nil)

type config struct {
	logger      *slog.Logger
	translation []cypher.Option
	limit       int
}

type Option func(*config)

// WithLogger sets the logger generated statements are written to at debug level.
func WithLogger(l *slog.Logger) Option { return func(c *config) { c.logger = l } }

// WithMaxDepth bounds the selection depth a statement may be generated for.
func WithMaxDepth(n int) Option {
	return func(c *config) { c.translation = append(c.translation, cypher.WithMaxDepth(n)) }
}

// WithConcurrency caps how many query statements of one batch run at once.
// 0 means unbounded.
func WithConcurrency(n int) Option { return func(c *config) { c.limit = n } }

func New(s *schema.Schema, session graphdb.Session, opts ...Option) *Runtime {
	cfg := config{logger: slog.Default()}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Runtime{
		schema:     s,
		translator: cypher.NewTranslator(s, cfg.translation...),
		session:    session,
		logger:     cfg.logger,
		limit:      cfg.limit,
	}
}

// BatchResolveAsync runs one statement per task. Mutation fields run one
// after another in selection order; query fields run concurrently.
func (r *Runtime) BatchResolveAsync(ctx context.Context, tasks []executor.AsyncResolveTask) []executor.AsyncResolveResult {
	results := make([]executor.AsyncResolveResult, len(tasks))

	var g errgroup.Group
	if r.limit > 0 {
		g.SetLimit(r.limit)
	}
	for i, task := range tasks {
		if task.Operation == language.Mutation {
			v, err := r.resolve(ctx, task)
			results[i] = executor.AsyncResolveResult{Value: v, Error: err}
			continue
		}
		g.Go(func() error {
			v, err := r.resolve(ctx, task)
			results[i] = executor.AsyncResolveResult{Value: v, Error: err}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (r *Runtime) resolve(ctx context.Context, task executor.AsyncResolveTask) (any, error) {
	req := cypher.Request{
		Field:     task.Field,
		Nodes:     task.Fields,
		Args:      task.Args,
		Variables: task.Variables,
		Fragments: task.Fragments,
	}

	var (
		stmt *cypher.Statement
		err  error
		mode = graphdb.Read
	)
	if task.Operation == language.Mutation {
		stmt, err = r.translator.Mutation(req)
		mode = graphdb.Write
	} else {
		stmt, err = r.translator.Query(req)
	}
	if err != nil {
		return nil, err
	}

	r.logger.DebugContext(ctx, "cypher statement",
		slog.String("field", task.ObjectType+"."+task.Field),
		slog.String("query", stmt.Query),
		slog.Any("params", stmt.Params),
	)

	records, err := r.session.Run(ctx, stmt.Query, bindParams(stmt.Params), mode)
	if err != nil {
		return nil, fmt.Errorf("%s.%s: %w", task.ObjectType, task.Field, err)
	}
	return cypher.Materialize(r.schema, stmt, records), nil
}

// ResolveSync reads a nested field from the projected map of its parent.
func (r *Runtime) ResolveSync(ctx context.Context, objectType string, field string, source any, args map[string]any) (any, error) {
	switch src := source.(type) {
	case nil:
		return nil, nil
	case map[string]any:
		return src[field], nil
	default:
		return nil, fmt.Errorf("%s.%s: unexpected source %T", objectType, field, source)
	}
}

// ResolveType picks the concrete type from a __typename key, falling back to
// the only possible type of abstractType.
func (r *Runtime) ResolveType(ctx context.Context, abstractType string, value any) (string, error) {
	if m, ok := value.(map[string]any); ok {
		if name, ok := m["__typename"].(string); ok && name != "" {
			return name, nil
		}
	}
	possible := r.schema.PossibleObjects(abstractType)
	if len(possible) == 1 {
		return possible[0], nil
	}
	return "", fmt.Errorf("cannot resolve concrete type of %s among %v", abstractType, possible)
}

// SerializeLeafValue converts database values to their GraphQL wire form.
func (r *Runtime) SerializeLeafValue(ctx context.Context, typeName string, value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	switch typeName {
	case "Int":
		return serializeInt(value)
	case "Float":
		return serializeFloat(value)
	case "String":
		return serializeString(value), nil
	case "ID":
		return serializeString(value), nil
	case "Boolean":
		if b, ok := value.(bool); ok {
			return b, nil
		}
		return nil, fmt.Errorf("Boolean cannot represent %T", value)
	case "Date":
		if t, ok := value.(time.Time); ok {
			return t.Format(time.DateOnly), nil
		}
	case "LocalDateTime":
		if t, ok := value.(time.Time); ok {
			return t.Format("2006-01-02T15:04:05.999999999"), nil
		}
	}
	if t, ok := value.(time.Time); ok {
		return t.Format(time.RFC3339Nano), nil
	}
	if r.schema.Types[typeName] != nil && r.schema.Types[typeName].Kind == schema.TypeKindEnum {
		return serializeString(value), nil
	}
	return value, nil
}

func serializeInt(v any) (any, error) {
	switch x := v.(type) {
	case int:
		return int64(x), nil
	case int32:
		return int64(x), nil
	case int64:
		return x, nil
	case float64:
		if x == math.Trunc(x) && !math.IsInf(x, 0) {
			return int64(x), nil
		}
	case string:
		if n, err := strconv.ParseInt(x, 10, 64); err == nil {
			return n, nil
		}
	}
	return nil, fmt.Errorf("Int cannot represent %v", v)
}

func serializeFloat(v any) (any, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int:
		return float64(x), nil
	case int32:
		return float64(x), nil
	case int64:
		return float64(x), nil
	}
	return nil, fmt.Errorf("Float cannot represent %v", v)
}

func serializeString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case int:
		return strconv.Itoa(x)
	case time.Time:
		return x.Format(time.RFC3339Nano)
	default:
		return fmt.Sprint(v)
	}
}

// bindParams copies params for the driver, dropping null map entries and
// null list items at every level.
func bindParams(params map[string]any) map[string]any {
	out := make(map[string]any, len(params))
	for k, v := range params {
		if v == nil {
			continue
		}
		out[k] = bindValue(v)
	}
	return out
}

func bindValue(v any) any {
	switch x := v.(type) {
	case map[string]any:
		return bindParams(x)
	case []any:
		out := make([]any, 0, len(x))
		for _, item := range x {
			if item != nil {
				out = append(out, bindValue(item))
			}
		}
		return out
	default:
		return v
	}
}
