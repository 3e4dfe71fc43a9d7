package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/cors"

	eventbus "github.com/hanpama/graphcypher/internal/eventbus"
	events "github.com/hanpama/graphcypher/internal/events"
	executor "github.com/hanpama/graphcypher/internal/executor"
	graphdb "github.com/hanpama/graphcypher/internal/graphdb"
	language "github.com/hanpama/graphcypher/internal/language"
	reqid "github.com/hanpama/graphcypher/internal/reqid"
	schema "github.com/hanpama/graphcypher/internal/schema"
)

// Handler serves one GraphQL endpoint. Every request gets a request id that
// is attached to the Neo4j transactions it opens, together with the
// configured forwarded headers.
type Handler struct {
	exec *executor.Executor
	cfg  config
	next http.Handler
}

type config struct {
	timeout         time.Duration
	pretty          bool
	maxBodyBytes    int64
	origins         []string
	metadataHeaders []string
	graphiql        bool
	logger          *slog.Logger
}

type Option func(*config)

// WithTimeout bounds requests whose context carries no deadline. 0 disables it.
func WithTimeout(d time.Duration) Option { return func(c *config) { c.timeout = d } }

func WithPretty() Option { return func(c *config) { c.pretty = true } }

// WithMaxBodyBytes rejects larger POST bodies with 413. 0 means unlimited.
func WithMaxBodyBytes(n int64) Option { return func(c *config) { c.maxBodyBytes = n } }

// WithCORS allows cross-origin requests from origins; "*" allows any.
func WithCORS(origins ...string) Option { return func(c *config) { c.origins = origins } }

// WithMetadataHeaders forwards the named request headers, lower-cased, as
// transaction metadata.
func WithMetadataHeaders(headers ...string) Option {
	return func(c *config) { c.metadataHeaders = headers }
}

func WithGraphiQL(enable bool) Option { return func(c *config) { c.graphiql = enable } }

func WithLogger(l *slog.Logger) Option { return func(c *config) { c.logger = l } }

func New(runtime executor.Runtime, sch *schema.Schema, opts ...Option) (*Handler, error) {
	cfg := config{timeout: 10 * time.Second, graphiql: true}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}
	if cfg.maxBodyBytes < 0 {
		return nil, errors.New("server: negative body limit")
	}
	h := &Handler{exec: executor.NewExecutor(runtime, sch), cfg: cfg}
	h.next = http.HandlerFunc(h.serveGraphQL)
	if len(cfg.origins) > 0 {
		h.next = cors.New(cors.Options{
			AllowedOrigins: cfg.origins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost},
			AllowedHeaders: []string{"*"},
		}).Handler(h.next)
	}
	return h, nil
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if _, ok := ctx.Deadline(); !ok && h.cfg.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.cfg.timeout)
		defer cancel()
	}
	ctx, id := reqid.NewContext(ctx)
	ctx = graphdb.WithMetadata(ctx, h.metadata(r, id))

	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	start := time.Now()
	eventbus.Publish(ctx, events.HTTPStart{Request: r})
	defer func() {
		eventbus.Publish(ctx, events.HTTPFinish{Request: r, Status: rec.status, Duration: time.Since(start)})
	}()

	h.next.ServeHTTP(rec, r.WithContext(ctx))
}

func (h *Handler) serveGraphQL(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if r.Method == http.MethodGet && h.cfg.graphiql && r.URL.Query().Get("query") == "" && acceptsHTML(r.Header.Get("Accept")) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(graphiqlPage)
		return
	}

	reqs, batched, err := decodeRequests(w, r, h.cfg.maxBodyBytes)
	if err != nil {
		h.writeJSON(w, err.status, &executor.ExecutionResult{Errors: []executor.GraphQLError{{Message: err.message}}})
		return
	}
	results := make([]*executor.ExecutionResult, len(reqs))
	for i, req := range reqs {
		results[i] = h.execute(r.Context(), req)
	}
	if batched {
		h.writeJSON(w, http.StatusOK, results)
		return
	}
	h.writeJSON(w, http.StatusOK, results[0])
}

// metadata is attached to every transaction the request opens.
func (h *Handler) metadata(r *http.Request, id int64) map[string]any {
	md := map[string]any{"graphql-request-id": strconv.FormatInt(id, 10)}
	for _, name := range h.cfg.metadataHeaders {
		if values := r.Header.Values(name); len(values) > 0 {
			md[strings.ToLower(name)] = strings.Join(values, ", ")
		}
	}
	return md
}

func (h *Handler) execute(ctx context.Context, req GraphQLRequest) *executor.ExecutionResult {
	doc, err := language.ParseQuery(req.Query)
	if err != nil {
		msg := err.Error()
		var gerr *language.Error
		if errors.As(err, &gerr) {
			msg = gerr.Message
		}
		h.cfg.logger.LogAttrs(ctx, slog.LevelWarn, "graphql parse failed",
			slog.String("operation", req.OperationName),
			slog.String("error", msg),
		)
		return &executor.ExecutionResult{Errors: []executor.GraphQLError{{Message: msg}}}
	}

	var opType string
	if op := doc.Operations.ForName(req.OperationName); op != nil {
		opType = string(op.Operation)
	} else if len(doc.Operations) == 1 {
		opType = string(doc.Operations[0].Operation)
	}

	start := time.Now()
	eventbus.Publish(ctx, events.GraphQLStart{Query: req.Query, OperationName: req.OperationName, OperationType: opType})
	res := h.exec.ExecuteRequest(ctx, doc, req.OperationName, req.Variables, nil)
	elapsed := time.Since(start)

	errs := make([]error, len(res.Errors))
	for i, e := range res.Errors {
		errs[i] = e
	}
	eventbus.Publish(ctx, events.GraphQLFinish{
		Query:         req.Query,
		OperationName: req.OperationName,
		OperationType: opType,
		Errors:        errs,
		Duration:      elapsed,
	})
	h.cfg.logger.LogAttrs(ctx, slog.LevelInfo, "graphql operation",
		slog.String("operation", req.OperationName),
		slog.String("type", opType),
		slog.Int("errors", len(res.Errors)),
		slog.Duration("duration", elapsed),
	)
	return res
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	if h.cfg.pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(v); err != nil {
		h.cfg.logger.Warn("write response", slog.Any("error", err))
	}
}

// statusRecorder keeps the status code for the finish event.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}
