package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/goccy/go-json"
	"github.com/lmittmann/tint"

	config "github.com/hanpama/graphcypher/internal/config"
	cypher "github.com/hanpama/graphcypher/internal/cypher"
	eventbus "github.com/hanpama/graphcypher/internal/eventbus"
	executor "github.com/hanpama/graphcypher/internal/executor"
	graphdb "github.com/hanpama/graphcypher/internal/graphdb"
	introspection "github.com/hanpama/graphcypher/internal/introspection"
	language "github.com/hanpama/graphcypher/internal/language"
	neo4jrt "github.com/hanpama/graphcypher/internal/neo4jrt"
	otel "github.com/hanpama/graphcypher/internal/otel"
	schema "github.com/hanpama/graphcypher/internal/schema"
	server "github.com/hanpama/graphcypher/internal/server"
)

const rootUsage = `graphcypher - GraphQL over Neo4j through generated Cypher

USAGE:
  graphcypher <command> [flags]

COMMANDS:
  serve            Run the HTTP GraphQL endpoint backed by Neo4j
  translate        Print the Cypher generated for a GraphQL document
  compile-sdl      Merge & validate GraphQL SDL into a single schema
  help             Show help for any command
`

const serveUsage = `serve FLAGS:
  -config <file>                      YAML configuration; flags override it
  -schema <file>                      GraphQL SDL file. Repeatable
  -graphql.introspection <bool>       Enable GraphQL introspection (default: true)
  -graphql.max-depth N                Deepest selection translated (default: 64)
  -graphql.concurrency N              Concurrent root query statements, 0 = unbounded
  -server.addr <addr>                 HTTP listen address (default: :8080)
  -server.pretty                      Pretty-print JSON responses
  -server.timeout <duration>          Per-request timeout, e.g. 10s (default: 10s)
  -server.max-body-bytes N            Request body limit, 0 = unlimited
  -server.cors-origin <origin>        Allowed CORS origin. Repeatable
  -server.metadata-header <name>      Forward HTTP header as transaction metadata. Repeatable
  -server.graphiql <bool>             Serve GraphiQL to browsers (default: true)
  -neo4j.uri <uri>                    Bolt or neo4j URI (default: bolt://localhost:7687)
  -neo4j.user <name>                  Username (default: neo4j)
  -neo4j.database <name>              Database name (default: server default)
                                      The password is read from NEO4J_PASSWORD
                                      unless the config file sets it.
  -otel.endpoint <addr>               OTLP collector endpoint
  -otel.service <name>                OpenTelemetry service name (default: graphcypher)
  -log.level <level>                  debug, info, warn or error (default: info)
`

const translateUsage = `translate FLAGS:
  -schema <file>           GraphQL SDL file. Repeatable; at least one required
  -query <file>            GraphQL document (default: stdin)
  -operation <name>        Operation to translate when the document has several
  -variables <json>        Operation variables as a JSON object
`

const compileSDLUsage = `compile-sdl FLAGS:
  -schema <file>           GraphQL SDL file. Repeatable; at least one required
  -out  <file>             Write compiled SDL to file (default: stdout)
  (Validation always runs; exits non-zero on errors)
`

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "graphcypher:", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(stderr, rootUsage)
		return fmt.Errorf("missing command")
	}

	cmd := args[0]
	cmdArgs := args[1:]
	switch cmd {
	case "serve":
		return cmdServe(cmdArgs, stderr)
	case "translate":
		return cmdTranslate(cmdArgs, stdin, stdout, stderr)
	case "compile-sdl":
		return cmdCompileSDL(cmdArgs, stdout, stderr)
	case "help":
		return cmdHelp(cmdArgs, stdout)
	default:
		fmt.Fprint(stderr, rootUsage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func cmdHelp(args []string, stdout io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(stdout, rootUsage)
		return nil
	}
	switch args[0] {
	case "serve":
		fmt.Fprint(stdout, serveUsage)
	case "translate":
		fmt.Fprint(stdout, translateUsage)
	case "compile-sdl":
		fmt.Fprint(stdout, compileSDLUsage)
	default:
		return fmt.Errorf("unknown help topic %q", args[0])
	}
	return nil
}

// stringListFlag collects repeated values. The first Set replaces whatever
// the list held before, so flags override lists from the config file.
type stringListFlag struct {
	list *[]string
	set  bool
}

func (s *stringListFlag) String() string {
	if s.list == nil {
		return ""
	}
	return strings.Join(*s.list, ",")
}

func (s *stringListFlag) Set(v string) error {
	if !s.set {
		*s.list = nil
		s.set = true
	}
	*s.list = append(*s.list, v)
	return nil
}

// serveFlags binds the serve flags to cfg.
func serveFlags(cfg *config.Config, configPath *string) *flag.FlagSet {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(new(bytes.Buffer))
	fs.StringVar(configPath, "config", *configPath, "YAML configuration file")
	fs.Var(&stringListFlag{list: &cfg.Schema}, "schema", "GraphQL SDL file")
	fs.BoolVar(&cfg.GraphQL.Introspection, "graphql.introspection", cfg.GraphQL.Introspection, "Enable GraphQL introspection")
	fs.IntVar(&cfg.GraphQL.MaxDepth, "graphql.max-depth", cfg.GraphQL.MaxDepth, "Deepest selection translated")
	fs.IntVar(&cfg.GraphQL.Concurrency, "graphql.concurrency", cfg.GraphQL.Concurrency, "Concurrent root query statements")
	fs.StringVar(&cfg.Server.Addr, "server.addr", cfg.Server.Addr, "HTTP listen address")
	fs.BoolVar(&cfg.Server.Pretty, "server.pretty", cfg.Server.Pretty, "Pretty-print JSON responses")
	fs.DurationVar(&cfg.Server.Timeout, "server.timeout", cfg.Server.Timeout, "Per-request timeout")
	fs.Int64Var(&cfg.Server.MaxBodyBytes, "server.max-body-bytes", cfg.Server.MaxBodyBytes, "Request body limit")
	fs.Var(&stringListFlag{list: &cfg.Server.CORSOrigins}, "server.cors-origin", "Allowed CORS origin")
	fs.Var(&stringListFlag{list: &cfg.Server.MetadataHeaders}, "server.metadata-header", "Forward HTTP header as transaction metadata")
	fs.BoolVar(&cfg.Server.GraphiQL, "server.graphiql", cfg.Server.GraphiQL, "Serve GraphiQL")
	fs.StringVar(&cfg.Neo4j.URI, "neo4j.uri", cfg.Neo4j.URI, "Neo4j URI")
	fs.StringVar(&cfg.Neo4j.Username, "neo4j.user", cfg.Neo4j.Username, "Neo4j username")
	fs.StringVar(&cfg.Neo4j.Database, "neo4j.database", cfg.Neo4j.Database, "Neo4j database")
	fs.StringVar(&cfg.Telemetry.Endpoint, "otel.endpoint", cfg.Telemetry.Endpoint, "OTLP collector endpoint")
	fs.StringVar(&cfg.Telemetry.Service, "otel.service", cfg.Telemetry.Service, "OpenTelemetry service name")
	fs.StringVar(&cfg.Log.Level, "log.level", cfg.Log.Level, "Log level")
	return fs
}

// loadServeConfig resolves the serve configuration: defaults, then the
// config file, then explicitly set flags, then NEO4J_PASSWORD.
func loadServeConfig(args []string) (config.Config, error) {
	cfg := config.Default()
	configPath := ""
	if err := serveFlags(&cfg, &configPath).Parse(args); err != nil {
		return cfg, err
	}
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
		if err := serveFlags(&cfg, &configPath).Parse(args); err != nil {
			return cfg, err
		}
	}
	if cfg.Neo4j.Password == "" {
		cfg.Neo4j.Password = os.Getenv("NEO4J_PASSWORD")
	}
	if len(cfg.Schema) == 0 {
		return cfg, fmt.Errorf("at least one -schema file is required")
	}
	return cfg, nil
}

func newLogger(w io.Writer, level string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q", level)
	}
	return slog.New(tint.NewHandler(w, &tint.Options{Level: lvl, TimeFormat: time.TimeOnly})), nil
}

func cmdServe(args []string, stderr io.Writer) error {
	cfg, err := loadServeConfig(args)
	if err != nil {
		fmt.Fprint(stderr, serveUsage)
		return err
	}
	logger, err := newLogger(stderr, cfg.Log.Level)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	sch, err := schema.Load(cfg.Schema...)
	if err != nil {
		return fmt.Errorf("build schema: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	eventbus.Use(eventbus.New())
	shutdown, err := otel.Setup(cfg.Telemetry.Endpoint, cfg.Telemetry.Service)
	if err != nil {
		return fmt.Errorf("otel setup: %w", err)
	}
	defer func() { _ = shutdown(context.Background()) }()

	db, err := graphdb.Open(ctx, graphdb.Config{
		URI:      cfg.Neo4j.URI,
		Username: cfg.Neo4j.Username,
		Password: cfg.Neo4j.Password,
		Database: cfg.Neo4j.Database,
	})
	if err != nil {
		return err
	}
	defer func() { _ = db.Close(context.Background()) }()

	var runtime executor.Runtime = neo4jrt.New(sch, db,
		neo4jrt.WithLogger(logger),
		neo4jrt.WithMaxDepth(cfg.GraphQL.MaxDepth),
		neo4jrt.WithConcurrency(cfg.GraphQL.Concurrency),
	)
	execSchema := sch
	if cfg.GraphQL.Introspection {
		runtime, execSchema = introspection.Wrap(runtime, sch)
	}

	sopts := []server.Option{
		server.WithLogger(logger),
		server.WithTimeout(cfg.Server.Timeout),
		server.WithMaxBodyBytes(cfg.Server.MaxBodyBytes),
		server.WithGraphiQL(cfg.Server.GraphiQL),
	}
	if cfg.Server.Pretty {
		sopts = append(sopts, server.WithPretty())
	}
	if len(cfg.Server.CORSOrigins) > 0 {
		sopts = append(sopts, server.WithCORS(cfg.Server.CORSOrigins...))
	}
	if len(cfg.Server.MetadataHeaders) > 0 {
		sopts = append(sopts, server.WithMetadataHeaders(cfg.Server.MetadataHeaders...))
	}
	h, err := server.New(runtime, execSchema, sopts...)
	if err != nil {
		return fmt.Errorf("server init: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/graphql", h)
	srv := &http.Server{Addr: cfg.Server.Addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	logger.Info("GraphQL server listening", "addr", cfg.Server.Addr, "neo4j", cfg.Neo4j.URI)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	logger.Info("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type translation struct {
	Field  string         `json:"field"`
	Query  string         `json:"query"`
	Params map[string]any `json:"params"`
}

func cmdTranslate(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	var schemas []string
	queryFile := ""
	operation := ""
	rawVars := ""
	fs := flag.NewFlagSet("translate", flag.ContinueOnError)
	fs.SetOutput(new(bytes.Buffer))
	fs.Var(&stringListFlag{list: &schemas}, "schema", "GraphQL SDL file")
	fs.StringVar(&queryFile, "query", queryFile, "GraphQL document")
	fs.StringVar(&operation, "operation", operation, "Operation name")
	fs.StringVar(&rawVars, "variables", rawVars, "Variables JSON")
	if err := fs.Parse(args); err != nil {
		fmt.Fprint(stderr, translateUsage)
		return err
	}
	if len(schemas) == 0 {
		fmt.Fprint(stderr, translateUsage)
		return fmt.Errorf("-schema is required")
	}

	sch, err := schema.Load(schemas...)
	if err != nil {
		return fmt.Errorf("build schema: %w", err)
	}
	var src []byte
	if queryFile == "" {
		src, err = io.ReadAll(stdin)
	} else {
		src, err = os.ReadFile(queryFile)
	}
	if err != nil {
		return fmt.Errorf("read query: %w", err)
	}
	vars := map[string]any{}
	if rawVars != "" {
		if err := json.Unmarshal([]byte(rawVars), &vars); err != nil {
			return fmt.Errorf("invalid -variables: %w", err)
		}
		vars = integral(vars).(map[string]any)
	}

	out, err := translate(sch, string(src), operation, vars)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// translate generates one statement per root field of the chosen operation.
func translate(sch *schema.Schema, src, operation string, vars map[string]any) ([]translation, error) {
	doc, err := language.ParseQuery(src)
	if err != nil {
		return nil, err
	}
	op := doc.Operations.ForName(operation)
	if op == nil && operation == "" && len(doc.Operations) == 1 {
		op = doc.Operations[0]
	}
	if op == nil {
		return nil, fmt.Errorf("operation %q not found", operation)
	}

	tr := cypher.NewTranslator(sch)
	rootType := sch.QueryType
	translateField := tr.Query
	if op.Operation == language.Mutation {
		rootType = sch.MutationType
		translateField = tr.Mutation
	}

	var keys []string
	groups := map[string][]*language.Field{}
	for _, f := range cypher.Flatten(sch, op.SelectionSet, rootType, doc.Fragments, vars) {
		if f.Name == "__typename" {
			continue
		}
		key := f.Alias
		if key == "" {
			key = f.Name
		}
		if _, ok := groups[key]; !ok {
			keys = append(keys, key)
		}
		groups[key] = append(groups[key], f)
	}

	out := make([]translation, 0, len(keys))
	for _, key := range keys {
		nodes := groups[key]
		stmt, err := translateField(cypher.Request{
			Field:     nodes[0].Name,
			Nodes:     nodes,
			Variables: vars,
			Fragments: doc.Fragments,
		})
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		out = append(out, translation{Field: key, Query: stmt.Query, Params: stmt.Params})
	}
	return out, nil
}

// integral turns whole JSON numbers into int64 so they print as Cypher integers.
func integral(v any) any {
	switch x := v.(type) {
	case float64:
		if x == float64(int64(x)) {
			return int64(x)
		}
		return x
	case map[string]any:
		for k, item := range x {
			x[k] = integral(item)
		}
		return x
	case []any:
		for i, item := range x {
			x[i] = integral(item)
		}
		return x
	default:
		return v
	}
}

func cmdCompileSDL(args []string, stdout, stderr io.Writer) error {
	var schemas []string
	outFile := ""
	fs := flag.NewFlagSet("compile-sdl", flag.ContinueOnError)
	fs.SetOutput(new(bytes.Buffer))
	fs.Var(&stringListFlag{list: &schemas}, "schema", "GraphQL SDL file")
	fs.StringVar(&outFile, "out", outFile, "Write compiled SDL to file")
	if err := fs.Parse(args); err != nil {
		fmt.Fprint(stderr, compileSDLUsage)
		return err
	}
	if len(schemas) == 0 {
		fmt.Fprint(stderr, compileSDLUsage)
		return fmt.Errorf("-schema is required")
	}

	sch, err := schema.Load(schemas...)
	if err != nil {
		return fmt.Errorf("build schema: %w", err)
	}
	sdl := schema.Render(sch)
	if outFile == "" {
		_, err := fmt.Fprint(stdout, sdl)
		return err
	}
	return os.WriteFile(outFile, []byte(sdl), 0644)
}
