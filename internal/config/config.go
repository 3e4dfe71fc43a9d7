// Package config loads the YAML file the serve command can start from.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Schema    []string  `yaml:"schema"`
	Server    Server    `yaml:"server"`
	Neo4j     Neo4j     `yaml:"neo4j"`
	GraphQL   GraphQL   `yaml:"graphql"`
	Telemetry Telemetry `yaml:"telemetry"`
	Log       Log       `yaml:"log"`
}

type Server struct {
	Addr            string        `yaml:"addr"`
	Pretty          bool          `yaml:"pretty"`
	Timeout         time.Duration `yaml:"timeout"`
	MaxBodyBytes    int64         `yaml:"maxBodyBytes"`
	CORSOrigins     []string      `yaml:"corsOrigins"`
	MetadataHeaders []string      `yaml:"metadataHeaders"`
	GraphiQL        bool          `yaml:"graphiql"`
}

type Neo4j struct {
	URI      string `yaml:"uri"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

type GraphQL struct {
	Introspection bool `yaml:"introspection"`
	MaxDepth      int  `yaml:"maxDepth"`
	Concurrency   int  `yaml:"concurrency"`
}

type Telemetry struct {
	Endpoint string `yaml:"endpoint"`
	Service  string `yaml:"service"`
}

type Log struct {
	Level string `yaml:"level"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Server: Server{
			Addr:     ":8080",
			Timeout:  10 * time.Second,
			GraphiQL: true,
		},
		Neo4j: Neo4j{
			URI:      "bolt://localhost:7687",
			Username: "neo4j",
		},
		GraphQL: GraphQL{
			Introspection: true,
			MaxDepth:      64,
		},
		Telemetry: Telemetry{Service: "graphcypher"},
		Log:       Log{Level: "info"},
	}
}

// Load reads path over Default. Unknown keys are an error.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML over Default.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, err
	}
	return cfg, nil
}
