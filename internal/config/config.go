// Package config provides hierarchical configuration loading for reportflow.
// Precedence: defaults < YAML file < environment variables.
package config

import "time"

// Config holds all runtime configuration for the reportflow service.
type Config struct {
	Server     Server     `yaml:"server"`
	Provider   Provider   `yaml:"provider"`
	Workflow   Workflow   `yaml:"workflow"`
	Checkpoint Checkpoint `yaml:"checkpoint"`
	Analytics  Analytics  `yaml:"analytics"`
	Graph      Graph      `yaml:"graph"`
	Logging    Logging    `yaml:"logging"`
}

// Server holds HTTP server configuration.
type Server struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Provider selects the LLM gateway backing the reasoning nodes.
type Provider struct {
	// Name is one of "anthropic", "openai", "google", or "none".
	// "none" runs every node on its deterministic fallback.
	Name string `yaml:"name"`
	// Model overrides the provider's default model when non-empty.
	Model string `yaml:"model"`
	// APIKey is normally supplied via the provider's standard env var.
	APIKey string `yaml:"api_key"`
}

// Workflow holds execution limits for a single report run.
type Workflow struct {
	MaxIterations int           `yaml:"max_iterations"`
	MaxSteps      int           `yaml:"max_steps"`
	NodeTimeout   time.Duration `yaml:"node_timeout"`
	SessionTTL    time.Duration `yaml:"session_ttl"`
}

// Checkpoint selects the state store backing workflow runs.
type Checkpoint struct {
	// Backend is one of "memory", "sqlite", or "mysql".
	Backend string `yaml:"backend"`
	// Path is the database file for the sqlite backend.
	Path string `yaml:"path"`
	// DSN is the connection string for the mysql backend.
	DSN string `yaml:"dsn"`
}

// Analytics holds the sales database connection for the analytics collectors.
type Analytics struct {
	// Driver is one of "sqlite" or "mysql".
	Driver     string `yaml:"driver"`
	DSN        string `yaml:"dsn"`
	WindowDays int    `yaml:"window_days"`
}

// Graph holds the knowledge-graph endpoint for the graph collector.
type Graph struct {
	Endpoint string        `yaml:"endpoint"`
	Timeout  time.Duration `yaml:"timeout"`
}

// Logging holds structured logging configuration.
type Logging struct {
	Level string `yaml:"level"`
	// Format is "text" or "json".
	Format string `yaml:"format"`
}

// Defaults returns a Config with sensible default values for local development.
func Defaults() Config {
	return Config{
		Server: Server{
			Addr:            ":8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    5 * time.Minute,
			ShutdownTimeout: 10 * time.Second,
		},
		Provider: Provider{
			Name: "anthropic",
		},
		Workflow: Workflow{
			MaxIterations: 2,
			MaxSteps:      64,
			NodeTimeout:   60 * time.Second,
			SessionTTL:    30 * time.Minute,
		},
		Checkpoint: Checkpoint{
			Backend: "sqlite",
			Path:    "reportflow.db",
		},
		Analytics: Analytics{
			Driver:     "sqlite",
			DSN:        "sales.db",
			WindowDays: 30,
		},
		Graph: Graph{
			Endpoint: "http://localhost:7474/query",
			Timeout:  10 * time.Second,
		},
		Logging: Logging{
			Level:  "info",
			Format: "text",
		},
	}
}
