package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the path checked for YAML configuration.
const DefaultConfigFile = "reportflow.yaml"

// Load returns a Config using the hierarchy: defaults < YAML < ENV.
// The YAML file is optional; a missing file is not an error.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigFile)
}

// LoadFrom returns a Config loaded from the given YAML path using the
// hierarchy: defaults < YAML < ENV. The YAML file is optional.
func LoadFrom(yamlPath string) (*Config, error) {
	cfg := Defaults()

	if err := loadYAML(&cfg, yamlPath); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}

	loadEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validate: %w", err)
	}

	return &cfg, nil
}

// loadYAML reads the YAML file and unmarshals it over cfg.
// Returns nil if the file does not exist.
func loadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	return nil
}

// loadEnv overlays environment variables onto cfg.
// Only non-empty env values override the current config.
func loadEnv(cfg *Config) {
	setString(&cfg.Server.Addr, "REPORTFLOW_ADDR")
	setDuration(&cfg.Server.ReadTimeout, "REPORTFLOW_READ_TIMEOUT")
	setDuration(&cfg.Server.WriteTimeout, "REPORTFLOW_WRITE_TIMEOUT")
	setDuration(&cfg.Server.ShutdownTimeout, "REPORTFLOW_SHUTDOWN_TIMEOUT")

	setString(&cfg.Provider.Name, "REPORTFLOW_PROVIDER")
	setString(&cfg.Provider.Model, "REPORTFLOW_MODEL")
	// Provider-standard env vars win over YAML; the selected provider's key
	// is resolved in APIKeyFor.

	setInt(&cfg.Workflow.MaxIterations, "REPORTFLOW_MAX_ITERATIONS")
	setInt(&cfg.Workflow.MaxSteps, "REPORTFLOW_MAX_STEPS")
	setDuration(&cfg.Workflow.NodeTimeout, "REPORTFLOW_NODE_TIMEOUT")
	setDuration(&cfg.Workflow.SessionTTL, "REPORTFLOW_SESSION_TTL")

	setString(&cfg.Checkpoint.Backend, "REPORTFLOW_CHECKPOINT_BACKEND")
	setString(&cfg.Checkpoint.Path, "REPORTFLOW_CHECKPOINT_PATH")
	setString(&cfg.Checkpoint.DSN, "REPORTFLOW_CHECKPOINT_DSN")

	setString(&cfg.Analytics.Driver, "REPORTFLOW_ANALYTICS_DRIVER")
	setString(&cfg.Analytics.DSN, "DATABASE_URL")
	setInt(&cfg.Analytics.WindowDays, "REPORTFLOW_ANALYTICS_WINDOW_DAYS")

	setString(&cfg.Graph.Endpoint, "REPORTFLOW_GRAPH_ENDPOINT")
	setDuration(&cfg.Graph.Timeout, "REPORTFLOW_GRAPH_TIMEOUT")

	setString(&cfg.Logging.Level, "REPORTFLOW_LOG_LEVEL")
	setString(&cfg.Logging.Format, "REPORTFLOW_LOG_FORMAT")
}

// APIKeyFor resolves the API key for the configured provider: the
// provider-standard environment variable wins, then the YAML value.
func (c *Config) APIKeyFor() string {
	var envKey string
	switch c.Provider.Name {
	case "anthropic":
		envKey = "ANTHROPIC_API_KEY"
	case "openai":
		envKey = "OPENAI_API_KEY"
	case "google":
		envKey = "GOOGLE_API_KEY"
	default:
		return ""
	}
	if v := os.Getenv(envKey); v != "" {
		return v
	}
	return c.Provider.APIKey
}

// validate checks field ranges and enum values.
func validate(cfg *Config) error {
	if cfg.Server.Addr == "" {
		return errors.New("server.addr is required")
	}
	switch cfg.Provider.Name {
	case "anthropic", "openai", "google", "none":
	default:
		return fmt.Errorf("provider.name must be anthropic, openai, google, or none: %q", cfg.Provider.Name)
	}
	if cfg.Workflow.MaxIterations < 0 {
		return errors.New("workflow.max_iterations must be >= 0")
	}
	if cfg.Workflow.MaxSteps < 1 {
		return errors.New("workflow.max_steps must be >= 1")
	}
	switch cfg.Checkpoint.Backend {
	case "memory", "sqlite", "mysql":
	default:
		return fmt.Errorf("checkpoint.backend must be memory, sqlite, or mysql: %q", cfg.Checkpoint.Backend)
	}
	if cfg.Checkpoint.Backend == "sqlite" && cfg.Checkpoint.Path == "" {
		return errors.New("checkpoint.path is required for the sqlite backend")
	}
	if cfg.Checkpoint.Backend == "mysql" && cfg.Checkpoint.DSN == "" {
		return errors.New("checkpoint.dsn is required for the mysql backend")
	}
	switch cfg.Analytics.Driver {
	case "sqlite", "mysql":
	default:
		return fmt.Errorf("analytics.driver must be sqlite or mysql: %q", cfg.Analytics.Driver)
	}
	if cfg.Analytics.WindowDays < 1 {
		return errors.New("analytics.window_days must be >= 1")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
