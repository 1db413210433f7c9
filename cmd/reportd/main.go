// Command reportd serves the report workflow over HTTP.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	_ "github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"

	"github.com/dshills/reportflow/collect"
	"github.com/dshills/reportflow/internal/config"
	"github.com/dshills/reportflow/internal/httpapi"
	"github.com/dshills/reportflow/llm"
	"github.com/dshills/reportflow/report"
	"github.com/dshills/reportflow/workflow"
	"github.com/dshills/reportflow/workflow/emit"
	"github.com/dshills/reportflow/workflow/store"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	logger := newLogger(cfg.Logging)
	slog.SetDefault(logger)
	logger.Info("config loaded",
		"addr", cfg.Server.Addr,
		"provider", cfg.Provider.Name,
		"checkpoint_backend", cfg.Checkpoint.Backend,
		"max_iterations", cfg.Workflow.MaxIterations,
	)

	ctx := context.Background()
	registry := prometheus.NewRegistry()
	metrics := workflow.NewMetrics(registry)

	// --- LLM gateway ---
	gateway, closeGateway, err := newGateway(ctx, cfg)
	if err != nil {
		return fmt.Errorf("gateway: %w", err)
	}
	if closeGateway != nil {
		defer closeGateway()
	}
	if gateway == nil {
		logger.Warn("no LLM provider configured; running on deterministic fallbacks")
	}

	// --- Checkpoint store ---
	checkpoints, checkpointCheck, err := newCheckpointStore(cfg.Checkpoint)
	if err != nil {
		return fmt.Errorf("checkpoint store: %w", err)
	}
	if closer, ok := checkpoints.(io.Closer); ok {
		defer func() { _ = closer.Close() }()
	}

	// --- Collectors ---
	salesDB, err := sql.Open(cfg.Analytics.Driver, cfg.Analytics.DSN)
	if err != nil {
		return fmt.Errorf("analytics db: %w", err)
	}
	defer func() { _ = salesDB.Close() }()
	if cfg.Analytics.Driver == "sqlite" {
		salesDB.SetMaxOpenConns(1)
	}

	graphClient := &http.Client{Timeout: cfg.Graph.Timeout}
	collectors := []collect.Collector{
		collect.NewAnalytics(salesDB, cfg.Analytics.WindowDays, logger),
		collect.NewGraph(cfg.Graph.Endpoint, gateway, graphClient, logger),
	}
	optional := []report.OptionalCollector{
		collect.NewAdvanced(salesDB, cfg.Analytics.WindowDays, logger),
	}

	// --- Workflow ---
	jsonLogs := cfg.Logging.Format == "json"
	engine, err := report.Build(report.Deps{
		Gateway:     gateway,
		Collectors:  collectors,
		Optional:    optional,
		Store:       checkpoints,
		Emitter:     emit.NewLogEmitter(os.Stdout, jsonLogs),
		Logger:      logger,
		Metrics:     metrics,
		MaxSteps:    cfg.Workflow.MaxSteps,
		NodeTimeout: cfg.Workflow.NodeTimeout,
	})
	if err != nil {
		return fmt.Errorf("build workflow: %w", err)
	}
	svc := report.NewService(engine, cfg.Workflow.MaxIterations, logger)

	// --- HTTP ---
	router := httpapi.NewRouter(&httpapi.Handlers{
		Reports: svc,
		Logger:  logger,
		Checks: map[string]httpapi.HealthChecker{
			"checkpoint": checkpointCheck,
			"analytics":  func(ctx context.Context) error { return salesDB.PingContext(ctx) },
		},
		Registry: registry,
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("starting server", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", "error", err)
		}
	}()

	<-done
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newLogger(cfg config.Logging) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// newGateway builds the configured LLM client. Provider "none" returns a nil
// client, which runs every workflow node on its deterministic fallback.
func newGateway(ctx context.Context, cfg *config.Config) (llm.Client, func(), error) {
	key := cfg.APIKeyFor()
	switch cfg.Provider.Name {
	case "anthropic":
		c, err := llm.NewAnthropicClient(key, cfg.Provider.Model)
		if err != nil {
			return nil, nil, err
		}
		return c, nil, nil
	case "openai":
		c, err := llm.NewOpenAIClient(key, cfg.Provider.Model)
		if err != nil {
			return nil, nil, err
		}
		return c, nil, nil
	case "google":
		c, err := llm.NewGoogleClient(ctx, key, cfg.Provider.Model)
		if err != nil {
			return nil, nil, err
		}
		return c, func() { _ = c.Close() }, nil
	case "none":
		return nil, nil, nil
	}
	return nil, nil, fmt.Errorf("unknown provider: %q", cfg.Provider.Name)
}

func newCheckpointStore(cfg config.Checkpoint) (store.Store[report.State], httpapi.HealthChecker, error) {
	switch cfg.Backend {
	case "memory":
		return store.NewMemStore[report.State](), func(context.Context) error { return nil }, nil
	case "sqlite":
		st, err := store.NewSQLiteStore[report.State](cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		return st, st.Ping, nil
	case "mysql":
		st, err := store.NewMySQLStore[report.State](cfg.DSN)
		if err != nil {
			return nil, nil, err
		}
		return st, st.Ping, nil
	}
	return nil, nil, fmt.Errorf("unknown checkpoint backend: %q", cfg.Backend)
}
