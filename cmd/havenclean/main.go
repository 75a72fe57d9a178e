package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/havenclean/internal/api"
	"git.home.luguber.info/inful/havenclean/internal/checklist"
	"git.home.luguber.info/inful/havenclean/internal/config"
	"git.home.luguber.info/inful/havenclean/internal/daemon"
	"git.home.luguber.info/inful/havenclean/internal/events"
	"git.home.luguber.info/inful/havenclean/internal/logfields"
	"git.home.luguber.info/inful/havenclean/internal/metrics"
	"git.home.luguber.info/inful/havenclean/internal/store"
)

var CLI struct {
	Config  string `short:"c" help:"Configuration file path (defaults apply when omitted)"`
	Verbose bool   `short:"v" help:"Enable verbose logging"`

	Serve struct{} `cmd:"" help:"Start the checklist HTTP service"`

	Init struct {
		Force bool `help:"Overwrite existing configuration file"`
	} `cmd:"" help:"Write a starter configuration file"`

	Audit struct{} `cmd:"" help:"Repair units with duplicate active checklists, then exit"`
}

func main() {
	ctx := kong.Parse(&CLI)

	if ctx.Command() == "init" {
		if err := runInit(CLI.Config, CLI.Init.Force); err != nil {
			slog.Error("Init failed", logfields.Error(err))
			os.Exit(1)
		}
		return
	}

	cfg, err := config.Load(CLI.Config)
	if err != nil {
		slog.Error("Failed to load configuration", logfields.Error(err))
		os.Exit(1)
	}
	setupLogging(cfg)

	switch ctx.Command() {
	case "serve":
		if err := runServe(cfg); err != nil {
			slog.Error("Serve failed", logfields.Error(err))
			os.Exit(1)
		}
	case "audit":
		if err := runAudit(cfg); err != nil {
			slog.Error("Audit failed", logfields.Error(err))
			os.Exit(1)
		}
	}
}

func setupLogging(cfg *config.Config) {
	level := slog.LevelInfo
	switch cfg.Logging.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if CLI.Verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler = slog.NewTextHandler(os.Stderr, opts)
	if cfg.Logging.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}

func runServe(cfg *config.Config) error {
	st, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer st.Close()

	svc := checklist.NewService(st)

	var serverOpts []api.Option
	if cfg.Server.MetricsEnabled {
		reg := prom.NewRegistry()
		recorder := metrics.NewPrometheusRecorder(reg)
		svc = svc.WithRecorder(recorder)
		serverOpts = append(serverOpts,
			api.WithRecorder(recorder),
			api.WithMetricsHandler(metrics.HTTPHandler(reg)))
	}

	if cfg.Events.Enabled {
		pub, err := events.NewNATSPublisher(cfg.Events.URL, cfg.Events.SubjectPrefix)
		if err != nil {
			return fmt.Errorf("connecting to NATS: %w", err)
		}
		defer pub.Close()
		svc = svc.WithPublisher(pub)
	}

	var sweeper *daemon.Sweeper
	if cfg.Sweeper.Enabled {
		sweeper, err = daemon.NewSweeper(svc, cfg.Sweeper.IntervalDuration())
		if err != nil {
			return fmt.Errorf("creating sweeper: %w", err)
		}
		sweeper.Start()
		defer func() {
			if err := sweeper.Stop(); err != nil {
				slog.Warn("Sweeper shutdown failed", logfields.Error(err))
			}
		}()
	}

	server := api.NewServer(cfg.Server.Addr, svc, serverOpts...)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", slog.String("addr", cfg.Server.Addr))
		errCh <- server.Start()
	}()

	sigCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		return err
	case <-sigCtx.Done():
	}

	slog.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

const starterConfig = `server:
  addr: ":8080"
  metrics_enabled: true

database:
  path: havenclean.db

events:
  enabled: false
  url: nats://127.0.0.1:4222
  subject_prefix: havenclean

sweeper:
  enabled: true
  interval: 10m

logging:
  level: info
  format: text
`

func runInit(path string, force bool) error {
	if path == "" {
		path = "config.yaml"
	}
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}
	if err := os.WriteFile(path, []byte(starterConfig), 0o644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	slog.Info("Configuration file written", slog.String("path", path))
	return nil
}

func runAudit(cfg *config.Config) error {
	st, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer st.Close()

	svc := checklist.NewService(st)
	results, err := svc.AuditUnits(context.Background())
	if err != nil {
		return err
	}
	if len(results) == 0 {
		slog.Info("No duplicate active checklists found")
		return nil
	}
	for _, r := range results {
		slog.Info("Repaired unit",
			logfields.UnitID(r.Survivor.UnitID),
			logfields.ChecklistID(r.Survivor.ID),
			slog.Int("duplicates_removed", r.DuplicatesRemoved),
			slog.Int("tasks_migrated", r.TasksMigrated))
	}
	return nil
}
