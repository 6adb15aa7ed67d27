package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/goliatone/go-dynform/internal/config"
	"github.com/goliatone/go-dynform/internal/logging"
	"github.com/goliatone/go-dynform/internal/schemawatch"
	"github.com/goliatone/go-dynform/internal/server"
	"github.com/goliatone/go-dynform/internal/store/sqlite"
	"github.com/goliatone/go-dynform/pkg/engine"
	"github.com/goliatone/go-dynform/pkg/metrics"
	"github.com/goliatone/go-dynform/pkg/store"
	"github.com/goliatone/go-dynform/pkg/submit"
)

func newServeCmd() *cobra.Command {
	var cfgFile string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the form evaluator over HTTP",
		Long: `Start the HTTP service.

The server will:
  - Load configuration from dynform.yaml (or --config)
  - Or load configuration from DYNFORM_* environment variables
  - Load the default schema and, with schema.watch, reload it on change
  - Keep form sessions in memory and record submissions in the store

Examples:
  dynform serve
  dynform serve --config /etc/dynform/config.yaml
  DYNFORM_SCHEMA_PATH=form.json DYNFORM_SERVER_PORT=9000 dynform serve`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadWithFallback(cfgFile)
			if err != nil {
				return fmt.Errorf("error loading config: %w", err)
			}
			logger, err := logging.New(cfg.Log, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cfg, logger)
		},
	}
	cmd.Flags().StringVarP(&cfgFile, "config", "c", "dynform.yaml", "config file path")
	return cmd
}

func runServe(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	var collector *metrics.Collector
	if cfg.Metrics.Enabled {
		collector = metrics.New()
	}

	st, closeStore, err := openStore(cfg.Store)
	if err != nil {
		return err
	}
	defer closeStore()

	var destination submit.Submitter
	if cfg.Submit.Endpoint != "" {
		opts := []submit.HTTPOption{
			submit.WithMethod(cfg.Submit.Method),
			submit.WithTimeout(cfg.Submit.Timeout),
		}
		for key, value := range cfg.Submit.Headers {
			opts = append(opts, submit.WithHeader(key, value))
		}
		destination = submit.NewHTTP(cfg.Submit.Endpoint, opts...)
	}

	opts := []server.Option{
		server.WithEngine(engine.New(engine.WithLogger(logger), engine.WithMetrics(collector))),
		server.WithSubmitter(submit.Join(submit.NewLog(logger), destination)),
		server.WithStore(st),
		server.WithLogger(logger),
		server.WithSessionLimits(cfg.Server.MaxSessions, cfg.Server.SessionIdleTimeout),
	}
	if collector != nil {
		opts = append(opts, server.WithMetrics(collector, cfg.Metrics.Path))
	}

	if cfg.Schema.Path != "" {
		watcher, err := schemawatch.New(cfg.Schema.Path,
			schemawatch.WithLogger(logger),
			schemawatch.WithMetrics(collector),
		)
		if err != nil {
			return err
		}
		if cfg.Schema.Watch {
			if err := watcher.Start(); err != nil {
				return err
			}
			defer watcher.Stop()
		}
		opts = append(opts, server.WithSchemaProvider(watcher))
	}

	srv := server.New(opts...)
	return srv.Run(ctx, cfg.Server.Addr(), cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout)
}

func openStore(cfg config.StoreConfig) (store.SubmissionStore, func(), error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		db, err := sqlite.Open(cfg.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite store: %w", err)
		}
		return db, func() { _ = db.Close() }, nil
	default:
		return store.NewMemory(), func() {}, nil
	}
}
