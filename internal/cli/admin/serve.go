package admin

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloo-solutions/docrag/internal/api/handlers"
	"github.com/cloo-solutions/docrag/internal/cli"
	"github.com/cloo-solutions/docrag/internal/database"
	"github.com/cloo-solutions/docrag/internal/embedding"
	"github.com/cloo-solutions/docrag/internal/jobs"
	"github.com/cloo-solutions/docrag/internal/logging"
	"github.com/cloo-solutions/docrag/internal/server"
	"github.com/cloo-solutions/docrag/internal/telemetry"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownTimeout = 30 * time.Second

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long:  "Start the docrag API server and the background reindex worker",
		RunE:  runServe,
	}

	cmd.Flags().StringP("port", "p", "", "Port to listen on (overrides DOCRAG_PORT)")
	cmd.Flags().Bool("no-migrate", false, "Skip automatic database migrations on startup")
	cmd.Flags().Bool("no-worker", false, "Do not start the reindex worker")
	cmd.Flags().Bool("skip-verify", false, "Skip the embedding provider probe on startup")
	cmd.Flags().String("migrations-path", database.DefaultMigrationsPath, "Directory holding the SQL migrations")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := cli.LoadConfig(cmd.Flags())
	if err != nil {
		return err
	}
	if port, _ := cmd.Flags().GetString("port"); port != "" {
		cfg.Port = port
	}

	logger, err := logging.New(cfg.Debug)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer logger.Sync()

	shutdownTelemetry, err := telemetry.Init(telemetry.Config{
		DSN:              cfg.SentryDSN,
		Environment:      cfg.Environment,
		TracesSampleRate: cfg.TracesSampleRate(),
		Debug:            cfg.Debug,
	}, logger)
	if err != nil {
		logger.Warn("telemetry init failed, continuing without tracing", zap.Error(err))
	} else {
		defer shutdownTelemetry()
	}

	if noMigrate, _ := cmd.Flags().GetBool("no-migrate"); !noMigrate {
		path, _ := cmd.Flags().GetString("migrations-path")
		if err := database.Migrate(cfg.DatabaseURL, path, logger); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.close()
	logger.Info("connected to database")

	if skip, _ := cmd.Flags().GetBool("skip-verify"); !skip {
		if err := verifyEmbedder(ctx, a); err != nil {
			return err
		}
	}

	var worker *jobs.Worker
	if noWorker, _ := cmd.Flags().GetBool("no-worker"); !noWorker {
		processor := jobs.NewReindexWorker(a.reindexJobs, a.reindexer, a.pages, logger)
		worker = jobs.NewWorker(processor, cfg.ReindexPollInterval, logger)
		go worker.Start(ctx)
		logger.Info("reindex worker started", zap.Duration("poll_interval", cfg.ReindexPollInterval))
	}

	router := server.NewRouter(server.RouterConfig{
		Logger:          logger,
		Health:          a.pool,
		DocumentHandler: handlers.NewDocumentHandler(a.ingest, a.documents, a.rag),
		RAGHandler:      handlers.NewRAGHandler(a.rag),
		PageHandler:     handlers.NewPageHandler(a.pages),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	}

	if worker != nil {
		worker.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("server exited")
	return nil
}

// verifyEmbedder probes the provider once. A vector of a different width
// is handed to the dimension adapter so the schema follows the model.
func verifyEmbedder(ctx context.Context, a *app) error {
	vec, err := a.embedder.EmbedObserved(ctx, embedding.HealthcheckText)
	if err != nil {
		return fmt.Errorf("embedding provider probe failed: %w", err)
	}
	if err := a.dimension.Observe(ctx, len(vec)); err != nil {
		return fmt.Errorf("embedding provider width %d rejected: %w", len(vec), err)
	}
	return a.embedder.Verify(ctx)
}

// withApp loads configuration, builds the app and runs fn with a context
// cancelled on interrupt.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := cli.LoadConfig(cmd.Flags())
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.Debug)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer logger.Sync()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.close()

	return fn(ctx, a)
}
