package admin

import (
	"context"
	"fmt"

	"github.com/cloo-solutions/docrag/internal/cli"
	"github.com/cloo-solutions/docrag/internal/database"
	"github.com/cloo-solutions/docrag/internal/logging"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// MigrateCmd applies pending schema migrations and exits.
func MigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cli.LoadConfig(cmd.Flags())
			if err != nil {
				return err
			}
			logger, err := logging.New(cfg.Debug)
			if err != nil {
				return err
			}
			defer logger.Sync()

			path, _ := cmd.Flags().GetString("migrations-path")
			return database.Migrate(cfg.DatabaseURL, path, logger)
		},
	}

	cmd.Flags().String("migrations-path", database.DefaultMigrationsPath, "Directory holding the SQL migrations")
	return cmd
}

// MigrateWidthCmd moves the embedding columns to a new width and queues
// every document and page for re-embedding.
func MigrateWidthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate-width",
		Short: "Change the embedding column width",
		Long: `Alter every embedding column to vector(N) and enqueue a reindex job per document and page.
Existing vectors are cleared; a running server's reindex worker restores them.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			width, _ := cmd.Flags().GetInt("width")
			if width <= 0 {
				return fmt.Errorf("--width must be positive")
			}
			return withApp(cmd, func(ctx context.Context, a *app) error {
				if err := a.dimension.Observe(ctx, width); err != nil {
					return err
				}
				a.logger.Info("embedding width set", zap.Int("width", a.width.Get()))
				return nil
			})
		},
	}

	cmd.Flags().Int("width", 0, "Target embedding width")
	return cmd
}
