package admin

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cloo-solutions/docrag/internal/service"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// IngestCmd ingests one or more PDF or DOCX files from disk.
func IngestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest <file>...",
		Short: "Ingest PDF or DOCX files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			title, _ := cmd.Flags().GetString("title")
			if title != "" && len(args) > 1 {
				return fmt.Errorf("--title applies to a single file")
			}

			return withApp(cmd, func(ctx context.Context, a *app) error {
				for _, path := range args {
					data, err := os.ReadFile(path)
					if err != nil {
						return fmt.Errorf("failed to read %s: %w", path, err)
					}
					out, err := a.ingest.Ingest(ctx, service.IngestInput{
						Filename: filepath.Base(path),
						Title:    title,
						Data:     data,
					})
					if err != nil {
						return fmt.Errorf("failed to ingest %s: %w", path, err)
					}
					a.logger.Info("ingested",
						zap.String("file", path),
						zap.String("document_id", out.Document.ID),
						zap.Int("chunks", out.Chunks),
						zap.Int("skipped", out.Skipped),
					)
					fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%d chunks\n", out.Document.ID, out.Document.Title, out.Chunks)
				}
				return nil
			})
		},
	}

	cmd.Flags().String("title", "", "Document title (defaults to the filename)")
	return cmd
}
