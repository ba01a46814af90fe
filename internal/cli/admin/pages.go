package admin

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/cloo-solutions/docrag/internal/service"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// PagesCmd groups the wiki page commands.
func PagesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pages",
		Short: "Manage scraped wiki pages",
	}

	cmd.AddCommand(pagesImportCmd())
	cmd.AddCommand(pagesSearchCmd())
	return cmd
}

func pagesImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import [file.jsonl]",
		Short: "Upsert pages from JSON lines (stdin when no file is given)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var in io.Reader = cmd.InOrStdin()
			if len(args) == 1 {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("failed to open %s: %w", args[0], err)
				}
				defer f.Close()
				in = f
			}

			return withApp(cmd, func(ctx context.Context, a *app) error {
				result, err := a.pages.ImportPages(ctx, in)
				if result != nil {
					a.logger.Info("page import finished",
						zap.Int("imported", result.Imported),
						zap.Int("failed", result.Failed),
						zap.Int("unembedded", result.Unembedded),
					)
				}
				return err
			})
		},
	}
}

func pagesSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search pages and generate a brief answer",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			categories, _ := cmd.Flags().GetStringSlice("category")

			return withApp(cmd, func(ctx context.Context, a *app) error {
				out, err := a.pages.Search(ctx, service.PageSearchInput{
					Query:      strings.Join(args, " "),
					Limit:      limit,
					Categories: categories,
				})
				if err != nil {
					return err
				}
				w := cmd.OutOrStdout()
				fmt.Fprintln(w, out.Answer)
				for _, hit := range out.Results {
					fmt.Fprintf(w, "%.4f\t%s\t%s\n", hit.Distance, hit.Title, hit.URL)
				}
				return nil
			})
		},
	}

	cmd.Flags().Int("limit", service.DefaultPageSearchLimit, "Number of pages to retrieve")
	cmd.Flags().StringSlice("category", nil, "Restrict to pages in these categories")
	return cmd
}
