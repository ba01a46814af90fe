package admin

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloo-solutions/docrag/internal/service"
	"github.com/spf13/cobra"
)

// AskCmd answers a question from the stored chunks.
func AskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Answer a question using retrieved chunks",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			documentID, _ := cmd.Flags().GetString("document")
			topK, _ := cmd.Flags().GetInt("top-k")

			return withApp(cmd, func(ctx context.Context, a *app) error {
				out, err := a.rag.Answer(ctx, service.AnswerInput{
					Query:      strings.Join(args, " "),
					DocumentID: documentID,
					TopK:       topK,
				})
				if err != nil {
					return err
				}
				w := cmd.OutOrStdout()
				fmt.Fprintln(w, out.Answer)
				if out.Citations != "" {
					fmt.Fprintf(w, "\nSources: %s\n", out.Citations)
				}
				return nil
			})
		},
	}

	cmd.Flags().String("document", "", "Restrict retrieval to one document id")
	cmd.Flags().Int("top-k", service.DefaultRetrieveK, "Number of chunks to retrieve")
	return cmd
}

// SummarizeCmd prints a bullet summary of a document.
func SummarizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summarize <document-id>",
		Short: "Summarize a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				summary, err := a.rag.Summarize(ctx, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), summary)
				return nil
			})
		},
	}
}

// SimilarCmd lists the documents nearest to a given document.
func SimilarCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "similar <document-id>",
		Short: "List documents similar to a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			k, _ := cmd.Flags().GetInt("k")

			return withApp(cmd, func(ctx context.Context, a *app) error {
				similar, err := a.rag.SimilarDocuments(ctx, args[0], k)
				if err != nil {
					return err
				}
				for _, d := range similar {
					fmt.Fprintf(cmd.OutOrStdout(), "%.4f\t%s\t%s\n", d.Distance, d.ID, d.Title)
				}
				return nil
			})
		},
	}

	cmd.Flags().Int("k", service.DefaultSimilarK, "Number of documents to list")
	return cmd
}
