package commands

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/netopslabs/netdocs/internal/logging"
)

// NewIndexCmd constructs the `netdocs index` command, which populates the
// vector store with documentation.
func NewIndexCmd() *cobra.Command {
	var urls []string
	var docsDir string

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Index documentation into the vector store",
		Long: `Chunk, embed, and store documentation in the vector store.

The built-in documentation set is always indexed. Remote pages (--url) and a
local directory of .txt/.md/.rst files (--docs-dir) are indexed on top when
given; a fetch failure skips that source rather than aborting.

Relevant environment variables:
  EMBEDDING_PROVIDER     auto, ollama, openai, tfidf, heuristic (default: auto)
  NETDOCS_STORE_BACKEND  file or qdrant (default: file)
  NETDOCS_STORE_PATH     Directory for file-backed persistence (default: ~/.netdocs/vectors)
  RETRIEVAL_DOC_URLS     Comma-separated remote pages (same as repeated --url)

Examples:
  netdocs index
  netdocs index --url https://docs.example.com/ipam --docs-dir ./runbooks
  EMBEDDING_PROVIDER=tfidf netdocs index`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			if len(urls) > 0 {
				appendEnvList("RETRIEVAL_DOC_URLS", urls)
			}
			if docsDir != "" {
				os.Setenv("NETDOCS_DOCS_DIR", docsDir)
			}

			c, err := buildComponents(ctx, log)
			if err != nil {
				return fmt.Errorf("index: %w", err)
			}
			defer c.close()

			if err := c.retriever.InitializeDocuments(ctx); err != nil {
				return fmt.Errorf("index: %w", err)
			}

			stats := c.retriever.Stats(ctx)
			log.Info("index complete",
				slog.Int("documents", stats.DocumentCount),
				slog.String("provider", stats.Provider.Provider),
				slog.String("path", stats.StoragePath),
			)
			fmt.Printf("indexed %d document chunks (%s)\n", stats.DocumentCount, stats.StoragePath)
			return nil
		},
	}

	cmd.Flags().StringArrayVarP(&urls, "url", "u", nil, "Documentation URL to index (repeatable)")
	cmd.Flags().StringVarP(&docsDir, "docs-dir", "d", "", "Local directory of documentation files to index")

	return cmd
}

// appendEnvList merges values into a comma-separated env list so flags and
// config-file entries compose.
func appendEnvList(key string, values []string) {
	merged := append(splitList(os.Getenv(key)), values...)
	os.Setenv(key, strings.Join(merged, ","))
}
