package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/netopslabs/netdocs/internal/logging"
)

// NewStatsCmd constructs the `netdocs stats` command, which prints corpus
// statistics as JSON.
func NewStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print corpus statistics",
		Long: `Print the corpus document count, embedding dimension, storage location,
and active embedding backend as JSON.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			c, err := buildComponents(ctx, log)
			if err != nil {
				return fmt.Errorf("stats: %w", err)
			}
			defer c.close()

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(c.retriever.Stats(ctx)); err != nil {
				return fmt.Errorf("stats: %w", err)
			}
			return nil
		},
	}
}
