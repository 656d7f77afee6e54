package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/netopslabs/netdocs/internal/logging"
)

// NewQueryCmd constructs the `netdocs query` command, which retrieves
// context for a question and prints it.
func NewQueryCmd() *cobra.Command {
	var maxResults int

	cmd := &cobra.Command{
		Use:   "query <question>",
		Short: "Retrieve documentation context for a question",
		Long: `Search the indexed corpus and print the most relevant documentation
chunks for a natural language question, each prefixed with its source label.

Examples:
  netdocs query "How do I manage IP addresses?"
  netdocs query -k 3 "circuit termination points"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			c, err := buildComponents(ctx, log)
			if err != nil {
				return fmt.Errorf("query: %w", err)
			}
			defer c.close()

			question := strings.Join(args, " ")
			out, err := c.retriever.Retrieve(ctx, question, maxResults)
			if err != nil {
				return fmt.Errorf("query: %w", err)
			}

			if out == "" {
				if !c.retriever.IsInitialized() {
					fmt.Println("corpus is empty — run 'netdocs index' first")
					return nil
				}
				fmt.Println("no relevant documentation found")
				return nil
			}

			fmt.Println(out)
			return nil
		},
	}

	cmd.Flags().IntVarP(&maxResults, "max-results", "k", 0, "Maximum context chunks to return (default from config)")

	return cmd
}
