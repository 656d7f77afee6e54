package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/netopslabs/netdocs/internal/logging"
)

// NewClearCmd constructs the `netdocs clear` command, which empties the
// corpus and persists the empty state.
func NewClearCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every document from the vector store",
		Long: `Remove all documents, vectors, and cached embeddings from the vector
store and persist the empty state. This cannot be undone; pass --force to
skip the confirmation.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			c, err := buildComponents(ctx, log)
			if err != nil {
				return fmt.Errorf("clear: %w", err)
			}
			defer c.close()

			count := c.store.Count(ctx)
			if count == 0 {
				fmt.Println("corpus is already empty")
				return nil
			}

			if !force {
				fmt.Printf("remove %d document chunks? [y/N]: ", count)
				var answer string
				fmt.Fscanln(cmd.InOrStdin(), &answer)
				if answer != "y" && answer != "Y" {
					fmt.Println("aborted")
					return nil
				}
			}

			if err := c.store.Clear(ctx); err != nil {
				return fmt.Errorf("clear: %w", err)
			}
			fmt.Printf("removed %d document chunks\n", count)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Skip the confirmation prompt")

	return cmd
}
