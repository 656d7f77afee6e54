// Package commands defines all Cobra CLI commands for the netdocs binary.
package commands

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/netopslabs/netdocs/internal/audit"
	"github.com/netopslabs/netdocs/internal/config"
	"github.com/netopslabs/netdocs/internal/logging"
)

// configPath holds the --config flag value for YAML config file override.
var configPath string

// loadedConfigPath stores the resolved config file path for audit logging.
var loadedConfigPath string

// NewRootCmd constructs the root Cobra command that all subcommands attach to.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "netdocs",
		Short: "netdocs — retrieval engine for network platform documentation",
		Long: `netdocs indexes network platform documentation into a local vector store
and retrieves relevant context for natural language questions.

Documents are chunked, embedded through a chain of backends (Ollama, OpenAI,
or local fallbacks — the engine degrades gracefully when none is reachable),
and searched by cosine similarity. The corpus persists across runs.

Embedding backend is selected via the EMBEDDING_PROVIDER environment variable
or a YAML config file (~/.netdocs/config.yaml).
See 'netdocs --help' for available commands.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Load .env for local development; missing file is fine.
			_ = godotenv.Load()

			log := logging.New()

			// Load YAML config (env vars always override YAML values).
			path, err := config.Load(configPath, log)
			if err != nil {
				return err
			}
			loadedConfigPath = path

			// Emit structured audit log for every command invocation.
			audit.LogCommandStart(log, cmd.Name(), loadedConfigPath)

			return nil
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML config file (default: ~/.netdocs/config.yaml)")

	root.AddCommand(
		NewIndexCmd(),
		NewQueryCmd(),
		NewServeCmd(),
		NewStatsCmd(),
		NewClearCmd(),
		NewVersionCmd(),
	)

	return root
}
