package commands

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/netopslabs/netdocs/internal/logging"
	"github.com/netopslabs/netdocs/internal/server"
	"github.com/netopslabs/netdocs/internal/vectorstore"
)

// NewServeCmd constructs the `netdocs serve` command, which starts the HTTP
// retrieval API.
func NewServeCmd() *cobra.Command {
	var host string
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the netdocs HTTP retrieval API",
		Long: `Start the netdocs HTTP server on localhost.

The server exposes the retrieval API: POST /api/query for context retrieval,
POST /api/documents for ingestion, GET /api/stats for corpus statistics, plus
/api/health, /api/ready, and /metrics for operations.

Set NETDOCS_API_KEY to require Bearer authentication on the /api/* routes.

Examples:
  netdocs serve
  netdocs serve --port 9090
  EMBEDDING_PROVIDER=ollama netdocs serve`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			log.Info("serve starting", slog.String("provider", os.Getenv("EMBEDDING_PROVIDER")))

			c, err := buildComponents(ctx, log)
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}
			defer c.close()

			// The embedding provider probes itself; a Qdrant-backed store
			// adds its own probe.
			pingers := []server.Pinger{c.provider}
			if qs, ok := c.store.(*vectorstore.QdrantStore); ok {
				pingers = append(pingers, server.NewQdrantPinger(qs.Client()))
			}

			hostFlag := host
			if hostFlag == "" {
				hostFlag = getEnvOrDefault("NETDOCS_HOST", "127.0.0.1")
			}
			portFlag := port
			if portFlag == 0 {
				portFlag = getEnvInt("NETDOCS_PORT", 8080)
			}

			srv, err := server.New(c.retriever, &server.Config{
				Host:    hostFlag,
				Port:    portFlag,
				Logger:  log,
				Pingers: pingers,
				APIKey:  os.Getenv("NETDOCS_API_KEY"),
			})
			if err != nil {
				return fmt.Errorf("serve: failed to create server: %w", err)
			}

			return srv.Start(ctx)
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "Host address to bind to (default: 127.0.0.1)")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "TCP port to listen on (default: 8080)")

	return cmd
}
