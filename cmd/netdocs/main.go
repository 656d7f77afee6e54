// Command netdocs is the entry point for the network documentation
// retrieval engine. It provides a CLI interface (via Cobra) and an optional
// HTTP server exposing the retrieval API.
package main

import (
	"fmt"
	"os"

	"github.com/netopslabs/netdocs/cmd/netdocs/commands"
)

func main() {
	if err := commands.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
