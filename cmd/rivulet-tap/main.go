package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "rivulet-tap",
		Short: "Inspect live rivulet streams over HTTP",
		Long: `rivulet-tap serves a demo set of reactive streams and exposes them
for inspection:

  GET /healthz          liveness and registered stream names
  GET /metrics          Prometheus metrics
  GET /events/{stream}  websocket feed of one stream's events`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		serveCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}
