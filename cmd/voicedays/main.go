package main

import (
	"fmt"
	"os"

	"github.com/harunnryd/voicedays/pkg/runner"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "voicedays",
		Short:         "Tool backends for the voice agent demo days",
		Version:       runner.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringP("config", "c", "", "Path to a YAML config file")

	root.AddCommand(serveCmd())
	root.AddCommand(ordersCmd())
	root.AddCommand(fraudCmd())
	root.AddCommand(catalogCmd())
	return root
}
