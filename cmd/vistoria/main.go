// Package main provides the entry point for the vistoria CLI application.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var version = "0.1.0-dev"

// globalFlags are shared by every command.
type globalFlags struct {
	dir      string
	logLevel string
	jsonOut  bool
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	rootCmd := newRootCmd()
	rootCmd.SetArgs(args)
	return rootCmd.ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:           "vistoria",
		Short:         "Tamper-evident inspection reports with public verification links",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&g.dir, "dir", "C", "", "Workspace directory (default: current directory)")
	rootCmd.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "Override the configured log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&g.jsonOut, "json", false, "Print results as JSON")

	rootCmd.AddCommand(
		newInitCmd(g),
		newImportCmd(g),
		newExportCmd(g),
		newInspectionsCmd(g),
		newItemCmd(g),
		newSignCmd(g),
		newGenerateCmd(g),
		newHistoryCmd(g),
		newLinksCmd(g),
		newVerifyCmd(g),
		newServeCmd(g),
	)

	return rootCmd
}
