package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vistoria/vistoria-core/internal/application/handlers"
	"github.com/vistoria/vistoria-core/internal/domain/ports"
	"github.com/vistoria/vistoria-core/internal/infrastructure/config"
)

func newInitCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize a new vistoria workspace",
		Long:  "Creates a .vistoria directory with default configuration, the file store and the database schema.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(cmd, g)
		},
	}
}

func runInit(cmd *cobra.Command, g *globalFlags) error {
	basePath, err := resolveBasePath(g)
	if err != nil {
		return err
	}

	handler := handlers.NewInitHandler(func(ctx context.Context, cfg *config.Config) (ports.RelationalDB, error) {
		return openRelationalDB(ctx, basePath, cfg)
	})

	result, err := handler.Handle(cmd.Context(), basePath)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if g.jsonOut {
		return printJSON(out, result)
	}

	fmt.Fprintf(out, "Created %s\n", result.ConfigPath)
	fmt.Fprintf(out, "Database: %s\n", result.DatabaseDriver)
	fmt.Fprintf(out, "File store: %s\n", result.StorageRoot)
	if result.SigningKeyCreated {
		fmt.Fprintf(out, "Generated download signing key in %s (keep it secret)\n", result.SigningKeyPath)
	}
	fmt.Fprintln(out, "Vistoria initialized successfully!")
	return nil
}
