package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vistoria/vistoria-core/internal/application/handlers"
)

type importFlags struct {
	format string
	dryRun bool
}

func newImportCmd(g *globalFlags) *cobra.Command {
	var flags importFlags

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import an inspection from JSON, YAML or CSV",
		Long:  "Imports one inspection aggregate, replacing any stored version with the same id.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, g, args[0], flags)
		},
	}

	cmd.Flags().StringVarP(&flags.format, "format", "f", "auto", "File format (json, yaml, csv, auto)")
	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "Validate without saving")

	return cmd
}

func runImport(cmd *cobra.Command, g *globalFlags, filePath string, flags importFlags) error {
	return withDeps(cmd.Context(), g, func(ctx context.Context, d *Deps) error {
		result, err := d.Import.Handle(ctx, filePath, handlers.ImportOptions{
			Format: flags.format,
			DryRun: flags.dryRun,
		})
		if err != nil {
			return fmt.Errorf("importing file: %w", err)
		}

		out := cmd.OutOrStdout()
		if g.jsonOut {
			return printJSON(out, result)
		}

		verb := "Imported"
		if result.DryRun {
			verb = "Dry run: would import"
		}
		fmt.Fprintf(out, "%s inspection %s (%s): %d items, %d photos, %d signatures\n",
			verb, result.InspectionID, result.Number, result.Items, result.Photos, result.Signatures)
		return nil
	})
}
