package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/vistoria/vistoria-core/internal/application/handlers"
)

type generateFlags struct {
	validity  time.Duration
	maxViews  int
	createdBy string
}

func newGenerateCmd(g *globalFlags) *cobra.Command {
	var flags generateFlags

	cmd := &cobra.Command{
		Use:   "generate <inspection-id>",
		Short: "Generate a verifiable PDF report",
		Long: "Renders the report, stores it, records the SHA-256 digest of its canonical " +
			"record and issues a verification link. Both signatures are required.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, g, args[0], flags)
		},
	}

	cmd.Flags().DurationVar(&flags.validity, "valid-for", 0, "Link validity (default from config)")
	cmd.Flags().IntVar(&flags.maxViews, "max-views", DefaultLinkViews, "Maximum verifications (0 = unlimited)")
	cmd.Flags().StringVar(&flags.createdBy, "created-by", "", "Recorded creator of the link")

	return cmd
}

func runGenerate(cmd *cobra.Command, g *globalFlags, inspectionID string, flags generateFlags) error {
	return withDeps(cmd.Context(), g, func(ctx context.Context, d *Deps) error {
		result, err := d.Generate.Handle(ctx, inspectionID, handlers.GenerateOptions{
			Validity:  flags.validity,
			MaxViews:  flags.maxViews,
			CreatedBy: flags.createdBy,
		})
		if err != nil {
			return fmt.Errorf("generating report: %w", err)
		}

		out := cmd.OutOrStdout()
		if g.jsonOut {
			return printJSON(out, result)
		}
		fmt.Fprintf(out, "Report:   %s (%d bytes)\n", result.Record.FileRef, result.Record.FileSize)
		fmt.Fprintf(out, "SHA-256:  %s\n", result.Record.SHA256)
		fmt.Fprintf(out, "Verify:   %s\n", result.VerificationURL)
		fmt.Fprintf(out, "Expires:  %s\n", formatTime(result.Link.ExpiresAt))
		return nil
	})
}

func newHistoryCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "history <inspection-id>",
		Short: "List generated reports, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(cmd.Context(), g, func(ctx context.Context, d *Deps) error {
				records, err := d.Generate.History(ctx, args[0])
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if g.jsonOut {
					return printJSON(out, records)
				}
				if len(records) == 0 {
					fmt.Fprintln(out, msgNoRecords)
					return nil
				}
				for _, rec := range records {
					fmt.Fprintf(out, "%s  %s  %s\n", formatTime(rec.GeneratedAt), rec.SHA256, rec.FileRef)
				}
				return nil
			})
		},
	}
}
