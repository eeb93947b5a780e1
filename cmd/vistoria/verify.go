package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vistoria/vistoria-core/internal/domain/entities"
)

func newVerifyCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "verify <token-or-url>",
		Short: "Verify a report token",
		Long: "Runs the public verification for a token or a full verification URL. " +
			"Exits with an error unless the report is verified.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(cmd.Context(), g, func(ctx context.Context, d *Deps) error {
				result, err := d.Verify.Handle(ctx, args[0])
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if g.jsonOut {
					if err := printJSON(out, result); err != nil {
						return err
					}
				} else {
					fmt.Fprintf(out, "Status: %s\n", result.Verdict)
					if result.Reason != "" {
						fmt.Fprintf(out, "Reason: %s\n", result.Reason)
					}
					if result.Verdict == entities.VerdictVerified {
						fmt.Fprintf(out, "SHA-256: %s\n", result.Digest)
						fmt.Fprintf(out, "Download: %s\n", result.DownloadURL)
					}
				}

				if result.Verdict != entities.VerdictVerified {
					return fmt.Errorf("report not verified: %s", result.Verdict)
				}
				return nil
			})
		},
	}
}
