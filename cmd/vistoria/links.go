package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/vistoria/vistoria-core/internal/application/handlers"
)

func newLinksCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "links",
		Short: "Manage public links",
	}
	cmd.AddCommand(newLinksCreateCmd(g), newLinksRevokeCmd(g), newLinksListCmd(g))
	return cmd
}

func newLinksCreateCmd(g *globalFlags) *cobra.Command {
	var (
		kind      string
		validity  time.Duration
		maxViews  int
		createdBy string
	)

	cmd := &cobra.Command{
		Use:   "create <inspection-id>",
		Short: "Issue a new public link",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(cmd.Context(), g, func(ctx context.Context, d *Deps) error {
				view, err := d.Links.Create(ctx, args[0], handlers.CreateLinkOptions{
					Kind:      kind,
					Validity:  validity,
					MaxViews:  maxViews,
					CreatedBy: createdBy,
				})
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if g.jsonOut {
					return printJSON(out, view)
				}
				fmt.Fprintf(out, "Created %s link, expires %s\n%s\n", view.Kind, formatTime(view.ExpiresAt), view.URL)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&kind, "kind", "k", "verification", "Link kind (verification, signature-collection)")
	cmd.Flags().DurationVar(&validity, "valid-for", 0, "Link validity (default from config)")
	cmd.Flags().IntVar(&maxViews, "max-views", DefaultLinkViews, "Maximum uses (0 = unlimited)")
	cmd.Flags().StringVar(&createdBy, "created-by", "", "Recorded creator of the link")
	return cmd
}

func newLinksRevokeCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "revoke <token>",
		Short: "Revoke a public link",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(cmd.Context(), g, func(ctx context.Context, d *Deps) error {
				if err := d.Links.Revoke(ctx, handlers.ExtractToken(args[0])); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Link revoked.")
				return nil
			})
		},
	}
}

func newLinksListCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list <inspection-id>",
		Short: "List the links of an inspection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(cmd.Context(), g, func(ctx context.Context, d *Deps) error {
				views, err := d.Links.List(ctx, args[0])
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if g.jsonOut {
					return printJSON(out, views)
				}
				if len(views) == 0 {
					fmt.Fprintln(out, msgNoLinks)
					return nil
				}
				for _, v := range views {
					fmt.Fprintf(out, "%-9s  %-20s  %-10s  %s  %s\n",
						v.Status, v.Kind, formatMaxViews(&v.PublicLink), formatTime(v.ExpiresAt), v.URL)
				}
				return nil
			})
		},
	}
}
