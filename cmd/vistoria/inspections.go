package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newInspectionsCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspections",
		Short: "List and show inspections",
	}
	cmd.AddCommand(newInspectionsListCmd(g), newInspectionsShowCmd(g))
	return cmd
}

func newInspectionsListCmd(g *globalFlags) *cobra.Command {
	var limit, offset int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List inspections, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(cmd.Context(), g, func(ctx context.Context, d *Deps) error {
				list, err := d.Inspections.List(ctx, limit, offset)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if g.jsonOut {
					return printJSON(out, list)
				}
				if len(list) == 0 {
					fmt.Fprintln(out, msgNoInspections)
					return nil
				}
				fmt.Fprintf(out, "%-36s  %-12s  %-14s  %s\n", "ID", "NUMBER", "STATUS", "TITLE")
				for _, insp := range list {
					fmt.Fprintf(out, "%-36s  %-12s  %-14s  %s\n", insp.ID, insp.Number, insp.Status, truncate(insp.Title, 40))
				}
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", DefaultListLimit, "Maximum number of inspections to display")
	cmd.Flags().IntVar(&offset, "offset", 0, "Number of inspections to skip")
	return cmd
}

func newInspectionsShowCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "show <inspection-id>",
		Short: "Show one inspection with items and signatures",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(cmd.Context(), g, func(ctx context.Context, d *Deps) error {
				insp, err := d.Inspections.Get(ctx, args[0])
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if g.jsonOut {
					return printJSON(out, insp)
				}

				fmt.Fprintf(out, "%s  %s  [%s]\n", insp.Number, insp.Title, insp.Status)
				for _, item := range insp.Items {
					value := "-"
					if item.Value != nil {
						value = string(*item.Value)
					}
					fmt.Fprintf(out, "  %-30s  %-8s  %s\n", item.Path, value, item.Label)
				}
				for _, sig := range insp.Signatures {
					fmt.Fprintf(out, "  signed by %s (%s) at %s\n", sig.SignedByName, sig.Role, formatTime(sig.SignedAt))
				}
				return nil
			})
		},
	}
}
