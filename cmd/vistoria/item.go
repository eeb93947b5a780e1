package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newItemCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "item",
		Short: "Edit checklist items",
	}
	cmd.AddCommand(newItemSetCmd(g))
	return cmd
}

func newItemSetCmd(g *globalFlags) *cobra.Command {
	var notes string

	cmd := &cobra.Command{
		Use:   "set <inspection-id> <path> <ok|pending|na>",
		Short: "Change the answer of one item",
		Long:  "Changes the live answer of an item. Reports generated earlier keep verifying against their own snapshot.",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			var notesPtr *string
			if cmd.Flags().Changed("notes") {
				notesPtr = &notes
			}
			return withDeps(cmd.Context(), g, func(ctx context.Context, d *Deps) error {
				if err := d.Inspections.SetItem(ctx, args[0], args[1], args[2], notesPtr); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Updated %s in %s\n", args[1], args[0])
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&notes, "notes", "", "Replace the item notes")
	return cmd
}
