package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vistoria/vistoria-core/internal/domain/entities"
)

var exportFormats = []string{"json", "csv", "markdown"}

// csvColumns matches the columns the CSV importer reads, so a CSV export can
// be imported again.
var csvColumns = []string{"inspection_id", "number", "title", "path", "label", "type", "value", "notes", "require_photo"}

type exportFlags struct {
	format string
	output string
}

func newExportCmd(g *globalFlags) *cobra.Command {
	var flags exportFlags

	cmd := &cobra.Command{
		Use:   "export <inspection-id>",
		Short: "Export an inspection to file",
		Long:  "Exports the live inspection to JSON, CSV, or markdown. JSON and CSV output can be imported again.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(exportFormats, flags.format) {
				return fmt.Errorf("invalid format %q, valid formats: %v", flags.format, exportFormats)
			}
			return withDeps(cmd.Context(), g, func(ctx context.Context, d *Deps) error {
				insp, err := d.Inspections.Get(ctx, args[0])
				if err != nil {
					return err
				}
				return exportInspection(cmd.OutOrStdout(), insp, flags)
			})
		},
	}

	cmd.Flags().StringVarP(&flags.format, "format", "f", "json", "Output format (json, csv, markdown)")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "Output file (default: stdout)")

	return cmd
}

func exportInspection(stdout io.Writer, insp *entities.Inspection, flags exportFlags) (err error) {
	w := stdout
	if flags.output != "" {
		var f *os.File
		f, err = os.OpenFile(flags.output, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
		if err != nil {
			return fmt.Errorf("creating file: %w", err)
		}
		defer func() {
			if cerr := f.Close(); cerr != nil && err == nil {
				err = fmt.Errorf("closing file: %w", cerr)
			}
		}()
		w = f
	}

	if err := formatInspection(w, insp, flags.format); err != nil {
		return fmt.Errorf("formatting output: %w", err)
	}

	if flags.output != "" {
		fmt.Fprintf(stdout, "Exported %s (%d items) to %s\n", insp.ID, len(insp.Items), flags.output)
	}
	return nil
}

func formatInspection(w io.Writer, insp *entities.Inspection, format string) error {
	switch format {
	case "json":
		return formatJSON(w, insp)
	case "csv":
		return formatCSV(w, insp)
	case "markdown":
		return formatMarkdown(w, insp)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

func formatJSON(w io.Writer, insp *entities.Inspection) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(insp)
}

func formatCSV(w io.Writer, insp *entities.Inspection) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(csvColumns); err != nil {
		return err
	}

	for _, item := range insp.Items {
		row := []string{
			insp.ID,
			insp.Number,
			insp.Title,
			item.Path,
			item.Label,
			item.Type,
			itemValue(item),
			itemNotes(item),
			strconv.FormatBool(item.RequirePhoto),
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

func formatMarkdown(w io.Writer, insp *entities.Inspection) error {
	if _, err := fmt.Fprintf(w, "# %s %s\n\nStatus: %s\n\n", escapeMarkdown(insp.Number), escapeMarkdown(insp.Title), insp.Status); err != nil {
		return err
	}

	if _, err := fmt.Fprint(w, "| Path | Item | Value | Notes |\n"); err != nil {
		return err
	}
	if _, err := fmt.Fprint(w, "|------|------|-------|-------|\n"); err != nil {
		return err
	}

	for _, item := range insp.Items {
		value := itemValue(item)
		if value == "" {
			value = "-"
		}
		if _, err := fmt.Fprintf(w, "| %s | %s | %s | %s |\n",
			escapeMarkdown(item.Path),
			escapeMarkdown(item.Label),
			value,
			escapeMarkdown(itemNotes(item)),
		); err != nil {
			return err
		}
	}

	if len(insp.Signatures) == 0 {
		return nil
	}
	if _, err := fmt.Fprint(w, "\n## Signatures\n\n"); err != nil {
		return err
	}
	for _, sig := range insp.Signatures {
		if _, err := fmt.Fprintf(w, "- %s: %s (%s)\n", sig.Role, escapeMarkdown(sig.SignedByName), sig.SignedAt.UTC().Format("2006-01-02 15:04 MST")); err != nil {
			return err
		}
	}
	return nil
}

func itemValue(item entities.InspectionItem) string {
	if item.Value == nil {
		return ""
	}
	return string(*item.Value)
}

func itemNotes(item entities.InspectionItem) string {
	if item.Notes == nil {
		return ""
	}
	return *item.Notes
}

func escapeMarkdown(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	s = strings.ReplaceAll(s, "\n", " ")
	return s
}
