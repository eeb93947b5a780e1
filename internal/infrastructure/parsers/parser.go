// Package parsers reads inspection aggregates exported by the inspection editor.
package parsers

import (
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/vistoria/vistoria-core/internal/domain/entities"
)

// Parser defines the interface for parsing an inspection from various formats.
type Parser interface {
	Parse(r io.Reader) (*entities.Inspection, error)
}

// ForFormat returns the appropriate parser for the given format.
// Supported formats: "json", "yaml", "csv".
func ForFormat(format string) Parser {
	switch strings.ToLower(format) {
	case "json":
		return &JSONParser{}
	case "yaml", "yml":
		return &YAMLParser{}
	case "csv":
		return &CSVParser{}
	default:
		return nil
	}
}

// ForFile returns the appropriate parser based on file extension.
func ForFile(filename string) Parser {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	return ForFormat(ext)
}

// assignIDs gives every child row without an id a fresh one.
func assignIDs(insp *entities.Inspection) {
	for i := range insp.Items {
		if insp.Items[i].ID == "" {
			insp.Items[i].ID = uuid.New().String()
		}
	}
	for i := range insp.Photos {
		if insp.Photos[i].ID == "" {
			insp.Photos[i].ID = uuid.New().String()
		}
	}
	for i := range insp.Signatures {
		if insp.Signatures[i].ID == "" {
			insp.Signatures[i].ID = uuid.New().String()
		}
	}
}
