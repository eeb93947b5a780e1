package handlers

import (
	"context"
	"fmt"
	"os"

	"github.com/vistoria/vistoria-core/internal/domain/services"
	"github.com/vistoria/vistoria-core/internal/infrastructure/parsers"
)

// ImportHandler handles importing inspections from files.
type ImportHandler struct {
	service *services.InspectionService
}

// NewImportHandler creates a new import handler.
func NewImportHandler(service *services.InspectionService) *ImportHandler {
	return &ImportHandler{
		service: service,
	}
}

// ImportOptions controls import behavior.
type ImportOptions struct {
	Format string // "json", "yaml", "csv", or "auto"
	DryRun bool   // Validate without saving
}

// ImportResult contains the result of an import operation.
type ImportResult struct {
	InspectionID string
	Number       string
	Items        int
	Photos       int
	Signatures   int
	DryRun       bool
}

// Handle imports one inspection from a file.
func (h *ImportHandler) Handle(ctx context.Context, filePath string, opts ImportOptions) (*ImportResult, error) {
	var parser parsers.Parser
	if opts.Format == "" || opts.Format == "auto" {
		parser = parsers.ForFile(filePath)
	} else {
		parser = parsers.ForFormat(opts.Format)
	}

	if parser == nil {
		return nil, fmt.Errorf("unsupported format for file: %s", filePath)
	}

	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer file.Close()

	insp, err := parser.Parse(file)
	if err != nil {
		return nil, fmt.Errorf("parsing file: %w", err)
	}

	result := &ImportResult{
		InspectionID: insp.ID,
		Number:       insp.Number,
		Items:        len(insp.Items),
		Photos:       len(insp.Photos),
		Signatures:   len(insp.Signatures),
		DryRun:       opts.DryRun,
	}

	if opts.DryRun {
		if err := services.ValidateInspection(insp); err != nil {
			return nil, err
		}
		return result, nil
	}

	if err := h.service.Import(ctx, insp); err != nil {
		return nil, err
	}
	result.InspectionID = insp.ID
	return result, nil
}
