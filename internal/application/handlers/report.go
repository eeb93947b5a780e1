package handlers

import (
	"context"
	"time"

	"github.com/vistoria/vistoria-core/internal/domain/entities"
	"github.com/vistoria/vistoria-core/internal/domain/services"
)

// GenerateHandler handles report generation.
type GenerateHandler struct {
	reports *services.ReportService
}

// NewGenerateHandler creates a new generate handler.
func NewGenerateHandler(reports *services.ReportService) *GenerateHandler {
	return &GenerateHandler{
		reports: reports,
	}
}

// GenerateOptions controls the link issued with a report.
type GenerateOptions struct {
	Validity  time.Duration // zero uses the configured default
	MaxViews  int           // zero means unlimited
	CreatedBy string
}

// Handle generates a report for inspectionID.
func (h *GenerateHandler) Handle(ctx context.Context, inspectionID string, opts GenerateOptions) (*services.GenerateResult, error) {
	return h.reports.Generate(ctx, inspectionID, services.GenerateOptions{
		LinkValidity: opts.Validity,
		MaxViews:     maxViews(opts.MaxViews),
		CreatedBy:    opts.CreatedBy,
	})
}

// History lists the integrity records of an inspection, newest first.
func (h *GenerateHandler) History(ctx context.Context, inspectionID string) ([]entities.IntegrityRecord, error) {
	return h.reports.History(ctx, inspectionID)
}

// maxViews maps the CLI convention (0 = unlimited) to an optional limit.
// Negative values are passed through so the service rejects them.
func maxViews(n int) *int {
	if n == 0 {
		return nil
	}
	return &n
}
