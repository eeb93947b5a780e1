package handlers

import (
	"context"
	"strings"

	"github.com/vistoria/vistoria-core/internal/domain/entities"
	"github.com/vistoria/vistoria-core/internal/domain/services"
)

// InspectionHandler handles reading and editing inspections.
type InspectionHandler struct {
	inspections *services.InspectionService
}

// NewInspectionHandler creates a new inspection handler.
func NewInspectionHandler(inspections *services.InspectionService) *InspectionHandler {
	return &InspectionHandler{
		inspections: inspections,
	}
}

// Get loads one inspection.
func (h *InspectionHandler) Get(ctx context.Context, id string) (*entities.Inspection, error) {
	return h.inspections.Get(ctx, id)
}

// List returns inspections newest first.
func (h *InspectionHandler) List(ctx context.Context, limit, offset int) ([]*entities.Inspection, error) {
	return h.inspections.List(ctx, limit, offset)
}

// SetItem changes the live answer of one item. notes is left untouched when nil.
func (h *InspectionHandler) SetItem(ctx context.Context, inspectionID, path, value string, notes *string) error {
	return h.inspections.SetItemValue(ctx, inspectionID, path, entities.ItemValue(strings.ToLower(strings.TrimSpace(value))), notes)
}
