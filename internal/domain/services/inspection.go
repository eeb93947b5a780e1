package services

import (
	"context"
	"encoding/json"
	"fmt"
	"unicode/utf8"

	"github.com/go-logr/logr"

	"github.com/vistoria/vistoria-core/internal/domain/entities"
	"github.com/vistoria/vistoria-core/internal/domain/errclass"
	"github.com/vistoria/vistoria-core/internal/domain/ports"
)

// InspectionService loads and edits inspection aggregates on behalf of the
// inspection editor.
type InspectionService struct {
	db ports.RelationalDB
}

// NewInspectionService creates a new InspectionService.
func NewInspectionService(db ports.RelationalDB) *InspectionService {
	return &InspectionService{db: db}
}

// Import validates and stores a complete aggregate, replacing any previous version.
func (s *InspectionService) Import(ctx context.Context, insp *entities.Inspection) error {
	if err := normalizeInspection(insp); err != nil {
		return err
	}

	if err := s.db.SaveInspection(ctx, insp); err != nil {
		return fmt.Errorf("saving inspection: %w", err)
	}

	logr.FromContextOrDiscard(ctx).Info("inspection imported",
		"inspection_id", insp.ID, "items", len(insp.Items), "photos", len(insp.Photos), "signatures", len(insp.Signatures))
	return nil
}

// Get loads an inspection aggregate.
func (s *InspectionService) Get(ctx context.Context, id string) (*entities.Inspection, error) {
	insp, err := s.db.FindInspection(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loading inspection: %w", err)
	}
	if insp == nil {
		return nil, errclass.ErrInspectionNotFound.WithMessage(id)
	}
	return insp, nil
}

// List returns inspections newest first.
func (s *InspectionService) List(ctx context.Context, limit, offset int) ([]*entities.Inspection, error) {
	list, err := s.db.ListInspections(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("listing inspections: %w", err)
	}
	return list, nil
}

// SetItemValue changes the live answer of one item. Reports generated
// earlier keep their own snapshot and are not affected.
func (s *InspectionService) SetItemValue(ctx context.Context, inspectionID, path string, value entities.ItemValue, notes *string) error {
	if !value.IsValid() {
		return errclass.ErrInvalidArgument.WithMessagef("invalid item value: %s (valid: ok, pending, na)", value)
	}
	if notes != nil {
		if err := checkText("item notes", *notes); err != nil {
			return err
		}
	}

	found, err := s.db.UpdateItemValue(ctx, inspectionID, path, &value, notes)
	if err != nil {
		return fmt.Errorf("updating item: %w", err)
	}
	if !found {
		return errclass.ErrInvalidArgument.WithMessagef("no item at path %q in inspection %s", path, inspectionID)
	}

	logr.FromContextOrDiscard(ctx).Info("item updated", "inspection_id", inspectionID, "path", path, "value", value)
	return nil
}

// ValidateInspection applies the import checks and defaults without saving.
func ValidateInspection(insp *entities.Inspection) error {
	return normalizeInspection(insp)
}

func normalizeInspection(insp *entities.Inspection) error {
	if insp == nil || insp.ID == "" {
		return errclass.ErrInvalidArgument.WithMessage("inspection id is required")
	}

	if err := checkText("inspection", insp.ID, insp.Number, insp.Title, insp.TemplateID, insp.OrganizationID); err != nil {
		return err
	}

	if insp.Status == "" {
		insp.Status = entities.InspectionDraft
	}
	if !insp.Status.IsValid() {
		return errclass.ErrInvalidArgument.WithMessagef("invalid inspection status: %s", insp.Status)
	}

	for _, blob := range []struct {
		name string
		raw  json.RawMessage
	}{{"context_json", insp.Context}, {"data_json", insp.Data}} {
		if len(blob.raw) > 0 && !json.Valid(blob.raw) {
			return errclass.ErrInvalidArgument.WithMessagef("%s is not valid JSON", blob.name)
		}
		if !utf8.Valid(blob.raw) {
			return errclass.ErrInvalidArgument.WithMessagef("%s is not valid UTF-8", blob.name)
		}
	}

	now := timeNow().UTC()
	if insp.CreatedAt.IsZero() {
		insp.CreatedAt = now
	}
	if insp.UpdatedAt.IsZero() {
		insp.UpdatedAt = insp.CreatedAt
	}

	paths := make(map[string]bool, len(insp.Items))
	for i := range insp.Items {
		item := &insp.Items[i]
		if item.Path == "" {
			return errclass.ErrInvalidArgument.WithMessagef("item %d has no path", i)
		}
		if err := checkText(fmt.Sprintf("item %d", i), item.ID, item.Path, item.Label, item.Type, deref(item.Notes)); err != nil {
			return err
		}
		if paths[item.Path] {
			return errclass.ErrInvalidArgument.WithMessagef("duplicate item path %q", item.Path)
		}
		paths[item.Path] = true
		if item.Value != nil && !item.Value.IsValid() {
			return errclass.ErrInvalidArgument.WithMessagef("item %q has invalid value %q", item.Path, *item.Value)
		}
		if item.CreatedAt.IsZero() {
			item.CreatedAt = insp.CreatedAt
		}
		if item.UpdatedAt.IsZero() {
			item.UpdatedAt = item.CreatedAt
		}
	}

	for i := range insp.Photos {
		p := &insp.Photos[i]
		if err := checkText(fmt.Sprintf("photo %d", i), p.ID, p.ItemPath, p.FileRef, p.Filename); err != nil {
			return err
		}
	}

	roles := make(map[entities.SignatureRole]bool, len(insp.Signatures))
	for i := range insp.Signatures {
		sig := &insp.Signatures[i]
		if !sig.Role.IsValid() {
			return errclass.ErrInvalidArgument.WithMessagef("signature %d has invalid role %q", i, sig.Role)
		}
		if roles[sig.Role] {
			return errclass.ErrInvalidArgument.WithMessagef("duplicate %s signature", sig.Role)
		}
		roles[sig.Role] = true
		if err := checkText(fmt.Sprintf("signature %d", i), sig.ID, sig.SignedByName, sig.FileRef); err != nil {
			return err
		}
		sig.InspectionID = insp.ID
		if sig.CreatedAt.IsZero() {
			sig.CreatedAt = sig.SignedAt
		}
	}

	return nil
}

// checkText rejects strings that are not valid UTF-8. The canonical record
// refuses them, so they are stopped at intake.
func checkText(what string, values ...string) error {
	for _, v := range values {
		if !utf8.ValidString(v) {
			return errclass.ErrInvalidArgument.WithMessagef("%s contains text that is not valid UTF-8: %q", what, v)
		}
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
