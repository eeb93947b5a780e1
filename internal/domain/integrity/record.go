package integrity

import (
	"errors"
	"fmt"
	"time"

	"github.com/vistoria/vistoria-core/internal/domain/canonical"
	"github.com/vistoria/vistoria-core/internal/domain/entities"
	"github.com/vistoria/vistoria-core/internal/domain/errclass"
)

// SchemaVersion identifies the field allowlist below. Any change to the
// selected fields or their encoding needs a new version.
const SchemaVersion = "inspection-record/v1"

// TimeLayout is the fixed-width UTC layout used for every timestamp in the record.
const TimeLayout = "2006-01-02T15:04:05.000000Z"

// FormatTime renders t in TimeLayout.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// BuildCanonicalRecord selects the v1 allowlist from an inspection aggregate.
// Excludes: updated_at everywhere, item require_photo, photo mime_type and
// file_size, signature email, ip_address, user_agent and geo.
func BuildCanonicalRecord(insp *entities.Inspection) (canonical.Value, error) {
	if insp == nil {
		return nil, errclass.ErrRecordInvalid.WithMessage("nil inspection")
	}

	record := canonical.NewObject().
		Set("schema", canonical.String(SchemaVersion)).
		Set("id", canonical.String(insp.ID)).
		SetNonEmpty("number", insp.Number).
		SetNonEmpty("title", insp.Title).
		SetNonEmpty("template_id", insp.TemplateID).
		SetNonEmpty("organization_id", insp.OrganizationID).
		SetNonEmpty("status", string(insp.Status)).
		Set("created_at", timeValue(insp.CreatedAt))

	if insp.SignedAt != nil {
		record.Set("signed_at", timeValue(*insp.SignedAt))
	}

	if len(insp.Context) > 0 {
		v, err := canonical.FromJSON(insp.Context)
		if err != nil {
			return nil, errclass.ErrRecordInvalid.WithMessage("context_json").Wrap(err)
		}
		record.Set("context", v)
	}

	if len(insp.Data) > 0 {
		v, err := canonical.FromJSON(insp.Data)
		if err != nil {
			return nil, errclass.ErrRecordInvalid.WithMessage("data_json").Wrap(err)
		}
		record.Set("answers", v)
	}

	items := make(canonical.List, 0, len(insp.Items))
	for i := range insp.Items {
		items = append(items, itemValue(&insp.Items[i]))
	}
	record.Set("items", items)

	photos := make(canonical.List, 0, len(insp.Photos))
	for i := range insp.Photos {
		photos = append(photos, photoValue(&insp.Photos[i]))
	}
	record.Set("photos", photos)

	signatures := make(canonical.List, 0, len(insp.Signatures))
	for i := range insp.Signatures {
		signatures = append(signatures, signatureValue(&insp.Signatures[i]))
	}
	record.Set("signatures", signatures)

	return record, nil
}

// BuildCanonicalJSON assembles, canonicalizes and digests an inspection.
func BuildCanonicalJSON(insp *entities.Inspection) (canonicalJSON, digest string, err error) {
	record, err := BuildCanonicalRecord(insp)
	if err != nil {
		return "", "", err
	}

	canonicalJSON, err = canonical.Canonicalize(record)
	if errors.Is(err, canonical.ErrInvalidUTF8) {
		return "", "", errclass.ErrRecordInvalid.WithMessage("inspection text").Wrap(err)
	}
	if err != nil {
		return "", "", fmt.Errorf("canonicalizing record: %w", err)
	}

	return canonicalJSON, Digest(canonicalJSON), nil
}

func itemValue(item *entities.InspectionItem) canonical.Value {
	obj := canonical.NewObject().
		Set("id", canonical.String(item.ID)).
		Set("path", canonical.String(item.Path)).
		SetNonEmpty("label", item.Label).
		SetNonEmpty("type", item.Type).
		SetString("notes", item.Notes)
	if item.Value != nil {
		obj.Set("value", canonical.String(*item.Value))
	}
	return obj
}

func photoValue(p *entities.Photo) canonical.Value {
	return canonical.NewObject().
		Set("id", canonical.String(p.ID)).
		SetNonEmpty("item_path", p.ItemPath).
		SetNonEmpty("file_ref", p.FileRef).
		SetNonEmpty("filename", p.Filename).
		Set("created_at", timeValue(p.CreatedAt))
}

func signatureValue(s *entities.Signature) canonical.Value {
	return canonical.NewObject().
		Set("id", canonical.String(s.ID)).
		Set("role", canonical.String(string(s.Role))).
		SetNonEmpty("signed_by_name", s.SignedByName).
		Set("signed_at", timeValue(s.SignedAt)).
		SetNonEmpty("file_ref", s.FileRef)
}

func timeValue(t time.Time) canonical.Value {
	if t.IsZero() {
		return nil
	}
	return canonical.String(FormatTime(t))
}
