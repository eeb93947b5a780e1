// Package entities contains core domain data structures.
package entities

import (
	"encoding/json"
	"time"
)

// InspectionStatus is the lifecycle state of an inspection.
type InspectionStatus string

const (
	InspectionDraft        InspectionStatus = "draft"
	InspectionAwaitingSign InspectionStatus = "awaiting_sign"
	InspectionSigned       InspectionStatus = "signed"
	InspectionArchived     InspectionStatus = "archived"
)

// ValidInspectionStatuses lists every accepted status string.
var ValidInspectionStatuses = []InspectionStatus{
	InspectionDraft,
	InspectionAwaitingSign,
	InspectionSigned,
	InspectionArchived,
}

// IsValid reports whether s is a known inspection status.
func (s InspectionStatus) IsValid() bool {
	for _, v := range ValidInspectionStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Inspection is the aggregate root read by the integrity binder.
// Context and Data hold free-form JSON owned by the inspection editor:
// Context describes the inspected object, Data maps item paths to answers.
type Inspection struct {
	ID             string           `json:"id"`
	Number         string           `json:"number"`
	Title          string           `json:"title"`
	TemplateID     string           `json:"template_id,omitempty"`
	OrganizationID string           `json:"organization_id"`
	Status         InspectionStatus `json:"status"`
	Context        json.RawMessage  `json:"context_json,omitempty"`
	Data           json.RawMessage  `json:"data_json,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
	SignedAt       *time.Time       `json:"signed_at,omitempty"`

	Items      []InspectionItem `json:"items"`
	Photos     []Photo          `json:"photos"`
	Signatures []Signature      `json:"signatures"`
}

// ItemValue is the answer recorded for a checklist item.
type ItemValue string

const (
	ItemOK      ItemValue = "ok"
	ItemPending ItemValue = "pending"
	ItemNA      ItemValue = "na"
)

// IsValid reports whether v is a known item answer.
func (v ItemValue) IsValid() bool {
	return v == ItemOK || v == ItemPending || v == ItemNA
}

// InspectionItem is one checklist line of an inspection.
type InspectionItem struct {
	ID           string     `json:"id"`
	Path         string     `json:"path"`
	Label        string     `json:"label"`
	Type         string     `json:"type"`
	Value        *ItemValue `json:"value,omitempty"`
	Notes        *string    `json:"notes,omitempty"`
	RequirePhoto bool       `json:"require_photo"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Photo is evidence attached to an item path.
type Photo struct {
	ID        string    `json:"id"`
	ItemPath  string    `json:"item_path"`
	FileRef   string    `json:"file_ref"`
	Filename  string    `json:"filename"`
	MimeType  string    `json:"mime_type,omitempty"`
	FileSize  int64     `json:"file_size,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// SignatureRole identifies who signed.
type SignatureRole string

const (
	RoleInspector SignatureRole = "inspector"
	RoleClient    SignatureRole = "client"
)

// RequiredSignatureRoles must all be present before a report can be generated.
var RequiredSignatureRoles = []SignatureRole{RoleInspector, RoleClient}

// IsValid reports whether r is a known signature role.
func (r SignatureRole) IsValid() bool {
	return r == RoleInspector || r == RoleClient
}

// GeoPoint is an optional location captured while signing.
type GeoPoint struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
	Accuracy  float64 `json:"accuracy,omitempty"`
}

// Signature is a captured signature image with signer metadata.
type Signature struct {
	ID            string        `json:"id"`
	InspectionID  string        `json:"inspection_id"`
	Role          SignatureRole `json:"role"`
	SignedByName  string        `json:"signed_by_name"`
	SignedByEmail string        `json:"signed_by_email,omitempty"`
	SignedAt      time.Time     `json:"signed_at"`
	FileRef       string        `json:"file_ref"`
	UserAgent     string        `json:"user_agent,omitempty"`
	IPAddress     string        `json:"ip_address,omitempty"`
	Geo           *GeoPoint     `json:"geo,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
}

// MissingSignatureRoles returns the required roles that have no signature yet.
func (i *Inspection) MissingSignatureRoles() []SignatureRole {
	present := make(map[SignatureRole]bool, len(i.Signatures))
	for idx := range i.Signatures {
		present[i.Signatures[idx].Role] = true
	}

	var missing []SignatureRole
	for _, role := range RequiredSignatureRoles {
		if !present[role] {
			missing = append(missing, role)
		}
	}
	return missing
}

// HasRequiredSignatures reports whether every required role has signed.
func (i *Inspection) HasRequiredSignatures() bool {
	return len(i.MissingSignatureRoles()) == 0
}

// ItemByPath returns the item at path, or nil.
func (i *Inspection) ItemByPath(path string) *InspectionItem {
	for idx := range i.Items {
		if i.Items[idx].Path == path {
			return &i.Items[idx]
		}
	}
	return nil
}
