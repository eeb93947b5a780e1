package entities

import "time"

// IntegrityRecord binds a stored PDF to the canonical JSON it was rendered from.
// Records are immutable; the newest one per inspection is authoritative.
type IntegrityRecord struct {
	ID            string    `json:"id"`
	InspectionID  string    `json:"inspection_id"`
	FileRef       string    `json:"file_ref"`
	FileCID       string    `json:"file_cid,omitempty"`
	Filename      string    `json:"filename"`
	CanonicalJSON string    `json:"canonical_json"`
	SHA256        string    `json:"sha256"`
	SchemaVersion string    `json:"schema_version"`
	FileSize      int64     `json:"file_size"`
	GeneratedAt   time.Time `json:"generated_at"`
}

// IsComplete reports whether the record references a stored file.
func (r *IntegrityRecord) IsComplete() bool {
	return r.FileRef != "" && r.SHA256 != "" && r.CanonicalJSON != ""
}
