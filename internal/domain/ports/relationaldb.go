// Package ports defines interfaces for external service communication.
package ports

import (
	"context"
	"time"

	"github.com/vistoria/vistoria-core/internal/domain/entities"
)

// InspectionStore reads and writes the inspection aggregate.
// The inspection editor owns these rows; the integrity subsystem mostly reads them.
type InspectionStore interface {
	// SaveInspection inserts or replaces an inspection with its items, photos and signatures.
	SaveInspection(ctx context.Context, insp *entities.Inspection) error

	// FindInspection loads the full aggregate. Returns nil if it does not exist.
	FindInspection(ctx context.Context, id string) (*entities.Inspection, error)

	// ListInspections lists inspections newest first, without children.
	ListInspections(ctx context.Context, limit, offset int) ([]*entities.Inspection, error)

	// UpdateInspectionStatus sets the status and, when non-nil, signed_at.
	UpdateInspectionStatus(ctx context.Context, id string, status entities.InspectionStatus, signedAt *time.Time) error

	// UpdateItemValue changes the live answer of one item.
	// Returns false if no item exists at path.
	UpdateItemValue(ctx context.Context, inspectionID, path string, value *entities.ItemValue, notes *string) (bool, error)

	// SaveSignature inserts a signature.
	SaveSignature(ctx context.Context, sig *entities.Signature) error
}

// IntegrityStore persists integrity records. Records are append-only.
type IntegrityStore interface {
	// SaveIntegrityRecord inserts a new record.
	SaveIntegrityRecord(ctx context.Context, rec *entities.IntegrityRecord) error

	// FindLatestIntegrityRecord returns the newest record by generated_at.
	// Returns nil if the inspection has none.
	FindLatestIntegrityRecord(ctx context.Context, inspectionID string) (*entities.IntegrityRecord, error)

	// ListIntegrityRecords lists all records for an inspection, newest first.
	ListIntegrityRecords(ctx context.Context, inspectionID string) ([]entities.IntegrityRecord, error)
}

// LinkStore persists public links.
type LinkStore interface {
	// SaveLink inserts a new link.
	SaveLink(ctx context.Context, link *entities.PublicLink) error

	// FindLinkByToken finds a link by its token. Returns nil if not found.
	FindLinkByToken(ctx context.Context, token string) (*entities.PublicLink, error)

	// ListLinks lists links for an inspection, newest first.
	ListLinks(ctx context.Context, inspectionID string) ([]entities.PublicLink, error)

	// IncrementLinkViews adds one to views_count. Concurrent increments may be lost.
	IncrementLinkViews(ctx context.Context, token string) error

	// RevokeLink marks a link revoked. Returns false if the token is unknown.
	RevokeLink(ctx context.Context, token string) (bool, error)
}

// RelationalDB defines the interface for relational database operations.
type RelationalDB interface {
	InspectionStore
	IntegrityStore
	LinkStore

	// EnsureSchema creates the database schema if it doesn't exist.
	EnsureSchema(ctx context.Context) error

	// Close closes the database connection.
	Close() error

	// WithTx runs fn inside one transaction. The RelationalDB passed to fn is
	// bound to that transaction; fn returning an error rolls everything back.
	WithTx(ctx context.Context, fn func(tx RelationalDB) error) error
}
