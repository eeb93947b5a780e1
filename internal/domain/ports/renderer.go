package ports

import (
	"context"
	"time"

	"github.com/vistoria/vistoria-core/internal/domain/entities"
)

// ReportDocument is everything printed on a generated report.
type ReportDocument struct {
	Inspection      *entities.Inspection
	Digest          string
	VerificationURL string
	GeneratedAt     time.Time
}

// Renderer turns an inspection into a PDF.
type Renderer interface {
	// Render returns the PDF bytes for doc.
	Render(ctx context.Context, doc *ReportDocument) ([]byte, error)
}
