package mocks

import (
	"context"
	"fmt"

	"github.com/vistoria/vistoria-core/internal/domain/ports"
)

// Renderer is a mock implementation of ports.Renderer.
// It records every document and returns a small fake PDF.
type Renderer struct {
	Documents []*ports.ReportDocument
	Err       error
}

// Render records doc and returns fake PDF bytes that embed the digest.
func (m *Renderer) Render(_ context.Context, doc *ports.ReportDocument) ([]byte, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.Documents = append(m.Documents, doc)
	return []byte(fmt.Sprintf("%%PDF-1.4\n%% %s %s\n%%%%EOF\n", doc.Inspection.ID, doc.Digest)), nil
}
