package handlers

import (
	"context"
	"fmt"
	"os"

	"github.com/vistoria/vistoria-core/internal/domain/entities"
	"github.com/vistoria/vistoria-core/internal/domain/errclass"
	"github.com/vistoria/vistoria-core/internal/domain/services"
)

// maxSignatureImage bounds the size of a signature PNG.
const maxSignatureImage = 2 << 20

// SignHandler handles capturing signatures.
type SignHandler struct {
	signatures *services.SignatureService
}

// NewSignHandler creates a new sign handler.
func NewSignHandler(signatures *services.SignatureService) *SignHandler {
	return &SignHandler{
		signatures: signatures,
	}
}

// SignOptions describes one signature.
type SignOptions struct {
	Role       string
	Name       string
	Email      string
	ImagePath  string
	ConsentGeo bool
	UserAgent  string
}

// Handle reads the signature image and records the signature.
func (h *SignHandler) Handle(ctx context.Context, inspectionID string, opts SignOptions) (*entities.Signature, error) {
	role := entities.SignatureRole(opts.Role)
	if !role.IsValid() {
		return nil, errclass.ErrInvalidArgument.WithMessagef("invalid role %q (valid: inspector, client)", opts.Role)
	}

	info, err := os.Stat(opts.ImagePath)
	if err != nil {
		return nil, fmt.Errorf("reading signature image: %w", err)
	}
	if info.Size() > maxSignatureImage {
		return nil, errclass.ErrInvalidArgument.WithMessagef("signature image is larger than %d bytes", maxSignatureImage)
	}
	image, err := os.ReadFile(opts.ImagePath)
	if err != nil {
		return nil, fmt.Errorf("reading signature image: %w", err)
	}

	return h.signatures.Sign(ctx, services.SignRequest{
		InspectionID: inspectionID,
		Role:         role,
		SignerName:   opts.Name,
		SignerEmail:  opts.Email,
		Image:        image,
		UserAgent:    opts.UserAgent,
		ConsentGeo:   opts.ConsentGeo,
	})
}
