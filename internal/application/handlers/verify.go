package handlers

import (
	"context"
	"net/url"
	"strings"

	"github.com/vistoria/vistoria-core/internal/domain/services"
)

// VerifyHandler handles verification from the command line.
type VerifyHandler struct {
	verification *services.VerificationService
}

// NewVerifyHandler creates a new verify handler.
func NewVerifyHandler(verification *services.VerificationService) *VerifyHandler {
	return &VerifyHandler{
		verification: verification,
	}
}

// Handle verifies a bare token or a full verification URL such as the one
// printed under a report's QR code.
func (h *VerifyHandler) Handle(ctx context.Context, tokenOrURL string) (*services.VerificationResult, error) {
	return h.verification.Verify(ctx, ExtractToken(tokenOrURL))
}

// ExtractToken returns the token query parameter of a URL, or s unchanged
// when it is not a URL.
func ExtractToken(s string) string {
	s = strings.TrimSpace(s)
	if !strings.Contains(s, "://") && !strings.HasPrefix(s, "/") {
		return s
	}
	u, err := url.Parse(s)
	if err != nil {
		return s
	}
	return u.Query().Get("token")
}
