package integrity

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/vistoria/vistoria-core/internal/domain/entities"
)

// Token sizes in random bytes.
const (
	VerificationTokenBytes = 16
	SignatureTokenBytes    = 24
)

// NewToken returns a hex token drawn from crypto/rand, sized for kind.
func NewToken(kind entities.LinkKind) (string, error) {
	n := VerificationTokenBytes
	if kind == entities.LinkSignatureCollection {
		n = SignatureTokenBytes
	}

	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("reading random bytes: %w", err)
	}
	return hex.EncodeToString(b), nil
}
