package entities

import (
	"fmt"
	"time"
)

// LinkKind distinguishes what a public token grants.
type LinkKind string

const (
	LinkVerification        LinkKind = "verification"
	LinkSignatureCollection LinkKind = "signature-collection"
)

// ParseLinkKind converts a CLI or API string into a LinkKind.
func ParseLinkKind(s string) (LinkKind, error) {
	switch s {
	case "verification", "verify":
		return LinkVerification, nil
	case "signature-collection", "sign":
		return LinkSignatureCollection, nil
	default:
		return "", fmt.Errorf("invalid link kind: %s (valid: verification, signature-collection)", s)
	}
}

// PublicLink is an unauthenticated capability token for one inspection.
type PublicLink struct {
	ID           string    `json:"id"`
	InspectionID string    `json:"inspection_id"`
	Token        string    `json:"token"`
	Kind         LinkKind  `json:"kind"`
	ExpiresAt    time.Time `json:"expires_at"`
	IsRevoked    bool      `json:"is_revoked"`
	ViewsCount   int       `json:"views_count"`
	MaxViews     *int      `json:"max_views,omitempty"`
	CreatedBy    string    `json:"created_by,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// IsExpired reports whether the link can no longer be used at now.
// Revocation, a passed expiry and an exhausted view budget all count.
func (l *PublicLink) IsExpired(now time.Time) bool {
	if l.IsRevoked {
		return true
	}
	if now.After(l.ExpiresAt) {
		return true
	}
	return l.MaxViews != nil && l.ViewsCount >= *l.MaxViews
}
