package services

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/uuid"

	"github.com/vistoria/vistoria-core/internal/domain/entities"
	"github.com/vistoria/vistoria-core/internal/domain/errclass"
	"github.com/vistoria/vistoria-core/internal/domain/integrity"
	"github.com/vistoria/vistoria-core/internal/domain/ports"
)

// DefaultLinkValidity is used when neither the caller nor config sets a validity.
const DefaultLinkValidity = 30 * 24 * time.Hour

// timeNow returns the current time (can be mocked in tests).
var timeNow = time.Now

// LinkPolicy holds the settings shared by everything that issues public links.
type LinkPolicy struct {
	PublicBaseURL   string
	DefaultValidity time.Duration
}

func (p LinkPolicy) validity(requested time.Duration) (time.Duration, error) {
	if requested < 0 {
		return 0, errclass.ErrInvalidArgument.WithMessagef("link validity must be positive, got %s", requested)
	}
	if requested > 0 {
		return requested, nil
	}
	if p.DefaultValidity > 0 {
		return p.DefaultValidity, nil
	}
	return DefaultLinkValidity, nil
}

// URL returns the public verification URL for token.
func (p LinkPolicy) URL(token string) string {
	return VerificationURL(p.PublicBaseURL, token)
}

// VerificationURL joins base and token into the public verification URL.
func VerificationURL(base, token string) string {
	return strings.TrimRight(base, "/") + "/verify?token=" + url.QueryEscape(token)
}

// LinkOptions configures a new public link.
type LinkOptions struct {
	Kind      entities.LinkKind
	Validity  time.Duration // zero uses the policy default
	MaxViews  *int
	CreatedBy string
}

// newLink builds an unsaved link with a fresh token.
func (p LinkPolicy) newLink(inspectionID string, opts LinkOptions) (*entities.PublicLink, error) {
	kind := opts.Kind
	if kind == "" {
		kind = entities.LinkVerification
	}

	validity, err := p.validity(opts.Validity)
	if err != nil {
		return nil, err
	}
	if opts.MaxViews != nil && *opts.MaxViews < 1 {
		return nil, errclass.ErrInvalidArgument.WithMessagef("max views must be at least 1, got %d", *opts.MaxViews)
	}

	token, err := integrity.NewToken(kind)
	if err != nil {
		return nil, fmt.Errorf("generating token: %w", err)
	}

	now := timeNow().UTC()
	return &entities.PublicLink{
		ID:           uuid.New().String(),
		InspectionID: inspectionID,
		Token:        token,
		Kind:         kind,
		ExpiresAt:    now.Add(validity),
		MaxViews:     opts.MaxViews,
		CreatedBy:    opts.CreatedBy,
		CreatedAt:    now,
	}, nil
}

// LinkService issues, lists and revokes public links.
type LinkService struct {
	db     ports.RelationalDB
	policy LinkPolicy
}

// NewLinkService creates a new LinkService.
func NewLinkService(db ports.RelationalDB, policy LinkPolicy) *LinkService {
	return &LinkService{
		db:     db,
		policy: policy,
	}
}

// Create issues a new link for an existing inspection.
func (s *LinkService) Create(ctx context.Context, inspectionID string, opts LinkOptions) (*entities.PublicLink, error) {
	insp, err := s.db.FindInspection(ctx, inspectionID)
	if err != nil {
		return nil, fmt.Errorf("loading inspection: %w", err)
	}
	if insp == nil {
		return nil, errclass.ErrInspectionNotFound.WithMessage(inspectionID)
	}

	link, err := s.policy.newLink(inspectionID, opts)
	if err != nil {
		return nil, err
	}

	if err := s.db.SaveLink(ctx, link); err != nil {
		return nil, fmt.Errorf("saving link: %w", err)
	}

	logr.FromContextOrDiscard(ctx).Info("public link created",
		"inspection_id", inspectionID, "kind", link.Kind, "expires_at", link.ExpiresAt)
	return link, nil
}

// Revoke disables a link. Revoking twice is not an error.
func (s *LinkService) Revoke(ctx context.Context, token string) error {
	found, err := s.db.RevokeLink(ctx, token)
	if err != nil {
		return fmt.Errorf("revoking link: %w", err)
	}
	if !found {
		return errclass.ErrLinkNotFound
	}

	logr.FromContextOrDiscard(ctx).Info("public link revoked")
	return nil
}

// List returns the links of an inspection, newest first.
func (s *LinkService) List(ctx context.Context, inspectionID string) ([]entities.PublicLink, error) {
	links, err := s.db.ListLinks(ctx, inspectionID)
	if err != nil {
		return nil, fmt.Errorf("listing links: %w", err)
	}
	return links, nil
}

// URL returns the public verification URL for token.
func (s *LinkService) URL(token string) string {
	return s.policy.URL(token)
}
