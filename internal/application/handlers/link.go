package handlers

import (
	"context"
	"time"

	"github.com/vistoria/vistoria-core/internal/domain/entities"
	"github.com/vistoria/vistoria-core/internal/domain/errclass"
	"github.com/vistoria/vistoria-core/internal/domain/services"
)

// LinkHandler handles public link management.
type LinkHandler struct {
	links *services.LinkService
}

// NewLinkHandler creates a new link handler.
func NewLinkHandler(links *services.LinkService) *LinkHandler {
	return &LinkHandler{
		links: links,
	}
}

// LinkView is a link together with its shareable URL.
type LinkView struct {
	entities.PublicLink
	URL    string `json:"url"`
	Status string `json:"status"`
}

// CreateLinkOptions controls link creation.
type CreateLinkOptions struct {
	Kind      string
	Validity  time.Duration
	MaxViews  int
	CreatedBy string
}

// Create issues a new link for an inspection.
func (h *LinkHandler) Create(ctx context.Context, inspectionID string, opts CreateLinkOptions) (*LinkView, error) {
	var kind entities.LinkKind
	if opts.Kind != "" {
		k, err := entities.ParseLinkKind(opts.Kind)
		if err != nil {
			return nil, errclass.ErrInvalidArgument.WithMessage(err.Error())
		}
		kind = k
	}

	link, err := h.links.Create(ctx, inspectionID, services.LinkOptions{
		Kind:      kind,
		Validity:  opts.Validity,
		MaxViews:  maxViews(opts.MaxViews),
		CreatedBy: opts.CreatedBy,
	})
	if err != nil {
		return nil, err
	}
	return h.view(link), nil
}

// Revoke disables the link with token.
func (h *LinkHandler) Revoke(ctx context.Context, token string) error {
	return h.links.Revoke(ctx, token)
}

// List returns the links of an inspection, newest first.
func (h *LinkHandler) List(ctx context.Context, inspectionID string) ([]LinkView, error) {
	links, err := h.links.List(ctx, inspectionID)
	if err != nil {
		return nil, err
	}

	views := make([]LinkView, 0, len(links))
	for i := range links {
		views = append(views, *h.view(&links[i]))
	}
	return views, nil
}

func (h *LinkHandler) view(link *entities.PublicLink) *LinkView {
	return &LinkView{
		PublicLink: *link,
		URL:        h.links.URL(link.Token),
		Status:     linkStatus(link, time.Now()),
	}
}

func linkStatus(link *entities.PublicLink, now time.Time) string {
	switch {
	case link.IsRevoked:
		return "revoked"
	case now.After(link.ExpiresAt):
		return "expired"
	case link.MaxViews != nil && link.ViewsCount >= *link.MaxViews:
		return "exhausted"
	default:
		return "active"
	}
}
