package handlers

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vistoria/vistoria-core/internal/domain/entities"
	"github.com/vistoria/vistoria-core/internal/domain/errclass"
	"github.com/vistoria/vistoria-core/internal/domain/mocks"
	"github.com/vistoria/vistoria-core/internal/domain/services"
)

type app struct {
	db          *mocks.RelationalDB
	blobs       *mocks.BlobStore
	inspections *InspectionHandler
	signer      *SignHandler
	generator   *GenerateHandler
	links       *LinkHandler
	verifier    *VerifyHandler
}

func newApp(t *testing.T) *app {
	t.Helper()
	db := mocks.NewRelationalDB()
	blobs := mocks.NewBlobStore()
	policy := services.LinkPolicy{PublicBaseURL: "https://verify.example.com"}

	ok := entities.ItemOK
	require.NoError(t, db.SaveInspection(context.Background(), &entities.Inspection{
		ID:        "INS-1",
		Number:    "2026-0001",
		Status:    entities.InspectionAwaitingSign,
		Data:      json.RawMessage(`{"a":"ok"}`),
		CreatedAt: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
		Items:     []entities.InspectionItem{{ID: "item-a", Path: "a", Label: "Walls", Value: &ok}},
	}))

	return &app{
		db:          db,
		blobs:       blobs,
		inspections: NewInspectionHandler(services.NewInspectionService(db)),
		signer:      NewSignHandler(services.NewSignatureService(db, blobs, nil, 0)),
		generator:   NewGenerateHandler(services.NewReportService(db, blobs, &mocks.Renderer{}, nil, policy)),
		links:       NewLinkHandler(services.NewLinkService(db, policy)),
		verifier:    NewVerifyHandler(services.NewVerificationService(db, db, blobs, nil, 0)),
	}
}

func signatureImage(t *testing.T) string {
	t.Helper()
	return writeFile(t, "signature.png", "\x89PNG\r\n\x1a\nfake-image-body")
}

func (a *app) signBoth(t *testing.T) {
	t.Helper()
	img := signatureImage(t)
	for _, role := range []string{"inspector", "client"} {
		_, err := a.signer.Handle(context.Background(), "INS-1", SignOptions{Role: role, Name: "Signer " + role, ImagePath: img})
		require.NoError(t, err)
	}
}

func TestWorkflow_SignGenerateVerify(t *testing.T) {
	a := newApp(t)
	ctx := context.Background()

	_, err := a.generator.Handle(ctx, "INS-1", GenerateOptions{})
	assert.ErrorIs(t, err, errclass.ErrSignaturesMissing)

	a.signBoth(t)

	result, err := a.generator.Handle(ctx, "INS-1", GenerateOptions{MaxViews: 2, CreatedBy: "ana"})
	require.NoError(t, err)
	require.NotNil(t, result.Link.MaxViews)
	assert.Equal(t, 2, *result.Link.MaxViews)

	verdict, err := a.verifier.Handle(ctx, result.VerificationURL)
	require.NoError(t, err)
	assert.Equal(t, entities.VerdictVerified, verdict.Verdict)
	assert.NotEmpty(t, verdict.DownloadURL)

	verdict, err = a.verifier.Handle(ctx, result.Link.Token)
	require.NoError(t, err)
	assert.Equal(t, entities.VerdictVerified, verdict.Verdict)

	verdict, err = a.verifier.Handle(ctx, result.Link.Token)
	require.NoError(t, err)
	assert.Equal(t, entities.VerdictExpired, verdict.Verdict)

	history, err := a.generator.History(ctx, "INS-1")
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestWorkflow_EditAfterGenerateStaysVerified(t *testing.T) {
	a := newApp(t)
	ctx := context.Background()
	a.signBoth(t)

	result, err := a.generator.Handle(ctx, "INS-1", GenerateOptions{})
	require.NoError(t, err)

	notes := "repainted"
	require.NoError(t, a.inspections.SetItem(ctx, "INS-1", "a", " NA ", &notes))

	insp, err := a.inspections.Get(ctx, "INS-1")
	require.NoError(t, err)
	assert.Equal(t, entities.ItemNA, *insp.Items[0].Value)

	verdict, err := a.verifier.Handle(ctx, result.Link.Token)
	require.NoError(t, err)
	assert.Equal(t, entities.VerdictVerified, verdict.Verdict)
}

func TestSignHandler_Errors(t *testing.T) {
	a := newApp(t)
	ctx := context.Background()

	_, err := a.signer.Handle(ctx, "INS-1", SignOptions{Role: "witness", Name: "X", ImagePath: signatureImage(t)})
	assert.ErrorIs(t, err, errclass.ErrInvalidArgument)

	_, err = a.signer.Handle(ctx, "INS-1", SignOptions{Role: "client", Name: "X", ImagePath: filepath.Join(t.TempDir(), "none.png")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading signature image")

	big := filepath.Join(t.TempDir(), "big.png")
	require.NoError(t, os.WriteFile(big, make([]byte, maxSignatureImage+1), 0644))
	_, err = a.signer.Handle(ctx, "INS-1", SignOptions{Role: "client", Name: "X", ImagePath: big})
	assert.ErrorIs(t, err, errclass.ErrInvalidArgument)
}

func TestLinkHandler(t *testing.T) {
	a := newApp(t)
	ctx := context.Background()

	view, err := a.links.Create(ctx, "INS-1", CreateLinkOptions{Kind: "sign", Validity: time.Hour})
	require.NoError(t, err)
	assert.Equal(t, entities.LinkSignatureCollection, view.Kind)
	assert.Equal(t, "active", view.Status)
	assert.Contains(t, view.URL, "https://verify.example.com/verify?token="+view.Token)

	_, err = a.links.Create(ctx, "INS-1", CreateLinkOptions{Kind: "download"})
	assert.ErrorIs(t, err, errclass.ErrInvalidArgument)

	_, err = a.links.Create(ctx, "INS-1", CreateLinkOptions{MaxViews: -1})
	assert.ErrorIs(t, err, errclass.ErrInvalidArgument)

	require.NoError(t, a.links.Revoke(ctx, view.Token))
	assert.ErrorIs(t, a.links.Revoke(ctx, "missing"), errclass.ErrLinkNotFound)

	views, err := a.links.List(ctx, "INS-1")
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "revoked", views[0].Status)
}

func TestLinkStatus(t *testing.T) {
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	one := 1
	tests := []struct {
		name string
		link entities.PublicLink
		want string
	}{
		{name: "active", link: entities.PublicLink{ExpiresAt: now.Add(time.Hour)}, want: "active"},
		{name: "revoked", link: entities.PublicLink{ExpiresAt: now.Add(time.Hour), IsRevoked: true}, want: "revoked"},
		{name: "expired", link: entities.PublicLink{ExpiresAt: now.Add(-time.Hour)}, want: "expired"},
		{name: "exhausted", link: entities.PublicLink{ExpiresAt: now.Add(time.Hour), MaxViews: &one, ViewsCount: 1}, want: "exhausted"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, linkStatus(&tt.link, now))
		})
	}
}

func TestExtractToken(t *testing.T) {
	assert.Equal(t, "abc", ExtractToken(" abc "))
	assert.Equal(t, "abc", ExtractToken("https://verify.example.com/verify?token=abc"))
	assert.Equal(t, "abc", ExtractToken("/verify?token=abc&x=1"))
	assert.Equal(t, "", ExtractToken("https://verify.example.com/verify"))
}

func TestMaxViews(t *testing.T) {
	assert.Nil(t, maxViews(0))
	require.NotNil(t, maxViews(3))
	assert.Equal(t, 3, *maxViews(3))
	assert.Equal(t, -1, *maxViews(-1))
}
