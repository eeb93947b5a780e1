package postgres

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vistoria/vistoria-core/internal/domain/entities"
	"github.com/vistoria/vistoria-core/internal/domain/ports"
	"github.com/vistoria/vistoria-core/internal/infrastructure/config"
)

// setupTestRepo connects to the database named by VISTORIA_POSTGRES_TEST_DSN.
// Each test gets fresh ids so runs do not collide.
func setupTestRepo(t *testing.T) *Repository {
	t.Helper()
	dsn := os.Getenv("VISTORIA_POSTGRES_TEST_DSN")
	if dsn == "" {
		t.Skip("VISTORIA_POSTGRES_TEST_DSN not set")
	}

	ctx := context.Background()
	repo, err := NewRepository(ctx, config.DatabaseConfig{Driver: config.DriverPostgres, DSN: dsn})
	require.NoError(t, err)
	require.NoError(t, repo.EnsureSchema(ctx))
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func sampleInspection() *entities.Inspection {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	ok := entities.ItemOK
	notes := "scratch near the door"
	return &entities.Inspection{
		ID:             uuid.NewString(),
		Number:         "VST-1",
		Title:          "Apartment 12",
		OrganizationID: "org-1",
		Status:         entities.InspectionDraft,
		Context:        json.RawMessage(`{"address":"Rua A, 1"}`),
		CreatedAt:      now,
		UpdatedAt:      now,
		Items: []entities.InspectionItem{
			{ID: uuid.NewString(), Path: "b.door", Label: "Door", Type: "check", Value: &ok, Notes: &notes, CreatedAt: now, UpdatedAt: now},
			{ID: uuid.NewString(), Path: "a.wall", Label: "Wall", Type: "check", RequirePhoto: true, CreatedAt: now, UpdatedAt: now},
		},
		Photos: []entities.Photo{
			{ID: uuid.NewString(), ItemPath: "a.wall", FileRef: "photos/1.jpg", Filename: "1.jpg", MimeType: "image/jpeg", FileSize: 10, CreatedAt: now},
		},
		Signatures: []entities.Signature{
			{
				ID: uuid.NewString(), Role: entities.RoleInspector, SignedByName: "Ana",
				SignedAt: now, FileRef: "sig/1.png", CreatedAt: now,
				Geo: &entities.GeoPoint{Latitude: -23.5, Longitude: -46.6},
			},
		},
	}
}

func TestPostgres_InspectionRoundTrip(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()
	insp := sampleInspection()

	require.NoError(t, repo.SaveInspection(ctx, insp))

	got, err := repo.FindInspection(ctx, insp.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, insp.Title, got.Title)
	assert.JSONEq(t, string(insp.Context), string(got.Context))
	require.Len(t, got.Items, 2)
	assert.Equal(t, "b.door", got.Items[0].Path, "items keep insertion order")
	assert.Equal(t, entities.ItemOK, *got.Items[0].Value)
	assert.Nil(t, got.Items[1].Value)
	require.Len(t, got.Photos, 1)
	require.Len(t, got.Signatures, 1)
	require.NotNil(t, got.Signatures[0].Geo)
	assert.InDelta(t, -23.5, got.Signatures[0].Geo.Latitude, 1e-9)

	missing, err := repo.FindInspection(ctx, uuid.NewString())
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestPostgres_UpdateItemValue(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()
	insp := sampleInspection()
	require.NoError(t, repo.SaveInspection(ctx, insp))

	na := entities.ItemNA
	found, err := repo.UpdateItemValue(ctx, insp.ID, "a.wall", &na, nil)
	require.NoError(t, err)
	assert.True(t, found)

	found, err = repo.UpdateItemValue(ctx, insp.ID, "no.such", &na, nil)
	require.NoError(t, err)
	assert.False(t, found)

	got, err := repo.FindInspection(ctx, insp.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.ItemNA, *got.Items[1].Value)
}

func TestPostgres_IntegrityRecordsAndLinks(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()
	inspectionID := uuid.NewString()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	for i, at := range []time.Time{base, base.Add(time.Hour)} {
		require.NoError(t, repo.SaveIntegrityRecord(ctx, &entities.IntegrityRecord{
			ID: uuid.NewString(), InspectionID: inspectionID, FileRef: "reports/r.pdf",
			CanonicalJSON: `{"n":` + string(rune('0'+i)) + `}`, SHA256: "ab",
			SchemaVersion: "inspection-record/v1", GeneratedAt: at,
		}))
	}
	latest, err := repo.FindLatestIntegrityRecord(ctx, inspectionID)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, base.Add(time.Hour), latest.GeneratedAt)

	maxViews := 3
	token := uuid.NewString()
	require.NoError(t, repo.SaveLink(ctx, &entities.PublicLink{
		ID: uuid.NewString(), InspectionID: inspectionID, Token: token,
		Kind: entities.LinkVerification, ExpiresAt: base.Add(24 * time.Hour),
		MaxViews: &maxViews, CreatedAt: base,
	}))
	require.NoError(t, repo.IncrementLinkViews(ctx, token))

	link, err := repo.FindLinkByToken(ctx, token)
	require.NoError(t, err)
	require.NotNil(t, link)
	assert.Equal(t, 1, link.ViewsCount)
	require.NotNil(t, link.MaxViews)
	assert.Equal(t, 3, *link.MaxViews)

	revoked, err := repo.RevokeLink(ctx, token)
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = repo.RevokeLink(ctx, "unknown")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestPostgres_WithTxRollback(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()
	insp := sampleInspection()

	err := repo.WithTx(ctx, func(tx ports.RelationalDB) error {
		require.NoError(t, tx.SaveInspection(ctx, insp))
		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)

	got, err := repo.FindInspection(ctx, insp.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestNewRepository_RequiresDSN(t *testing.T) {
	_, err := NewRepository(context.Background(), config.DatabaseConfig{Driver: config.DriverPostgres})
	assert.Error(t, err)
}
