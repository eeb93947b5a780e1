package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vistoria/vistoria-core/internal/domain/entities"
	"github.com/vistoria/vistoria-core/internal/domain/mocks"
)

var fixedNow = time.Date(2026, 3, 2, 14, 0, 0, 0, time.UTC)

// setNow freezes timeNow for the duration of the test.
func setNow(t *testing.T, now time.Time) {
	t.Helper()
	prev := timeNow
	timeNow = func() time.Time { return now }
	t.Cleanup(func() { timeNow = prev })
}

// ins1 is inspection INS-1: items a=ok, b=pending and no signatures.
func ins1() *entities.Inspection {
	ok := entities.ItemOK
	pending := entities.ItemPending
	created := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	return &entities.Inspection{
		ID:             "INS-1",
		Number:         "2026-0001",
		Title:          "Apartment move-out",
		OrganizationID: "org-1",
		Status:         entities.InspectionAwaitingSign,
		Context:        json.RawMessage(`{"address":"Rua A, 10"}`),
		Data:           json.RawMessage(`{"a":"ok","b":"pending"}`),
		CreatedAt:      created,
		UpdatedAt:      created,
		Items: []entities.InspectionItem{
			{ID: "item-a", Path: "a", Label: "Walls", Type: "boolean", Value: &ok, CreatedAt: created, UpdatedAt: created},
			{ID: "item-b", Path: "b", Label: "Windows", Type: "boolean", Value: &pending, CreatedAt: created, UpdatedAt: created},
		},
	}
}

// signedIns1 is INS-1 with both required signatures.
func signedIns1() *entities.Inspection {
	insp := ins1()
	signedAt := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	insp.Status = entities.InspectionSigned
	insp.SignedAt = &signedAt
	insp.Signatures = []entities.Signature{
		{ID: "sig-i", InspectionID: "INS-1", Role: entities.RoleInspector, SignedByName: "Ana", SignedAt: signedAt, FileRef: "INS-1/inspector/1.png"},
		{ID: "sig-c", InspectionID: "INS-1", Role: entities.RoleClient, SignedByName: "Bruno", SignedAt: signedAt, FileRef: "INS-1/client/2.png"},
	}
	return insp
}

type fixture struct {
	db       *mocks.RelationalDB
	blobs    *mocks.BlobStore
	renderer *mocks.Renderer
	metrics  *mocks.Metrics
	policy   LinkPolicy

	reports      *ReportService
	verification *VerificationService
	links        *LinkService
	inspections  *InspectionService
}

func newFixture(t *testing.T, seed ...*entities.Inspection) *fixture {
	t.Helper()

	f := &fixture{
		db:       mocks.NewRelationalDB(),
		blobs:    mocks.NewBlobStore(),
		renderer: &mocks.Renderer{},
		metrics:  mocks.NewMetrics(),
		policy:   LinkPolicy{PublicBaseURL: "https://verify.example.com/"},
	}
	for _, insp := range seed {
		require.NoError(t, f.db.SaveInspection(context.Background(), insp))
	}

	f.reports = NewReportService(f.db, f.blobs, f.renderer, f.metrics, f.policy)
	f.verification = NewVerificationService(f.db, f.db, f.blobs, f.metrics, 0)
	f.links = NewLinkService(f.db, f.policy)
	f.inspections = NewInspectionService(f.db)
	return f
}

// generate produces a report for INS-1 and returns the link token.
func (f *fixture) generate(t *testing.T) *GenerateResult {
	t.Helper()
	result, err := f.reports.Generate(context.Background(), "INS-1", GenerateOptions{})
	require.NoError(t, err)
	return result
}
