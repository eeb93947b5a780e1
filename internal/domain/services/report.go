// Package services contains domain business logic.
package services

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/uuid"

	"github.com/vistoria/vistoria-core/internal/domain/entities"
	"github.com/vistoria/vistoria-core/internal/domain/errclass"
	"github.com/vistoria/vistoria-core/internal/domain/integrity"
	"github.com/vistoria/vistoria-core/internal/domain/ports"
)

// GenerateOptions configures report generation.
type GenerateOptions struct {
	LinkValidity time.Duration // zero uses the policy default
	MaxViews     *int
	CreatedBy    string
}

// GenerateResult is a successfully bound report.
type GenerateResult struct {
	Record          *entities.IntegrityRecord `json:"record"`
	Link            *entities.PublicLink      `json:"link"`
	VerificationURL string                    `json:"verification_url"`
}

// ReportService renders inspection reports and binds each file to the
// digest of the canonical record it was rendered from.
type ReportService struct {
	db       ports.RelationalDB
	blobs    ports.BlobStore
	renderer ports.Renderer
	metrics  ports.Metrics
	policy   LinkPolicy
}

// NewReportService creates a new ReportService.
func NewReportService(
	db ports.RelationalDB,
	blobs ports.BlobStore,
	renderer ports.Renderer,
	metrics ports.Metrics,
	policy LinkPolicy,
) *ReportService {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &ReportService{
		db:       db,
		blobs:    blobs,
		renderer: renderer,
		metrics:  metrics,
		policy:   policy,
	}
}

// Generate renders, stores and records a report for an inspection, and
// issues a verification link for it.
//
// Both required signatures must exist; otherwise nothing is written. The
// record and link are inserted in one transaction after the file is stored.
// When that transaction fails the stored file is deleted again.
func (s *ReportService) Generate(ctx context.Context, inspectionID string, opts GenerateOptions) (*GenerateResult, error) {
	start := timeNow()
	log := logr.FromContextOrDiscard(ctx).WithValues("inspection_id", inspectionID)

	outcome := ports.GenerationFailed
	defer func() {
		s.metrics.RecordGeneration(outcome, timeNow().Sub(start))
	}()

	insp, err := s.db.FindInspection(ctx, inspectionID)
	if err != nil {
		return nil, fmt.Errorf("loading inspection: %w", err)
	}
	if insp == nil {
		outcome = ports.GenerationRejected
		return nil, errclass.ErrInspectionNotFound.WithMessage(inspectionID)
	}

	if missing := insp.MissingSignatureRoles(); len(missing) > 0 {
		outcome = ports.GenerationRejected
		return nil, errclass.ErrSignaturesMissing.WithMessagef("missing %s", joinRoles(missing))
	}

	canonicalJSON, digest, err := integrity.BuildCanonicalJSON(insp)
	if err != nil {
		outcome = ports.GenerationRejected
		return nil, fmt.Errorf("building canonical record: %w", err)
	}

	link, err := s.policy.newLink(insp.ID, LinkOptions{
		Kind:      entities.LinkVerification,
		Validity:  opts.LinkValidity,
		MaxViews:  opts.MaxViews,
		CreatedBy: opts.CreatedBy,
	})
	if err != nil {
		outcome = ports.GenerationRejected
		return nil, err
	}
	verificationURL := s.policy.URL(link.Token)

	generatedAt := timeNow().UTC()
	pdf, err := s.renderer.Render(ctx, &ports.ReportDocument{
		Inspection:      insp,
		Digest:          digest,
		VerificationURL: verificationURL,
		GeneratedAt:     generatedAt,
	})
	if err != nil {
		return nil, errclass.ErrGenerationFailed.WithMessage("rendering report").Wrap(err)
	}

	recordID := uuid.New().String()
	filePath := ReportPath(insp, recordID, generatedAt)
	ref, err := s.blobs.Put(ctx, filePath, pdf, "application/pdf")
	if err != nil {
		return nil, errclass.ErrGenerationFailed.WithMessage("storing report").Wrap(err)
	}

	record := &entities.IntegrityRecord{
		ID:            recordID,
		InspectionID:  insp.ID,
		FileRef:       ref.Path,
		FileCID:       ref.CID,
		Filename:      path.Base(ref.Path),
		CanonicalJSON: canonicalJSON,
		SHA256:        digest,
		SchemaVersion: integrity.SchemaVersion,
		FileSize:      ref.Size,
		GeneratedAt:   generatedAt,
	}

	err = s.db.WithTx(ctx, func(tx ports.RelationalDB) error {
		if err := tx.SaveIntegrityRecord(ctx, record); err != nil {
			return fmt.Errorf("saving integrity record: %w", err)
		}
		if err := tx.SaveLink(ctx, link); err != nil {
			return fmt.Errorf("saving verification link: %w", err)
		}
		return nil
	})
	if err != nil {
		outcome = ports.GenerationRolledBack
		if delErr := s.blobs.Delete(context.WithoutCancel(ctx), ref.Path); delErr != nil {
			log.Error(delErr, "orphaned report file", "path", ref.Path)
		}
		return nil, errclass.ErrGenerationFailed.WithMessage("persisting integrity record").Wrap(err)
	}

	outcome = ports.GenerationSucceeded
	log.Info("report generated", "sha256", digest, "path", ref.Path, "size", ref.Size)

	return &GenerateResult{
		Record:          record,
		Link:            link,
		VerificationURL: verificationURL,
	}, nil
}

// History lists every integrity record of an inspection, newest first.
func (s *ReportService) History(ctx context.Context, inspectionID string) ([]entities.IntegrityRecord, error) {
	records, err := s.db.ListIntegrityRecords(ctx, inspectionID)
	if err != nil {
		return nil, fmt.Errorf("listing integrity records: %w", err)
	}
	return records, nil
}

// ReportPath returns the storage path of the report with record id recordID
// generated at t. The record id keeps paths unique when two reports are
// generated in the same millisecond.
func ReportPath(insp *entities.Inspection, recordID string, t time.Time) string {
	return fmt.Sprintf("%s/%s_%d_%s.pdf",
		fileSafe(insp.ID, "inspection"), fileSafe(insp.Number, "report"), t.UnixMilli(), fileSafe(recordID, "record"))
}

// fileSafe keeps letters, digits, '-' and '_' and replaces everything else with '-'.
func fileSafe(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '-'
		}
	}, s)
}

func joinRoles(roles []entities.SignatureRole) string {
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = string(r)
	}
	return strings.Join(names, ", ")
}

type nopMetrics struct{}

func (nopMetrics) RecordVerification(entities.Verdict)    {}
func (nopMetrics) RecordVerificationUnavailable()         {}
func (nopMetrics) RecordGeneration(string, time.Duration) {}
