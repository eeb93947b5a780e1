package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-logr/logr"

	"github.com/vistoria/vistoria-core/internal/domain/entities"
	"github.com/vistoria/vistoria-core/internal/domain/errclass"
	"github.com/vistoria/vistoria-core/internal/domain/integrity"
	"github.com/vistoria/vistoria-core/internal/domain/ports"
)

// DefaultDownloadTTL is the lifetime of download URLs handed out for verified reports.
const DefaultDownloadTTL = 10 * time.Minute

// Accepted token lengths in hex characters.
const (
	minTokenLength = 2 * integrity.VerificationTokenBytes
	maxTokenLength = 128
)

// VerificationResult is the outcome of verifying a public token.
// Only a verified result carries anything besides Verdict and Reason.
type VerificationResult struct {
	Verdict      entities.Verdict `json:"status"`
	Reason       string           `json:"reason,omitempty"`
	DownloadURL  string           `json:"download_url,omitempty"`
	InspectionID string           `json:"inspection_id,omitempty"`
	Digest       string           `json:"sha256,omitempty"`
	GeneratedAt  *time.Time       `json:"generated_at,omitempty"`
	ViewsCount   int              `json:"views_count,omitempty"`
}

// VerificationService answers public verification requests.
//
// It trusts the stored snapshot: the digest is recomputed from the
// canonical JSON saved at generation time, never from live inspection data,
// so later edits to an inspection do not affect earlier reports. The stored
// report file is re-hashed too; when its content id differs from the one
// recorded at generation the verdict is tampered.
type VerificationService struct {
	links       ports.LinkStore
	records     ports.IntegrityStore
	blobs       ports.BlobStore
	metrics     ports.Metrics
	downloadTTL time.Duration
}

// NewVerificationService creates a new VerificationService.
func NewVerificationService(
	links ports.LinkStore,
	records ports.IntegrityStore,
	blobs ports.BlobStore,
	metrics ports.Metrics,
	downloadTTL time.Duration,
) *VerificationService {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	if downloadTTL <= 0 {
		downloadTTL = DefaultDownloadTTL
	}
	return &VerificationService{
		links:       links,
		records:     records,
		blobs:       blobs,
		metrics:     metrics,
		downloadTTL: downloadTTL,
	}
}

// Verify resolves token to a verdict.
//
// Verdicts are results, not errors. An error is returned only when a
// collaborator fails; it matches errclass.ErrUnavailable and the caller may
// retry. A failure never turns into a tampered verdict.
func (s *VerificationService) Verify(ctx context.Context, token string) (*VerificationResult, error) {
	log := logr.FromContextOrDiscard(ctx)

	result, err := s.verify(ctx, strings.TrimSpace(token))
	if err != nil {
		s.metrics.RecordVerificationUnavailable()
		log.Error(err, "verification unavailable")
		return nil, errclass.ErrUnavailable.Wrap(err)
	}

	s.metrics.RecordVerification(result.Verdict)
	log.Info("verification completed", "status", result.Verdict, "reason", result.Reason, "inspection_id", result.InspectionID)
	return result, nil
}

func (s *VerificationService) verify(ctx context.Context, token string) (*VerificationResult, error) {
	if token == "" {
		return reject(entities.VerdictInvalid, entities.ReasonEmptyToken), nil
	}
	if !wellFormedToken(token) {
		return reject(entities.VerdictInvalid, entities.ReasonUnknownToken), nil
	}

	link, err := s.links.FindLinkByToken(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("finding link: %w", err)
	}
	if link == nil {
		return reject(entities.VerdictInvalid, entities.ReasonUnknownToken), nil
	}
	if link.Kind != entities.LinkVerification {
		return reject(entities.VerdictInvalid, entities.ReasonWrongKind), nil
	}

	switch now := timeNow(); {
	case link.IsRevoked:
		return reject(entities.VerdictExpired, entities.ReasonRevoked), nil
	case now.After(link.ExpiresAt):
		return reject(entities.VerdictExpired, entities.ReasonPastExpiry), nil
	case link.IsExpired(now):
		return reject(entities.VerdictExpired, entities.ReasonViewsExhausted), nil
	}

	views := link.ViewsCount
	if err := s.links.IncrementLinkViews(ctx, token); err != nil {
		logr.FromContextOrDiscard(ctx).Info("view count not updated", "inspection_id", link.InspectionID, "error", err.Error())
	} else {
		views++
	}

	record, err := s.records.FindLatestIntegrityRecord(ctx, link.InspectionID)
	if err != nil {
		return nil, fmt.Errorf("finding integrity record: %w", err)
	}
	if record == nil {
		return reject(entities.VerdictInvalid, entities.ReasonNoRecord), nil
	}
	if !record.IsComplete() {
		return reject(entities.VerdictInvalid, entities.ReasonIncomplete), nil
	}

	if !integrity.Matches(record.CanonicalJSON, record.SHA256) {
		return reject(entities.VerdictTampered, entities.ReasonDigestMismatch), nil
	}

	stored, err := s.blobs.Stat(ctx, record.FileRef)
	if errors.Is(err, ports.ErrBlobNotFound) {
		return reject(entities.VerdictInvalid, entities.ReasonIncomplete), nil
	}
	if err != nil {
		return nil, fmt.Errorf("checking report file: %w", err)
	}
	if record.FileCID != "" && stored.CID != record.FileCID {
		return reject(entities.VerdictTampered, entities.ReasonFileMismatch), nil
	}

	downloadURL, err := s.blobs.SignedURL(ctx, record.FileRef, s.downloadTTL)
	if err != nil {
		return nil, fmt.Errorf("signing download url: %w", err)
	}

	generatedAt := record.GeneratedAt
	return &VerificationResult{
		Verdict:      entities.VerdictVerified,
		DownloadURL:  downloadURL,
		InspectionID: record.InspectionID,
		Digest:       record.SHA256,
		GeneratedAt:  &generatedAt,
		ViewsCount:   views,
	}, nil
}

func reject(verdict entities.Verdict, reason string) *VerificationResult {
	return &VerificationResult{Verdict: verdict, Reason: reason}
}

// wellFormedToken reports whether token could have been issued by NewToken.
func wellFormedToken(token string) bool {
	if len(token) < minTokenLength || len(token) > maxTokenLength {
		return false
	}
	for i := 0; i < len(token); i++ {
		c := token[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
