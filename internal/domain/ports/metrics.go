package ports

import (
	"time"

	"github.com/vistoria/vistoria-core/internal/domain/entities"
)

// Generation outcomes reported to Metrics.
const (
	GenerationSucceeded  = "succeeded"
	GenerationRejected   = "rejected"
	GenerationFailed     = "failed"
	GenerationRolledBack = "rolled_back"
)

// Metrics records domain events.
type Metrics interface {
	// RecordVerification counts one verdict.
	RecordVerification(verdict entities.Verdict)

	// RecordVerificationUnavailable counts a verification aborted by a collaborator failure.
	RecordVerificationUnavailable()

	// RecordGeneration counts one generation attempt and its duration.
	RecordGeneration(outcome string, duration time.Duration)
}
