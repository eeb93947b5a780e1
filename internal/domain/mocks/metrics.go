package mocks

import (
	"sync"
	"time"

	"github.com/vistoria/vistoria-core/internal/domain/entities"
)

// Metrics counts recorded events in memory.
type Metrics struct {
	mu          sync.Mutex
	Verdicts    map[entities.Verdict]int
	Unavailable int
	Generations map[string]int
}

// NewMetrics creates an empty Metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		Verdicts:    make(map[entities.Verdict]int),
		Generations: make(map[string]int),
	}
}

// RecordVerification counts one verdict.
func (m *Metrics) RecordVerification(verdict entities.Verdict) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Verdicts[verdict]++
}

// RecordVerificationUnavailable counts one unavailable verification.
func (m *Metrics) RecordVerificationUnavailable() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Unavailable++
}

// RecordGeneration counts one generation outcome.
func (m *Metrics) RecordGeneration(outcome string, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Generations[outcome]++
}
