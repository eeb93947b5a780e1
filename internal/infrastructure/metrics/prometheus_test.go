package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vistoria/vistoria-core/internal/domain/entities"
	"github.com/vistoria/vistoria-core/internal/domain/ports"
)

func TestRecorder_Counts(t *testing.T) {
	r := NewRecorder()

	r.RecordVerification(entities.VerdictVerified)
	r.RecordVerification(entities.VerdictVerified)
	r.RecordVerification(entities.VerdictTampered)
	r.RecordVerificationUnavailable()
	r.RecordGeneration(ports.GenerationSucceeded, 300*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.verifications.WithLabelValues("verified")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.verifications.WithLabelValues("tampered")))
	assert.Equal(t, 0.0, testutil.ToFloat64(r.verifications.WithLabelValues("expired")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.unavailable))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.generations.WithLabelValues(ports.GenerationSucceeded)))
}

func TestRecorder_Handler(t *testing.T) {
	r := NewRecorder()
	r.RecordGeneration(ports.GenerationRolledBack, time.Second)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `vistoria_generations_total{outcome="rolled_back"} 1`)
	assert.Contains(t, body, `vistoria_verifications_total{verdict="invalid"} 0`)
	assert.Contains(t, body, "vistoria_generation_duration_seconds_bucket")
	assert.True(t, strings.Contains(body, "go_goroutines"))
}
