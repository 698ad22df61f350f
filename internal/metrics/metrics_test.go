package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Record(t *testing.T) {
	m := NewWithRegistry(prometheus.NewRegistry())

	m.RecordRequest("world_building")
	m.RecordRequest("world_building")
	m.RecordRequest("default")
	m.RecordCollaboratorFailure("story")
	m.RecordTurnAdvanced()
	m.RecordSessionEnded()
	m.SetActiveSessions(3)
	m.ObserveStage("world", 250*time.Millisecond)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.RequestsTotal.WithLabelValues("world_building")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.RequestsTotal.WithLabelValues("default")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.CollaboratorFailuresTotal.WithLabelValues("story")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.TurnsAdvancedTotal))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.SessionsEndedTotal))
	assert.Equal(t, float64(3), testutil.ToFloat64(m.ActiveSessions))
	assert.Equal(t, 1, testutil.CollectAndCount(m.StageDuration))
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.RecordTurnAdvanced()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), "storycrew_turns_advanced_total 1"))
	assert.True(t, strings.Contains(string(body), "go_goroutines"))
}
