package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordCommand(t *testing.T) {
	m := New("test")

	m.RecordCommand("CREATE", "ok", time.Millisecond)
	m.RecordCommand("CREATE", "ok", time.Millisecond)
	m.RecordCommand("CAPTURE", "invalid_transition", time.Millisecond)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.CommandsTotal.WithLabelValues("CREATE", "ok")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.CommandsTotal.WithLabelValues("CAPTURE", "invalid_transition")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.CommandsTotal))
}

func TestRecordHTTPRequest(t *testing.T) {
	m := New("")

	m.RecordHTTPRequest("POST", "/api/v1/payments", 201, 5*time.Millisecond)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("POST", "/api/v1/payments", "201")))
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordCommand("CREATE", "ok", time.Millisecond)
		m.RecordHTTPRequest("GET", "/health", 200, time.Millisecond)
	})
}

func TestHandler(t *testing.T) {
	m := New("payflow")
	m.RecordCommand("AUTHORIZE", "ok", time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, string(body), `payflow_commands_total{command="AUTHORIZE",outcome="ok"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}
