package observability

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRecordAndExpose(t *testing.T) {
	m := NewMetrics("accord_test")
	m.ObserveHTTP("GET", "/api/decisions", 200, 12*time.Millisecond)
	m.ObserveDecisionOp("supersede", "already_superseded", time.Millisecond)
	m.IncAuditFailure("redis")
	m.IncDispatch("CREATE_DECISION", "ok")
	done := m.TrackInflight()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.apiInflight))
	done()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.apiRequests.WithLabelValues("GET", "/api/decisions", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.decisionOps.WithLabelValues("supersede", "already_superseded")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.auditFailures.WithLabelValues("redis")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.apiInflight))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "accord_test_decision_operations_total"))
	assert.True(t, strings.Contains(body, "accord_test_dispatch_requests_total"))
}

func TestMetricsNilReceiverIsSafe(t *testing.T) {
	var m *Metrics
	m.ObserveHTTP("GET", "/", 200, time.Second)
	m.ObserveDecisionOp("create", "ok", time.Second)
	m.IncAuditFailure("db")
	m.IncDispatch("GET_DECISION", "ok")
	m.TrackInflight()()
	assert.NoError(t, m.RegisterDBStats(nil, "x"))
	assert.Nil(t, m.Registry())
}

func TestSetupTracingDisabledReturnsNoop(t *testing.T) {
	shutdown, err := SetupTracing(t.Context(), nil, TracingConfig{Enabled: false})
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(t.Context()))
	assert.NotNil(t, Tracer())
}

func TestSetupTracingRejectsBadExporter(t *testing.T) {
	shutdown, err := SetupTracing(t.Context(), nil, TracingConfig{Enabled: true, Exporter: "zipkin"})
	require.Error(t, err)
	require.NotNil(t, shutdown)

	_, err = SetupTracing(t.Context(), nil, TracingConfig{Enabled: true, Exporter: ExporterOTLP})
	assert.ErrorContains(t, err, "endpoint is required")
}

func TestExporterFor(t *testing.T) {
	assert.Equal(t, ExporterStdout, exporterFor(TracingConfig{}))
	assert.Equal(t, ExporterOTLP, exporterFor(TracingConfig{Endpoint: "collector:4318"}))
	assert.Equal(t, ExporterNone, exporterFor(TracingConfig{Exporter: " NONE ", Endpoint: "collector:4318"}))
}

func TestParseHeadersAndClamp(t *testing.T) {
	h := parseHeaders(" api-key = abc , bad, =x ,k=v")
	assert.Equal(t, map[string]string{"api-key": "abc", "k": "v"}, h)
	assert.Nil(t, parseHeaders(""))
	assert.Equal(t, 0.0, clampRatio(-1))
	assert.Equal(t, 1.0, clampRatio(4))
	assert.Equal(t, 0.25, clampRatio(0.25))
}
