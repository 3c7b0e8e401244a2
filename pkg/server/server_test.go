package server

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"decksync/pkg/logger"
	"decksync/pkg/metrics"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func get(t *testing.T, h http.Handler, path string) (int, string) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	body, err := io.ReadAll(rec.Result().Body)
	require.NoError(t, err)
	return rec.Code, string(body)
}

func TestHealth(t *testing.T) {
	s := New(":0", logger.NewNop())
	code, body := get(t, s.Handler(), "/health")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body)
}

func TestReadiness(t *testing.T) {
	s := New(":0", logger.NewNop())

	code, _ := get(t, s.Handler(), "/ready")
	assert.Equal(t, http.StatusServiceUnavailable, code)

	s.SetReady(true)
	code, body := get(t, s.Handler(), "/ready")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ready", body)

	s.SetReady(false)
	code, _ = get(t, s.Handler(), "/ready")
	assert.Equal(t, http.StatusServiceUnavailable, code)
}

func TestMetricsEndpoint(t *testing.T) {
	metrics.DecksAppendedTotal.WithLabelValues("server-test").Inc()

	s := New(":0", logger.NewNop())
	code, body := get(t, s.Handler(), "/metrics")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, `decksync_decks_appended_total{job="server-test"}`)
}
