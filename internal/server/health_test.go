package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHealthMux(h *HealthChecker) *http.ServeMux {
	mux := http.NewServeMux()
	h.RegisterHealthEndpoints(mux)
	return mux
}

func getJSON(t *testing.T, h http.Handler, path string, v any) int {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
	return rec.Code
}

func TestHealthChecker_Liveness(t *testing.T) {
	h := NewHealthChecker(nil, "test")
	var resp HealthResponse
	code := getJSON(t, newHealthMux(h), "/healthz", &resp)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", resp.Status)
}

func TestHealthChecker_Readiness(t *testing.T) {
	ts := newTestServer(t, HTTPServerConfig{})
	h := NewHealthChecker(ts.sc, "test")
	mux := newHealthMux(h)

	var resp HealthResponse
	code := getJSON(t, mux, "/readyz", &resp)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, map[string]string{"ready": "ok", "shutdown": "ok", "database": "ok"}, resp.Checks)

	h.SetReady(false)
	code = getJSON(t, mux, "/readyz", &resp)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "not ready", resp.Checks["ready"])

	h.SetReady(true)
	require.NoError(t, ts.sc.Shutdown())
	code = getJSON(t, mux, "/readyz", &resp)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "shutting down", resp.Checks["shutdown"])
}

func TestHealthChecker_ReadinessDatabaseDown(t *testing.T) {
	ts := newTestServer(t, HTTPServerConfig{})
	h := NewHealthChecker(ts.sc, "test")
	require.NoError(t, ts.db.Close())

	var resp HealthResponse
	code := getJSON(t, newHealthMux(h), "/readyz", &resp)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "unavailable", resp.Checks["database"])
}

func TestHealthChecker_Detailed(t *testing.T) {
	ts := newTestServer(t, HTTPServerConfig{})
	h := NewHealthChecker(ts.sc, "1.2.3")

	var resp DetailedHealthResponse
	code := getJSON(t, newHealthMux(h), "/healthz/detailed", &resp)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "1.2.3", resp.Version)
	assert.Equal(t, "ok", resp.Database)
	assert.Equal(t, "disabled", resp.Calendar)
	assert.NotEmpty(t, resp.Uptime)
}

func TestHTTPServer_HealthRoutes(t *testing.T) {
	ts := newTestServer(t, HTTPServerConfig{})
	s, err := NewHTTPServer(ts.sc, HTTPServerConfig{Agent: ts.agent, Health: NewHealthChecker(ts.sc, "test")})
	require.NoError(t, err)

	for _, path := range []string{"/healthz", "/readyz", "/healthz/detailed"} {
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}
