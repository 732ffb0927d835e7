package handlers

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthCheck(t *testing.T) {
	reachable := t.TempDir()
	gone := filepath.Join(t.TempDir(), "unmounted")
	h, _ := newTestHandlers(t, reachable, gone)

	rec := httptest.NewRecorder()
	h.HealthCheck(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, "ok", body["status"])
	assert.EqualValues(t, 2, body["rootsConfigured"])
	assert.EqualValues(t, 1, body["rootsReachable"])
}

func TestLivenessAndReadiness(t *testing.T) {
	h, _ := newTestHandlers(t, t.TempDir())

	rec := httptest.NewRecorder()
	h.LivenessCheck(rec, httptest.NewRequest(http.MethodGet, "/livez", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ReadinessCheck(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "ready", body["status"])
}

func TestGetVersion(t *testing.T) {
	h, _ := newTestHandlers(t, t.TempDir())

	rec := httptest.NewRecorder()
	h.GetVersion(rec, httptest.NewRequest(http.MethodGet, "/version", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.NotEmpty(t, body["version"])
	assert.NotEmpty(t, body["goVersion"])
}
