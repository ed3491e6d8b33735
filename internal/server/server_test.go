package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/sentinel-constraints/internal/config"
	"github.com/aristath/sentinel-constraints/internal/di"
)

func newTestServer(t *testing.T) (*Server, *di.Container) {
	t.Helper()
	cfg := &config.Config{
		DataDir:           t.TempDir(),
		Port:              8002,
		EvaluationWorkers: 1,
		LookupPolicy:      "abort",
	}
	container, err := di.Wire(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Close() })

	return New(Config{Log: zerolog.Nop(), Port: cfg.Port, DevMode: true, Container: container}), container
}

func TestHandleHealth(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "sentinel-constraints", body["service"])
	assert.EqualValues(t, 2, body["constraints"])
}

func TestHandleHealth_DegradedWhenDatabaseClosed(t *testing.T) {
	srv, container := newTestServer(t)
	require.NoError(t, container.HistoryDB.Close())

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "degraded", body["status"])
}

func TestConstraintRoutesMounted(t *testing.T) {
	srv, container := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/constraints", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data struct {
			Constraints []string `json:"constraints"`
			ConfigHash  string   `json:"config_hash"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, []string{"long_only", "long_cash"}, body.Data.Constraints)
	assert.Equal(t, container.ConstraintSetHash, body.Data.ConfigHash)
}

func TestHistoricalRoutesMounted(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/historical/prices/daily/US0378331005", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	// The default set has no universe.
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/historical/adv?period=2024-01-05", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
