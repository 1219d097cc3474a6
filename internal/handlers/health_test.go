package handlers_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ivgeniay/jointpresentation/internal/handlers/testutil"
)

func TestHealth(t *testing.T) {
	env := testutil.NewEnv(t)

	w := env.Get("/health")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var payload struct {
		Status      string `json:"status"`
		Database    string `json:"database"`
		Connections int    `json:"connections"`
	}
	testutil.DecodeInto(t, testutil.DecodeResponse(t, w).Data, &payload)
	require.Equal(t, "ok", payload.Status)
	require.Equal(t, "ok", payload.Database)
	require.Zero(t, payload.Connections)
}

func TestHealthReportsClosedDatabase(t *testing.T) {
	env := testutil.NewEnv(t)

	sqlDB, err := env.DB.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	w := env.Get("/health")
	require.Equal(t, http.StatusServiceUnavailable, w.Code, w.Body.String())

	resp := testutil.DecodeResponse(t, w)
	require.False(t, resp.Success)
	require.Contains(t, string(resp.Data), "degraded")
}

func TestMetricsEndpoint(t *testing.T) {
	env := testutil.NewEnv(t)

	require.Equal(t, http.StatusOK, env.Get("/health").Code)

	w := env.Get("/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "deck_api_latency_seconds")
}

func TestUnknownRoute(t *testing.T) {
	env := testutil.NewEnv(t)

	w := env.Get("/api/nope")
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Equal(t, "NOT_FOUND", testutil.DecodeResponse(t, w).Error.Code)
}
