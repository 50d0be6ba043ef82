package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/edge-finder/internal/logger"
)

func newTestServer() *Server {
	return NewServer(Config{
		ServiceName: "edge-finder",
		Version:     "test",
		Logger:      logger.NewNopLogger(),
	})
}

func TestHandleHealth(t *testing.T) {
	srv := newTestServer()

	rec := httptest.NewRecorder()
	srv.handleHealth(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "edge-finder", resp.Service)
}

func TestHandleReadyNotReadyByDefault(t *testing.T) {
	srv := newTestServer()

	rec := httptest.NewRecorder()
	srv.handleReady(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHandleReadyWithChecks(t *testing.T) {
	srv := newTestServer()
	srv.SetReady(true)
	srv.RegisterCheck("database", func(ctx context.Context) error { return nil })

	rec := httptest.NewRecorder()
	srv.handleReady(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp ReadyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Checks["database"])

	// A failing dependency flips readiness
	srv.RegisterCheck("database", func(ctx context.Context) error { return errors.New("connection refused") })

	rec = httptest.NewRecorder()
	srv.handleReady(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
