package handlers

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/authsvc/pkg/logger"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func serveHealth(t *testing.T, deps map[string]Pinger, path string) (int, map[string]interface{}) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	h := NewHealthHandler(deps, logger.NewNoopLogger())
	router := gin.New()
	router.GET("/health", h.HealthCheck)
	router.GET("/ready", h.ReadinessCheck)
	router.GET("/live", h.LivenessCheck)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return rr.Code, body
}

func TestHealthHandler(t *testing.T) {
	ok := pingFunc(func(context.Context) error { return nil })
	down := pingFunc(func(context.Context) error { return stderrors.New("connection refused") })

	t.Run("All dependencies up", func(t *testing.T) {
		code, body := serveHealth(t, map[string]Pinger{"database": ok, "redis": ok}, "/health")
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "healthy", body["status"])
		assert.Equal(t, map[string]interface{}{"database": "ok", "redis": "ok"}, body["checks"])
	})

	t.Run("One dependency down", func(t *testing.T) {
		code, body := serveHealth(t, map[string]Pinger{"database": ok, "redis": down}, "/ready")
		assert.Equal(t, http.StatusServiceUnavailable, code)
		assert.Equal(t, "unhealthy", body["status"])
		checks := body["checks"].(map[string]interface{})
		assert.Equal(t, "ok", checks["database"])
		assert.Equal(t, "error: connection refused", checks["redis"])
	})

	t.Run("Liveness ignores dependencies", func(t *testing.T) {
		code, body := serveHealth(t, map[string]Pinger{"redis": down}, "/live")
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "alive", body["status"])
	})
}
