package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mapleship/delivery-api/internal/handler"
	backupHandler "github.com/mapleship/delivery-api/internal/handler/backup"
	regionHandler "github.com/mapleship/delivery-api/internal/handler/region"
	systemHandler "github.com/mapleship/delivery-api/internal/handler/system"
	"github.com/mapleship/delivery-api/internal/middleware"
	"github.com/mapleship/delivery-api/internal/repository/memory"
	backupService "github.com/mapleship/delivery-api/internal/service/backup"
	"github.com/mapleship/delivery-api/internal/service/oplog"
	regionService "github.com/mapleship/delivery-api/internal/service/region"
	"github.com/mapleship/delivery-api/pkg/logger"
)

func newTestEngine(t *testing.T) http.Handler {
	t.Helper()

	kv := memory.NewStore()
	log := logger.New(nil)
	ol := oplog.NewService(kv, log, nil, "test")
	regions := regionService.NewService(kv, ol, log)
	backups := backupService.NewService(kv, regions, ol, log, nil)

	r := NewRouter(
		regionHandler.NewHandler(regions),
		backupHandler.NewHandler(backups),
		systemHandler.NewHandler(kv, regions, ol),
		handler.NewHandler(),
		Config{CORS: middleware.DefaultCORSConfig()},
	)
	r.Setup()
	return r.Engine()
}

func TestLivenessProbe(t *testing.T) {
	engine := newTestEngine(t)

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/health/live", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCORSPreflight(t *testing.T) {
	engine := newTestEngine(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/regions", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), http.MethodPut)
}

func TestMethodNotAllowedEnvelope(t *testing.T) {
	engine := newTestEngine(t)

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/v1/backup", nil))
	require.Equal(t, http.StatusMethodNotAllowed, w.Code)

	var env struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.False(t, env.Success)
	assert.Contains(t, env.Message, "not allowed")
}

func TestUnknownRouteEnvelope(t *testing.T) {
	engine := newTestEngine(t)

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/nope", nil))
	require.Equal(t, http.StatusNotFound, w.Code)

	var env struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.False(t, env.Success)
	assert.Equal(t, "route not found", env.Message)
}

func TestRequestIDHeader(t *testing.T) {
	engine := newTestEngine(t)

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/regions", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}
