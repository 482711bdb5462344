package system

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mapleship/delivery-api/internal/handler"
	"github.com/mapleship/delivery-api/internal/model"
	"github.com/mapleship/delivery-api/internal/repository"
	"github.com/mapleship/delivery-api/internal/repository/memory"
	"github.com/mapleship/delivery-api/internal/service/oplog"
	regionService "github.com/mapleship/delivery-api/internal/service/region"
	"github.com/mapleship/delivery-api/pkg/logger"
)

type envelope struct {
	Success   bool            `json:"success"`
	Message   string          `json:"message"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
}

func newTestRouter(t *testing.T, kv repository.KVStore) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	handler.RegisterValidators()

	log := logger.New(nil)
	ol := oplog.NewService(kv, log, nil, "test")
	regions := regionService.NewService(kv, ol, log)

	engine := gin.New()
	NewHandler(kv, regions, ol).RegisterRoutes(engine.Group("/api/v1"))
	return engine
}

func doRequest(t *testing.T, engine *gin.Engine, method, path string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return w, env
}

func TestGetConfigDefaults(t *testing.T) {
	engine := newTestRouter(t, memory.NewStore())

	w, env := doRequest(t, engine, http.MethodGet, "/api/v1/config", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var cfg model.SystemConfig
	require.NoError(t, json.Unmarshal(env.Data, &cfg))
	assert.Equal(t, model.ConfigVersion, cfg.Version)
	assert.True(t, cfg.AutoBackupEnabled)
	assert.Equal(t, 50, cfg.MaxBackupCount)
}

func TestUpdateConfig(t *testing.T) {
	engine := newTestRouter(t, memory.NewStore())

	w, env := doRequest(t, engine, http.MethodPut, "/api/v1/config", gin.H{
		"autoBackupEnabled":  false,
		"autoBackupInterval": 60,
		"maxBackupCount":     10,
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, env.Success)

	w, env = doRequest(t, engine, http.MethodGet, "/api/v1/config", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var cfg model.SystemConfig
	require.NoError(t, json.Unmarshal(env.Data, &cfg))
	assert.False(t, cfg.AutoBackupEnabled)
	assert.Equal(t, 60, cfg.AutoBackupInterval)
	assert.Equal(t, 10, cfg.MaxBackupCount)
	assert.False(t, cfg.LastUpdated.IsZero())
}

func TestUpdateConfigRejectsOutOfRange(t *testing.T) {
	engine := newTestRouter(t, memory.NewStore())

	w, _ := doRequest(t, engine, http.MethodPut, "/api/v1/config", gin.H{
		"maxBackupCount": 100,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealthCheck(t *testing.T) {
	engine := newTestRouter(t, memory.NewStore())

	w, env := doRequest(t, engine, http.MethodGet, "/api/v1/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, env.Success)

	var body struct {
		Healthy      bool   `json:"healthy"`
		LatencyMs    int64  `json:"latencyMs"`
		OplogDropped int64  `json:"oplogDropped"`
		Version      string `json:"version"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &body))
	assert.True(t, body.Healthy)
	assert.Zero(t, body.OplogDropped)
	assert.Equal(t, model.ConfigVersion, body.Version)
}

type brokenStore struct {
	repository.KVStore
}

func (brokenStore) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("backend down")
}

func TestHealthCheckUnhealthy(t *testing.T) {
	engine := newTestRouter(t, brokenStore{memory.NewStore()})

	w, env := doRequest(t, engine, http.MethodGet, "/api/v1/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.False(t, env.Success)

	var body struct {
		Healthy bool   `json:"healthy"`
		Error   string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &body))
	assert.False(t, body.Healthy)
	assert.Equal(t, "backend down", body.Error)
}
