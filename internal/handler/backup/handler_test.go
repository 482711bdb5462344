package backup

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mapleship/delivery-api/internal/handler"
	"github.com/mapleship/delivery-api/internal/model"
	"github.com/mapleship/delivery-api/internal/repository/memory"
	backupService "github.com/mapleship/delivery-api/internal/service/backup"
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

func newTestRouter(t *testing.T, opts ...backupService.Option) (*gin.Engine, *regionService.Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	handler.RegisterValidators()

	kv := memory.NewStore()
	log := logger.New(nil)
	ol := oplog.NewService(kv, log, nil, "test")
	regions := regionService.NewService(kv, ol, log)
	backups := backupService.NewService(kv, regions, ol, log, nil, opts...)

	engine := gin.New()
	NewHandler(backups).RegisterRoutes(engine.Group("/api/v1"))
	return engine, regions
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

func TestCreateBackup(t *testing.T) {
	engine, regions := newTestRouter(t)

	_, err := regions.Save(context.Background(), "1", model.RegionConfig{
		RegionName:  "A",
		IsActive:    true,
		PostalCodes: []string{"V6A"},
	})
	require.NoError(t, err)

	w, env := doRequest(t, engine, http.MethodPost, "/api/v1/backup", gin.H{"name": "nightly"})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, env.Success)

	var backup model.Backup
	require.NoError(t, json.Unmarshal(env.Data, &backup))
	assert.Contains(t, backup.ID, "backup_")
	assert.Equal(t, "nightly", backup.Name)
	assert.Equal(t, model.BackupTypeManual, backup.Type)
	assert.Equal(t, model.ConfigVersion, backup.Version)
	assert.Len(t, backup.RegionConfigs, 1)
	require.NotNil(t, backup.Stats)
	assert.Equal(t, 1, backup.Stats.ActiveRegions)
}

func TestCreateBackupRequiresName(t *testing.T) {
	engine, _ := newTestRouter(t)

	w, env := doRequest(t, engine, http.MethodPost, "/api/v1/backup", gin.H{"type": "manual"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, env.Success)
}

func TestCreateBackupRejectsUnknownType(t *testing.T) {
	engine, _ := newTestRouter(t)

	w, _ := doRequest(t, engine, http.MethodPost, "/api/v1/backup", gin.H{"name": "x", "type": "weekly"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListBackups(t *testing.T) {
	engine, _ := newTestRouter(t)

	w, env := doRequest(t, engine, http.MethodGet, "/api/v1/backup", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var empty []model.BackupSummary
	require.NoError(t, json.Unmarshal(env.Data, &empty))
	assert.Empty(t, empty)

	for _, name := range []string{"first", "second", "third"} {
		w, _ := doRequest(t, engine, http.MethodPost, "/api/v1/backup", gin.H{"name": name})
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w, env = doRequest(t, engine, http.MethodGet, "/api/v1/backup?limit=2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var summaries []model.BackupSummary
	require.NoError(t, json.Unmarshal(env.Data, &summaries))
	require.Len(t, summaries, 2)
	assert.False(t, summaries[0].Timestamp.Before(summaries[1].Timestamp))
}

func TestListBackupsIncludeData(t *testing.T) {
	engine, _ := newTestRouter(t)

	w, _ := doRequest(t, engine, http.MethodPost, "/api/v1/backup", gin.H{"name": "snap"})
	require.Equal(t, http.StatusCreated, w.Code)

	w, env := doRequest(t, engine, http.MethodGet, "/api/v1/backup?includeData=true", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var data struct {
		Backups          []model.BackupSummary `json:"backups"`
		LatestBackupData *model.Backup         `json:"latestBackupData"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.Len(t, data.Backups, 1)
	require.NotNil(t, data.LatestBackupData)
	assert.Equal(t, data.Backups[0].ID, data.LatestBackupData.ID)
}

func TestRestoreFromBackup(t *testing.T) {
	engine, regions := newTestRouter(t)
	ctx := context.Background()

	_, err := regions.Save(ctx, "1", model.RegionConfig{RegionName: "before"})
	require.NoError(t, err)

	w, env := doRequest(t, engine, http.MethodPost, "/api/v1/backup", gin.H{"name": "pre-change"})
	require.Equal(t, http.StatusCreated, w.Code)
	var backup model.Backup
	require.NoError(t, json.Unmarshal(env.Data, &backup))

	_, err = regions.Save(ctx, "1", model.RegionConfig{RegionName: "after"})
	require.NoError(t, err)

	w, env = doRequest(t, engine, http.MethodPost, "/api/v1/backup/restore", gin.H{
		"restoreType": "backup",
		"backupId":    backup.ID,
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, env.Success)

	var result model.RestoreResult
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.True(t, result.Success)
	require.NotNil(t, result.BackupInfo)
	assert.Equal(t, backup.ID, result.BackupInfo.ID)

	cfg, ok := regions.Get(ctx, "1")
	require.True(t, ok)
	assert.Equal(t, "before", cfg.RegionName)
}

func TestRestoreDefaultsToBackupType(t *testing.T) {
	engine, _ := newTestRouter(t)

	// restoreType omitted means restore-by-id, so a missing backupId fails
	w, env := doRequest(t, engine, http.MethodPost, "/api/v1/backup/restore", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "backupId is required", env.Message)
}

func TestRestoreUnknownBackup(t *testing.T) {
	engine, _ := newTestRouter(t)

	w, env := doRequest(t, engine, http.MethodPost, "/api/v1/backup/restore", gin.H{
		"backupId": "backup_0_missing",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.False(t, env.Success)
}

func TestRestoreRejectsUnknownType(t *testing.T) {
	engine, _ := newTestRouter(t)

	w, _ := doRequest(t, engine, http.MethodPost, "/api/v1/backup/restore", gin.H{
		"restoreType": "partial",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRestoreFromData(t *testing.T) {
	engine, regions := newTestRouter(t)

	w, env := doRequest(t, engine, http.MethodPost, "/api/v1/backup/restore", gin.H{
		"restoreType": "data",
		"backupData": gin.H{
			"regionConfigs": gin.H{
				"1": gin.H{"regionName": "Imported", "isActive": true, "postalCodes": []string{"V6A"}},
			},
		},
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, env.Success)

	var result model.RestoreResult
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Equal(t, 1, result.RestoredRegions)

	cfg, ok := regions.Get(context.Background(), "1")
	require.True(t, ok)
	assert.Equal(t, "Imported", cfg.RegionName)

	// the import leaves a migration backup behind
	w, env = doRequest(t, engine, http.MethodGet, "/api/v1/backup", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var summaries []model.BackupSummary
	require.NoError(t, json.Unmarshal(env.Data, &summaries))
	require.Len(t, summaries, 1)
	assert.Equal(t, model.BackupTypeMigration, summaries[0].Type)
}

func TestRestoreFromDataRequiresPayload(t *testing.T) {
	engine, _ := newTestRouter(t)

	w, env := doRequest(t, engine, http.MethodPost, "/api/v1/backup/restore", gin.H{
		"restoreType": "data",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "backupData is required", env.Message)
}

func TestRestoreDefault(t *testing.T) {
	seed := map[string]model.RegionConfig{
		"1": {RegionName: "Seed Zone", IsActive: true, PostalCodes: []string{"V6A"}},
	}
	engine, regions := newTestRouter(t, backupService.WithSeedData(seed))

	w, env := doRequest(t, engine, http.MethodPost, "/api/v1/backup/restore", gin.H{
		"restoreType": "default",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var result model.RestoreResult
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Equal(t, "default", result.Type)
	assert.Equal(t, 1, result.RestoredRegions)

	cfg, ok := regions.Get(context.Background(), "1")
	require.True(t, ok)
	assert.Equal(t, "Seed Zone", cfg.RegionName)
}

func TestRestoreDefaultWithoutSeed(t *testing.T) {
	engine, _ := newTestRouter(t)

	w, _ := doRequest(t, engine, http.MethodPost, "/api/v1/backup/restore", gin.H{
		"restoreType": "default",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
