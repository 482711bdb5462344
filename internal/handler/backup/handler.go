package backup

import (
	"encoding/json"
	"net/http"
	"sort"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mapleship/delivery-api/internal/handler"
	"github.com/mapleship/delivery-api/internal/model"
	backupService "github.com/mapleship/delivery-api/internal/service/backup"
)

const defaultListLimit = 20

type Handler struct {
	service *backupService.Service
}

func NewHandler(service *backupService.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	backups := r.Group("/backup")
	{
		backups.GET("", h.ListBackups)
		backups.POST("", h.CreateBackup)
		backups.POST("/restore", h.Restore)
	}
}

type createBackupRequest struct {
	Name string `json:"name" binding:"required"`
	Type string `json:"type" binding:"omitempty,oneof=manual auto migration"`
}

type restoreRequest struct {
	RestoreType string          `json:"restoreType" binding:"omitempty,oneof=backup data default"`
	BackupID    string          `json:"backupId"`
	BackupData  json.RawMessage `json:"backupData"`
}

// ListBackups answers GET /backup, most recent first, honoring ?limit=
// and ?includeData=true (the latter attaches the newest payload).
func (h *Handler) ListBackups(c *gin.Context) {
	limit := defaultListLimit
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	backups := h.service.List(c.Request.Context())
	sort.Slice(backups, func(i, j int) bool {
		return backups[i].Timestamp.After(backups[j].Timestamp)
	})
	if len(backups) > limit {
		backups = backups[:limit]
	}

	if c.Query("includeData") == "true" && len(backups) > 0 {
		latest, err := h.service.Get(c.Request.Context(), backups[0].ID)
		if err != nil {
			handler.Error(c, err)
			return
		}
		handler.OK(c, http.StatusOK, "Success", gin.H{
			"backups":          backups,
			"latestBackupData": latest,
		})
		return
	}

	handler.OK(c, http.StatusOK, "Success", backups)
}

func (h *Handler) CreateBackup(c *gin.Context) {
	var req createBackupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.Fail(c, http.StatusBadRequest, "invalid backup request", err.Error())
		return
	}

	backup, err := h.service.Create(c.Request.Context(), req.Name, req.Type)
	if err != nil {
		handler.Error(c, err)
		return
	}
	handler.OK(c, http.StatusCreated, "backup created", backup)
}

// Restore answers POST /backup/restore, dispatching on restoreType:
// backup (by id), data (raw import), or default (seed dataset).
func (h *Handler) Restore(c *gin.Context) {
	var req restoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.Fail(c, http.StatusBadRequest, "invalid restore request", err.Error())
		return
	}
	if req.RestoreType == "" {
		req.RestoreType = "backup"
	}

	var (
		result *model.RestoreResult
		err    error
	)
	switch req.RestoreType {
	case "backup":
		if req.BackupID == "" {
			handler.Fail(c, http.StatusBadRequest, "backupId is required", "")
			return
		}
		result, err = h.service.Restore(c.Request.Context(), req.BackupID)
	case "data":
		if len(req.BackupData) == 0 {
			handler.Fail(c, http.StatusBadRequest, "backupData is required", "")
			return
		}
		result, err = h.service.RestoreFromRaw(c.Request.Context(), req.BackupData)
	case "default":
		result, err = h.service.RestoreDefault(c.Request.Context())
	}

	if err != nil {
		handler.Error(c, err)
		return
	}
	handler.OK(c, http.StatusOK, "restore completed", result)
}
