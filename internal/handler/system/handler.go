package system

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mapleship/delivery-api/internal/handler"
	"github.com/mapleship/delivery-api/internal/model"
	"github.com/mapleship/delivery-api/internal/repository"
	regionService "github.com/mapleship/delivery-api/internal/service/region"
)

// oplogHealth exposes the operation log's swallowed-failure count.
type oplogHealth interface {
	Failures() int64
}

type Handler struct {
	kv      repository.KVStore
	regions regionService.Servicer
	oplog   oplogHealth
}

func NewHandler(kv repository.KVStore, regions regionService.Servicer, ol oplogHealth) *Handler {
	return &Handler{kv: kv, regions: regions, oplog: ol}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/config", h.GetConfig)
	r.PUT("/config", h.UpdateConfig)
	r.GET("/health", h.HealthCheck)
}

func (h *Handler) GetConfig(c *gin.Context) {
	cfg := h.regions.SystemConfig(c.Request.Context())
	handler.OK(c, http.StatusOK, "Success", cfg)
}

type updateConfigRequest struct {
	AutoBackupEnabled  bool `json:"autoBackupEnabled"`
	AutoBackupInterval int  `json:"autoBackupInterval" binding:"omitempty,min=1"`
	MaxBackupCount     int  `json:"maxBackupCount" binding:"omitempty,min=1,max=50"`
}

func (h *Handler) UpdateConfig(c *gin.Context) {
	var req updateConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.Fail(c, http.StatusBadRequest, "invalid system config", err.Error())
		return
	}

	current := h.regions.SystemConfig(c.Request.Context())
	current.AutoBackupEnabled = req.AutoBackupEnabled
	if req.AutoBackupInterval > 0 {
		current.AutoBackupInterval = req.AutoBackupInterval
	}
	if req.MaxBackupCount > 0 {
		current.MaxBackupCount = req.MaxBackupCount
	}

	saved, err := h.regions.SaveSystemConfig(c.Request.Context(), *current)
	if err != nil {
		handler.Error(c, err)
		return
	}
	handler.OK(c, http.StatusOK, "system config updated", saved)
}

// HealthCheck round-trips a probe key through the KV backend and reports
// latency plus the count of swallowed operation log failures.
func (h *Handler) HealthCheck(c *gin.Context) {
	ctx := c.Request.Context()
	probeKey := "health:probe"
	start := time.Now()

	healthy := true
	var detail string
	if err := h.kv.Set(ctx, probeKey, []byte(`"ok"`), time.Minute); err != nil {
		healthy, detail = false, err.Error()
	} else if val, err := h.kv.Get(ctx, probeKey); err != nil || val == nil {
		healthy = false
		if err != nil {
			detail = err.Error()
		}
	} else if err := h.kv.Delete(ctx, probeKey); err != nil {
		healthy, detail = false, err.Error()
	}

	body := gin.H{
		"healthy":      healthy,
		"latencyMs":    time.Since(start).Milliseconds(),
		"oplogDropped": h.oplog.Failures(),
		"version":      model.ConfigVersion,
	}
	if detail != "" {
		body["error"] = detail
	}

	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
		c.JSON(status, handler.Response{
			Success:   false,
			Message:   "backend unreachable",
			Data:      body,
			Timestamp: time.Now().UTC(),
		})
		return
	}
	handler.OK(c, status, "Success", body)
}
