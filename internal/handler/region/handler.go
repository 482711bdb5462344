package region

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mapleship/delivery-api/internal/handler"
	"github.com/mapleship/delivery-api/internal/model"
	regionService "github.com/mapleship/delivery-api/internal/service/region"
	apperrors "github.com/mapleship/delivery-api/pkg/errors"
)

type Handler struct {
	service regionService.Servicer
}

func NewHandler(service regionService.Servicer) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	regions := r.Group("/regions")
	{
		regions.GET("", h.ListRegions)
		regions.POST("", h.SaveRegions)
		regions.GET("/:id", h.GetRegion)
		regions.PUT("/:id", h.UpdateRegion)
		regions.DELETE("/:id", h.DeleteRegion)
		regions.GET("/:id/price", h.PriceLookup)
	}
}

type updateRegionRequest struct {
	RegionName   string              `json:"regionName" binding:"required"`
	IsActive     bool                `json:"isActive"`
	PostalCodes  []string            `json:"postalCodes" binding:"omitempty,dive,fsa"`
	WeightRanges []model.WeightRange `json:"weightRanges"`
	Metadata     model.JSONMap       `json:"metadata"`
}

type saveRegionRequest struct {
	RegionID     string              `json:"regionId"`
	RegionName   string              `json:"regionName"`
	IsActive     bool                `json:"isActive"`
	PostalCodes  []string            `json:"postalCodes"`
	WeightRanges []model.WeightRange `json:"weightRanges"`
	Metadata     model.JSONMap       `json:"metadata"`
}

func (r *saveRegionRequest) toModel() model.RegionConfig {
	return model.RegionConfig{
		RegionName:   r.RegionName,
		IsActive:     r.IsActive,
		PostalCodes:  r.PostalCodes,
		WeightRanges: r.WeightRanges,
		Metadata:     r.Metadata,
	}
}

// ListRegions answers GET /regions. With ?regionId= it behaves as a
// single-region lookup; ?includeStats=true attaches the cached snapshot.
func (h *Handler) ListRegions(c *gin.Context) {
	if regionID := c.Query("regionId"); regionID != "" {
		cfg, ok := h.service.Get(c.Request.Context(), regionID)
		if !ok {
			handler.Error(c, apperrors.NotFound(fmt.Sprintf("region %s", regionID), nil))
			return
		}
		handler.OK(c, http.StatusOK, "Success", cfg)
		return
	}

	configs := h.service.GetAll(c.Request.Context())

	if c.Query("includeStats") == "true" {
		stats := h.service.CachedStats(c.Request.Context())
		handler.OK(c, http.StatusOK, "Success", gin.H{"regions": configs, "stats": stats})
		return
	}

	handler.OK(c, http.StatusOK, "Success", configs)
}

// SaveRegions answers POST /regions. The body is either a single config
// carrying a regionId, or a regionId-keyed map for a batch replace.
func (h *Handler) SaveRegions(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil || len(body) == 0 {
		handler.Fail(c, http.StatusBadRequest, "request body is required", "")
		return
	}

	var single saveRegionRequest
	if err := json.Unmarshal(body, &single); err == nil && single.RegionID != "" {
		h.saveSingle(c, single)
		return
	}

	var batch map[string]model.RegionConfig
	if err := json.Unmarshal(body, &batch); err == nil && len(batch) > 0 {
		h.saveBatch(c, batch)
		return
	}

	handler.Fail(c, http.StatusBadRequest, "invalid request format", "")
}

func (h *Handler) saveSingle(c *gin.Context, req saveRegionRequest) {
	if err := validateFSAs(req.PostalCodes); err != nil {
		handler.Error(c, err)
		return
	}

	saved, err := h.service.Save(c.Request.Context(), req.RegionID, req.toModel())
	if err != nil {
		handler.Error(c, err)
		return
	}
	handler.OK(c, http.StatusOK, "region config saved", saved)
}

func (h *Handler) saveBatch(c *gin.Context, batch map[string]model.RegionConfig) {
	saved, err := h.service.SaveAll(c.Request.Context(), batch)
	if err != nil {
		handler.Error(c, err)
		return
	}
	stats := h.service.CalculateStats(c.Request.Context(), saved)

	handler.OK(c, http.StatusOK, "region configs saved", gin.H{
		"regions": saved,
		"stats":   stats,
		"count":   len(saved),
	})
}

func (h *Handler) GetRegion(c *gin.Context) {
	regionID := c.Param("id")

	cfg, ok := h.service.Get(c.Request.Context(), regionID)
	if !ok {
		handler.Error(c, apperrors.NotFound(fmt.Sprintf("region %s", regionID), nil))
		return
	}
	handler.OK(c, http.StatusOK, "Success", cfg)
}

func (h *Handler) UpdateRegion(c *gin.Context) {
	regionID := c.Param("id")

	var req updateRegionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.Fail(c, http.StatusBadRequest, "invalid region config", err.Error())
		return
	}

	saved, err := h.service.Save(c.Request.Context(), regionID, model.RegionConfig{
		RegionName:   req.RegionName,
		IsActive:     req.IsActive,
		PostalCodes:  req.PostalCodes,
		WeightRanges: req.WeightRanges,
		Metadata:     req.Metadata,
	})
	if err != nil {
		handler.Error(c, err)
		return
	}
	handler.OK(c, http.StatusOK, "region config updated", saved)
}

// DeleteRegion answers DELETE /regions/:id. The store itself treats a
// missing id as idempotent success; at the HTTP surface an unknown region
// is a 404.
func (h *Handler) DeleteRegion(c *gin.Context) {
	regionID := c.Param("id")

	if _, ok := h.service.Get(c.Request.Context(), regionID); !ok {
		handler.Error(c, apperrors.NotFound(fmt.Sprintf("region %s", regionID), nil))
		return
	}

	if _, err := h.service.Delete(c.Request.Context(), regionID); err != nil {
		handler.Error(c, err)
		return
	}

	handler.OK(c, http.StatusOK, "region config deleted", gin.H{"regionId": regionID})
}

// PriceLookup answers GET /regions/:id/price?weight=. Only active weight
// ranges are considered; a weight no tier covers is out of range.
func (h *Handler) PriceLookup(c *gin.Context) {
	regionID := c.Param("id")

	weight, err := strconv.ParseFloat(c.Query("weight"), 64)
	if err != nil || weight < 0 {
		handler.Fail(c, http.StatusBadRequest, "weight must be a non-negative number", "")
		return
	}

	cfg, ok := h.service.Get(c.Request.Context(), regionID)
	if !ok {
		handler.Error(c, apperrors.NotFound(fmt.Sprintf("region %s", regionID), nil))
		return
	}

	wr, ok := cfg.PriceForWeight(weight)
	if !ok {
		handler.Fail(c, http.StatusNotFound, "weight out of range", "")
		return
	}

	handler.OK(c, http.StatusOK, "Success", gin.H{
		"regionId": regionID,
		"weight":   weight,
		"rangeId":  wr.ID,
		"label":    wr.Label,
		"price":    wr.Price,
	})
}

func validateFSAs(codes []string) error {
	for _, fsa := range codes {
		if !model.IsValidFSA(fsa) {
			return apperrors.BadRequest(fmt.Sprintf("invalid FSA %q", fsa), nil)
		}
	}
	return nil
}
