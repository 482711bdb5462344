package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mapleship/delivery-api/internal/handler"
	"github.com/mapleship/delivery-api/internal/middleware"
)

// Handler registers a group of routes on the API group.
type Handler interface {
	RegisterRoutes(*gin.RouterGroup)
}

type Config struct {
	RateLimitRPS   float64
	RateLimitBurst int
	CORS           middleware.CORSConfig
}

type Router struct {
	engine  *gin.Engine
	h       *handler.Handler
	regionH Handler
	backupH Handler
	systemH Handler
}

func NewRouter(regionH, backupH, systemH Handler, h *handler.Handler, cfg Config) *Router {
	gin.SetMode(gin.ReleaseMode)
	handler.RegisterValidators()

	engine := gin.New()
	engine.HandleMethodNotAllowed = true

	engine.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.Logger(),
		middleware.CORS(cfg.CORS),
	)

	if cfg.RateLimitRPS > 0 {
		rl := middleware.NewRateLimiter(middleware.RateLimiterConfig{
			RPS:   cfg.RateLimitRPS,
			Burst: cfg.RateLimitBurst,
		})
		engine.Use(rl.RateLimit())
	}

	engine.NoMethod(func(c *gin.Context) {
		handler.Fail(c, http.StatusMethodNotAllowed, "method "+c.Request.Method+" not allowed", "")
	})
	engine.NoRoute(func(c *gin.Context) {
		handler.Fail(c, http.StatusNotFound, "route not found", "")
	})

	return &Router{
		engine:  engine,
		h:       h,
		regionH: regionH,
		backupH: backupH,
		systemH: systemH,
	}
}

func (r *Router) Setup() {
	api := r.engine.Group("/api/v1")

	r.setupHealthCheck(api)

	r.regionH.RegisterRoutes(api)
	r.backupH.RegisterRoutes(api)
	r.systemH.RegisterRoutes(api)
}

func (r *Router) setupHealthCheck(rg *gin.RouterGroup) {
	health := rg.Group("/health")
	{
		health.GET("/live", r.h.LivenessCheck)
		health.GET("/ready", r.h.ReadinessCheck)
		health.GET("/metrics", r.h.MetricsHandler)
	}
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
