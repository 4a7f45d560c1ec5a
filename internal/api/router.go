package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jengzang/trackheat/internal/config"
	"github.com/jengzang/trackheat/internal/handler"
	"github.com/jengzang/trackheat/internal/middleware"
)

// Handlers groups the HTTP handlers mounted by SetupRouter
type Handlers struct {
	Tracking *handler.TrackingHandler
	Heatmap  *handler.HeatmapHandler
}

// SetupRouter 设置路由. limiter may be nil to disable rate limiting.
func SetupRouter(cfg *config.Config, h Handlers, limiter *middleware.RateLimiter) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.Logger(), middleware.Metrics())

	// CORS 中间件
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Expose-Headers", middleware.RequestIDHeader)

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "trackheat API is running",
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// mutating routes require a bearer token when auth is enabled
	protected := func(c *gin.Context) { c.Next() }
	if cfg.Auth.Enabled {
		protected = middleware.JWTAuth([]byte(cfg.Auth.JWTSecret))
	}

	// API 路由组
	api := r.Group("/api/v1")
	if limiter != nil {
		api.Use(middleware.RateLimit(limiter))
	}
	{
		tracking := api.Group("/tracking")
		{
			tracking.GET("/status", h.Tracking.Status)
			tracking.POST("/start", protected, h.Tracking.Start)
			tracking.POST("/stop", protected, h.Tracking.Stop)
		}

		points := api.Group("/points")
		{
			points.GET("", h.Tracking.ListPoints)
			points.GET("/count", h.Tracking.CountPoints)
			points.DELETE("", protected, h.Tracking.ClearPoints)
		}

		api.GET("/heatmap", h.Heatmap.GetHeatmap)
	}

	return r
}
