package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"storatrack-backend/config"
	"storatrack-backend/internal/mw"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(h *Handler, cfg config.ServerConfig, log logrus.FieldLogger) *gin.Engine {
	r := gin.New()
	r.Use(mw.RequestID(), mw.Logger(log), mw.Recovery(log))

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	rateLimiter := mw.RateLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst)

	// Closed periods never change, so their snapshots are safe to cache.
	cacheStore := cache.New(cfg.CacheTTL(), 2*cfg.CacheTTL()+time.Minute)
	caching := mw.Cache(cacheStore, cfg.CacheTTL())

	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		devices := api.Group("/devices")
		devices.GET("/export", h.ExportDevices)
		devices.GET("/:device_id/cost", h.GetDeviceCost)
		devices.GET("/:device_id/cost/range", h.GetDeviceCostRange)
		devices.GET("/:device_id/cost/export", h.ExportDeviceCost)
		devices.POST("/:device_id/movements", h.PostMovement)

		companies := api.Group("/companies/:company_id")
		companies.GET("/monthly", h.GetMonthlyCost)
		companies.GET("/monthly/export", h.ExportMonthlyCost)
		companies.GET("/summary", h.GetSummary)
		companies.GET("/historical", h.GetHistoricalCosts)
		companies.GET("/breakdown", h.GetStatusBreakdown)
		companies.POST("/closings/:period", h.PostClosing)
		companies.GET("/closings/:period", caching, h.GetClosing)
	}

	return r
}
