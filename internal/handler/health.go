package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nicekwell/postboard/internal/service"
)

type HealthHandler struct {
	Service *service.PostService
}

func (h *HealthHandler) Register(r gin.IRouter) {
	r.GET("/health", h.dependencies)
	r.GET("/healthz", h.live)
	r.GET("/readyz", h.ready)
}

// @Summary Dependency health
// @Description Reports store and cache reachability separately. Always 200; a degraded cache is reported, not fatal.
// @Tags health
// @Produce json
// @Success 200 {object} service.Health
// @Router /health [get]
func (h *HealthHandler) dependencies(c *gin.Context) {
	if h.Service == nil {
		c.JSON(http.StatusOK, service.Health{Store: service.StatusUnreachable, Cache: service.StatusDegraded})
		return
	}
	c.JSON(http.StatusOK, h.Service.Health(c.Request.Context()))
}

// @Summary Liveness check
// @Tags health
// @Success 200 {object} map[string]string
// @Router /healthz [get]
func (h *HealthHandler) live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// @Summary Readiness check
// @Description Ready when the store answers a ping. Cache state does not affect readiness.
// @Tags health
// @Success 200 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Router /readyz [get]
func (h *HealthHandler) ready(c *gin.Context) {
	if h.Service == nil || h.Service.Repo == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "db_missing"})
		return
	}
	if err := h.Service.Repo.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "db_unreachable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
