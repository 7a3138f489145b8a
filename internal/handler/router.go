package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nicekwell/postboard/internal/metrics"
	"github.com/nicekwell/postboard/internal/service"
)

// NewRouter wires the posts API routes onto a fresh gin engine. Callers set
// the gin mode before calling it.
func NewRouter(svc *service.PostService, logger *zap.Logger, m *metrics.Metrics) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(RequestLogger(logger))

	healthHandler := &HealthHandler{Service: svc}
	healthHandler.Register(engine)
	postHandler := &PostHandler{Service: svc, Logger: logger}
	postHandler.Register(engine)

	engine.GET("/metrics", gin.WrapH(m.Handler()))
	return engine
}
