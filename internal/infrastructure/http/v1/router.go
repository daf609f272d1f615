package v1

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jaennil/guide_helper/backend/world/internal/infrastructure/http/v1/handler"
	"github.com/jaennil/guide_helper/backend/world/pkg/logger"
	"github.com/jaennil/guide_helper/backend/world/pkg/telemetry"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func NewRouter(handler *handler.Handler, l logger.Logger, telemetryEnabled bool) *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery())

	if telemetryEnabled {
		r.Use(telemetry.GinMiddleware())
	}

	r.Use(ginZapLogger(l))

	api := r.Group("/api")
	v1 := api.Group("/v1")

	v1.GET("/healthz", handler.Healthz)

	v1.GET("/regions", handler.Regions)
	v1.POST("/regions", handler.CreateRegion)
	v1.PATCH("/regions/:id/location", handler.MoveRegion)
	v1.POST("/regions/:id/reanchor", handler.ReanchorRegion)

	v1.GET("/prims", handler.Prims)
	v1.POST("/prims", handler.CreatePrim)
	v1.PUT("/prims/:id", handler.UpdatePrim)

	v1.GET("/tile/:z/:x/:y", handler.Tile)
	v1.GET("/cache/stats", handler.CacheStats)

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func ginZapLogger(l logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("logger", l)

		if c.Request.URL.Path == "/api/v1/healthz" {
			c.Next()
			return
		}

		start := time.Now()

		c.Next()

		latency := time.Since(start)

		l.Info("request",
			"status", c.Writer.Status(),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"ip", c.ClientIP(),
			"latency", latency,
			"size", c.Writer.Size(),
		)
	}
}
