package httpserver

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"committrack/internal/handler"
	"committrack/pkg/metrics"
)

type Router struct {
	Engine *gin.Engine
}

func NewRouter(goalHandler *handler.GoalHandler, enrichmentHandler *handler.EnrichmentHandler) *Router {
	r := gin.Default()
	r.Use(metricsMiddleware())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.POST("/goals", goalHandler.Create)
	r.GET("/goals", goalHandler.List)
	r.GET("/goals/:id", goalHandler.Get)
	r.PUT("/goals/:id", goalHandler.Update)
	r.DELETE("/goals/:id", goalHandler.Delete)
	r.GET("/users/:id/goals", goalHandler.ListByUser)

	r.POST("/enrichment/run", enrichmentHandler.RunNow)

	return &Router{Engine: r}
}

func (r *Router) Run(port string) error {
	return r.Engine.Run(port)
}

func metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		metrics.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			path,
			strconv.Itoa(c.Writer.Status()),
		).Observe(time.Since(start).Seconds())
	}
}
