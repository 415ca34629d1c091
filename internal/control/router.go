package control

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Router wraps the gin engine serving the control surface.
type Router struct {
	Engine *gin.Engine
}

// NewRouter builds the control routes: the action endpoint, health checks,
// and the Prometheus scrape endpoint.
func NewRouter(handler *Handler) *Router {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.HEAD("/healthz", func(c *gin.Context) {
		c.Status(200)
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.POST("/control", handler.Dispatch)

	return &Router{Engine: r}
}

// Run serves on the given address until the listener fails.
func (r *Router) Run(addr string) error {
	return r.Engine.Run(addr)
}
