package app

import (
	"github.com/gin-gonic/gin"

	"github.com/councildigest/core/internal/modules/summary"
	pkgredis "github.com/councildigest/core/internal/pkg/redis"
	"github.com/councildigest/core/internal/pkg/response"
)

func (a *App) registerRoutes(rc *pkgredis.Client, gen summary.Generator) {
	r := a.router

	r.NoRoute(func(c *gin.Context) {
		response.NotFound(c)
	})

	r.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"name":    "councildigest-core",
			"version": "1.0.0",
		})
	})
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	store := summary.NewGormStore(a.db)
	svc := summary.NewService(rc, store, gen, a.cfg.Summary, a.logger)
	loader := summary.NewLoader(a.db, store)

	api := r.Group("/api/v1")
	summary.NewHandler(svc, loader, store, a.logger).Register(api)
}
