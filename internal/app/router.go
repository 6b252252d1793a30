package app

import (
	"praxis_backend/internal/config"
	"praxis_backend/internal/middleware"
	"praxis_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	router.GET("/metrics", monitoring.PrometheusHandler())
	router.GET("/healthz", c.health.HealthCheck)

	api := router.Group("/api")
	api.Use(middleware.AuthMiddleware(cfg.Auth, a.log.Named("auth")))
	{
		api.POST("/submissions", c.submission.Create)
		api.GET("/submissions/:id", c.submission.Get)

		api.POST("/challenges", c.challenge.Create)
		api.GET("/challenges/active", c.challenge.ListActive)
		api.GET("/challenges/:id", c.challenge.Get)

		api.GET("/profile", c.profile.Me)

		api.GET("/attributes/:profile_id", c.attributes.Get)
		api.PATCH("/attributes/:profile_id", c.attributes.Patch)

		// 开发接口只在 debug 模式注册
		if cfg.Server.Mode == gin.DebugMode {
			api.POST("/dev/setup-mock-data", c.profile.SetupMockData)
		}
	}
}
