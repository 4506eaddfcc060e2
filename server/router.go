package server

import (
	"time"

	httpHandler "social-publisher/interfaces/http"
	"social-publisher/interfaces/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type Handlers struct {
	Health     httpHandler.IHealthHandler
	Connection httpHandler.IConnectionHandler
	Publish    httpHandler.IPublishHandler
	// Stream serves the caller's publish status events; optional.
	Stream gin.HandlerFunc
}

func InitiateRouter(h Handlers, secretKey string, allowedOrigins []string) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(corsConfig(allowedOrigins)))

	router.GET("/healthz", h.Health.Healthz)

	api := router.Group("api")
	api.Use(middleware.Auth(secretKey))

	connections := api.Group("/connections")
	{
		connections.GET("", h.Connection.List)
		connections.POST("/:platform/authorize", h.Connection.Authorize)
		connections.POST("/:platform/exchange", h.Connection.Exchange)
		connections.POST("/:platform/revoke", h.Connection.Revoke)
		connections.POST("/:platform/refresh", h.Connection.Refresh)
	}

	publish := api.Group("/publish")
	{
		publish.POST("", h.Publish.Publish)
		if h.Stream != nil {
			publish.GET("/stream", h.Stream)
		}
		publish.GET("/:postId", h.Publish.GetStatus)
		publish.GET("/:postId/attempts", h.Publish.Attempts)
	}

	return router
}

// corsConfig allows every origin when no allow-list is configured.
func corsConfig(allowedOrigins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(allowedOrigins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = allowedOrigins
	cfg.AllowCredentials = true
	return cfg
}
