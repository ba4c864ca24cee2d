package server

import (
	"time"

	"socialhub/infrastructure/metrics"
	httpHandler "socialhub/interfaces/http"
	"socialhub/interfaces/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterConfig carries the settings the router needs from configuration.
type RouterConfig struct {
	SecretKey      string
	AllowedOrigins []string
}

func InitiateRouter(
	cfg RouterConfig,
	accountHandler httpHandler.IAccountHandler,
	callbackHandler httpHandler.IOAuthCallbackHandler,
	sessionHandler httpHandler.ISessionHandler,
	healthHandler httpHandler.IHealthHandler,
) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(metrics.Middleware())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.POST("/healthz", healthHandler.Healthz)
	router.GET("/healthz", healthHandler.Healthz)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// The provider redirects the browser here; the session comes from the cookie.
	router.GET("/auth/callback/:platform", middleware.OptionalAuth(cfg.SecretKey), callbackHandler.Callback)

	api := router.Group("api")
	api.Use(middleware.Auth(cfg.SecretKey))

	api.GET("/me", accountHandler.Me)
	api.GET("/platforms", accountHandler.Platforms)

	accounts := api.Group("/accounts")
	{
		accounts.GET("/stream", accountHandler.Stream)
		accounts.POST("/:platform/connect", accountHandler.Connect)
		accounts.POST("/:platform/refresh", accountHandler.Refresh)
		accounts.POST("/:platform/disconnect", accountHandler.RequestDisconnect)
		accounts.POST("/:platform/disconnect/confirm", accountHandler.ConfirmDisconnect)
		accounts.DELETE("/:platform/disconnect/:confirmationId", accountHandler.CancelDisconnect)
	}

	session := api.Group("/session")
	{
		session.POST("/refresh", sessionHandler.Refresh)
		session.POST("/signout", sessionHandler.SignOut)
	}

	return router
}
