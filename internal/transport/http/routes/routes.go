package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/ZelseeH/CyberB/internal/transport/http/handlers"
	"github.com/ZelseeH/CyberB/internal/transport/http/middleware"
	"github.com/ZelseeH/CyberB/internal/usecase"
)

// Dependencies bundles everything route registration needs.
type Dependencies struct {
	Logger         *zap.Logger
	Metrics        *middleware.HTTPMetrics
	AllowedOrigins []string

	Auth *usecase.AuthService

	AuthHandler     *handlers.AuthHandler
	AccountsHandler *handlers.AccountsHandler
	SettingsHandler *handlers.SettingsHandler
	LogsHandler     *handlers.LogsHandler
	HealthHandler   *handlers.HealthHandler
}

// Register wires middleware and endpoints onto the engine.
func Register(router *gin.Engine, deps Dependencies) {
	router.Use(middleware.RequestID())
	router.Use(middleware.EnrichContext())
	router.Use(middleware.Logger(deps.Logger))
	router.Use(middleware.CORS(deps.AllowedOrigins))
	if deps.Metrics != nil {
		router.Use(deps.Metrics.Handler())
	}

	router.GET("/healthz", deps.HealthHandler.Live)
	router.GET("/readyz", deps.HealthHandler.Ready)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api/v1")

	api.POST("/auth/login", deps.AuthHandler.Login)
	api.POST("/auth/logout", deps.AuthHandler.Logout)

	authed := api.Group("")
	authed.Use(middleware.RequireAuth(deps.Auth))
	{
		authed.GET("/auth/verify", deps.AuthHandler.Verify)
		authed.GET("/profile", deps.AccountsHandler.Profile)
		authed.POST("/password/change", deps.AccountsHandler.ChangePassword)

		// Any authenticated user may read the settings: the change-password
		// form needs the policy rules. Writes stay admin-only.
		authed.GET("/settings/password-policy", deps.SettingsHandler.GetPasswordPolicy)
		authed.GET("/settings/system", deps.SettingsHandler.GetSystemSettings)
	}

	admin := api.Group("")
	admin.Use(middleware.RequireAuth(deps.Auth), middleware.RequireAdmin())
	{
		admin.GET("/users", deps.AccountsHandler.List)
		admin.POST("/users", deps.AccountsHandler.Create)
		admin.PUT("/users/:id", deps.AccountsHandler.Update)
		admin.PUT("/users/:id/block", deps.AccountsHandler.Block)
		admin.PUT("/users/:id/reset-password", deps.AccountsHandler.ResetPassword)
		admin.DELETE("/users/:id", deps.AccountsHandler.Delete)

		admin.PUT("/settings/password-policy", deps.SettingsHandler.UpdatePasswordPolicy)
		admin.PUT("/settings/system", deps.SettingsHandler.UpdateSystemSettings)

		admin.GET("/logs", deps.LogsHandler.List)
	}
}
