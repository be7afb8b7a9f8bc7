package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"authsystem/internal/authz"
	"authsystem/internal/handlers"
	"authsystem/internal/middleware"
	"authsystem/internal/services"
)

func SetupRoutes(
	r *gin.Engine,
	tokens services.TokenService,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
) *gin.Engine {

	// ---- public
	auth := r.Group("/api/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.RefreshToken)
		auth.POST("/forgot-password", authHandler.ForgotPassword)
		auth.POST("/reset-password", authHandler.ResetPassword)
		auth.GET("/verify-email", authHandler.ConfirmEmail)
	}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// ---- protected
	r.Use(middleware.AuthMiddleware(tokens))

	users := r.Group("/users")
	{
		users.GET("/me", userHandler.Me)
		users.GET("/:id", middleware.RequireRoles(authz.RoleAdmin), userHandler.GetUserByID)
	}

	return r
}
