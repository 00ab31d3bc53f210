package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"taskflow/internal/handlers"
	"taskflow/internal/middleware"
)

func SetupRoutes(
	r *gin.Engine,
	jwtSecret []byte,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	taskHandler *handlers.TaskHandler,
) *gin.Engine {

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	api.Use(middleware.AuthMiddleware(jwtSecret))

	auth := api.Group("/auth")
	{
		// public
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.POST("/token/refresh", authHandler.RefreshToken)
		auth.POST("/request-password-reset", authHandler.RequestPasswordReset)
		auth.POST("/reset-password", authHandler.ResetPassword)

		// authenticated
		auth.GET("/profile", authHandler.GetProfile)
		auth.PUT("/profile", authHandler.UpdateProfile)
		auth.PATCH("/profile", authHandler.UpdateProfile)
		auth.POST("/change-password", authHandler.ChangePassword)

		auth.GET("/users", userHandler.List)
		auth.DELETE("/users/:id", userHandler.Delete)
	}

	tasks := api.Group("/tasks")
	{
		tasks.GET("/", taskHandler.List)
		tasks.POST("/", taskHandler.Create)
		tasks.GET("/:id", taskHandler.Get)
		tasks.PUT("/:id", taskHandler.Update)
		tasks.PATCH("/:id", taskHandler.Update)
		tasks.DELETE("/:id", taskHandler.Delete)
		tasks.POST("/:id/complete", taskHandler.Complete)
		tasks.POST("/:id/reopen", taskHandler.Reopen)
	}

	return r
}
