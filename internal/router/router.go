package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/cronwatch-dev/cronwatch/internal/handlers"
	"github.com/cronwatch-dev/cronwatch/internal/middleware"
	"github.com/cronwatch-dev/cronwatch/internal/types"
)

func NewRouter() *gin.Engine {
	r := gin.Default()

	// Add CORS middleware
	r.Use(cors.New(cors.Config{
		AllowOrigins:     types.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	api := r.Group("/api")
	{
		api.GET("/health", handlers.HealthCheck)
		api.GET("/ws/:project_id", middleware.AuthMiddleware(), handlers.WebSocket)
		auth := api.Group("/auth")
		{
			auth.POST("/register", handlers.CreateUser)
			auth.POST("/login", handlers.LoginUser)
			auth.POST("/logout", handlers.LogoutUser)
			auth.GET("/me", middleware.AuthMiddleware(), handlers.Me)
		}

		projects := api.Group("/projects", middleware.AuthMiddleware())
		{
			projects.POST("", handlers.CreateProject)
			projects.GET("", handlers.ListProjects)
			projects.PATCH("/:project_id", handlers.UpdateProject)
			projects.DELETE("/:project_id", handlers.DeleteProject)

			// Dashboard endpoint
			projects.GET("/:project_id/dashboard", handlers.GetDashboard)

			// Monitor management
			projects.POST("/:project_id/monitors", handlers.CreateMonitor)
			projects.GET("/:project_id/monitors", handlers.GetMonitors)
			projects.PUT("/:project_id/monitors/:monitor_guid", handlers.UpdateMonitor)
			projects.DELETE("/:project_id/monitors/:monitor_guid", handlers.DeleteMonitor)
		}

		// Check-in reporting, keyed by monitor GUID alone so reporting
		// jobs do not need to know project ids.
		checkins := api.Group("/monitors", middleware.AuthMiddleware())
		{
			checkins.POST("/:monitor_guid/checkins", handlers.CreateCheckIn)
			checkins.GET("/:monitor_guid/checkins", handlers.ListCheckIns)
			checkins.GET("/:monitor_guid/checkins/:checkin_guid", handlers.GetCheckIn)
			checkins.PUT("/:monitor_guid/checkins/:checkin_guid", handlers.UpdateCheckIn)
		}
	}

	return r
}
