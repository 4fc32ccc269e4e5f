package api

import (
	"net/http"

	"todo-backend/internal/auth/delivery"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(r *gin.Engine, h *Handler) {
	auth := delivery.AuthMiddleware(h.authUsecase)

	api := r.Group("/api")
	{
		// Health check (no auth required)
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		// Job triggers for external schedulers
		jobs := api.Group("/jobs")
		jobs.Use(delivery.CronSecretMiddleware(h.config.CronSecret))
		{
			jobs.GET("", h.jobsHandler.ListJobs)
			jobs.POST("/:name", h.jobsHandler.RunJob)
		}

		// Task routes (protected)
		tasks := api.Group("/tasks")
		tasks.Use(auth)
		{
			tasks.GET("", h.taskHandler.GetTasks)
			tasks.POST("", h.taskHandler.CreateTask)
			tasks.GET("/overdue", h.taskHandler.GetOverdueTasks)
			tasks.GET("/:id", h.taskHandler.GetTaskByID)
			tasks.PUT("/:id", h.taskHandler.UpdateTask)
			tasks.DELETE("/:id", h.taskHandler.DeleteTask)
			tasks.PATCH("/:id/status", h.taskHandler.UpdateTaskStatus)
			if h.calendarHandler != nil {
				tasks.POST("/:id/calendar", h.calendarHandler.PushTask)
			}
		}

		// Template routes (protected)
		templates := api.Group("/templates")
		templates.Use(auth)
		{
			templates.GET("", h.taskHandler.GetTemplates)
			templates.POST("/common", h.taskHandler.CreateCommonTemplate)
			templates.DELETE("/common/:id", h.taskHandler.DeleteCommonTemplate)
			templates.POST("/daily", h.taskHandler.CreateDailyTemplate)
			templates.DELETE("/daily/:id", h.taskHandler.DeleteDailyTemplate)
		}

		// Push routes (protected)
		push := api.Group("/push")
		push.Use(auth)
		{
			push.POST("/subscriptions", h.pushHandler.RegisterSubscription)
			push.DELETE("/subscriptions/:token", h.pushHandler.UnregisterSubscription)
			push.GET("/preferences", h.pushHandler.GetPreferences)
			push.PUT("/preferences", h.pushHandler.UpdatePreferences)
		}

		// Calendar routes (protected)
		if h.calendarHandler != nil {
			calendar := api.Group("/calendar")
			calendar.Use(auth)
			{
				calendar.GET("/auth-url", h.calendarHandler.AuthURL)
				calendar.POST("/connect", h.calendarHandler.Connect)
			}
		}
	}
}
