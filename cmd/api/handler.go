package api

import (
	"time"

	authUsecase "todo-backend/internal/auth/usecase"
	calendarDelivery "todo-backend/internal/calendar/delivery"
	"todo-backend/internal/jobs"
	pushDelivery "todo-backend/internal/push/delivery"
	taskDelivery "todo-backend/internal/task/delivery"
	"todo-backend/pkg/config"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type Handler struct {
	authUsecase     authUsecase.AuthUsecase
	taskHandler     *taskDelivery.TaskHandler
	pushHandler     *pushDelivery.PushHandler
	calendarHandler *calendarDelivery.CalendarHandler
	jobsHandler     *JobsHandler
	config          *config.Config
}

// NewHandler collects the HTTP handlers. calendarHandler may be nil when Google
// OAuth is not configured.
func NewHandler(
	authUc authUsecase.AuthUsecase,
	taskHandler *taskDelivery.TaskHandler,
	pushHandler *pushDelivery.PushHandler,
	calendarHandler *calendarDelivery.CalendarHandler,
	registry *jobs.Registry,
	cfg *config.Config,
) *Handler {
	return &Handler{
		authUsecase:     authUc,
		taskHandler:     taskHandler,
		pushHandler:     pushHandler,
		calendarHandler: calendarHandler,
		jobsHandler:     NewJobsHandler(registry),
		config:          cfg,
	}
}

// Router builds the gin engine with middleware and routes
func (h *Handler) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	corsConfig := cors.Config{
		AllowOrigins:     h.config.AllowedOrigins(),
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "Cache-Control", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(corsConfig.AllowOrigins) == 0 {
		corsConfig.AllowAllOrigins = true
		corsConfig.AllowCredentials = false
	}
	r.Use(cors.New(corsConfig))

	SetupRoutes(r, h)
	return r
}
