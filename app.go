package main

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	api "todo-backend/cmd/api"
	authUsecase "todo-backend/internal/auth/usecase"
	calendarDelivery "todo-backend/internal/calendar/delivery"
	calendarRepo "todo-backend/internal/calendar/repository"
	calendarUsecase "todo-backend/internal/calendar/usecase"
	"todo-backend/internal/jobs"
	"todo-backend/internal/push"
	pushDelivery "todo-backend/internal/push/delivery"
	pushRepo "todo-backend/internal/push/repository"
	reminderUsecase "todo-backend/internal/reminder/usecase"
	taskDelivery "todo-backend/internal/task/delivery"
	taskRepo "todo-backend/internal/task/repository"
	taskUsecase "todo-backend/internal/task/usecase"
	"todo-backend/pkg/config"
	"todo-backend/pkg/database"
	"todo-backend/pkg/fcm"
	"todo-backend/pkg/gcal"
	"todo-backend/pkg/googleoauth"
	"todo-backend/pkg/quiethours"
	"todo-backend/pkg/throttle"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// throttleRetention bounds Redis keys; it exceeds every throttle interval in use
const throttleRetention = 24 * time.Hour

// app holds the wired dependencies shared by every command
type app struct {
	cfg      *config.Config
	db       *gorm.DB
	rdb      *redis.Client
	registry *jobs.Registry

	taskRepo taskRepo.TaskRepository
	subRepo  pushRepo.SubscriptionRepository
	prefRepo pushRepo.PreferenceRepository
	sender   push.Sender

	calendarHandler *calendarDelivery.CalendarHandler
}

func newApp(ctx context.Context) (*app, error) {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	// Initialize database
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	a := &app{
		cfg:      cfg,
		db:       db,
		registry: jobs.NewRegistry(),
		taskRepo: taskRepo.NewGormTaskRepository(db),
		subRepo:  pushRepo.NewSubscriptionRepository(db),
		prefRepo: pushRepo.NewPreferenceRepository(db),
	}
	templateRepo := taskRepo.NewGormTemplateRepository(db)

	// Throttle log: Redis when configured, otherwise the database alone
	storeGate := throttle.NewStoreGate(db)
	var gate throttle.Gate = storeGate
	if cfg.RedisURL != "" {
		rdb, err := throttle.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			log.Printf("[WARN] Redis unavailable, throttling from database: %v", err)
		} else {
			a.rdb = rdb
			gate = throttle.NewRedisGate(rdb, storeGate, throttleRetention)
		}
	}

	// Push transport (optional)
	a.sender = push.LogSender{}
	if cfg.FirebaseCredentials != "" {
		fcmClient, err := fcm.NewClient(ctx, cfg.FirebaseCredentials, cfg.AppURL)
		if err != nil {
			log.Printf("[WARN] Failed to initialize FCM client (push notifications disabled): %v", err)
		} else {
			a.sender = fcmClient
		}
	}

	quiet, err := quiethours.NewWithHours(cfg.ReminderTimezone, cfg.QuietHoursStart, cfg.QuietHoursEnd)
	if err != nil {
		return nil, fmt.Errorf("quiet hours: %w", err)
	}
	slots, err := reminderUsecase.ParseSlots(cfg.WaterSlots)
	if err != nil {
		return nil, fmt.Errorf("WATER_REMINDER_SLOTS: %w", err)
	}

	dispatch := reminderUsecase.NewDispatchJob(a.taskRepo, a.subRepo, a.sender, quiet, nil)
	overdue := reminderUsecase.NewOverdueJob(a.taskRepo, a.subRepo, a.sender, gate, quiet, nil)
	water := reminderUsecase.NewWaterJob(a.prefRepo, a.subRepo, a.sender, gate, quiet, cfg.Location(), slots, cfg.WaterTolerance, nil)
	generate := taskUsecase.NewGenerationJob(a.taskRepo, templateRepo, nil)

	a.registry.Register(jobs.Dispatch, jobs.Wrap(dispatch.Run))
	a.registry.Register(jobs.Overdue, jobs.Wrap(overdue.Run))
	a.registry.Register(jobs.Water, jobs.Wrap(water.Run))
	a.registry.Register(jobs.Generate, jobs.Wrap(generate.Run))
	a.registry.Register(jobs.Prune, jobs.Wrap(throttle.NewPruneJob(storeGate, throttle.Retention, nil).Run))

	// Calendar sync (optional)
	if cfg.CalendarEnabled() {
		credRepo := calendarRepo.NewCredentialRepository(db)
		provider := googleoauth.NewProvider(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURI)
		refresher := calendarUsecase.NewRefresher(credRepo, provider, nil)
		sync := calendarUsecase.NewCalendarSync(credRepo, a.taskRepo, refresher, provider, gcal.NewService())

		a.registry.Register(jobs.Refresh, jobs.Wrap(calendarUsecase.NewRefreshJob(credRepo, refresher).Run))
		a.calendarHandler = calendarDelivery.NewCalendarHandler(sync, provider)
	} else {
		log.Println("[INFO] Google OAuth not configured, calendar sync disabled")
	}

	return a, nil
}

// handler builds the HTTP layer on top of the wired use cases
func (a *app) handler() *api.Handler {
	templateRepo := taskRepo.NewGormTemplateRepository(a.db)
	taskUc := taskUsecase.NewTaskUsecase(a.taskRepo, templateRepo, nil)

	return api.NewHandler(
		authUsecase.NewAuthUsecase(a.cfg.JWTSecret),
		taskDelivery.NewTaskHandler(taskUc),
		pushDelivery.NewPushHandler(a.subRepo, a.prefRepo),
		a.calendarHandler,
		a.registry,
		a.cfg,
	)
}

// pubsubTopic extracts the short topic name from a full resource name
func (a *app) pubsubTopic() string {
	topic := a.cfg.GooglePubSubTopic
	if parts := strings.Split(topic, "/"); len(parts) > 1 {
		topic = parts[len(parts)-1]
	}
	return topic
}

func (a *app) Close() {
	if a.rdb != nil {
		_ = a.rdb.Close()
	}
	if sqlDB, err := a.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
