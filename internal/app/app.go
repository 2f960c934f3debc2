package app

import (
	"context"

	"gymbro/config"
	"gymbro/internal/database"
	"gymbro/internal/events"
	"gymbro/internal/handlers/middleware"
	"gymbro/internal/jobs"
	"gymbro/internal/repositories"
	"gymbro/internal/services"
	"gymbro/internal/websockets"

	authController "gymbro/internal/controllers/auth"
	groupController "gymbro/internal/controllers/groups"
	motivationController "gymbro/internal/controllers/motivation"
	postController "gymbro/internal/controllers/posts"
	streakController "gymbro/internal/controllers/streaks"

	logger "github.com/Bparsons0904/goLogger"
)

type App struct {
	Database   database.DB
	Middleware middleware.Middleware
	Websocket  *websockets.Manager
	EventBus   *events.EventBus
	Config     config.Config

	// Services
	TransactionService *services.TransactionService
	IdentityService    *services.IdentityService
	SchedulerService   *services.SchedulerService
	PushService        *services.PushService
	MotivationService  *services.MotivationService

	// Repositories
	Repository repositories.Repository

	// Controllers
	AuthController       authController.AuthControllerInterface
	GroupController      groupController.GroupControllerInterface
	PostController       postController.PostControllerInterface
	StreakController     streakController.StreakControllerInterface
	MotivationController motivationController.MotivationControllerInterface
}

func New() (*App, error) {
	log := logger.New("app").Function("New")

	config, err := config.InitConfig()
	if err != nil {
		return &App{}, log.Err("failed to initialize config", err)
	}

	db, err := database.New(config)
	if err != nil {
		return &App{}, log.Err("failed to create database", err)
	}

	eventBus := events.New(db.Cache.Events, config)

	service, err := services.New(db, config, eventBus)
	if err != nil {
		return &App{}, log.Err("failed to initialize services", err)
	}

	repos := repositories.New(db)

	websocket, err := websockets.New(db, eventBus, config, service.Identity, repos.User)
	if err != nil {
		return &App{}, log.Err("failed to create websocket manager", err)
	}

	middleware := middleware.New(db, eventBus, config, repos)

	// Streaks first; posts depend on them for check-in handling
	streaks := streakController.New(repos, service, eventBus, config, db)
	auth := authController.New(service.Identity, repos.User, db)
	groups := groupController.New(repos, service, config, db)
	posts := postController.New(repos, service, streaks, eventBus, config, db)
	motivation := motivationController.New(repos, service, eventBus, config, db)

	if config.SchedulerEnabled {
		// Sweep runs at 2:00 AM UTC, after the day boundary grace window
		streakSweepJob := jobs.NewStreakSweepJob(streaks, services.Daily)
		if err := service.Scheduler.AddJob(streakSweepJob); err != nil {
			return &App{}, log.Err("failed to register streak sweep job", err)
		}
		log.Info("Registered streak sweep job with scheduler")

		dailyMotivationJob := jobs.NewDailyMotivationJob(
			motivation,
			repos.Post,
			services.DailyMotivation,
		)
		if err := service.Scheduler.AddJob(dailyMotivationJob); err != nil {
			return &App{}, log.Err("failed to register daily motivation job", err)
		}
		log.Info("Registered daily motivation job with scheduler")

		dailyReminderJob := jobs.NewDailyReminderJob(
			repos.User,
			service.Push,
			services.DailyReminder,
		)
		if err := service.Scheduler.AddJob(dailyReminderJob); err != nil {
			return &App{}, log.Err("failed to register daily reminder job", err)
		}
		log.Info("Registered daily reminder job with scheduler")
	}

	app := &App{
		Database:             db,
		Config:               config,
		Middleware:           middleware,
		Websocket:            websocket,
		EventBus:             eventBus,
		TransactionService:   service.Transaction,
		IdentityService:      service.Identity,
		SchedulerService:     service.Scheduler,
		PushService:          service.Push,
		MotivationService:    service.Motivation,
		Repository:           repos,
		AuthController:       auth,
		GroupController:      groups,
		PostController:       posts,
		StreakController:     streaks,
		MotivationController: motivation,
	}

	if err := app.validate(); err != nil {
		return &App{}, log.Err("failed to validate app", err)
	}

	return app, nil
}

func (a *App) validate() error {
	log := logger.New("app").Function("validate")
	if a.Database.SQL == nil {
		return log.ErrMsg("database is nil")
	}

	if a.Config == (config.Config{}) {
		return log.ErrMsg("config is nil")
	}

	nilChecks := []any{
		a.Websocket,
		a.EventBus,
		a.TransactionService,
		a.IdentityService,
		a.SchedulerService,
		a.PushService,
		a.MotivationService,
		a.AuthController,
		a.GroupController,
		a.PostController,
		a.StreakController,
		a.MotivationController,
		a.Repository.User,
		a.Repository.Group,
		a.Repository.Post,
		a.Repository.Streak,
		a.Repository.Motivation,
	}

	for _, check := range nilChecks {
		if check == nil {
			return log.ErrMsg("nil check failed")
		}
	}

	return nil
}

func (a *App) Close() (err error) {
	if a.EventBus != nil {
		if closeErr := a.EventBus.Close(); closeErr != nil {
			err = closeErr
		}
	}

	if a.SchedulerService != nil {
		if closeErr := a.SchedulerService.Stop(context.Background()); closeErr != nil {
			err = closeErr
		}
	}

	if dbErr := a.Database.Close(); dbErr != nil {
		err = dbErr
	}

	return err
}
