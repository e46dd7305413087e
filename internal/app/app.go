package app

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"flowgoals_backend/internal/config"
	"flowgoals_backend/internal/controller"
	"flowgoals_backend/internal/repository"
	"flowgoals_backend/internal/service"
	"flowgoals_backend/pkg/database"
	"flowgoals_backend/pkg/logger"
	"flowgoals_backend/pkg/monitoring"
	"flowgoals_backend/pkg/security"
	"flowgoals_backend/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config   *config.Config
	Router   *gin.Engine
	DB       *gorm.DB
	Redis    *redis.Client
	services *services

	bgCancel context.CancelFunc
}

type repositories struct {
	user       *repository.UserRepository
	goal       *repository.GoalRepository
	task       *repository.TaskRepository
	activity   *repository.ActivityRepository
	friendship *repository.FriendshipRepository
	goalInvite *repository.GoalInviteRepository
}

type services struct {
	auth       *service.AuthService
	storage    *service.StorageService
	planner    *service.PlannerService
	goal       *service.GoalService
	scheduler  *service.SchedulerService
	sharedGoal *service.SharedGoalService
	activity   *service.ActivityService
	user       *service.UserService
	friendship *service.FriendshipService
	aiChat     *service.AIChatService
	reminder   *service.ReminderService
}

type controllers struct {
	auth      *controller.AuthController
	goal      *controller.GoalController
	task      *controller.TaskController
	invite    *controller.InviteController
	user      *controller.UserController
	community *controller.CommunityController
	chat      *controller.ChatController
	health    *controller.HealthController
}

func (a *App) initRepositories(db *gorm.DB, rdb *redis.Client) *repositories {
	return &repositories{
		user:       repository.NewUserRepository(db),
		goal:       repository.NewGoalRepository(db),
		task:       repository.NewTaskRepository(db),
		activity:   repository.NewActivityRepository(db, rdb),
		friendship: repository.NewFriendshipRepository(db, rdb),
		goalInvite: repository.NewGoalInviteRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, db *gorm.DB, rdb *redis.Client) *services {
	s := &services{}

	s.storage = service.NewStorageService(cfg)
	s.auth = service.NewAuthService(repos.user, service.NewTokeninfoVerifier(cfg.Google), cfg)
	s.planner = service.NewPlannerService(cfg.AI)
	s.activity = service.NewActivityService(repos.activity, repos.friendship, repos.user)
	s.scheduler = service.NewSchedulerService(repos.task, repos.goal, s.activity)
	s.goal = service.NewGoalService(repos.goal, repos.task, s.planner)
	s.sharedGoal = service.NewSharedGoalService(repos.goal, repos.task, repos.goalInvite, repos.user, &service.GormTxRunner{DB: db})
	s.user = service.NewUserService(repos.user, repos.goal, repos.task, repos.friendship)
	s.friendship = service.NewFriendshipService(repos.friendship, repos.user, repos.goal, repos.task)
	s.aiChat = service.NewAIChatService(cfg.AI, repos.user)
	s.reminder = service.NewReminderService(repos.user, repos.goal, repos.task, rdb, cfg.Reminder)

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB, rdb *redis.Client) *controllers {
	return &controllers{
		auth:      controller.NewAuthController(s.auth),
		goal:      controller.NewGoalController(s.goal, s.scheduler, s.user),
		task:      controller.NewTaskController(s.scheduler),
		invite:    controller.NewInviteController(s.sharedGoal),
		user:      controller.NewUserController(s.user, s.storage),
		community: controller.NewCommunityController(s.friendship, s.activity),
		chat:      controller.NewChatController(s.aiChat),
		health:    controller.NewHealthController(db, rdb),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())

	maxRequests := cfg.RateLimit.MaxRequests
	if maxRequests <= 0 {
		maxRequests = 10000
	}
	window := time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute
	if window <= 0 {
		window = time.Minute
	}
	router.Use(security.RateLimiter(maxRequests, window))

	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)

	logger.Log.Info("Logger initialized successfully")

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.InitDB(cfg)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
	}

	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
	}

	repos := app.initRepositories(db, rdb)
	services := app.initServices(repos, cfg, db, rdb)
	app.services = services
	controllers := app.initControllers(services, db, rdb)

	monitoring.Init()

	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		if _, err := tracing.InitTracer("flow-goals", cfg.Tracing.CollectorEndpoint); err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
	}

	app.registerRoutes(router, controllers, repos, cfg)

	if cfg.Storage.Type == "local" {
		router.Static("/uploads", cfg.Storage.LocalPath)
	}

	bgCtx, cancel := context.WithCancel(context.Background())
	app.bgCancel = cancel
	services.reminder.Start(bgCtx)

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	go func() {
		log.Printf("Server running on port %s", a.Config.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// 等待中断信号优雅地关闭服务器
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	if a.bgCancel != nil {
		a.bgCancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}
