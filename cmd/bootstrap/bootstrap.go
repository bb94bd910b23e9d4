package bootstrap

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"onboarding-portal/config"
	deliveryHttp "onboarding-portal/internal/delivery/http"
	"onboarding-portal/internal/delivery/http/handler"
	"onboarding-portal/internal/delivery/http/middleware"
	domainRepo "onboarding-portal/internal/domain/repository"
	"onboarding-portal/internal/infrastructure/cache"
	"onboarding-portal/internal/infrastructure/database"
	"onboarding-portal/internal/infrastructure/messaging"
	"onboarding-portal/internal/infrastructure/storage"
	"onboarding-portal/internal/repository"
	"onboarding-portal/internal/service"
	"onboarding-portal/internal/usecase"
	"onboarding-portal/pkg/jwt"
	"onboarding-portal/pkg/validator"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const storeMemory = "memory"

// App holds all dependencies for the application
type App struct {
	Config      *config.Config
	DB          *gorm.DB
	RedisClient *redis.Client
	Server      *http.Server

	broadcaster *service.ScheduleBroadcastService
	kafka       *messaging.KafkaSchedulePublisher
}

// New creates a new App instance with all dependencies initialized
func New() (*App, error) {
	app := &App{}

	// Setup logger
	setupLogger()

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	app.Config = cfg
	if cfg.App.InstanceID == "" {
		cfg.App.InstanceID = uuid.NewString()
	}
	logrus.Infof("Configuration loaded successfully (instance %s)", cfg.App.InstanceID)

	// The memory store keeps the schedule in-process and runs without a database.
	if cfg.App.StoreDriver != storeMemory {
		db, err := database.NewPostgresConnection(cfg.DB, cfg.App.Timezone)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		app.DB = db
		logrus.Info("Database connected successfully")

		if cfg.DB.AutoMigrate {
			if err := database.RunMigrations(db, logrus.StandardLogger()); err != nil {
				app.Close()
				return nil, fmt.Errorf("failed to run migrations: %w", err)
			}
			logrus.Info("Database migrations applied")
		}
	}

	// Redis is optional: without it tokens are not checked for revocation and schedule
	// changes are not shared between instances.
	if cfg.Redis.Host != "" {
		redisClient, err := cache.NewRedisClient(cfg.Redis)
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
		app.RedisClient = redisClient
		logrus.Info("Redis connected successfully")
	} else {
		logrus.Warn("REDIS_HOST not set: token revocation and cross-instance sync are disabled")
	}

	if err := app.initializeServer(context.Background()); err != nil {
		app.Close()
		return nil, err
	}

	return app, nil
}

// setupLogger configures the logrus logger
func setupLogger() {
	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.SetOutput(os.Stdout)
	logrus.SetLevel(logrus.InfoLevel)
}

// initializeServer creates and configures the HTTP server
func (app *App) initializeServer(ctx context.Context) error {
	cfg := app.Config
	log := logrus.StandardLogger()

	loc, err := cfg.App.Location()
	if err != nil {
		return err
	}

	// Initialize JWT service
	jwtService := jwt.NewJWTService(cfg.JWT)

	// Initialize validator
	customValidator := validator.NewValidator()

	// Schedule store
	var scheduleRepo domainRepo.ScheduleEntryRepository
	if app.DB != nil {
		scheduleRepo = repository.NewScheduleEntryRepository(app.DB)
	} else {
		scheduleRepo = repository.NewScheduleEntryMemoryRepository()
		logrus.Warn("Using in-memory schedule store: entries are lost on restart")
	}
	slotStore := service.NewSlotStore(scheduleRepo, service.NewScheduleNotifier(), log)

	if app.RedisClient != nil && app.DB != nil {
		app.broadcaster = service.NewScheduleBroadcastService(app.RedisClient, slotStore, log, cfg.Redis.Channel, cfg.App.InstanceID)
		if err := app.broadcaster.Start(ctx); err != nil {
			return fmt.Errorf("failed to start schedule broadcast: %w", err)
		}
		slotStore.AddPublisher(app.broadcaster)
	}

	if publisher := messaging.NewKafkaSchedulePublisher(cfg.Kafka, log); publisher != nil {
		app.kafka = publisher
		slotStore.AddPublisher(publisher)
		logrus.Infof("Publishing schedule events to Kafka topic %s", cfg.Kafka.ScheduleTopic)
	}

	allocator := usecase.NewSlotAllocator(slotStore, log, loc, cfg.App.RequestTimeout, time.Now)

	var (
		auditService      service.AuditService = service.NewNoopAuditService()
		names             usecase.ClientNameResolver
		onboardingHandler *handler.OnboardingHandler
		auditLogHandler   *handler.AuditLogHandler
	)

	if app.DB != nil {
		fileStorage, err := storage.NewStorage(ctx, cfg.Storage)
		if err != nil {
			return fmt.Errorf("failed to initialize storage: %w", err)
		}

		auditLogRepo := repository.NewAuditLogRepository()
		auditService = service.NewAuditService(app.DB, log, auditLogRepo)

		onboardingUsecase := usecase.NewOnboardingUsecase(
			app.DB,
			log,
			repository.NewOnboardingRepository(),
			repository.NewOnboardingDocumentRepository(),
			allocator,
			fileStorage,
			auditService,
		)
		names = onboardingUsecase

		onboardingHandler = handler.NewOnboardingHandler(onboardingUsecase, customValidator, log)
		auditLogHandler = handler.NewAuditLogHandler(usecase.NewAuditLogUsecase(app.DB, log, auditLogRepo))
	}

	scheduleUsecase := usecase.NewScheduleUsecase(log, allocator, auditService, names)
	scheduleHandler := handler.NewScheduleHandler(scheduleUsecase, customValidator)

	// Initialize middleware
	var tokens middleware.TokenRegistry
	if app.RedisClient != nil {
		tokens = app.RedisClient
	}
	authMiddleware := middleware.NewAuthMiddleware(jwtService, tokens)
	corsMiddleware := middleware.NewCORSMiddleware()

	// Initialize router
	router := deliveryHttp.NewRouter(scheduleHandler, onboardingHandler, auditLogHandler, authMiddleware, corsMiddleware)
	httpRouter := router.Setup()

	// No write timeout: schedule streams stay open. Their contexts derive from baseCtx, which
	// Shutdown cancels so open streams end instead of holding the server.
	baseCtx, cancelStreams := context.WithCancel(context.Background())
	app.Server = &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.App.Port),
		Handler:           httpRouter,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return baseCtx },
	}
	app.Server.RegisterOnShutdown(cancelStreams)
	return nil
}

// Run starts the HTTP server and handles graceful shutdown
func (app *App) Run() {
	// Start server in goroutine
	go func() {
		logrus.Infof("Server starting on port %s", app.Config.App.Port)
		logrus.Infof("Environment: %s", app.Config.App.Env)
		if err := app.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	app.waitForShutdown()
}

// waitForShutdown blocks until an interrupt signal is received
func (app *App) waitForShutdown() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down server...")

	// Create shutdown context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Shutdown HTTP server gracefully
	if err := app.Server.Shutdown(ctx); err != nil {
		logrus.Errorf("Server forced to shutdown: %v", err)
	}

	// Close connections
	app.Close()

	logrus.Info("Server shutdown complete")
}

// Close stops background services and closes all connections.
func (app *App) Close() {
	if app.broadcaster != nil {
		app.broadcaster.Stop()
	}

	if app.kafka != nil {
		if err := app.kafka.Close(); err != nil {
			logrus.Warnf("Failed to close Kafka writer: %v", err)
		}
	}

	// Close database connection
	if app.DB != nil {
		sqlDB, err := app.DB.DB()
		if err == nil {
			sqlDB.Close()
		}
	}

	// Close Redis connection
	if app.RedisClient != nil {
		app.RedisClient.Close()
	}
}
