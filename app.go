package main

import (
	"context"
	"errors"
	"sync"
	"time"

	"socialfeed/internal/cache"
	"socialfeed/internal/config"
	"socialfeed/internal/handlers"
	"socialfeed/internal/middleware"
	"socialfeed/internal/models"
	"socialfeed/internal/repositories"
	"socialfeed/internal/services"
	"socialfeed/pkg/rabbitmq"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/utils"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var (
	promOnce sync.Once
	prom     *fiberprometheus.FiberPrometheus
)

// metrics registers the HTTP collectors on the default registry exactly once.
func metrics() *fiberprometheus.FiberPrometheus {
	promOnce.Do(func() {
		prom = fiberprometheus.New("socialfeed")
	})
	return prom
}

// application owns every long-lived resource of the server.
type application struct {
	cfg   *config.Config
	log   *zap.Logger
	app   *fiber.App
	db    *gorm.DB
	cache *cache.Cache
	mq    *rabbitmq.Client
}

func newApplication(cfg *config.Config, log *zap.Logger) (*application, error) {
	a := &application{cfg: cfg, log: log}

	// --- Repositories ---
	var (
		userRepo repositories.UserRepository
		postRepo repositories.PostRepository
	)
	if cfg.DBDriver == "memory" {
		userRepo = repositories.NewMockUserRepository()
		postRepo = repositories.NewMockPostRepository()
		log.Warn("using in-memory repositories, data is lost on restart")
	} else {
		level := gormlogger.Warn
		if cfg.LogLevel == "debug" {
			level = gormlogger.Info
		}
		db, err := repositories.OpenDatabase(cfg.DBDriver, cfg.DatabaseDSN, level)
		if err != nil {
			return nil, err
		}
		a.db = db
		userRepo = repositories.NewGORMUserRepository(db)
		postRepo = repositories.NewGORMPostRepository(db)
	}

	// --- Optional infrastructure: both degrade to disabled on failure ---
	if cfg.RedisURL != "" {
		c, err := cache.Connect(context.Background(), cfg.RedisURL, "socialfeed:")
		if err != nil {
			log.Warn("redis unavailable, continuing without cache", zap.Error(err))
		} else {
			a.cache = c
		}
	}

	var publisher services.EventPublisher
	if cfg.RabbitMQURL != "" {
		mq, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL}, log)
		if err != nil {
			log.Warn("rabbitmq unavailable, activity events disabled", zap.Error(err))
		} else {
			a.mq = mq
			publisher = mq
		}
	}

	// --- Services ---
	authService := services.NewAuthService(userRepo, cfg.JWTSecret, services.AuthOptions{
		BcryptCost:       cfg.BcryptCost,
		RegisterTokenTTL: cfg.RegisterTokenTTL,
		LoginTokenTTL:    cfg.LoginTokenTTL,
	}, publisher, log)
	profileService := services.NewProfileService(userRepo, a.cache, cfg.UserInfoCacheTTL, log)
	graphService := services.NewSocialGraphService(userRepo, profileService, publisher, log)
	postService := services.NewPostService(postRepo, profileService, services.FeedOptions{
		Concurrency:   cfg.FeedConcurrency,
		LookupTimeout: cfg.FeedLookupTimeout,
	}, publisher, log)

	// --- Handlers ---
	authRequired := middleware.AuthRequired(authService, log)
	userHandler := handlers.NewUserHandler(handlers.UserHandlerDeps{
		AuthService:    authService,
		ProfileService: profileService,
		GraphService:   graphService,
		AuthRequired:   authRequired,
		AuthLimiter:    middleware.NewRateLimiter(cfg.RateLimitPerMinute).Handler(),
		MaxUploadBytes: cfg.MaxUploadBytes(),
		Log:            log,
	})
	postHandler := handlers.NewPostHandler(postService, authRequired, cfg.MaxUploadBytes(), log)

	// --- Fiber App ---
	app := fiber.New(fiber.Config{
		AppName:      "socialfeed",
		BodyLimit:    int(cfg.MaxUploadBytes()) + 1<<20,
		ErrorHandler: errorHandler(log),
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.RequestLogger(log))
	app.Use(cors.New())
	if cfg.MetricsEnabled {
		p := metrics()
		p.RegisterAt(app, "/metrics")
		app.Use(p.Middleware)
	}

	api := app.Group("/api")
	userHandler.RegisterRoutes(api)
	postHandler.RegisterRoutes(api)

	app.Get("/health", a.handleHealth)

	a.app = app
	return a, nil
}

func (a *application) handleHealth(c *fiber.Ctx) error {
	status := fiber.Map{
		"status":   "healthy",
		"time":     time.Now().Format(time.RFC3339),
		"database": a.cfg.DBDriver,
		"cache":    a.cache.Enabled(),
		"events":   a.mq != nil,
	}
	if a.db != nil {
		sqlDB, err := a.db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.UserContext())
		}
		if err != nil {
			status["status"] = "degraded"
			status["databaseError"] = err.Error()
			return c.Status(fiber.StatusServiceUnavailable).JSON(status)
		}
	}
	return c.JSON(status)
}

// errorHandler renders errors that escape handlers, such as unknown routes
// and oversized bodies, in the standard error shape.
func errorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return c.Status(fe.Code).JSON(models.ErrorResponse{Error: fe.Message})
		}
		log.Error("unhandled error", zap.String("path", utils.CopyString(c.Path())), zap.Error(err))
		return models.RespondWithError(c, err)
	}
}

// startConsumer logs activity events published by this and other instances.
func (a *application) startConsumer() {
	if a.mq == nil {
		return
	}
	if err := a.mq.Consume(services.ActivityLogHandler(a.log)); err != nil {
		a.log.Warn("failed to start activity consumer", zap.Error(err))
	}
}

func (a *application) close() {
	if a.mq != nil {
		if err := a.mq.Close(); err != nil {
			a.log.Warn("error closing rabbitmq", zap.Error(err))
		}
	}
	if err := a.cache.Close(); err != nil {
		a.log.Warn("error closing redis", zap.Error(err))
	}
	if a.db != nil {
		if sqlDB, err := a.db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
}
