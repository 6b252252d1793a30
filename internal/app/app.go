package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"praxis_backend/internal/config"
	"praxis_backend/internal/controller"
	"praxis_backend/internal/llm"
	"praxis_backend/internal/progression"
	"praxis_backend/internal/repository"
	"praxis_backend/internal/service"
	"praxis_backend/pkg/database"
	"praxis_backend/pkg/monitoring"
	"praxis_backend/pkg/security"
	"praxis_backend/pkg/tracing"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config *config.Config
	Router *gin.Engine
	DB     *gorm.DB
	Redis  *redis.Client

	log    *zap.Logger
	tracer *sdktrace.TracerProvider
}

type repositories struct {
	profile    *repository.ProfileRepository
	attributes *repository.AttributesRepository
	challenge  *repository.ChallengeRepository
	submission *repository.SubmissionRepository
}

type services struct {
	profile    *service.ProfileService
	attributes *service.AttributesService
	challenge  *service.ChallengeService
	submission *service.SubmissionService
}

type controllers struct {
	profile    *controller.ProfileController
	attributes *controller.AttributesController
	challenge  *controller.ChallengeController
	submission *controller.SubmissionController
	health     *controller.HealthController
}

func initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		profile:    repository.NewProfileRepository(db),
		attributes: repository.NewAttributesRepository(db),
		challenge:  repository.NewChallengeRepository(db),
		submission: repository.NewSubmissionRepository(db),
	}
}

func initServices(repos *repositories, cfg *config.Config, rdb *redis.Client, evaluator service.Evaluator, log *zap.Logger) *services {
	orchestrator := progression.NewOrchestrator(repos.attributes, log.Named("progression"),
		progression.WithObserver(monitoring.ProgressionObserver{}))

	return &services{
		profile:    service.NewProfileService(repos.profile, repos.attributes, log),
		attributes: service.NewAttributesService(repos.attributes, log),
		challenge:  service.NewChallengeService(repos.challenge, rdb, cfg.Challenges, cfg.Redis.ChallengeTTL, log),
		submission: service.NewSubmissionService(
			repos.challenge,
			repos.submission,
			repos.attributes,
			evaluator,
			orchestrator,
			log.Named("submission"),
		),
	}
}

func initControllers(s *services, db *gorm.DB, rdb *redis.Client, aiModel string) *controllers {
	return &controllers{
		profile:    controller.NewProfileController(s.profile),
		attributes: controller.NewAttributesController(s.attributes),
		challenge:  controller.NewChallengeController(s.challenge),
		submission: controller.NewSubmissionController(s.submission),
		health:     controller.NewHealthController(db, rdb, aiModel),
	}
}

// NewEvaluator ai.provider 为 fake 时使用本地评审
func NewEvaluator(ctx context.Context, cfg config.AIConfig, log *zap.Logger) (service.Evaluator, string, error) {
	provider, err := llm.NewProvider(ctx, cfg, log.Named("llm"))
	if err != nil {
		return nil, "", fmt.Errorf("init AI provider: %w", err)
	}
	model := "fake"
	if provider != nil {
		model = provider.ModelID()
	}
	return service.NewEvaluator(provider, cfg, log.Named("evaluator")), model, nil
}

func NewApp(cfg *config.Config, log *zap.Logger) (*App, error) {
	evaluator, aiModel, err := NewEvaluator(context.Background(), cfg.AI, log)
	if err != nil {
		return nil, err
	}
	log.Info("AI evaluator ready", zap.String("provider", cfg.AI.Provider), zap.String("model", aiModel))

	db, err := database.InitDB(&cfg.Database, cfg.ForceMigrate, log)
	if err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}

	app := &App{
		Config: cfg,
		DB:     db,
		log:    log,
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("init redis: %w", err)
	}
	if rdb != nil {
		log.Info("Redis connection established")
	}
	app.Redis = rdb

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer(cfg.Server.Name, cfg.Tracing.CollectorEndpoint)
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("init tracing: %w", err)
		}
		app.tracer = tp
	}

	monitoring.Init()

	repos := initRepositories(db)
	svcs := initServices(repos, cfg, rdb, evaluator, log)
	ctrls := initControllers(svcs, db, rdb, aiModel)

	gin.SetMode(cfg.Server.Mode)
	router := gin.New()
	router.Use(gin.Recovery())
	if cfg.Server.Mode == gin.DebugMode {
		router.Use(gin.Logger())
	}
	app.Router = router

	app.setupMiddlewares(router, cfg)
	app.registerRoutes(router, ctrls, cfg)

	return app, nil
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())
	if cfg.RateLimit.Enabled {
		router.Use(security.RateLimiter(cfg.RateLimit.MaxRequests, time.Duration(cfg.RateLimit.WindowMinutes)*time.Minute))
	}

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

func (a *App) Run() error {
	srv := &http.Server{
		Addr:         ":" + a.Config.Server.Port,
		Handler:      a.Router,
		ReadTimeout:  a.Config.Server.ReadTimeout,
		WriteTimeout: a.Config.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("Server running", zap.String("port", a.Config.Server.Port), zap.String("mode", a.Config.Server.Mode))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// 等待中断信号优雅地关闭服务器
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		a.Close()
		return fmt.Errorf("listen: %w", err)
	case <-quit:
	}
	a.log.Info("Shutting down server...")

	// 评审请求可能较慢，给足时间
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	err := srv.Shutdown(ctx)
	a.Close()
	if err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	a.log.Info("Server exiting")
	return nil
}

// Close 释放数据库、缓存和追踪资源
func (a *App) Close() {
	if a.tracer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := a.tracer.Shutdown(ctx); err != nil {
			a.log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
		cancel()
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			a.log.Warn("Failed to close redis", zap.Error(err))
		}
	}
	if sqlDB, err := a.DB.DB(); err == nil {
		sqlDB.Close()
	}
}
