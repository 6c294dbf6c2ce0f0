package main

import (
	"context"
	"flag"
	"github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"
	"kpp-siprima/config"
	_ "kpp-siprima/docs"
	"kpp-siprima/internal/handler"
	"kpp-siprima/internal/repository"
	"kpp-siprima/internal/security"
	"kpp-siprima/internal/service"
	"kpp-siprima/internal/stamp"
	"kpp-siprima/internal/util"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// @title KPP Si PRIMA e-sign
// @version 1.0
// @description REST API for placing and signing documents

// @host localhost:8080

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization
func main() {
	configPath := flag.String("config", "config.yaml", "path to the yaml config")
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := util.NewLogger(cfg.Log.Environment)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	if cfg.DatabaseConfig.Migrate {
		if err := config.RunMigrations(cfg.DatabaseConfig.DSN); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	db, err := config.SetupDatabase(cfg.DatabaseConfig.DSN)
	if err != nil {
		logger.Fatal("failed to connect to the database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Warn("closing database", zap.Error(err))
		}
	}()

	redisClient, err := config.SetupRedis(&cfg.RedisConfig)
	if err != nil {
		logger.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("closing redis", zap.Error(err))
		}
	}()

	s3Service, err := service.NewS3Service(ctx, &cfg.S3Config)
	if err != nil {
		logger.Fatal("failed to create the S3 service", zap.Error(err))
	}

	docRepo := repository.NewDocumentRepository(db)
	signatureRepo := repository.NewSignatureRepository(db)
	templateRepo := repository.NewTemplateRepository(db)
	userRepo := repository.NewUserRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, time.Duration(cfg.TTL.StatusCache)*time.Second)
	lockRepo := repository.NewLockRepository(redisClient)

	templateService := service.NewTemplateService(templateRepo, cfg.Signing.MaxImageBytes)
	workflowService := service.NewWorkflowService(
		docRepo,
		signatureRepo,
		templateService,
		userRepo,
		cacheRepo,
		lockRepo,
		s3Service,
		stamp.NewStamper(cfg.Signing.StampOpacity),
		cfg.Signing,
		time.Duration(cfg.TTL.Presign)*time.Second,
	)
	jwtService := security.NewJWTService(&cfg.JWT)

	srv, router := config.SetupServer(cfg.ServerAddr)
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(handler.AccessLog(logger))

	router.Get("/healthz", handler.Health)
	router.Get("/swagger/*", httpSwagger.WrapHandler)
	handler.RegisterRoutes(router,
		handler.NewDocumentHandler(workflowService, cfg.Signing.MaxUploadBytes),
		handler.NewTemplateHandler(templateService),
		security.JWTMiddleware(jwtService))

	runServer(ctx, srv)
}

func runServer(ctx context.Context, server *http.Server) {
	serverErrors := make(chan error, 1)
	go func() {
		zap.L().Info("server started", zap.String("addr", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	signalChannel := make(chan os.Signal, 1)
	signal.Notify(signalChannel, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			zap.L().Fatal("server stopped with error", zap.Error(err))
		}
	case sig := <-signalChannel:
		zap.L().Info("shutdown signal received", zap.String("signal", sig.String()))
	}

	shutDownCtx, shutDownCancel := context.WithTimeout(ctx, 5*time.Second)
	defer shutDownCancel()

	if err := server.Shutdown(shutDownCtx); err != nil {
		zap.L().Error("graceful shutdown failed", zap.Error(err))
	} else {
		zap.L().Info("server stopped")
	}
}
