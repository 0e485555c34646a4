package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fileshare-backend/internal/access"
	"fileshare-backend/internal/api"
	"fileshare-backend/internal/auth"
	"fileshare-backend/internal/blob"
	"fileshare-backend/internal/config"
	"fileshare-backend/internal/repository"
	"fileshare-backend/internal/service"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "initializing logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	// Load .env before reading configuration. Missing file is fine when the
	// variables come from the environment directly (Docker, K8s).
	if err := godotenv.Load(); err != nil {
		logger.Info("no .env file, using ambient environment")
	}

	var cfg config.Config
	if err := config.Load(&cfg); err != nil {
		logger.Fatal("loading configuration", zap.Error(err))
	}

	initCtx, cancelInit := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelInit()

	// Persistence layer.
	var store repository.Store
	switch cfg.StoreDriver {
	case "memory":
		store = repository.NewInMemoryStore()
		logger.Warn("using in-memory store, data will not survive restarts")
	default:
		pg, err := repository.NewPostgresStore(initCtx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal("connecting to database", zap.Error(err))
		}
		defer pg.Close()

		migrationSQL, err := os.ReadFile("./migrations/001_init.sql")
		if err != nil {
			logger.Fatal("reading migration file", zap.Error(err))
		}
		if err := pg.RunMigrations(initCtx, string(migrationSQL)); err != nil {
			logger.Fatal("running migrations", zap.Error(err))
		}

		store = pg
		logger.Info("connected to postgres")
	}

	// Blob store.
	var blobs blob.Store
	switch cfg.BlobDriver {
	case "memory":
		blobs = blob.NewMemoryStore()
		logger.Warn("using in-memory blob store")
	default:
		awsCfg, err := awsconfig.LoadDefaultConfig(initCtx, awsconfig.WithRegion(cfg.AWSRegion))
		if err != nil {
			logger.Fatal("loading aws configuration", zap.Error(err))
		}
		blobs = blob.NewS3Store(s3.NewFromConfig(awsCfg), cfg.AWSBucketName)
		logger.Info("using s3 blob store", zap.String("bucket", cfg.AWSBucketName))
	}

	// Auth and services.
	tokenService, err := auth.NewTokenService(cfg.JWTSecret)
	if err != nil {
		logger.Fatal("initializing token service", zap.Error(err))
	}

	userService := service.NewUserService(store, tokenService, logger)
	fileService := service.NewFileService(store, blobs, logger)
	grantService := service.NewGrantService(store)
	linkService := service.NewLinkService(store, logger)
	revocationService := service.NewRevocationService(store, grantService, linkService, logger)
	evaluator := access.NewEvaluator(store)

	// Scheduled sweep of expired records past the audit retention window.
	retention := time.Duration(cfg.PurgeRetentionHours) * time.Hour
	sweeper := cron.New()
	_, err = sweeper.AddFunc(cfg.PurgeSchedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if _, err := revocationService.PurgeExpired(ctx, time.Now().Add(-retention)); err != nil {
			logger.Error("purge sweep failed", zap.Error(err))
		}
	})
	if err != nil {
		logger.Fatal("scheduling purge sweep", zap.Error(err))
	}
	sweeper.Start()
	defer sweeper.Stop()

	// HTTP layer.
	handler := api.NewHandler(
		userService,
		fileService,
		grantService,
		linkService,
		revocationService,
		evaluator,
		tokenService,
		blobs,
		logger,
		cfg.CORSAllowedOrigin,
	)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           handler.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
		// Uploads and downloads stream through these deadlines, so they are
		// generous.
		ReadTimeout:  10 * time.Minute,
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.Int("port", cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("starting server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("graceful shutdown failed", zap.Error(err))
	}
	logger.Info("server stopped")
}
