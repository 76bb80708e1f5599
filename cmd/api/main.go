package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"devisportal/internal/config"
	"devisportal/internal/database"
	"devisportal/internal/jobs"
	"devisportal/internal/ocr"
	"devisportal/internal/pdf"
	"devisportal/internal/server"
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := config.NewLogger(cfg)
	slog.SetDefault(logger)
	if cfg.IsProdLike() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	if err := server.Migrate(db); err != nil {
		logger.Error("migrate", slog.Any("error", err))
		os.Exit(1)
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer func() {
		if err := rdb.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}

	redisOpt := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	enqueuer := jobs.NewEnqueuer(redisOpt)
	defer func() {
		if err := enqueuer.Close(); err != nil {
			logger.Warn("enqueuer close", slog.Any("error", err))
		}
	}()
	inspector := asynq.NewInspector(redisOpt)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	gateways, err := server.Gateways(cfg)
	if err != nil {
		logger.Error("payment gateways", slog.Any("error", err))
		os.Exit(1)
	}

	app, err := server.New(cfg, server.Deps{
		DB:        db,
		Redis:     rdb,
		Notify:    enqueuer,
		Renderer:  pdf.NewInvoiceRenderer(pdf.NewClient(cfg.GotenbergURL), pdf.Company{Name: cfg.CompanyName, Address: cfg.CompanyAddress}),
		OCR:       ocr.NewClient(cfg.OCRURL),
		Gateways:  gateways,
		Inspector: inspector,
		Logger:    logger,
	})
	if err != nil {
		logger.Error("init server", slog.Any("error", err))
		os.Exit(1)
	}
	defer app.Hub.Close()

	srv := &http.Server{
		Addr:              cfg.AppAddr,
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
