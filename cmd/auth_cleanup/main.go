package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"devisportal/internal/config"
	"devisportal/internal/database"
	"devisportal/internal/domain/auth"
	"devisportal/internal/pkg/jwt"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := config.NewLogger(cfg)

	db, err := database.ConnectSilent(cfg.DatabaseURL)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	tokens := jwt.New(cfg.JWTSecret, cfg.JWTAccessTTL, cfg.JWTRefreshTTL)
	svc := auth.NewService(auth.NewRepository(db), tokens, nil, cfg.VerifyCodeTTL, cfg.PasswordResetTTL, config.Loggerf(logger))
	n, err := svc.Cleanup(ctx)
	if err != nil {
		logger.Error("auth cleanup", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("auth cleanup completed", slog.Int64("rows_deleted", n))
}
