package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"

	"devisportal/internal/config"
	"devisportal/internal/database"
	"devisportal/internal/domain/auth"
	"devisportal/internal/domain/facture"
	"devisportal/internal/jobs"
	"devisportal/internal/pdf"
	"devisportal/internal/pkg/jwt"
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
	logf := config.Loggerf(logger)

	db, err := database.ConnectSilent(cfg.DatabaseURL)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}

	var mailer jobs.Mailer = jobs.NewConsoleMailer(logf)
	if cfg.SMTPHost != "" {
		mailer = jobs.NewSMTPMailer(jobs.SMTPConfig{
			Host: cfg.SMTPHost,
			Port: cfg.SMTPPort,
			User: cfg.SMTPUser,
			Pass: cfg.SMTPPass,
			From: cfg.SMTPFrom,
		})
	} else {
		logger.Warn("SMTP_HOST empty, mails are only logged")
	}

	tokens := jwt.New(cfg.JWTSecret, cfg.JWTAccessTTL, cfg.JWTRefreshTTL)
	authService := auth.NewService(auth.NewRepository(db), tokens, nil, cfg.VerifyCodeTTL, cfg.PasswordResetTTL, logf)

	processor := jobs.NewProcessor(jobs.ProcessorDeps{
		Factures:    facture.NewService(facture.NewRepository(db), facture.Deps{}, logf),
		Renderer:    pdf.NewInvoiceRenderer(pdf.NewClient(cfg.GotenbergURL), pdf.Company{Name: cfg.CompanyName, Address: cfg.CompanyAddress}),
		Mailer:      mailer,
		SMS:         jobs.NewConsoleSMS(logf),
		Auth:        authService,
		FrontendURL: cfg.FrontendURL,
	}, logf)

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts:   asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:      logger,
		Concurrency: cfg.WorkerConcurrency,
		Handlers:    processor.Handlers(),
		Cron:        processor.Cron(),
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
