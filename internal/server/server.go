// Package server assembles the HTTP API: services, handlers, middleware and
// the route table shared by cmd/api and the end-to-end tests.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"devisportal/internal/config"
	"devisportal/internal/domain/auth"
	"devisportal/internal/domain/catalog"
	"devisportal/internal/domain/chat"
	"devisportal/internal/domain/client"
	"devisportal/internal/domain/dashboard"
	"devisportal/internal/domain/devis"
	"devisportal/internal/domain/facture"
	"devisportal/internal/domain/payment"
	"devisportal/internal/domain/upload"
	"devisportal/internal/jobs"
	"devisportal/internal/middleware"
	"devisportal/internal/pkg/jwt"
)

// Notifications is the queue side of background work: facture events and the
// auth codes and links.
type Notifications interface {
	facture.Queue
	auth.Notifier
}

// Deps are the collaborators that talk to the outside world.
type Deps struct {
	DB       *gorm.DB
	Redis    *redis.Client
	Notify   Notifications
	Renderer facture.Renderer
	OCR      facture.OCREngine
	Gateways []payment.Gateway
	// nil hides /api/admin/jobs/
	Inspector jobs.QueueInspector
	Logger    *slog.Logger
}

// App is the wired API. The services are exposed for the seed command and tests.
type App struct {
	Router   *gin.Engine
	JWT      *jwt.Service
	Auth     *auth.Service
	Clients  *client.Service
	Devis    *devis.Service
	Factures *facture.Service
	Catalog  *catalog.Service
	Payments *payment.Service
	Hub      *chat.Hub
}

func New(cfg *config.Config, deps Deps) (*App, error) {
	if deps.DB == nil || deps.Redis == nil || deps.Notify == nil {
		return nil, errors.New("server: db, redis and notifications are required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logf := config.Loggerf(logger)

	tokens := jwt.New(cfg.JWTSecret, cfg.JWTAccessTTL, cfg.JWTRefreshTTL)

	uploads := upload.NewService(upload.NewRepository(deps.DB), cfg.UploadsDir)

	clientService := client.NewService(client.NewRepository(deps.DB), logf)
	authService := auth.NewService(auth.NewRepository(deps.DB), tokens, deps.Notify, cfg.VerifyCodeTTL, cfg.PasswordResetTTL, logf)

	factureService := facture.NewService(facture.NewRepository(deps.DB), facture.Deps{
		Clients:  clientService,
		History:  clientService,
		Queue:    deps.Notify,
		Renderer: deps.Renderer,
		OCR:      deps.OCR,
		Files:    uploads,
	}, logf)
	devisService := devis.NewService(devis.NewRepository(deps.DB), factureService, clientService, uploads, logf)

	paymentService := payment.NewService(
		payment.NewRedisSessionStore(deps.Redis),
		factureService,
		cfg.PaymentSessionTTL,
		cfg.PaymentOutcomeTTL,
		logf,
		deps.Gateways...,
	)

	catalogService := catalog.NewService(catalog.NewRepository(deps.DB), logf)
	dashboardService := dashboard.NewService(dashboard.NewRepository(deps.DB), factureService)

	bot := chat.NewBot()
	hub := chat.NewHub(bot, logf)

	if cfg.IsProdLike() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(
		middleware.ErrorLogger(logger),
		middleware.Secure(cfg.IsProdLike()),
		middleware.CORS(cfg.CORSAllowedOrigins),
		middleware.Metrics(),
	)

	r.GET("/health", health(deps.DB, deps.Redis))
	r.GET("/metrics", middleware.StaticTokenAuth(cfg.MetricsToken), gin.WrapH(promhttp.Handler()))

	limit := middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow)

	api := r.Group("/api")
	auth.NewHandler(authService).RegisterPublicRoutes(api, limit)
	catalogHandler := catalog.NewHandler(catalogService)
	catalogHandler.RegisterPublicRoutes(api)
	paymentHandler := payment.NewHandler(paymentService, cfg.FrontendURL)
	paymentHandler.RegisterPublicRoutes(api)
	chatHandler := chat.NewHandler(bot, hub, tokens, cfg.CORSAllowedOrigins)
	chatHandler.RegisterSocketRoutes(api)

	protected := api.Group("", middleware.JWTAuth(tokens))
	{
		auth.NewHandler(authService).RegisterProtectedRoutes(protected)
		client.NewHandler(clientService).RegisterRoutes(protected)
		devis.NewHandler(devisService).RegisterRoutes(protected)
		facture.NewHandler(factureService).RegisterRoutes(protected)
		paymentHandler.RegisterRoutes(protected)
		catalogHandler.RegisterRoutes(protected)
		dashboard.NewHandler(dashboardService).RegisterRoutes(protected)
		chatHandler.RegisterRoutes(protected.Group("", limit))
		if deps.Inspector != nil {
			jobs.NewHandler(deps.Inspector, logf).RegisterRoutes(protected)
		}
	}

	return &App{
		Router:   r,
		JWT:      tokens,
		Auth:     authService,
		Clients:  clientService,
		Devis:    devisService,
		Factures: factureService,
		Catalog:  catalogService,
		Payments: paymentService,
		Hub:      hub,
	}, nil
}

// health reports ok only when both stores answer.
func health(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		checks := gin.H{"database": "ok", "redis": "ok"}
		if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
			status = http.StatusServiceUnavailable
			checks["database"] = "down"
		}
		if err := rdb.Ping(ctx).Err(); err != nil {
			status = http.StatusServiceUnavailable
			checks["redis"] = "down"
		}
		state := "ok"
		if status != http.StatusOK {
			state = "degraded"
		}
		c.JSON(status, gin.H{"status": state, "checks": checks})
	}
}
