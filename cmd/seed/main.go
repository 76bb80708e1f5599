package main

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"devisportal/internal/config"
	"devisportal/internal/database"
	"devisportal/internal/domain/auth"
	"devisportal/internal/domain/catalog"
	"devisportal/internal/pkg/jwt"
	"devisportal/internal/server"
)

type seedConfig struct {
	AdminEmail    string `envconfig:"SEED_ADMIN_EMAIL" default:"admin@devisportal.local"`
	AdminPassword string `envconfig:"SEED_ADMIN_PASSWORD" default:"admin12345"`
}

var offerings = []catalog.OfferingRequest{
	{
		Name:        "Site vitrine",
		Description: "Présentation de votre activité en quelques pages, optimisée pour mobile.",
		Category:    catalog.CategoryWeb,
		PriceRange:  "800-1500 TND",
		Features:    []string{"Responsive", "SEO de base", "Formulaire de contact"},
	},
	{
		Name:        "Site e-commerce",
		Description: "Boutique en ligne avec paiement carte et PayPal.",
		Category:    catalog.CategoryWeb,
		PriceRange:  "2500-6000 TND",
		Features:    []string{"Catalogue produits", "Paiement en ligne", "Tableau de bord"},
	},
	{
		Name:        "Application mobile",
		Description: "Application Android et iOS connectée à votre back-office.",
		Category:    catalog.CategoryMobile,
		PriceRange:  "4000-10000 TND",
		Features:    []string{"Android", "iOS", "Notifications"},
	},
	{
		Name:        "Identité visuelle",
		Description: "Logo, charte graphique et supports imprimés.",
		Category:    catalog.CategoryDesign,
		PriceRange:  "300-900 TND",
		Features:    []string{"Logo", "Charte graphique"},
	},
}

func main() {
	_ = godotenv.Load()
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := config.NewLogger(cfg)
	logf := config.Loggerf(logger)

	var seed seedConfig
	if err := envconfig.Process("", &seed); err != nil {
		logger.Error("load seed config", slog.Any("error", err))
		os.Exit(1)
	}

	db, err := database.ConnectSilent(cfg.DatabaseURL)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	if err := server.Migrate(db); err != nil {
		logger.Error("migrate", slog.Any("error", err))
		os.Exit(1)
	}

	tokens := jwt.New(cfg.JWTSecret, cfg.JWTAccessTTL, cfg.JWTRefreshTTL)
	authService := auth.NewService(auth.NewRepository(db), tokens, nil, cfg.VerifyCodeTTL, cfg.PasswordResetTTL, logf)
	switch _, err := authService.CreateAdmin(ctx, seed.AdminEmail, seed.AdminPassword); {
	case errors.Is(err, auth.ErrEmailAlreadyExists):
		logger.Info("admin already present", slog.String("email", seed.AdminEmail))
	case err != nil:
		logger.Error("create admin", slog.Any("error", err))
		os.Exit(1)
	default:
		logger.Info("admin created", slog.String("email", seed.AdminEmail))
	}

	catalogService := catalog.NewService(catalog.NewRepository(db), logf)
	created := 0
	for _, o := range offerings {
		ok, err := catalogService.EnsureOffering(ctx, o)
		if err != nil {
			logger.Error("seed offering", slog.String("name", o.Name), slog.Any("error", err))
			os.Exit(1)
		}
		if ok {
			created++
		}
	}
	logger.Info("seed completed", slog.Int("offerings_created", created), slog.Int("offerings_total", len(offerings)))
}
