package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

const (
	defaultJWTSecret = "change-me-jwt-secret"
)

// Config holds the runtime configuration shared by api, worker and the cli tools.
type Config struct {
	AppEnv  string `envconfig:"APP_ENV" default:"dev"`
	AppAddr string `envconfig:"APP_ADDR" default:":8000"`

	LogFormat string `envconfig:"LOG_FORMAT" default:"text"`

	DatabaseURL string `envconfig:"DATABASE_URL" default:"file:devisportal.db?_pragma=foreign_keys(1)"`
	RedisAddr   string `envconfig:"REDIS_ADDR" default:"127.0.0.1:6379"`

	JWTSecret     string        `envconfig:"JWT_SECRET" default:"change-me-jwt-secret"`
	JWTAccessTTL  time.Duration `envconfig:"JWT_ACCESS_TTL" default:"60m"`
	JWTRefreshTTL time.Duration `envconfig:"JWT_REFRESH_TTL" default:"168h"`

	VerifyCodeTTL    time.Duration `envconfig:"VERIFY_CODE_TTL" default:"10m"`
	PasswordResetTTL time.Duration `envconfig:"PASSWORD_RESET_TTL" default:"1h"`

	CORSAllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS"`
	FrontendURL        string   `envconfig:"FRONTEND_URL" default:"http://localhost:3000"`
	PublicURL          string   `envconfig:"PUBLIC_URL" default:"http://localhost:8000"`

	UploadsDir   string `envconfig:"UPLOADS_DIR" default:"./uploads"`
	GotenbergURL string `envconfig:"GOTENBERG_URL" default:"http://127.0.0.1:3001"`
	OCRURL       string `envconfig:"OCR_URL" default:"http://127.0.0.1:8884/ocr"`

	CompanyName    string `envconfig:"COMPANY_NAME" default:"Ste Bonjour"`
	CompanyAddress string `envconfig:"COMPANY_ADDRESS" default:"Rue Salem Alaykom, Ariana Tunisie"`

	StripeSecretKey string `envconfig:"STRIPE_SECRET_KEY"`
	StripeCurrency  string `envconfig:"STRIPE_CURRENCY" default:"tnd"`

	PayPalClientID string          `envconfig:"PAYPAL_CLIENT_ID"`
	PayPalSecret   string          `envconfig:"PAYPAL_SECRET"`
	PayPalMode     string          `envconfig:"PAYPAL_MODE" default:"sandbox"`
	PayPalTNDRate  decimal.Decimal `envconfig:"PAYPAL_TND_RATE" default:"3.1"`

	PaymentSessionTTL time.Duration `envconfig:"PAYMENT_SESSION_TTL" default:"30m"`
	PaymentOutcomeTTL time.Duration `envconfig:"PAYMENT_OUTCOME_TTL" default:"24h"`

	SMTPHost string `envconfig:"SMTP_HOST"`
	SMTPPort int    `envconfig:"SMTP_PORT" default:"1025"`
	SMTPUser string `envconfig:"SMTP_USER"`
	SMTPPass string `envconfig:"SMTP_PASS"`
	SMTPFrom string `envconfig:"SMTP_FROM" default:"no-reply@devisportal.local"`

	RateLimitRequests int           `envconfig:"RATE_LIMIT_REQUESTS" default:"20"`
	RateLimitWindow   time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"1m"`

	WorkerConcurrency int `envconfig:"WORKER_CONCURRENCY" default:"5"`

	// empty leaves /metrics open
	MetricsToken string `envconfig:"METRICS_TOKEN"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	cfg.AppEnv = strings.ToLower(strings.TrimSpace(cfg.AppEnv))
	cfg.JWTSecret = strings.TrimSpace(cfg.JWTSecret)
	cfg.FrontendURL = strings.TrimRight(cfg.FrontendURL, "/")
	cfg.PublicURL = strings.TrimRight(cfg.PublicURL, "/")

	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func validateConfig(cfg *Config) error {
	if cfg.JWTAccessTTL <= 0 {
		return fmt.Errorf("JWT_ACCESS_TTL must be > 0")
	}
	if cfg.JWTRefreshTTL <= 0 {
		return fmt.Errorf("JWT_REFRESH_TTL must be > 0")
	}
	if cfg.VerifyCodeTTL <= 0 {
		return fmt.Errorf("VERIFY_CODE_TTL must be > 0")
	}
	if cfg.PasswordResetTTL <= 0 {
		return fmt.Errorf("PASSWORD_RESET_TTL must be > 0")
	}
	if cfg.PaymentSessionTTL <= 0 || cfg.PaymentOutcomeTTL <= 0 {
		return fmt.Errorf("PAYMENT_SESSION_TTL and PAYMENT_OUTCOME_TTL must be > 0")
	}
	if !cfg.PayPalTNDRate.IsPositive() {
		return fmt.Errorf("PAYPAL_TND_RATE must be > 0")
	}
	mode := strings.ToLower(cfg.PayPalMode)
	if mode != "sandbox" && mode != "live" {
		return fmt.Errorf("PAYPAL_MODE must be one of: sandbox, live")
	}
	if cfg.RateLimitRequests <= 0 || cfg.RateLimitWindow <= 0 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS and RATE_LIMIT_WINDOW must be > 0")
	}

	if cfg.IsProdLike() {
		if isEmptyOrDefault(cfg.JWTSecret, defaultJWTSecret) {
			return fmt.Errorf("in prod/release JWT_SECRET must be set and not default")
		}
		if strings.HasPrefix(cfg.DatabaseURL, "file:") {
			return fmt.Errorf("in prod/release DATABASE_URL must point to PostgreSQL")
		}
	}

	return nil
}

// IsProdLike reports whether strict settings apply.
func (c *Config) IsProdLike() bool {
	env := strings.ToLower(strings.TrimSpace(c.AppEnv))
	return env == "prod" || env == "production" || env == "release"
}

func isEmptyOrDefault(v, def string) bool {
	trimmed := strings.TrimSpace(v)
	return trimmed == "" || trimmed == def
}
