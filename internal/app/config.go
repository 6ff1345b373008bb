package app

import (
	"strings"
	"time"

	"github.com/joho/godotenv"

	dbpkg "github.com/yungbote/instrument-catalog/internal/data/db"
	"github.com/yungbote/instrument-catalog/internal/observability"
	"github.com/yungbote/instrument-catalog/internal/pkg/logger"
	"github.com/yungbote/instrument-catalog/internal/services"
	"github.com/yungbote/instrument-catalog/internal/utils"
)

const defaultJWTSecret = "defaultsecret"

type Config struct {
	Env     string
	Port    string
	BaseURL string

	DB dbpkg.Config

	JWTSecretKey string
	SessionTTL   time.Duration
	APIKeyTTL    time.Duration
	CookieSecure bool

	GoogleClientID         string
	GoogleClientSecret     string
	OAuthRedirectBase      string
	RedisAddr              string
	RateLimits             string
	ImageCheckTimeout      time.Duration
	ImageCheckRPS          float64
	ImageCheckBurst        int
	ImageCheckUserAgent    string
	ImageCheckAllowPrivate bool
	CORSOrigins            []string

	OTel observability.OtelConfig
}

func (c Config) Development() bool { return c.Env == services.EnvDevelopment }

// LoadDotEnv reads .env when present. Variables already set win.
func LoadDotEnv(log *logger.Logger) {
	if err := godotenv.Load(); err != nil {
		log.Debug("No .env file loaded", "error", err)
	}
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func LoadConfig(log *logger.Logger) Config {
	env := utils.GetEnv("APP_ENV", "production", log)
	port := utils.GetEnv("PORT", "8000", log)
	baseURL := strings.TrimRight(utils.GetEnv("BASE_URL", "http://localhost:"+port, log), "/")

	cfg := Config{
		Env:     env,
		Port:    port,
		BaseURL: baseURL,
		DB: dbpkg.Config{
			Driver:           utils.GetEnv("DB_DRIVER", dbpkg.DriverPostgres, log),
			PostgresHost:     utils.GetEnv("POSTGRES_HOST", "localhost", log),
			PostgresPort:     utils.GetEnv("POSTGRES_PORT", "5432", log),
			PostgresUser:     utils.GetEnv("POSTGRES_USER", "postgres", log),
			PostgresPassword: utils.GetEnv("POSTGRES_PASSWORD", "", log),
			PostgresName:     utils.GetEnv("POSTGRES_NAME", "instrument_catalog", log),
			PostgresSSLMode:  utils.GetEnv("POSTGRES_SSLMODE", "disable", log),
			SQLitePath:       utils.GetEnv("SQLITE_PATH", "instrument_catalog.db", log),
		},
		JWTSecretKey:           utils.GetEnv("JWT_SECRET_KEY", defaultJWTSecret, log),
		SessionTTL:             utils.GetEnvAsDuration("SESSION_TTL", 24*time.Hour, log),
		APIKeyTTL:              utils.GetEnvAsDuration("API_KEY_TTL", 30*24*time.Hour, log),
		CookieSecure:           utils.GetEnvAsBool("COOKIE_SECURE", strings.HasPrefix(baseURL, "https://"), log),
		GoogleClientID:         utils.GetEnv("GOOGLE_OAUTH_CLIENT_ID", "", log),
		GoogleClientSecret:     utils.GetEnv("GOOGLE_OAUTH_CLIENT_SECRET", "", log),
		OAuthRedirectBase:      strings.TrimRight(utils.GetEnv("OAUTH_REDIRECT_BASE_URL", baseURL, log), "/"),
		RedisAddr:              strings.TrimSpace(utils.GetEnv("REDIS_ADDR", "", log)),
		RateLimits:             utils.GetEnv("RATE_LIMITS", "50/minute;2/second", log),
		ImageCheckTimeout:      utils.GetEnvAsDuration("IMAGE_CHECK_TIMEOUT", 2*time.Second, log),
		ImageCheckRPS:          utils.GetEnvAsFloat("IMAGE_CHECK_RPS", 5, log),
		ImageCheckBurst:        utils.GetEnvAsInt("IMAGE_CHECK_BURST", 5, log),
		ImageCheckUserAgent:    utils.GetEnv("IMAGE_CHECK_USER_AGENT", "instrument-catalog", log),
		ImageCheckAllowPrivate: utils.GetEnvAsBool("IMAGE_CHECK_ALLOW_PRIVATE", false, log),
		CORSOrigins:            splitList(utils.GetEnv("CORS_ORIGINS", "", log)),
		OTel: observability.OtelConfig{
			Enabled:     utils.GetEnvAsBool("OTEL_ENABLED", false, log),
			ServiceName: utils.GetEnv("OTEL_SERVICE_NAME", "instrument-catalog", log),
			Environment: env,
			Version:     utils.GetEnv("OTEL_SERVICE_VERSION", "dev", log),
			Endpoint:    utils.GetEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "", log),
			Headers:     utils.GetEnv("OTEL_EXPORTER_OTLP_HEADERS", "", log),
			Insecure:    utils.GetEnvAsBool("OTEL_EXPORTER_OTLP_INSECURE", false, log),
			SampleRatio: utils.GetEnvAsFloat("OTEL_SAMPLE_RATIO", 1, log),
		},
	}
	if cfg.JWTSecretKey == defaultJWTSecret && !cfg.Development() {
		log.Warn("JWT_SECRET_KEY is using the default value outside development")
	}
	return cfg
}
