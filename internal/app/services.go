package app

import (
	"fmt"
	"net/http"
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/instrument-catalog/internal/catalog/imagecheck"
	"github.com/yungbote/instrument-catalog/internal/catalog/validation"
	"github.com/yungbote/instrument-catalog/internal/observability"
	"github.com/yungbote/instrument-catalog/internal/pkg/logger"
	"github.com/yungbote/instrument-catalog/internal/platform/ratelimit"
	"github.com/yungbote/instrument-catalog/internal/services"
)

type Services struct {
	Auth       services.AuthService
	Category   services.CategoryService
	Instrument services.InstrumentService
	Limiter    ratelimit.Limiter
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, repos Repos, clients Clients, metrics *observability.Metrics) (Services, error) {
	log.Info("Wiring services...")

	categoryService := services.NewCategoryService(db, log, repos.Category, repos.Instrument)

	imageChecker := imagecheck.New(clients.ImageHTTP, imagecheck.Config{
		Timeout:   cfg.ImageCheckTimeout,
		UserAgent: cfg.ImageCheckUserAgent,
		RPS:       cfg.ImageCheckRPS,
		Burst:     cfg.ImageCheckBurst,
	}, log, metrics)
	validator := validation.New(categoryService, imageChecker, log)
	instrumentService := services.NewInstrumentService(db, log, repos.Instrument, repos.AlternateName, validator, metrics)

	var providers []services.OAuthProvider
	if cfg.GoogleClientID != "" && cfg.GoogleClientSecret != "" {
		providers = append(providers, services.NewGoogleProvider(services.GoogleOAuthConfig{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.OAuthRedirectBase + "/auth/google/callback",
			HTTPClient:   &http.Client{Transport: clients.HTTP.Transport, Timeout: 10 * time.Second},
		}))
	} else {
		log.Warn("Google OAuth is not configured; only development login is available")
	}
	authService := services.NewAuthService(db, log, repos.User, repos.OAuthNonce, providers,
		services.NewTokenIssuer(cfg.JWTSecretKey),
		services.AuthConfig{Env: cfg.Env, SessionTTL: cfg.SessionTTL, APIKeyTTL: cfg.APIKeyTTL})

	rules, err := ratelimit.ParseRules(cfg.RateLimits)
	if err != nil {
		return Services{}, fmt.Errorf("parse RATE_LIMITS: %w", err)
	}
	var limiter ratelimit.Limiter
	switch {
	case len(rules) == 0:
		log.Warn("API rate limiting disabled")
	case clients.Redis != nil:
		limiter = ratelimit.NewRedisLimiter(clients.Redis, rules, "ratelimit")
		log.Info("API rate limits backed by redis", "rules", cfg.RateLimits)
	default:
		limiter = ratelimit.NewMemoryLimiter(rules, nil)
		log.Info("API rate limits kept in memory", "rules", cfg.RateLimits)
	}

	return Services{
		Auth:       authService,
		Category:   categoryService,
		Instrument: instrumentService,
		Limiter:    limiter,
	}, nil
}
