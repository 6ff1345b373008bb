package app

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpx "github.com/yungbote/instrument-catalog/internal/http"
	httpH "github.com/yungbote/instrument-catalog/internal/http/handlers"
	httpMW "github.com/yungbote/instrument-catalog/internal/http/middleware"
	"github.com/yungbote/instrument-catalog/internal/http/templates"
	"github.com/yungbote/instrument-catalog/internal/observability"
	"github.com/yungbote/instrument-catalog/internal/pkg/logger"
)

type Middleware struct {
	Auth *httpMW.AuthMiddleware
}

type Handlers struct {
	Health     *httpH.HealthHandler
	Instrument *httpH.InstrumentHandler
	Category   *httpH.CategoryHandler
	Page       *httpH.PageHandler
	Auth       *httpH.AuthHandler
}

func wireHandlers(log *logger.Logger, cfg Config, services Services, db httpH.Pinger) Handlers {
	log.Info("Wiring handlers...")
	pages := httpH.NewPageHandler(log, services.Category, services.Instrument, services.Auth, httpH.PageConfig{
		BaseURL:    cfg.BaseURL,
		RateLimits: cfg.RateLimits,
	})
	return Handlers{
		Health:     httpH.NewHealthHandler(db),
		Instrument: httpH.NewInstrumentHandler(log, services.Instrument),
		Category:   httpH.NewCategoryHandler(log, services.Category),
		Page:       pages,
		Auth:       httpH.NewAuthHandler(log, services.Auth, pages, cfg.CookieSecure, cfg.Development()),
	}
}

func wireMiddleware(log *logger.Logger, cfg Config, services Services) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth: httpMW.NewAuthMiddleware(log, services.Auth, cfg.BaseURL),
	}
}

func metricsHandler(m *observability.Metrics) (http.Handler, error) {
	reg := prometheus.NewRegistry()
	for _, c := range []prometheus.Collector{
		m,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), nil
}

func wireServer(log *logger.Logger, cfg Config, services Services, handlers Handlers, middleware Middleware, m *observability.Metrics) (*httpx.Server, error) {
	renderer, err := templates.New()
	if err != nil {
		return nil, err
	}
	mh, err := metricsHandler(m)
	if err != nil {
		return nil, err
	}
	rc := httpx.RouterConfig{
		Log:               log,
		Metrics:           m,
		MetricsHTTP:       mh,
		Renderer:          renderer,
		Limiter:           services.Limiter,
		CORSOrigins:       cfg.CORSOrigins,
		AuthMiddleware:    middleware.Auth,
		HealthHandler:     handlers.Health,
		InstrumentHandler: handlers.Instrument,
		CategoryHandler:   handlers.Category,
		PageHandler:       handlers.Page,
		AuthHandler:       handlers.Auth,
	}
	if cfg.OTel.Enabled {
		rc.OTelService = cfg.OTel.ServiceName
	}
	return httpx.NewServer(rc), nil
}
