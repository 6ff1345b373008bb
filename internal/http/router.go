package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/render"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/instrument-catalog/internal/http/handlers"
	httpMW "github.com/yungbote/instrument-catalog/internal/http/middleware"
	"github.com/yungbote/instrument-catalog/internal/observability"
	"github.com/yungbote/instrument-catalog/internal/pkg/logger"
	"github.com/yungbote/instrument-catalog/internal/platform/ratelimit"
)

type RouterConfig struct {
	Log         *logger.Logger
	Metrics     *observability.Metrics
	MetricsHTTP http.Handler
	Renderer    render.HTMLRender
	Limiter     ratelimit.Limiter
	CORSOrigins []string
	OTelService string

	AuthMiddleware *httpMW.AuthMiddleware

	HealthHandler     *httpH.HealthHandler
	InstrumentHandler *httpH.InstrumentHandler
	CategoryHandler   *httpH.CategoryHandler
	PageHandler       *httpH.PageHandler
	AuthHandler       *httpH.AuthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.OTelService != "" {
		r.Use(otelgin.Middleware(cfg.OTelService))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.CORSOrigins))
	if cfg.Renderer != nil {
		r.HTMLRender = cfg.Renderer
	}

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
		r.GET("/readyz", cfg.HealthHandler.Ready)
	}
	if cfg.MetricsHTTP != nil {
		r.GET("/metrics", gin.WrapH(cfg.MetricsHTTP))
	}

	// JSON API
	r.GET("/api", httpH.APIRoot)
	r.GET("/api/", httpH.APIRoot)
	api := r.Group("/api")
	if cfg.AuthMiddleware != nil {
		api.Use(cfg.AuthMiddleware.RequireAPIAuth())
	}
	api.Use(httpMW.RateLimit(cfg.Limiter, cfg.Log, cfg.Metrics))
	{
		if cfg.InstrumentHandler != nil {
			api.GET("/instruments", cfg.InstrumentHandler.List)
			api.POST("/instruments", cfg.InstrumentHandler.Create)
			api.GET("/instruments/:id", cfg.InstrumentHandler.Get)
			api.PUT("/instruments/:id", cfg.InstrumentHandler.Update)
			api.DELETE("/instruments/:id", cfg.InstrumentHandler.Delete)
			api.GET("/my-instruments", cfg.InstrumentHandler.ListMine)
			api.GET("/myinstruments", cfg.InstrumentHandler.ListMine)
		}
		if cfg.CategoryHandler != nil {
			api.GET("/categories", cfg.CategoryHandler.List)
			api.GET("/categories/:id", cfg.CategoryHandler.Get)
			api.GET("/categories/:id/instruments", cfg.CategoryHandler.ListInstruments)
		}
	}

	// Browser pages
	if cfg.PageHandler != nil && cfg.AuthMiddleware != nil {
		pages := r.Group("/", cfg.AuthMiddleware.LoadSession())
		{
			pages.GET("/", cfg.PageHandler.Index)
			pages.GET("/categories", cfg.PageHandler.Categories)
			pages.GET("/categories/:id", cfg.PageHandler.Category)
			pages.GET("/instruments", cfg.PageHandler.Instruments)
			pages.GET("/instruments/:id", cfg.PageHandler.Instrument)
			pages.GET("/api-docs", cfg.PageHandler.APIDocs)
			if cfg.AuthHandler != nil {
				pages.GET("/login", cfg.AuthHandler.LoginPage)
				pages.POST("/login", cfg.AuthHandler.DevLogin)
				pages.GET("/auth/:provider", cfg.AuthHandler.BeginOAuth)
				pages.GET("/auth/:provider/callback", cfg.AuthHandler.OAuthCallback)
				pages.POST("/logout", cfg.AuthHandler.Logout)
			}
		}
		member := pages.Group("/", cfg.AuthMiddleware.RequireLogin())
		{
			member.GET("/my", cfg.PageHandler.MyInstruments)
			member.GET("/instruments/new", cfg.PageHandler.NewInstrumentForm)
			member.POST("/instruments/new", cfg.PageHandler.CreateInstrument)
			member.GET("/instruments/:id/edit", cfg.PageHandler.EditInstrumentForm)
			member.POST("/instruments/:id/edit", cfg.PageHandler.UpdateInstrument)
			member.GET("/instruments/:id/delete", cfg.PageHandler.DeleteInstrumentForm)
			member.POST("/instruments/:id/delete", cfg.PageHandler.DeleteInstrument)
		}
	}

	r.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api/") {
			if cfg.AuthMiddleware != nil {
				cfg.AuthMiddleware.RequireAPIAuth()(c)
				if c.IsAborted() {
					return
				}
			}
			httpH.APINotFound(c)
			return
		}
		if cfg.PageHandler == nil || cfg.AuthMiddleware == nil {
			c.String(http.StatusNotFound, "not found")
			return
		}
		cfg.AuthMiddleware.LoadSession()(c)
		cfg.PageHandler.NotFound(c)
	})

	return r
}
