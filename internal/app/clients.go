package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/yungbote/instrument-catalog/internal/catalog/imagecheck"
	"github.com/yungbote/instrument-catalog/internal/pkg/logger"
)

type Clients struct {
	Redis *goredis.Client
	// HTTP is used for OAuth calls.
	HTTP *http.Client
	// ImageHTTP is used for image probes and refuses non-public hosts unless
	// IMAGE_CHECK_ALLOW_PRIVATE is set.
	ImageHTTP *http.Client
}

func wireClients(log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")

	httpClient := &http.Client{
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
	if cfg.ImageCheckAllowPrivate {
		log.Warn("Image checks may reach private and loopback hosts")
	}
	imageClient := &http.Client{
		Transport: otelhttp.NewTransport(imagecheck.NewTransport(cfg.ImageCheckAllowPrivate)),
	}

	// Redis
	var rdb *goredis.Client
	if cfg.RedisAddr != "" {
		rdb = goredis.NewClient(&goredis.Options{
			Addr:        cfg.RedisAddr,
			DialTimeout: 5 * time.Second,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return Clients{}, fmt.Errorf("redis ping: %w", err)
		}
	}

	return Clients{Redis: rdb, HTTP: httpClient, ImageHTTP: imageClient}, nil
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
}
