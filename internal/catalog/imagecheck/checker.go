// Package imagecheck probes a user supplied image URL with a HEAD request and
// decides whether it points at a small jpg, png or gif.
package imagecheck

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/time/rate"

	"github.com/yungbote/instrument-catalog/internal/observability"
	"github.com/yungbote/instrument-catalog/internal/pkg/logger"
)

const (
	DefaultTimeout   = 2 * time.Second
	DefaultUserAgent = "instrument-catalog"
	// MaxBytes is exclusive: a Content-Length of exactly 300 KiB is rejected.
	MaxBytes = 300 * 1024
)

const (
	MsgBadScheme   = `Image URL: URL must start with "http" or "https"`
	MsgUnreachable = "Image URL: The image server could not be reached. Double check the URL or try a different one."
	MsgBadType     = "Image URL: The image must be a jpg, png, or gif."
	MsgTooLarge    = "Image URL: The image must be under 300 KB."
)

func MsgBadStatus(code int) string {
	return fmt.Sprintf("Image URL: A request for the image failed with status code %d.", code)
}

var allowedTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
}

// Doer is the subset of *http.Client the checker needs.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

type Config struct {
	Timeout   time.Duration
	UserAgent string
	// RPS and Burst throttle outbound probes process-wide. RPS <= 0 disables throttling.
	RPS   float64
	Burst int
}

type Checker struct {
	client    Doer
	log       *logger.Logger
	metrics   *observability.Metrics
	limiter   *rate.Limiter
	timeout   time.Duration
	userAgent string
	now       func() time.Time
}

func New(client Doer, cfg Config, baseLog *logger.Logger, metrics *observability.Metrics) *Checker {
	if client == nil {
		client = &http.Client{}
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	var limiter *rate.Limiter
	if cfg.RPS > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RPS), burst)
	}
	if baseLog == nil {
		baseLog = logger.Nop()
	}
	return &Checker{
		client:    client,
		log:       baseLog.With("service", "ImageChecker"),
		metrics:   metrics,
		limiter:   limiter,
		timeout:   cfg.Timeout,
		userAgent: cfg.UserAgent,
		now:       time.Now,
	}
}

// Check validates rawURL and returns the final URL after redirects. The first
// failing check short-circuits and its message is the only problem returned.
func (c *Checker) Check(ctx context.Context, rawURL string) (string, []string) {
	ctx, span := observability.Tracer().Start(ctx, "imagecheck.Check")
	defer span.End()

	start := c.now()
	final, outcome, problem := c.check(ctx, rawURL)
	c.metrics.ObserveImageCheck(outcome, c.now().Sub(start))
	span.SetAttributes(attribute.String("imagecheck.outcome", outcome))

	if problem != "" {
		span.SetStatus(codes.Error, outcome)
		c.log.Debug("Image URL rejected", "outcome", outcome)
		return "", []string{problem}
	}
	return final, nil
}

func (c *Checker) check(ctx context.Context, rawURL string) (final, outcome, problem string) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", "bad_scheme", MsgBadScheme
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", "throttled", MsgUnreachable
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, u.String(), nil)
	if err != nil {
		return "", "bad_scheme", MsgBadScheme
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		outcome := "unreachable"
		switch {
		case errors.Is(err, ErrBlockedAddress):
			outcome = "blocked"
		case errors.Is(err, context.DeadlineExceeded):
			outcome = "timeout"
		}
		return "", outcome, MsgUnreachable
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", "bad_status", MsgBadStatus(resp.StatusCode)
	}

	mediaType, _, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if err != nil || !allowedTypes[strings.ToLower(mediaType)] {
		return "", "bad_type", MsgBadType
	}

	size := resp.ContentLength
	if raw := strings.TrimSpace(resp.Header.Get("Content-Length")); raw != "" {
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
			size = n
		}
	}
	if size <= 0 || size >= MaxBytes {
		return "", "too_large", MsgTooLarge
	}

	final = u.String()
	if resp.Request != nil && resp.Request.URL != nil {
		final = resp.Request.URL.String()
	}
	return final, "ok", ""
}
