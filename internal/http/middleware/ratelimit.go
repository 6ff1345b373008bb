package middleware

import (
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/instrument-catalog/internal/http/response"
	"github.com/yungbote/instrument-catalog/internal/observability"
	"github.com/yungbote/instrument-catalog/internal/pkg/ctxutil"
	"github.com/yungbote/instrument-catalog/internal/pkg/logger"
	"github.com/yungbote/instrument-catalog/internal/platform/ratelimit"
)

// RateLimit enforces limiter rules per authenticated user. It must run after
// RequireAPIAuth. Limiter failures let the request through.
func RateLimit(limiter ratelimit.Limiter, log *logger.Logger, m *observability.Metrics) gin.HandlerFunc {
	if limiter == nil {
		return func(c *gin.Context) { c.Next() }
	}
	log = log.With("Middleware", "RateLimit")
	return func(c *gin.Context) {
		rd := ctxutil.GetRequestData(c.Request.Context())
		if !rd.Authenticated() {
			c.Next()
			return
		}
		d, err := limiter.Allow(c.Request.Context(), "user:"+strconv.Itoa(rd.UserID))
		if err != nil {
			log.Warn("Rate limiter unavailable; allowing request", "user_id", rd.UserID, "error", err)
			c.Next()
			return
		}
		if !d.Allowed {
			rule := d.Rule.String()
			m.IncRateLimited(rule)
			if d.RetryAfter > 0 {
				secs := int(math.Ceil(d.RetryAfter.Seconds()))
				c.Header("Retry-After", strconv.Itoa(secs))
			}
			response.AbortWithErrors(c, http.StatusTooManyRequests, nil, "Rate limit exceeded: "+rule)
			return
		}
		c.Next()
	}
}
