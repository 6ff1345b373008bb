package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/instrument-catalog/internal/http/response"
	"github.com/yungbote/instrument-catalog/internal/pkg/ctxutil"
	"github.com/yungbote/instrument-catalog/internal/pkg/logger"
	"github.com/yungbote/instrument-catalog/internal/platform/apierr"
	"github.com/yungbote/instrument-catalog/internal/services"
)

const SessionCookie = "catalog_session"

func MsgAPIAuthRequired(baseURL string) string {
	return "You must authenticate using the `Authorization: Bearer` header in order to make API calls. " +
		"Find your API key by visiting this URL in your browser: " + strings.TrimRight(baseURL, "/") + "/api-docs"
}

type AuthMiddleware struct {
	log         *logger.Logger
	authService services.AuthService
	baseURL     string
}

func NewAuthMiddleware(log *logger.Logger, authService services.AuthService, baseURL string) *AuthMiddleware {
	middlewareLogger := log.With("Middleware", "AuthMiddleware")
	return &AuthMiddleware{log: middlewareLogger, authService: authService, baseURL: baseURL}
}

// RequireAPIAuth resolves the bearer token. Any failure is a 403 pointing
// the caller at the API docs page.
func (am *AuthMiddleware) RequireAPIAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractBearer(c)
		if tokenString == "" {
			response.AbortWithErrors(c, http.StatusForbidden, nil, MsgAPIAuthRequired(am.baseURL))
			return
		}
		ident, err := am.authService.ResolveToken(c.Request.Context(), tokenString)
		if err != nil {
			if apierr.StatusOf(err) >= 500 {
				am.log.Error("Token resolution failed", "error", err)
				response.AbortWithErrors(c, http.StatusInternalServerError, nil, response.MsgInternal)
				return
			}
			am.log.Debug("Rejected API token", "error", err)
			response.AbortWithErrors(c, http.StatusForbidden, nil, MsgAPIAuthRequired(am.baseURL))
			return
		}
		attach(c, ident, tokenString)
		c.Next()
	}
}

// LoadSession attaches the browser session identity when the cookie holds a
// valid token. Pages stay reachable for anonymous visitors.
func (am *AuthMiddleware) LoadSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, err := c.Cookie(SessionCookie)
		if err != nil || tokenString == "" {
			c.Next()
			return
		}
		ident, err := am.authService.ResolveToken(c.Request.Context(), tokenString)
		if err != nil {
			am.log.Debug("Ignoring invalid session cookie", "error", err)
			ClearSessionCookie(c, false)
			c.Next()
			return
		}
		if ident.Kind != services.TokenKindSession {
			c.Next()
			return
		}
		attach(c, ident, tokenString)
		c.Next()
	}
}

// RequireLogin redirects anonymous visitors to the login page.
func (am *AuthMiddleware) RequireLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !ctxutil.GetRequestData(c.Request.Context()).Authenticated() {
			c.Redirect(http.StatusSeeOther, "/login")
			c.Abort()
			return
		}
		c.Next()
	}
}

func attach(c *gin.Context, ident *services.Identity, token string) {
	rd := &ctxutil.RequestData{
		UserID:      ident.UserID,
		UserName:    ident.Name,
		TokenString: token,
		TokenKind:   ident.Kind,
	}
	c.Request = c.Request.WithContext(ctxutil.WithRequestData(c.Request.Context(), rd))
}

func extractBearer(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return strings.TrimSpace(authHeader[7:])
	}
	return ""
}

func SetSessionCookie(c *gin.Context, token string, maxAge int, secure bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, token, maxAge, "/", "", secure, true)
}

func ClearSessionCookie(c *gin.Context, secure bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, "", -1, "/", "", secure, true)
}
