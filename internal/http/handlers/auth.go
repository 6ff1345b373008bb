package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/instrument-catalog/internal/http/middleware"
	"github.com/yungbote/instrument-catalog/internal/http/templates"
	"github.com/yungbote/instrument-catalog/internal/pkg/logger"
	"github.com/yungbote/instrument-catalog/internal/platform/apierr"
	"github.com/yungbote/instrument-catalog/internal/services"
)

const (
	MsgLoginFailed  = "You did not log in. Please try again."
	MsgLoggedOut    = "You have successfully logged out!"
	MsgRevokeFailed = "You are successfully logged out of Instrument Catalog, but we may not have been able to " +
		"revoke our access to your Google account. You can manually revoke our access yourself at"
	RevokeURL = "https://myaccount.google.com/permissions"
)

type AuthHandler struct {
	log          *logger.Logger
	authService  services.AuthService
	pages        *PageHandler
	cookieSecure bool
	devLogin     bool
}

func NewAuthHandler(log *logger.Logger, authService services.AuthService, pages *PageHandler, cookieSecure, devLogin bool) *AuthHandler {
	return &AuthHandler{
		log:          log.With("handler", "AuthHandler"),
		authService:  authService,
		pages:        pages,
		cookieSecure: cookieSecure,
		devLogin:     devLogin,
	}
}

type providerLink struct {
	Name  string
	Label string
}

func providerLabel(name string) string {
	if name == "" {
		return name
	}
	return strings.ToUpper(name[:1]) + name[1:]
}

// GET /login
func (h *AuthHandler) LoginPage(c *gin.Context) {
	names := h.authService.Providers()
	links := make([]providerLink, 0, len(names))
	for _, n := range names {
		links = append(links, providerLink{Name: n, Label: providerLabel(n)})
	}
	c.HTML(http.StatusOK, templates.PageLogin, h.pages.page(c, "Log in", gin.H{
		"Providers": links,
		"DevLogin":  h.devLogin,
	}))
}

func (h *AuthHandler) startSession(c *gin.Context, res *services.LoginResult) {
	middleware.SetSessionCookie(c, res.Token, int(h.authService.SessionTTL().Seconds()), h.cookieSecure)
}

// POST /login signs in as the first user; development only.
func (h *AuthHandler) DevLogin(c *gin.Context) {
	res, err := h.authService.DevLogin(c.Request.Context())
	if err != nil {
		if apierr.StatusOf(err) == http.StatusNotImplemented {
			h.pages.renderError(c, http.StatusNotImplemented, http.StatusText(http.StatusNotImplemented))
			return
		}
		h.pages.fail(c, err)
		return
	}
	h.startSession(c, res)
	c.Redirect(http.StatusSeeOther, "/")
}

// GET /auth/:provider
func (h *AuthHandler) BeginOAuth(c *gin.Context) {
	url, err := h.authService.BeginLogin(c.Request.Context(), c.Param("provider"))
	if err != nil {
		h.pages.fail(c, err)
		return
	}
	c.Redirect(http.StatusFound, url)
}

// GET /auth/:provider/callback
func (h *AuthHandler) OAuthCallback(c *gin.Context) {
	provider := c.Param("provider")
	if e := c.Query("error"); e != "" {
		h.log.Info("OAuth login declined", "provider", provider, "reason", e)
		addFlash(c, Flash{Message: MsgLoginFailed})
		c.Redirect(http.StatusSeeOther, "/login")
		return
	}
	res, err := h.authService.CompleteLogin(c.Request.Context(), provider, c.Query("state"), c.Query("code"))
	if err != nil {
		if apierr.StatusOf(err) == http.StatusNotFound {
			h.pages.fail(c, err)
			return
		}
		if apierr.StatusOf(err) >= 500 && !apierr.Is(err, http.StatusBadGateway) {
			h.log.Error("OAuth login failed", "provider", provider, "error", err)
		}
		addFlash(c, Flash{Message: MsgLoginFailed})
		c.Redirect(http.StatusSeeOther, "/login")
		return
	}
	h.startSession(c, res)
	addFlash(c, Flash{Message: "Successfully logged in with " + providerLabel(provider) + "!"})
	c.Redirect(http.StatusSeeOther, "/my")
}

// POST /logout
func (h *AuthHandler) Logout(c *gin.Context) {
	u := currentUser(c)
	middleware.ClearSessionCookie(c, h.cookieSecure)
	if u == nil {
		c.Redirect(http.StatusSeeOther, "/")
		return
	}
	revoked, err := h.authService.Logout(c.Request.Context(), u.UserID)
	if err != nil {
		h.log.Error("Logout failed to clear provider token", "user_id", u.UserID, "error", err)
	}
	if revoked && err == nil {
		addFlash(c, Flash{Message: MsgLoggedOut})
	} else {
		addFlash(c, Flash{Message: MsgRevokeFailed, Link: RevokeURL})
	}
	c.Redirect(http.StatusSeeOther, "/")
}
