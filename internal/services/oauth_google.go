package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	googleUserInfoURL  = "https://www.googleapis.com/oauth2/v2/userinfo"
	googleRevokeURL    = "https://oauth2.googleapis.com/revoke"
	googleProfileScope = "https://www.googleapis.com/auth/userinfo.profile"
)

type GoogleOAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	HTTPClient   *http.Client
}

type googleProvider struct {
	cfg        *oauth2.Config
	httpClient *http.Client
	userInfo   string
	revoke     string
}

func NewGoogleProvider(c GoogleOAuthConfig) OAuthProvider {
	client := c.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &googleProvider{
		cfg: &oauth2.Config{
			ClientID:     c.ClientID,
			ClientSecret: c.ClientSecret,
			RedirectURL:  c.RedirectURL,
			Scopes:       []string{googleProfileScope},
			Endpoint:     google.Endpoint,
		},
		httpClient: client,
		userInfo:   googleUserInfoURL,
		revoke:     googleRevokeURL,
	}
}

func (g *googleProvider) Name() string { return "google" }

func (g *googleProvider) AuthCodeURL(state string) string {
	return g.cfg.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

type googleUserInfo struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	GivenName string `json:"given_name"`
}

func (g *googleProvider) Exchange(ctx context.Context, code string) (*ExternalIdentity, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, g.httpClient)
	tok, err := g.cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("google code exchange: %w", err)
	}

	resp, err := g.cfg.Client(ctx, tok).Get(g.userInfo)
	if err != nil {
		return nil, fmt.Errorf("google userinfo: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("google userinfo: status %d", resp.StatusCode)
	}
	var info googleUserInfo
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&info); err != nil {
		return nil, fmt.Errorf("decode google userinfo: %w", err)
	}
	if strings.TrimSpace(info.ID) == "" {
		return nil, fmt.Errorf("google userinfo: missing id")
	}
	return &ExternalIdentity{
		Provider:    g.Name(),
		Sub:         info.ID,
		Email:       info.Email,
		GivenName:   info.GivenName,
		Name:        info.Name,
		AccessToken: tok.AccessToken,
	}, nil
}

func (g *googleProvider) Revoke(ctx context.Context, accessToken string) error {
	if accessToken == "" {
		return nil
	}
	form := url.Values{"token": {accessToken}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.revoke, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := g.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("google revoke: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("google revoke: status %d", resp.StatusCode)
	}
	return nil
}
