package services

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/yungbote/instrument-catalog/internal/data/repos"
	"github.com/yungbote/instrument-catalog/internal/data/repos/testutil"
	"github.com/yungbote/instrument-catalog/internal/platform/apierr"
)

type fakeProvider struct {
	ident     ExternalIdentity
	revokeErr error
	revoked   []string
}

func (p *fakeProvider) Name() string { return "google" }

func (p *fakeProvider) AuthCodeURL(state string) string {
	return "https://accounts.example.com/auth?state=" + url.QueryEscape(state)
}

func (p *fakeProvider) Exchange(_ context.Context, code string) (*ExternalIdentity, error) {
	if code != "good-code" {
		return nil, errors.New("bad code")
	}
	id := p.ident
	return &id, nil
}

func (p *fakeProvider) Revoke(_ context.Context, token string) error {
	p.revoked = append(p.revoked, token)
	return p.revokeErr
}

func newAuthFixture(t *testing.T, env string) (AuthService, *fakeProvider) {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	p := &fakeProvider{ident: ExternalIdentity{
		Provider:    "google",
		Sub:         "google-" + strings.ReplaceAll(t.Name(), "/", "-"),
		GivenName:   "Ada",
		Name:        "Ada Lovelace",
		AccessToken: "provider-token",
	}}
	svc := NewAuthService(db, log, repos.NewUserRepo(db, log), repos.NewOAuthNonceRepo(db, log), []OAuthProvider{p}, NewTokenIssuer("test-secret"), AuthConfig{Env: env})
	return svc, p
}

func stateFrom(t *testing.T, authURL string) string {
	t.Helper()
	u, err := url.Parse(authURL)
	if err != nil {
		t.Fatalf("parse auth url: %v", err)
	}
	return u.Query().Get("state")
}

func TestAuthServiceLoginFlow(t *testing.T) {
	svc, p := newAuthFixture(t, "production")
	ctx := context.Background()

	authURL, err := svc.BeginLogin(ctx, "google")
	if err != nil {
		t.Fatalf("BeginLogin: %v", err)
	}
	state := stateFrom(t, authURL)

	res, err := svc.CompleteLogin(ctx, "google", state, "good-code")
	if err != nil {
		t.Fatalf("CompleteLogin: %v", err)
	}
	if !res.Created || res.User.Name != "Ada" {
		t.Fatalf("unexpected login result: %+v", res)
	}

	ident, err := svc.ResolveToken(ctx, res.Token)
	if err != nil {
		t.Fatalf("ResolveToken: %v", err)
	}
	if ident.UserID != res.User.ID || ident.Kind != TokenKindSession {
		t.Fatalf("unexpected identity: %+v", ident)
	}

	if _, err := svc.CompleteLogin(ctx, "google", state, "good-code"); !apierr.Is(err, http.StatusBadRequest) {
		t.Fatalf("replayed state: expected 400, got %v", err)
	}

	// A second login finds the same user.
	authURL, _ = svc.BeginLogin(ctx, "google")
	again, err := svc.CompleteLogin(ctx, "google", stateFrom(t, authURL), "good-code")
	if err != nil {
		t.Fatalf("CompleteLogin(again): %v", err)
	}
	if again.Created || again.User.ID != res.User.ID {
		t.Fatalf("expected existing user, got %+v", again)
	}

	revoked, err := svc.Logout(ctx, res.User.ID)
	if err != nil || !revoked {
		t.Fatalf("Logout: %v, %v", revoked, err)
	}
	if len(p.revoked) != 1 || p.revoked[0] != "provider-token" {
		t.Fatalf("revoked tokens = %v", p.revoked)
	}
}

func TestAuthServiceRejectsTamperedState(t *testing.T) {
	svc, _ := newAuthFixture(t, "production")
	ctx := context.Background()

	authURL, err := svc.BeginLogin(ctx, "google")
	if err != nil {
		t.Fatalf("BeginLogin: %v", err)
	}
	state := stateFrom(t, authURL)
	id, _, _ := strings.Cut(state, ".")

	for _, bad := range []string{"", "no-dot", id + ".wrong-nonce", "not-a-uuid.abc"} {
		if _, err := svc.CompleteLogin(ctx, "google", bad, "good-code"); !apierr.Is(err, http.StatusBadRequest) {
			t.Fatalf("state %q: expected 400, got %v", bad, err)
		}
	}
	if _, err := svc.BeginLogin(ctx, "myspace"); !apierr.Is(err, http.StatusNotFound) {
		t.Fatalf("unknown provider: expected 404, got %v", err)
	}
}

func TestAuthServiceLogoutReportsRevokeFailure(t *testing.T) {
	svc, p := newAuthFixture(t, "production")
	p.revokeErr = errors.New("google down")
	ctx := context.Background()

	authURL, _ := svc.BeginLogin(ctx, "google")
	res, err := svc.CompleteLogin(ctx, "google", stateFrom(t, authURL), "good-code")
	if err != nil {
		t.Fatalf("CompleteLogin: %v", err)
	}
	revoked, err := svc.Logout(ctx, res.User.ID)
	if err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if revoked {
		t.Fatalf("expected revoked=false when the provider fails")
	}
}

func TestAuthServiceDevLogin(t *testing.T) {
	prod, _ := newAuthFixture(t, "production")
	if _, err := prod.DevLogin(context.Background()); !apierr.Is(err, http.StatusNotImplemented) {
		t.Fatalf("production DevLogin: expected 501, got %v", err)
	}

	dev, _ := newAuthFixture(t, EnvDevelopment)
	ctx := context.Background()
	authURL, _ := dev.BeginLogin(ctx, "google")
	if _, err := dev.CompleteLogin(ctx, "google", stateFrom(t, authURL), "good-code"); err != nil {
		t.Fatalf("CompleteLogin: %v", err)
	}
	res, err := dev.DevLogin(ctx)
	if err != nil {
		t.Fatalf("DevLogin: %v", err)
	}
	if res.Token == "" || res.User == nil {
		t.Fatalf("unexpected dev login: %+v", res)
	}
}

func TestTokenIssuer(t *testing.T) {
	ti := NewTokenIssuer("secret")
	tok, exp, err := ti.Issue(42, TokenKindAPI, time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if time.Until(exp) <= 0 {
		t.Fatalf("expiry in the past: %v", exp)
	}
	id, kind, err := ti.Parse(tok)
	if err != nil || id != 42 || kind != TokenKindAPI {
		t.Fatalf("Parse: %d %q %v", id, kind, err)
	}

	if _, _, err := NewTokenIssuer("other").Parse(tok); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("wrong secret: expected ErrInvalidToken, got %v", err)
	}

	expired := NewTokenIssuer("secret")
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	old, _, _ := expired.Issue(42, TokenKindSession, time.Hour)
	if _, _, err := ti.Parse(old); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expired token: expected ErrInvalidToken, got %v", err)
	}
}
