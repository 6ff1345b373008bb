package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/instrument-catalog/internal/data/repos"
	types "github.com/yungbote/instrument-catalog/internal/domain"
	"github.com/yungbote/instrument-catalog/internal/pkg/dbctx"
	"github.com/yungbote/instrument-catalog/internal/pkg/logger"
	"github.com/yungbote/instrument-catalog/internal/platform/apierr"
)

const EnvDevelopment = "development"

var errLoginState = errors.New("the login attempt expired or was already used")

type AuthConfig struct {
	Env        string
	SessionTTL time.Duration
	APIKeyTTL  time.Duration
	NonceTTL   time.Duration
}

// Identity is who a bearer or session token belongs to.
type Identity struct {
	UserID int
	Name   string
	Kind   string
}

type LoginResult struct {
	User      *types.User
	Token     string
	ExpiresAt time.Time
	Created   bool
}

type AuthService interface {
	Providers() []string
	BeginLogin(ctx context.Context, provider string) (string, error)
	CompleteLogin(ctx context.Context, provider, state, code string) (*LoginResult, error)
	DevLogin(ctx context.Context) (*LoginResult, error)
	// Logout clears the stored provider token. revoked reports whether the
	// provider confirmed the revocation.
	Logout(ctx context.Context, userID int) (revoked bool, err error)
	ResolveToken(ctx context.Context, token string) (*Identity, error)
	IssueAPIKey(ctx context.Context, userID int) (string, time.Time, error)
	SessionTTL() time.Duration
}

type authService struct {
	db        *gorm.DB
	log       *logger.Logger
	userRepo  repos.UserRepo
	nonceRepo repos.OAuthNonceRepo
	providers map[string]OAuthProvider
	tokens    *TokenIssuer
	cfg       AuthConfig
	now       func() time.Time
}

func NewAuthService(
	db *gorm.DB,
	baseLog *logger.Logger,
	userRepo repos.UserRepo,
	nonceRepo repos.OAuthNonceRepo,
	providers []OAuthProvider,
	tokens *TokenIssuer,
	cfg AuthConfig,
) AuthService {
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 24 * time.Hour
	}
	if cfg.APIKeyTTL <= 0 {
		cfg.APIKeyTTL = 30 * 24 * time.Hour
	}
	if cfg.NonceTTL <= 0 {
		cfg.NonceTTL = 10 * time.Minute
	}
	byName := make(map[string]OAuthProvider, len(providers))
	for _, p := range providers {
		if p != nil {
			byName[p.Name()] = p
		}
	}
	return &authService{
		db:        db,
		log:       baseLog.With("service", "AuthService"),
		userRepo:  userRepo,
		nonceRepo: nonceRepo,
		providers: byName,
		tokens:    tokens,
		cfg:       cfg,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (as *authService) SessionTTL() time.Duration { return as.cfg.SessionTTL }

func (as *authService) Providers() []string {
	out := make([]string, 0, len(as.providers))
	for name := range as.providers {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func (as *authService) provider(name string) (OAuthProvider, error) {
	p, ok := as.providers[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, apierr.New(http.StatusNotFound, "unknown_provider", fmt.Errorf("%w: %q", ErrUnknownProvider, name))
	}
	return p, nil
}

func hashNonce(nonce string) string {
	sum := sha256.Sum256([]byte(nonce))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// BeginLogin stores a fresh nonce and returns the provider consent URL.
// The state parameter is "<nonce id>.<nonce>"; only the nonce hash is persisted.
func (as *authService) BeginLogin(ctx context.Context, providerName string) (string, error) {
	p, err := as.provider(providerName)
	if err != nil {
		return "", err
	}
	dbc := dbctx.New(ctx)
	now := as.now()

	if n, err := as.nonceRepo.FullDeleteExpires(dbc, now); err != nil {
		as.log.Warn("Failed to purge expired oauth nonces", "error", err)
	} else if n > 0 {
		as.log.Debug("Purged expired oauth nonces", "count", n)
	}

	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}
	nonce := base64.RawURLEncoding.EncodeToString(raw)
	row := &types.OAuthNonce{
		ID:        uuid.New(),
		Provider:  p.Name(),
		NonceHash: hashNonce(nonce),
		ExpiresAt: now.Add(as.cfg.NonceTTL),
	}
	if _, err := as.nonceRepo.Create(dbc, []*types.OAuthNonce{row}); err != nil {
		return "", fmt.Errorf("store oauth nonce: %w", err)
	}
	return p.AuthCodeURL(row.ID.String() + "." + nonce), nil
}

func (as *authService) consumeState(ctx context.Context, provider, state string) error {
	idPart, nonce, ok := strings.Cut(state, ".")
	if !ok || nonce == "" {
		return apierr.New(http.StatusBadRequest, "oauth_state_invalid", errLoginState)
	}
	id, err := uuid.Parse(idPart)
	if err != nil {
		return apierr.New(http.StatusBadRequest, "oauth_state_invalid", errLoginState)
	}
	return as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		row, err := as.nonceRepo.GetByID(dbc, id)
		if err != nil {
			return fmt.Errorf("load oauth nonce: %w", err)
		}
		now := as.now()
		if row == nil || row.Provider != provider || !row.Usable(now) ||
			subtle.ConstantTimeCompare([]byte(row.NonceHash), []byte(hashNonce(nonce))) != 1 {
			return apierr.New(http.StatusBadRequest, "oauth_state_invalid", errLoginState)
		}
		if err := as.nonceRepo.MarkUsed(dbc, id, now); err != nil {
			if errors.Is(err, repos.ErrNonceConsumed) {
				return apierr.New(http.StatusBadRequest, "oauth_state_invalid", errLoginState)
			}
			return err
		}
		return nil
	})
}

func (as *authService) CompleteLogin(ctx context.Context, providerName, state, code string) (*LoginResult, error) {
	p, err := as.provider(providerName)
	if err != nil {
		return nil, err
	}
	if err := as.consumeState(ctx, p.Name(), state); err != nil {
		return nil, err
	}
	if strings.TrimSpace(code) == "" {
		return nil, apierr.BadRequest("oauth_code_missing", "You did not log in. Please try again.")
	}

	ident, err := p.Exchange(ctx, code)
	if err != nil {
		as.log.Warn("OAuth exchange failed", "provider", p.Name(), "error", err)
		return nil, apierr.New(http.StatusBadGateway, "oauth_exchange_failed", errors.New("You did not log in. Please try again."))
	}

	name := ident.GivenName
	if strings.TrimSpace(name) == "" {
		name = ident.Name
	}
	var (
		u       *types.User
		created bool
	)
	err = as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var txErr error
		u, created, txErr = as.userRepo.UpsertOAuthUser(dbctx.Context{Ctx: ctx, Tx: tx}, repos.OAuthProfile{
			Provider:    p.Name(),
			Subject:     ident.Sub,
			Name:        name,
			Email:       ident.Email,
			AccessToken: ident.AccessToken,
		})
		return txErr
	})
	if err != nil {
		return nil, fmt.Errorf("store oauth user: %w", err)
	}
	return as.session(u, created)
}

func (as *authService) session(u *types.User, created bool) (*LoginResult, error) {
	token, exp, err := as.tokens.Issue(u.ID, TokenKindSession, as.cfg.SessionTTL)
	if err != nil {
		return nil, err
	}
	as.log.Info("User logged in", "user_id", u.ID, "new_user", created)
	return &LoginResult{User: u, Token: token, ExpiresAt: exp, Created: created}, nil
}

// DevLogin signs in as the lowest-id user. Only available in development.
func (as *authService) DevLogin(ctx context.Context) (*LoginResult, error) {
	if as.cfg.Env != EnvDevelopment {
		return nil, apierr.New(http.StatusNotImplemented, "not_implemented", errors.New("Development login is disabled."))
	}
	u, err := as.userRepo.GetFirst(dbctx.New(ctx))
	if err != nil {
		return nil, fmt.Errorf("load first user: %w", err)
	}
	if u == nil {
		return nil, apierr.NotFound("no_users", "There are no users to log in as. Seed the database first.")
	}
	return as.session(u, false)
}

func (as *authService) Logout(ctx context.Context, userID int) (bool, error) {
	dbc := dbctx.New(ctx)
	u, err := as.userRepo.GetByID(dbc, userID)
	if err != nil {
		return false, fmt.Errorf("load user: %w", err)
	}
	if u == nil {
		return true, nil
	}

	revoked := true
	if u.AccessToken != nil && *u.AccessToken != "" {
		revoked = false
		if u.OAuthProvider != nil {
			if p, ok := as.providers[*u.OAuthProvider]; ok {
				if err := p.Revoke(ctx, *u.AccessToken); err != nil {
					as.log.Warn("OAuth token revocation failed", "user_id", userID, "error", err)
				} else {
					revoked = true
				}
			}
		}
	}
	if err := as.userRepo.SetAccessToken(dbc, userID, nil); err != nil {
		return revoked, fmt.Errorf("clear access token: %w", err)
	}
	as.log.Info("User logged out", "user_id", userID, "revoked", revoked)
	return revoked, nil
}

func (as *authService) ResolveToken(ctx context.Context, token string) (*Identity, error) {
	userID, kind, err := as.tokens.Parse(token)
	if err != nil {
		return nil, apierr.New(http.StatusUnauthorized, "invalid_token", err)
	}
	u, err := as.userRepo.GetByID(dbctx.New(ctx), userID)
	if err != nil {
		return nil, fmt.Errorf("load token user: %w", err)
	}
	if u == nil {
		return nil, apierr.New(http.StatusUnauthorized, "invalid_token", ErrInvalidToken)
	}
	return &Identity{UserID: u.ID, Name: u.Name, Kind: kind}, nil
}

func (as *authService) IssueAPIKey(ctx context.Context, userID int) (string, time.Time, error) {
	u, err := as.userRepo.GetByID(dbctx.New(ctx), userID)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("load user: %w", err)
	}
	if u == nil {
		return "", time.Time{}, apierr.NotFound("user_not_found", "Unknown user.")
	}
	return as.tokens.Issue(u.ID, TokenKindAPI, as.cfg.APIKeyTTL)
}
