package services

import (
	"context"
	"errors"
)

var ErrUnknownProvider = errors.New("unknown oauth provider")

// ExternalIdentity is the account an OAuth provider vouches for after a code exchange.
type ExternalIdentity struct {
	Provider    string
	Sub         string
	Email       string
	GivenName   string
	Name        string
	AccessToken string
}

type OAuthProvider interface {
	Name() string
	// AuthCodeURL is where the browser is sent to consent. state comes back on the callback.
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*ExternalIdentity, error)
	// Revoke withdraws our access to the user's provider account.
	Revoke(ctx context.Context, accessToken string) error
}
