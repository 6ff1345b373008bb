package services

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	TokenKindSession = "session"
	TokenKindAPI     = "api"

	tokenIssuer = "instrument-catalog"
)

var ErrInvalidToken = errors.New("invalid token")

type tokenClaims struct {
	Kind string `json:"kind"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies HS256 tokens whose subject is a user id.
type TokenIssuer struct {
	secret []byte
	now    func() time.Time
}

func NewTokenIssuer(secret string) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), now: time.Now}
}

func (ti *TokenIssuer) Issue(userID int, kind string, ttl time.Duration) (string, time.Time, error) {
	now := ti.now()
	expiresAt := now.Add(ttl)
	claims := tokenClaims{
		Kind: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   strconv.Itoa(userID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(ti.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign %s token: %w", kind, err)
	}
	return signed, expiresAt, nil
}

// Parse verifies the signature, expiry and issuer and returns the user id and kind.
func (ti *TokenIssuer) Parse(tokenString string) (int, string, error) {
	claims := &tokenClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return ti.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(ti.now),
	)
	if err != nil {
		return 0, "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	userID, err := strconv.Atoi(claims.Subject)
	if err != nil || userID <= 0 {
		return 0, "", fmt.Errorf("%w: bad subject", ErrInvalidToken)
	}
	if claims.Kind != TokenKindSession && claims.Kind != TokenKindAPI {
		return 0, "", fmt.Errorf("%w: unknown kind %q", ErrInvalidToken, claims.Kind)
	}
	return userID, claims.Kind, nil
}
