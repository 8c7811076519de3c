// Package auth issues and verifies the signed wallet tokens that identify
// callers of the mutating API routes.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/coolestnick/Shard-Flip/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrMissingSecret = errors.New("token secret is required")
	ErrInvalidToken  = errors.New("invalid or expired token")
)

// Claims binds a token to one wallet address
type Claims struct {
	Wallet string `json:"wallet"`
	jwt.RegisteredClaims
}

// Tokens signs and checks HS256 wallet tokens
type Tokens struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewTokens creates a token service. ttl is the lifetime of issued tokens.
func NewTokens(secret, issuer string, ttl time.Duration) (*Tokens, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("token ttl must be positive, got %s", ttl)
	}
	return &Tokens{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

// Issue signs a token for wallet and returns it with its expiry
func (t *Tokens) Issue(wallet string) (string, time.Time, error) {
	wallet = models.NormalizeAddress(wallet)
	if models.IsZeroAddress(wallet) {
		return "", time.Time{}, fmt.Errorf("cannot issue a token for %q", wallet)
	}

	now := t.now()
	expiresAt := now.Add(t.ttl)
	claims := Claims{
		Wallet: wallet,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    t.issuer,
			Subject:   wallet,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Verify checks the signature, issuer and expiry of token and returns its wallet
func (t *Tokens) Verify(token string) (string, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(t.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil || !parsed.Valid {
		return "", ErrInvalidToken
	}

	wallet := models.NormalizeAddress(claims.Wallet)
	if models.IsZeroAddress(wallet) || wallet != models.NormalizeAddress(claims.Subject) {
		return "", ErrInvalidToken
	}
	return wallet, nil
}
