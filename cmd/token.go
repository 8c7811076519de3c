package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/coolestnick/Shard-Flip/auth"
	"github.com/coolestnick/Shard-Flip/config"
)

// IssueToken writes a signed wallet token for the mutating API routes.
// A zero ttl uses TOKEN_TTL.
func IssueToken(w io.Writer, cfg *config.Config, wallet string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = cfg.TokenTTL
	}
	tokens, err := auth.NewTokens(cfg.JWTSecret, cfg.JWTIssuer, ttl)
	if err != nil {
		return err
	}

	token, expiresAt, err := tokens.Issue(wallet)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s\nexpires %s\n", token, expiresAt.UTC().Format(time.RFC3339))
	return err
}
