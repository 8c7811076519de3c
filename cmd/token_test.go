package cmd

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/coolestnick/Shard-Flip/auth"
	"github.com/coolestnick/Shard-Flip/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueToken(t *testing.T) {
	cfg := config.NewTestConfig()

	var buf bytes.Buffer
	require.NoError(t, IssueToken(&buf, cfg, cfg.LedgerOwner, 0))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[1], "expires "))

	tokens, err := auth.NewTokens(cfg.JWTSecret, cfg.JWTIssuer, time.Minute)
	require.NoError(t, err)
	wallet, err := tokens.Verify(lines[0])
	require.NoError(t, err)
	assert.Equal(t, cfg.LedgerOwner, wallet)

	cfg.JWTSecret = ""
	assert.ErrorIs(t, IssueToken(&buf, cfg, cfg.LedgerOwner, time.Hour), auth.ErrMissingSecret)
}
