// Package fairness draws coin outcomes with a commit-reveal scheme.
//
// The server commits to sha256(seed) before any bet is accepted. Each outcome is
// HMAC-SHA256(seed, "<clientSeed>:<nonce>"); the low bit of the first byte picks
// the side. Once a seed is rotated out its value is published and every game played
// under it can be recomputed with Verify.
package fairness

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/coolestnick/Shard-Flip/models"
)

const seedBytes = 32

// ErrSeedMismatch is returned when a revealed seed does not hash to the commitment
var ErrSeedMismatch = errors.New("server seed does not match commitment")

// GenerateSeed creates a fresh random server seed
func GenerateSeed() (*models.ServerSeed, error) {
	buf := make([]byte, seedBytes)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("failed to read random seed: %w", err)
	}
	seed := hex.EncodeToString(buf)
	return &models.ServerSeed{
		Seed:     seed,
		SeedHash: HashSeed(seed),
		Active:   true,
	}, nil
}

// HashSeed returns the public commitment for a seed
func HashSeed(seed string) string {
	sum := sha256.Sum256([]byte(seed))
	return hex.EncodeToString(sum[:])
}

// Digest computes the HMAC for one draw, hex encoded
func Digest(serverSeed, clientSeed string, nonce int64) string {
	h := hmac.New(sha256.New, []byte(serverSeed))
	h.Write([]byte(fmt.Sprintf("%s:%d", clientSeed, nonce)))
	return hex.EncodeToString(h.Sum(nil))
}

// Outcome maps a draw onto a coin side. The player's choice is never an input.
func Outcome(serverSeed, clientSeed string, nonce int64) models.CoinSide {
	h := hmac.New(sha256.New, []byte(serverSeed))
	h.Write([]byte(fmt.Sprintf("%s:%d", clientSeed, nonce)))
	if h.Sum(nil)[0]&1 == 0 {
		return models.CoinSideHeads
	}
	return models.CoinSideTails
}

// Verify recomputes a game outcome from a revealed seed after checking it against
// the commitment recorded with the game
func Verify(serverSeed, committedHash, clientSeed string, nonce int64) (models.CoinSide, error) {
	if HashSeed(serverSeed) != committedHash {
		return "", ErrSeedMismatch
	}
	return Outcome(serverSeed, clientSeed, nonce), nil
}

// HMACFlipper draws outcomes from the active server seed
type HMACFlipper struct{}

// Flip returns the outcome for a player's bet under seed
func (HMACFlipper) Flip(seed *models.ServerSeed, clientSeed string, nonce int64) models.CoinSide {
	return Outcome(seed.Seed, clientSeed, nonce)
}
