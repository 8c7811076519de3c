package fairness

import (
	"encoding/hex"
	"testing"

	"github.com/coolestnick/Shard-Flip/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSeed(t *testing.T) {
	seed, err := GenerateSeed()
	require.NoError(t, err)

	assert.Len(t, seed.Seed, 64)
	assert.Equal(t, HashSeed(seed.Seed), seed.SeedHash)
	assert.True(t, seed.Active)

	other, err := GenerateSeed()
	require.NoError(t, err)
	assert.NotEqual(t, seed.Seed, other.Seed)
}

func TestOutcomeIsDeterministic(t *testing.T) {
	first := Outcome("seed", "0xabc", 5)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Outcome("seed", "0xabc", 5))
	}
}

func TestOutcomeDistribution(t *testing.T) {
	heads := 0
	const draws = 4000
	for n := int64(0); n < draws; n++ {
		side := Outcome("distribution-seed", "0xabc", n)
		require.True(t, side.Valid())
		if side == models.CoinSideHeads {
			heads++
		}
	}
	// 4000 fair draws land within a few percent of half
	assert.InDelta(t, draws/2, heads, draws*0.05)
}

func TestVerify(t *testing.T) {
	seed, err := GenerateSeed()
	require.NoError(t, err)

	t.Run("matching commitment", func(t *testing.T) {
		side, err := Verify(seed.Seed, seed.SeedHash, "0xabc", 12)
		require.NoError(t, err)
		assert.Equal(t, HMACFlipper{}.Flip(seed, "0xabc", 12), side)
	})

	t.Run("wrong seed", func(t *testing.T) {
		_, err := Verify("not-the-seed", seed.SeedHash, "0xabc", 12)
		assert.ErrorIs(t, err, ErrSeedMismatch)
	})
}

func TestDigestMatchesOutcome(t *testing.T) {
	digest := Digest("seed", "client", 1)
	require.Len(t, digest, 64)

	raw, err := hex.DecodeString(digest)
	require.NoError(t, err)

	expected := models.CoinSideHeads
	if raw[0]&1 == 1 {
		expected = models.CoinSideTails
	}
	assert.Equal(t, expected, Outcome("seed", "client", 1))
}
