package fairness

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyze(t *testing.T) {
	seed, err := GenerateSeed()
	require.NoError(t, err)

	a := Analyze(seed.Seed, "0x00000000000000000000000000000000000000a1", 20000, 2)
	assert.Equal(t, 20000, a.Trials)
	assert.InDelta(t, 0.5, a.HeadsRate(), 0.02)
	assert.Zero(t, a.ExpectedValue())

	var buf bytes.Buffer
	a.Report(&buf)
	assert.Contains(t, buf.String(), "Trials:       20000")
	assert.Contains(t, buf.String(), "The game is fair")
}

func TestAnalysisStatistics(t *testing.T) {
	fair := Analysis{Trials: 100, Heads: 50, Multiplier: 2, Stake: 1000}
	assert.Zero(t, fair.ChiSquared())
	assert.True(t, fair.Uniform())

	biased := Analysis{Trials: 100, Heads: 70, Multiplier: 1, Stake: 1000}
	assert.InDelta(t, 16.0, biased.ChiSquared(), 1e-9)
	assert.False(t, biased.Uniform())
	assert.Equal(t, -500.0, biased.ExpectedValue())

	assert.Zero(t, Analysis{}.HeadsRate())
	assert.Zero(t, Analysis{}.ChiSquared())
}
