package fairness

import (
	"fmt"
	"io"
	"math"

	"github.com/coolestnick/Shard-Flip/models"
)

// chiSquaredCritical is the 95% critical value with one degree of freedom
const chiSquaredCritical = 3.841

// Analysis summarizes a run of simulated flips from one seed
type Analysis struct {
	Trials     int
	Heads      int
	Multiplier int64
	// Stake is the bet size the expected value is quoted for
	Stake int64
}

// Analyze draws trials outcomes from serverSeed using consecutive nonces, the
// same way settled bets use the game index
func Analyze(serverSeed, clientSeed string, trials int, multiplier int64) Analysis {
	a := Analysis{Trials: trials, Multiplier: multiplier, Stake: 1000}
	for nonce := 0; nonce < trials; nonce++ {
		if Outcome(serverSeed, clientSeed, int64(nonce)) == models.CoinSideHeads {
			a.Heads++
		}
	}
	return a
}

// HeadsRate is the observed share of heads
func (a Analysis) HeadsRate() float64 {
	if a.Trials == 0 {
		return 0
	}
	return float64(a.Heads) / float64(a.Trials)
}

// ChiSquared tests the observed split against a fair coin
func (a Analysis) ChiSquared() float64 {
	if a.Trials == 0 {
		return 0
	}
	expected := float64(a.Trials) / 2
	tails := float64(a.Trials - a.Heads)
	return math.Pow(float64(a.Heads)-expected, 2)/expected + math.Pow(tails-expected, 2)/expected
}

// Uniform reports whether the split passes the chi-squared test at 95%
func (a Analysis) Uniform() bool {
	return a.ChiSquared() < chiSquaredCritical
}

// ExpectedValue is the player's mean net result per bet of Stake. Zero is a fair game.
func (a Analysis) ExpectedValue() float64 {
	return 0.5*float64(a.Stake*a.Multiplier) - float64(a.Stake)
}

// Report writes a human readable summary
func (a Analysis) Report(w io.Writer) {
	fmt.Fprintf(w, "=== Shard-Flip Outcome Analysis ===\n")
	fmt.Fprintf(w, "Trials:       %d\n", a.Trials)
	fmt.Fprintf(w, "Heads:        %d (%.4f%%)\n", a.Heads, a.HeadsRate()*100)
	fmt.Fprintf(w, "Tails:        %d (%.4f%%)\n", a.Trials-a.Heads, (1-a.HeadsRate())*100)
	fmt.Fprintf(w, "Chi-squared:  %.3f (should be < %.3f for 95%% confidence with 1 df)\n", a.ChiSquared(), chiSquaredCritical)

	if a.Uniform() {
		fmt.Fprintln(w, "  PASS: outcomes are consistent with a fair coin")
	} else {
		fmt.Fprintln(w, "  FAIL: outcomes are biased")
	}

	fmt.Fprintf(w, "\nExpected value (%d unit bet, %dx payout): %.2f units\n", a.Stake, a.Multiplier, a.ExpectedValue())
	switch ev := a.ExpectedValue(); {
	case ev == 0:
		fmt.Fprintln(w, "  The game is fair")
	case ev < 0:
		fmt.Fprintln(w, "  The house has an edge")
	default:
		fmt.Fprintln(w, "  The player has an edge")
	}
}
