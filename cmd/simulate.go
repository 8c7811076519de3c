package cmd

import (
	"fmt"
	"io"

	"github.com/coolestnick/Shard-Flip/fairness"
)

// RunSimulation draws trials outcomes from a fresh seed and reports how fair they are
func RunSimulation(w io.Writer, trials int, multiplier int64) error {
	if trials <= 0 {
		return fmt.Errorf("trials must be positive, got %d", trials)
	}
	if multiplier < 1 {
		return fmt.Errorf("multiplier must be at least 1, got %d", multiplier)
	}

	seed, err := fairness.GenerateSeed()
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Server seed hash: %s\n\n", seed.SeedHash)
	fairness.Analyze(seed.Seed, "simulation", trials, multiplier).Report(w)
	return nil
}
