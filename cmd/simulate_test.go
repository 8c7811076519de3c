package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunSimulation(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RunSimulation(&buf, 1000, 2))
	assert.Contains(t, buf.String(), "Server seed hash:")
	assert.Contains(t, buf.String(), "Trials:       1000")

	assert.Error(t, RunSimulation(&buf, 0, 2))
	assert.Error(t, RunSimulation(&buf, 10, 0))
}
