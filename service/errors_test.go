package service

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLedgerError_MatchesByCode(t *testing.T) {
	detailed := ErrBetTooLow.withDetail("minimum is %d", 10)

	assert.ErrorIs(t, detailed, ErrBetTooLow)
	assert.NotErrorIs(t, detailed, ErrBetTooHigh)
	assert.Equal(t, "Bet amount too low: minimum is 10", detailed.Error())

	// The sentinel itself is untouched
	assert.Empty(t, ErrBetTooLow.Detail)
}

func TestLedgerError_Wrap(t *testing.T) {
	cause := errors.New("socket closed")
	err := fmt.Errorf("settling: %w", ErrTransferFailed.wrap(cause))

	assert.ErrorIs(t, err, ErrTransferFailed)
	assert.ErrorIs(t, err, cause)

	le, ok := AsLedgerError(err)
	assert.True(t, ok)
	assert.Equal(t, ClassTransfer, le.Class)
	assert.Equal(t, "TRANSFER_FAILED", ErrorCode(err))
}

func TestErrorCode_Unclassified(t *testing.T) {
	assert.Equal(t, "INTERNAL", ErrorCode(errors.New("boom")))
}
