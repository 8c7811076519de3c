package service

import (
	"errors"
	"fmt"
)

// ErrorClass groups ledger errors by how a caller should react to them
type ErrorClass string

const (
	ClassValidation    ErrorClass = "validation"
	ClassLiquidity     ErrorClass = "liquidity"
	ClassAuthorization ErrorClass = "authorization"
	ClassAvailability  ErrorClass = "availability"
	ClassTransfer      ErrorClass = "transfer"
	ClassNotFound      ErrorClass = "not_found"
	ClassInternal      ErrorClass = "internal"
)

// LedgerError is a rejection with a stable, machine-readable code.
// Two LedgerErrors match under errors.Is when their codes are equal.
type LedgerError struct {
	Code    string
	Class   ErrorClass
	Message string
	Detail  string
	Err     error
}

func (e *LedgerError) Error() string {
	msg := e.Message
	if e.Detail != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Detail)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *LedgerError) Unwrap() error {
	return e.Err
}

func (e *LedgerError) Is(target error) bool {
	t, ok := target.(*LedgerError)
	return ok && t.Code == e.Code
}

// withDetail returns a copy of a sentinel carrying call-specific context
func (e *LedgerError) withDetail(format string, args ...any) *LedgerError {
	c := *e
	c.Detail = fmt.Sprintf(format, args...)
	return &c
}

// wrap returns a copy of a sentinel wrapping an underlying cause
func (e *LedgerError) wrap(err error) *LedgerError {
	c := *e
	c.Err = err
	return &c
}

var (
	ErrLedgerPaused          = &LedgerError{Code: "LEDGER_PAUSED", Class: ClassAvailability, Message: "Contract is paused"}
	ErrBetTooLow             = &LedgerError{Code: "BET_TOO_LOW", Class: ClassValidation, Message: "Bet amount too low"}
	ErrBetTooHigh            = &LedgerError{Code: "BET_TOO_HIGH", Class: ClassValidation, Message: "Bet amount too high"}
	ErrInsufficientLiquidity = &LedgerError{Code: "INSUFFICIENT_POOL_LIQUIDITY", Class: ClassLiquidity, Message: "Insufficient contract balance for potential payout"}
	ErrPaymentNotAttached    = &LedgerError{Code: "PAYMENT_NOT_ATTACHED", Class: ClassValidation, Message: "Bet amount must be sent with the bet"}
	ErrInvalidSide           = &LedgerError{Code: "INVALID_SIDE", Class: ClassValidation, Message: "Choice must be heads or tails"}
	ErrInvalidPlayer         = &LedgerError{Code: "INVALID_PLAYER", Class: ClassValidation, Message: "Player identity is required"}
	ErrNotOwner              = &LedgerError{Code: "NOT_OWNER", Class: ClassAuthorization, Message: "Only owner can call this function"}
	ErrInvalidOwner          = &LedgerError{Code: "INVALID_OWNER", Class: ClassAuthorization, Message: "New owner cannot be zero address"}
	ErrInvalidAmount         = &LedgerError{Code: "INVALID_AMOUNT", Class: ClassValidation, Message: "Amount must be greater than 0"}
	ErrInsufficientBalance   = &LedgerError{Code: "INSUFFICIENT_POOL_BALANCE", Class: ClassLiquidity, Message: "Insufficient contract balance"}
	ErrTransferFailed        = &LedgerError{Code: "TRANSFER_FAILED", Class: ClassTransfer, Message: "Transfer failed"}
	ErrSettlementUnrecorded  = &LedgerError{Code: "SETTLEMENT_UNRECORDED", Class: ClassInternal, Message: "Funds were sent but the settlement could not be recorded"}
	ErrInvalidSort           = &LedgerError{Code: "INVALID_SORT", Class: ClassValidation, Message: "Unknown sort order"}
	ErrGameNotFound          = &LedgerError{Code: "GAME_NOT_FOUND", Class: ClassNotFound, Message: "Game not found"}
	ErrSeedNotRevealed       = &LedgerError{Code: "SEED_NOT_REVEALED", Class: ClassNotFound, Message: "Server seed has not been revealed"}
	ErrLedgerNotInitialized  = &LedgerError{Code: "LEDGER_NOT_INITIALIZED", Class: ClassInternal, Message: "Ledger has not been initialized"}
)

// AsLedgerError extracts a LedgerError from an error chain
func AsLedgerError(err error) (*LedgerError, bool) {
	var le *LedgerError
	if errors.As(err, &le) {
		return le, true
	}
	return nil, false
}

// ErrorCode returns the stable code of err, or "INTERNAL" for unclassified errors
func ErrorCode(err error) string {
	if le, ok := AsLedgerError(err); ok {
		return le.Code
	}
	return "INTERNAL"
}
