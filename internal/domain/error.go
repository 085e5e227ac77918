package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound           = errors.New("entity not found")
	ErrAlreadyExists      = errors.New("entity already exists")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrInvalidExecContext = errors.New("invalid executor context")
	ErrOperationFailed    = errors.New("storage operation failed")
	ErrReadDatabaseRow    = errors.New("failed to read database row")

	// Ledger and payment errors surfaced to callers
	ErrUnauthenticated     = errors.New("authentication required")
	ErrAccountNotFound     = errors.New("account not found")
	ErrInsufficientCredits = errors.New("insufficient credit balance")
	ErrSessionNotFound     = errors.New("payment session not found")
	ErrGatewaySignature    = errors.New("payment gateway signature rejected")
	ErrGatewayRejected     = errors.New("payment rejected by gateway")
	ErrLedgerUnavailable   = errors.New("ledger storage unavailable")
	ErrRateLimited         = errors.New("too many requests")
)
