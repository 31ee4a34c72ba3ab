package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound            = errors.New("entity not found")
	ErrTierNotFound        = errors.New("pricing tier not found")
	ErrInvalidBillingCycle = errors.New("invalid billing cycle")
	ErrValidation          = errors.New("invalid request field")
	ErrDuplicatePending    = errors.New("a pending subscription already exists for this tier and cycle")
	ErrInvalidArgument     = errors.New("invalid argument")

	// Gateway errors
	ErrGatewayConfig = errors.New("payment gateway is not configured")
	ErrUpstream      = errors.New("payment gateway rejected the request")

	// Persistence errors
	ErrOperationFailed    = errors.New("database operation failed")
	ErrReadDatabaseRow    = errors.New("failed to read database row")
	ErrInvalidExecContext = errors.New("invalid executor context")
)
