package model

import "time"

type TransactionType string

const (
	TransactionTypeInitial TransactionType = "initial"
	TransactionTypeRenewal TransactionType = "renewal"
)

type TransactionStatus string

const (
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusFailed    TransactionStatus = "failed"
)

// TransactionRecord is an append-only ledger entry: one row per terminal
// gateway response received for a subscription. Rows are never updated or
// deleted, so the full gateway history survives independently of the mutable
// subscription row.
type TransactionRecord struct {
	ID             string // UUID
	SubscriptionID string // UUID -> Subscription

	Type TransactionType

	AmountMinor          int64
	AmountSecondaryMinor int64
	Currency             string

	Gateway      Gateway
	GatewayTxnID string
	RawResponse  []byte // opaque gateway payload (stored as JSONB)

	Status       TransactionStatus
	ErrorMessage string

	CompletedAt time.Time
}
