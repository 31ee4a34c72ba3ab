package repository

import (
	"context"

	"membership-billing/internal/domain/model"
)

// TransactionRepository is the append-only gateway-event ledger.
// Append is the only write; entries are never mutated or deleted.
type TransactionRepository interface {
	Append(ctx context.Context, tx Tx, rec *model.TransactionRecord) error
	ListBySubscription(ctx context.Context, tx Tx, subscriptionID string) ([]*model.TransactionRecord, error)
}
