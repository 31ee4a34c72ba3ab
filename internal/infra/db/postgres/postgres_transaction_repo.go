package postgres

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"

	"membership-billing/internal/domain"
	"membership-billing/internal/domain/model"
	"membership-billing/internal/domain/ports/repository"
)

var _ repository.TransactionRepository = (*transactionRepo)(nil)

// transactionRepo writes the append-only ledger. There is intentionally no
// UPDATE or DELETE statement in this file.
type transactionRepo struct{ pool *pgxpool.Pool }

func NewTransactionRepo(pool *pgxpool.Pool) *transactionRepo {
	return &transactionRepo{pool: pool}
}

func (r *transactionRepo) Append(ctx context.Context, tx repository.Tx, rec *model.TransactionRecord) error {
	const q = `
INSERT INTO payment_transactions (
  id, subscription_id, txn_type, amount_minor, amount_secondary_minor, currency, gateway, gateway_txn_id, raw_response, status, error_message, completed_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12
);`

	raw := rec.RawResponse
	if len(raw) == 0 {
		raw = []byte("{}")
	}
	_, err := execSQL(ctx, r.pool, tx, q,
		rec.ID, rec.SubscriptionID, rec.Type,
		rec.AmountMinor, rec.AmountSecondaryMinor, rec.Currency,
		rec.Gateway, rec.GatewayTxnID, raw,
		rec.Status, rec.ErrorMessage, rec.CompletedAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *transactionRepo) ListBySubscription(ctx context.Context, tx repository.Tx, subscriptionID string) ([]*model.TransactionRecord, error) {
	const q = `SELECT id, subscription_id, txn_type, amount_minor, amount_secondary_minor, currency, gateway, gateway_txn_id, raw_response, status, error_message, completed_at FROM payment_transactions WHERE subscription_id=$1 ORDER BY completed_at ASC;`
	rows, err := queryRows(ctx, r.pool, tx, q, subscriptionID)
	if err != nil {
		switch err {
		case domain.ErrInvalidArgument, domain.ErrInvalidExecContext:
			return nil, err
		default:
			return nil, domain.ErrOperationFailed
		}
	}
	defer rows.Close()

	var out []*model.TransactionRecord
	for rows.Next() {
		rec := new(model.TransactionRecord)
		if err := rows.Scan(
			&rec.ID, &rec.SubscriptionID, &rec.Type,
			&rec.AmountMinor, &rec.AmountSecondaryMinor, &rec.Currency,
			&rec.Gateway, &rec.GatewayTxnID, &rec.RawResponse,
			&rec.Status, &rec.ErrorMessage, &rec.CompletedAt,
		); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, rec)
	}
	return out, nil
}
