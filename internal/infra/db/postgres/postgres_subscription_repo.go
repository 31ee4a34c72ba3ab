package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"membership-billing/internal/domain"
	"membership-billing/internal/domain/model"
	"membership-billing/internal/domain/ports/repository"
)

var _ repository.SubscriptionRepository = (*subscriptionRepo)(nil)

type subscriptionRepo struct{ pool *pgxpool.Pool }

func NewSubscriptionRepo(pool *pgxpool.Pool) *subscriptionRepo {
	return &subscriptionRepo{pool: pool}
}

const subscriptionColumns = `id, user_id, email, full_name, tier, billing_cycle, amount_minor, amount_secondary_minor, currency, gateway, payment_reference, payment_status, subscription_status, confirmation_email_sent, confirmation_sent_at, phone, country, city, address, business_name, created_at, updated_at`

func scanSubscription(row pgx.Row) (*model.Subscription, error) {
	s := &model.Subscription{}
	if err := row.Scan(
		&s.ID, &s.UserID, &s.Email, &s.FullName, &s.Tier, &s.BillingCycle,
		&s.AmountMinor, &s.AmountSecondaryMinor, &s.Currency, &s.Gateway,
		&s.PaymentReference, &s.PaymentStatus, &s.Status,
		&s.ConfirmationEmailSent, &s.ConfirmationSentAt,
		&s.Phone, &s.Country, &s.City, &s.Address, &s.BusinessName,
		&s.CreatedAt, &s.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return s, nil
}

func (r *subscriptionRepo) Insert(ctx context.Context, tx repository.Tx, s *model.Subscription) error {
	const q = `
INSERT INTO subscriptions (
  id, user_id, email, full_name, tier, billing_cycle, amount_minor, amount_secondary_minor, currency, gateway, payment_reference, payment_status, subscription_status, confirmation_email_sent, confirmation_sent_at, phone, country, city, address, business_name, created_at, updated_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22
);`

	_, err := execSQL(ctx, r.pool, tx, q,
		s.ID, s.UserID, s.Email, s.FullName, s.Tier, s.BillingCycle,
		s.AmountMinor, s.AmountSecondaryMinor, s.Currency, s.Gateway,
		s.PaymentReference, s.PaymentStatus, s.Status,
		s.ConfirmationEmailSent, s.ConfirmationSentAt,
		s.Phone, s.Country, s.City, s.Address, s.BusinessName,
		s.CreatedAt, s.UpdatedAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *subscriptionRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Subscription, error) {
	q := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE id=$1`
	if _, ok := tx.(pgx.Tx); ok {
		q += " FOR UPDATE"
	}
	q += ";"
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	return scanSubscription(row)
}

func (r *subscriptionRepo) FindByReference(ctx context.Context, tx repository.Tx, reference string) (*model.Subscription, error) {
	q := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE payment_reference=$1 LIMIT 1`
	if _, ok := tx.(pgx.Tx); ok {
		q += " FOR UPDATE"
	}
	q += ";"
	row, err := pickRow(ctx, r.pool, tx, q, reference)
	if err != nil {
		return nil, err
	}
	return scanSubscription(row)
}

func (r *subscriptionRepo) HasPending(ctx context.Context, tx repository.Tx, email, tier string, cycle model.BillingCycle) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM subscriptions WHERE email=$1 AND tier=$2 AND billing_cycle=$3 AND payment_status='pending');`
	row, err := pickRow(ctx, r.pool, tx, q, email, tier, cycle)
	if err != nil {
		return false, err
	}
	var exists bool
	if err := row.Scan(&exists); err != nil {
		return false, domain.ErrReadDatabaseRow
	}
	return exists, nil
}

// UpdateStatusIfPending atomically finalizes a row only when it is still
// pending. The row count tells concurrent callbacks apart: the winner sees 1,
// everyone else sees 0.
func (r *subscriptionRepo) UpdateStatusIfPending(ctx context.Context, tx repository.Tx, id string, ps model.PaymentStatus, ss model.SubscriptionStatus) (bool, error) {
	const q = `
UPDATE subscriptions
   SET payment_status = $2,
       subscription_status = $3,
       updated_at = NOW()
 WHERE id = $1
   AND payment_status = 'pending';`

	cmd, err := execSQL(ctx, r.pool, tx, q, id, string(ps), string(ss))
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return false, err
		}
		return false, domain.ErrOperationFailed
	}
	return cmd.RowsAffected() >= 1, nil
}

func (r *subscriptionRepo) MarkNotified(ctx context.Context, tx repository.Tx, id string, at time.Time) error {
	const q = `UPDATE subscriptions SET confirmation_email_sent=TRUE, confirmation_sent_at=$2, updated_at=NOW() WHERE id=$1;`
	_, err := execSQL(ctx, r.pool, tx, q, id, at)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *subscriptionRepo) ListPendingOlderThan(ctx context.Context, tx repository.Tx, olderThan time.Time, limit int) ([]*model.Subscription, error) {
	if limit <= 0 {
		limit = 100
	}
	q := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE payment_status='pending' AND created_at < $1 ORDER BY created_at ASC LIMIT $2;`
	return r.list(ctx, tx, q, olderThan, limit)
}

func (r *subscriptionRepo) ListCompletedUnnotified(ctx context.Context, tx repository.Tx, limit int) ([]*model.Subscription, error) {
	if limit <= 0 {
		limit = 100
	}
	q := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE payment_status='completed' AND confirmation_email_sent=FALSE ORDER BY updated_at ASC LIMIT $1;`
	return r.list(ctx, tx, q, limit)
}

func (r *subscriptionRepo) list(ctx context.Context, tx repository.Tx, q string, args ...interface{}) ([]*model.Subscription, error) {
	rows, err := queryRows(ctx, r.pool, tx, q, args...)
	if err != nil {
		switch err {
		case domain.ErrInvalidArgument, domain.ErrInvalidExecContext:
			return nil, err
		default:
			return nil, domain.ErrOperationFailed
		}
	}
	defer rows.Close()

	var out []*model.Subscription
	for rows.Next() {
		s, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func (r *subscriptionRepo) SumRevenueByPeriod(ctx context.Context, tx repository.Tx, period string) (int64, error) {
	const q = `SELECT COALESCE(SUM(amount_minor),0) FROM subscriptions WHERE payment_status='completed' AND updated_at >= DATE_TRUNC($1, NOW());`
	row, err := pickRow(ctx, r.pool, tx, q, period)
	if err != nil {
		return 0, err
	}
	var sum int64
	if err := row.Scan(&sum); err != nil {
		return 0, domain.ErrReadDatabaseRow
	}
	return sum, nil
}
