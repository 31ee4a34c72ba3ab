package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"membership-billing/internal/domain"
	"membership-billing/internal/domain/model"
	"membership-billing/internal/domain/ports/repository"
)

var _ repository.PricingTierRepository = (*tierRepo)(nil)

type tierRepo struct{ pool *pgxpool.Pool }

func NewTierRepo(pool *pgxpool.Pool) *tierRepo {
	return &tierRepo{pool: pool}
}

const tierColumns = `id, name, display_name, usd_monthly_minor, usd_annual_minor, aed_monthly_minor, aed_annual_minor, created_at`

func scanTier(row pgx.Row) (*model.PricingTier, error) {
	t := &model.PricingTier{}
	if err := row.Scan(&t.ID, &t.Name, &t.DisplayName, &t.USDMonthlyMinor, &t.USDAnnualMinor, &t.AEDMonthlyMinor, &t.AEDAnnualMinor, &t.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTierNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return t, nil
}

func (r *tierRepo) FindByName(ctx context.Context, tx repository.Tx, name string) (*model.PricingTier, error) {
	const q = `SELECT ` + tierColumns + ` FROM pricing_tiers WHERE name=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, name)
	if err != nil {
		return nil, err
	}
	return scanTier(row)
}

func (r *tierRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.PricingTier, error) {
	const q = `SELECT ` + tierColumns + ` FROM pricing_tiers ORDER BY usd_monthly_minor ASC;`
	rows, err := queryRows(ctx, r.pool, tx, q)
	if err != nil {
		switch err {
		case domain.ErrInvalidArgument, domain.ErrInvalidExecContext:
			return nil, err
		default:
			return nil, domain.ErrOperationFailed
		}
	}
	defer rows.Close()

	var out []*model.PricingTier
	for rows.Next() {
		t, err := scanTier(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func (r *tierRepo) Save(ctx context.Context, tx repository.Tx, t *model.PricingTier) error {
	const q = `
INSERT INTO pricing_tiers (
  id, name, display_name, usd_monthly_minor, usd_annual_minor, aed_monthly_minor, aed_annual_minor, created_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8
) ON CONFLICT (name) DO UPDATE SET
  display_name=$3, usd_monthly_minor=$4, usd_annual_minor=$5, aed_monthly_minor=$6, aed_annual_minor=$7;`

	_, err := execSQL(ctx, r.pool, tx, q, t.ID, t.Name, t.DisplayName, t.USDMonthlyMinor, t.USDAnnualMinor, t.AEDMonthlyMinor, t.AEDAnnualMinor, t.CreatedAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}
