// Seed tool: creates the schema and loads the pricing reference table.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"

	"membership-billing/internal/config"
	"membership-billing/internal/domain/model"
	"membership-billing/internal/domain/ports/repository"
	pg "membership-billing/internal/infra/db/postgres"
	"membership-billing/internal/usecase"
)

const schema = `
CREATE TABLE IF NOT EXISTS pricing_tiers (
  id UUID PRIMARY KEY,
  name TEXT NOT NULL UNIQUE,
  display_name TEXT NOT NULL,
  usd_monthly_minor BIGINT NOT NULL,
  usd_annual_minor BIGINT NOT NULL,
  aed_monthly_minor BIGINT NOT NULL,
  aed_annual_minor BIGINT NOT NULL,
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS subscriptions (
  id UUID PRIMARY KEY,
  user_id TEXT NOT NULL DEFAULT '',
  email TEXT NOT NULL,
  full_name TEXT NOT NULL,
  tier TEXT NOT NULL,
  billing_cycle TEXT NOT NULL,
  amount_minor BIGINT NOT NULL,
  amount_secondary_minor BIGINT NOT NULL,
  currency TEXT NOT NULL,
  gateway TEXT NOT NULL,
  payment_reference TEXT NOT NULL UNIQUE,
  payment_status TEXT NOT NULL,
  subscription_status TEXT NOT NULL,
  confirmation_email_sent BOOLEAN NOT NULL DEFAULT FALSE,
  confirmation_sent_at TIMESTAMPTZ,
  phone TEXT NOT NULL DEFAULT '',
  country TEXT NOT NULL DEFAULT '',
  city TEXT NOT NULL DEFAULT '',
  address TEXT NOT NULL DEFAULT '',
  business_name TEXT NOT NULL DEFAULT '',
  created_at TIMESTAMPTZ NOT NULL,
  updated_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_subscriptions_pending ON subscriptions (payment_status, created_at);
CREATE INDEX IF NOT EXISTS idx_subscriptions_email ON subscriptions (email);

CREATE TABLE IF NOT EXISTS payment_transactions (
  id UUID PRIMARY KEY,
  subscription_id UUID NOT NULL REFERENCES subscriptions(id),
  txn_type TEXT NOT NULL,
  amount_minor BIGINT NOT NULL,
  amount_secondary_minor BIGINT NOT NULL,
  currency TEXT NOT NULL,
  gateway TEXT NOT NULL,
  gateway_txn_id TEXT NOT NULL DEFAULT '',
  raw_response JSONB NOT NULL DEFAULT '{}',
  status TEXT NOT NULL,
  error_message TEXT NOT NULL DEFAULT '',
  completed_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_payment_transactions_sub ON payment_transactions (subscription_id);
`

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, true)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pg.NewPgxPool(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	if _, err := pool.Exec(ctx, schema); err != nil {
		log.Fatalf("create schema: %v", err)
	}
	fmt.Println("schema ready")

	tierRepo := pg.NewTierRepo(pool)
	txm := pg.NewTxManager(pool)

	// If tiers already exist, do nothing
	tiers, err := tierRepo.ListAll(ctx, repository.NoTX)
	if err != nil {
		log.Fatalf("list tiers: %v", err)
	}
	if len(tiers) > 0 {
		fmt.Printf("%d tiers already present. No changes.\n", len(tiers))
		for _, t := range tiers {
			fmt.Printf("  - %s (USD %d/mo, %d/yr)\n", t.Name, t.USDMonthlyMinor, t.USDAnnualMinor)
		}
		return
	}

	// Prices are written here as display amounts and stored in minor units
	// (USD cents, AED fils). The AED side is baked in at seed time; nothing
	// converts currency at request time.
	seed := []struct {
		Name       string
		Display    string
		USDMonthly float64
		USDAnnual  float64
		AEDMonthly float64
		AEDAnnual  float64
	}{
		{"founder-pass", "Founder Pass", 25.00, 255.00, 92.00, 937.00},
		{"investor-circle", "Investor Circle", 75.00, 765.00, 275.00, 2810.00},
		{"gulf-access-elite", "Gulf Access Elite", 199.00, 2029.00, 731.00, 7453.00},
	}

	// All tiers land in one transaction so a half-seeded table is impossible.
	err = txm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		for _, s := range seed {
			t, err := model.NewPricingTier(uuid.NewString(), s.Name, s.Display,
				usecase.ToMinorUnits(s.USDMonthly), usecase.ToMinorUnits(s.USDAnnual),
				usecase.ToMinorUnits(s.AEDMonthly), usecase.ToMinorUnits(s.AEDAnnual))
			if err != nil {
				return fmt.Errorf("build tier %q: %w", s.Name, err)
			}
			if err := tierRepo.Save(ctx, tx, t); err != nil {
				return fmt.Errorf("save tier %q: %w", s.Name, err)
			}
			fmt.Printf("seeded: %s (USD %d/mo, AED %d/mo)\n", t.Name, t.USDMonthlyMinor, t.AEDMonthlyMinor)
		}
		return nil
	})
	if err != nil {
		log.Fatalf("seed tiers: %v", err)
	}

	fmt.Println("Seeding complete.")
}
