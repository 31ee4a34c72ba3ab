//go:build !integration

package model

import (
	"errors"
	"testing"

	"membership-billing/internal/domain"
)

func TestParseBillingCycle(t *testing.T) {
	for _, ok := range []string{"monthly", "annual"} {
		if _, err := ParseBillingCycle(ok); err != nil {
			t.Errorf("ParseBillingCycle(%q) = %v", ok, err)
		}
	}
	for _, bad := range []string{"", "weekly", "Monthly", "yearly"} {
		if _, err := ParseBillingCycle(bad); !errors.Is(err, domain.ErrInvalidBillingCycle) {
			t.Errorf("ParseBillingCycle(%q) err = %v, want ErrInvalidBillingCycle", bad, err)
		}
	}
}

func TestParseGateway(t *testing.T) {
	for _, ok := range []string{"stripe", "telr"} {
		if _, err := ParseGateway(ok); err != nil {
			t.Errorf("ParseGateway(%q) = %v", ok, err)
		}
	}
	if _, err := ParseGateway("paypal"); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("ParseGateway(paypal) err = %v, want ErrValidation", err)
	}
}

func TestSubscriptionTerminal(t *testing.T) {
	cases := []struct {
		status PaymentStatus
		want   bool
	}{
		{PaymentStatusPending, false},
		{PaymentStatusCompleted, true},
		{PaymentStatusFailed, true},
	}
	for _, tc := range cases {
		s := &Subscription{PaymentStatus: tc.status}
		if got := s.Terminal(); got != tc.want {
			t.Errorf("Terminal() with %s = %v, want %v", tc.status, got, tc.want)
		}
	}
}

func TestPriceFor(t *testing.T) {
	tier := &PricingTier{
		Name:            "founder-pass",
		USDMonthlyMinor: 2500,
		USDAnnualMinor:  25500,
		AEDMonthlyMinor: 9200,
		AEDAnnualMinor:  93700,
	}

	usd, aed, err := tier.PriceFor(BillingCycleMonthly)
	if err != nil || usd != 2500 || aed != 9200 {
		t.Errorf("monthly = (%d, %d, %v)", usd, aed, err)
	}
	usd, aed, err = tier.PriceFor(BillingCycleAnnual)
	if err != nil || usd != 25500 || aed != 93700 {
		t.Errorf("annual = (%d, %d, %v)", usd, aed, err)
	}
	if _, _, err := tier.PriceFor(BillingCycle("weekly")); !errors.Is(err, domain.ErrInvalidBillingCycle) {
		t.Errorf("weekly err = %v, want ErrInvalidBillingCycle", err)
	}
}

func TestNewPricingTier(t *testing.T) {
	if _, err := NewPricingTier("", "founder-pass", "", 1, 1, 1, 1); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Error("empty id must be rejected")
	}
	if _, err := NewPricingTier("id", "founder-pass", "", 0, 1, 1, 1); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Error("non-positive price must be rejected")
	}
	tier, err := NewPricingTier("id", "founder-pass", "", 1, 2, 3, 4)
	if err != nil {
		t.Fatalf("NewPricingTier: %v", err)
	}
	if tier.DisplayName != "founder-pass" {
		t.Errorf("display name must default to the slug, got %q", tier.DisplayName)
	}
}
