// File: internal/usecase/payment_uc.go
package usecase

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"membership-billing/internal/domain"
	"membership-billing/internal/domain/model"
	"membership-billing/internal/domain/ports/adapter"
	"membership-billing/internal/domain/ports/repository"
	"membership-billing/internal/infra/metrics"
)

// Compile-time check
var _ PaymentUseCase = (*paymentUC)(nil)

// InitiateRequest is the inbound payload for starting a payment attempt.
type InitiateRequest struct {
	Gateway      string
	Tier         string
	BillingCycle string
	Email        string
	FullName     string
	PhoneNumber  string
	Country      string
	City         string
	Address      string
	BusinessName string
	UserID       string
}

type PaymentUseCase interface {
	// Initiate validates the request, resolves the price, asks the chosen
	// gateway for a directive and persists a pending subscription. No row is
	// written when any earlier step fails.
	Initiate(ctx context.Context, req InitiateRequest) (*model.Subscription, *adapter.Directive, error)

	// Reconcile finalizes a pending subscription from a gateway callback.
	// Calls against an already-terminal subscription are no-ops returning the
	// stored outcome; a declined payment is a normal FAILED transition, not
	// an error.
	Reconcile(ctx context.Context, reference string, cb adapter.CallbackResult) (*model.Subscription, error)

	// ExpireStale fails pending subscriptions older than olderThan. Used by
	// the background reaper; returns how many were expired.
	ExpireStale(ctx context.Context, olderThan time.Time, limit int) (int, error)
}

type paymentUC struct {
	subs     repository.SubscriptionRepository
	ledger   repository.TransactionRepository
	pricing  PricingUseCase
	gateways map[model.Gateway]adapter.PaymentGateway
	sender   adapter.ConfirmationSender
	log      *zerolog.Logger
}

func NewPaymentUseCase(
	subs repository.SubscriptionRepository,
	ledger repository.TransactionRepository,
	pricing PricingUseCase,
	gateways map[model.Gateway]adapter.PaymentGateway,
	sender adapter.ConfirmationSender,
	logger *zerolog.Logger,
) *paymentUC {
	return &paymentUC{
		subs:     subs,
		ledger:   ledger,
		pricing:  pricing,
		gateways: gateways,
		sender:   sender,
		log:      logger,
	}
}

var (
	emailRx = regexp.MustCompile(`^[^@\s]+@[^@\s]+$`)
	phoneRx = regexp.MustCompile(`^[0-9+\-() ]+$`)
)

// validate enforces the required-field policy: email and fullName are always
// required; phone is shape-checked only when provided; the remaining contact
// fields are optional free text.
func validate(req InitiateRequest) error {
	if req.Tier == "" {
		return fmt.Errorf("%w: missing required field: tier", domain.ErrValidation)
	}
	if req.Email == "" {
		return fmt.Errorf("%w: missing required field: email", domain.ErrValidation)
	}
	if !emailRx.MatchString(req.Email) {
		return fmt.Errorf("%w: malformed email %q", domain.ErrValidation, req.Email)
	}
	if req.FullName == "" {
		return fmt.Errorf("%w: missing required field: fullName", domain.ErrValidation)
	}
	if req.PhoneNumber != "" && !phoneRx.MatchString(req.PhoneNumber) {
		return fmt.Errorf("%w: malformed phoneNumber %q", domain.ErrValidation, req.PhoneNumber)
	}
	return nil
}

// newReference builds the gateway-unique payment reference. The ULID suffix
// makes collisions across concurrent attempts for the same tier impossible
// within practical limits.
func newReference(tier string) string {
	now := time.Now()
	id := ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy())
	return fmt.Sprintf("%s-%d-%s", tier, now.Unix(), id.String())
}

func (u *paymentUC) Initiate(ctx context.Context, req InitiateRequest) (*model.Subscription, *adapter.Directive, error) {
	if err := validate(req); err != nil {
		return nil, nil, err
	}
	gwTag, err := model.ParseGateway(req.Gateway)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: unsupported gateway %q", domain.ErrValidation, req.Gateway)
	}
	gateway, ok := u.gateways[gwTag]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", domain.ErrGatewayConfig, gwTag)
	}
	cycle, err := model.ParseBillingCycle(req.BillingCycle)
	if err != nil {
		return nil, nil, err
	}

	price, err := u.pricing.Resolve(ctx, req.Tier, cycle)
	if err != nil {
		return nil, nil, err
	}

	dup, err := u.subs.HasPending(ctx, repository.NoTX, req.Email, req.Tier, cycle)
	if err != nil {
		return nil, nil, fmt.Errorf("check pending attempts: %w", err)
	}
	if dup {
		return nil, nil, domain.ErrDuplicatePending
	}

	ref := newReference(req.Tier)
	directive, err := gateway.BuildDirective(ctx, adapter.PaymentRequest{
		Tier:         req.Tier,
		BillingCycle: cycle,
		AmountMinor:  price.AmountMinor,
		Currency:     price.Currency,
		Reference:    ref,
		Customer: adapter.Customer{
			Email:    req.Email,
			FullName: req.FullName,
			Phone:    req.PhoneNumber,
			Country:  req.Country,
			City:     req.City,
			Address:  req.Address,
		},
	})
	if err != nil {
		return nil, nil, err
	}

	now := time.Now()
	sub := &model.Subscription{
		ID:                   uuid.NewString(),
		UserID:               req.UserID,
		Email:                req.Email,
		FullName:             req.FullName,
		Tier:                 req.Tier,
		BillingCycle:         cycle,
		AmountMinor:          price.AmountMinor,
		AmountSecondaryMinor: price.AmountSecondaryMinor,
		Currency:             price.Currency,
		Gateway:              gwTag,
		PaymentReference:     ref,
		PaymentStatus:        model.PaymentStatusPending,
		Status:               model.SubscriptionStatusInactive,
		Phone:                req.PhoneNumber,
		Country:              req.Country,
		City:                 req.City,
		Address:              req.Address,
		BusinessName:         req.BusinessName,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if err := u.subs.Insert(ctx, repository.NoTX, sub); err != nil {
		return nil, nil, fmt.Errorf("persist pending subscription: %w", err)
	}

	metrics.IncPayment(string(gwTag), "initiated")
	u.log.Info().
		Str("subscription_id", sub.ID).
		Str("reference", ref).
		Str("gateway", string(gwTag)).
		Str("tier", req.Tier).
		Int64("amount_minor", price.AmountMinor).
		Msg("payment initiated")
	return sub, directive, nil
}

func (u *paymentUC) Reconcile(ctx context.Context, reference string, cb adapter.CallbackResult) (*model.Subscription, error) {
	sub, err := u.subs.FindByReference(ctx, repository.NoTX, reference)
	if err != nil {
		return nil, err
	}
	if sub.Terminal() {
		u.log.Info().
			Str("subscription_id", sub.ID).
			Str("status", string(sub.PaymentStatus)).
			Msg("duplicate gateway callback ignored")
		return sub, nil
	}

	ps, ss := model.PaymentStatusFailed, model.SubscriptionStatusInactive
	if cb.Succeeded {
		ps, ss = model.PaymentStatusCompleted, model.SubscriptionStatusActive
	}

	won, err := u.subs.UpdateStatusIfPending(ctx, repository.NoTX, sub.ID, ps, ss)
	if err != nil {
		return nil, fmt.Errorf("finalize subscription %s: %w", sub.ID, err)
	}
	if !won {
		// A concurrent callback got there first; replay its outcome.
		return u.subs.FindByReference(ctx, repository.NoTX, reference)
	}

	now := time.Now()
	sub.PaymentStatus = ps
	sub.Status = ss
	sub.UpdatedAt = now

	rec := &model.TransactionRecord{
		ID:                   uuid.NewString(),
		SubscriptionID:       sub.ID,
		Type:                 model.TransactionTypeInitial,
		AmountMinor:          sub.AmountMinor,
		AmountSecondaryMinor: sub.AmountSecondaryMinor,
		Currency:             sub.Currency,
		Gateway:              sub.Gateway,
		GatewayTxnID:         cb.GatewayTxnID,
		RawResponse:          cb.Raw,
		Status:               model.TransactionStatusCompleted,
		CompletedAt:          now,
	}
	if !cb.Succeeded {
		rec.Status = model.TransactionStatusFailed
		rec.ErrorMessage = cb.Reason
	}
	// The status transition above is already committed; the ledger row must
	// only ever appear after it. A failed append must not reach the notifier.
	if err := u.ledger.Append(ctx, repository.NoTX, rec); err != nil {
		u.log.Error().Err(err).Str("subscription_id", sub.ID).Msg("ledger append failed")
		return sub, fmt.Errorf("append ledger entry: %w", err)
	}

	metrics.IncPayment(string(sub.Gateway), string(ps))
	if !cb.Succeeded {
		u.log.Info().
			Str("subscription_id", sub.ID).
			Str("reason", cb.Reason).
			Msg("payment failed")
		return sub, nil
	}

	metrics.AddPaymentRevenue(sub.Currency, sub.AmountMinor)
	u.log.Info().Str("subscription_id", sub.ID).Msg("payment completed, membership active")
	u.notify(ctx, sub)
	return sub, nil
}

// notify attempts the confirmation send. Failures are logged and swallowed:
// the payment is already captured and must not look failed to the client
// because of an email outage. The sweep re-attempts unsent confirmations.
func (u *paymentUC) notify(ctx context.Context, sub *model.Subscription) {
	if u.sender == nil {
		return
	}
	if err := u.sender.SendConfirmation(ctx, sub); err != nil {
		metrics.IncNotification("failed")
		u.log.Warn().Err(err).Str("subscription_id", sub.ID).Msg("confirmation email failed")
		return
	}
	now := time.Now()
	if err := u.subs.MarkNotified(ctx, repository.NoTX, sub.ID, now); err != nil {
		u.log.Warn().Err(err).Str("subscription_id", sub.ID).Msg("mark notified failed")
	} else {
		sub.ConfirmationEmailSent = true
		sub.ConfirmationSentAt = &now
	}
	metrics.IncNotification("sent")
}

func (u *paymentUC) ExpireStale(ctx context.Context, olderThan time.Time, limit int) (int, error) {
	stale, err := u.subs.ListPendingOlderThan(ctx, repository.NoTX, olderThan, limit)
	if err != nil {
		return 0, err
	}
	expired := 0
	for _, s := range stale {
		_, err := u.Reconcile(ctx, s.PaymentReference, adapter.CallbackResult{
			Reference: s.PaymentReference,
			Succeeded: false,
			Reason:    "expired: no gateway callback received",
		})
		if err != nil {
			u.log.Error().Err(err).Str("subscription_id", s.ID).Msg("expire stale pending failed")
			continue
		}
		expired++
	}
	return expired, nil
}
