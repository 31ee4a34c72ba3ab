//go:build !integration

// File: internal/usecase/mocks_test.go
package usecase

import (
	"context"
	"net/url"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"membership-billing/internal/domain"
	"membership-billing/internal/domain/model"
	"membership-billing/internal/domain/ports/adapter"
	"membership-billing/internal/domain/ports/repository"
)

func newTestLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

// memSubscriptionRepo is a small in-memory implementation used by unit tests.
// UpdateStatusIfPending is guarded by the same mutex as everything else, so it
// has the atomicity the real conditional UPDATE provides.
type memSubscriptionRepo struct {
	mu    sync.RWMutex
	byID  map[string]*model.Subscription
	byRef map[string]string // reference -> id

	insertErr error
	updateErr error
	notifyErr error
}

func newMemSubscriptionRepo() *memSubscriptionRepo {
	return &memSubscriptionRepo{
		byID:  make(map[string]*model.Subscription),
		byRef: make(map[string]string),
	}
}

func (m *memSubscriptionRepo) Insert(ctx context.Context, tx repository.Tx, s *model.Subscription) error {
	if m.insertErr != nil {
		return m.insertErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.byID[s.ID] = &cp
	m.byRef[s.PaymentReference] = s.ID
	return nil
}

func (m *memSubscriptionRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Subscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *memSubscriptionRepo) FindByReference(ctx context.Context, tx repository.Tx, reference string) (*model.Subscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.byRef[reference]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *m.byID[id]
	return &cp, nil
}

func (m *memSubscriptionRepo) HasPending(ctx context.Context, tx repository.Tx, email, tier string, cycle model.BillingCycle) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, s := range m.byID {
		if s.Email == email && s.Tier == tier && s.BillingCycle == cycle && s.PaymentStatus == model.PaymentStatusPending {
			return true, nil
		}
	}
	return false, nil
}

func (m *memSubscriptionRepo) UpdateStatusIfPending(ctx context.Context, tx repository.Tx, id string, ps model.PaymentStatus, ss model.SubscriptionStatus) (bool, error) {
	if m.updateErr != nil {
		return false, m.updateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.byID[id]
	if !ok || s.PaymentStatus != model.PaymentStatusPending {
		return false, nil
	}
	s.PaymentStatus = ps
	s.Status = ss
	s.UpdatedAt = time.Now()
	return true, nil
}

func (m *memSubscriptionRepo) MarkNotified(ctx context.Context, tx repository.Tx, id string, at time.Time) error {
	if m.notifyErr != nil {
		return m.notifyErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	s.ConfirmationEmailSent = true
	s.ConfirmationSentAt = &at
	return nil
}

func (m *memSubscriptionRepo) ListPendingOlderThan(ctx context.Context, tx repository.Tx, olderThan time.Time, limit int) ([]*model.Subscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.Subscription
	for _, s := range m.byID {
		if s.PaymentStatus == model.PaymentStatusPending && s.CreatedAt.Before(olderThan) {
			cp := *s
			out = append(out, &cp)
			if limit > 0 && len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

func (m *memSubscriptionRepo) ListCompletedUnnotified(ctx context.Context, tx repository.Tx, limit int) ([]*model.Subscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.Subscription
	for _, s := range m.byID {
		if s.PaymentStatus == model.PaymentStatusCompleted && !s.ConfirmationEmailSent {
			cp := *s
			out = append(out, &cp)
			if limit > 0 && len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

func (m *memSubscriptionRepo) SumRevenueByPeriod(ctx context.Context, tx repository.Tx, period string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var sum int64
	for _, s := range m.byID {
		if s.PaymentStatus == model.PaymentStatusCompleted {
			sum += s.AmountMinor
		}
	}
	return sum, nil
}

// memLedger is the in-memory append-only transaction store.
type memLedger struct {
	mu      sync.Mutex
	entries []*model.TransactionRecord

	appendErr error
}

func (m *memLedger) Append(ctx context.Context, tx repository.Tx, rec *model.TransactionRecord) error {
	if m.appendErr != nil {
		return m.appendErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *rec
	m.entries = append(m.entries, &cp)
	return nil
}

func (m *memLedger) ListBySubscription(ctx context.Context, tx repository.Tx, subscriptionID string) ([]*model.TransactionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.TransactionRecord
	for _, e := range m.entries {
		if e.SubscriptionID == subscriptionID {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memLedger) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// memTierRepo holds the pricing reference table keyed by tier name.
type memTierRepo struct {
	byName map[string]*model.PricingTier
}

func newMemTierRepo(tiers ...*model.PricingTier) *memTierRepo {
	m := &memTierRepo{byName: make(map[string]*model.PricingTier)}
	for _, t := range tiers {
		m.byName[t.Name] = t
	}
	return m
}

func (m *memTierRepo) FindByName(ctx context.Context, tx repository.Tx, name string) (*model.PricingTier, error) {
	t, ok := m.byName[name]
	if !ok {
		return nil, domain.ErrTierNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *memTierRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.PricingTier, error) {
	var out []*model.PricingTier
	for _, t := range m.byName {
		cp := *t
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memTierRepo) Save(ctx context.Context, tx repository.Tx, t *model.PricingTier) error {
	cp := *t
	m.byName[t.Name] = &cp
	return nil
}

// mockGateway lets tests script the adapter behavior per call.
type mockGateway struct {
	name              string
	buildDirectiveErr error

	mu       sync.Mutex
	requests []adapter.PaymentRequest
}

func (g *mockGateway) Name() string { return g.name }

func (g *mockGateway) BuildDirective(ctx context.Context, req adapter.PaymentRequest) (*adapter.Directive, error) {
	if g.buildDirectiveErr != nil {
		return nil, g.buildDirectiveErr
	}
	g.mu.Lock()
	g.requests = append(g.requests, req)
	g.mu.Unlock()
	return &adapter.Directive{
		Gateway:      g.name,
		Reference:    req.Reference,
		ClientSecret: "secret_" + req.Reference,
		IntentID:     "pi_" + req.Reference,
	}, nil
}

func (g *mockGateway) ParseCallback(query url.Values, body []byte) (adapter.CallbackResult, error) {
	return adapter.CallbackResult{}, nil
}

// mockNotifier records confirmation sends.
type mockNotifier struct {
	mu      sync.Mutex
	sent    []string // subscription IDs
	sendErr error
}

func (n *mockNotifier) SendConfirmation(ctx context.Context, sub *model.Subscription) error {
	if n.sendErr != nil {
		return n.sendErr
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sub.ID)
	return nil
}

func (n *mockNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}

func testTier() *model.PricingTier {
	return &model.PricingTier{
		ID:              "tier-1",
		Name:            "founder-pass",
		DisplayName:     "Founder Pass",
		USDMonthlyMinor: 2500,
		USDAnnualMinor:  25500,
		AEDMonthlyMinor: 9200,
		AEDAnnualMinor:  93700,
		CreatedAt:       time.Now(),
	}
}
