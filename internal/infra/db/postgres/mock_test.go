//go:build !integration

package postgres

import (
	"context"
	"time"

	"membership-billing/internal/domain/model"
	"membership-billing/internal/domain/ports/repository"
	red "membership-billing/internal/infra/redis"
)

// --- Mocks for Cache Decorator Tests ---

// mockInnerTierRepo mocks the database repository that the tier decorator wraps.
type mockInnerTierRepo struct {
	FindByNameFunc func(ctx context.Context, tx repository.Tx, name string) (*model.PricingTier, error)
	ListAllFunc    func(ctx context.Context, tx repository.Tx) ([]*model.PricingTier, error)
	SaveFunc       func(ctx context.Context, tx repository.Tx, t *model.PricingTier) error
}

func (m *mockInnerTierRepo) FindByName(ctx context.Context, tx repository.Tx, name string) (*model.PricingTier, error) {
	return m.FindByNameFunc(ctx, tx, name)
}
func (m *mockInnerTierRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.PricingTier, error) {
	return m.ListAllFunc(ctx, tx)
}
func (m *mockInnerTierRepo) Save(ctx context.Context, tx repository.Tx, t *model.PricingTier) error {
	return m.SaveFunc(ctx, tx, t)
}

// mockRedisClient mocks our Redis client wrapper.
type mockRedisClient struct {
	GetFunc    func(ctx context.Context, key string) (string, error)
	SetFunc    func(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	DelFunc    func(ctx context.Context, keys ...string) error
	PingFunc   func(ctx context.Context) error
	IncrFunc   func(ctx context.Context, key string) (int64, error)
	ExpireFunc func(ctx context.Context, key string, expiration time.Duration) error
	CloseFunc  func() error
}

var _ red.RedisClient = &mockRedisClient{}

func (m *mockRedisClient) Get(ctx context.Context, key string) (string, error) {
	return m.GetFunc(ctx, key)
}
func (m *mockRedisClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return m.SetFunc(ctx, key, value, expiration)
}
func (m *mockRedisClient) Del(ctx context.Context, keys ...string) error {
	return m.DelFunc(ctx, keys...)
}
func (m *mockRedisClient) Ping(ctx context.Context) error { return m.PingFunc(ctx) }
func (m *mockRedisClient) Incr(ctx context.Context, key string) (int64, error) {
	return m.IncrFunc(ctx, key)
}
func (m *mockRedisClient) Expire(ctx context.Context, key string, expiration time.Duration) error {
	return m.ExpireFunc(ctx, key, expiration)
}
func (m *mockRedisClient) Close() error { return m.CloseFunc() }
