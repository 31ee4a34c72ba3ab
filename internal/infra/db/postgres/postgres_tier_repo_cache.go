package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"membership-billing/internal/domain/model"
	"membership-billing/internal/domain/ports/repository"
	"membership-billing/internal/infra/metrics"
	red "membership-billing/internal/infra/redis"
)

var _ repository.PricingTierRepository = (*tierRepoCacheDecorator)(nil)

// tierRepoCacheDecorator caches the pricing reference table in Redis. Tiers
// change only through the seed tool, so a long TTL is safe; Save invalidates.
type tierRepoCacheDecorator struct {
	inner repository.PricingTierRepository
	cache red.RedisClient
	ttl   time.Duration
}

func NewTierRepoCacheDecorator(inner repository.PricingTierRepository, cache red.RedisClient, ttl time.Duration) repository.PricingTierRepository {
	if ttl <= 0 {
		ttl = 1 * time.Hour
	}
	return &tierRepoCacheDecorator{
		inner: inner,
		cache: cache,
		ttl:   ttl,
	}
}

func (d *tierRepoCacheDecorator) FindByName(ctx context.Context, tx repository.Tx, name string) (*model.PricingTier, error) {
	key := fmt.Sprintf("tier:%s", name)
	val, err := d.cache.Get(ctx, key)
	if err == nil {
		var tier model.PricingTier
		if json.Unmarshal([]byte(val), &tier) == nil {
			metrics.IncCacheRequest("tier", "hit")
			return &tier, nil
		}
	}

	metrics.IncCacheRequest("tier", "miss")
	tier, err := d.inner.FindByName(ctx, tx, name)
	if err != nil {
		return nil, err
	}
	if tier != nil {
		bytes, _ := json.Marshal(tier)
		d.cache.Set(ctx, key, bytes, d.ttl)
	}
	return tier, nil
}

func (d *tierRepoCacheDecorator) ListAll(ctx context.Context, tx repository.Tx) ([]*model.PricingTier, error) {
	key := "tiers:all"
	val, err := d.cache.Get(ctx, key)
	if err == nil {
		var tiers []*model.PricingTier
		if json.Unmarshal([]byte(val), &tiers) == nil {
			metrics.IncCacheRequest("tier_list", "hit")
			return tiers, nil
		}
	}

	metrics.IncCacheRequest("tier_list", "miss")
	tiers, err := d.inner.ListAll(ctx, tx)
	if err != nil {
		return nil, err
	}
	if len(tiers) > 0 {
		bytes, _ := json.Marshal(tiers)
		d.cache.Set(ctx, key, bytes, d.ttl)
	}
	return tiers, nil
}

// Save invalidates both the per-tier key and the full list.
func (d *tierRepoCacheDecorator) Save(ctx context.Context, tx repository.Tx, t *model.PricingTier) error {
	d.cache.Del(ctx, fmt.Sprintf("tier:%s", t.Name))
	d.cache.Del(ctx, "tiers:all")
	return d.inner.Save(ctx, tx, t)
}
