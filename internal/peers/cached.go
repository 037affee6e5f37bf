package peers

import (
	"context"
	"time"

	"github.com/valuora/backend/internal/contracts"
	"github.com/valuora/backend/pkg/logger"
	"github.com/valuora/backend/pkg/redis"
)

// PeerGroupTTL matches the peer-selection refresh cycle. Groups change
// on reclassification or index rebalancing, not day to day.
const PeerGroupTTL = 30 * 24 * time.Hour

// CachedRepository wraps the Postgres repository with a Redis cache.
// Cache errors degrade to the database; they never fail a valuation.
type CachedRepository struct {
	inner contracts.PeerGroupRepository
	cache *redis.Cache
	log   *logger.Logger
}

// NewCachedRepository creates the caching wrapper.
func NewCachedRepository(inner contracts.PeerGroupRepository, cache *redis.Cache, log *logger.Logger) *CachedRepository {
	return &CachedRepository{inner: inner, cache: cache, log: log}
}

// Get returns the peer group, serving from cache when possible.
// A nil group (no peers) is cached too, as an empty-group marker, so
// peerless companies don't hit the database on every run.
func (r *CachedRepository) Get(ctx context.Context, ticker string) (*contracts.PeerGroup, error) {
	key := "peers:" + ticker

	var cached contracts.PeerGroup
	hit, err := r.cache.Get(ctx, key, &cached)
	if err != nil {
		r.log.WithError(err).WithField("ticker", ticker).Warn("Peer cache read failed")
	} else if hit {
		if cached.Empty() {
			return nil, nil
		}
		return &cached, nil
	}

	group, err := r.inner.Get(ctx, ticker)
	if err != nil {
		return nil, err
	}

	toCache := group
	if toCache == nil {
		toCache = &contracts.PeerGroup{Ticker: ticker}
	}
	if err := r.cache.Set(ctx, key, toCache, PeerGroupTTL); err != nil {
		r.log.WithError(err).WithField("ticker", ticker).Warn("Peer cache write failed")
	}
	return group, nil
}
