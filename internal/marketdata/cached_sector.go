package marketdata

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/wonny/argos/internal/contracts"
	"github.com/wonny/argos/pkg/redis"
)

var _ contracts.SectorLookup = (*CachedSectorLookup)(nil)

// CachedSectorLookup is a read-through cache over a SectorLookup. Sector
// classifications change rarely, so hits are served from Redis for the
// configured TTL; any cache trouble falls back to the inner lookup.
type CachedSectorLookup struct {
	inner contracts.SectorLookup
	cache *redis.Cache
	ttl   time.Duration
	log   zerolog.Logger
}

// NewCachedSectorLookup wraps inner with a Redis-backed cache. A zero ttl
// defaults to redis.TTLLong.
func NewCachedSectorLookup(inner contracts.SectorLookup, cache *redis.Cache, ttl time.Duration, log zerolog.Logger) *CachedSectorLookup {
	if ttl <= 0 {
		ttl = redis.TTLLong
	}
	return &CachedSectorLookup{
		inner: inner,
		cache: cache,
		ttl:   ttl,
		log:   log.With().Str("component", "sector_cache").Logger(),
	}
}

// GetSector returns the cached sector when present, otherwise asks the
// inner lookup and caches the answer. Lookup failures are never cached.
func (c *CachedSectorLookup) GetSector(ctx context.Context, ticker string) (string, error) {
	key := redis.SectorKey(ticker)

	var sector string
	found, err := c.cache.Get(ctx, key, &sector)
	if err != nil {
		c.log.Debug().Err(err).Str("ticker", ticker).Msg("sector cache read failed")
	}
	if found {
		return sector, nil
	}

	sector, err = c.inner.GetSector(ctx, ticker)
	if err != nil {
		return "", err
	}

	if err := c.cache.Set(ctx, key, sector, c.ttl); err != nil {
		c.log.Debug().Err(err).Str("ticker", ticker).Msg("sector cache write failed")
	}
	return sector, nil
}
