package chain

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"asset-registry/internal/asset"
)

// Issuance metadata is immutable once an asset exists, so cached entries
// never go stale; the TTL only bounds memory for ids nobody asks about again.
type CachedQuery struct {
	inner  asset.ChainQuery
	rdb    redis.UniversalClient
	ttl    time.Duration
	logger *slog.Logger
}

// NewCachedQuery wraps a chain query with a redis-backed cache for issuance
// lookups. Confirmation checks pass through untouched since confirmation
// status changes over time.
func NewCachedQuery(inner asset.ChainQuery, rdb redis.UniversalClient, ttl time.Duration, logger *slog.Logger) *CachedQuery {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedQuery{inner: inner, rdb: rdb, ttl: ttl, logger: logger}
}

func issuanceKey(id asset.ID) string {
	return "asset-issuance:" + id.String()
}

// GetAsset serves issuance metadata from the cache when present. Cache
// failures degrade to the backend rather than failing the lookup.
func (c *CachedQuery) GetAsset(ctx context.Context, id asset.ID) (*asset.IssuanceInfo, error) {
	key := issuanceKey(id)

	cached, err := c.rdb.Get(ctx, key).Result()
	switch {
	case err == nil:
		var info asset.IssuanceInfo
		if err := json.Unmarshal([]byte(cached), &info); err == nil {
			return &info, nil
		}
		c.logger.Warn("dropping undecodable cache entry", "key", key)
		c.rdb.Del(ctx, key)
	case !errors.Is(err, redis.Nil):
		c.logger.Warn("chain cache read failed", "key", key, "error", err)
	}

	info, err := c.inner.GetAsset(ctx, id)
	if err != nil {
		return nil, err
	}

	if encoded, err := json.Marshal(info); err == nil {
		if err := c.rdb.Set(ctx, key, encoded, c.ttl).Err(); err != nil {
			c.logger.Warn("chain cache write failed", "key", key, "error", err)
		}
	}
	return info, nil
}

// ConfirmIssuance delegates to the backend.
func (c *CachedQuery) ConfirmIssuance(ctx context.Context, txin asset.TxIn, prevout asset.OutPoint, id asset.ID) (bool, error) {
	return c.inner.ConfirmIssuance(ctx, txin, prevout, id)
}
