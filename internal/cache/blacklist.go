package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Skotchmaster/medorder/internal/models"
	"github.com/Skotchmaster/medorder/pkg/logging"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "bl"

type Store interface {
	AddBlacklist(ctx context.Context, entry *models.BlacklistedToken) error
	IsBlacklisted(ctx context.Context, tokenID string) (bool, error)
}

// Blacklist keeps revoked access token ids in redis in front of the store.
// The store stays authoritative: a redis miss or outage falls through to it.
type Blacklist struct {
	redis *redis.Client
	store Store
	now   func() time.Time
}

func NewBlacklist(client *redis.Client, store Store) *Blacklist {
	return &Blacklist{redis: client, store: store, now: time.Now}
}

func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis: ping %s: %w", addr, err)
	}
	return client, nil
}

func key(tokenID string) string {
	return keyPrefix + ":" + tokenID
}

func (b *Blacklist) Add(ctx context.Context, entry *models.BlacklistedToken) error {
	if err := b.store.AddBlacklist(ctx, entry); err != nil {
		return err
	}
	b.remember(ctx, entry.TokenID, entry.ExpiresAt)
	return nil
}

func (b *Blacklist) Contains(ctx context.Context, tokenID string) (bool, error) {
	if b.redis != nil {
		n, err := b.redis.Exists(ctx, key(tokenID)).Result()
		switch {
		case err == nil && n > 0:
			return true, nil
		case err != nil && !errors.Is(err, redis.Nil):
			logging.FromContext(ctx).Warn("blacklist_cache_unavailable", "error", err)
		}
	}

	revoked, err := b.store.IsBlacklisted(ctx, tokenID)
	if err != nil {
		return false, err
	}
	if revoked {
		// backfilled entries only live for a minute; the store row carries the real expiry
		b.remember(ctx, tokenID, b.now().Add(time.Minute))
	}
	return revoked, nil
}

func (b *Blacklist) remember(ctx context.Context, tokenID string, expiresAt time.Time) {
	if b.redis == nil {
		return
	}
	ttl := expiresAt.Sub(b.now())
	if ttl <= 0 {
		return
	}
	if err := b.redis.Set(ctx, key(tokenID), 1, ttl).Err(); err != nil {
		logging.FromContext(ctx).Warn("blacklist_cache_write_failed", "token_id", tokenID, "error", err)
	}
}
