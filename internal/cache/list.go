// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// list.go provides a Valkey-backed cache of list windows. Each entry holds
// one page of active posts plus the total count, keyed by a generation and
// the window. A write bumps the generation, so entries cached by readers
// that queried before the write land under a key nobody reads again.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"inkpost/internal/models"
)

const (
	// listKeyPrefix is the Valkey key prefix for cached list windows.
	listKeyPrefix = "blogs:list:"

	// genKey holds the current list generation.
	genKey = listKeyPrefix + "gen"

	// DefaultListTTL is how long a list window stays cached.
	DefaultListTTL = time.Minute
)

// ListCache manages list-window caching in Valkey.
type ListCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewListCache creates a new list cache backed by the given Valkey client.
func NewListCache(client *redis.Client, ttl time.Duration) *ListCache {
	if ttl == 0 {
		ttl = DefaultListTTL
	}
	return &ListCache{client: client, ttl: ttl}
}

// WindowKey returns the cache key for a list window in generation gen.
func WindowKey(gen int64, offset, limit int) string {
	return fmt.Sprintf("%d:%d:%d", gen, offset, limit)
}

// Generation returns the current list generation. A missing counter is
// generation 0. Any other Valkey error is returned and callers must not
// cache.
func (lc *ListCache) Generation(ctx context.Context) (int64, error) {
	gen, err := lc.client.Get(ctx, genKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read list generation: %w", err)
	}
	return gen, nil
}

// Get retrieves a cached list window. Returns false on miss or on any
// Valkey error, so callers fall through to the database.
func (lc *ListCache) Get(ctx context.Context, gen int64, offset, limit int) (*models.PostPage, bool) {
	key := WindowKey(gen, offset, limit)
	val, err := lc.client.Get(ctx, listKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		slog.Warn("list cache get error", "key", key, "error", err)
		return nil, false
	}

	var page models.PostPage
	if err := json.Unmarshal(val, &page); err != nil {
		slog.Warn("list cache decode error", "key", key, "error", err)
		return nil, false
	}
	slog.Debug("list cache hit", "key", key)
	return &page, true
}

// Set stores a list window under generation gen with the configured TTL.
func (lc *ListCache) Set(ctx context.Context, gen int64, offset, limit int, page *models.PostPage) {
	key := WindowKey(gen, offset, limit)
	data, err := json.Marshal(page)
	if err != nil {
		slog.Warn("list cache encode error", "key", key, "error", err)
		return
	}
	if err := lc.client.Set(ctx, listKeyPrefix+key, data, lc.ttl).Err(); err != nil {
		slog.Warn("list cache set error", "key", key, "error", err)
	}
}

// InvalidateAll moves every reader to a fresh generation. Entries of older
// generations are left to expire.
func (lc *ListCache) InvalidateAll(ctx context.Context) error {
	gen, err := lc.client.Incr(ctx, genKey).Result()
	if err != nil {
		return fmt.Errorf("bump list generation: %w", err)
	}
	slog.Debug("list cache generation bumped", "gen", gen)
	return nil
}
