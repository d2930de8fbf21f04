// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// history.go caches the message history of a session in Valkey so repeated
// history reads (page reloads, transcript views, exports) skip PostgreSQL.
// Every new exchange invalidates the entry.
//
// Each session also has a version counter that Invalidate bumps. A reader
// takes the version on its cache miss and hands it back to Set, which only
// writes if no invalidation happened in between. That keeps a slow reader
// from caching a history older than the latest exchange.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"aichat/internal/models"
)

const (
	// historyKeyPrefix is the Valkey key prefix for cached histories.
	historyKeyPrefix = "history:"

	// versionKeyPrefix is the Valkey key prefix for history versions.
	versionKeyPrefix = "history-version:"

	// DefaultHistoryTTL is how long a session history stays cached.
	DefaultHistoryTTL = 10 * time.Minute

	// NoVersion is returned by Get when the version could not be read.
	// Set ignores it.
	NoVersion int64 = -1
)

// errStale aborts a Set that lost the race with an Invalidate.
var errStale = errors.New("history version changed")

// HistoryCache manages per-session history caching in Valkey. Failures are
// logged and reported as misses; the database stays the source of truth.
type HistoryCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewHistoryCache creates a history cache backed by the given Valkey client.
// A zero ttl selects DefaultHistoryTTL.
func NewHistoryCache(client *redis.Client, ttl time.Duration) *HistoryCache {
	if ttl == 0 {
		ttl = DefaultHistoryTTL
	}
	return &HistoryCache{client: client, ttl: ttl}
}

// Get returns the cached history of a session and its current version. The
// bool is false on a miss; the version is still valid then and should be
// passed to Set once the history has been loaded.
func (hc *HistoryCache) Get(ctx context.Context, sessionID string) ([]models.Message, int64, bool) {
	vals, err := hc.client.MGet(ctx, historyKey(sessionID), versionKey(sessionID)).Result()
	if err != nil {
		slog.Warn("history cache get error", "session_id", sessionID, "error", err)
		return nil, NoVersion, false
	}

	version := parseVersion(vals[1])
	raw, ok := vals[0].(string)
	if !ok {
		return nil, version, false
	}

	var msgs []models.Message
	if err := json.Unmarshal([]byte(raw), &msgs); err != nil {
		slog.Warn("history cache decode error", "session_id", sessionID, "error", err)
		return nil, version, false
	}
	slog.Debug("history cache hit", "session_id", sessionID)
	return msgs, version, true
}

// Set stores the history of a session with the configured TTL, provided the
// session is still at version. A newer version means the history was loaded
// before the latest exchange, so it is dropped.
func (hc *HistoryCache) Set(ctx context.Context, sessionID string, version int64, msgs []models.Message) {
	if version == NoVersion {
		return
	}
	if msgs == nil {
		msgs = []models.Message{}
	}
	payload, err := json.Marshal(msgs)
	if err != nil {
		slog.Warn("history cache encode error", "session_id", sessionID, "error", err)
		return
	}

	vkey := versionKey(sessionID)
	err = hc.client.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, vkey).Int64()
		if err == redis.Nil {
			cur = 0
		} else if err != nil {
			return err
		}
		if cur != version {
			return errStale
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, historyKey(sessionID), payload, hc.ttl)
			return nil
		})
		return err
	}, vkey)

	switch {
	case err == nil:
	case errors.Is(err, errStale), errors.Is(err, redis.TxFailedErr):
		slog.Debug("history cache set skipped, history changed", "session_id", sessionID)
	default:
		slog.Warn("history cache set error", "session_id", sessionID, "error", err)
	}
}

// Invalidate removes the cached history of a session and bumps its version
// so in-flight readers do not write it back.
func (hc *HistoryCache) Invalidate(ctx context.Context, sessionID string) {
	vkey := versionKey(sessionID)
	_, err := hc.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, vkey)
		// Outlives any reader still holding the old version.
		pipe.Expire(ctx, vkey, 2*hc.ttl)
		pipe.Del(ctx, historyKey(sessionID))
		return nil
	})
	if err != nil {
		slog.Warn("history cache invalidate error", "session_id", sessionID, "error", err)
		return
	}
	slog.Debug("history cache invalidated", "session_id", sessionID)
}

// parseVersion reads the version from an MGET reply. A missing key is
// version 0.
func parseVersion(v any) int64 {
	switch s := v.(type) {
	case nil:
		return 0
	case string:
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return NoVersion
		}
		return n
	default:
		return NoVersion
	}
}

func historyKey(sessionID string) string {
	return historyKeyPrefix + sessionID
}

func versionKey(sessionID string) string {
	return versionKeyPrefix + sessionID
}
