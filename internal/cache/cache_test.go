// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"aichat/internal/models"
)

// testValkeyClient returns a Redis client for tests.
// Skips if Valkey is unavailable.
func testValkeyClient(t *testing.T) *redis.Client {
	t.Helper()

	host := envOr("VALKEY_HOST", "localhost")
	port := envOr("VALKEY_PORT", "6379")
	password := os.Getenv("VALKEY_PASSWORD")

	client := redis.NewClient(&redis.Options{
		Addr:     host + ":" + port,
		Password: password,
		DB:       15, // Use DB 15 for tests.
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		t.Skipf("skipping integration test: Valkey not reachable: %v", err)
	}

	t.Cleanup(func() {
		keys, _ := client.Keys(ctx, historyKeyPrefix+"test-*").Result()
		versions, _ := client.Keys(ctx, versionKeyPrefix+"test-*").Result()
		keys = append(keys, versions...)
		if len(keys) > 0 {
			client.Del(ctx, keys...)
		}
		client.Close()
	})

	return client
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func TestConnectValkey(t *testing.T) {
	host := envOr("VALKEY_HOST", "localhost")
	port := envOr("VALKEY_PORT", "6379")

	client, err := ConnectValkey(host, port, os.Getenv("VALKEY_PASSWORD"))
	if err != nil {
		t.Skipf("skipping: Valkey not available: %v", err)
	}
	defer client.Close()

	pong, err := client.Ping(context.Background()).Result()
	if err != nil {
		t.Fatalf("Ping: %v", err)
	}
	if pong != "PONG" {
		t.Errorf("expected PONG, got %q", pong)
	}
}

func TestConnectValkeyUnreachable(t *testing.T) {
	if _, err := ConnectValkey("127.0.0.1", "1", ""); err == nil {
		t.Error("expected error for unreachable Valkey")
	}
}

func TestHistoryCacheSetAndGet(t *testing.T) {
	client := testValkeyClient(t)
	hc := NewHistoryCache(client, time.Minute)
	ctx := context.Background()

	ts := time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC)
	msgs := []models.Message{
		{ID: 1, Content: "hi", Role: models.RoleUser, Timestamp: ts},
		{ID: 2, Content: "**hello**", Role: models.RoleAssistant, Timestamp: ts.Add(time.Second)},
	}
	_, version, ok := hc.Get(ctx, "test-session-a")
	if ok {
		t.Fatal("expected cache miss before Set")
	}
	if version != 0 {
		t.Errorf("version of an untouched session: got %d, want 0", version)
	}
	hc.Set(ctx, "test-session-a", version, msgs)

	got, _, ok := hc.Get(ctx, "test-session-a")
	if !ok {
		t.Fatal("expected cache hit")
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(got))
	}
	if got[1].Content != "**hello**" || got[1].Role != models.RoleAssistant {
		t.Errorf("unexpected message: %+v", got[1])
	}
	if !got[0].Timestamp.Equal(ts) {
		t.Errorf("timestamp: got %v, want %v", got[0].Timestamp, ts)
	}

	ttl := client.TTL(ctx, historyKey("test-session-a")).Val()
	if ttl <= 0 || ttl > time.Minute {
		t.Errorf("unexpected TTL %v", ttl)
	}
}

func TestHistoryCacheMiss(t *testing.T) {
	client := testValkeyClient(t)
	hc := NewHistoryCache(client, 0)

	if _, _, ok := hc.Get(context.Background(), "test-missing"); ok {
		t.Error("expected cache miss")
	}
	if hc.ttl != DefaultHistoryTTL {
		t.Errorf("ttl: got %v, want %v", hc.ttl, DefaultHistoryTTL)
	}
}

func TestHistoryCacheEmptyHistoryIsAHit(t *testing.T) {
	client := testValkeyClient(t)
	hc := NewHistoryCache(client, time.Minute)
	ctx := context.Background()

	hc.Set(ctx, "test-empty", 0, nil)

	got, _, ok := hc.Get(ctx, "test-empty")
	if !ok {
		t.Fatal("expected cache hit for empty history")
	}
	if len(got) != 0 {
		t.Errorf("expected no messages, got %d", len(got))
	}
}

func TestHistoryCacheInvalidate(t *testing.T) {
	client := testValkeyClient(t)
	hc := NewHistoryCache(client, time.Minute)
	ctx := context.Background()

	hc.Set(ctx, "test-session-b", 0, []models.Message{{ID: 1, Content: "x", Role: models.RoleUser}})
	hc.Invalidate(ctx, "test-session-b")

	_, version, ok := hc.Get(ctx, "test-session-b")
	if ok {
		t.Error("expected miss after invalidate")
	}
	if version != 1 {
		t.Errorf("version after invalidate: got %d, want 1", version)
	}
}

func TestHistoryCacheSetAfterInvalidateIsDropped(t *testing.T) {
	client := testValkeyClient(t)
	hc := NewHistoryCache(client, time.Minute)
	ctx := context.Background()

	// A reader misses and loads the history from the database...
	_, version, ok := hc.Get(ctx, "test-session-race")
	if ok {
		t.Fatal("expected cache miss")
	}
	stale := []models.Message{{ID: 1, Content: "old", Role: models.RoleUser}}

	// ...while a new exchange lands and invalidates.
	hc.Invalidate(ctx, "test-session-race")
	hc.Set(ctx, "test-session-race", version, stale)

	if _, _, ok := hc.Get(ctx, "test-session-race"); ok {
		t.Error("history loaded before the invalidation must not be cached")
	}

	_, current, _ := hc.Get(ctx, "test-session-race")
	hc.Set(ctx, "test-session-race", current, stale)
	if _, _, ok := hc.Get(ctx, "test-session-race"); !ok {
		t.Error("history loaded at the current version should be cached")
	}
}

func TestHistoryCacheSetIgnoresNoVersion(t *testing.T) {
	client := testValkeyClient(t)
	hc := NewHistoryCache(client, time.Minute)
	ctx := context.Background()

	hc.Set(ctx, "test-noversion", NoVersion, []models.Message{{ID: 1, Content: "x"}})
	if _, _, ok := hc.Get(ctx, "test-noversion"); ok {
		t.Error("Set with NoVersion should not write")
	}
}

func TestParseVersion(t *testing.T) {
	tests := []struct {
		in   any
		want int64
	}{
		{nil, 0},
		{"7", 7},
		{"abc", NoVersion},
		{int64(3), NoVersion},
	}
	for _, tt := range tests {
		if got := parseVersion(tt.in); got != tt.want {
			t.Errorf("parseVersion(%v): got %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestHistoryCacheCorruptEntryIsAMiss(t *testing.T) {
	client := testValkeyClient(t)
	hc := NewHistoryCache(client, time.Minute)
	ctx := context.Background()

	client.Set(ctx, historyKey("test-corrupt"), "{not json", time.Minute)

	if _, _, ok := hc.Get(ctx, "test-corrupt"); ok {
		t.Error("corrupt entry should be reported as a miss")
	}
}
