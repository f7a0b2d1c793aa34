package cache

import (
	"context"
	"testing"
	"time"

	"github.com/liam996405/uv-index-service/internal/models"
)

// TestInMemoryCache_GetSet verifies that Set stores values and Get retrieves
// them correctly with the expected data.
func TestInMemoryCache_GetSet(t *testing.T) {
	ctx := context.Background()
	c := NewInMemoryCache()

	val := models.FeedSnapshot{Raw: []byte("<stations/>"), FetchedAt: time.Unix(1700000000, 0)}
	if err := c.Set(ctx, "feed", val, time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	got, ok, err := c.Get(ctx, "feed")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !ok {
		t.Fatal("Get() ok = false, want true")
	}
	if string(got.Raw) != string(val.Raw) || !got.FetchedAt.Equal(val.FetchedAt) {
		t.Errorf("Get() = %+v, want %+v", got, val)
	}
}

// TestInMemoryCache_Get_Miss verifies that Get returns ok=false when
// the requested key does not exist in cache.
func TestInMemoryCache_Get_Miss(t *testing.T) {
	c := NewInMemoryCache()

	_, ok, err := c.Get(context.Background(), "nonexistent")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if ok {
		t.Error("Get() ok = true, want false for miss")
	}
}

// TestInMemoryCache_Get_Expired verifies that Get returns ok=false for expired
// entries and removes them from cache on access.
func TestInMemoryCache_Get_Expired(t *testing.T) {
	ctx := context.Background()
	c := NewInMemoryCache()
	now := time.Unix(1700000000, 0)
	c.now = func() time.Time { return now }

	if err := c.Set(ctx, "feed", models.FeedSnapshot{Raw: []byte("x")}, time.Second); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	now = now.Add(2 * time.Second)
	_, ok, err := c.Get(ctx, "feed")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if ok {
		t.Error("Get() ok = true, want false for expired entry")
	}
	if _, present := c.data["feed"]; present {
		t.Error("expired entry should be deleted from cache")
	}
}

// TestInMemoryCache_ZeroTTL_NeverExpires verifies that entries stored without a
// ttl survive arbitrarily long.
func TestInMemoryCache_ZeroTTL_NeverExpires(t *testing.T) {
	ctx := context.Background()
	c := NewInMemoryCache()
	now := time.Unix(1700000000, 0)
	c.now = func() time.Time { return now }

	_ = c.Set(ctx, "feed", models.FeedSnapshot{Raw: []byte("x")}, 0)
	now = now.Add(365 * 24 * time.Hour)

	if _, ok, _ := c.Get(ctx, "feed"); !ok {
		t.Error("Get() ok = false, want true for entry without ttl")
	}
}

func TestExpirationSeconds(t *testing.T) {
	tests := []struct {
		ttl  time.Duration
		want int32
	}{
		{0, 0},
		{-time.Second, 0},
		{90 * time.Second, 90},
		{24 * time.Hour, 86400},
		{60 * 24 * time.Hour, 30 * 24 * 60 * 60},
	}
	for _, tt := range tests {
		if got := expirationSeconds(tt.ttl); got != tt.want {
			t.Errorf("expirationSeconds(%v) = %d, want %d", tt.ttl, got, tt.want)
		}
	}
}

func TestParseAddrs(t *testing.T) {
	got := parseAddrs(" host1:11211, ,host2:11211 ")
	if len(got) != 2 || got[0] != "host1:11211" || got[1] != "host2:11211" {
		t.Errorf("parseAddrs() = %v", got)
	}
}
