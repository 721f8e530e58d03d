package session

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSession_ModifiedTracking(t *testing.T) {
	s := New(time.Now(), time.Hour)
	assert.True(t, s.Modified(), "new session must be saved")

	s.MarkSaved()
	assert.False(t, s.Modified())

	s.Delete("missing")
	assert.False(t, s.Modified(), "deleting absent key is a no-op")

	s.Set("k", "v")
	assert.True(t, s.Modified())
	v, ok := s.Get("k")
	assert.True(t, ok)
	assert.Equal(t, "v", v)

	s.MarkSaved()
	s.Delete("k")
	assert.True(t, s.Modified())
	_, ok = s.Get("k")
	assert.False(t, ok)
}

func TestSession_Expired(t *testing.T) {
	now := time.Now()
	s := New(now, time.Hour)

	assert.False(t, s.Expired(now))
	assert.False(t, s.Expired(now.Add(59*time.Minute)))
	assert.True(t, s.Expired(now.Add(time.Hour)))
}

func TestMemoryStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	s := New(time.Now(), time.Hour)
	s.Set("google_oauth_state", "abc")
	require.NoError(t, store.Save(ctx, s))
	assert.False(t, s.Modified())

	loaded, err := store.Load(ctx, s.ID)
	require.NoError(t, err)
	v, _ := loaded.Get("google_oauth_state")
	assert.Equal(t, "abc", v)
	assert.False(t, loaded.Modified())

	// Loaded sessions are copies.
	loaded.Set("google_oauth_state", "changed")
	again, err := store.Load(ctx, s.ID)
	require.NoError(t, err)
	v, _ = again.Get("google_oauth_state")
	assert.Equal(t, "abc", v)

	require.NoError(t, store.Delete(ctx, s.ID))
	_, err = store.Load(ctx, s.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestMemoryStore_AbsoluteExpiry(t *testing.T) {
	ctx := context.Background()
	start := time.Now()
	store := NewMemoryStore()
	store.now = func() time.Time { return start }

	s := New(start, time.Hour)
	require.NoError(t, store.Save(ctx, s))

	// Activity does not extend the lifetime.
	store.now = func() time.Time { return start.Add(50 * time.Minute) }
	loaded, err := store.Load(ctx, s.ID)
	require.NoError(t, err)
	loaded.Set("user", "{}")
	require.NoError(t, store.Save(ctx, loaded))

	store.now = func() time.Time { return start.Add(61 * time.Minute) }
	_, err = store.Load(ctx, s.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.Equal(t, 0, store.Len(), "expired entry dropped on access")
}

func TestMemoryStore_UnknownID(t *testing.T) {
	_, err := NewMemoryStore().Load(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestContext(t *testing.T) {
	_, ok := FromContext(context.Background())
	assert.False(t, ok)

	s := New(time.Now(), time.Hour)
	got, ok := FromContext(NewContext(context.Background(), s))
	assert.True(t, ok)
	assert.Same(t, s, got)
}

// TestRedisStore runs against a live Redis when TEST_REDIS_ADDR is set.
func TestRedisStore(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("Skipping redis test - requires TEST_REDIS_ADDR")
	}

	ctx := context.Background()
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()
	store := NewRedisStore(client, "test-session:")

	s := New(time.Now(), time.Minute)
	s.Set("user", `{"id":"1"}`)
	require.NoError(t, store.Save(ctx, s))

	loaded, err := store.Load(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, s.Values, loaded.Values)

	ttl, err := client.TTL(ctx, "test-session:"+s.ID).Result()
	require.NoError(t, err)
	assert.LessOrEqual(t, ttl, time.Minute)

	require.NoError(t, store.Delete(ctx, s.ID))
	_, err = store.Load(ctx, s.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}
