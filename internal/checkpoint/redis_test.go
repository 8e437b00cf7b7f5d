package checkpoint

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewRedisStore(client, "funnel-ingest"), mr
}

func TestSaveThenLoadRoundTrips(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	wm := time.Date(2024, 3, 7, 10, 5, 0, 123456789, time.UTC)
	require.NoError(t, store.Save(ctx, wm))

	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.True(t, got.Equal(wm))
}

func TestLoadMissingKeyReturnsZeroTime(t *testing.T) {
	store, _ := newTestStore(t)

	got, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.True(t, got.IsZero())
}

func TestLoadCorruptValueFails(t *testing.T) {
	store, mr := newTestStore(t)
	mr.Set("funnel:watermark:funnel-ingest", "not-a-timestamp")

	_, err := store.Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "corrupt watermark checkpoint")
}

func TestStoresAreKeyedPerGroup(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	a := NewRedisStore(client, "group-a")
	b := NewRedisStore(client, "group-b")
	ctx := context.Background()

	wmA := time.Date(2024, 3, 7, 10, 0, 0, 0, time.UTC)
	require.NoError(t, a.Save(ctx, wmA))

	got, err := b.Load(ctx)
	require.NoError(t, err)
	assert.True(t, got.IsZero())

	got, err = a.Load(ctx)
	require.NoError(t, err)
	assert.True(t, got.Equal(wmA))
}
