package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"mark/internal/domain/entities"
)

func newTestRedis(t *testing.T) *goredis.Client {
	t.Helper()
	srv, err := miniredis.Run()
	if err != nil {
		t.Skipf("skip: miniredis unavailable in this environment: %v", err)
	}
	t.Cleanup(srv.Close)
	return goredis.NewClient(&goredis.Options{Addr: srv.Addr()})
}

func TestPurchaseCache_PutGetRemove(t *testing.T) {
	client := newTestRedis(t)
	cache := NewPurchaseCache(client)
	ctx := context.Background()

	record := entities.PurchaseRecord{
		InvoiceID:       "inv-1",
		PurchaseIntent:  "intent-1",
		TransactionHash: "0xhash",
		TransactionType: "purchase",
		HubEnqueuedAt:   time.Now().Add(-time.Minute),
		CachedAt:        time.Now(),
	}
	require.NoError(t, cache.Put(ctx, record))

	got, ok, err := cache.Get(ctx, "inv-1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, record.TransactionHash, got.TransactionHash)

	require.NoError(t, cache.Remove(ctx, "inv-1"))
	_, ok, err = cache.Get(ctx, "inv-1")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestPurchaseCache_Get_MissingReturnsNotOK(t *testing.T) {
	client := newTestRedis(t)
	cache := NewPurchaseCache(client)

	_, ok, err := cache.Get(context.Background(), "unknown")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestPauseFlags_DefaultsFalse(t *testing.T) {
	client := newTestRedis(t)
	flags := NewPauseFlags(client)
	ctx := context.Background()

	paused, err := flags.PurchasePaused(ctx)
	require.NoError(t, err)
	require.False(t, paused)

	require.NoError(t, flags.SetPurchasePaused(ctx, true))
	paused, err = flags.PurchasePaused(ctx)
	require.NoError(t, err)
	require.True(t, paused)

	rebalancePaused, err := flags.RebalancePaused(ctx)
	require.NoError(t, err)
	require.False(t, rebalancePaused)
}
