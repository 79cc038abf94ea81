package cache

import (
	"context"

	goredis "github.com/redis/go-redis/v9"
)

// PauseFlags reads and writes the two process-wide pause switches. The event
// processor reads purchases:paused and defers new purchases while it is set.
// No component of the engine reads rebalance:paused, so setting it does not
// stop new rebalance planning. Neither flag affects in-flight callbacks.
type PauseFlags struct {
	client *goredis.Client
}

// NewPauseFlags wraps an existing go-redis client.
func NewPauseFlags(client *goredis.Client) *PauseFlags {
	return &PauseFlags{client: client}
}

// PurchasePaused reports whether purchases:paused is set.
func (f *PauseFlags) PurchasePaused(ctx context.Context) (bool, error) {
	return f.flagSet(ctx, purchasesPausedKey)
}

// RebalancePaused reports whether rebalance:paused is set.
func (f *PauseFlags) RebalancePaused(ctx context.Context) (bool, error) {
	return f.flagSet(ctx, rebalancePausedKey)
}

// SetPurchasePaused flips purchases:paused.
func (f *PauseFlags) SetPurchasePaused(ctx context.Context, paused bool) error {
	return f.setFlag(ctx, purchasesPausedKey, paused)
}

// SetRebalancePaused flips rebalance:paused.
func (f *PauseFlags) SetRebalancePaused(ctx context.Context, paused bool) error {
	return f.setFlag(ctx, rebalancePausedKey, paused)
}

func (f *PauseFlags) flagSet(ctx context.Context, key string) (bool, error) {
	val, err := f.client.Get(ctx, key).Result()
	if err == goredis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return val == "1", nil
}

func (f *PauseFlags) setFlag(ctx context.Context, key string, paused bool) error {
	val := "0"
	if paused {
		val = "1"
	}
	return f.client.Set(ctx, key, val, 0).Err()
}
