// Package cache holds the ephemeral Redis-backed state the engine keeps
// alongside the database: the purchase-record hash and the two process-wide
// pause flags.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"mark/internal/domain/entities"
)

const (
	purchasesHashKey = "purchases:data"
	purchaseTTL      = 24 * time.Hour

	purchasesPausedKey = "purchases:paused"
	rebalancePausedKey = "rebalance:paused"
)

// PurchaseCache stores PurchaseRecord entries in the purchases:data hash,
// keyed by invoiceId. Entries are best-effort TTL'd via a parallel string
// key since Redis hash fields have no independent expiry.
type PurchaseCache struct {
	client *goredis.Client
}

// NewPurchaseCache wraps an existing go-redis client.
func NewPurchaseCache(client *goredis.Client) *PurchaseCache {
	return &PurchaseCache{client: client}
}

// Put stashes record under invoiceId, overwriting any prior entry.
func (c *PurchaseCache) Put(ctx context.Context, record entities.PurchaseRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal purchase record: %w", err)
	}
	if err := c.client.HSet(ctx, purchasesHashKey, record.InvoiceID, data).Err(); err != nil {
		return err
	}
	return c.client.Set(ctx, ttlKey(record.InvoiceID), "1", purchaseTTL).Err()
}

// Get returns the cached record for invoiceId, or ok=false if absent or
// expired (expiry is enforced lazily against the parallel TTL key).
func (c *PurchaseCache) Get(ctx context.Context, invoiceID string) (entities.PurchaseRecord, bool, error) {
	expired, err := c.expired(ctx, invoiceID)
	if err != nil {
		return entities.PurchaseRecord{}, false, err
	}
	if expired {
		_ = c.Remove(ctx, invoiceID)
		return entities.PurchaseRecord{}, false, nil
	}

	data, err := c.client.HGet(ctx, purchasesHashKey, invoiceID).Result()
	if err == goredis.Nil {
		return entities.PurchaseRecord{}, false, nil
	}
	if err != nil {
		return entities.PurchaseRecord{}, false, err
	}

	var record entities.PurchaseRecord
	if err := json.Unmarshal([]byte(data), &record); err != nil {
		return entities.PurchaseRecord{}, false, fmt.Errorf("unmarshal purchase record: %w", err)
	}
	return record, true, nil
}

// Remove deletes the cached record for invoiceId, used after settlement
// clears it.
func (c *PurchaseCache) Remove(ctx context.Context, invoiceID string) error {
	if err := c.client.HDel(ctx, purchasesHashKey, invoiceID).Err(); err != nil {
		return err
	}
	return c.client.Del(ctx, ttlKey(invoiceID)).Err()
}

func (c *PurchaseCache) expired(ctx context.Context, invoiceID string) (bool, error) {
	exists, err := c.client.Exists(ctx, ttlKey(invoiceID)).Result()
	if err != nil {
		return false, err
	}
	return exists == 0, nil
}

func ttlKey(invoiceID string) string {
	return "purchases:ttl:" + invoiceID
}
