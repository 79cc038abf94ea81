package usecases

import (
	"context"
	"time"

	"go.uber.org/zap"

	domainrepos "mark/internal/domain/repositories"
	"mark/pkg/logger"
)

// DefaultExpiryAge is how long a rebalance operation may sit in PENDING or
// AWAITING_CALLBACK before the expiry ticker flips it to EXPIRED.
const DefaultExpiryAge = 24 * time.Hour

// ExpiryTicker periodically expires stale rebalance operations.
type ExpiryTicker struct {
	rebalances domainrepos.RebalanceOperationRepository
	period     time.Duration
	maxAge     time.Duration
}

// NewExpiryTicker wires an ExpiryTicker running every period, expiring
// operations older than maxAge.
func NewExpiryTicker(rebalances domainrepos.RebalanceOperationRepository, period, maxAge time.Duration) *ExpiryTicker {
	return &ExpiryTicker{rebalances: rebalances, period: period, maxAge: maxAge}
}

// Run blocks, ticking every e.period until ctx is cancelled.
func (e *ExpiryTicker) Run(ctx context.Context) {
	ticker := time.NewTicker(e.period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.Tick(ctx)
		}
	}
}

// Tick expires every stale rebalance operation once.
func (e *ExpiryTicker) Tick(ctx context.Context) {
	n, err := e.rebalances.ExpireStale(ctx, e.maxAge)
	if err != nil {
		logger.Error(ctx, "expiry ticker: expire stale rebalance operations", zap.Error(err))
		return
	}
	if n > 0 {
		logger.Info(ctx, "expiry ticker: expired stale rebalance operations", zap.Int64("count", n))
	}
}
