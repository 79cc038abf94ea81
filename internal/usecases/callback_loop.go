package usecases

import (
	"context"
	"fmt"
	"time"

	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"mark/internal/domain/bridge"
	"mark/internal/domain/chainservice"
	"mark/internal/domain/entities"
	"mark/internal/domain/money"
	domainrepos "mark/internal/domain/repositories"
	"mark/pkg/logger"
)

// CallbackLoop drives rebalance operations from PENDING through
// AWAITING_CALLBACK to COMPLETED by polling each open operation's bridge
// adapter on a ticker. Operations are processed sequentially within one
// tick, guaranteeing at most one callback submission in flight per
// operation at a time.
type CallbackLoop struct {
	rebalances domainrepos.RebalanceOperationRepository
	earmarks   domainrepos.EarmarkRepository
	chainSvc   chainservice.Service
	bridges    *bridge.Registry
	period     time.Duration
}

// NewCallbackLoop wires a CallbackLoop to run on the given tick period.
func NewCallbackLoop(
	rebalances domainrepos.RebalanceOperationRepository,
	earmarks domainrepos.EarmarkRepository,
	chainSvc chainservice.Service,
	bridges *bridge.Registry,
	period time.Duration,
) *CallbackLoop {
	return &CallbackLoop{rebalances: rebalances, earmarks: earmarks, chainSvc: chainSvc, bridges: bridges, period: period}
}

// Run blocks, ticking every c.period until ctx is cancelled.
func (c *CallbackLoop) Run(ctx context.Context) {
	ticker := time.NewTicker(c.period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Tick(ctx)
		}
	}
}

// Tick processes every open rebalance operation once, in sequence.
func (c *CallbackLoop) Tick(ctx context.Context) {
	ops, _, err := c.rebalances.GetRebalanceOperations(ctx, domainrepos.RebalanceOperationFilter{
		Statuses: entities.OpenRebalanceStatuses,
	})
	if err != nil {
		logger.Error(ctx, "callback loop: list open rebalance operations", zap.Error(err))
		return
	}

	for _, op := range ops {
		if err := c.processOne(ctx, op); err != nil {
			logger.Error(ctx, fmt.Sprintf("callback loop: operation %s", op.ID), zap.Error(err))
		}
	}
}

func (c *CallbackLoop) processOne(ctx context.Context, op *entities.RebalanceOperation) error {
	if op.Bridge == "" {
		return nil
	}
	if op.OperationType == entities.OperationTypeSwapAndBridge {
		// Owned exclusively by the swap state machine, which advances the
		// CEX leg and completes the parent operation itself.
		return nil
	}
	originReceipt := op.OriginReceipt()
	if originReceipt == nil {
		return nil
	}

	adapter, err := c.bridges.Get(entities.BridgeKind(op.Bridge))
	if err != nil {
		return fmt.Errorf("resolve adapter %s: %w", op.Bridge, err)
	}
	route := op.Route(op.TickerHash, op.TickerHash)
	amount, err := money.ParseAmount(op.Amount)
	if err != nil {
		return fmt.Errorf("parse amount: %w", err)
	}

	switch op.Status {
	case entities.RebalanceStatusPending:
		ready, err := adapter.ReadyOnDestination(ctx, amount, route, *originReceipt)
		if err != nil {
			return fmt.Errorf("ready on destination: %w", err)
		}
		if !ready {
			return nil
		}
		return c.rebalances.Update(ctx, op.ID, domainrepos.RebalanceOperationUpdate{Status: entities.RebalanceStatusAwaitingCallback})

	case entities.RebalanceStatusAwaitingCallback:
		memo, err := adapter.DestinationCallback(ctx, route, *originReceipt)
		if err != nil {
			return fmt.Errorf("destination callback: %w", err)
		}
		if memo == nil {
			return completeRebalanceOperation(ctx, c.rebalances, c.earmarks, op)
		}

		tx, ok := memo.Tx.(*gethtypes.Transaction)
		if !ok {
			return fmt.Errorf("destination callback memo has no submittable transaction")
		}
		receipt, err := c.chainSvc.SubmitAndMonitor(ctx, op.DestinationChainID, tx)
		if err != nil {
			// Leave in AWAITING_CALLBACK for retry on the next tick.
			return fmt.Errorf("submit destination callback: %w", err)
		}
		if err := c.rebalances.Update(ctx, op.ID, domainrepos.RebalanceOperationUpdate{
			Transactions: map[string]entities.TxReceipt{op.DestinationChainID: receipt},
		}); err != nil {
			return fmt.Errorf("persist destination receipt: %w", err)
		}
		return completeRebalanceOperation(ctx, c.rebalances, c.earmarks, op)
	}
	return nil
}
