package usecases

import (
	"context"
	"fmt"
	"time"

	"github.com/volatiletech/null/v8"
	"go.uber.org/zap"

	"mark/internal/domain/bridge"
	"mark/internal/domain/entities"
	"mark/internal/domain/money"
	domainrepos "mark/internal/domain/repositories"
	"mark/pkg/logger"
)

// SwapStateMachine drives a CEX swap leg through pending_deposit ->
// deposit_confirmed -> processing -> completed/failed on a ticker, one swap
// operation at a time per tick pass. It never touches the parent
// RebalanceOperation's PENDING/AWAITING_CALLBACK transitions for a
// same-asset bridge leg; CallbackLoop and this machine each own a disjoint
// slice of RebalanceOperation.OperationType.
type SwapStateMachine struct {
	swaps      domainrepos.SwapOperationRepository
	rebalances domainrepos.RebalanceOperationRepository
	earmarks   domainrepos.EarmarkRepository
	bridges    *bridge.Registry
	period     time.Duration
}

// NewSwapStateMachine wires a SwapStateMachine running on the given tick period.
func NewSwapStateMachine(
	swaps domainrepos.SwapOperationRepository,
	rebalances domainrepos.RebalanceOperationRepository,
	earmarks domainrepos.EarmarkRepository,
	bridges *bridge.Registry,
	period time.Duration,
) *SwapStateMachine {
	return &SwapStateMachine{swaps: swaps, rebalances: rebalances, earmarks: earmarks, bridges: bridges, period: period}
}

// Run blocks, ticking every s.period until ctx is cancelled.
func (s *SwapStateMachine) Run(ctx context.Context) {
	ticker := time.NewTicker(s.period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick advances every open swap operation once, in sequence, so at most one
// CEX call is in flight per operation at a time.
func (s *SwapStateMachine) Tick(ctx context.Context) {
	swaps, err := s.swaps.GetOpen(ctx)
	if err != nil {
		logger.Error(ctx, "swap state machine: list open swap operations", zap.Error(err))
		return
	}

	for _, swap := range swaps {
		if err := s.processOne(ctx, swap); err != nil {
			logger.Error(ctx, fmt.Sprintf("swap state machine: operation %s", swap.ID), zap.Error(err))
		}
	}
}

func (s *SwapStateMachine) processOne(ctx context.Context, swap *entities.SwapOperation) error {
	parent, err := s.rebalances.GetByID(ctx, swap.RebalanceOperationID)
	if err != nil {
		return fmt.Errorf("resolve parent rebalance operation %s: %w", swap.RebalanceOperationID, err)
	}

	adapter, err := s.bridges.Get(entities.BridgeKind(parent.Bridge))
	if err != nil {
		return fmt.Errorf("resolve adapter %s: %w", parent.Bridge, err)
	}
	swapAdapter, ok := bridge.AsSwapCapable(adapter)
	if !ok {
		return fmt.Errorf("adapter %s lost swap capability", parent.Bridge)
	}

	switch swap.Status {
	case entities.SwapStatusPendingDeposit:
		return s.advanceDepositConfirmed(ctx, swap, parent)
	case entities.SwapStatusDepositConfirmed:
		return s.advanceProcessing(ctx, swap, swapAdapter)
	case entities.SwapStatusProcessing:
		return s.advanceFromProcessing(ctx, swap, parent, swapAdapter)
	case entities.SwapStatusRecovering:
		return s.advanceRecovering(ctx, swap)
	}
	return nil
}

// advanceDepositConfirmed reuses the callback loop's readiness idiom: the
// on-chain deposit into the exchange is confirmed once the parent
// operation's origin receipt is present (set by the executor at submission
// time; the callback loop skips swap_and_bridge operations).
func (s *SwapStateMachine) advanceDepositConfirmed(ctx context.Context, swap *entities.SwapOperation, parent *entities.RebalanceOperation) error {
	if parent.OriginReceipt() == nil {
		return nil
	}
	swap.Status = entities.SwapStatusDepositConfirmed
	return s.swaps.Update(ctx, swap)
}

// advanceProcessing re-quotes the swap leg fresh, rejects it into recovery
// if the now-observed total slippage would exceed the budget the planner
// accepted, and otherwise commits to the exchange.
func (s *SwapStateMachine) advanceProcessing(ctx context.Context, swap *entities.SwapOperation, swapAdapter bridge.SwapCapable) error {
	fromAmount, err := money.ParseAmount(swap.FromAmount)
	if err != nil {
		return fmt.Errorf("parse from amount: %w", err)
	}

	quote, err := swapAdapter.SwapQuote(ctx, swap.FromAsset, swap.ToAsset, fromAmount)
	if err != nil {
		return fmt.Errorf("refresh swap quote: %w", err)
	}
	actualSwapDbps := money.SlippageDbps(fromAmount, quote.ToAmount)
	estimatedTotal := actualSwapDbps + swap.Metadata.ObservedBridgeDbps

	if estimatedTotal > swap.Metadata.TotalBudgetDbps {
		logger.Error(ctx, fmt.Sprintf("swap %s: total slippage would exceed budget", swap.ID),
			zap.Uint32("estimatedDbps", estimatedTotal), zap.Uint32("budgetDbps", swap.Metadata.TotalBudgetDbps))
		swap.Status = entities.SwapStatusRecovering
		return s.swaps.Update(ctx, swap)
	}

	execution, err := swapAdapter.ExecuteSwap(ctx, quote)
	if err != nil {
		return fmt.Errorf("execute swap: %w", err)
	}

	swap.OrderID = null.StringFrom(execution.OrderID)
	swap.QuoteID = null.StringFrom(quote.QuoteID)
	swap.ActualRate = null.StringFrom(quote.Rate)
	swap.ToAmount = quote.ToAmount.String()
	swap.Status = entities.SwapStatusProcessing
	if execution.Status == entities.SwapStatusCompleted || execution.Status == entities.SwapStatusFailed {
		swap.Status = execution.Status
	}
	return s.swaps.Update(ctx, swap)
}

// advanceFromProcessing polls the exchange for a previously committed swap
// and, on success, advances the parent rebalance operation to COMPLETED:
// for a CEX leg, a completed withdrawal to the destination wallet is the
// rebalance's final step, so there is no separate on-chain destination
// callback to invoke.
func (s *SwapStateMachine) advanceFromProcessing(ctx context.Context, swap *entities.SwapOperation, parent *entities.RebalanceOperation, swapAdapter bridge.SwapCapable) error {
	if !swap.OrderID.Valid {
		return fmt.Errorf("swap %s in processing without an order id", swap.ID)
	}

	status, err := swapAdapter.SwapStatus(ctx, swap.OrderID.String)
	if err != nil {
		return fmt.Errorf("poll swap status: %w", err)
	}

	switch status {
	case entities.SwapStatusCompleted:
		swap.Status = entities.SwapStatusCompleted
		if err := s.swaps.Update(ctx, swap); err != nil {
			return fmt.Errorf("mark swap completed: %w", err)
		}
		return completeRebalanceOperation(ctx, s.rebalances, s.earmarks, parent)

	case entities.SwapStatusFailed:
		swap.Status = entities.SwapStatusFailed
		if err := s.swaps.Update(ctx, swap); err != nil {
			return fmt.Errorf("mark swap failed: %w", err)
		}
		return s.rebalances.Update(ctx, parent.ID, domainrepos.RebalanceOperationUpdate{Status: entities.RebalanceStatusFailed})

	default:
		return nil // still processing on the exchange side
	}
}

// advanceRecovering is the terminal step for a swap rejected post-quote: the
// deposited asset sits on the exchange until an operator-initiated
// withdrawal returns it to the origin chain, which this machine does not
// automate. It marks the swap and its parent failed so they stop polling.
func (s *SwapStateMachine) advanceRecovering(ctx context.Context, swap *entities.SwapOperation) error {
	swap.Status = entities.SwapStatusFailed
	if err := s.swaps.Update(ctx, swap); err != nil {
		return fmt.Errorf("mark swap failed after recovery: %w", err)
	}
	return s.rebalances.Update(ctx, swap.RebalanceOperationID, domainrepos.RebalanceOperationUpdate{Status: entities.RebalanceStatusFailed})
}
