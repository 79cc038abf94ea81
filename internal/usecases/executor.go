package usecases

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"mark/internal/domain/bridge"
	"mark/internal/domain/chainservice"
	"mark/internal/domain/entities"
	domainerrors "mark/internal/domain/errors"
	domainrepos "mark/internal/domain/repositories"
	"mark/pkg/logger"
)

// ErrQuotaExceeded is returned by a QuotaChecker when a CEX withdrawal would
// exceed the platform's remaining daily USD quota. Advisory: the USD
// conversion uses a fetched price, never a pricing-path value.
var ErrQuotaExceeded = errors.New("withdrawal would exceed daily quota")

// QuotaChecker is the advisory CEX daily-withdrawal-quota check the executor
// runs before submitting a swap_and_bridge operation.
type QuotaChecker interface {
	CheckWithdrawQuota(ctx context.Context, amountNative *big.Int, symbol string, decimals int) error
}

// Executor submits a Planner's recommended operations, creating the earmark
// and rebalance-operation rows that record the on-chain side effects.
type Executor struct {
	earmarks   domainrepos.EarmarkRepository
	rebalances domainrepos.RebalanceOperationRepository
	swaps      domainrepos.SwapOperationRepository
	chains     domainrepos.ChainRepository
	chainSvc   chainservice.Service
	bridges    *bridge.Registry
	quota      QuotaChecker // nil when no CEX quota checker is configured
}

// NewExecutor wires an Executor over its collaborators. quota may be nil,
// which skips the advisory daily-quota check entirely.
func NewExecutor(
	earmarks domainrepos.EarmarkRepository,
	rebalances domainrepos.RebalanceOperationRepository,
	swaps domainrepos.SwapOperationRepository,
	chains domainrepos.ChainRepository,
	chainSvc chainservice.Service,
	bridges *bridge.Registry,
	quota QuotaChecker,
) *Executor {
	return &Executor{earmarks: earmarks, rebalances: rebalances, swaps: swaps, chains: chains, chainSvc: chainSvc, bridges: bridges, quota: quota}
}

// executedOperation is the per-planned-operation bookkeeping the executor
// carries between submission and the final earmark/rebalance-operation write.
type executedOperation struct {
	planned         PlannedOperation
	receipts        map[string]entities.TxReceipt
	recipient       string
	effectiveAmount *big.Int // non-nil when the adapter capped/rounded the planned amount
	failed          bool
}

// Execute runs a plan's operations in order and records whatever succeeded.
// It is idempotent: a pre-existing active earmark for the invoice is
// returned without touching any adapter.
func (e *Executor) Execute(ctx context.Context, invoice entities.Invoice, plan *PlanResult) (*entities.Earmark, error) {
	if existing, err := e.earmarks.GetActiveForInvoice(ctx, invoice.IntentID); err != nil {
		return nil, fmt.Errorf("check active earmark: %w", err)
	} else if existing != nil {
		return existing, nil
	}

	executed, allSucceeded := e.submitAll(ctx, invoice, plan.Operations)
	if len(executed) == 0 {
		return nil, nil
	}

	status := entities.EarmarkStatusPending
	if !allSucceeded {
		status = entities.EarmarkStatusFailed
	}

	earmark := &entities.Earmark{
		InvoiceID:               invoice.IntentID,
		DesignatedPurchaseChain: plan.Destination,
		TickerHash:              invoice.TickerHash,
		MinAmount:               plan.TotalAmount18.String(),
		Status:                  status,
	}
	if err := e.earmarks.Create(ctx, earmark); err != nil {
		if errors.Is(err, domainerrors.ErrActiveEarmarkExists) {
			existing, rerr := e.earmarks.GetActiveForInvoice(ctx, invoice.IntentID)
			if rerr != nil {
				return nil, fmt.Errorf("re-read active earmark after conflict: %w", rerr)
			}
			if existing != nil && existing.Status == entities.EarmarkStatusPending {
				return existing, nil
			}
			return nil, nil
		}
		return nil, fmt.Errorf("create earmark: %w", err)
	}

	e.persistAll(ctx, earmark, executed)
	return earmark, nil
}

// ExecuteAdditional submits extra operations under an already-existing
// earmark (the minAmount-increase sub-flow) and, on at least one success,
// advances the earmark's recorded minAmount to newMinAmount18. It does not
// touch the earmark's status: a READY earmark that gains new in-flight
// operations is the event processor's concern, not the executor's.
func (e *Executor) ExecuteAdditional(ctx context.Context, invoice entities.Invoice, earmark *entities.Earmark, operations []PlannedOperation, newMinAmount18 *big.Int) error {
	executed, _ := e.submitAll(ctx, invoice, operations)
	if len(executed) == 0 {
		return nil
	}
	e.persistAll(ctx, earmark, executed)
	return e.earmarks.UpdateMinAmount(ctx, earmark.ID, newMinAmount18.String())
}

func (e *Executor) submitAll(ctx context.Context, invoice entities.Invoice, operations []PlannedOperation) ([]executedOperation, bool) {
	executed := make([]executedOperation, 0, len(operations))
	allSucceeded := true
	for _, op := range operations {
		result, recipient, effectiveAmount, err := e.executeOne(ctx, invoice, op)
		if err != nil {
			logger.Error(ctx, fmt.Sprintf("rebalance operation %s->%s failed", op.Route.Origin, op.Route.Destination), zap.Error(err))
			allSucceeded = false
			executed = append(executed, executedOperation{planned: op, receipts: result, recipient: recipient, failed: true})
			continue
		}
		executed = append(executed, executedOperation{planned: op, receipts: result, recipient: recipient, effectiveAmount: effectiveAmount})
	}
	return executed, allSucceeded
}

func (e *Executor) persistAll(ctx context.Context, earmark *entities.Earmark, executed []executedOperation) {
	for _, ex := range executed {
		if ex.failed {
			continue
		}
		amount := ex.planned.SendNative
		if ex.effectiveAmount != nil {
			amount = ex.effectiveAmount
		}
		op := &entities.RebalanceOperation{
			EarmarkID:          &earmark.ID,
			OriginChainID:      ex.planned.Route.Origin,
			DestinationChainID: ex.planned.Route.Destination,
			TickerHash:         earmark.TickerHash,
			Amount:             amount.String(),
			Slippage:           ex.planned.ObservedDbps,
			Status:             entities.RebalanceStatusPending,
			Bridge:             string(ex.planned.Bridge),
			Recipient:          ex.recipient,
			Transactions:       ex.receipts,
			OperationType:      ex.planned.OperationType,
		}
		if err := e.rebalances.Create(ctx, op); err != nil {
			// A confirmed on-chain submission whose DB write then fails is the
			// one accepted unrecoverable inconsistency: it does not roll back.
			logger.Error(ctx, fmt.Sprintf("rebalance operation for earmark %s confirmed on-chain but failed to persist", earmark.ID), zap.Error(err))
			continue
		}
		if ex.planned.Swap != nil {
			swap := &entities.SwapOperation{
				RebalanceOperationID: op.ID,
				Platform:             string(ex.planned.Bridge),
				FromAsset:            ex.planned.Swap.FromSymbol,
				ToAsset:              ex.planned.Swap.ToSymbol,
				FromAmount:           ex.planned.Swap.ExpectedFrom,
				ToAmount:             ex.planned.Swap.ExpectedTo,
				Status:               entities.SwapStatusPendingDeposit,
				Metadata:             *ex.planned.Swap,
			}
			if err := e.swaps.Create(ctx, swap); err != nil {
				logger.Error(ctx, fmt.Sprintf("rebalance operation %s confirmed on-chain but swap leg failed to persist", op.ID), zap.Error(err))
			}
		}
	}
}

func (e *Executor) executeOne(ctx context.Context, invoice entities.Invoice, op PlannedOperation) (map[string]entities.TxReceipt, string, *big.Int, error) {
	originChain, err := e.chains.GetByChainID(ctx, op.Route.Origin)
	if err != nil {
		return nil, "", nil, fmt.Errorf("resolve origin chain %s: %w", op.Route.Origin, err)
	}
	destChain, err := e.chains.GetByChainID(ctx, op.Route.Destination)
	if err != nil {
		return nil, "", nil, fmt.Errorf("resolve destination chain %s: %w", op.Route.Destination, err)
	}
	recipient := destChain.Wallet()

	adapter, err := e.bridges.Get(op.Bridge)
	if err != nil {
		return nil, recipient, nil, fmt.Errorf("resolve adapter %s: %w", op.Bridge, err)
	}

	if op.OperationType == entities.OperationTypeSwapAndBridge && e.quota != nil {
		if err := e.quota.CheckWithdrawQuota(ctx, op.SendNative, op.Route.Asset, 0); err != nil {
			return nil, recipient, nil, fmt.Errorf("withdraw quota check: %w", err)
		}
	}

	memos, err := adapter.Send(ctx, originChain.Wallet(), recipient, op.SendNative, op.Route)
	if err != nil {
		return nil, recipient, nil, fmt.Errorf("adapter send: %w", err)
	}

	receipts := map[string]entities.TxReceipt{}
	var effectiveAmount *big.Int
	for _, memo := range memos {
		tx, ok := memo.Tx.(*gethtypes.Transaction)
		if !ok {
			continue
		}
		receipt, err := e.chainSvc.SubmitAndMonitor(ctx, op.Route.Origin, tx)
		if err != nil {
			return receipts, recipient, effectiveAmount, fmt.Errorf("submit %s memo: %w", memo.Memo, err)
		}
		if memo.Memo == bridge.MemoRebalance {
			receipts[op.Route.Origin] = receipt
			if memo.EffectiveAmount != nil {
				effectiveAmount = memo.EffectiveAmount
			}
		}
	}
	return receipts, recipient, effectiveAmount, nil
}
