package usecases

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"mark/internal/domain/bridge"
	"mark/internal/domain/entities"
)

func newSwapStateMachineFixture() (*SwapStateMachine, *fakeRebalanceRepo, *fakeEarmarkRepo, *fakeSwapRepo, *bridge.Registry) {
	rebalances := newFakeRebalanceRepo()
	earmarks := newFakeEarmarkRepo()
	swaps := newFakeSwapRepo()
	registry := bridge.NewRegistry()
	machine := NewSwapStateMachine(swaps, rebalances, earmarks, registry, time.Second)
	return machine, rebalances, earmarks, swaps, registry
}

func sampleSwapParent(t *testing.T, rebalances *fakeRebalanceRepo, earmarkID *uuid.UUID) *entities.RebalanceOperation {
	op := &entities.RebalanceOperation{
		ID:                 uuid.New(),
		EarmarkID:          earmarkID,
		OriginChainID:      "1",
		DestinationChainID: "10",
		TickerHash:         "0xusdc",
		Amount:             "5000000",
		Status:             entities.RebalanceStatusPending,
		Bridge:             string(entities.BridgeKindAcross),
		OperationType:      entities.OperationTypeSwapAndBridge,
		Transactions:       map[string]entities.TxReceipt{"1": {TxHash: "0xorigin"}},
	}
	require.NoError(t, rebalances.Create(context.Background(), op))
	return op
}

func TestSwapStateMachine_PendingDepositAdvancesOnOriginReceipt(t *testing.T) {
	machine, rebalances, _, swaps, registry := newSwapStateMachineFixture()
	registry.Register(&fakeAdapter{kind: entities.BridgeKindAcross, supportsSwap: true})

	parent := sampleSwapParent(t, rebalances, nil)
	swap := &entities.SwapOperation{
		ID:                   uuid.New(),
		RebalanceOperationID: parent.ID,
		FromAsset:            "USDT",
		ToAsset:              "USDC",
		FromAmount:           "5000000",
		Status:               entities.SwapStatusPendingDeposit,
		Metadata:             entities.SwapMetadata{TotalBudgetDbps: 100},
	}
	require.NoError(t, swaps.Create(context.Background(), swap))

	machine.Tick(context.Background())

	updated, err := swaps.GetByID(context.Background(), swap.ID)
	require.NoError(t, err)
	require.Equal(t, entities.SwapStatusDepositConfirmed, updated.Status)
}

func TestSwapStateMachine_DepositConfirmedExecutesSwapWithinBudget(t *testing.T) {
	machine, rebalances, _, swaps, registry := newSwapStateMachineFixture()
	registry.Register(&fakeAdapter{
		kind:         entities.BridgeKindAcross,
		supportsSwap: true,
		swapQuote:    bridge.SwapQuote{QuoteID: "q1", Rate: "0.9998", ToAmount: big.NewInt(4_999_000)},
		swapExec:     bridge.SwapExecution{OrderID: "ord-1", Status: entities.SwapStatusProcessing},
	})

	parent := sampleSwapParent(t, rebalances, nil)
	swap := &entities.SwapOperation{
		ID:                   uuid.New(),
		RebalanceOperationID: parent.ID,
		FromAsset:            "USDT",
		ToAsset:              "USDC",
		FromAmount:           "5000000",
		Status:               entities.SwapStatusDepositConfirmed,
		Metadata:             entities.SwapMetadata{ObservedBridgeDbps: 1000, TotalBudgetDbps: 100000},
	}
	require.NoError(t, swaps.Create(context.Background(), swap))

	machine.Tick(context.Background())

	updated, err := swaps.GetByID(context.Background(), swap.ID)
	require.NoError(t, err)
	require.Equal(t, entities.SwapStatusProcessing, updated.Status)
	require.Equal(t, "ord-1", updated.OrderID.String)
}

func TestSwapStateMachine_DepositConfirmedOverBudgetGoesToRecoveringThenFailed(t *testing.T) {
	machine, rebalances, _, swaps, registry := newSwapStateMachineFixture()
	registry.Register(&fakeAdapter{
		kind:         entities.BridgeKindAcross,
		supportsSwap: true,
		swapQuote:    bridge.SwapQuote{QuoteID: "q1", Rate: "0.5", ToAmount: big.NewInt(2_500_000)},
	})

	parent := sampleSwapParent(t, rebalances, nil)
	swap := &entities.SwapOperation{
		ID:                   uuid.New(),
		RebalanceOperationID: parent.ID,
		FromAsset:            "USDT",
		ToAsset:              "USDC",
		FromAmount:           "5000000",
		Status:               entities.SwapStatusDepositConfirmed,
		Metadata:             entities.SwapMetadata{ObservedBridgeDbps: 10, TotalBudgetDbps: 100},
	}
	require.NoError(t, swaps.Create(context.Background(), swap))

	machine.Tick(context.Background())
	afterFirst, err := swaps.GetByID(context.Background(), swap.ID)
	require.NoError(t, err)
	require.Equal(t, entities.SwapStatusRecovering, afterFirst.Status)

	machine.Tick(context.Background())
	afterSecond, err := swaps.GetByID(context.Background(), swap.ID)
	require.NoError(t, err)
	require.Equal(t, entities.SwapStatusFailed, afterSecond.Status)

	updatedParent, err := rebalances.GetByID(context.Background(), parent.ID)
	require.NoError(t, err)
	require.Equal(t, entities.RebalanceStatusFailed, updatedParent.Status)
}

func TestSwapStateMachine_ProcessingCompletesAndBubblesEarmark(t *testing.T) {
	machine, rebalances, earmarks, swaps, registry := newSwapStateMachineFixture()
	registry.Register(&fakeAdapter{
		kind:         entities.BridgeKindAcross,
		supportsSwap: true,
		swapStatus:   entities.SwapStatusCompleted,
	})

	earmark := &entities.Earmark{ID: uuid.New(), InvoiceID: "inv-1", Status: entities.EarmarkStatusPending}
	earmarks.byID[earmark.ID] = earmark

	parent := sampleSwapParent(t, rebalances, &earmark.ID)
	swap := &entities.SwapOperation{
		ID:                   uuid.New(),
		RebalanceOperationID: parent.ID,
		FromAsset:            "USDT",
		ToAsset:              "USDC",
		FromAmount:           "5000000",
		Status:               entities.SwapStatusProcessing,
		OrderID:              null.StringFrom("ord-1"),
		Metadata:             entities.SwapMetadata{ObservedBridgeDbps: 10, TotalBudgetDbps: 5000},
	}
	require.NoError(t, swaps.Create(context.Background(), swap))

	machine.Tick(context.Background())

	updatedSwap, err := swaps.GetByID(context.Background(), swap.ID)
	require.NoError(t, err)
	require.Equal(t, entities.SwapStatusCompleted, updatedSwap.Status)

	updatedParent, err := rebalances.GetByID(context.Background(), parent.ID)
	require.NoError(t, err)
	require.Equal(t, entities.RebalanceStatusCompleted, updatedParent.Status)

	updatedEarmark, err := earmarks.GetByID(context.Background(), earmark.ID)
	require.NoError(t, err)
	require.Equal(t, entities.EarmarkStatusReady, updatedEarmark.Status)
}
