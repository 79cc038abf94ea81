package repositories

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"
	"mark/internal/domain/entities"
)

func TestSwapOperationRepo_CreateAndGetByRebalanceOperation(t *testing.T) {
	db := newTestDB(t)
	createSwapOperationTable(t, db)
	repo := NewSwapOperationRepository(db)
	ctx := context.Background()

	rebalanceID := mustNewUUID(t)
	swap := &entities.SwapOperation{
		RebalanceOperationID: rebalanceID,
		Platform:             "binance",
		FromAsset:            "USDT",
		ToAsset:               "USDC",
		FromAmount:            "1000000",
		ToAmount:              "999000",
		ExpectedRate:          "0.999",
		Status:                entities.SwapStatusPendingDeposit,
		Metadata: entities.SwapMetadata{
			FromSymbol: "USDT", ToSymbol: "USDC", TotalBudgetDbps: 100,
		},
	}
	require.NoError(t, repo.Create(ctx, swap))

	got, err := repo.GetByRebalanceOperation(ctx, rebalanceID)
	require.NoError(t, err)
	require.Equal(t, "binance", got.Platform)
	require.Equal(t, uint32(100), got.Metadata.TotalBudgetDbps)
}

func TestSwapOperationRepo_Update_AdvancesState(t *testing.T) {
	db := newTestDB(t)
	createSwapOperationTable(t, db)
	repo := NewSwapOperationRepository(db)
	ctx := context.Background()

	swap := &entities.SwapOperation{
		RebalanceOperationID: mustNewUUID(t),
		Platform:             "coinbase",
		FromAsset:            "USDC",
		ToAsset:               "USDT",
		FromAmount:            "500",
		ToAmount:              "499",
		ExpectedRate:          "0.998",
		Status:                entities.SwapStatusPendingDeposit,
	}
	require.NoError(t, repo.Create(ctx, swap))

	swap.Status = entities.SwapStatusCompleted
	swap.ActualRate = null.StringFrom("0.997")
	swap.OrderID = null.StringFrom("order-123")
	require.NoError(t, repo.Update(ctx, swap))

	got, err := repo.GetByID(ctx, swap.ID)
	require.NoError(t, err)
	require.True(t, got.IsTerminal())
	require.Equal(t, "0.997", got.ActualRate.String)
	require.Equal(t, "order-123", got.OrderID.String)
}

func TestSwapOperationRepo_GetOpen_ExcludesTerminal(t *testing.T) {
	db := newTestDB(t)
	createSwapOperationTable(t, db)
	repo := NewSwapOperationRepository(db)
	ctx := context.Background()

	open := &entities.SwapOperation{
		RebalanceOperationID: mustNewUUID(t), Platform: "kraken",
		FromAsset: "USDC", ToAsset: "USDT", FromAmount: "1", ToAmount: "1",
		ExpectedRate: "1", Status: entities.SwapStatusProcessing,
	}
	done := &entities.SwapOperation{
		RebalanceOperationID: mustNewUUID(t), Platform: "kraken",
		FromAsset: "USDC", ToAsset: "USDT", FromAmount: "1", ToAmount: "1",
		ExpectedRate: "1", Status: entities.SwapStatusCompleted,
	}
	require.NoError(t, repo.Create(ctx, open))
	require.NoError(t, repo.Create(ctx, done))

	items, err := repo.GetOpen(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, open.ID, items[0].ID)
}
