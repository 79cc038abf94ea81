package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"mark/internal/domain/entities"
	domainrepos "mark/internal/domain/repositories"
)

func TestRebalanceOperationRepo_CreateAndGet(t *testing.T) {
	db := newTestDB(t)
	createRebalanceOperationTable(t, db)
	repo := NewRebalanceOperationRepository(db)
	ctx := context.Background()

	op := &entities.RebalanceOperation{
		OriginChainID:      "eip155:1",
		DestinationChainID: "eip155:8453",
		TickerHash:         "0xticker",
		Amount:             "1000000",
		Slippage:           50,
		Status:             entities.RebalanceStatusPending,
		Bridge:             string(entities.BridgeKindAcross),
		Recipient:          "0xrecipient",
		OperationType:      entities.OperationTypeBridge,
		Transactions: map[string]entities.TxReceipt{
			"eip155:1": {TxHash: "0xorigin", BlockNumber: 100, Confirmations: 3},
		},
	}
	require.NoError(t, repo.Create(ctx, op))

	got, err := repo.GetByID(ctx, op.ID)
	require.NoError(t, err)
	require.Equal(t, entities.RebalanceStatusPending, got.Status)
	require.Equal(t, "0xorigin", got.OriginReceipt().TxHash)
}

func TestRebalanceOperationRepo_Update_MergesTransactions(t *testing.T) {
	db := newTestDB(t)
	createRebalanceOperationTable(t, db)
	repo := NewRebalanceOperationRepository(db)
	ctx := context.Background()

	op := &entities.RebalanceOperation{
		OriginChainID:      "eip155:1",
		DestinationChainID: "eip155:8453",
		TickerHash:         "0xticker",
		Amount:             "1000000",
		Status:             entities.RebalanceStatusAwaitingCallback,
		Bridge:             string(entities.BridgeKindAcross),
		Recipient:          "0xrecipient",
		OperationType:      entities.OperationTypeBridge,
		Transactions: map[string]entities.TxReceipt{
			"eip155:1": {TxHash: "0xorigin", BlockNumber: 100},
		},
	}
	require.NoError(t, repo.Create(ctx, op))

	err := repo.Update(ctx, op.ID, domainrepos.RebalanceOperationUpdate{
		Status: entities.RebalanceStatusCompleted,
		Transactions: map[string]entities.TxReceipt{
			"eip155:8453": {TxHash: "0xdest", BlockNumber: 200},
		},
	})
	require.NoError(t, err)

	got, err := repo.GetByID(ctx, op.ID)
	require.NoError(t, err)
	require.Equal(t, entities.RebalanceStatusCompleted, got.Status)
	require.Equal(t, "0xorigin", got.Transactions["eip155:1"].TxHash)
	require.Equal(t, "0xdest", got.Transactions["eip155:8453"].TxHash)
}

func TestRebalanceOperationRepo_ExpireStale(t *testing.T) {
	db := newTestDB(t)
	createRebalanceOperationTable(t, db)
	repo := NewRebalanceOperationRepository(db)
	ctx := context.Background()

	op := &entities.RebalanceOperation{
		OriginChainID: "eip155:1", DestinationChainID: "eip155:10",
		TickerHash: "0xabc", Amount: "1", Status: entities.RebalanceStatusAwaitingCallback,
		Bridge: "across", Recipient: "0xr", OperationType: entities.OperationTypeBridge,
	}
	require.NoError(t, repo.Create(ctx, op))
	mustExec(t, db, "UPDATE rebalance_operations SET created_at = ? WHERE id = ?",
		time.Now().Add(-48*time.Hour), op.ID.String())

	count, err := repo.ExpireStale(ctx, 24*time.Hour)
	require.NoError(t, err)
	require.Equal(t, int64(1), count)

	got, err := repo.GetByID(ctx, op.ID)
	require.NoError(t, err)
	require.Equal(t, entities.RebalanceStatusExpired, got.Status)
}

func TestRebalanceOperationRepo_GetRebalanceOperationsByEarmark(t *testing.T) {
	db := newTestDB(t)
	createRebalanceOperationTable(t, db)
	repo := NewRebalanceOperationRepository(db)
	ctx := context.Background()

	earmarkID := mustNewUUID(t)
	op := &entities.RebalanceOperation{
		EarmarkID: &earmarkID, OriginChainID: "eip155:1", DestinationChainID: "eip155:10",
		TickerHash: "0xabc", Amount: "1", Status: entities.RebalanceStatusPending,
		Bridge: "across", Recipient: "0xr", OperationType: entities.OperationTypeBridge,
	}
	require.NoError(t, repo.Create(ctx, op))

	items, err := repo.GetRebalanceOperationsByEarmark(ctx, earmarkID)
	require.NoError(t, err)
	require.Len(t, items, 1)
}
