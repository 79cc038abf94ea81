package repositories

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"mark/internal/domain/entities"
	domainerrors "mark/internal/domain/errors"
	domainrepos "mark/internal/domain/repositories"
)

func TestEarmarkRepo_Create_ActiveConflictReturnsKindedError(t *testing.T) {
	db := newTestDB(t)
	createEarmarkTable(t, db)
	repo := NewEarmarkRepository(db)
	ctx := context.Background()

	first := &entities.Earmark{
		InvoiceID:               "invoice-1",
		DesignatedPurchaseChain: "eip155:8453",
		TickerHash:              "0xticker",
		MinAmount:               "1000",
		Status:                  entities.EarmarkStatusPending,
	}
	require.NoError(t, repo.Create(ctx, first))

	second := &entities.Earmark{
		InvoiceID:               "invoice-1",
		DesignatedPurchaseChain: "eip155:10",
		TickerHash:              "0xticker",
		MinAmount:               "2000",
		Status:                  entities.EarmarkStatusInitiating,
	}
	err := repo.Create(ctx, second)
	require.Error(t, err)
	require.True(t, errors.Is(err, domainerrors.ErrActiveEarmarkExists))
}

func TestEarmarkRepo_GetActiveForInvoice(t *testing.T) {
	db := newTestDB(t)
	createEarmarkTable(t, db)
	repo := NewEarmarkRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &entities.Earmark{
		InvoiceID: "invoice-2", DesignatedPurchaseChain: "eip155:1",
		TickerHash: "0xabc", MinAmount: "100", Status: entities.EarmarkStatusReady,
	}))

	got, err := repo.GetActiveForInvoice(ctx, "invoice-2")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.True(t, got.IsActive())

	none, err := repo.GetActiveForInvoice(ctx, "no-such-invoice")
	require.NoError(t, err)
	require.Nil(t, none)
}

func TestEarmarkRepo_UpdateStatus_AllowsReplacementAfterTerminal(t *testing.T) {
	db := newTestDB(t)
	createEarmarkTable(t, db)
	repo := NewEarmarkRepository(db)
	ctx := context.Background()

	earmark := &entities.Earmark{
		InvoiceID: "invoice-3", DesignatedPurchaseChain: "eip155:1",
		TickerHash: "0xabc", MinAmount: "100", Status: entities.EarmarkStatusPending,
	}
	require.NoError(t, repo.Create(ctx, earmark))
	require.NoError(t, repo.UpdateStatus(ctx, earmark.ID, entities.EarmarkStatusFailed))

	replacement := &entities.Earmark{
		InvoiceID: "invoice-3", DesignatedPurchaseChain: "eip155:10",
		TickerHash: "0xabc", MinAmount: "200", Status: entities.EarmarkStatusInitiating,
	}
	require.NoError(t, repo.Create(ctx, replacement))
}

func TestEarmarkRepo_GetEarmarks_FiltersByStatus(t *testing.T) {
	db := newTestDB(t)
	createEarmarkTable(t, db)
	repo := NewEarmarkRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &entities.Earmark{
		InvoiceID: "invoice-4", DesignatedPurchaseChain: "eip155:1", TickerHash: "0xabc", MinAmount: "1", Status: entities.EarmarkStatusCompleted,
	}))
	require.NoError(t, repo.Create(ctx, &entities.Earmark{
		InvoiceID: "invoice-5", DesignatedPurchaseChain: "eip155:1", TickerHash: "0xabc", MinAmount: "1", Status: entities.EarmarkStatusPending,
	}))

	pending, err := repo.GetEarmarks(ctx, domainrepos.EarmarkFilter{Statuses: []entities.EarmarkStatus{entities.EarmarkStatusPending}})
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, "invoice-5", pending[0].InvoiceID)
}
