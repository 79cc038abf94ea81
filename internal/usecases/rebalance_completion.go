package usecases

import (
	"fmt"

	"github.com/google/uuid"

	"context"

	"mark/internal/domain/entities"
	domainrepos "mark/internal/domain/repositories"
)

// completeRebalanceOperation marks op COMPLETED and, once every rebalance
// operation under its earmark has also reached COMPLETED, bubbles the
// earmark PENDING -> READY. Shared by the callback loop and the swap
// state machine, the two components that can finish an operation's last leg.
func completeRebalanceOperation(
	ctx context.Context,
	rebalances domainrepos.RebalanceOperationRepository,
	earmarks domainrepos.EarmarkRepository,
	op *entities.RebalanceOperation,
) error {
	if err := rebalances.Update(ctx, op.ID, domainrepos.RebalanceOperationUpdate{Status: entities.RebalanceStatusCompleted}); err != nil {
		return fmt.Errorf("mark completed: %w", err)
	}
	if op.EarmarkID == nil {
		return nil
	}
	return bubbleEarmark(ctx, rebalances, earmarks, *op.EarmarkID)
}

func bubbleEarmark(
	ctx context.Context,
	rebalances domainrepos.RebalanceOperationRepository,
	earmarks domainrepos.EarmarkRepository,
	earmarkID uuid.UUID,
) error {
	earmark, err := earmarks.GetByID(ctx, earmarkID)
	if err != nil {
		return fmt.Errorf("resolve earmark %s: %w", earmarkID, err)
	}
	if earmark.Status != entities.EarmarkStatusPending {
		return nil
	}

	ops, err := rebalances.GetRebalanceOperationsByEarmark(ctx, earmarkID)
	if err != nil {
		return fmt.Errorf("list rebalance operations for earmark %s: %w", earmarkID, err)
	}
	for _, op := range ops {
		if op.Status != entities.RebalanceStatusCompleted {
			return nil
		}
	}
	return earmarks.UpdateStatus(ctx, earmarkID, entities.EarmarkStatusReady)
}
