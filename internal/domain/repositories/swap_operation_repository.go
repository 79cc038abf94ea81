package repositories

import (
	"context"

	"github.com/google/uuid"
	"mark/internal/domain/entities"
)

// SwapOperationRepository persists the CEX swap sub-state-machine's child
// record of a swap_and_bridge RebalanceOperation.
type SwapOperationRepository interface {
	Create(ctx context.Context, swap *entities.SwapOperation) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.SwapOperation, error)
	GetByRebalanceOperation(ctx context.Context, rebalanceOperationID uuid.UUID) (*entities.SwapOperation, error)
	// GetOpen returns swap operations not yet in a terminal state, used by
	// the swap state machine ticker.
	GetOpen(ctx context.Context) ([]*entities.SwapOperation, error)
	Update(ctx context.Context, swap *entities.SwapOperation) error
}
