package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"mark/internal/domain/entities"
)

// RebalanceOperationFilter narrows getRebalanceOperations reads. Page/Limit
// follow utils.PaginationParams conventions: Limit 0 means no limit.
type RebalanceOperationFilter struct {
	Statuses           []entities.RebalanceOperationStatus
	DestinationChainID string
	TickerHash         string
	Page               int
	Limit              int
}

// RebalanceOperationUpdate carries the merge-write the callback loop and
// executor apply: Status replaces the row's status when non-empty;
// Transactions is merged key-by-key into the existing map rather than
// replacing it wholesale, so a destination receipt never clobbers the
// already-persisted origin receipt.
type RebalanceOperationUpdate struct {
	Status       entities.RebalanceOperationStatus
	Transactions map[string]entities.TxReceipt
}

// RebalanceOperationRepository persists in-flight and settled fund
// movements. A row is created only once the origin receipt is in hand.
type RebalanceOperationRepository interface {
	Create(ctx context.Context, op *entities.RebalanceOperation) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.RebalanceOperation, error)
	GetRebalanceOperations(ctx context.Context, filter RebalanceOperationFilter) ([]*entities.RebalanceOperation, int64, error)
	GetRebalanceOperationsByEarmark(ctx context.Context, earmarkID uuid.UUID) ([]*entities.RebalanceOperation, error)
	Update(ctx context.Context, id uuid.UUID, update RebalanceOperationUpdate) error
	// ExpireStale flips every row in {PENDING, AWAITING_CALLBACK} older than
	// olderThan to EXPIRED and returns how many rows changed.
	ExpireStale(ctx context.Context, olderThan time.Duration) (int64, error)
}
