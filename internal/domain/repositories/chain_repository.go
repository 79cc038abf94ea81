package repositories

import (
	"context"

	"github.com/google/uuid"
	"mark/internal/domain/entities"
)

// ChainRepository defines chain configuration lookups. The engine treats
// chain configuration as slow-changing reference data seeded out-of-band.
type ChainRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*entities.Chain, error)
	GetByChainID(ctx context.Context, chainID string) (*entities.Chain, error)
	GetActive(ctx context.Context) ([]*entities.Chain, error)
	Create(ctx context.Context, chain *entities.Chain) error
	Update(ctx context.Context, chain *entities.Chain) error
}
