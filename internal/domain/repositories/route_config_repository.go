package repositories

import (
	"context"

	"github.com/google/uuid"
	"mark/internal/domain/entities"
)

// RouteConfigRepository looks up the operator-configured bridge preferences
// and slippage budgets for a given (origin, destination, asset) route.
type RouteConfigRepository interface {
	GetByRoute(ctx context.Context, route entities.Route) (*entities.OnDemandRouteConfig, error)
	// ListByDestination returns every configured route whose Destination
	// matches dest, in no particular order; the planner sorts them.
	ListByDestination(ctx context.Context, dest string) ([]*entities.OnDemandRouteConfig, error)
	Create(ctx context.Context, cfg *entities.OnDemandRouteConfig) error
	Update(ctx context.Context, cfg *entities.OnDemandRouteConfig) error
	Delete(ctx context.Context, id uuid.UUID) error
}
