package repositories

import (
	"context"

	"mark/internal/domain/entities"
)

// AssetConfigRepository resolves a ticker's on-chain representation. Like
// ChainRepository, this is slow-changing reference data seeded out-of-band.
type AssetConfigRepository interface {
	GetByChainAndTicker(ctx context.Context, chainID, tickerHash string) (*entities.AssetConfig, error)
	// ListByTicker returns every chain's representation of tickerHash.
	ListByTicker(ctx context.Context, tickerHash string) ([]*entities.AssetConfig, error)
	// ListAll returns every configured (ticker, chain) pair, the set
	// markBalances iterates over.
	ListAll(ctx context.Context) ([]*entities.AssetConfig, error)
}
