package entities

import "github.com/google/uuid"

// AssetConfig is the operator-seeded reference record resolving a ticker to
// its concrete representation on one chain: the ERC-20 contract address (or
// empty for the chain's native asset) and its native decimal count, which
// C1's ToNative/To18 conversions and C5's balance reads both depend on.
type AssetConfig struct {
	ID           uuid.UUID `json:"id"`
	ChainID      string    `json:"chainId"`
	TickerHash   string    `json:"tickerHash"`
	Symbol       string    `json:"symbol"`
	TokenAddress string    `json:"tokenAddress,omitempty"` // empty => native asset
	Decimals     int       `json:"decimals"`
}

// IsNative reports whether this asset is the chain's native currency rather
// than an ERC-20 token.
func (a *AssetConfig) IsNative() bool {
	return a.TokenAddress == ""
}
