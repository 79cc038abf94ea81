package entities

import (
	"time"

	"github.com/google/uuid"
)

// BridgeKind identifies a concrete bridge/CEX adapter. The core treats it as
// an opaque string; concrete adapters are registered against a BridgeKind in
// the BridgeRegistry.
type BridgeKind string

const (
	BridgeKindAcross   BridgeKind = "Across"
	BridgeKindBinance  BridgeKind = "Binance"
	BridgeKindCoinbase BridgeKind = "Coinbase"
	BridgeKindKraken   BridgeKind = "Kraken"
	BridgeKindNear     BridgeKind = "Near"
	BridgeKindCCTPv1   BridgeKind = "CCTPv1"
	BridgeKindCCTPv2   BridgeKind = "CCTPv2"
	BridgeKindCowSwap  BridgeKind = "CowSwap"
	BridgeKindStargate BridgeKind = "Stargate"
	BridgeKindMantle   BridgeKind = "Mantle"
	BridgeKindLinea    BridgeKind = "Linea"
	BridgeKindZircuit  BridgeKind = "Zircuit"
	BridgeKindZksync   BridgeKind = "Zksync"
	BridgeKindPendle   BridgeKind = "Pendle"
	BridgeKindCCIP     BridgeKind = "CCIP"
	BridgeKindTacInner BridgeKind = "TacInner"
)

// Route describes a single fund movement leg: an asset moving from an origin
// chain to a destination chain. A swap route additionally changes the asset
// symbol in transit (DestinationAsset differs from Asset).
type Route struct {
	Origin           string `json:"origin"`
	Destination      string `json:"destination"`
	Asset            string `json:"asset"`
	DestinationAsset string `json:"destinationAsset,omitempty"`
}

// IsSwap reports whether the asset changes across the route.
func (r Route) IsSwap() bool {
	return r.DestinationAsset != "" && r.DestinationAsset != r.Asset
}

// OnDemandRouteConfig is the operator-configured policy for moving a given
// asset from origin to destination: an ordered list of bridge preferences,
// each with its own slippage budget, a reserve the planner must never dip
// below, and (for swap routes) the minimum amount worth swapping at all.
type OnDemandRouteConfig struct {
	ID            uuid.UUID    `json:"id"`
	Route         Route        `json:"route" gorm:"embedded"`
	Preferences   []BridgeKind `json:"preferences" gorm:"-"`
	SlippagesDbps []uint32     `json:"slippagesDbps" gorm:"-"`
	Reserve       string       `json:"reserve"` // Uint256_18dec, serialized as base-10 string
	MinSwapAmount string       `json:"minSwapAmount,omitempty"`
	CreatedAt     time.Time    `json:"createdAt"`
	UpdatedAt     time.Time    `json:"updatedAt"`
	DeletedAt     *time.Time   `json:"-"`
}
