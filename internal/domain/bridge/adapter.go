package bridge

import (
	"context"
	"math/big"

	"mark/internal/domain/entities"
)

// MemoKind tags a leg of a Send result so the core knows which transaction to
// persist as the origin receipt and which are prelude.
type MemoKind string

const (
	MemoApproval  MemoKind = "Approval"
	MemoUnwrap    MemoKind = "Unwrap"
	MemoWrap      MemoKind = "Wrap"
	MemoRebalance MemoKind = "Rebalance"
)

// MemoTx is one transaction an adapter asks the core to submit. Tx is an
// opaque, chain-specific payload (calldata + target, or a signed envelope)
// that ChainService.submitAndMonitor knows how to send. EffectiveAmount is
// set by adapters that cap or round the planned amount; when present it
// replaces the planner's figure for downstream accounting.
type MemoTx struct {
	Memo            MemoKind
	Tx              interface{}
	EffectiveAmount *big.Int
}

// ExchangeInfo bounds what a swap-capable adapter will accept for a pair.
type ExchangeInfo struct {
	MinNative *big.Int
	MaxNative *big.Int
}

// SwapQuote is a firm, time-bounded quote for a CEX swap leg.
type SwapQuote struct {
	QuoteID    string
	Rate       string // fixed-point decimal string, toAmount/fromAmount
	ToAmount   *big.Int
	ValidUntil int64 // unix seconds
}

// SwapExecution is the result of committing to a previously-quoted swap.
type SwapExecution struct {
	OrderID string
	Status  entities.SwapOperationStatus
}

// Adapter is the contract every bridge or CEX integration satisfies. The
// core never talks to a bridge/exchange protocol directly; it only ever
// calls methods on this interface, resolved from the BridgeRegistry by Kind.
type Adapter interface {
	Kind() entities.BridgeKind

	// Quote returns the amount the counterparty would deliver on route for
	// amountNative sent, without moving funds.
	Quote(ctx context.Context, amountNative *big.Int, route entities.Route) (*big.Int, error)

	// Send moves amountNative from sender to recipient along route, returning
	// the ordered list of transactions the core must submit on the origin
	// chain. Only the Rebalance-memo'd entry is persisted as the origin
	// receipt.
	Send(ctx context.Context, sender, recipient string, amountNative *big.Int, route entities.Route) ([]MemoTx, error)

	// ReadyOnDestination is an idempotent probe; it must never advance any
	// external state as a side effect of being called.
	ReadyOnDestination(ctx context.Context, amountNative *big.Int, route entities.Route, originReceipt entities.TxReceipt) (bool, error)

	// DestinationCallback returns the destination-side finishing transaction,
	// or nil when none is needed. Must be idempotent: once the operation is
	// COMPLETED, repeated calls return nil without side effects.
	DestinationCallback(ctx context.Context, route entities.Route, originReceipt entities.TxReceipt) (*MemoTx, error)
}

// SwapCapable is the optional capability interface for adapters that can
// execute a CEX-style asset swap ahead of a bridge leg. The planner and the
// swap state machine probe for it at runtime rather than requiring every
// Adapter to implement it.
type SwapCapable interface {
	Adapter

	SupportsSwap(fromSymbol, toSymbol string) bool
	SwapExchangeInfo(ctx context.Context, fromSymbol, toSymbol string) (ExchangeInfo, error)
	SwapQuote(ctx context.Context, fromSymbol, toSymbol string, amountNative *big.Int) (SwapQuote, error)
	ExecuteSwap(ctx context.Context, quote SwapQuote) (SwapExecution, error)
	SwapStatus(ctx context.Context, orderID string) (entities.SwapOperationStatus, error)
}

// AsSwapCapable probes an Adapter for the optional swap capability.
func AsSwapCapable(a Adapter) (SwapCapable, bool) {
	sc, ok := a.(SwapCapable)
	return sc, ok
}
