package entities

import (
	"time"

	"github.com/google/uuid"
)

// RebalanceOperationStatus is the operation's lifecycle state.
type RebalanceOperationStatus string

const (
	RebalanceStatusPending          RebalanceOperationStatus = "PENDING"
	RebalanceStatusAwaitingCallback RebalanceOperationStatus = "AWAITING_CALLBACK"
	RebalanceStatusCompleted        RebalanceOperationStatus = "COMPLETED"
	RebalanceStatusFailed           RebalanceOperationStatus = "FAILED"
	RebalanceStatusExpired          RebalanceOperationStatus = "EXPIRED"
)

// OpenRebalanceStatuses are the statuses the callback loop and the expiry
// ticker act on; COMPLETED/FAILED/EXPIRED are one-way terminal latches.
var OpenRebalanceStatuses = []RebalanceOperationStatus{RebalanceStatusPending, RebalanceStatusAwaitingCallback}

// OperationType distinguishes a plain bridge leg from one preceded by a CEX
// swap.
type OperationType string

const (
	OperationTypeBridge        OperationType = "bridge"
	OperationTypeSwapAndBridge OperationType = "swap_and_bridge"
)

// TxReceipt is the minimal confirmation record the engine persists for an
// on-chain submission: enough to identify and re-probe it, never the full
// node response.
type TxReceipt struct {
	TxHash        string `json:"txHash"`
	BlockNumber   uint64 `json:"blockNumber"`
	Confirmations uint64 `json:"confirmations"`
}

// RebalanceOperation records one in-flight or settled origin→destination fund
// movement. A row is written only after the origin transaction receipt is
// confirmed, so Transactions always has at least the origin chain entry.
type RebalanceOperation struct {
	ID                   uuid.UUID                `json:"id"`
	EarmarkID             *uuid.UUID                `json:"earmarkId,omitempty"` // nil => non-invoice-driven rebalance
	OriginChainID         string                    `json:"originChainId"`
	DestinationChainID    string                    `json:"destinationChainId"`
	TickerHash            string                    `json:"tickerHash"`
	Amount                string                    `json:"amount"` // Uint256_native-decimals, the effective post-cap value actually bridged
	Slippage              uint32                    `json:"slippage"` // dBps budget used at planning time
	Status                RebalanceOperationStatus  `json:"status"`
	Bridge                string                    `json:"bridge"` // adapter identifier, possibly suffixed for sub-flows
	Recipient             string                    `json:"recipient"`
	Transactions          map[string]TxReceipt      `json:"transactions"` // keyed by ChainID
	OperationType         OperationType             `json:"operationType"`
	CreatedAt             time.Time                 `json:"createdAt"`
	UpdatedAt             time.Time                 `json:"updatedAt"`
}

// IsOpen reports whether the operation is still tracked by the callback loop
// or the expiry ticker.
func (op *RebalanceOperation) IsOpen() bool {
	return op.Status == RebalanceStatusPending || op.Status == RebalanceStatusAwaitingCallback
}

// OriginReceipt returns the persisted origin-chain receipt, or nil if one has
// not been recorded (which should never happen for a row that exists).
func (op *RebalanceOperation) OriginReceipt() *TxReceipt {
	if op.Transactions == nil {
		return nil
	}
	if r, ok := op.Transactions[op.OriginChainID]; ok {
		return &r
	}
	return nil
}

// Route reconstructs the Route this operation executed against.
func (op *RebalanceOperation) Route(asset, destinationAsset string) Route {
	return Route{
		Origin:           op.OriginChainID,
		Destination:      op.DestinationChainID,
		Asset:            asset,
		DestinationAsset: destinationAsset,
	}
}
