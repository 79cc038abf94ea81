package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
)

// SwapOperationStatus is the CEX swap sub-state-machine's state.
type SwapOperationStatus string

const (
	SwapStatusPendingDeposit  SwapOperationStatus = "pending_deposit"
	SwapStatusDepositConfirmed SwapOperationStatus = "deposit_confirmed"
	SwapStatusProcessing      SwapOperationStatus = "processing"
	SwapStatusCompleted       SwapOperationStatus = "completed"
	SwapStatusFailed          SwapOperationStatus = "failed"
	SwapStatusRecovering      SwapOperationStatus = "recovering"
)

// SwapOperation is the child record of a RebalanceOperation whose route swaps
// assets on a CEX before (or while) bridging. Exactly one exists per
// RebalanceOperation of OperationType swap_and_bridge.
type SwapOperation struct {
	ID                    uuid.UUID           `json:"id"`
	RebalanceOperationID  uuid.UUID           `json:"rebalanceOperationId"`
	Platform              string              `json:"platform"`
	FromAsset             string              `json:"fromAsset"`
	ToAsset               string              `json:"toAsset"`
	FromAmount            string              `json:"fromAmount"`
	ToAmount              string              `json:"toAmount"`
	ExpectedRate          string              `json:"expectedRate"` // fixed-point decimal string
	ActualRate            null.String         `json:"actualRate,omitempty"`
	Status                SwapOperationStatus `json:"status"`
	OrderID               null.String         `json:"orderId,omitempty"`
	QuoteID               null.String         `json:"quoteId,omitempty"`
	Metadata              SwapMetadata        `json:"metadata"`
	CreatedAt             time.Time           `json:"createdAt"`
	UpdatedAt             time.Time           `json:"updatedAt"`
}

// SwapMetadata is the planner-recorded context needed by the state machine to
// re-check slippage after a fresh quote: the symbols swapped, the expected
// legs, and the observed dBps at planning time for both the swap leg and the
// bridge leg, plus the combined budget they were accepted against.
type SwapMetadata struct {
	FromSymbol          string `json:"fromSymbol"`
	ToSymbol            string `json:"toSymbol"`
	ExpectedFrom         string `json:"expectedFrom"`
	ExpectedTo           string `json:"expectedTo"`
	ObservedSwapDbps     uint32 `json:"observedSwapDbps"`
	ObservedBridgeDbps   uint32 `json:"observedBridgeDbps"`
	TotalBudgetDbps      uint32 `json:"totalBudgetDbps"`
}

// IsTerminal reports whether the swap has reached a state the state machine
// no longer advances on its own (completed, or failed without a recovery
// attempt in flight).
func (s *SwapOperation) IsTerminal() bool {
	return s.Status == SwapStatusCompleted || s.Status == SwapStatusFailed
}
