package entities

import (
	"time"

	"github.com/google/uuid"
)

// EarmarkStatus is the earmark's lifecycle state.
type EarmarkStatus string

const (
	EarmarkStatusInitiating EarmarkStatus = "INITIATING"
	EarmarkStatusPending    EarmarkStatus = "PENDING"
	EarmarkStatusReady      EarmarkStatus = "READY"
	EarmarkStatusCompleted  EarmarkStatus = "COMPLETED"
	EarmarkStatusCancelled  EarmarkStatus = "CANCELLED"
	EarmarkStatusFailed     EarmarkStatus = "FAILED"
)

// ActiveEarmarkStatuses is the set of statuses counted against the
// at-most-one-active-earmark-per-invoice invariant.
var ActiveEarmarkStatuses = []EarmarkStatus{EarmarkStatusInitiating, EarmarkStatusPending, EarmarkStatusReady}

// Earmark is a persistent reservation that a specific destination chain will
// be used to settle a specific invoice. It blocks double-spending of the same
// funds across invoices via a partial-unique database constraint on
// (invoiceId) where status is one of the active statuses.
type Earmark struct {
	ID                       uuid.UUID     `json:"id"`
	InvoiceID                string        `json:"invoiceId"`
	DesignatedPurchaseChain  string        `json:"designatedPurchaseChain"`
	TickerHash               string        `json:"tickerHash"` // hex-encoded Bytes32
	MinAmount                string        `json:"minAmount"`  // Uint256_18dec
	Status                   EarmarkStatus `json:"status"`
	CreatedAt                time.Time     `json:"createdAt"`
	UpdatedAt                time.Time     `json:"updatedAt"`
}

// IsActive reports whether the earmark counts against the unique-active
// constraint.
func (e *Earmark) IsActive() bool {
	for _, s := range ActiveEarmarkStatuses {
		if e.Status == s {
			return true
		}
	}
	return false
}
