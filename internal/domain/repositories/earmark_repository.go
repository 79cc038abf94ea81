package repositories

import (
	"context"

	"github.com/google/uuid"
	"mark/internal/domain/entities"
)

// EarmarkFilter narrows getEarmarks reads; nil/zero fields are unconstrained.
type EarmarkFilter struct {
	Statuses                []entities.EarmarkStatus
	InvoiceID               string
	DesignatedPurchaseChain string
}

// EarmarkRepository persists the at-most-one-active-earmark-per-invoice
// reservation. Create is atomic: on a unique-partial-index conflict it
// returns errors.ErrActiveEarmarkExists so the caller can re-read the
// winning row instead of retrying blindly.
type EarmarkRepository interface {
	Create(ctx context.Context, earmark *entities.Earmark) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.Earmark, error)
	// GetActiveForInvoice returns the earmark in {INITIATING, PENDING, READY}
	// for invoiceId, or nil if none exists.
	GetActiveForInvoice(ctx context.Context, invoiceID string) (*entities.Earmark, error)
	GetEarmarks(ctx context.Context, filter EarmarkFilter) ([]*entities.Earmark, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status entities.EarmarkStatus) error
	UpdateMinAmount(ctx context.Context, id uuid.UUID, minAmount string) error
}
