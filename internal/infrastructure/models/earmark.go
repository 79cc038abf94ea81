package models

import (
	"time"

	"github.com/google/uuid"
)

// Earmark is the GORM row for entities.Earmark. A partial unique index over
// invoice_id where status is one of the active values enforces the
// at-most-one-active-earmark-per-invoice invariant at the database layer; the
// migration that creates it is out of scope here, the index is assumed
// present.
type Earmark struct {
	ID                      uuid.UUID `gorm:"type:uuid;primaryKey;default:uuid_generate_v7()"`
	InvoiceID               string    `gorm:"type:varchar(255);not null;index"`
	DesignatedPurchaseChain string    `gorm:"type:varchar(64);not null"`
	TickerHash              string    `gorm:"type:varchar(66);not null"`
	MinAmount               string    `gorm:"type:decimal(78,0);not null"`
	Status                  string    `gorm:"type:varchar(20);not null"`
	CreatedAt               time.Time
	UpdatedAt               time.Time
}

func (Earmark) TableName() string {
	return "earmarks"
}
