package models

import (
	"time"

	"github.com/google/uuid"
)

// RebalanceOperation is the GORM row for entities.RebalanceOperation.
// Transactions is stored as a jsonb object keyed by chain ID; updates merge
// into it rather than replacing it, see rebalanceOperationRepo.Update.
type RebalanceOperation struct {
	ID                 uuid.UUID  `gorm:"type:uuid;primaryKey;default:uuid_generate_v7()"`
	EarmarkID          *uuid.UUID `gorm:"type:uuid;index"`
	OriginChainID      string     `gorm:"type:varchar(64);not null;index"`
	DestinationChainID string     `gorm:"type:varchar(64);not null;index"`
	TickerHash         string     `gorm:"type:varchar(66);not null;index"`
	Amount             string     `gorm:"type:decimal(78,0);not null"`
	Slippage           uint32     `gorm:"not null"`
	Status             string     `gorm:"type:varchar(20);not null;index"`
	Bridge             string     `gorm:"type:varchar(64);not null"`
	Recipient          string     `gorm:"type:varchar(64);not null"`
	Transactions       string     `gorm:"type:jsonb;not null;default:'{}'"`
	OperationType      string     `gorm:"type:varchar(32);not null"`
	CreatedAt          time.Time  `gorm:"index"`
	UpdatedAt          time.Time
}

func (RebalanceOperation) TableName() string {
	return "rebalance_operations"
}
