package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
)

// SwapOperation is the GORM row for entities.SwapOperation. Metadata is
// stored as a jsonb object, mirroring RouteConfig's jsonb-column convention.
type SwapOperation struct {
	ID                   uuid.UUID   `gorm:"type:uuid;primaryKey;default:uuid_generate_v7()"`
	RebalanceOperationID uuid.UUID   `gorm:"type:uuid;not null;uniqueIndex"`
	Platform             string      `gorm:"type:varchar(64);not null"`
	FromAsset            string      `gorm:"type:varchar(255);not null"`
	ToAsset              string      `gorm:"type:varchar(255);not null"`
	FromAmount           string      `gorm:"type:decimal(78,0);not null"`
	ToAmount             string      `gorm:"type:decimal(78,0);not null"`
	ExpectedRate         string      `gorm:"type:varchar(64);not null"`
	ActualRate           null.String `gorm:"type:varchar(64)"`
	Status               string      `gorm:"type:varchar(32);not null;index"`
	OrderID              null.String `gorm:"type:varchar(128)"`
	QuoteID              null.String `gorm:"type:varchar(128)"`
	Metadata             string      `gorm:"type:jsonb;not null;default:'{}'"`
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

func (SwapOperation) TableName() string {
	return "swap_operations"
}
