package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RouteConfig is the GORM row for entities.OnDemandRouteConfig. Preferences
// and SlippagesDbps are stored as parallel jsonb arrays rather than a
// relation, mirroring the "fallback order" jsonb-array convention.
type RouteConfig struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey;default:uuid_generate_v7()"`
	Origin        string    `gorm:"type:varchar(64);not null;index:idx_route_configs_route"`
	Destination   string    `gorm:"type:varchar(64);not null;index:idx_route_configs_route"`
	Asset         string    `gorm:"type:varchar(255);not null;index:idx_route_configs_route"`
	DestAsset     string    `gorm:"type:varchar(255)"`
	Preferences   string    `gorm:"type:jsonb;not null;default:'[]'"`
	SlippagesDbps string    `gorm:"type:jsonb;not null;default:'[]'"`
	Reserve       string    `gorm:"type:decimal(78,0);not null;default:0"`
	MinSwapAmount string    `gorm:"type:decimal(78,0)"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
	DeletedAt     gorm.DeletedAt `gorm:"index"`
}

func (RouteConfig) TableName() string {
	return "route_configs"
}
