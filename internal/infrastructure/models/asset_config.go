package models

import "github.com/google/uuid"

// AssetConfig is the GORM row for entities.AssetConfig.
type AssetConfig struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:uuid_generate_v7()"`
	ChainID      string    `gorm:"type:varchar(64);not null;uniqueIndex:idx_asset_chain_ticker"`
	TickerHash   string    `gorm:"type:varchar(66);not null;uniqueIndex:idx_asset_chain_ticker"`
	Symbol       string    `gorm:"type:varchar(32);not null"`
	TokenAddress string    `gorm:"type:varchar(64)"`
	Decimals     int       `gorm:"not null"`
}

func (AssetConfig) TableName() string {
	return "asset_configs"
}
