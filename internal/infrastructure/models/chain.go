package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Chain is the GORM row for entities.Chain.
type Chain struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey;default:uuid_generate_v7()"`
	ChainID        string    `gorm:"type:varchar(64);uniqueIndex;not null"`
	Name           string    `gorm:"type:varchar(100);not null"`
	Type           string    `gorm:"type:varchar(50);not null;default:'EVM'"`
	IsActive       bool      `gorm:"default:true"`
	IsTestnet      bool      `gorm:"default:false"`
	CurrencySymbol string    `gorm:"type:varchar(20)"`
	ExplorerURL    string    `gorm:"type:text"`
	RPCURL         string    `gorm:"type:text;column:rpc_url"`
	OperatorAddress string   `gorm:"type:varchar(64);column:operator_address"`
	SafeAddress    string    `gorm:"type:varchar(64)"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
	DeletedAt      gorm.DeletedAt `gorm:"index"`

	RPCs []ChainRPC `gorm:"foreignKey:ChainID"`
}

func (Chain) TableName() string {
	return "chains"
}

// ChainRPC is a fallback RPC endpoint for a chain, ordered by Priority.
type ChainRPC struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:uuid_generate_v7()"`
	ChainID     uuid.UUID `gorm:"type:uuid;not null;index"`
	URL         string    `gorm:"type:text;not null"`
	Priority    int       `gorm:"default:0"`
	IsActive    bool      `gorm:"default:true;index"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
	LastErrorAt *time.Time
	ErrorCount  int
	DeletedAt   gorm.DeletedAt `gorm:"index"`
}

func (ChainRPC) TableName() string {
	return "chain_rpcs"
}
