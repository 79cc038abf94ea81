package entities

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ChainType represents blockchain type
type ChainType string

const (
	ChainTypeEVM       ChainType = "EVM"
	ChainTypeSVM       ChainType = "SVM"
	ChainTypeSubstrate ChainType = "SUBSTRATE"
)

// Chain represents one of the chains the engine holds inventory on and can
// rebalance between.
type Chain struct {
	ID             uuid.UUID  `json:"uuid" gorm:"type:uuid;primary_key;default:uuid_generate_v7()"`
	ChainID        string     `json:"id" gorm:"uniqueIndex;not null"`
	Name           string     `json:"name"`
	Type           ChainType  `json:"chainType" gorm:"type:varchar(50);not null"`
	IsActive       bool       `json:"isActive"`
	IsTestnet      bool       `json:"isTestnet"`
	CurrencySymbol string     `json:"currencySymbol"`
	ExplorerURL    string     `json:"explorerUrl,omitempty"`
	RPCURL         string     `json:"rpcUrl"`
	OperatorAddress string    `json:"operatorAddress"`       // the engine's EOA on this chain, used when no Safe is configured
	SafeAddress    string     `json:"safeAddress,omitempty"` // set when the origin/destination wallet is a Zodiac-wrapped Safe rather than an EOA
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
	DeletedAt      *time.Time `json:"deletedAt,omitempty" gorm:"index"`

	RPCs []ChainRPC `json:"rpcs,omitempty" gorm:"foreignKey:ChainID"`
}

// ChainRPC represents a fallback RPC endpoint for a chain.
type ChainRPC struct {
	ID          uuid.UUID      `json:"id" gorm:"type:uuid;primary_key;default:uuid_generate_v7()"`
	ChainID     uuid.UUID      `json:"chainId"`
	URL         string         `json:"url"`
	Priority    int            `json:"priority"`
	IsActive    bool           `json:"isActive"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
	LastErrorAt *time.Time     `json:"lastErrorAt,omitempty"`
	ErrorCount  int            `json:"errorCount"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`

	Chain *Chain `json:"chain,omitempty"`
}

// GetCAIP2ID returns the CAIP-2 formatted chain ID ("eip155:<id>" for EVM,
// "solana:<id>" for SVM, the raw ID otherwise or when it already has a prefix).
func (c *Chain) GetCAIP2ID() string {
	raw := strings.TrimSpace(c.ChainID)
	if strings.Contains(raw, ":") {
		return raw
	}

	if c.Type == ChainTypeEVM {
		return fmt.Sprintf("eip155:%s", raw)
	}
	if c.Type == ChainTypeSVM {
		return fmt.Sprintf("solana:%s", raw)
	}
	return raw
}

// HasSafe reports whether the origin/destination wallet on this chain is a
// Zodiac-Safe whose module must wrap the payload, rather than a plain EOA.
func (c *Chain) HasSafe() bool {
	return c.SafeAddress != ""
}

// Wallet returns the address planner/executor code should treat as this
// chain's sender/recipient: the Safe when configured, otherwise the plain
// operator EOA.
func (c *Chain) Wallet() string {
	if c.HasSafe() {
		return c.SafeAddress
	}
	return c.OperatorAddress
}
