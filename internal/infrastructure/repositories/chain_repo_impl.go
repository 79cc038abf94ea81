package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"mark/internal/domain/entities"
	domainerrors "mark/internal/domain/errors"
	domainrepos "mark/internal/domain/repositories"
	"mark/internal/infrastructure/models"
	"mark/pkg/utils"
)

type chainRepo struct {
	db *gorm.DB
}

func NewChainRepository(db *gorm.DB) domainrepos.ChainRepository {
	return &chainRepo{db: db}
}

func (r *chainRepo) GetByID(ctx context.Context, id uuid.UUID) (*entities.Chain, error) {
	var row models.Chain
	if err := GetDB(ctx, r.db).WithContext(ctx).Preload("RPCs").First(&row, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return toChainEntity(&row), nil
}

func (r *chainRepo) GetByChainID(ctx context.Context, chainID string) (*entities.Chain, error) {
	var row models.Chain
	if err := GetDB(ctx, r.db).WithContext(ctx).Preload("RPCs").First(&row, "chain_id = ?", chainID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return toChainEntity(&row), nil
}

func (r *chainRepo) GetActive(ctx context.Context) ([]*entities.Chain, error) {
	var rows []models.Chain
	if err := GetDB(ctx, r.db).WithContext(ctx).Preload("RPCs").Where("is_active = ?", true).Find(&rows).Error; err != nil {
		return nil, err
	}
	items := make([]*entities.Chain, 0, len(rows))
	for i := range rows {
		items = append(items, toChainEntity(&rows[i]))
	}
	return items, nil
}

func (r *chainRepo) Create(ctx context.Context, chain *entities.Chain) error {
	if chain.ID == uuid.Nil {
		chain.ID = utils.GenerateUUIDv7()
	}
	row := fromChainEntity(chain)
	row.CreatedAt = time.Now()
	row.UpdatedAt = time.Now()
	if err := GetDB(ctx, r.db).WithContext(ctx).Create(row).Error; err != nil {
		return err
	}
	chain.ID = row.ID
	return nil
}

func (r *chainRepo) Update(ctx context.Context, chain *entities.Chain) error {
	row := fromChainEntity(chain)
	result := GetDB(ctx, r.db).WithContext(ctx).Model(&models.Chain{}).
		Where("id = ?", chain.ID).
		Updates(map[string]interface{}{
			"name":            row.Name,
			"type":            row.Type,
			"is_active":       row.IsActive,
			"is_testnet":      row.IsTestnet,
			"currency_symbol": row.CurrencySymbol,
			"explorer_url":    row.ExplorerURL,
			"rpc_url":         row.RPCURL,
			"operator_address": row.OperatorAddress,
			"safe_address":    row.SafeAddress,
			"updated_at":      time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

func toChainEntity(m *models.Chain) *entities.Chain {
	c := &entities.Chain{
		ID:             m.ID,
		ChainID:        m.ChainID,
		Name:           m.Name,
		Type:           entities.ChainType(m.Type),
		IsActive:       m.IsActive,
		IsTestnet:      m.IsTestnet,
		CurrencySymbol: m.CurrencySymbol,
		ExplorerURL:    m.ExplorerURL,
		RPCURL:         m.RPCURL,
		OperatorAddress: m.OperatorAddress,
		SafeAddress:    m.SafeAddress,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
	for _, rpc := range m.RPCs {
		c.RPCs = append(c.RPCs, entities.ChainRPC{
			ID:          rpc.ID,
			ChainID:     rpc.ChainID,
			URL:         rpc.URL,
			Priority:    rpc.Priority,
			IsActive:    rpc.IsActive,
			CreatedAt:   rpc.CreatedAt,
			UpdatedAt:   rpc.UpdatedAt,
			LastErrorAt: rpc.LastErrorAt,
			ErrorCount:  rpc.ErrorCount,
		})
	}
	return c
}

func fromChainEntity(c *entities.Chain) *models.Chain {
	return &models.Chain{
		ID:             c.ID,
		ChainID:        c.ChainID,
		Name:           c.Name,
		Type:           string(c.Type),
		IsActive:       c.IsActive,
		IsTestnet:      c.IsTestnet,
		CurrencySymbol: c.CurrencySymbol,
		ExplorerURL:    c.ExplorerURL,
		RPCURL:         c.RPCURL,
		OperatorAddress: c.OperatorAddress,
		SafeAddress:    c.SafeAddress,
	}
}
