package repositories

import (
	"context"

	"gorm.io/gorm"
	"mark/internal/domain/entities"
	domainerrors "mark/internal/domain/errors"
	domainrepos "mark/internal/domain/repositories"
	"mark/internal/infrastructure/models"
)

type assetConfigRepo struct {
	db *gorm.DB
}

func NewAssetConfigRepository(db *gorm.DB) domainrepos.AssetConfigRepository {
	return &assetConfigRepo{db: db}
}

func (r *assetConfigRepo) GetByChainAndTicker(ctx context.Context, chainID, tickerHash string) (*entities.AssetConfig, error) {
	var row models.AssetConfig
	err := GetDB(ctx, r.db).WithContext(ctx).
		First(&row, "chain_id = ? AND ticker_hash = ?", chainID, tickerHash).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return toAssetConfigEntity(&row), nil
}

func (r *assetConfigRepo) ListByTicker(ctx context.Context, tickerHash string) ([]*entities.AssetConfig, error) {
	var rows []models.AssetConfig
	if err := GetDB(ctx, r.db).WithContext(ctx).Where("ticker_hash = ?", tickerHash).Find(&rows).Error; err != nil {
		return nil, err
	}
	items := make([]*entities.AssetConfig, 0, len(rows))
	for i := range rows {
		items = append(items, toAssetConfigEntity(&rows[i]))
	}
	return items, nil
}

func (r *assetConfigRepo) ListAll(ctx context.Context) ([]*entities.AssetConfig, error) {
	var rows []models.AssetConfig
	if err := GetDB(ctx, r.db).WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, err
	}
	items := make([]*entities.AssetConfig, 0, len(rows))
	for i := range rows {
		items = append(items, toAssetConfigEntity(&rows[i]))
	}
	return items, nil
}

func toAssetConfigEntity(m *models.AssetConfig) *entities.AssetConfig {
	return &entities.AssetConfig{
		ID:           m.ID,
		ChainID:      m.ChainID,
		TickerHash:   m.TickerHash,
		Symbol:       m.Symbol,
		TokenAddress: m.TokenAddress,
		Decimals:     m.Decimals,
	}
}
