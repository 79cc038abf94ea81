package repositories

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"mark/internal/domain/entities"
	domainerrors "mark/internal/domain/errors"
	domainrepos "mark/internal/domain/repositories"
	"mark/internal/infrastructure/models"
	"mark/pkg/utils"
)

type swapOperationRepo struct {
	db *gorm.DB
}

func NewSwapOperationRepository(db *gorm.DB) domainrepos.SwapOperationRepository {
	return &swapOperationRepo{db: db}
}

func (r *swapOperationRepo) Create(ctx context.Context, swap *entities.SwapOperation) error {
	if swap.ID == uuid.Nil {
		swap.ID = utils.GenerateUUIDv7()
	}
	row, err := fromSwapOperationEntity(swap)
	if err != nil {
		return err
	}
	row.CreatedAt = time.Now()
	row.UpdatedAt = time.Now()
	if err := GetDB(ctx, r.db).WithContext(ctx).Create(row).Error; err != nil {
		return err
	}
	swap.ID = row.ID
	swap.CreatedAt = row.CreatedAt
	swap.UpdatedAt = row.UpdatedAt
	return nil
}

func (r *swapOperationRepo) GetByID(ctx context.Context, id uuid.UUID) (*entities.SwapOperation, error) {
	var row models.SwapOperation
	if err := GetDB(ctx, r.db).WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return toSwapOperationEntity(&row)
}

func (r *swapOperationRepo) GetByRebalanceOperation(ctx context.Context, rebalanceOperationID uuid.UUID) (*entities.SwapOperation, error) {
	var row models.SwapOperation
	if err := GetDB(ctx, r.db).WithContext(ctx).First(&row, "rebalance_operation_id = ?", rebalanceOperationID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return toSwapOperationEntity(&row)
}

func (r *swapOperationRepo) GetOpen(ctx context.Context) ([]*entities.SwapOperation, error) {
	var rows []models.SwapOperation
	if err := GetDB(ctx, r.db).WithContext(ctx).
		Where("status NOT IN ?", []string{string(entities.SwapStatusCompleted), string(entities.SwapStatusFailed)}).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	items := make([]*entities.SwapOperation, 0, len(rows))
	for i := range rows {
		item, err := toSwapOperationEntity(&rows[i])
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func (r *swapOperationRepo) Update(ctx context.Context, swap *entities.SwapOperation) error {
	row, err := fromSwapOperationEntity(swap)
	if err != nil {
		return err
	}
	result := GetDB(ctx, r.db).WithContext(ctx).Model(&models.SwapOperation{}).
		Where("id = ?", swap.ID).
		Updates(map[string]interface{}{
			"to_amount":    row.ToAmount,
			"actual_rate":  row.ActualRate,
			"status":       row.Status,
			"order_id":     row.OrderID,
			"quote_id":     row.QuoteID,
			"metadata":     row.Metadata,
			"updated_at":   time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

func toSwapOperationEntity(m *models.SwapOperation) (*entities.SwapOperation, error) {
	var metadata entities.SwapMetadata
	if m.Metadata != "" {
		if err := json.Unmarshal([]byte(m.Metadata), &metadata); err != nil {
			return nil, err
		}
	}
	return &entities.SwapOperation{
		ID:                   m.ID,
		RebalanceOperationID: m.RebalanceOperationID,
		Platform:             m.Platform,
		FromAsset:            m.FromAsset,
		ToAsset:              m.ToAsset,
		FromAmount:           m.FromAmount,
		ToAmount:             m.ToAmount,
		ExpectedRate:         m.ExpectedRate,
		ActualRate:           m.ActualRate,
		Status:               entities.SwapOperationStatus(m.Status),
		OrderID:              m.OrderID,
		QuoteID:              m.QuoteID,
		Metadata:             metadata,
		CreatedAt:            m.CreatedAt,
		UpdatedAt:            m.UpdatedAt,
	}, nil
}

func fromSwapOperationEntity(s *entities.SwapOperation) (*models.SwapOperation, error) {
	encoded, err := json.Marshal(s.Metadata)
	if err != nil {
		return nil, err
	}
	return &models.SwapOperation{
		ID:                   s.ID,
		RebalanceOperationID: s.RebalanceOperationID,
		Platform:             s.Platform,
		FromAsset:            s.FromAsset,
		ToAsset:              s.ToAsset,
		FromAmount:           s.FromAmount,
		ToAmount:             s.ToAmount,
		ExpectedRate:         s.ExpectedRate,
		ActualRate:           s.ActualRate,
		Status:               string(s.Status),
		OrderID:              s.OrderID,
		QuoteID:              s.QuoteID,
		Metadata:             string(encoded),
	}, nil
}
