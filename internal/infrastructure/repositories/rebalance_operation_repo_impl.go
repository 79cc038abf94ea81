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

type rebalanceOperationRepo struct {
	db *gorm.DB
}

func NewRebalanceOperationRepository(db *gorm.DB) domainrepos.RebalanceOperationRepository {
	return &rebalanceOperationRepo{db: db}
}

func (r *rebalanceOperationRepo) Create(ctx context.Context, op *entities.RebalanceOperation) error {
	if op.ID == uuid.Nil {
		op.ID = utils.GenerateUUIDv7()
	}
	row, err := fromRebalanceOperationEntity(op)
	if err != nil {
		return err
	}
	row.CreatedAt = time.Now()
	row.UpdatedAt = time.Now()
	if err := GetDB(ctx, r.db).WithContext(ctx).Create(row).Error; err != nil {
		return err
	}
	op.ID = row.ID
	op.CreatedAt = row.CreatedAt
	op.UpdatedAt = row.UpdatedAt
	return nil
}

func (r *rebalanceOperationRepo) GetByID(ctx context.Context, id uuid.UUID) (*entities.RebalanceOperation, error) {
	var row models.RebalanceOperation
	if err := GetDB(ctx, r.db).WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return toRebalanceOperationEntity(&row)
}

func (r *rebalanceOperationRepo) GetRebalanceOperations(ctx context.Context, filter domainrepos.RebalanceOperationFilter) ([]*entities.RebalanceOperation, int64, error) {
	q := GetDB(ctx, r.db).WithContext(ctx).Model(&models.RebalanceOperation{})
	if len(filter.Statuses) > 0 {
		statuses := make([]string, 0, len(filter.Statuses))
		for _, s := range filter.Statuses {
			statuses = append(statuses, string(s))
		}
		q = q.Where("status IN ?", statuses)
	}
	if filter.DestinationChainID != "" {
		q = q.Where("destination_chain_id = ?", filter.DestinationChainID)
	}
	if filter.TickerHash != "" {
		q = q.Where("ticker_hash = ?", filter.TickerHash)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	q = q.Order("created_at DESC")
	if pp := utils.GetPaginationParams(filter.Page, filter.Limit); pp.Limit > 0 {
		q = q.Limit(pp.Limit).Offset(pp.CalculateOffset())
	}

	var rows []models.RebalanceOperation
	if err := q.Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	items := make([]*entities.RebalanceOperation, 0, len(rows))
	for i := range rows {
		item, err := toRebalanceOperationEntity(&rows[i])
		if err != nil {
			return nil, 0, err
		}
		items = append(items, item)
	}
	return items, total, nil
}

func (r *rebalanceOperationRepo) GetRebalanceOperationsByEarmark(ctx context.Context, earmarkID uuid.UUID) ([]*entities.RebalanceOperation, error) {
	var rows []models.RebalanceOperation
	if err := GetDB(ctx, r.db).WithContext(ctx).Where("earmark_id = ?", earmarkID).Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	items := make([]*entities.RebalanceOperation, 0, len(rows))
	for i := range rows {
		item, err := toRebalanceOperationEntity(&rows[i])
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// Update applies a status change and/or merges new transaction receipts into
// the existing jsonb map. The current row is read with FOR UPDATE only when
// ctx carries UnitOfWork.WithLock; the callers in this repository pass a plain
// context, so the read and the write are not locked together.
func (r *rebalanceOperationRepo) Update(ctx context.Context, id uuid.UUID, update domainrepos.RebalanceOperationUpdate) error {
	db := GetDB(ctx, r.db).WithContext(ctx)

	var row models.RebalanceOperation
	if err := db.First(&row, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domainerrors.ErrNotFound
		}
		return err
	}

	changes := map[string]interface{}{"updated_at": time.Now()}

	if update.Status != "" {
		changes["status"] = string(update.Status)
	}

	if len(update.Transactions) > 0 {
		existing := map[string]entities.TxReceipt{}
		if row.Transactions != "" {
			if err := json.Unmarshal([]byte(row.Transactions), &existing); err != nil {
				return err
			}
		}
		for chainID, receipt := range update.Transactions {
			existing[chainID] = receipt
		}
		merged, err := json.Marshal(existing)
		if err != nil {
			return err
		}
		changes["transactions"] = string(merged)
	}

	result := db.Model(&models.RebalanceOperation{}).Where("id = ?", id).Updates(changes)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

func (r *rebalanceOperationRepo) ExpireStale(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan)
	statuses := make([]string, 0, len(entities.OpenRebalanceStatuses))
	for _, s := range entities.OpenRebalanceStatuses {
		statuses = append(statuses, string(s))
	}
	result := GetDB(ctx, r.db).WithContext(ctx).Model(&models.RebalanceOperation{}).
		Where("status IN ? AND created_at < ?", statuses, cutoff).
		Updates(map[string]interface{}{
			"status":     string(entities.RebalanceStatusExpired),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func toRebalanceOperationEntity(m *models.RebalanceOperation) (*entities.RebalanceOperation, error) {
	transactions := map[string]entities.TxReceipt{}
	if m.Transactions != "" {
		if err := json.Unmarshal([]byte(m.Transactions), &transactions); err != nil {
			return nil, err
		}
	}
	return &entities.RebalanceOperation{
		ID:                 m.ID,
		EarmarkID:          m.EarmarkID,
		OriginChainID:      m.OriginChainID,
		DestinationChainID: m.DestinationChainID,
		TickerHash:         m.TickerHash,
		Amount:             m.Amount,
		Slippage:           m.Slippage,
		Status:             entities.RebalanceOperationStatus(m.Status),
		Bridge:             m.Bridge,
		Recipient:          m.Recipient,
		Transactions:       transactions,
		OperationType:      entities.OperationType(m.OperationType),
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	}, nil
}

func fromRebalanceOperationEntity(op *entities.RebalanceOperation) (*models.RebalanceOperation, error) {
	transactions := op.Transactions
	if transactions == nil {
		transactions = map[string]entities.TxReceipt{}
	}
	encoded, err := json.Marshal(transactions)
	if err != nil {
		return nil, err
	}
	return &models.RebalanceOperation{
		ID:                 op.ID,
		EarmarkID:          op.EarmarkID,
		OriginChainID:      op.OriginChainID,
		DestinationChainID: op.DestinationChainID,
		TickerHash:         op.TickerHash,
		Amount:             op.Amount,
		Slippage:           op.Slippage,
		Status:             string(op.Status),
		Bridge:             op.Bridge,
		Recipient:          op.Recipient,
		Transactions:       string(encoded),
		OperationType:      string(op.OperationType),
	}, nil
}
