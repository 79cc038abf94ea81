package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"mark/internal/domain/entities"
	domainerrors "mark/internal/domain/errors"
	domainrepos "mark/internal/domain/repositories"
	"mark/internal/infrastructure/models"
	"mark/pkg/utils"
)

type earmarkRepo struct {
	db *gorm.DB
}

func NewEarmarkRepository(db *gorm.DB) domainrepos.EarmarkRepository {
	return &earmarkRepo{db: db}
}

func (r *earmarkRepo) Create(ctx context.Context, earmark *entities.Earmark) error {
	if earmark.ID == uuid.Nil {
		earmark.ID = utils.GenerateUUIDv7()
	}
	row := fromEarmarkEntity(earmark)
	row.CreatedAt = time.Now()
	row.UpdatedAt = time.Now()
	if err := GetDB(ctx, r.db).WithContext(ctx).Create(row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domainerrors.ErrActiveEarmarkExists
		}
		return err
	}
	earmark.ID = row.ID
	earmark.CreatedAt = row.CreatedAt
	earmark.UpdatedAt = row.UpdatedAt
	return nil
}

func (r *earmarkRepo) GetByID(ctx context.Context, id uuid.UUID) (*entities.Earmark, error) {
	var row models.Earmark
	if err := GetDB(ctx, r.db).WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return toEarmarkEntity(&row), nil
}

func (r *earmarkRepo) GetActiveForInvoice(ctx context.Context, invoiceID string) (*entities.Earmark, error) {
	var row models.Earmark
	tx := GetDB(ctx, r.db).WithContext(ctx).
		Where("invoice_id = ? AND status IN ?", invoiceID, activeEarmarkStatusStrings()).
		Order("created_at DESC").
		Limit(1).
		Find(&row)
	if tx.Error != nil {
		return nil, tx.Error
	}
	if tx.RowsAffected == 0 {
		return nil, nil
	}
	return toEarmarkEntity(&row), nil
}

func (r *earmarkRepo) GetEarmarks(ctx context.Context, filter domainrepos.EarmarkFilter) ([]*entities.Earmark, error) {
	q := GetDB(ctx, r.db).WithContext(ctx).Model(&models.Earmark{})
	if len(filter.Statuses) > 0 {
		statuses := make([]string, 0, len(filter.Statuses))
		for _, s := range filter.Statuses {
			statuses = append(statuses, string(s))
		}
		q = q.Where("status IN ?", statuses)
	}
	if filter.InvoiceID != "" {
		q = q.Where("invoice_id = ?", filter.InvoiceID)
	}
	if filter.DesignatedPurchaseChain != "" {
		q = q.Where("designated_purchase_chain = ?", filter.DesignatedPurchaseChain)
	}
	var rows []models.Earmark
	if err := q.Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	items := make([]*entities.Earmark, 0, len(rows))
	for i := range rows {
		items = append(items, toEarmarkEntity(&rows[i]))
	}
	return items, nil
}

func (r *earmarkRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status entities.EarmarkStatus) error {
	result := GetDB(ctx, r.db).WithContext(ctx).Model(&models.Earmark{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"status": string(status), "updated_at": time.Now()})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

func (r *earmarkRepo) UpdateMinAmount(ctx context.Context, id uuid.UUID, minAmount string) error {
	result := GetDB(ctx, r.db).WithContext(ctx).Model(&models.Earmark{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"min_amount": minAmount, "updated_at": time.Now()})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

func activeEarmarkStatusStrings() []string {
	statuses := make([]string, 0, len(entities.ActiveEarmarkStatuses))
	for _, s := range entities.ActiveEarmarkStatuses {
		statuses = append(statuses, string(s))
	}
	return statuses
}

func toEarmarkEntity(m *models.Earmark) *entities.Earmark {
	return &entities.Earmark{
		ID:                      m.ID,
		InvoiceID:               m.InvoiceID,
		DesignatedPurchaseChain: m.DesignatedPurchaseChain,
		TickerHash:              m.TickerHash,
		MinAmount:               m.MinAmount,
		Status:                  entities.EarmarkStatus(m.Status),
		CreatedAt:               m.CreatedAt,
		UpdatedAt:               m.UpdatedAt,
	}
}

func fromEarmarkEntity(e *entities.Earmark) *models.Earmark {
	return &models.Earmark{
		ID:                      e.ID,
		InvoiceID:               e.InvoiceID,
		DesignatedPurchaseChain: e.DesignatedPurchaseChain,
		TickerHash:              e.TickerHash,
		MinAmount:               e.MinAmount,
		Status:                  string(e.Status),
	}
}
