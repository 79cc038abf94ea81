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

type routeConfigRepo struct {
	db *gorm.DB
}

func NewRouteConfigRepository(db *gorm.DB) domainrepos.RouteConfigRepository {
	return &routeConfigRepo{db: db}
}

func (r *routeConfigRepo) GetByRoute(ctx context.Context, route entities.Route) (*entities.OnDemandRouteConfig, error) {
	var row models.RouteConfig
	tx := GetDB(ctx, r.db).WithContext(ctx).
		Where("origin = ? AND destination = ? AND asset = ?", route.Origin, route.Destination, route.Asset).
		Order("updated_at DESC").
		Limit(1).
		Find(&row)
	if tx.Error != nil {
		return nil, tx.Error
	}
	if tx.RowsAffected == 0 {
		return nil, domainerrors.ErrNotFound
	}
	return toRouteConfigEntity(&row), nil
}

func (r *routeConfigRepo) ListByDestination(ctx context.Context, dest string) ([]*entities.OnDemandRouteConfig, error) {
	var rows []models.RouteConfig
	if err := GetDB(ctx, r.db).WithContext(ctx).Where("destination = ?", dest).Find(&rows).Error; err != nil {
		return nil, err
	}
	items := make([]*entities.OnDemandRouteConfig, 0, len(rows))
	for i := range rows {
		items = append(items, toRouteConfigEntity(&rows[i]))
	}
	return items, nil
}

func (r *routeConfigRepo) Create(ctx context.Context, cfg *entities.OnDemandRouteConfig) error {
	if cfg.ID == uuid.Nil {
		cfg.ID = utils.GenerateUUIDv7()
	}
	row, err := fromRouteConfigEntity(cfg)
	if err != nil {
		return err
	}
	row.CreatedAt = time.Now()
	row.UpdatedAt = time.Now()
	return GetDB(ctx, r.db).WithContext(ctx).Create(row).Error
}

func (r *routeConfigRepo) Update(ctx context.Context, cfg *entities.OnDemandRouteConfig) error {
	row, err := fromRouteConfigEntity(cfg)
	if err != nil {
		return err
	}
	result := GetDB(ctx, r.db).WithContext(ctx).Model(&models.RouteConfig{}).
		Where("id = ?", cfg.ID).
		Updates(map[string]interface{}{
			"origin":          row.Origin,
			"destination":     row.Destination,
			"asset":           row.Asset,
			"dest_asset":      row.DestAsset,
			"preferences":     row.Preferences,
			"slippages_dbps":  row.SlippagesDbps,
			"reserve":         row.Reserve,
			"min_swap_amount": row.MinSwapAmount,
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

func (r *routeConfigRepo) Delete(ctx context.Context, id uuid.UUID) error {
	result := GetDB(ctx, r.db).WithContext(ctx).Delete(&models.RouteConfig{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

func toRouteConfigEntity(m *models.RouteConfig) *entities.OnDemandRouteConfig {
	var preferences []entities.BridgeKind
	_ = json.Unmarshal([]byte(m.Preferences), &preferences)
	var slippages []uint32
	_ = json.Unmarshal([]byte(m.SlippagesDbps), &slippages)

	return &entities.OnDemandRouteConfig{
		ID: m.ID,
		Route: entities.Route{
			Origin:           m.Origin,
			Destination:      m.Destination,
			Asset:            m.Asset,
			DestinationAsset: m.DestAsset,
		},
		Preferences:   preferences,
		SlippagesDbps: slippages,
		Reserve:       m.Reserve,
		MinSwapAmount: m.MinSwapAmount,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

func fromRouteConfigEntity(cfg *entities.OnDemandRouteConfig) (*models.RouteConfig, error) {
	preferences, err := json.Marshal(cfg.Preferences)
	if err != nil {
		return nil, err
	}
	slippages, err := json.Marshal(cfg.SlippagesDbps)
	if err != nil {
		return nil, err
	}
	return &models.RouteConfig{
		ID:            cfg.ID,
		Origin:        cfg.Route.Origin,
		Destination:   cfg.Route.Destination,
		Asset:         cfg.Route.Asset,
		DestAsset:     cfg.Route.DestinationAsset,
		Preferences:   string(preferences),
		SlippagesDbps: string(slippages),
		Reserve:       cfg.Reserve,
		MinSwapAmount: cfg.MinSwapAmount,
	}, nil
}
