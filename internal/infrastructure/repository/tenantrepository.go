package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/tillpoint/tillpoint/internal/domain/tenant"
	"github.com/tillpoint/tillpoint/internal/infrastructure/persistence/mappers"
	"github.com/tillpoint/tillpoint/internal/infrastructure/persistence/models"
	"github.com/tillpoint/tillpoint/internal/shared/db"
	"github.com/tillpoint/tillpoint/internal/shared/logger"
)

type TenantRepositoryImpl struct {
	db     *gorm.DB
	mapper mappers.TenantMapper
	logger logger.Interface
}

func NewTenantRepository(db *gorm.DB, logger logger.Interface) tenant.Repository {
	return &TenantRepositoryImpl{
		db:     db,
		mapper: mappers.NewTenantMapper(),
		logger: logger,
	}
}

func (r *TenantRepositoryImpl) Create(ctx context.Context, t *tenant.Tenant) error {
	model := r.mapper.ToModel(t)
	if err := db.GetTxFromContext(ctx, r.db).Create(model).Error; err != nil {
		r.logger.Errorw("failed to create tenant", "tenant_id", t.ID(), "error", err)
		return fmt.Errorf("failed to create tenant: %w", err)
	}
	return nil
}

func (r *TenantRepositoryImpl) GetByID(ctx context.Context, id string) (*tenant.Tenant, error) {
	var model models.TenantModel

	if err := db.GetTxFromContext(ctx, r.db).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Errorw("failed to get tenant", "tenant_id", id, "error", err)
		return nil, fmt.Errorf("failed to get tenant: %w", err)
	}

	return r.mapper.ToEntity(&model)
}

func (r *TenantRepositoryImpl) Update(ctx context.Context, t *tenant.Tenant) error {
	model := r.mapper.ToModel(t)

	result := db.GetTxFromContext(ctx, r.db).
		Model(&models.TenantModel{}).
		Where("id = ? AND version = ?", model.ID, model.Version-1).
		Updates(map[string]interface{}{
			"subscription_status": model.SubscriptionStatus,
			"operational_status":  model.OperationalStatus,
			"version":             model.Version,
			"updated_at":          model.UpdatedAt,
		})

	if result.Error != nil {
		r.logger.Errorw("failed to update tenant", "tenant_id", model.ID, "error", result.Error)
		return fmt.Errorf("failed to update tenant: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		r.logger.Warnw("tenant version conflict", "tenant_id", model.ID, "version", model.Version)
		return tenant.ErrConcurrentModification
	}

	return nil
}

func (r *TenantRepositoryImpl) ListAfter(ctx context.Context, afterID string, limit int) ([]*tenant.Tenant, error) {
	var tenantModels []*models.TenantModel

	if err := db.GetTxFromContext(ctx, r.db).
		Where("id > ?", afterID).
		Order("id ASC").
		Limit(limit).
		Find(&tenantModels).Error; err != nil {
		r.logger.Errorw("failed to list tenants", "after_id", afterID, "error", err)
		return nil, fmt.Errorf("failed to list tenants: %w", err)
	}

	return r.mapper.ToEntities(tenantModels)
}
