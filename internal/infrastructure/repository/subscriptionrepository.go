package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/tillpoint/tillpoint/internal/domain/subscription"
	vo "github.com/tillpoint/tillpoint/internal/domain/subscription/valueobjects"
	"github.com/tillpoint/tillpoint/internal/infrastructure/persistence/mappers"
	"github.com/tillpoint/tillpoint/internal/infrastructure/persistence/models"
	"github.com/tillpoint/tillpoint/internal/shared/db"
	"github.com/tillpoint/tillpoint/internal/shared/logger"
)

// canonicalOrder puts non-cancelled rows first, newest first.
const canonicalOrder = "CASE WHEN status = 'cancelled' THEN 1 ELSE 0 END, created_at DESC, id DESC"

type SubscriptionRepositoryImpl struct {
	db     *gorm.DB
	mapper mappers.SubscriptionMapper
	logger logger.Interface
}

func NewSubscriptionRepository(
	db *gorm.DB,
	logger logger.Interface,
) subscription.SubscriptionRepository {
	return &SubscriptionRepositoryImpl{
		db:     db,
		mapper: mappers.NewSubscriptionMapper(),
		logger: logger,
	}
}

func (r *SubscriptionRepositoryImpl) Create(ctx context.Context, subscriptionEntity *subscription.Subscription) error {
	model, err := r.mapper.ToModel(subscriptionEntity)
	if err != nil {
		r.logger.Errorw("failed to map subscription entity to model", "error", err)
		return fmt.Errorf("failed to map subscription entity: %w", err)
	}

	if err := db.GetTxFromContext(ctx, r.db).Create(model).Error; err != nil {
		r.logger.Errorw("failed to create subscription in database", "tenant_id", model.TenantID, "error", err)
		return fmt.Errorf("failed to create subscription: %w", err)
	}

	if err := subscriptionEntity.SetID(model.ID); err != nil {
		r.logger.Errorw("failed to set subscription ID", "error", err)
		return fmt.Errorf("failed to set subscription ID: %w", err)
	}

	r.logger.Infow("subscription created successfully", "subscription_id", model.ID, "tenant_id", model.TenantID)
	return nil
}

func (r *SubscriptionRepositoryImpl) GetByID(ctx context.Context, id uint) (*subscription.Subscription, error) {
	var model models.SubscriptionModel

	if err := db.GetTxFromContext(ctx, r.db).First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Errorw("failed to get subscription by ID", "subscription_id", id, "error", err)
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}

	entity, err := r.mapper.ToEntity(&model)
	if err != nil {
		r.logger.Errorw("failed to map subscription model to entity", "subscription_id", id, "error", err)
		return nil, fmt.Errorf("failed to map subscription: %w", err)
	}

	return entity, nil
}

// Update writes the mutable lifecycle fields. The entity carries the bumped
// version, so the row must still hold version-1.
func (r *SubscriptionRepositoryImpl) Update(ctx context.Context, subscriptionEntity *subscription.Subscription) error {
	model, err := r.mapper.ToModel(subscriptionEntity)
	if err != nil {
		r.logger.Errorw("failed to map subscription entity to model", "subscription_id", subscriptionEntity.ID(), "error", err)
		return fmt.Errorf("failed to map subscription entity: %w", err)
	}

	result := db.GetTxFromContext(ctx, r.db).
		Model(&models.SubscriptionModel{}).
		Where("id = ? AND version = ?", model.ID, model.Version-1).
		Updates(map[string]interface{}{
			"status":                model.Status,
			"current_period_start":  model.CurrentPeriodStart,
			"current_period_end":    model.CurrentPeriodEnd,
			"grace_period_end_date": model.GracePeriodEndDate,
			"suspended_at":          model.SuspendedAt,
			"suspended_reason":      model.SuspendedReason,
			"cancelled_at":          model.CancelledAt,
			"cancel_reason":         model.CancelReason,
			"metadata":              model.Metadata,
			"version":               model.Version,
			"updated_at":            model.UpdatedAt,
		})

	if result.Error != nil {
		r.logger.Errorw("failed to update subscription", "subscription_id", model.ID, "error", result.Error)
		return fmt.Errorf("failed to update subscription: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		r.logger.Warnw("subscription version conflict", "subscription_id", model.ID, "version", model.Version)
		return subscription.ErrConcurrentModification
	}

	r.logger.Debugw("subscription updated", "subscription_id", model.ID, "status", model.Status)
	return nil
}

func (r *SubscriptionRepositoryImpl) GetCanonicalByTenantID(ctx context.Context, tenantID string) (*subscription.Subscription, error) {
	var model models.SubscriptionModel

	if err := db.GetTxFromContext(ctx, r.db).
		Where("tenant_id = ?", tenantID).
		Order(canonicalOrder).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Errorw("failed to get canonical subscription", "tenant_id", tenantID, "error", err)
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}

	entity, err := r.mapper.ToEntity(&model)
	if err != nil {
		r.logger.Errorw("failed to map subscription model to entity", "tenant_id", tenantID, "error", err)
		return nil, fmt.Errorf("failed to map subscription: %w", err)
	}

	return entity, nil
}

func (r *SubscriptionRepositoryImpl) GetCanonicalByTenantIDs(ctx context.Context, tenantIDs []string) (map[string]*subscription.Subscription, error) {
	result := make(map[string]*subscription.Subscription, len(tenantIDs))
	if len(tenantIDs) == 0 {
		return result, nil
	}

	var subscriptionModels []*models.SubscriptionModel
	if err := db.GetTxFromContext(ctx, r.db).
		Where("tenant_id IN ?", tenantIDs).
		Order("tenant_id").
		Order(canonicalOrder).
		Find(&subscriptionModels).Error; err != nil {
		r.logger.Errorw("failed to get canonical subscriptions", "tenant_count", len(tenantIDs), "error", err)
		return nil, fmt.Errorf("failed to get subscriptions: %w", err)
	}

	for _, model := range subscriptionModels {
		if _, seen := result[model.TenantID]; seen {
			continue
		}
		entity, err := r.mapper.ToEntity(model)
		if err != nil {
			r.logger.Errorw("failed to map subscription model to entity", "subscription_id", model.ID, "error", err)
			return nil, fmt.Errorf("failed to map subscription: %w", err)
		}
		result[model.TenantID] = entity
	}

	return result, nil
}

func (r *SubscriptionRepositoryImpl) ListNonTerminal(ctx context.Context, afterID uint, limit int) ([]*subscription.Subscription, error) {
	var subscriptionModels []*models.SubscriptionModel

	if err := db.GetTxFromContext(ctx, r.db).
		Where("id > ? AND status <> ?", afterID, vo.StatusCancelled.String()).
		Order("id ASC").
		Limit(limit).
		Find(&subscriptionModels).Error; err != nil {
		r.logger.Errorw("failed to list non-terminal subscriptions", "after_id", afterID, "error", err)
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}

	entities, err := r.mapper.ToEntities(subscriptionModels)
	if err != nil {
		r.logger.Errorw("failed to map subscription models to entities", "after_id", afterID, "error", err)
		return nil, fmt.Errorf("failed to map subscriptions: %w", err)
	}

	return entities, nil
}
