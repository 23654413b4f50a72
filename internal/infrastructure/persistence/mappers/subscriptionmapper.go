package mappers

import (
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"

	"github.com/tillpoint/tillpoint/internal/domain/subscription"
	vo "github.com/tillpoint/tillpoint/internal/domain/subscription/valueobjects"
	"github.com/tillpoint/tillpoint/internal/infrastructure/persistence/models"
	"github.com/tillpoint/tillpoint/internal/shared/mapper"
)

type SubscriptionMapper interface {
	ToEntity(model *models.SubscriptionModel) (*subscription.Subscription, error)
	ToModel(entity *subscription.Subscription) (*models.SubscriptionModel, error)
	ToEntities(models []*models.SubscriptionModel) ([]*subscription.Subscription, error)
}

type SubscriptionMapperImpl struct{}

func NewSubscriptionMapper() SubscriptionMapper {
	return &SubscriptionMapperImpl{}
}

// ToEntity does not reject unknown status or billing cycle values; the
// lifecycle evaluation treats such rows as malformed.
func (m *SubscriptionMapperImpl) ToEntity(model *models.SubscriptionModel) (*subscription.Subscription, error) {
	if model == nil {
		return nil, nil
	}

	var metadata map[string]interface{}
	if len(model.Metadata) > 0 {
		if err := json.Unmarshal(model.Metadata, &metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
		}
	}

	entity, err := subscription.ReconstructSubscription(
		model.ID,
		model.TenantID,
		model.PlanCode,
		vo.BillingCycle(model.BillingCycle),
		vo.SubscriptionStatus(model.Status),
		model.CurrentPeriodStart.UTC(),
		model.CurrentPeriodEnd.UTC(),
		utcPtr(model.GracePeriodEndDate),
		utcPtr(model.SuspendedAt),
		model.SuspendedReason,
		utcPtr(model.CancelledAt),
		model.CancelReason,
		model.Price,
		metadata,
		model.Version,
		model.CreatedAt,
		model.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct subscription entity: %w", err)
	}

	return entity, nil
}

func (m *SubscriptionMapperImpl) ToModel(entity *subscription.Subscription) (*models.SubscriptionModel, error) {
	if entity == nil {
		return nil, nil
	}

	var metadataJSON datatypes.JSON
	if metadata := entity.Metadata(); len(metadata) > 0 {
		data, err := json.Marshal(metadata)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal metadata: %w", err)
		}
		metadataJSON = data
	}

	return &models.SubscriptionModel{
		ID:                 entity.ID(),
		TenantID:           entity.TenantID(),
		PlanCode:           entity.PlanCode(),
		BillingCycle:       entity.BillingCycle().String(),
		Status:             entity.Status().String(),
		CurrentPeriodStart: entity.CurrentPeriodStart(),
		CurrentPeriodEnd:   entity.CurrentPeriodEnd(),
		GracePeriodEndDate: entity.GracePeriodEndDate(),
		SuspendedAt:        entity.SuspendedAt(),
		SuspendedReason:    entity.SuspendedReason(),
		CancelledAt:        entity.CancelledAt(),
		CancelReason:       entity.CancelReason(),
		Price:              entity.Price(),
		Metadata:           metadataJSON,
		Version:            entity.Version(),
		CreatedAt:          entity.CreatedAt(),
		UpdatedAt:          entity.UpdatedAt(),
	}, nil
}

func (m *SubscriptionMapperImpl) ToEntities(modelList []*models.SubscriptionModel) ([]*subscription.Subscription, error) {
	return mapper.MapSlicePtrWithID(modelList, m.ToEntity, func(model *models.SubscriptionModel) uint { return model.ID })
}
