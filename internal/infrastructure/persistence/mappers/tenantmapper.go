package mappers

import (
	"fmt"

	vo "github.com/tillpoint/tillpoint/internal/domain/subscription/valueobjects"
	"github.com/tillpoint/tillpoint/internal/domain/tenant"
	"github.com/tillpoint/tillpoint/internal/infrastructure/persistence/models"
	"github.com/tillpoint/tillpoint/internal/shared/mapper"
)

type TenantMapper interface {
	ToEntity(model *models.TenantModel) (*tenant.Tenant, error)
	ToModel(entity *tenant.Tenant) *models.TenantModel
	ToEntities(models []*models.TenantModel) ([]*tenant.Tenant, error)
}

type TenantMapperImpl struct{}

func NewTenantMapper() TenantMapper {
	return &TenantMapperImpl{}
}

func (m *TenantMapperImpl) ToEntity(model *models.TenantModel) (*tenant.Tenant, error) {
	if model == nil {
		return nil, nil
	}

	entity, err := tenant.ReconstructTenant(
		model.ID,
		model.Name,
		vo.SubscriptionStatus(model.SubscriptionStatus),
		tenant.OperationalStatus(model.OperationalStatus),
		model.Version,
		model.CreatedAt,
		model.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct tenant entity: %w", err)
	}
	return entity, nil
}

func (m *TenantMapperImpl) ToModel(entity *tenant.Tenant) *models.TenantModel {
	if entity == nil {
		return nil
	}

	return &models.TenantModel{
		ID:                 entity.ID(),
		Name:               entity.Name(),
		SubscriptionStatus: entity.SubscriptionStatus().String(),
		OperationalStatus:  entity.OperationalStatus().String(),
		Version:            entity.Version(),
		CreatedAt:          entity.CreatedAt(),
		UpdatedAt:          entity.UpdatedAt(),
	}
}

func (m *TenantMapperImpl) ToEntities(modelList []*models.TenantModel) ([]*tenant.Tenant, error) {
	return mapper.MapSlicePtrWithID(modelList, m.ToEntity, func(model *models.TenantModel) string { return model.ID })
}
