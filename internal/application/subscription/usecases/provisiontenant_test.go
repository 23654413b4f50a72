package usecases_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tillpoint/tillpoint/internal/application/subscription/usecases"
	"github.com/tillpoint/tillpoint/internal/domain/subscription"
	vo "github.com/tillpoint/tillpoint/internal/domain/subscription/valueobjects"
	"github.com/tillpoint/tillpoint/internal/domain/tenant"
	apperrors "github.com/tillpoint/tillpoint/internal/shared/errors"
	"github.com/tillpoint/tillpoint/internal/shared/logger"
)

func (f *fixture) provisioner(now time.Time) *usecases.ProvisionTenantUseCase {
	return usecases.NewProvisionTenantUseCase(f.subRepo, f.tenantRepo, f.txManager, f.publisher, logger.NewNopLogger()).
		WithClock(func() time.Time { return now })
}

func TestProvisionTenant_Trial(t *testing.T) {
	f := newFixture(t)

	result, err := f.provisioner(t0).Execute(context.Background(), usecases.ProvisionTenantCommand{
		TenantID:     "shop-1",
		Name:         "Corner Shop",
		PlanCode:     "starter",
		BillingCycle: "monthly",
		Trial:        true,
	})
	require.NoError(t, err)

	assert.Equal(t, "trial", result.Status)
	assert.True(t, t0.AddDate(0, 0, usecases.DefaultTrialDays).Equal(result.CurrentPeriodEnd))
	assert.Equal(t, "0", result.Price)

	tn := f.tenant(t, "shop-1")
	assert.Equal(t, vo.StatusTrial, tn.SubscriptionStatus())
	assert.Equal(t, tenant.OperationalStatusActive, tn.OperationalStatus())

	events := f.publisher.Events()
	require.Len(t, events, 1)
	assert.Equal(t, subscription.ChangeReasonProvisioned, events[0].Reason)

	summary, err := f.sweeper(usecases.SweepOptions{}).Sweep(context.Background(), t0.AddDate(0, 0, 15))
	require.NoError(t, err)
	assert.Equal(t, 1, summary.TrialExpiredCount)
}

func TestProvisionTenant_PaidDailyPlan(t *testing.T) {
	f := newFixture(t)

	result, err := f.provisioner(t0).Execute(context.Background(), usecases.ProvisionTenantCommand{
		TenantID:     "stall-7",
		Name:         "Market Stall",
		PlanCode:     "day-pass",
		BillingCycle: "daily",
		Price:        "2.50",
	})
	require.NoError(t, err)
	assert.Equal(t, "active", result.Status)
	assert.True(t, t0.AddDate(0, 0, 1).Equal(result.CurrentPeriodEnd))
}

func TestProvisionTenant_Rejects(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	valid := usecases.ProvisionTenantCommand{TenantID: "shop-1", Name: "Shop", PlanCode: "pro", BillingCycle: "annual"}

	_, err := f.provisioner(t0).Execute(ctx, valid)
	require.NoError(t, err)

	_, err = f.provisioner(t0).Execute(ctx, valid)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrorTypeConflict, apperrors.GetAppError(err).Type)

	weekly := valid
	weekly.TenantID = "shop-2"
	weekly.BillingCycle = "weekly"
	_, err = f.provisioner(t0).Execute(ctx, weekly)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrorTypeValidation, apperrors.GetAppError(err).Type)

	unnamed := valid
	unnamed.TenantID = "shop-3"
	unnamed.Name = ""
	_, err = f.provisioner(t0).Execute(ctx, unnamed)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrorTypeValidation, apperrors.GetAppError(err).Type)

	shop3, err := f.tenantRepo.GetByID(ctx, "shop-3")
	require.NoError(t, err)
	assert.Nil(t, shop3)
}
