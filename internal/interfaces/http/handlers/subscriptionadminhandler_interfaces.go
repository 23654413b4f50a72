package handlers

import (
	"context"
	"time"

	subdto "github.com/tillpoint/tillpoint/internal/application/subscription/dto"
	"github.com/tillpoint/tillpoint/internal/application/subscription/usecases"
)

// Use case interfaces for SubscriptionAdminHandler

type provisionTenantUseCase interface {
	Execute(ctx context.Context, cmd usecases.ProvisionTenantCommand) (*subdto.SubscriptionDTO, error)
}

type reactivateSubscriptionUseCase interface {
	Execute(ctx context.Context, cmd usecases.ReactivateSubscriptionCommand) (*subdto.SubscriptionDTO, error)
}

type cancelSubscriptionUseCase interface {
	Execute(ctx context.Context, cmd usecases.CancelSubscriptionCommand) (*subdto.SubscriptionDTO, error)
}

type sweepUseCase interface {
	Sweep(ctx context.Context, now time.Time) (*usecases.SweepSummary, error)
}
