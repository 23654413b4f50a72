package handlers

import (
	"context"
	stderrors "errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	subdto "github.com/tillpoint/tillpoint/internal/application/subscription/dto"
	"github.com/tillpoint/tillpoint/internal/application/subscription/usecases"
	"github.com/tillpoint/tillpoint/internal/shared/biztime"
	"github.com/tillpoint/tillpoint/internal/shared/errors"
	"github.com/tillpoint/tillpoint/internal/shared/logger"
	"github.com/tillpoint/tillpoint/internal/shared/utils"
)

const defaultAdminSweepTimeout = 10 * time.Minute

// SubscriptionAdminHandler exposes the billing side of the lifecycle: tenant
// provisioning, verified payments, cancellations and on-demand sweeps.
type SubscriptionAdminHandler struct {
	provisionUseCase  provisionTenantUseCase
	reactivateUseCase reactivateSubscriptionUseCase
	cancelUseCase     cancelSubscriptionUseCase
	sweepUseCase      sweepUseCase
	sweepTimeout      time.Duration
	sweepMu           sync.Mutex
	clock             func() time.Time
	logger            logger.Interface
}

func NewSubscriptionAdminHandler(
	provisionUC provisionTenantUseCase,
	reactivateUC reactivateSubscriptionUseCase,
	cancelUC cancelSubscriptionUseCase,
	sweepUC sweepUseCase,
	sweepTimeout time.Duration,
	logger logger.Interface,
) *SubscriptionAdminHandler {
	if sweepTimeout <= 0 {
		sweepTimeout = defaultAdminSweepTimeout
	}
	return &SubscriptionAdminHandler{
		provisionUseCase:  provisionUC,
		reactivateUseCase: reactivateUC,
		cancelUseCase:     cancelUC,
		sweepUseCase:      sweepUC,
		sweepTimeout:      sweepTimeout,
		clock:             biztime.NowUTC,
		logger:            logger,
	}
}

// ProvisionTenantRequest creates a tenant together with its first subscription
type ProvisionTenantRequest struct {
	TenantID     string     `json:"tenant_id" binding:"required,tenant_id"`
	Name         string     `json:"name" binding:"required,max=255"`
	PlanCode     string     `json:"plan_code" binding:"required,max=64"`
	BillingCycle string     `json:"billing_cycle" binding:"required,billing_cycle"`
	Trial        bool       `json:"trial"`
	TrialDays    int        `json:"trial_days" binding:"omitempty,min=1,max=365"`
	PeriodStart  *time.Time `json:"period_start"`
	PeriodEnd    *time.Time `json:"period_end"`
	Price        string     `json:"price" binding:"omitempty,numeric"`
}

// ReactivateSubscriptionRequest records a verified payment. Both dates are
// optional; the period defaults to one billing cycle starting now.
type ReactivateSubscriptionRequest struct {
	PeriodStart *time.Time `json:"period_start"`
	PeriodEnd   *time.Time `json:"period_end"`
}

type CancelSubscriptionRequest struct {
	Reason string `json:"reason" binding:"required,max=255"`
}

// ProvisionTenant creates a tenant and its first subscription
// @Summary Provision tenant
// @Description Create a tenant with a trial or paid subscription and write its status mirror
// @Tags Admin Subscriptions
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body ProvisionTenantRequest true "Tenant and plan"
// @Success 201 {object} utils.APIResponse{data=subdto.SubscriptionDTO}
// @Failure 400 {object} utils.APIResponse
// @Failure 403 {object} utils.APIResponse
// @Failure 409 {object} utils.APIResponse
// @Router /admin/tenants [post]
func (h *SubscriptionAdminHandler) ProvisionTenant(c *gin.Context) {
	var req ProvisionTenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warnw("invalid request body for provision tenant", "error", err)
		utils.ErrorResponseWithError(c, utils.BindingError(err))
		return
	}

	cmd := usecases.ProvisionTenantCommand{
		TenantID:     req.TenantID,
		Name:         req.Name,
		PlanCode:     req.PlanCode,
		BillingCycle: req.BillingCycle,
		Trial:        req.Trial,
		TrialDays:    req.TrialDays,
		PeriodStart:  derefTime(req.PeriodStart),
		PeriodEnd:    derefTime(req.PeriodEnd),
		Price:        req.Price,
	}

	result, err := h.provisionUseCase.Execute(c.Request.Context(), cmd)
	if err != nil {
		h.logger.Errorw("failed to provision tenant", "error", err, "tenant_id", req.TenantID)
		utils.ErrorResponseWithError(c, err)
		return
	}

	respondSubscription(c, http.StatusCreated, "Tenant provisioned", result)
}

// ReactivateSubscription records a verified payment
// @Summary Reactivate subscription
// @Description Mark the tenant's subscription active for a new billing period and lift any suspension
// @Tags Admin Subscriptions
// @Accept json
// @Produce json
// @Security Bearer
// @Param tenant_id path string true "Tenant ID"
// @Param request body ReactivateSubscriptionRequest false "Billing period"
// @Success 200 {object} utils.APIResponse{data=subdto.SubscriptionDTO}
// @Failure 400 {object} utils.APIResponse
// @Failure 404 {object} utils.APIResponse
// @Failure 409 {object} utils.APIResponse
// @Router /admin/tenants/{tenant_id}/subscription/reactivate [post]
func (h *SubscriptionAdminHandler) ReactivateSubscription(c *gin.Context) {
	tenantID := c.Param("tenant_id")
	if err := utils.ValidateTenantID(tenantID); err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	var req ReactivateSubscriptionRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.logger.Warnw("invalid request body for reactivate subscription", "error", err, "tenant_id", tenantID)
			utils.ErrorResponseWithError(c, utils.BindingError(err))
			return
		}
	}

	result, err := h.reactivateUseCase.Execute(c.Request.Context(), usecases.ReactivateSubscriptionCommand{
		TenantID:    tenantID,
		PeriodStart: derefTime(req.PeriodStart),
		PeriodEnd:   derefTime(req.PeriodEnd),
	})
	if err != nil {
		h.logger.Errorw("failed to reactivate subscription", "error", err, "tenant_id", tenantID)
		utils.ErrorResponseWithError(c, err)
		return
	}

	respondSubscription(c, http.StatusOK, "Subscription reactivated", result)
}

// CancelSubscription cancels the tenant's subscription
// @Summary Cancel subscription
// @Description Cancel the tenant's subscription; the tenant is suspended in the same transaction
// @Tags Admin Subscriptions
// @Accept json
// @Produce json
// @Security Bearer
// @Param tenant_id path string true "Tenant ID"
// @Param request body CancelSubscriptionRequest true "Cancellation reason"
// @Success 200 {object} utils.APIResponse{data=subdto.SubscriptionDTO}
// @Failure 400 {object} utils.APIResponse
// @Failure 404 {object} utils.APIResponse
// @Router /admin/tenants/{tenant_id}/subscription/cancel [post]
func (h *SubscriptionAdminHandler) CancelSubscription(c *gin.Context) {
	tenantID := c.Param("tenant_id")
	if err := utils.ValidateTenantID(tenantID); err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	var req CancelSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warnw("invalid request body for cancel subscription", "error", err, "tenant_id", tenantID)
		utils.ErrorResponseWithError(c, utils.BindingError(err))
		return
	}

	result, err := h.cancelUseCase.Execute(c.Request.Context(), usecases.CancelSubscriptionCommand{
		TenantID: tenantID,
		Reason:   req.Reason,
	})
	if err != nil {
		h.logger.Errorw("failed to cancel subscription", "error", err, "tenant_id", tenantID)
		utils.ErrorResponseWithError(c, err)
		return
	}

	respondSubscription(c, http.StatusOK, "Subscription cancelled", result)
}

// RunSweep runs one reconciliation pass and returns its summary
// @Summary Run subscription sweep
// @Description Evaluate every open subscription now, write transitions and repair tenant mirrors
// @Tags Admin Subscriptions
// @Produce json
// @Security Bearer
// @Success 200 {object} utils.APIResponse{data=usecases.SweepSummary}
// @Failure 403 {object} utils.APIResponse
// @Failure 409 {object} utils.APIResponse
// @Failure 500 {object} utils.APIResponse
// @Router /admin/sweeps [post]
func (h *SubscriptionAdminHandler) RunSweep(c *gin.Context) {
	if !h.sweepMu.TryLock() {
		utils.ErrorResponseWithError(c, errors.NewConflictError("a sweep is already running"))
		return
	}
	defer h.sweepMu.Unlock()

	// the pass finishes its current page even if the client goes away
	ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request.Context()), h.sweepTimeout)
	defer cancel()

	summary, err := h.sweepUseCase.Sweep(ctx, h.clock())
	if stderrors.Is(err, usecases.ErrSweepInProgress) {
		utils.ErrorResponseWithError(c, errors.NewConflictError("a sweep is already running"))
		return
	}
	if err != nil {
		h.logger.Errorw("on-demand sweep failed", "error", err)
		utils.ErrorResponseWithError(c, errors.NewInternalError("subscription sweep failed"))
		return
	}

	message := "Sweep completed"
	if summary.Interrupted {
		message = "Sweep interrupted, the next pass resumes from the last checkpoint"
	}

	utils.SuccessResponse(c, http.StatusOK, message, summary)
}

func respondSubscription(c *gin.Context, status int, message string, sub *subdto.SubscriptionDTO) {
	utils.SuccessResponse(c, status, message, sub)
}

func derefTime(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return t.UTC()
}
