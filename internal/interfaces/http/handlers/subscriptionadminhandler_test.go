package handlers

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	subdto "github.com/tillpoint/tillpoint/internal/application/subscription/dto"
	"github.com/tillpoint/tillpoint/internal/application/subscription/usecases"
	"github.com/tillpoint/tillpoint/internal/interfaces/http/handlers/testutil"
	"github.com/tillpoint/tillpoint/internal/shared/errors"
	"github.com/tillpoint/tillpoint/internal/shared/logger"
)

// =====================================================================
// Mock use cases
// =====================================================================

type mockProvisionTenantUC struct {
	result *subdto.SubscriptionDTO
	err    error
	cmd    usecases.ProvisionTenantCommand
}

func (m *mockProvisionTenantUC) Execute(_ context.Context, cmd usecases.ProvisionTenantCommand) (*subdto.SubscriptionDTO, error) {
	m.cmd = cmd
	return m.result, m.err
}

type mockReactivateSubscriptionUC struct {
	result *subdto.SubscriptionDTO
	err    error
	cmd    usecases.ReactivateSubscriptionCommand
}

func (m *mockReactivateSubscriptionUC) Execute(_ context.Context, cmd usecases.ReactivateSubscriptionCommand) (*subdto.SubscriptionDTO, error) {
	m.cmd = cmd
	return m.result, m.err
}

type mockCancelSubscriptionUC struct {
	result *subdto.SubscriptionDTO
	err    error
	cmd    usecases.CancelSubscriptionCommand
}

func (m *mockCancelSubscriptionUC) Execute(_ context.Context, cmd usecases.CancelSubscriptionCommand) (*subdto.SubscriptionDTO, error) {
	m.cmd = cmd
	return m.result, m.err
}

type mockSweepUC struct {
	summary *usecases.SweepSummary
	err     error
	now     time.Time
	release chan struct{}
	started chan struct{}
}

func (m *mockSweepUC) Sweep(_ context.Context, now time.Time) (*usecases.SweepSummary, error) {
	m.now = now
	if m.started != nil {
		close(m.started)
	}
	if m.release != nil {
		<-m.release
	}
	return m.summary, m.err
}

var handlerNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestAdminHandler(
	provision provisionTenantUseCase,
	reactivate reactivateSubscriptionUseCase,
	cancel cancelSubscriptionUseCase,
	sweep sweepUseCase,
) *SubscriptionAdminHandler {
	h := NewSubscriptionAdminHandler(provision, reactivate, cancel, sweep, time.Minute, logger.NewNopLogger())
	h.clock = func() time.Time { return handlerNow }
	return h
}

func sampleSubscriptionDTO(status string) *subdto.SubscriptionDTO {
	return &subdto.SubscriptionDTO{
		ID:                 7,
		TenantID:           "store-1",
		PlanCode:           "pos-basic",
		BillingCycle:       "monthly",
		Status:             status,
		CurrentPeriodStart: handlerNow,
		CurrentPeriodEnd:   handlerNow.AddDate(0, 1, 0),
		Price:              "29.00",
		UpdatedAt:          handlerNow,
	}
}

// =====================================================================
// ProvisionTenant
// =====================================================================

func TestSubscriptionAdminHandler_ProvisionTenant_Success(t *testing.T) {
	uc := &mockProvisionTenantUC{result: sampleSubscriptionDTO("trial")}
	handler := newTestAdminHandler(uc, nil, nil, nil)

	c, w := testutil.NewTestContext(http.MethodPost, "/admin/tenants", ProvisionTenantRequest{
		TenantID:     "store-1",
		Name:         "Corner Store",
		PlanCode:     "pos-basic",
		BillingCycle: "monthly",
		Trial:        true,
		TrialDays:    14,
	})
	testutil.SetAdminContext(c)

	handler.ProvisionTenant(c)

	require.Equal(t, http.StatusCreated, w.Code)
	var got subdto.SubscriptionDTO
	resp, err := testutil.ParseData(w, &got)
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, "trial", got.Status)

	assert.Equal(t, "store-1", uc.cmd.TenantID)
	assert.Equal(t, "Corner Store", uc.cmd.Name)
	assert.True(t, uc.cmd.Trial)
	assert.Equal(t, 14, uc.cmd.TrialDays)
	assert.True(t, uc.cmd.PeriodStart.IsZero())
}

func TestSubscriptionAdminHandler_ProvisionTenant_InvalidRequest(t *testing.T) {
	tests := []struct {
		name        string
		body        interface{}
		wantDetails string
	}{
		{
			name:        "missing tenant",
			body:        map[string]interface{}{"name": "x", "plan_code": "p", "billing_cycle": "monthly"},
			wantDetails: "tenant_id is required",
		},
		{
			name:        "unsupported cycle",
			body:        map[string]interface{}{"tenant_id": "store-1", "name": "x", "plan_code": "p", "billing_cycle": "weekly"},
			wantDetails: "billing_cycle must be one of",
		},
		{
			name:        "bad tenant format",
			body:        map[string]interface{}{"tenant_id": "store 1!", "name": "x", "plan_code": "p", "billing_cycle": "daily"},
			wantDetails: "tenant_id must be",
		},
		{
			name:        "non numeric price",
			body:        map[string]interface{}{"tenant_id": "store-1", "name": "x", "plan_code": "p", "billing_cycle": "annual", "price": "free"},
			wantDetails: "price must be a valid number",
		},
		{
			name:        "malformed json",
			body:        `{"tenant_id": `,
			wantDetails: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := &mockProvisionTenantUC{}
			handler := newTestAdminHandler(uc, nil, nil, nil)

			c, w := testutil.NewTestContext(http.MethodPost, "/admin/tenants", tt.body)
			handler.ProvisionTenant(c)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			var resp testutil.APIResponse
			require.NoError(t, testutil.ParseResponse(w, &resp))
			require.NotNil(t, resp.Error)
			assert.Equal(t, "validation_error", resp.Error.Type)
			if tt.wantDetails != "" {
				assert.Contains(t, resp.Error.Details, tt.wantDetails)
			}
			assert.Empty(t, uc.cmd.TenantID, "use case must not run")
		})
	}
}

func TestSubscriptionAdminHandler_ProvisionTenant_Conflict(t *testing.T) {
	uc := &mockProvisionTenantUC{err: errors.NewConflictError("tenant already exists")}
	handler := newTestAdminHandler(uc, nil, nil, nil)

	c, w := testutil.NewTestContext(http.MethodPost, "/admin/tenants", ProvisionTenantRequest{
		TenantID:     "store-1",
		Name:         "Corner Store",
		PlanCode:     "pos-basic",
		BillingCycle: "daily",
	})
	handler.ProvisionTenant(c)

	assert.Equal(t, http.StatusConflict, w.Code)
}

// =====================================================================
// ReactivateSubscription
// =====================================================================

func TestSubscriptionAdminHandler_ReactivateSubscription(t *testing.T) {
	t.Run("without body uses defaults", func(t *testing.T) {
		uc := &mockReactivateSubscriptionUC{result: sampleSubscriptionDTO("active")}
		handler := newTestAdminHandler(nil, uc, nil, nil)

		c, w := testutil.NewTestContext(http.MethodPost, "/admin/tenants/store-1/subscription/reactivate", nil)
		testutil.SetURLParam(c, "tenant_id", "store-1")

		handler.ReactivateSubscription(c)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "store-1", uc.cmd.TenantID)
		assert.True(t, uc.cmd.PeriodStart.IsZero())
		assert.True(t, uc.cmd.PeriodEnd.IsZero())
	})

	t.Run("explicit period is passed through in UTC", func(t *testing.T) {
		uc := &mockReactivateSubscriptionUC{result: sampleSubscriptionDTO("active")}
		handler := newTestAdminHandler(nil, uc, nil, nil)

		body := `{"period_start":"2025-03-01T09:00:00+02:00","period_end":"2025-04-01T09:00:00+02:00"}`
		c, w := testutil.NewTestContext(http.MethodPost, "/admin/tenants/store-1/subscription/reactivate", body)
		testutil.SetURLParam(c, "tenant_id", "store-1")

		handler.ReactivateSubscription(c)

		require.Equal(t, http.StatusOK, w.Code)
		assert.True(t, uc.cmd.PeriodStart.Equal(time.Date(2025, 3, 1, 7, 0, 0, 0, time.UTC)))
		assert.Equal(t, time.UTC, uc.cmd.PeriodEnd.Location())
	})

	t.Run("invalid tenant path", func(t *testing.T) {
		uc := &mockReactivateSubscriptionUC{}
		handler := newTestAdminHandler(nil, uc, nil, nil)

		c, w := testutil.NewTestContext(http.MethodPost, "/admin/tenants/%20/subscription/reactivate", nil)
		testutil.SetURLParam(c, "tenant_id", " ")

		handler.ReactivateSubscription(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Empty(t, uc.cmd.TenantID)
	})

	t.Run("use case errors map to status", func(t *testing.T) {
		tests := []struct {
			err  error
			want int
		}{
			{err: errors.NewNotFoundError("subscription not found"), want: http.StatusNotFound},
			{err: errors.NewConflictError("subscription is cancelled"), want: http.StatusConflict},
			{err: errors.NewValidationError("period end must be after period start"), want: http.StatusBadRequest},
			{err: fmt.Errorf("connection refused"), want: http.StatusInternalServerError},
		}
		for _, tt := range tests {
			handler := newTestAdminHandler(nil, &mockReactivateSubscriptionUC{err: tt.err}, nil, nil)

			c, w := testutil.NewTestContext(http.MethodPost, "/admin/tenants/store-1/subscription/reactivate", nil)
			testutil.SetURLParam(c, "tenant_id", "store-1")

			handler.ReactivateSubscription(c)

			assert.Equal(t, tt.want, w.Code, tt.err.Error())
		}
	})
}

// =====================================================================
// CancelSubscription
// =====================================================================

func TestSubscriptionAdminHandler_CancelSubscription(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		uc := &mockCancelSubscriptionUC{result: sampleSubscriptionDTO("cancelled")}
		handler := newTestAdminHandler(nil, nil, uc, nil)

		c, w := testutil.NewTestContext(http.MethodPost, "/admin/tenants/store-1/subscription/cancel", CancelSubscriptionRequest{Reason: "closed the shop"})
		testutil.SetURLParam(c, "tenant_id", "store-1")

		handler.CancelSubscription(c)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "closed the shop", uc.cmd.Reason)
		assert.Equal(t, "store-1", uc.cmd.TenantID)
	})

	t.Run("reason is required", func(t *testing.T) {
		uc := &mockCancelSubscriptionUC{}
		handler := newTestAdminHandler(nil, nil, uc, nil)

		c, w := testutil.NewTestContext(http.MethodPost, "/admin/tenants/store-1/subscription/cancel", map[string]string{})
		testutil.SetURLParam(c, "tenant_id", "store-1")

		handler.CancelSubscription(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Empty(t, uc.cmd.TenantID)
	})
}

// =====================================================================
// RunSweep
// =====================================================================

func TestSubscriptionAdminHandler_RunSweep(t *testing.T) {
	t.Run("returns summary", func(t *testing.T) {
		uc := &mockSweepUC{summary: &usecases.SweepSummary{SuspendedCount: 2, PastDueCount: 1, ProcessedCount: 10}}
		handler := newTestAdminHandler(nil, nil, nil, uc)

		c, w := testutil.NewTestContext(http.MethodPost, "/admin/sweeps", nil)
		handler.RunSweep(c)

		require.Equal(t, http.StatusOK, w.Code)
		var got usecases.SweepSummary
		resp, err := testutil.ParseData(w, &got)
		require.NoError(t, err)
		assert.Equal(t, "Sweep completed", resp.Message)
		assert.Equal(t, 2, got.SuspendedCount)
		assert.Equal(t, 1, got.PastDueCount)
		assert.True(t, uc.now.Equal(handlerNow))
	})

	t.Run("interrupted pass is still a success", func(t *testing.T) {
		uc := &mockSweepUC{summary: &usecases.SweepSummary{Interrupted: true}}
		handler := newTestAdminHandler(nil, nil, nil, uc)

		c, w := testutil.NewTestContext(http.MethodPost, "/admin/sweeps", nil)
		handler.RunSweep(c)

		require.Equal(t, http.StatusOK, w.Code)
		var resp testutil.APIResponse
		require.NoError(t, testutil.ParseResponse(w, &resp))
		assert.Contains(t, resp.Message, "interrupted")
	})

	t.Run("listing failure is a server error", func(t *testing.T) {
		uc := &mockSweepUC{summary: &usecases.SweepSummary{}, err: usecases.ErrSweepFailed}
		handler := newTestAdminHandler(nil, nil, nil, uc)

		c, w := testutil.NewTestContext(http.MethodPost, "/admin/sweeps", nil)
		handler.RunSweep(c)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})

	t.Run("pass held by another process is a conflict", func(t *testing.T) {
		uc := &mockSweepUC{err: usecases.ErrSweepInProgress}
		handler := newTestAdminHandler(nil, nil, nil, uc)

		c, w := testutil.NewTestContext(http.MethodPost, "/admin/sweeps", nil)
		handler.RunSweep(c)

		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("concurrent request is rejected", func(t *testing.T) {
		uc := &mockSweepUC{
			summary: &usecases.SweepSummary{},
			started: make(chan struct{}),
			release: make(chan struct{}),
		}
		handler := newTestAdminHandler(nil, nil, nil, uc)

		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			c, _ := testutil.NewTestContext(http.MethodPost, "/admin/sweeps", nil)
			handler.RunSweep(c)
		}()
		<-uc.started

		c, w := testutil.NewTestContext(http.MethodPost, "/admin/sweeps", nil)
		handler.RunSweep(c)
		assert.Equal(t, http.StatusConflict, w.Code)

		close(uc.release)
		wg.Wait()
	})
}
