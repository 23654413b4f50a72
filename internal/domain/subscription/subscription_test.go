package subscription

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	vo "github.com/tillpoint/tillpoint/internal/domain/subscription/valueobjects"
)

func TestNewSubscription(t *testing.T) {
	tests := []struct {
		name    string
		tenant  string
		plan    string
		cycle   vo.BillingCycle
		status  vo.SubscriptionStatus
		start   time.Time
		end     time.Time
		wantErr error
		errText string
	}{
		{name: "valid trial", tenant: "t1", plan: "pro", cycle: vo.BillingCycleMonthly, status: vo.StatusTrial, start: t0, end: t0.AddDate(0, 0, 14)},
		{name: "valid daily", tenant: "t1", plan: "day", cycle: vo.BillingCycleDaily, status: vo.StatusActive, start: t0, end: t0.AddDate(0, 0, 1)},
		{name: "missing tenant", plan: "pro", cycle: vo.BillingCycleMonthly, status: vo.StatusTrial, start: t0, end: t0.AddDate(0, 0, 1), errText: "tenant ID is required"},
		{name: "missing plan", tenant: "t1", cycle: vo.BillingCycleMonthly, status: vo.StatusTrial, start: t0, end: t0.AddDate(0, 0, 1), errText: "plan code is required"},
		{name: "bad cycle", tenant: "t1", plan: "pro", cycle: "weekly", status: vo.StatusTrial, start: t0, end: t0.AddDate(0, 0, 1), wantErr: ErrInvalidBillingCycle},
		{name: "bad initial status", tenant: "t1", plan: "pro", cycle: vo.BillingCycleMonthly, status: vo.StatusSuspended, start: t0, end: t0.AddDate(0, 0, 1), errText: "trial or active"},
		{name: "empty period", tenant: "t1", plan: "pro", cycle: vo.BillingCycleMonthly, status: vo.StatusActive, start: t0, end: t0, wantErr: ErrInvalidPeriod},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub, err := NewSubscription(tt.tenant, tt.plan, tt.cycle, tt.status, tt.start, tt.end, "10.00", t0)

			if tt.wantErr != nil || tt.errText != "" {
				require.Error(t, err)
				if tt.wantErr != nil {
					assert.ErrorIs(t, err, tt.wantErr)
				}
				if tt.errText != "" {
					assert.Contains(t, err.Error(), tt.errText)
				}
				assert.Nil(t, sub)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.status, sub.Status())
			assert.Equal(t, 1, sub.Version())
			assert.Equal(t, uint(0), sub.ID())
			assert.NotNil(t, sub.Metadata())
		})
	}
}

func TestReconstructSubscription_RequiresIdentity(t *testing.T) {
	_, err := ReconstructSubscription(0, "t1", "pro", vo.BillingCycleMonthly, vo.StatusActive,
		t0, t0, nil, nil, nil, nil, nil, "", nil, 1, t0, t0)
	assert.Error(t, err)

	_, err = ReconstructSubscription(1, "", "pro", vo.BillingCycleMonthly, vo.StatusActive,
		t0, t0, nil, nil, nil, nil, nil, "", nil, 1, t0, t0)
	assert.Error(t, err)
}

func TestSubscription_SetID(t *testing.T) {
	sub, err := NewSubscription("t1", "pro", vo.BillingCycleMonthly, vo.StatusTrial, t0, t0.AddDate(0, 1, 0), "", t0)
	require.NoError(t, err)

	assert.Error(t, sub.SetID(0))
	require.NoError(t, sub.SetID(42))
	assert.Equal(t, uint(42), sub.ID())
	assert.Error(t, sub.SetID(43))
}

func TestSubscription_ApplyEvaluation(t *testing.T) {
	sub := newTestSubscription(t, withEnd(t0))
	now := t0.AddDate(0, 0, 1)

	assert.False(t, sub.ApplyEvaluation(Evaluation{Status: vo.StatusActive}, now))
	assert.Equal(t, 1, sub.Version())

	grace := t0.AddDate(0, 0, 7)
	require.True(t, sub.ApplyEvaluation(Evaluation{Status: vo.StatusPastDue, GracePeriodEndDate: &grace}, now))
	assert.Equal(t, vo.StatusPastDue, sub.Status())
	require.NotNil(t, sub.GracePeriodEndDate())
	assert.Equal(t, grace, *sub.GracePeriodEndDate())
	assert.Nil(t, sub.SuspendedAt())
	assert.Equal(t, 2, sub.Version())
	assert.Equal(t, now, sub.UpdatedAt())

	later := t0.AddDate(0, 0, 8)
	require.True(t, sub.ApplyEvaluation(Evaluation{Status: vo.StatusSuspended, SuspendedReason: ReasonExpired}, later))
	require.NotNil(t, sub.SuspendedAt())
	assert.Equal(t, later, *sub.SuspendedAt())
	require.NotNil(t, sub.SuspendedReason())
	assert.Equal(t, ReasonExpired, *sub.SuspendedReason())
	assert.Equal(t, grace, *sub.GracePeriodEndDate())
	assert.Equal(t, 3, sub.Version())
}

func TestSubscription_Reactivate(t *testing.T) {
	sub := newTestSubscription(t, withEnd(t0))
	now := t0.AddDate(0, 0, 10)
	ev := DefaultLifecyclePolicy().Evaluate(sub, now)
	require.True(t, sub.ApplyEvaluation(ev, now))
	require.Equal(t, vo.StatusSuspended, sub.Status())

	err := sub.Reactivate(now, now, now)
	assert.ErrorIs(t, err, ErrInvalidPeriod)

	require.NoError(t, sub.Reactivate(now, now.AddDate(0, 1, 0), now))
	assert.Equal(t, vo.StatusActive, sub.Status())
	assert.Nil(t, sub.GracePeriodEndDate())
	assert.Nil(t, sub.SuspendedAt())
	assert.Nil(t, sub.SuspendedReason())
	assert.Equal(t, now.AddDate(0, 1, 0), sub.CurrentPeriodEnd())

	after := DefaultLifecyclePolicy().Evaluate(sub, now.Add(time.Hour))
	assert.Equal(t, vo.AccessLevelFull, after.AccessLevel)
}

func TestSubscription_ReactivateCancelled(t *testing.T) {
	sub := newTestSubscription(t, withStatus(vo.StatusCancelled))

	err := sub.Reactivate(t0, t0.AddDate(0, 1, 0), t0)
	assert.ErrorIs(t, err, ErrSubscriptionCancelled)
}

func TestSubscription_Cancel(t *testing.T) {
	sub := newTestSubscription(t, withStatus(vo.StatusTrial), withEnd(t0.AddDate(0, 0, 3)))

	assert.Error(t, sub.Cancel("", t0))

	require.NoError(t, sub.Cancel("customer request", t0))
	assert.True(t, sub.IsCancelled())
	require.NotNil(t, sub.CancelledAt())
	require.NotNil(t, sub.CancelReason())
	assert.Equal(t, "customer request", *sub.CancelReason())
	version := sub.Version()

	require.NoError(t, sub.Cancel("again", t0.Add(time.Hour)))
	assert.Equal(t, version, sub.Version())
	assert.Equal(t, "customer request", *sub.CancelReason())
}

func TestStatusChangedEvent(t *testing.T) {
	ev := NewStatusChangedEvent(7, "t1", vo.StatusActive, vo.StatusPastDue, ChangeReasonLifecycle, t0)

	assert.Equal(t, uint(7), ev.SubscriptionID)
	assert.Equal(t, "t1", ev.TenantID)
	assert.Equal(t, vo.StatusActive, ev.FromStatus)
	assert.Equal(t, vo.StatusPastDue, ev.ToStatus)
	assert.Equal(t, ChangeReasonLifecycle, ev.Reason)
	assert.Equal(t, t0, ev.Timestamp)
}
