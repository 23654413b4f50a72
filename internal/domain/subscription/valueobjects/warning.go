package valueobjects

type WarningType string

const (
	WarningExpiringSoon   WarningType = "expiring_soon"
	WarningPastDue        WarningType = "past_due"
	WarningSuspended      WarningType = "suspended"
	WarningExpired        WarningType = "expired"
	WarningNoSubscription WarningType = "no_subscription"
)

type WarningSeverity string

const (
	SeverityInfo     WarningSeverity = "info"
	SeverityWarning  WarningSeverity = "warning"
	SeverityCritical WarningSeverity = "critical"
)

// Warning is a user-facing notice about the subscription state.
type Warning struct {
	Type           WarningType
	Severity       WarningSeverity
	Message        string
	ActionRequired bool
	DaysRemaining  *int
}
