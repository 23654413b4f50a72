package valueobjects

type SubscriptionStatus string

const (
	StatusTrial     SubscriptionStatus = "trial"
	StatusActive    SubscriptionStatus = "active"
	StatusPastDue   SubscriptionStatus = "past_due"
	StatusSuspended SubscriptionStatus = "suspended"
	StatusExpired   SubscriptionStatus = "expired"
	StatusCancelled SubscriptionStatus = "cancelled"
)

var ValidStatuses = map[SubscriptionStatus]bool{
	StatusTrial:     true,
	StatusActive:    true,
	StatusPastDue:   true,
	StatusSuspended: true,
	StatusExpired:   true,
	StatusCancelled: true,
}

func (s SubscriptionStatus) String() string {
	return string(s)
}

func (s SubscriptionStatus) IsValid() bool {
	return ValidStatuses[s]
}

// IsTerminal reports whether no automatic transition may leave s.
func (s SubscriptionStatus) IsTerminal() bool {
	return s == StatusCancelled
}

// SuspendsOperations reports whether a tenant in this status loses its
// operational access.
func (s SubscriptionStatus) SuspendsOperations() bool {
	return s == StatusSuspended || s == StatusExpired || s == StatusCancelled
}

// CanTransitionTo covers both evaluator transitions and the ones driven by
// external payment events (reactivation, cancellation).
func (s SubscriptionStatus) CanTransitionTo(target SubscriptionStatus) bool {
	transitions := map[SubscriptionStatus][]SubscriptionStatus{
		StatusTrial:     {StatusActive, StatusExpired, StatusCancelled},
		StatusActive:    {StatusActive, StatusPastDue, StatusSuspended, StatusCancelled},
		StatusPastDue:   {StatusActive, StatusSuspended, StatusCancelled},
		StatusSuspended: {StatusActive, StatusCancelled},
		StatusExpired:   {StatusActive, StatusCancelled},
		StatusCancelled: {},
	}

	for _, allowed := range transitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}
