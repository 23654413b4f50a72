package subscription

import (
	"errors"
	"fmt"
)

var (
	ErrSubscriptionNotFound    = errors.New("subscription not found")
	ErrSubscriptionCancelled   = errors.New("subscription cancelled")
	ErrInvalidStatusTransition = errors.New("invalid status transition")
	ErrInvalidBillingCycle     = errors.New("invalid billing cycle")
	ErrInvalidPeriod           = errors.New("invalid billing period")
	ErrConcurrentModification  = errors.New("subscription was modified concurrently")
)

func ErrInvalidTransition(from, to string) error {
	return fmt.Errorf("%w: from %s to %s", ErrInvalidStatusTransition, from, to)
}
