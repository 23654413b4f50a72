package valueobjects

import (
	"fmt"
	"strings"
	"time"
)

type BillingCycle string

const (
	BillingCycleDaily   BillingCycle = "daily"
	BillingCycleMonthly BillingCycle = "monthly"
	BillingCycleAnnual  BillingCycle = "annual"
)

var ValidBillingCycles = map[BillingCycle]bool{
	BillingCycleDaily:   true,
	BillingCycleMonthly: true,
	BillingCycleAnnual:  true,
}

func ParseBillingCycle(value string) (BillingCycle, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	if normalized == "" {
		return "", fmt.Errorf("billing cycle cannot be empty")
	}

	cycle := BillingCycle(normalized)
	if !ValidBillingCycles[cycle] {
		return "", fmt.Errorf("invalid billing cycle: %s", value)
	}
	return cycle, nil
}

func (b BillingCycle) String() string {
	return string(b)
}

func (b BillingCycle) IsValid() bool {
	return ValidBillingCycles[b]
}

// HasGracePeriod is false for daily plans, which are suspended as soon as the
// paid period ends.
func (b BillingCycle) HasGracePeriod() bool {
	return b != BillingCycleDaily
}

// NextPeriodEnd returns the end of a billing period starting at start.
func (b BillingCycle) NextPeriodEnd(start time.Time) time.Time {
	switch b {
	case BillingCycleDaily:
		return start.AddDate(0, 0, 1)
	case BillingCycleAnnual:
		return start.AddDate(1, 0, 0)
	default:
		return start.AddDate(0, 1, 0)
	}
}
