package actions

import (
	"fmt"
	"time"

	"github.com/aretw0/loanflow/pkg/domain"
)

// MinTradingMonths is the minimum age of a registration for online approval.
const MinTradingMonths = 24

// Reasons and warnings attached to an eligibility decision.
const (
	ReasonInactive   = "registration is not active"
	ReasonUnknownAge = "registration date is unknown"
	ReasonTooNew     = "business has traded for less than 24 months"
	WarningNotGST    = "business is not registered for GST"
)

// Evaluate decides eligibility from a registry entry. A registration younger
// than MinTradingMonths is always ineligible; a missing GST registration only
// produces a warning.
func Evaluate(entry *domain.RegistryEntry, now time.Time) *domain.Eligibility {
	e := &domain.Eligibility{Eligible: true, CheckedAt: now.UTC()}
	if entry == nil {
		e.Eligible = false
		e.Reasons = append(e.Reasons, ReasonUnknownAge)
		return e
	}

	if !entry.Active() {
		e.Eligible = false
		e.Reasons = append(e.Reasons, ReasonInactive)
	}

	if entry.RegistrationDate.IsZero() {
		e.Eligible = false
		e.Reasons = append(e.Reasons, ReasonUnknownAge)
	} else {
		e.TradingMonths = MonthsBetween(entry.RegistrationDate, now)
		if e.TradingMonths < MinTradingMonths {
			e.Eligible = false
			e.Reasons = append(e.Reasons, fmt.Sprintf("%s (%d months)", ReasonTooNew, e.TradingMonths))
		}
	}

	if !entry.GSTRegistered {
		e.Warnings = append(e.Warnings, WarningNotGST)
	}
	return e
}

// MonthsBetween counts whole calendar months from start to end.
func MonthsBetween(start, end time.Time) int {
	if end.Before(start) {
		return 0
	}
	months := (end.Year()-start.Year())*12 + int(end.Month()) - int(start.Month())
	if end.Day() < start.Day() {
		months--
	}
	return months
}
