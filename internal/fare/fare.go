package fare

import (
	"time"

	"ms-flights/internal/models"
)

// Compute returns the per-passenger fare for a cabin base price and a
// departure instant under the given pricing rules. It is a pure function:
// the caller supplies "now" and rounding is the caller's responsibility.
//
// Multipliers compose in a fixed order: peak season, weekend, early bird.
// All comparisons happen on UTC-normalized instants.
func Compute(basePrice float64, departure time.Time, rules models.PriceRules, now time.Time) float64 {
	if basePrice <= 0 {
		return 0
	}

	departure = departure.UTC()
	now = now.UTC()

	multiplier := 1.0

	// First matching peak period wins; stop scanning after it.
	for _, period := range rules.PeakSeasonDates {
		if !departure.Before(period.Start.UTC()) && !departure.After(period.End.UTC()) {
			multiplier *= period.Multiplier
			break
		}
	}

	if wd := departure.Weekday(); wd == time.Saturday || wd == time.Sunday {
		multiplier *= rules.HolidayMultiplier
	}

	// Early bird: exact-duration comparison against N whole days, not
	// calendar-day truncation.
	if rules.EarlyBird.DaysInAdvance > 0 {
		threshold := time.Duration(rules.EarlyBird.DaysInAdvance) * 24 * time.Hour
		if departure.Sub(now) >= threshold {
			multiplier *= rules.EarlyBird.Discount
		}
	}

	return basePrice * multiplier
}
