package fare_test

import (
	"testing"
	"time"

	"ms-flights/internal/fare"
	"ms-flights/internal/models"

	"github.com/stretchr/testify/assert"
)

func rulesWithPeak(start, end time.Time, mult float64) models.PriceRules {
	return models.PriceRules{
		PeakSeasonDates: []models.PeakSeasonPeriod{
			{Start: start, End: end, Multiplier: mult},
		},
		HolidayMultiplier: 1.1,
		EarlyBird:         models.EarlyBirdDiscount{DaysInAdvance: 30, Discount: 0.9},
	}
}

func TestComputeAllMultipliersStack(t *testing.T) {
	// Saturday inside a peak period, 40 days ahead of now:
	// 1000 * 1.2 * 1.1 * 0.9 = 1188
	departure := time.Date(2025, 7, 12, 10, 0, 0, 0, time.UTC) // Saturday
	now := departure.Add(-40 * 24 * time.Hour)
	rules := rulesWithPeak(
		time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 8, 31, 23, 59, 59, 0, time.UTC),
		1.2,
	)

	got := fare.Compute(1000, departure, rules, now)
	assert.InDelta(t, 1188.0, got, 1e-9)
}

func TestComputeIsDeterministic(t *testing.T) {
	departure := time.Date(2025, 7, 12, 10, 0, 0, 0, time.UTC)
	now := departure.Add(-40 * 24 * time.Hour)
	rules := rulesWithPeak(
		time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 8, 31, 0, 0, 0, 0, time.UTC),
		1.2,
	)

	first := fare.Compute(1000, departure, rules, now)
	second := fare.Compute(1000, departure, rules, now)
	assert.Equal(t, first, second)
}

func TestComputeFirstMatchingPeakPeriodWins(t *testing.T) {
	departure := time.Date(2025, 7, 15, 12, 0, 0, 0, time.UTC) // Tuesday
	rules := models.PriceRules{
		PeakSeasonDates: []models.PeakSeasonPeriod{
			{
				Start:      time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
				End:        time.Date(2025, 7, 31, 23, 59, 59, 0, time.UTC),
				Multiplier: 1.5,
			},
			{
				Start:      time.Date(2025, 7, 10, 0, 0, 0, 0, time.UTC),
				End:        time.Date(2025, 7, 20, 0, 0, 0, 0, time.UTC),
				Multiplier: 2.0,
			},
		},
		HolidayMultiplier: 1.1,
	}
	now := departure.Add(-24 * time.Hour)

	// Only the first overlapping period applies.
	got := fare.Compute(100, departure, rules, now)
	assert.InDelta(t, 150.0, got, 1e-9)
}

func TestComputePeakBoundsInclusive(t *testing.T) {
	start := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)  // Tuesday
	end := time.Date(2025, 7, 31, 0, 0, 0, 0, time.UTC)   // Thursday
	rules := models.PriceRules{
		PeakSeasonDates:   []models.PeakSeasonPeriod{{Start: start, End: end, Multiplier: 1.2}},
		HolidayMultiplier: 1.1,
	}
	now := start.Add(-time.Hour)

	assert.InDelta(t, 120.0, fare.Compute(100, start, rules, now), 1e-9)
	assert.InDelta(t, 120.0, fare.Compute(100, end, rules, now), 1e-9)
	assert.InDelta(t, 100.0, fare.Compute(100, end.Add(time.Second), rules, now), 1e-9)
}

func TestComputeWeekendUsesUTCWeekday(t *testing.T) {
	// Saturday 00:30 in UTC+8 is Friday 16:30 UTC: no weekend multiplier.
	taipei := time.FixedZone("UTC+8", 8*3600)
	departure := time.Date(2025, 7, 12, 0, 30, 0, 0, taipei)
	rules := models.PriceRules{HolidayMultiplier: 1.1}
	now := departure.Add(-time.Hour)

	assert.InDelta(t, 100.0, fare.Compute(100, departure, rules, now), 1e-9)

	// Saturday noon UTC gets it.
	assert.InDelta(t, 110.0,
		fare.Compute(100, time.Date(2025, 7, 12, 12, 0, 0, 0, time.UTC), rules, now), 1e-9)
}

func TestComputeEarlyBirdExactDurationBoundary(t *testing.T) {
	departure := time.Date(2025, 9, 2, 12, 0, 0, 0, time.UTC) // Tuesday
	rules := models.PriceRules{
		EarlyBird: models.EarlyBirdDiscount{DaysInAdvance: 30, Discount: 0.9},
	}

	// Exactly 30 whole days ahead: discount applies.
	now := departure.Add(-30 * 24 * time.Hour)
	assert.InDelta(t, 90.0, fare.Compute(100, departure, rules, now), 1e-9)

	// One second short of 30 days: no discount.
	now = departure.Add(-30*24*time.Hour + time.Second)
	assert.InDelta(t, 100.0, fare.Compute(100, departure, rules, now), 1e-9)
}

func TestComputeNonPositiveBasePrice(t *testing.T) {
	now := time.Now()
	assert.Zero(t, fare.Compute(0, now.Add(time.Hour), models.PriceRules{}, now))
	assert.Zero(t, fare.Compute(-10, now.Add(time.Hour), models.PriceRules{}, now))
}
