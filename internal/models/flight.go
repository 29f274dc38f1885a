package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Cabin categories. Each category has its own seat pool and base price.
const (
	CategoryEconomy  = "ECONOMY"
	CategoryBusiness = "BUSINESS"
	CategoryFirst    = "FIRST"
)

// CabinClass is one fare class inside a flight. Categories are unique within
// a flight.
type CabinClass struct {
	Category   string  `json:"category"`
	BasePrice  float64 `json:"base_price"`
	TotalSeats int     `json:"total_seats"`
}

// PeakSeasonPeriod is an inclusive [Start, End] date range with a fare
// multiplier. Periods are assumed non-overlapping; the first match wins.
type PeakSeasonPeriod struct {
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	Multiplier float64   `json:"multiplier"`
}

type EarlyBirdDiscount struct {
	DaysInAdvance int     `json:"days_in_advance"`
	Discount      float64 `json:"discount"`
}

type PriceRules struct {
	PeakSeasonDates   []PeakSeasonPeriod `json:"peak_season_dates"`
	HolidayMultiplier float64            `json:"holiday_multiplier"`
	EarlyBird         EarlyBirdDiscount  `json:"early_bird_discount"`
}

// DefaultPeakMultiplier applies to peak periods supplied without an explicit
// multiplier.
const DefaultPeakMultiplier = 1.2

// DefaultPriceRules mirrors the defaults applied when a flight is created
// without an explicit rule set.
func DefaultPriceRules() PriceRules {
	return PriceRules{
		HolidayMultiplier: 1.1,
		EarlyBird:         EarlyBirdDiscount{DaysInAdvance: 30, Discount: 0.9},
	}
}

// Flight is the aggregate root for a route, its cabin classes, its pricing
// policy and its schedules. Schedules and seat counters are owned by the
// flight and deleted with it.
type Flight struct {
	bun.BaseModel `bun:"table:flights"`

	ID              string       `bun:"id,pk" json:"id"`
	FlightNumber    string       `bun:"flight_number,notnull,unique" json:"flight_number"`
	DepartureCity   string       `bun:"departure_city,notnull" json:"departure_city"`
	ArrivalCity     string       `bun:"arrival_city,notnull" json:"arrival_city"`
	DurationMinutes int          `bun:"duration_minutes,notnull" json:"duration_minutes"`
	CabinClasses    []CabinClass `bun:"cabin_classes,type:jsonb" json:"cabin_classes"`
	PriceRules      PriceRules   `bun:"price_rules,type:jsonb" json:"price_rules"`
	CreatedAt       time.Time    `bun:"created_at,notnull" json:"created_at"`
	UpdatedAt       time.Time    `bun:"updated_at,nullzero" json:"updated_at"`
}

// CabinClass returns the cabin class for a category, or nil.
func (f *Flight) CabinClass(category string) *CabinClass {
	for i := range f.CabinClasses {
		if f.CabinClasses[i].Category == category {
			return &f.CabinClasses[i]
		}
	}
	return nil
}

// Schedule is one concrete departure instance of a flight. Both instants are
// timezone-normalized UTC, never naive local time. Arrival is always derived
// from departure + flight duration, never taken from caller input.
type Schedule struct {
	bun.BaseModel `bun:"table:schedules"`

	ID          string    `bun:"id,pk" json:"id"`
	FlightID    string    `bun:"flight_id,notnull" json:"flight_id"`
	DepartureAt time.Time `bun:"departure_at,notnull" json:"departure_at"`
	ArrivalAt   time.Time `bun:"arrival_at,notnull" json:"arrival_at"`
}

// SeatCount is the per-(schedule, category) availability counter. Reserve and
// release go through conditional updates so 0 <= available <= total always
// holds.
type SeatCount struct {
	bun.BaseModel `bun:"table:schedule_seats"`

	ScheduleID     string `bun:"schedule_id,pk" json:"schedule_id"`
	Category       string `bun:"category,pk" json:"category"`
	FlightID       string `bun:"flight_id,notnull" json:"flight_id"`
	AvailableSeats int    `bun:"available_seats,notnull" json:"available_seats"`
	TotalSeats     int    `bun:"total_seats,notnull" json:"total_seats"`
}
