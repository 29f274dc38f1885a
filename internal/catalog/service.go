package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"ms-flights/internal/errs"
	"ms-flights/internal/geo"
	"ms-flights/internal/logger"
	"ms-flights/internal/models"

	"github.com/google/uuid"
)

type DBLayer interface {
	CreateFlight(ctx context.Context, flight *models.Flight) error
	GetFlightByID(ctx context.Context, id string) (*models.Flight, error)
	GetFlightByNumber(ctx context.Context, flightNumber string) (*models.Flight, error)
	UpdateFlight(ctx context.Context, flight *models.Flight) error
	DeleteFlight(ctx context.Context, id string) error
	ListFlights(ctx context.Context) ([]models.Flight, error)
	ListFlightsByRoute(ctx context.Context, departureCity, arrivalCity string) ([]models.Flight, error)
	InsertSchedules(ctx context.Context, schedules []models.Schedule) error
	UpdateSchedule(ctx context.Context, schedule *models.Schedule) error
	DeleteSchedulesForFlight(ctx context.Context, flightID string) error
	GetSchedule(ctx context.Context, scheduleID string) (*models.Schedule, error)
	ListSchedules(ctx context.Context, flightID string) ([]models.Schedule, error)
	ListSchedulesInWindow(ctx context.Context, flightID string, from, to time.Time) ([]models.Schedule, error)
}

type SeatLedger interface {
	InitSeats(ctx context.Context, flightID, scheduleID string, cabins []models.CabinClass) error
	SeatsForSchedule(ctx context.Context, scheduleID string) (map[string]int, error)
	DeleteForFlight(ctx context.Context, flightID string) error
}

type KafkaPublisher interface {
	PublishFlightCreated(flight models.Flight) error
	PublishFlightUpdated(flight models.Flight) error
	PublishFlightDeleted(flight models.Flight) error
}

// CatalogService owns flight metadata and schedule derivation. Timezone and
// coordinate lookups go through the injected resolver and happen before any
// row is written, never while a seat counter update is in flight.
type CatalogService struct {
	DB     DBLayer
	Ledger SeatLedger
	Geo    geo.Resolver
	Kafka  KafkaPublisher
	Logger *logger.Logger
}

func NewCatalogService(db DBLayer, seatLedger SeatLedger, resolver geo.Resolver, kafka KafkaPublisher, log *logger.Logger) *CatalogService {
	return &CatalogService{DB: db, Ledger: seatLedger, Geo: resolver, Kafka: kafka, Logger: log}
}

// ScheduleSpec carries a departure as wall-clock time in the departure
// city's zone ("2006-01-02T15:04"). Arrival instants are always derived,
// never accepted from the caller.
type ScheduleSpec struct {
	DepartureLocal string `json:"departure_local"`
}

type FlightSpec struct {
	FlightNumber    string              `json:"flight_number"`
	DepartureCity   string              `json:"departure_city"`
	ArrivalCity     string              `json:"arrival_city"`
	DurationMinutes int                 `json:"duration_minutes,omitempty"`
	CabinClasses    []models.CabinClass `json:"cabin_classes"`
	PriceRules      *models.PriceRules  `json:"price_rules,omitempty"`
	Schedules       []ScheduleSpec      `json:"schedules,omitempty"`
}

// FlightPatch enumerates the mutable flight fields. Nil means "leave alone";
// a non-nil Schedules slice replaces the schedule set wholesale.
type FlightPatch struct {
	DepartureCity *string             `json:"departure_city,omitempty"`
	ArrivalCity   *string             `json:"arrival_city,omitempty"`
	CabinClasses  []models.CabinClass `json:"cabin_classes,omitempty"`
	PriceRules    *models.PriceRules  `json:"price_rules,omitempty"`
	Schedules     []ScheduleSpec      `json:"schedules,omitempty"`
}

type ScheduleInfo struct {
	models.Schedule
	AvailableSeats map[string]int `json:"available_seats"`
}

type FlightDetail struct {
	models.Flight
	Schedules []ScheduleInfo `json:"schedules"`
}

// ListFilter is all-or-nothing: either every field is set or none.
type ListFilter struct {
	DepartureCity string `json:"departure_city,omitempty"`
	ArrivalCity   string `json:"arrival_city,omitempty"`
	StartDate     string `json:"start_date,omitempty"`
	EndDate       string `json:"end_date,omitempty"`
}

func (f ListFilter) empty() bool {
	return f.DepartureCity == "" && f.ArrivalCity == "" && f.StartDate == "" && f.EndDate == ""
}

func (f ListFilter) complete() bool {
	return f.DepartureCity != "" && f.ArrivalCity != "" && f.StartDate != "" && f.EndDate != ""
}

const departureLocalLayout = "2006-01-02T15:04"

func validateCabins(cabins []models.CabinClass) error {
	if len(cabins) == 0 {
		return errors.New("at least one cabin class is required")
	}
	seen := make(map[string]bool, len(cabins))
	for _, cabin := range cabins {
		switch cabin.Category {
		case models.CategoryEconomy, models.CategoryBusiness, models.CategoryFirst:
		default:
			return fmt.Errorf("unknown cabin category %q", cabin.Category)
		}
		if seen[cabin.Category] {
			return fmt.Errorf("duplicate cabin category %q", cabin.Category)
		}
		seen[cabin.Category] = true
		if cabin.BasePrice <= 0 {
			return fmt.Errorf("cabin %s: base price must be positive", cabin.Category)
		}
		if cabin.TotalSeats <= 0 {
			return fmt.Errorf("cabin %s: total seats must be positive", cabin.Category)
		}
	}
	return nil
}

// normalizeRules back-fills omitted pricing fields from the defaults and
// rejects values that could drive a fare to zero or below. A fare multiplier
// of exactly 0 always means "field omitted", never "free".
func normalizeRules(rules models.PriceRules) (models.PriceRules, error) {
	defaults := models.DefaultPriceRules()

	if rules.HolidayMultiplier == 0 {
		rules.HolidayMultiplier = defaults.HolidayMultiplier
	}
	if rules.HolidayMultiplier < 0 {
		return models.PriceRules{}, errors.New("holiday multiplier must be positive")
	}

	if rules.EarlyBird == (models.EarlyBirdDiscount{}) {
		rules.EarlyBird = defaults.EarlyBird
	}
	if rules.EarlyBird.DaysInAdvance < 0 {
		return models.PriceRules{}, errors.New("early bird days in advance cannot be negative")
	}
	if rules.EarlyBird.DaysInAdvance > 0 {
		if rules.EarlyBird.Discount == 0 {
			rules.EarlyBird.Discount = defaults.EarlyBird.Discount
		}
		if rules.EarlyBird.Discount < 0 || rules.EarlyBird.Discount > 1 {
			return models.PriceRules{}, errors.New("early bird discount must be in (0, 1]")
		}
	}

	periods := make([]models.PeakSeasonPeriod, len(rules.PeakSeasonDates))
	copy(periods, rules.PeakSeasonDates)
	for i := range periods {
		if periods[i].Multiplier == 0 {
			periods[i].Multiplier = models.DefaultPeakMultiplier
		}
		if periods[i].Multiplier < 0 {
			return models.PriceRules{}, fmt.Errorf("peak period %d: multiplier must be positive", i)
		}
		if periods[i].End.Before(periods[i].Start) {
			return models.PriceRules{}, fmt.Errorf("peak period %d: end precedes start", i)
		}
	}
	rules.PeakSeasonDates = periods

	return rules, nil
}

// resolveRoute resolves both cities and returns the departure city's
// location. Unresolvable cities fail the whole call; a naive time is never
// stored.
func (s *CatalogService) resolveRoute(ctx context.Context, departureCity, arrivalCity string) (*time.Location, error) {
	depTZ, err := s.Geo.ResolveTimezone(ctx, departureCity)
	if err != nil {
		return nil, err
	}
	if _, err := s.Geo.ResolveTimezone(ctx, arrivalCity); err != nil {
		return nil, err
	}

	loc, err := time.LoadLocation(depTZ)
	if err != nil {
		return nil, fmt.Errorf("bad timezone %q for city %q: %w", depTZ, departureCity, errs.ErrUnresolvableLocation)
	}
	return loc, nil
}

// deriveDuration estimates the flight duration from the cities' great-circle
// distance at cruise speed. The result is cached on the route, not recomputed
// per schedule.
func (s *CatalogService) deriveDuration(ctx context.Context, departureCity, arrivalCity string) (int, error) {
	from, err := s.Geo.Coordinates(ctx, departureCity)
	if err != nil {
		return 0, err
	}
	to, err := s.Geo.Coordinates(ctx, arrivalCity)
	if err != nil {
		return 0, err
	}
	return geo.FlightDurationMinutes(geo.Distance(from, to)), nil
}

// buildSchedules converts wall-clock departures to UTC in the departure
// city's zone and derives arrivals from the flight duration.
func buildSchedules(flightID string, specs []ScheduleSpec, loc *time.Location, durationMinutes int) ([]models.Schedule, error) {
	schedules := make([]models.Schedule, 0, len(specs))
	for _, spec := range specs {
		local, err := time.ParseInLocation(departureLocalLayout, spec.DepartureLocal, loc)
		if err != nil {
			return nil, fmt.Errorf("bad departure time %q: %w", spec.DepartureLocal, err)
		}
		departureUTC := local.UTC()
		schedules = append(schedules, models.Schedule{
			ID:          uuid.NewString(),
			FlightID:    flightID,
			DepartureAt: departureUTC,
			ArrivalAt:   departureUTC.Add(time.Duration(durationMinutes) * time.Minute),
		})
	}
	return schedules, nil
}

func (s *CatalogService) Create(ctx context.Context, spec FlightSpec) (*FlightDetail, error) {
	if spec.FlightNumber == "" {
		return nil, errors.New("flight number is required")
	}
	if err := validateCabins(spec.CabinClasses); err != nil {
		return nil, err
	}

	existing, err := s.DB.GetFlightByNumber(ctx, spec.FlightNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to check flight number: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("flight number %s already exists: %w", spec.FlightNumber, errs.ErrConflict)
	}

	loc, err := s.resolveRoute(ctx, spec.DepartureCity, spec.ArrivalCity)
	if err != nil {
		return nil, err
	}

	duration := spec.DurationMinutes
	if duration <= 0 {
		duration, err = s.deriveDuration(ctx, spec.DepartureCity, spec.ArrivalCity)
		if err != nil {
			return nil, err
		}
	}

	rules := models.DefaultPriceRules()
	if spec.PriceRules != nil {
		rules, err = normalizeRules(*spec.PriceRules)
		if err != nil {
			return nil, err
		}
	}

	flight := models.Flight{
		ID:              uuid.NewString(),
		FlightNumber:    spec.FlightNumber,
		DepartureCity:   spec.DepartureCity,
		ArrivalCity:     spec.ArrivalCity,
		DurationMinutes: duration,
		CabinClasses:    spec.CabinClasses,
		PriceRules:      rules,
		CreatedAt:       time.Now().UTC(),
	}

	schedules, err := buildSchedules(flight.ID, spec.Schedules, loc, duration)
	if err != nil {
		return nil, err
	}

	if err := s.DB.CreateFlight(ctx, &flight); err != nil {
		return nil, fmt.Errorf("failed to create flight: %w", err)
	}
	if err := s.DB.InsertSchedules(ctx, schedules); err != nil {
		return nil, fmt.Errorf("failed to create schedules: %w", err)
	}
	for _, schedule := range schedules {
		if err := s.Ledger.InitSeats(ctx, flight.ID, schedule.ID, flight.CabinClasses); err != nil {
			return nil, fmt.Errorf("failed to seed seat counters: %w", err)
		}
	}

	s.logInfo("CATALOG", fmt.Sprintf("Created flight %s (%s -> %s, %d min, %d schedules)",
		flight.FlightNumber, flight.DepartureCity, flight.ArrivalCity, duration, len(schedules)))

	if s.Kafka != nil {
		if err := s.Kafka.PublishFlightCreated(flight); err != nil {
			s.logWarn("KAFKA", fmt.Sprintf("Publish error (flight created): %v", err))
		}
	}

	return s.detail(ctx, &flight)
}

func (s *CatalogService) Get(ctx context.Context, flightID string) (*FlightDetail, error) {
	flight, err := s.getFlight(ctx, flightID)
	if err != nil {
		return nil, err
	}
	return s.detail(ctx, flight)
}

func (s *CatalogService) getFlight(ctx context.Context, flightID string) (*models.Flight, error) {
	flight, err := s.DB.GetFlightByID(ctx, flightID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("flight %s: %w", flightID, errs.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load flight: %w", err)
	}
	return flight, nil
}

func (s *CatalogService) detail(ctx context.Context, flight *models.Flight) (*FlightDetail, error) {
	schedules, err := s.DB.ListSchedules(ctx, flight.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load schedules: %w", err)
	}

	infos := make([]ScheduleInfo, 0, len(schedules))
	for _, schedule := range schedules {
		seats, err := s.Ledger.SeatsForSchedule(ctx, schedule.ID)
		if err != nil {
			return nil, err
		}
		infos = append(infos, ScheduleInfo{Schedule: schedule, AvailableSeats: seats})
	}
	return &FlightDetail{Flight: *flight, Schedules: infos}, nil
}

func (s *CatalogService) Update(ctx context.Context, flightID string, patch FlightPatch) (*FlightDetail, error) {
	flight, err := s.getFlight(ctx, flightID)
	if err != nil {
		return nil, err
	}

	routeChanged := false
	if patch.DepartureCity != nil && *patch.DepartureCity != flight.DepartureCity {
		flight.DepartureCity = *patch.DepartureCity
		routeChanged = true
	}
	if patch.ArrivalCity != nil && *patch.ArrivalCity != flight.ArrivalCity {
		flight.ArrivalCity = *patch.ArrivalCity
		routeChanged = true
	}
	if patch.CabinClasses != nil {
		if err := validateCabins(patch.CabinClasses); err != nil {
			return nil, err
		}
		flight.CabinClasses = patch.CabinClasses
	}
	if patch.PriceRules != nil {
		rules, err := normalizeRules(*patch.PriceRules)
		if err != nil {
			return nil, err
		}
		flight.PriceRules = rules
	}

	// Route and schedule changes need the departure city's zone re-resolved
	// before anything is persisted; a pure price or cabin patch must not
	// depend on the geo service at all.
	var loc *time.Location
	if routeChanged || patch.Schedules != nil {
		loc, err = s.resolveRoute(ctx, flight.DepartureCity, flight.ArrivalCity)
		if err != nil {
			return nil, err
		}
	}
	if routeChanged {
		duration, err := s.deriveDuration(ctx, flight.DepartureCity, flight.ArrivalCity)
		if err != nil {
			return nil, err
		}
		flight.DurationMinutes = duration
	}

	flight.UpdatedAt = time.Now().UTC()
	if err := s.DB.UpdateFlight(ctx, flight); err != nil {
		return nil, fmt.Errorf("failed to update flight: %w", err)
	}

	switch {
	case patch.Schedules != nil:
		// Replace the schedule set wholesale, counters included.
		schedules, err := buildSchedules(flight.ID, patch.Schedules, loc, flight.DurationMinutes)
		if err != nil {
			return nil, err
		}
		if err := s.DB.DeleteSchedulesForFlight(ctx, flight.ID); err != nil {
			return nil, fmt.Errorf("failed to replace schedules: %w", err)
		}
		if err := s.Ledger.DeleteForFlight(ctx, flight.ID); err != nil {
			return nil, err
		}
		if err := s.DB.InsertSchedules(ctx, schedules); err != nil {
			return nil, fmt.Errorf("failed to replace schedules: %w", err)
		}
		for _, schedule := range schedules {
			if err := s.Ledger.InitSeats(ctx, flight.ID, schedule.ID, flight.CabinClasses); err != nil {
				return nil, fmt.Errorf("failed to seed seat counters: %w", err)
			}
		}
	case routeChanged:
		// Departure instants stand; arrivals are re-derived from the new
		// duration.
		schedules, err := s.DB.ListSchedules(ctx, flight.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load schedules: %w", err)
		}
		for i := range schedules {
			schedules[i].ArrivalAt = schedules[i].DepartureAt.Add(time.Duration(flight.DurationMinutes) * time.Minute)
			if err := s.DB.UpdateSchedule(ctx, &schedules[i]); err != nil {
				return nil, fmt.Errorf("failed to update schedule arrival: %w", err)
			}
		}
	}

	s.logInfo("CATALOG", fmt.Sprintf("Updated flight %s", flight.FlightNumber))

	if s.Kafka != nil {
		if err := s.Kafka.PublishFlightUpdated(*flight); err != nil {
			s.logWarn("KAFKA", fmt.Sprintf("Publish error (flight updated): %v", err))
		}
	}

	return s.detail(ctx, flight)
}

// Delete removes the flight and everything it owns. Historical orders
// reference the flight by id only and survive.
func (s *CatalogService) Delete(ctx context.Context, flightID string) error {
	flight, err := s.getFlight(ctx, flightID)
	if err != nil {
		return err
	}

	if err := s.DB.DeleteSchedulesForFlight(ctx, flightID); err != nil {
		return fmt.Errorf("failed to delete schedules: %w", err)
	}
	if err := s.Ledger.DeleteForFlight(ctx, flightID); err != nil {
		return err
	}
	if err := s.DB.DeleteFlight(ctx, flightID); err != nil {
		return fmt.Errorf("failed to delete flight: %w", err)
	}

	s.logInfo("CATALOG", fmt.Sprintf("Deleted flight %s", flight.FlightNumber))

	if s.Kafka != nil {
		if err := s.Kafka.PublishFlightDeleted(*flight); err != nil {
			s.logWarn("KAFKA", fmt.Sprintf("Publish error (flight deleted): %v", err))
		}
	}
	return nil
}

// List returns flights with their schedules. The filter must be fully
// specified or fully empty; the date window is interpreted as local days in
// the departure city's timezone and converted once to a UTC range.
func (s *CatalogService) List(ctx context.Context, filter ListFilter) ([]FlightDetail, error) {
	if !filter.empty() && !filter.complete() {
		return nil, errors.New("filter requires departure city, arrival city, start date and end date together")
	}

	if filter.empty() {
		flights, err := s.DB.ListFlights(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list flights: %w", err)
		}
		details := make([]FlightDetail, 0, len(flights))
		for i := range flights {
			detail, err := s.detail(ctx, &flights[i])
			if err != nil {
				return nil, err
			}
			details = append(details, *detail)
		}
		return details, nil
	}

	depTZ, err := s.Geo.ResolveTimezone(ctx, filter.DepartureCity)
	if err != nil {
		return nil, err
	}
	loc, err := time.LoadLocation(depTZ)
	if err != nil {
		return nil, fmt.Errorf("bad timezone %q: %w", depTZ, errs.ErrUnresolvableLocation)
	}

	start, err := time.ParseInLocation("2006-01-02", filter.StartDate, loc)
	if err != nil {
		return nil, fmt.Errorf("bad start date %q: %w", filter.StartDate, err)
	}
	end, err := time.ParseInLocation("2006-01-02", filter.EndDate, loc)
	if err != nil {
		return nil, fmt.Errorf("bad end date %q: %w", filter.EndDate, err)
	}
	from := start.UTC()
	to := end.AddDate(0, 0, 1).UTC()

	flights, err := s.DB.ListFlightsByRoute(ctx, filter.DepartureCity, filter.ArrivalCity)
	if err != nil {
		return nil, fmt.Errorf("failed to list flights: %w", err)
	}

	details := make([]FlightDetail, 0, len(flights))
	for i := range flights {
		schedules, err := s.DB.ListSchedulesInWindow(ctx, flights[i].ID, from, to)
		if err != nil {
			return nil, fmt.Errorf("failed to load schedules: %w", err)
		}
		if len(schedules) == 0 {
			continue
		}
		infos := make([]ScheduleInfo, 0, len(schedules))
		for _, schedule := range schedules {
			seats, err := s.Ledger.SeatsForSchedule(ctx, schedule.ID)
			if err != nil {
				return nil, err
			}
			infos = append(infos, ScheduleInfo{Schedule: schedule, AvailableSeats: seats})
		}
		details = append(details, FlightDetail{Flight: flights[i], Schedules: infos})
	}
	return details, nil
}

// GetSchedule loads one schedule of a flight for the booking path.
func (s *CatalogService) GetSchedule(ctx context.Context, flightID, scheduleID string) (*models.Schedule, error) {
	schedule, err := s.DB.GetSchedule(ctx, scheduleID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("schedule %s: %w", scheduleID, errs.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load schedule: %w", err)
	}
	if schedule.FlightID != flightID {
		return nil, fmt.Errorf("schedule %s does not belong to flight %s: %w", scheduleID, flightID, errs.ErrNotFound)
	}
	return schedule, nil
}

// GetFlight exposes the bare aggregate for the booking path.
func (s *CatalogService) GetFlight(ctx context.Context, flightID string) (*models.Flight, error) {
	return s.getFlight(ctx, flightID)
}

func (s *CatalogService) logInfo(category, message string) {
	if s.Logger != nil {
		s.Logger.Info(category, message)
	}
}

func (s *CatalogService) logWarn(category, message string) {
	if s.Logger != nil {
		s.Logger.Warn(category, message)
	}
}
