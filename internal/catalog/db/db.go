package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"ms-flights/internal/models"

	"github.com/uptrace/bun"
)

type DB struct {
	Bun *bun.DB
}

// ---------------- FLIGHTS ----------------

func (d *DB) CreateFlight(ctx context.Context, flight *models.Flight) error {
	_, err := d.Bun.NewInsert().Model(flight).Exec(ctx)
	return err
}

func (d *DB) GetFlightByID(ctx context.Context, id string) (*models.Flight, error) {
	var flight models.Flight
	err := d.Bun.NewSelect().
		Model(&flight).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &flight, nil
}

// GetFlightByNumber returns nil without error when no flight carries the
// number, so the caller can distinguish a collision check from an infra
// fault.
func (d *DB) GetFlightByNumber(ctx context.Context, flightNumber string) (*models.Flight, error) {
	var flight models.Flight
	err := d.Bun.NewSelect().
		Model(&flight).
		Where("flight_number = ?", flightNumber).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &flight, nil
}

func (d *DB) UpdateFlight(ctx context.Context, flight *models.Flight) error {
	_, err := d.Bun.NewUpdate().
		Model(flight).
		Column("departure_city", "arrival_city", "duration_minutes", "cabin_classes", "price_rules", "updated_at").
		Where("id = ?", flight.ID).
		Exec(ctx)
	return err
}

func (d *DB) DeleteFlight(ctx context.Context, id string) error {
	_, err := d.Bun.NewDelete().
		Model((*models.Flight)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	return err
}

func (d *DB) ListFlights(ctx context.Context) ([]models.Flight, error) {
	var flights []models.Flight
	err := d.Bun.NewSelect().
		Model(&flights).
		Order("flight_number").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return flights, nil
}

func (d *DB) ListFlightsByRoute(ctx context.Context, departureCity, arrivalCity string) ([]models.Flight, error) {
	var flights []models.Flight
	err := d.Bun.NewSelect().
		Model(&flights).
		Where("departure_city = ?", departureCity).
		Where("arrival_city = ?", arrivalCity).
		Order("flight_number").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return flights, nil
}

// ---------------- SCHEDULES ----------------

func (d *DB) InsertSchedules(ctx context.Context, schedules []models.Schedule) error {
	if len(schedules) == 0 {
		return nil
	}
	_, err := d.Bun.NewInsert().Model(&schedules).Exec(ctx)
	return err
}

func (d *DB) UpdateSchedule(ctx context.Context, schedule *models.Schedule) error {
	_, err := d.Bun.NewUpdate().
		Model(schedule).
		Column("departure_at", "arrival_at").
		Where("id = ?", schedule.ID).
		Exec(ctx)
	return err
}

func (d *DB) DeleteSchedulesForFlight(ctx context.Context, flightID string) error {
	_, err := d.Bun.NewDelete().
		Model((*models.Schedule)(nil)).
		Where("flight_id = ?", flightID).
		Exec(ctx)
	return err
}

func (d *DB) GetSchedule(ctx context.Context, scheduleID string) (*models.Schedule, error) {
	var schedule models.Schedule
	err := d.Bun.NewSelect().
		Model(&schedule).
		Where("id = ?", scheduleID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &schedule, nil
}

func (d *DB) ListSchedules(ctx context.Context, flightID string) ([]models.Schedule, error) {
	var schedules []models.Schedule
	err := d.Bun.NewSelect().
		Model(&schedules).
		Where("flight_id = ?", flightID).
		Order("departure_at").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return schedules, nil
}

// ListSchedulesInWindow returns a flight's schedules departing inside the
// half-open UTC range [from, to).
func (d *DB) ListSchedulesInWindow(ctx context.Context, flightID string, from, to time.Time) ([]models.Schedule, error) {
	var schedules []models.Schedule
	err := d.Bun.NewSelect().
		Model(&schedules).
		Where("flight_id = ?", flightID).
		Where("departure_at >= ?", from).
		Where("departure_at < ?", to).
		Order("departure_at").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return schedules, nil
}
