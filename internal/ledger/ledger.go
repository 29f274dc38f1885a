package ledger

import (
	"context"
	"fmt"

	"ms-flights/internal/errs"
	"ms-flights/internal/models"

	"github.com/uptrace/bun"
)

// Ledger owns the per-(schedule, category) seat counters. Reserve and Release
// are single conditional UPDATEs, so the check-and-adjust is atomic at the
// storage layer and no application lock is held across it.
type Ledger struct {
	Bun *bun.DB
}

func New(bunDB *bun.DB) *Ledger {
	return &Ledger{Bun: bunDB}
}

// InitSeats installs counters for a schedule from the flight's cabin classes,
// replacing any previous counters for that schedule.
func (l *Ledger) InitSeats(ctx context.Context, flightID, scheduleID string, cabins []models.CabinClass) error {
	_, err := l.Bun.NewDelete().
		Model((*models.SeatCount)(nil)).
		Where("schedule_id = ?", scheduleID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to clear seat counters: %w", err)
	}

	counts := make([]models.SeatCount, 0, len(cabins))
	for _, cabin := range cabins {
		counts = append(counts, models.SeatCount{
			ScheduleID:     scheduleID,
			Category:       cabin.Category,
			FlightID:       flightID,
			AvailableSeats: cabin.TotalSeats,
			TotalSeats:     cabin.TotalSeats,
		})
	}
	if len(counts) == 0 {
		return nil
	}

	_, err = l.Bun.NewInsert().Model(&counts).Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to insert seat counters: %w", err)
	}
	return nil
}

// Reserve decrements available seats iff enough remain. The conditional
// UPDATE guarantees two concurrent reservations can never drive the counter
// below zero; a sold-out category is a typed ErrInsufficientSeats, not an
// infra fault.
func (l *Ledger) Reserve(ctx context.Context, scheduleID, category string, count int) error {
	if count <= 0 {
		return fmt.Errorf("reserve count must be positive, got %d", count)
	}

	res, err := l.Bun.NewUpdate().
		Model((*models.SeatCount)(nil)).
		Set("available_seats = available_seats - ?", count).
		Where("schedule_id = ?", scheduleID).
		Where("category = ?", category).
		Where("available_seats >= ?", count).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to reserve seats: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read reserve result: %w", err)
	}
	if rows == 0 {
		return errs.ErrInsufficientSeats
	}
	return nil
}

// Release increments available seats, saturating at total_seats. Callers only
// release what they previously reserved; the saturation guard keeps the
// invariant even if a counter was rebuilt smaller in between.
func (l *Ledger) Release(ctx context.Context, scheduleID, category string, count int) error {
	if count <= 0 {
		return fmt.Errorf("release count must be positive, got %d", count)
	}

	_, err := l.Bun.NewUpdate().
		Model((*models.SeatCount)(nil)).
		Set("available_seats = CASE WHEN available_seats + ? > total_seats THEN total_seats ELSE available_seats + ? END", count, count).
		Where("schedule_id = ?", scheduleID).
		Where("category = ?", category).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to release seats: %w", err)
	}
	return nil
}

// Available returns the current counter for one category.
func (l *Ledger) Available(ctx context.Context, scheduleID, category string) (int, error) {
	var count models.SeatCount
	err := l.Bun.NewSelect().
		Model(&count).
		Where("schedule_id = ?", scheduleID).
		Where("category = ?", category).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to read seat counter: %w", err)
	}
	return count.AvailableSeats, nil
}

// SeatsForSchedule returns all counters of one schedule, keyed by category.
func (l *Ledger) SeatsForSchedule(ctx context.Context, scheduleID string) (map[string]int, error) {
	var counts []models.SeatCount
	err := l.Bun.NewSelect().
		Model(&counts).
		Where("schedule_id = ?", scheduleID).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read seat counters: %w", err)
	}

	seats := make(map[string]int, len(counts))
	for _, c := range counts {
		seats[c.Category] = c.AvailableSeats
	}
	return seats, nil
}

// DeleteForFlight removes all counters owned by a flight (catalog delete).
func (l *Ledger) DeleteForFlight(ctx context.Context, flightID string) error {
	_, err := l.Bun.NewDelete().
		Model((*models.SeatCount)(nil)).
		Where("flight_id = ?", flightID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete seat counters: %w", err)
	}
	return nil
}
