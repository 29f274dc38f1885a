package ledger_test

import (
	"context"
	"database/sql"
	"sync"
	"testing"

	"ms-flights/internal/errs"
	"ms-flights/internal/ledger"
	"ms-flights/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	_ "github.com/uptrace/bun/driver/sqliteshim"
)

func setupLedger(t *testing.T) (*ledger.Ledger, *bun.DB) {
	sqldb, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to connect to in-memory database: %v", err)
	}
	// A single connection keeps every goroutine on the same in-memory DB.
	sqldb.SetMaxOpenConns(1)

	bunDB := bun.NewDB(sqldb, sqlitedialect.New())

	_, err = bunDB.NewCreateTable().Model((*models.SeatCount)(nil)).Exec(context.Background())
	if err != nil {
		t.Fatalf("Failed to create seat count table: %v", err)
	}

	return ledger.New(bunDB), bunDB
}

func seedSeats(t *testing.T, l *ledger.Ledger, scheduleID string, economy int) {
	err := l.InitSeats(context.Background(), "flight-1", scheduleID, []models.CabinClass{
		{Category: models.CategoryEconomy, BasePrice: 1000, TotalSeats: economy},
		{Category: models.CategoryBusiness, BasePrice: 3000, TotalSeats: 4},
	})
	if err != nil {
		t.Fatalf("Failed to seed seats: %v", err)
	}
}

func TestReserveAndRelease(t *testing.T) {
	l, bunDB := setupLedger(t)
	defer bunDB.Close()
	seedSeats(t, l, "sched-1", 10)

	ctx := context.Background()

	err := l.Reserve(ctx, "sched-1", models.CategoryEconomy, 3)
	assert.NoError(t, err)

	available, err := l.Available(ctx, "sched-1", models.CategoryEconomy)
	assert.NoError(t, err)
	assert.Equal(t, 7, available)

	// Round trip restores the counter exactly.
	err = l.Release(ctx, "sched-1", models.CategoryEconomy, 3)
	assert.NoError(t, err)

	available, err = l.Available(ctx, "sched-1", models.CategoryEconomy)
	assert.NoError(t, err)
	assert.Equal(t, 10, available)
}

func TestReserveInsufficientSeats(t *testing.T) {
	l, bunDB := setupLedger(t)
	defer bunDB.Close()
	seedSeats(t, l, "sched-1", 2)

	ctx := context.Background()

	err := l.Reserve(ctx, "sched-1", models.CategoryEconomy, 3)
	assert.ErrorIs(t, err, errs.ErrInsufficientSeats)

	// The failed reserve must not have touched the counter.
	available, err := l.Available(ctx, "sched-1", models.CategoryEconomy)
	assert.NoError(t, err)
	assert.Equal(t, 2, available)

	// Unknown schedule reads as sold out, not as an infra fault.
	err = l.Reserve(ctx, "missing", models.CategoryEconomy, 1)
	assert.ErrorIs(t, err, errs.ErrInsufficientSeats)
}

func TestReleaseSaturatesAtTotal(t *testing.T) {
	l, bunDB := setupLedger(t)
	defer bunDB.Close()
	seedSeats(t, l, "sched-1", 10)

	ctx := context.Background()

	err := l.Release(ctx, "sched-1", models.CategoryEconomy, 5)
	assert.NoError(t, err)

	available, err := l.Available(ctx, "sched-1", models.CategoryEconomy)
	assert.NoError(t, err)
	assert.Equal(t, 10, available)
}

func TestConcurrentReservesNeverOversell(t *testing.T) {
	l, bunDB := setupLedger(t)
	defer bunDB.Close()

	const totalSeats = 5
	const attempts = 20
	seedSeats(t, l, "sched-1", totalSeats)

	var wg sync.WaitGroup
	results := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- l.Reserve(context.Background(), "sched-1", models.CategoryEconomy, 1)
		}()
	}
	wg.Wait()
	close(results)

	var succeeded, soldOut int
	for err := range results {
		switch {
		case err == nil:
			succeeded++
		case assert.ErrorIs(t, err, errs.ErrInsufficientSeats):
			soldOut++
		}
	}

	assert.Equal(t, totalSeats, succeeded)
	assert.Equal(t, attempts-totalSeats, soldOut)

	available, err := l.Available(context.Background(), "sched-1", models.CategoryEconomy)
	assert.NoError(t, err)
	assert.Equal(t, 0, available)
}

func TestInitSeatsReplacesCounters(t *testing.T) {
	l, bunDB := setupLedger(t)
	defer bunDB.Close()
	seedSeats(t, l, "sched-1", 10)

	ctx := context.Background()
	assert.NoError(t, l.Reserve(ctx, "sched-1", models.CategoryEconomy, 4))

	// Rebuilding the schedule resets availability from cabin totals.
	err := l.InitSeats(ctx, "flight-1", "sched-1", []models.CabinClass{
		{Category: models.CategoryEconomy, BasePrice: 1000, TotalSeats: 6},
	})
	assert.NoError(t, err)

	seats, err := l.SeatsForSchedule(ctx, "sched-1")
	assert.NoError(t, err)
	assert.Equal(t, map[string]int{models.CategoryEconomy: 6}, seats)
}
