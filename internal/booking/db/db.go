package db

import (
	"context"
	"database/sql"
	"errors"

	"ms-flights/internal/models"

	"github.com/uptrace/bun"
)

type DB struct {
	Bun *bun.DB
}

func (d *DB) CreateOrder(ctx context.Context, order *models.Order) error {
	_, err := d.Bun.NewInsert().Model(order).Exec(ctx)
	return err
}

func (d *DB) GetOrderByID(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	err := d.Bun.NewSelect().
		Model(&order).
		Where("order_id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// UpdateOrder persists the mutable order fields. PriceInfo is frozen at
// creation and deliberately not in the column list.
func (d *DB) UpdateOrder(ctx context.Context, order *models.Order) error {
	_, err := d.Bun.NewUpdate().
		Model(order).
		Column("status", "payment_method", "payment_transaction_id", "payment_paid_at", "updated_at").
		Where("order_id = ?", order.OrderID).
		Exec(ctx)
	return err
}

// GetPendingOrder returns the user's PENDING order for a flight+schedule, or
// nil when there is none. Backs the duplicate-booking guard together with the
// partial unique index from the migrations.
func (d *DB) GetPendingOrder(ctx context.Context, userID, flightID, scheduleID string) (*models.Order, error) {
	var order models.Order
	err := d.Bun.NewSelect().
		Model(&order).
		Where("user_id = ?", userID).
		Where("flight_id = ?", flightID).
		Where("schedule_id = ?", scheduleID).
		Where("status = ?", models.StatusPending).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (d *DB) GetOrdersByUser(ctx context.Context, userID string) ([]models.Order, error) {
	var orders []models.Order
	err := d.Bun.NewSelect().
		Model(&orders).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return orders, nil
}
