package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"ms-flights/internal/errs"
	"ms-flights/internal/fare"
	"ms-flights/internal/logger"
	"ms-flights/internal/models"
	"ms-flights/internal/utils"
)

type DBLayer interface {
	CreateOrder(ctx context.Context, order *models.Order) error
	GetOrderByID(ctx context.Context, id string) (*models.Order, error)
	UpdateOrder(ctx context.Context, order *models.Order) error
	GetPendingOrder(ctx context.Context, userID, flightID, scheduleID string) (*models.Order, error)
	GetOrdersByUser(ctx context.Context, userID string) ([]models.Order, error)
}

type SeatLedger interface {
	Reserve(ctx context.Context, scheduleID, category string, count int) error
	Release(ctx context.Context, scheduleID, category string, count int) error
}

type CatalogReader interface {
	GetFlight(ctx context.Context, flightID string) (*models.Flight, error)
	GetSchedule(ctx context.Context, flightID, scheduleID string) (*models.Schedule, error)
}

type BookingLock interface {
	LockBooking(ctx context.Context, userID, flightID, scheduleID string) (bool, error)
	UnlockBooking(ctx context.Context, userID, flightID, scheduleID string) error
}

type KafkaPublisher interface {
	PublishOrderCreated(order models.Order) error
	PublishOrderPaid(order models.Order) error
	PublishOrderCancelled(order models.Order) error
	PublishOrderCompleted(order models.Order) error
}

type PaymentProvider interface {
	CreatePayment(ctx context.Context, order models.Order) (string, error)
}

const taxRate = 0.10

// OrderService coordinates order creation and cancellation across the fare
// evaluator and the seat ledger, enforcing the order state machine.
type OrderService struct {
	DB       DBLayer
	Ledger   SeatLedger
	Catalog  CatalogReader
	Lock     BookingLock
	Kafka    KafkaPublisher
	Payments PaymentProvider
	Logger   *logger.Logger

	now func() time.Time
}

func NewOrderService(db DBLayer, seatLedger SeatLedger, catalog CatalogReader, lock BookingLock, kafka KafkaPublisher, payments PaymentProvider, log *logger.Logger) *OrderService {
	return &OrderService{
		DB:       db,
		Ledger:   seatLedger,
		Catalog:  catalog,
		Lock:     lock,
		Kafka:    kafka,
		Payments: payments,
		Logger:   log,
		now:      time.Now,
	}
}

type CreateOrderRequest struct {
	UserID     string             `json:"-"`
	FlightID   string             `json:"flight_id"`
	ScheduleID string             `json:"schedule_id"`
	Category   string             `json:"category"`
	Passengers []models.Passenger `json:"passengers"`
}

// CreateOrder reserves seats and persists a PENDING order with the fare
// frozen in. Creation per (user, flight, schedule) is serialized by the
// booking lock so the duplicate-pending guard cannot be raced; a failed
// persist rolls the reservation back before the error surfaces.
func (s *OrderService) CreateOrder(ctx context.Context, req CreateOrderRequest) (*models.Order, error) {
	if len(req.Passengers) == 0 {
		return nil, errors.New("at least one passenger is required")
	}

	flight, err := s.Catalog.GetFlight(ctx, req.FlightID)
	if err != nil {
		return nil, err
	}
	cabin := flight.CabinClass(req.Category)
	if cabin == nil {
		return nil, fmt.Errorf("cabin category %s on flight %s: %w", req.Category, flight.FlightNumber, errs.ErrNotFound)
	}
	schedule, err := s.Catalog.GetSchedule(ctx, req.FlightID, req.ScheduleID)
	if err != nil {
		return nil, err
	}

	ok, err := s.Lock.LockBooking(ctx, req.UserID, req.FlightID, req.ScheduleID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("booking already in progress for this schedule: %w", errs.ErrConflict)
	}
	defer func() {
		if err := s.Lock.UnlockBooking(ctx, req.UserID, req.FlightID, req.ScheduleID); err != nil {
			s.logWarn("ORDER", fmt.Sprintf("Failed to release booking lock: %v", err))
		}
	}()

	existing, err := s.DB.GetPendingOrder(ctx, req.UserID, req.FlightID, req.ScheduleID)
	if err != nil {
		return nil, fmt.Errorf("failed to check pending orders: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("pending order %s already exists for this schedule: %w", existing.OrderNumber, errs.ErrConflict)
	}

	// Rounding happens exactly once, here.
	passengerCount := len(req.Passengers)
	basePrice := math.Round(fare.Compute(cabin.BasePrice, schedule.DepartureAt, flight.PriceRules, s.now()))
	tax := math.Round(basePrice * taxRate)
	totalPrice := math.Round((basePrice + tax) * float64(passengerCount))

	if err := s.Ledger.Reserve(ctx, req.ScheduleID, req.Category, passengerCount); err != nil {
		return nil, err
	}

	order := models.Order{
		OrderID:     utils.GenerateID(),
		OrderNumber: utils.GenerateOrderNumber(),
		UserID:      req.UserID,
		FlightID:    req.FlightID,
		ScheduleID:  req.ScheduleID,
		Category:    req.Category,
		Passengers:  req.Passengers,
		SeatCount:   passengerCount,
		Price: models.PriceInfo{
			BasePrice:  basePrice,
			Tax:        tax,
			TotalPrice: totalPrice,
		},
		Status:    models.StatusPending,
		CreatedAt: s.now().UTC(),
	}

	if err := s.DB.CreateOrder(ctx, &order); err != nil {
		// A reservation must never be left outstanding without an order.
		if releaseErr := s.Ledger.Release(ctx, req.ScheduleID, req.Category, passengerCount); releaseErr != nil {
			s.logError("ORDER", fmt.Sprintf("Rollback release failed for schedule %s: %v", req.ScheduleID, releaseErr))
		}
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	s.logOrder("CREATE", order.OrderNumber, fmt.Sprintf("%d seats, %s, total %.0f", passengerCount, req.Category, totalPrice))

	if s.Kafka != nil {
		if err := s.Kafka.PublishOrderCreated(order); err != nil {
			s.logWarn("KAFKA", fmt.Sprintf("Publish error (order created): %v", err))
		}
	}

	return &order, nil
}

// CancelOrder transitions a PENDING order to CANCELLED and releases exactly
// the quantity reserved at creation, regardless of catalog changes since.
func (s *OrderService) CancelOrder(ctx context.Context, orderID, userID string) (*models.Order, error) {
	order, err := s.getOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, fmt.Errorf("order %s belongs to another user: %w", order.OrderNumber, errs.ErrForbidden)
	}
	if order.Status != models.StatusPending {
		return nil, fmt.Errorf("cannot cancel order in state %s: %w", order.Status, errs.ErrInvalidState)
	}

	order.Status = models.StatusCancelled
	order.UpdatedAt = s.now().UTC()
	if err := s.DB.UpdateOrder(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to cancel order: %w", err)
	}

	if err := s.Ledger.Release(ctx, order.ScheduleID, order.Category, order.SeatCount); err != nil {
		return nil, fmt.Errorf("order cancelled but seat release failed: %w", err)
	}

	s.logOrder("CANCEL", order.OrderNumber, fmt.Sprintf("released %d seats", order.SeatCount))

	if s.Kafka != nil {
		if err := s.Kafka.PublishOrderCancelled(*order); err != nil {
			s.logWarn("KAFKA", fmt.Sprintf("Publish error (order cancelled): %v", err))
		}
	}

	return order, nil
}

// PayOrder charges the order total through the payment provider and
// transitions PENDING -> PAID.
func (s *OrderService) PayOrder(ctx context.Context, orderID, userID, method string) (*models.Order, error) {
	order, err := s.getOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, fmt.Errorf("order %s belongs to another user: %w", order.OrderNumber, errs.ErrForbidden)
	}
	if order.Status != models.StatusPending {
		return nil, fmt.Errorf("cannot pay order in state %s: %w", order.Status, errs.ErrInvalidState)
	}
	if s.Payments == nil {
		return nil, errors.New("payment provider not configured")
	}

	transactionID, err := s.Payments.CreatePayment(ctx, *order)
	if err != nil {
		return nil, fmt.Errorf("payment failed: %w", err)
	}

	order.Status = models.StatusPaid
	order.Payment = models.PaymentInfo{
		Method:        method,
		TransactionID: transactionID,
		PaidAt:        s.now().UTC(),
	}
	order.UpdatedAt = s.now().UTC()
	if err := s.DB.UpdateOrder(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to mark order paid: %w", err)
	}

	s.logOrder("PAY", order.OrderNumber, fmt.Sprintf("transaction %s", transactionID))

	if s.Kafka != nil {
		if err := s.Kafka.PublishOrderPaid(*order); err != nil {
			s.logWarn("KAFKA", fmt.Sprintf("Publish error (order paid): %v", err))
		}
	}

	return order, nil
}

// CompleteOrder transitions PAID -> COMPLETED (terminal).
func (s *OrderService) CompleteOrder(ctx context.Context, orderID, userID string) (*models.Order, error) {
	order, err := s.getOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, fmt.Errorf("order %s belongs to another user: %w", order.OrderNumber, errs.ErrForbidden)
	}
	if order.Status != models.StatusPaid {
		return nil, fmt.Errorf("cannot complete order in state %s: %w", order.Status, errs.ErrInvalidState)
	}

	order.Status = models.StatusCompleted
	order.UpdatedAt = s.now().UTC()
	if err := s.DB.UpdateOrder(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to complete order: %w", err)
	}

	s.logOrder("COMPLETE", order.OrderNumber, "order completed")

	if s.Kafka != nil {
		if err := s.Kafka.PublishOrderCompleted(*order); err != nil {
			s.logWarn("KAFKA", fmt.Sprintf("Publish error (order completed): %v", err))
		}
	}

	return order, nil
}

func (s *OrderService) GetOrder(ctx context.Context, orderID string) (*models.Order, error) {
	return s.getOrder(ctx, orderID)
}

func (s *OrderService) ListOrdersForUser(ctx context.Context, userID string) ([]models.Order, error) {
	orders, err := s.DB.GetOrdersByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

func (s *OrderService) getOrder(ctx context.Context, orderID string) (*models.Order, error) {
	order, err := s.DB.GetOrderByID(ctx, orderID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("order %s: %w", orderID, errs.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load order: %w", err)
	}
	return order, nil
}

func (s *OrderService) logOrder(action, orderNumber, message string) {
	if s.Logger != nil {
		s.Logger.LogOrder(action, orderNumber, message)
	}
}

func (s *OrderService) logWarn(category, message string) {
	if s.Logger != nil {
		s.Logger.Warn(category, message)
	}
}

func (s *OrderService) logError(category, message string) {
	if s.Logger != nil {
		s.Logger.Error(category, message)
	}
}
