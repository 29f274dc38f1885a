package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Order lifecycle. PENDING is the only state cancellation is allowed from;
// CANCELLED and COMPLETED are terminal.
const (
	StatusPending   = "PENDING"
	StatusPaid      = "PAID"
	StatusCancelled = "CANCELLED"
	StatusCompleted = "COMPLETED"
)

type Passenger struct {
	Name           string    `json:"name"`
	Gender         int       `json:"gender"`
	BirthDate      time.Time `json:"birth_date"`
	PassportNumber string    `json:"passport_number"`
	Email          string    `json:"email"`
}

// PriceInfo is computed once at order creation and never recomputed.
type PriceInfo struct {
	BasePrice  float64 `bun:"base_price" json:"base_price"`
	Tax        float64 `bun:"tax" json:"tax"`
	TotalPrice float64 `bun:"total_price" json:"total_price"`
}

type PaymentInfo struct {
	Method        string    `bun:"method,nullzero" json:"method,omitempty"`
	TransactionID string    `bun:"transaction_id,nullzero" json:"transaction_id,omitempty"`
	PaidAt        time.Time `bun:"paid_at,nullzero" json:"paid_at,omitempty"`
}

// Order references its flight and schedule by id only; deleting a flight does
// not cascade to historical orders. SeatCount records the quantity reserved
// at creation so cancellation releases exactly that amount regardless of any
// later catalog changes.
type Order struct {
	bun.BaseModel `bun:"table:flight_orders"`

	OrderID     string      `bun:"order_id,pk" json:"order_id"`
	OrderNumber string      `bun:"order_number,notnull,unique" json:"order_number"`
	UserID      string      `bun:"user_id,notnull" json:"user_id"`
	FlightID    string      `bun:"flight_id,notnull" json:"flight_id"`
	ScheduleID  string      `bun:"schedule_id,notnull" json:"schedule_id"`
	Category    string      `bun:"category,notnull" json:"category"`
	Passengers  []Passenger `bun:"passengers,type:jsonb" json:"passengers"`
	SeatCount   int         `bun:"seat_count,notnull" json:"seat_count"`
	Price       PriceInfo   `bun:"embed:price_" json:"price"`
	Payment     PaymentInfo `bun:"embed:payment_" json:"payment"`
	Status      string      `bun:"status,notnull" json:"status"`
	CreatedAt   time.Time   `bun:"created_at,notnull" json:"created_at"`
	UpdatedAt   time.Time   `bun:"updated_at,nullzero" json:"updated_at"`
}
