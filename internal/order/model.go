package order

import (
	"time"

	"github.com/gofrs/uuid"
)

type Status string

// Status values the bot vocabulary uses. This layer only ever writes the
// default; advancement happens through UpdateStatus driven by admin actions.
const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
)

func (s Status) String() string {
	return string(s)
}

type Order struct {
	ID          uuid.UUID `json:"id"`
	TelegramID  int64     `json:"telegram_id"`
	OrderNumber string    `json:"order_number"`
	Cafe        string    `json:"cafe"`
	Name        string    `json:"name"`
	Gender      string    `json:"gender"`
	Phone       string    `json:"phone"`
	Time        string    `json:"time"`
	Food        string    `json:"food"`
	Place       string    `json:"place"`
	TotalItems  int       `json:"total_items"`
	TotalPrice  float64   `json:"total_price"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}
