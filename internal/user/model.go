package user

import (
	"database/sql"
	"time"
)

// User types separate contract users, billed centrally by their department,
// from users who pay per order out of their balance.
const (
	TypeContract = "contract_user"
	TypeSingle   = "single_user"
)

type User struct {
	TelegramID int64          `json:"telegram_id"`
	Name       string         `json:"name"`
	Balance    float64        `json:"balance"`
	UserType   sql.NullString `json:"user_type"`
	CreatedAt  time.Time      `json:"created_at"`
}
