package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"campus-delivery-bot/internal/db"
)

var (
	ErrUserExists   = errors.New("user already exists")
	ErrUserNotFound = errors.New("user not found")
)

type Repository interface {
	Exists(ctx context.Context, telegramID int64) (bool, error)
	GetByID(ctx context.Context, telegramID int64) (*User, error)
	GetBalance(ctx context.Context, telegramID int64) (float64, error)
	UpdateBalance(ctx context.Context, telegramID int64, newBalance float64) error
	Create(ctx context.Context, u *User) error
}

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

// Exists reports whether a user row is present. Absence is a plain false,
// never an error.
func (r *postgresRepository) Exists(ctx context.Context, telegramID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE telegram_id = $1)`,
		telegramID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("repository: failed to check user %d: %w", telegramID, err)
	}
	return exists, nil
}

func (r *postgresRepository) GetByID(ctx context.Context, telegramID int64) (*User, error) {
	var u User
	err := r.db.QueryRow(ctx,
		`SELECT telegram_id, name, COALESCE(balance, 0), user_type, created_at
		 FROM users
		 WHERE telegram_id = $1`,
		telegramID,
	).Scan(&u.TelegramID, &u.Name, &u.Balance, &u.UserType, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("repository: failed to select user %d: %w", telegramID, err)
	}
	return &u, nil
}

// GetBalance returns 0 for an unknown user or a NULL balance.
func (r *postgresRepository) GetBalance(ctx context.Context, telegramID int64) (float64, error) {
	var balance float64
	err := r.db.QueryRow(ctx,
		`SELECT COALESCE(balance, 0) FROM users WHERE telegram_id = $1`,
		telegramID,
	).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("repository: failed to get balance for user %d: %w", telegramID, err)
	}
	return balance, nil
}

// UpdateBalance overwrites the stored balance unconditionally. An unknown
// telegram ID matches no rows and is not an error; callers must not assume
// the update happened.
func (r *postgresRepository) UpdateBalance(ctx context.Context, telegramID int64, newBalance float64) error {
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE users SET balance = $1 WHERE telegram_id = $2`,
		newBalance, telegramID,
	)
	if err != nil {
		return fmt.Errorf("repository: failed to update balance for user %d: %w", telegramID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		log.Debug().Int64("telegram_id", telegramID).Msg("repository: balance update matched no user")
	}
	return nil
}

func (r *postgresRepository) Create(ctx context.Context, u *User) error {
	err := r.db.QueryRow(ctx,
		`INSERT INTO users (telegram_id, name, balance, user_type)
		 VALUES ($1, $2, $3, $4)
		 RETURNING created_at`,
		u.TelegramID, u.Name, u.Balance, u.UserType,
	).Scan(&u.CreatedAt)
	if err != nil {
		if db.ErrorCode(err) == pgerrcode.UniqueViolation {
			return ErrUserExists
		}
		return fmt.Errorf("repository: failed to insert user %d: %w", u.TelegramID, err)
	}
	return nil
}
