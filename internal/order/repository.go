package order

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
	ErrNotFound            = errors.New("order not found")
	ErrDuplicateNumber     = errors.New("order number already exists")
	ErrUserUnknown         = errors.New("order references an unknown user")
	ErrInsufficientBalance = errors.New("insufficient balance")
)

type Repository interface {
	NextNumber(ctx context.Context) (string, error)
	Create(ctx context.Context, o *Order) error
	CreateAndDebit(ctx context.Context, o *Order) error
	GetByNumber(ctx context.Context, number string) (*Order, error)
	ListByUser(ctx context.Context, telegramID int64) ([]Order, error)
	UpdateStatus(ctx context.Context, number string, status Status) error
}

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

const insertOrder = `
	INSERT INTO orders (
		telegram_id, order_number, cafe, name, gender, phone,
		time, food, place, total_items, total_price
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	RETURNING id, status, created_at`

const selectOrder = `
	SELECT id, telegram_id, order_number, cafe, name, gender, phone,
		time, food, place, total_items, total_price, status, created_at
	FROM orders`

// NextNumber derives the next order number from the current row count.
// Two callers racing here can receive the same number; the loser's insert
// then fails with ErrDuplicateNumber. Service.Place absorbs that by retrying
// with a fresh number.
func (r *postgresRepository) NextNumber(ctx context.Context) (string, error) {
	var count int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM orders`).Scan(&count); err != nil {
		return "", fmt.Errorf("repository: failed to count orders: %w", err)
	}
	return fmt.Sprintf("ORD-%06d", count+1), nil
}

func (r *postgresRepository) Create(ctx context.Context, o *Order) error {
	err := r.db.QueryRow(ctx, insertOrder,
		o.TelegramID, o.OrderNumber, o.Cafe, o.Name, o.Gender, o.Phone,
		o.Time, o.Food, o.Place, o.TotalItems, o.TotalPrice,
	).Scan(&o.ID, &o.Status, &o.CreatedAt)
	if err != nil {
		return translateInsertError(o, err)
	}
	return nil
}

// CreateAndDebit inserts the order and debits its price from the user's
// balance in one transaction, so a failed insert never loses money and a
// failed debit never leaves a dangling order. The debit refuses to push the
// balance below zero and fails with ErrInsufficientBalance instead.
func (r *postgresRepository) CreateAndDebit(ctx context.Context, o *Order) (err error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("repository: failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				log.Error().Err(rbErr).Str("order_number", o.OrderNumber).Msg("repository: failed to rollback transaction")
			}
		}
	}()

	err = tx.QueryRow(ctx, insertOrder,
		o.TelegramID, o.OrderNumber, o.Cafe, o.Name, o.Gender, o.Phone,
		o.Time, o.Food, o.Place, o.TotalItems, o.TotalPrice,
	).Scan(&o.ID, &o.Status, &o.CreatedAt)
	if err != nil {
		return translateInsertError(o, err)
	}

	cmdTag, err := tx.Exec(ctx,
		`UPDATE users SET balance = balance - $1 WHERE telegram_id = $2 AND balance >= $1`,
		o.TotalPrice, o.TelegramID,
	)
	if err != nil {
		return fmt.Errorf("repository: failed to debit user %d: %w", o.TelegramID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		err = ErrInsufficientBalance
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("repository: failed to commit transaction: %w", err)
	}
	return nil
}

func (r *postgresRepository) GetByNumber(ctx context.Context, number string) (*Order, error) {
	var o Order
	err := r.db.QueryRow(ctx, selectOrder+` WHERE order_number = $1`, number).Scan(
		&o.ID, &o.TelegramID, &o.OrderNumber, &o.Cafe, &o.Name, &o.Gender, &o.Phone,
		&o.Time, &o.Food, &o.Place, &o.TotalItems, &o.TotalPrice, &o.Status, &o.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("repository: failed to select order %s: %w", number, err)
	}
	return &o, nil
}

func (r *postgresRepository) ListByUser(ctx context.Context, telegramID int64) ([]Order, error) {
	rows, err := r.db.Query(ctx, selectOrder+` WHERE telegram_id = $1 ORDER BY created_at DESC`, telegramID)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query orders for user %d: %w", telegramID, err)
	}
	defer rows.Close()

	orders := make([]Order, 0)
	for rows.Next() {
		var o Order
		err := rows.Scan(
			&o.ID, &o.TelegramID, &o.OrderNumber, &o.Cafe, &o.Name, &o.Gender, &o.Phone,
			&o.Time, &o.Food, &o.Place, &o.TotalItems, &o.TotalPrice, &o.Status, &o.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan order for user %d: %w", telegramID, err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating orders for user %d: %w", telegramID, err)
	}
	return orders, nil
}

func (r *postgresRepository) UpdateStatus(ctx context.Context, number string, status Status) error {
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE orders SET status = $1 WHERE order_number = $2`,
		string(status), number,
	)
	if err != nil {
		return fmt.Errorf("repository: failed to update status of order %s: %w", number, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func translateInsertError(o *Order, err error) error {
	switch db.ErrorCode(err) {
	case pgerrcode.UniqueViolation:
		return ErrDuplicateNumber
	case pgerrcode.ForeignKeyViolation:
		return ErrUserUnknown
	}
	return fmt.Errorf("repository: failed to insert order %s: %w", o.OrderNumber, err)
}
