package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
)

// placeAttempts bounds how often Place retries after losing the count-based
// numbering race to a concurrent order.
const placeAttempts = 3

// Input carries the fields a dialog collects before an order is stored.
// Number, price, id and timestamp are filled in by the service and the store.
type Input struct {
	TelegramID int64  `validate:"required"`
	Cafe       string `validate:"required"`
	Name       string `validate:"required"`
	Gender     string `validate:"required,oneof=M F"`
	Phone      string `validate:"required"`
	Time       string `validate:"required"`
	Food       string `validate:"required"`
	Place      string `validate:"required"`
	TotalItems int    `validate:"required,gt=0"`
}

type Service interface {
	NextNumber(ctx context.Context) (string, error)
	Create(ctx context.Context, in Input) (*Order, error)
	Place(ctx context.Context, in Input) (*Order, error)
	GetByNumber(ctx context.Context, number string) (*Order, error)
	ListByUser(ctx context.Context, telegramID int64) ([]Order, error)
	UpdateStatus(ctx context.Context, number string, status Status) error
}

type service struct {
	repo         Repository
	validate     *validator.Validate
	pricePerItem float64
}

func NewService(repo Repository, pricePerItem float64) Service {
	return &service{
		repo:         repo,
		validate:     validator.New(),
		pricePerItem: pricePerItem,
	}
}

func (s *service) build(in Input) (*Order, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, fmt.Errorf("service: invalid order: %w", err)
	}
	return &Order{
		TelegramID: in.TelegramID,
		Cafe:       in.Cafe,
		Name:       in.Name,
		Gender:     in.Gender,
		Phone:      in.Phone,
		Time:       in.Time,
		Food:       in.Food,
		Place:      in.Place,
		TotalItems: in.TotalItems,
		TotalPrice: float64(in.TotalItems) * s.pricePerItem,
		Status:     StatusPending,
	}, nil
}

func (s *service) NextNumber(ctx context.Context) (string, error) {
	return s.repo.NextNumber(ctx)
}

// Create stores one order under the next sequential number without touching
// the user's balance. Contract users are billed outside this system.
func (s *service) Create(ctx context.Context, in Input) (*Order, error) {
	o, err := s.build(in)
	if err != nil {
		return nil, err
	}

	number, err := s.repo.NextNumber(ctx)
	if err != nil {
		return nil, err
	}
	o.OrderNumber = number

	if err := s.repo.Create(ctx, o); err != nil {
		log.Error().Err(err).Str("order_number", number).Msg("service: failed to create order")
		return nil, err
	}

	log.Info().Str("order_number", o.OrderNumber).Int64("telegram_id", o.TelegramID).Msg("service: order created")
	return o, nil
}

// Place stores the order and debits its price from the user's balance in a
// single transaction. A duplicate order number means a concurrent order won
// the same count, so Place takes a fresh number and tries again, up to
// placeAttempts times.
func (s *service) Place(ctx context.Context, in Input) (*Order, error) {
	o, err := s.build(in)
	if err != nil {
		return nil, err
	}

	for attempt := 1; attempt <= placeAttempts; attempt++ {
		number, err := s.repo.NextNumber(ctx)
		if err != nil {
			return nil, err
		}
		o.OrderNumber = number

		err = s.repo.CreateAndDebit(ctx, o)
		if err == nil {
			log.Info().Str("order_number", o.OrderNumber).Int64("telegram_id", o.TelegramID).Msg("service: order placed")
			return o, nil
		}
		if errors.Is(err, ErrDuplicateNumber) {
			log.Warn().Str("order_number", number).Int("attempt", attempt).Msg("service: order number taken, retrying")
			continue
		}
		return nil, err
	}

	return nil, fmt.Errorf("service: gave up placing order after %d attempts: %w", placeAttempts, ErrDuplicateNumber)
}

func (s *service) GetByNumber(ctx context.Context, number string) (*Order, error) {
	o, err := s.repo.GetByNumber(ctx, number)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		log.Error().Err(err).Str("order_number", number).Msg("service: failed to fetch order")
		return nil, fmt.Errorf("service: failed to fetch order: %w", err)
	}
	return o, nil
}

func (s *service) ListByUser(ctx context.Context, telegramID int64) ([]Order, error) {
	orders, err := s.repo.ListByUser(ctx, telegramID)
	if err != nil {
		log.Error().Err(err).Int64("telegram_id", telegramID).Msg("service: failed to fetch user orders")
		return nil, fmt.Errorf("service: failed to fetch user orders: %w", err)
	}
	return orders, nil
}

func (s *service) UpdateStatus(ctx context.Context, number string, status Status) error {
	if err := s.repo.UpdateStatus(ctx, number, status); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		log.Error().Err(err).Str("order_number", number).Str("status", status.String()).Msg("service: failed to update order status")
		return fmt.Errorf("service: failed to update order status: %w", err)
	}
	return nil
}
