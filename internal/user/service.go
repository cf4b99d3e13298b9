package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
)

// Result is the outcome the bot shows back to an admin: a success flag and a
// ready-to-send message.
type Result struct {
	OK      bool
	Message string
}

type Service interface {
	IsAuthorized(ctx context.Context, telegramID int64) (bool, error)
	Balance(ctx context.Context, telegramID int64) (float64, error)
	SetBalance(ctx context.Context, telegramID int64, newBalance float64) error
	AddUser(ctx context.Context, telegramID int64, name string, initialBalance float64) Result
	GetUser(ctx context.Context, telegramID int64) (*User, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) IsAuthorized(ctx context.Context, telegramID int64) (bool, error) {
	authorized, err := s.repo.Exists(ctx, telegramID)
	if err != nil {
		log.Error().Err(err).Int64("telegram_id", telegramID).Msg("service: failed to check authorization")
		return false, fmt.Errorf("service: failed to check authorization: %w", err)
	}
	return authorized, nil
}

func (s *service) Balance(ctx context.Context, telegramID int64) (float64, error) {
	balance, err := s.repo.GetBalance(ctx, telegramID)
	if err != nil {
		log.Error().Err(err).Int64("telegram_id", telegramID).Msg("service: failed to fetch balance")
		return 0, fmt.Errorf("service: failed to fetch balance: %w", err)
	}
	return balance, nil
}

func (s *service) SetBalance(ctx context.Context, telegramID int64, newBalance float64) error {
	if err := s.repo.UpdateBalance(ctx, telegramID, newBalance); err != nil {
		log.Error().Err(err).Int64("telegram_id", telegramID).Msg("service: failed to update balance")
		return fmt.Errorf("service: failed to update balance: %w", err)
	}
	return nil
}

// AddUser inserts a user on behalf of an admin command and translates the
// outcome into a message the bot can reply with. A duplicate ID is reported
// as "User already exists"; any other failure is reported by its text.
func (s *service) AddUser(ctx context.Context, telegramID int64, name string, initialBalance float64) Result {
	u := &User{TelegramID: telegramID, Name: name, Balance: initialBalance}

	err := s.repo.Create(ctx, u)
	switch {
	case err == nil:
		log.Info().Int64("telegram_id", telegramID).Str("name", name).Msg("service: user added")
		return Result{OK: true, Message: "User added successfully"}
	case errors.Is(err, ErrUserExists):
		return Result{OK: false, Message: "User already exists"}
	default:
		log.Error().Err(err).Int64("telegram_id", telegramID).Msg("service: failed to add user")
		return Result{OK: false, Message: err.Error()}
	}
}

func (s *service) GetUser(ctx context.Context, telegramID int64) (*User, error) {
	u, err := s.repo.GetByID(ctx, telegramID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		log.Error().Err(err).Int64("telegram_id", telegramID).Msg("service: failed to fetch user")
		return nil, fmt.Errorf("service: failed to fetch user: %w", err)
	}
	return u, nil
}
