package order_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campus-delivery-bot/internal/config"
	"campus-delivery-bot/internal/order"
)

type mockOrderRepository struct {
	nextNumberFunc     func(ctx context.Context) (string, error)
	createFunc         func(ctx context.Context, o *order.Order) error
	createAndDebitFunc func(ctx context.Context, o *order.Order) error
	getByNumberFunc    func(ctx context.Context, number string) (*order.Order, error)
	listByUserFunc     func(ctx context.Context, telegramID int64) ([]order.Order, error)
	updateStatusFunc   func(ctx context.Context, number string, status order.Status) error
}

func (m *mockOrderRepository) NextNumber(ctx context.Context) (string, error) {
	return m.nextNumberFunc(ctx)
}

func (m *mockOrderRepository) Create(ctx context.Context, o *order.Order) error {
	return m.createFunc(ctx, o)
}

func (m *mockOrderRepository) CreateAndDebit(ctx context.Context, o *order.Order) error {
	return m.createAndDebitFunc(ctx, o)
}

func (m *mockOrderRepository) GetByNumber(ctx context.Context, number string) (*order.Order, error) {
	return m.getByNumberFunc(ctx, number)
}

func (m *mockOrderRepository) ListByUser(ctx context.Context, telegramID int64) ([]order.Order, error) {
	return m.listByUserFunc(ctx, telegramID)
}

func (m *mockOrderRepository) UpdateStatus(ctx context.Context, number string, status order.Status) error {
	return m.updateStatusFunc(ctx, number, status)
}

func validInput() order.Input {
	return order.Input{
		TelegramID: 42,
		Cafe:       "Main Cafe",
		Name:       "Alice",
		Gender:     "F",
		Phone:      "+251900000000",
		Time:       "12:30",
		Food:       "Shiro",
		Place:      "Block A",
		TotalItems: 2,
	}
}

func TestService_Create_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(in *order.Input)
	}{
		{name: "missing_cafe", mutate: func(in *order.Input) { in.Cafe = "" }},
		{name: "missing_name", mutate: func(in *order.Input) { in.Name = "" }},
		{name: "missing_phone", mutate: func(in *order.Input) { in.Phone = "" }},
		{name: "missing_time", mutate: func(in *order.Input) { in.Time = "" }},
		{name: "missing_food", mutate: func(in *order.Input) { in.Food = "" }},
		{name: "missing_place", mutate: func(in *order.Input) { in.Place = "" }},
		{name: "missing_telegram_id", mutate: func(in *order.Input) { in.TelegramID = 0 }},
		{name: "invalid_gender", mutate: func(in *order.Input) { in.Gender = "X" }},
		{name: "zero_items", mutate: func(in *order.Input) { in.TotalItems = 0 }},
		{name: "negative_items", mutate: func(in *order.Input) { in.TotalItems = -1 }},
	}

	repo := &mockOrderRepository{
		nextNumberFunc: func(ctx context.Context) (string, error) {
			t.Fatal("NextNumber must not be called for invalid input")
			return "", nil
		},
	}
	svc := order.NewService(repo, config.PricePerItem)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			tt.mutate(&in)

			_, err := svc.Create(context.Background(), in)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid order")
		})
	}
}

func TestService_Create_AssignsNumberAndPrice(t *testing.T) {
	var inserted *order.Order
	repo := &mockOrderRepository{
		nextNumberFunc: func(ctx context.Context) (string, error) { return "ORD-000001", nil },
		createFunc: func(ctx context.Context, o *order.Order) error {
			inserted = o
			return nil
		},
	}
	svc := order.NewService(repo, config.PricePerItem)

	o, err := svc.Create(context.Background(), validInput())
	require.NoError(t, err)
	require.NotNil(t, inserted)

	assert.Equal(t, "ORD-000001", o.OrderNumber)
	assert.Equal(t, order.StatusPending, o.Status)
	assert.InDelta(t, 2*6.65, o.TotalPrice, 1e-9)
	assert.Equal(t, int64(42), o.TelegramID)
}

func TestService_Create_UnknownUser(t *testing.T) {
	repo := &mockOrderRepository{
		nextNumberFunc: func(ctx context.Context) (string, error) { return "ORD-000001", nil },
		createFunc: func(ctx context.Context, o *order.Order) error {
			return order.ErrUserUnknown
		},
	}
	svc := order.NewService(repo, config.PricePerItem)

	_, err := svc.Create(context.Background(), validInput())
	require.ErrorIs(t, err, order.ErrUserUnknown)
}

func TestService_Place_RetriesOnDuplicateNumber(t *testing.T) {
	numbers := []string{"ORD-000007", "ORD-000008"}
	var issued int
	repo := &mockOrderRepository{
		nextNumberFunc: func(ctx context.Context) (string, error) {
			n := numbers[issued]
			issued++
			return n, nil
		},
		createAndDebitFunc: func(ctx context.Context, o *order.Order) error {
			if o.OrderNumber == "ORD-000007" {
				return order.ErrDuplicateNumber
			}
			return nil
		},
	}
	svc := order.NewService(repo, config.PricePerItem)

	o, err := svc.Place(context.Background(), validInput())
	require.NoError(t, err)
	assert.Equal(t, "ORD-000008", o.OrderNumber)
	assert.Equal(t, 2, issued)
}

func TestService_Place_GivesUpAfterRepeatedCollisions(t *testing.T) {
	var attempts int
	repo := &mockOrderRepository{
		nextNumberFunc: func(ctx context.Context) (string, error) {
			return "ORD-000007", nil
		},
		createAndDebitFunc: func(ctx context.Context, o *order.Order) error {
			attempts++
			return order.ErrDuplicateNumber
		},
	}
	svc := order.NewService(repo, config.PricePerItem)

	_, err := svc.Place(context.Background(), validInput())
	require.ErrorIs(t, err, order.ErrDuplicateNumber)
	assert.Equal(t, 3, attempts)
}

func TestService_Place_InsufficientBalance(t *testing.T) {
	repo := &mockOrderRepository{
		nextNumberFunc: func(ctx context.Context) (string, error) { return "ORD-000001", nil },
		createAndDebitFunc: func(ctx context.Context, o *order.Order) error {
			return order.ErrInsufficientBalance
		},
	}
	svc := order.NewService(repo, config.PricePerItem)

	_, err := svc.Place(context.Background(), validInput())
	require.ErrorIs(t, err, order.ErrInsufficientBalance)
}

func TestService_GetByNumber_NotFound(t *testing.T) {
	repo := &mockOrderRepository{
		getByNumberFunc: func(ctx context.Context, number string) (*order.Order, error) {
			return nil, order.ErrNotFound
		},
	}
	svc := order.NewService(repo, config.PricePerItem)

	_, err := svc.GetByNumber(context.Background(), "ORD-999999")
	require.ErrorIs(t, err, order.ErrNotFound)
}

func TestService_UpdateStatus_WrapsRepoError(t *testing.T) {
	repoErr := fmt.Errorf("repository: connection reset")
	repo := &mockOrderRepository{
		updateStatusFunc: func(ctx context.Context, number string, status order.Status) error {
			return repoErr
		},
	}
	svc := order.NewService(repo, config.PricePerItem)

	err := svc.UpdateStatus(context.Background(), "ORD-000001", order.StatusConfirmed)
	require.Error(t, err)
	require.ErrorIs(t, err, repoErr)
}

func TestService_ListByUser(t *testing.T) {
	repo := &mockOrderRepository{
		listByUserFunc: func(ctx context.Context, telegramID int64) ([]order.Order, error) {
			return []order.Order{
				{OrderNumber: "ORD-000002", TelegramID: telegramID},
				{OrderNumber: "ORD-000001", TelegramID: telegramID},
			}, nil
		},
	}
	svc := order.NewService(repo, config.PricePerItem)

	orders, err := svc.ListByUser(context.Background(), 42)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, "ORD-000002", orders[0].OrderNumber)
}

var _ order.Repository = (*mockOrderRepository)(nil)
