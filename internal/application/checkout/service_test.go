package checkout

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	appcart "github.com/storefront/backend/internal/application/cart"
	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/domain/identity"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockOrderGateway is a mock implementation of order.Gateway
type MockOrderGateway struct {
	mock.Mock
}

func (m *MockOrderGateway) List(ctx context.Context, token string) ([]order.Record, error) {
	args := m.Called(ctx, token)
	return args.Get(0).([]order.Record), args.Error(1)
}

func (m *MockOrderGateway) Get(ctx context.Context, token, id string) (*order.Record, error) {
	args := m.Called(ctx, token, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Record), args.Error(1)
}

func (m *MockOrderGateway) Create(ctx context.Context, token string, p order.Placement) (*order.Record, error) {
	args := m.Called(ctx, token, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Record), args.Error(1)
}

func (m *MockOrderGateway) UpdateStatus(ctx context.Context, token, id, backendStatus string) (*order.Record, error) {
	args := m.Called(ctx, token, id, backendStatus)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Record), args.Error(1)
}

type fakeCarts struct {
	cart    *cart.Cart
	cleared bool
}

func (f *fakeCarts) Current(context.Context, *identity.Session) (*cart.Cart, cart.Summary, error) {
	return f.cart, cart.DefaultPricingPolicy().Summarize(f.cart), nil
}

func (f *fakeCarts) Clear(context.Context, *identity.Session) (*appcart.CartResponse, error) {
	f.cleared = true
	f.cart.Clear()
	return &appcart.CartResponse{}, nil
}

type fakeDeliveries struct {
	saved []order.Delivery
	err   error
}

func (f *fakeDeliveries) Save(_ context.Context, d order.Delivery) error {
	if f.err != nil {
		return f.err
	}
	f.saved = append(f.saved, d)
	return nil
}

func (f *fakeDeliveries) FindByOrderIDs(context.Context, []string) (map[string]order.Delivery, error) {
	return nil, nil
}

type noToken struct{}

func (noToken) AccessToken(context.Context, *identity.Session) (string, error) { return "", nil }

// Wednesday
var fixedNow = time.Date(2024, 6, 12, 9, 0, 0, 0, time.UTC)

func newTestService(t *testing.T, items ...cart.Item) (*Service, *MockOrderGateway, *fakeCarts, *fakeDeliveries, *identity.Session) {
	t.Helper()
	session := identity.NewSession(identity.AuthModeDemo)
	require.NoError(t, session.Authenticate(identity.Principal{Subject: "user-1", Username: "demo@example.com"}, nil))

	c := cart.New(session.OwnerKey())
	for _, it := range items {
		require.NoError(t, c.Add(it))
	}
	carts := &fakeCarts{cart: c}
	orders := new(MockOrderGateway)
	deliveries := &fakeDeliveries{}
	svc := NewService(carts, orders, deliveries, noToken{}, nil, zap.NewNop())
	svc.now = func() time.Time { return fixedNow }
	return svc, orders, carts, deliveries, session
}

func lamp(qty int) cart.Item {
	return cart.Item{ProductID: "p1", Name: "Desk Lamp", Price: decimal.RequireFromString("25.00"), Quantity: qty, Stock: 10}
}

func TestCheckout_Success(t *testing.T) {
	svc, orders, carts, deliveries, session := newTestService(t, lamp(2))

	// subtotal 50, shipping 9.99, tax 4.00
	orders.On("Create", mock.Anything, "", mock.MatchedBy(func(p order.Placement) bool {
		return p.UserID == "user-1" &&
			len(p.Lines) == 1 &&
			p.Lines[0].Quantity == 2 &&
			p.Lines[0].UnitPrice.Equal(decimal.NewFromInt(25)) &&
			p.TotalAmount.Equal(decimal.RequireFromString("63.99"))
	})).Return(&order.Record{ID: "ord-123"}, nil)

	result, err := svc.Checkout(context.Background(), session, Request{
		DeliveryDate:     "2024-06-14",
		DeliveryTime:     "11:00",
		DeliveryLocation: "Kandy",
	})
	require.NoError(t, err)

	assert.Equal(t, &Result{OrderID: "ord-123", Status: "success", Message: SuccessMessage}, result)
	assert.True(t, carts.cleared)
	require.Len(t, deliveries.saved, 1)
	assert.Equal(t, "ord-123", deliveries.saved[0].OrderID)
	assert.Equal(t, "11:00", deliveries.saved[0].Time)
	assert.Equal(t, "Kandy", deliveries.saved[0].Location)
	assert.Equal(t, 14, deliveries.saved[0].Date.Day())
	orders.AssertExpectations(t)
}

func TestCheckout_EmptyCart(t *testing.T) {
	svc, orders, _, _, session := newTestService(t)

	_, err := svc.Checkout(context.Background(), session, Request{DeliveryDate: "2024-06-14", DeliveryTime: "10:00", DeliveryLocation: "Colombo"})
	assert.ErrorIs(t, err, shared.ErrCartEmpty)
	orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

func TestCheckout_Validation(t *testing.T) {
	tests := []struct {
		name  string
		req   Request
		field string
		msg   string
	}{
		{"missing date", Request{DeliveryTime: "10:00", DeliveryLocation: "Colombo"}, "deliveryDate", "Please select a delivery date"},
		{"past date", Request{DeliveryDate: "2024-06-10", DeliveryTime: "10:00", DeliveryLocation: "Colombo"}, "deliveryDate", "Delivery date cannot be in the past"},
		{"sunday", Request{DeliveryDate: "2024-06-16", DeliveryTime: "10:00", DeliveryLocation: "Colombo"}, "deliveryDate", "Delivery is not available on Sundays"},
		{"bad date", Request{DeliveryDate: "14/06/2024", DeliveryTime: "10:00", DeliveryLocation: "Colombo"}, "deliveryDate", "Invalid delivery date"},
		{"bad time", Request{DeliveryDate: "2024-06-14", DeliveryTime: "15:00", DeliveryLocation: "Colombo"}, "deliveryTime", "Invalid delivery time"},
		{"unknown district", Request{DeliveryDate: "2024-06-14", DeliveryTime: "10:00", DeliveryLocation: "Atlantis"}, "deliveryLocation", "Invalid delivery location"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _, _, session := newTestService(t, lamp(1))
			_, err := svc.Checkout(context.Background(), session, tt.req)

			var verrs *shared.ValidationErrors
			require.True(t, errors.As(err, &verrs))
			require.Len(t, verrs.Fields, 1)
			assert.Equal(t, tt.field, verrs.Fields[0].Field)
			assert.Equal(t, tt.msg, verrs.Fields[0].Message)
		})
	}
}

func TestCheckout_BackendFailureKeepsCart(t *testing.T) {
	svc, orders, carts, deliveries, session := newTestService(t, lamp(1))
	orders.On("Create", mock.Anything, "", mock.Anything).Return(nil, shared.ErrUpstream)

	_, err := svc.Checkout(context.Background(), session, Request{DeliveryDate: "2024-06-13", DeliveryTime: "12:00", DeliveryLocation: "Galle"})
	assert.ErrorIs(t, err, shared.ErrUpstream)
	assert.False(t, carts.cleared)
	assert.Empty(t, deliveries.saved)
}

func TestCheckout_DeliveryStoreFailureStillSucceeds(t *testing.T) {
	svc, orders, carts, deliveries, session := newTestService(t, lamp(1))
	deliveries.err = errors.New("disk full")
	orders.On("Create", mock.Anything, "", mock.Anything).Return(&order.Record{ID: "ord-9"}, nil)

	result, err := svc.Checkout(context.Background(), session, Request{DeliveryDate: "2024-06-13", DeliveryTime: "12:00", DeliveryLocation: "Galle"})
	require.NoError(t, err)
	assert.Equal(t, "ord-9", result.OrderID)
	assert.True(t, carts.cleared)
}
