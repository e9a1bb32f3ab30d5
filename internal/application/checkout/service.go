// Package checkout turns the shopper's cart into a backend order.
package checkout

import (
	"context"
	"strings"
	"time"

	appcart "github.com/storefront/backend/internal/application/cart"
	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/domain/identity"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/purchase"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// SuccessMessage is returned for a placed order
const SuccessMessage = "Order placed successfully!"

// Request is the checkout form
type Request struct {
	DeliveryDate     string `json:"deliveryDate"`
	DeliveryTime     string `json:"deliveryTime"`
	DeliveryLocation string `json:"deliveryLocation"`
}

// Result describes a placed order
type Result struct {
	OrderID string `json:"orderId"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Carts is the part of the cart service checkout needs
type Carts interface {
	Current(ctx context.Context, s *identity.Session) (*cart.Cart, cart.Summary, error)
	Clear(ctx context.Context, s *identity.Session) (*appcart.CartResponse, error)
}

// Service places orders
type Service struct {
	carts      Carts
	orders     order.Gateway
	deliveries order.DeliveryRepository
	tokens     identity.TokenSource
	metrics    *telemetry.StorefrontMetrics
	logger     *zap.Logger
	now        func() time.Time
}

// NewService creates a checkout service
func NewService(
	carts Carts,
	orders order.Gateway,
	deliveries order.DeliveryRepository,
	tokens identity.TokenSource,
	metrics *telemetry.StorefrontMetrics,
	logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		carts:      carts,
		orders:     orders,
		deliveries: deliveries,
		tokens:     tokens,
		metrics:    metrics,
		logger:     logger,
		now:        time.Now,
	}
}

// Checkout validates the delivery details, creates the order and empties the cart
func (s *Service) Checkout(ctx context.Context, session *identity.Session, req Request) (result *Result, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "CheckoutService", "Checkout")
	defer func() {
		telemetry.EndSpan(span, err)
		outcome := "success"
		if err != nil {
			outcome = "failure"
		}
		s.metrics.RecordCheckout(ctx, outcome)
	}()

	c, summary, err := s.carts.Current(ctx, session)
	if err != nil {
		return nil, err
	}
	if c.IsEmpty() {
		return nil, shared.ErrCartEmpty
	}

	delivery, err := s.validate(req)
	if err != nil {
		return nil, err
	}

	token, err := s.tokens.AccessToken(ctx, session)
	if err != nil {
		return nil, err
	}

	placement := order.Placement{
		UserID:      userID(session),
		Lines:       make([]order.Line, 0, len(c.Items)),
		TotalAmount: summary.Total,
	}
	for _, it := range c.Items {
		placement.Lines = append(placement.Lines, order.Line{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			UnitPrice: it.Price,
		})
	}

	rec, err := s.orders.Create(ctx, token, placement)
	if err != nil {
		s.logger.Error("Order placement failed", zap.String("owner", session.OwnerKey()), zap.Error(err))
		return nil, err
	}

	delivery.OrderID = rec.ID
	if err := s.deliveries.Save(ctx, delivery); err != nil {
		// the order exists upstream; it falls back to the default delivery details
		s.logger.Error("Failed to store delivery details", zap.String("order_id", rec.ID), zap.Error(err))
	}

	if _, err := s.carts.Clear(ctx, session); err != nil {
		s.logger.Warn("Failed to clear cart after checkout", zap.String("order_id", rec.ID), zap.Error(err))
	}

	s.logger.Info("Order placed",
		zap.String("order_id", rec.ID),
		zap.Int("items", summary.ItemCount),
		zap.String("total", summary.Total.StringFixed(2)))

	return &Result{OrderID: rec.ID, Status: "success", Message: SuccessMessage}, nil
}

func (s *Service) validate(req Request) (order.Delivery, error) {
	var errs shared.ValidationErrors
	now := s.now()

	var date *time.Time
	if raw := strings.TrimSpace(req.DeliveryDate); raw != "" {
		parsed, err := time.ParseInLocation(purchase.DateLayout, raw, now.Location())
		if err != nil {
			errs.Add("deliveryDate", "Invalid delivery date")
		} else {
			date = &parsed
		}
	}
	if date != nil || strings.TrimSpace(req.DeliveryDate) == "" {
		if msg := purchase.ValidateDeliveryDate(date, now); msg != "" {
			errs.Add("deliveryDate", msg)
		}
	}

	slot := ""
	if req.DeliveryTime == "" {
		errs.Add("deliveryTime", "Please select a delivery time")
	} else if backend, ok := purchase.ToBackendTime(req.DeliveryTime); !ok {
		errs.Add("deliveryTime", "Invalid delivery time")
	} else {
		slot = purchase.FromBackendTime(backend)
	}

	if req.DeliveryLocation == "" {
		errs.Add("deliveryLocation", "Please select a delivery location")
	} else if !purchase.IsDistrict(req.DeliveryLocation) {
		errs.Add("deliveryLocation", "Invalid delivery location")
	}

	if err := errs.Err(); err != nil {
		return order.Delivery{}, err
	}
	return order.Delivery{Date: *date, Time: slot, Location: req.DeliveryLocation}, nil
}

func userID(s *identity.Session) string {
	if s.Subject != "" {
		return s.Subject
	}
	return s.Username
}
