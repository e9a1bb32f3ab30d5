// Package order lists and manages the shopper's backend orders.
package order

import (
	"context"
	"sync"
	"time"

	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/identity"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/purchase"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/render"
	"github.com/storefront/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Cancellation messages
const (
	CancelledMessage    = "Order cancelled successfully"
	CancelFailedMessage = "Failed to cancel order. Please try again."
)

const lookupConcurrency = 4

// ErrNotCancellable is returned when an order is past the point of cancellation
var ErrNotCancellable = shared.ErrInvalidState.WithMessage("Only pending or confirmed orders can be cancelled")

// Service handles order queries and status changes
type Service struct {
	orders     order.Gateway
	products   catalog.ProductGateway
	deliveries order.DeliveryRepository
	tokens     identity.TokenSource
	formatter  *render.Formatter
	logger     *zap.Logger
	now        func() time.Time
}

// NewService creates an order service
func NewService(
	orders order.Gateway,
	products catalog.ProductGateway,
	deliveries order.DeliveryRepository,
	tokens identity.TokenSource,
	formatter *render.Formatter,
	logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		orders:     orders,
		products:   products,
		deliveries: deliveries,
		tokens:     tokens,
		formatter:  formatter,
		logger:     logger,
		now:        time.Now,
	}
}

// List returns the orders with status ("all" or empty for every order), newest first.
// Counts always cover every order.
func (s *Service) List(ctx context.Context, session *identity.Session, status string) (resp *OrderListResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "OrderService", "List", attribute.String("order.status", status))
	defer func() { telemetry.EndSpan(span, err) }()

	if status != "" && status != order.StatusAll && !order.Status(status).IsValid() {
		return nil, shared.ErrInvalidInput.WithMessage("Unknown order status")
	}

	token, err := s.tokens.AccessToken(ctx, session)
	if err != nil {
		return nil, err
	}
	records, err := s.orders.List(ctx, token)
	if err != nil {
		return nil, err
	}

	all := s.convert(ctx, token, records)
	filtered := order.Filter(all, status)

	resp = &OrderListResponse{
		Orders: make([]OrderResponse, 0, len(filtered)),
		Counts: order.Counts(all),
		Total:  len(filtered),
	}
	for _, o := range filtered {
		resp.Orders = append(resp.Orders, s.toResponse(o))
	}
	return resp, nil
}

// Get returns one order
func (s *Service) Get(ctx context.Context, session *identity.Session, id string) (*OrderResponse, error) {
	token, err := s.tokens.AccessToken(ctx, session)
	if err != nil {
		return nil, err
	}
	rec, err := s.orders.Get(ctx, token, id)
	if err != nil {
		return nil, err
	}
	o := s.convert(ctx, token, []order.Record{*rec})[0]
	resp := s.toResponse(o)
	return &resp, nil
}

// UpdateStatus writes a new status to the backend
func (s *Service) UpdateStatus(ctx context.Context, session *identity.Session, id string, status order.Status) (*OrderResponse, error) {
	if !status.IsValid() {
		return nil, shared.ErrInvalidInput.WithMessage("Unknown order status")
	}
	token, err := s.tokens.AccessToken(ctx, session)
	if err != nil {
		return nil, err
	}
	rec, err := s.orders.UpdateStatus(ctx, token, id, order.ToBackend(status))
	if err != nil {
		return nil, err
	}
	s.logger.Info("Order status updated", zap.String("order_id", id), zap.String("status", string(status)))

	o := s.convert(ctx, token, []order.Record{*rec})[0]
	resp := s.toResponse(o)
	return &resp, nil
}

// Cancel cancels a pending or confirmed order. A backend failure is reported
// in the result rather than as an error.
func (s *Service) Cancel(ctx context.Context, session *identity.Session, id string) (*CancelResult, error) {
	token, err := s.tokens.AccessToken(ctx, session)
	if err != nil {
		return nil, err
	}
	rec, err := s.orders.Get(ctx, token, id)
	if err != nil {
		return nil, err
	}
	if !order.FromBackend(rec.Status).CanCancel() {
		return nil, ErrNotCancellable
	}

	if _, err := s.orders.UpdateStatus(ctx, token, id, order.ToBackend(order.StatusCancelled)); err != nil {
		s.logger.Warn("Order cancellation failed", zap.String("order_id", id), zap.Error(err))
		return &CancelResult{Success: false, Message: CancelFailedMessage}, nil
	}
	s.logger.Info("Order cancelled", zap.String("order_id", id))
	return &CancelResult{Success: true, Message: CancelledMessage}, nil
}

// convert builds orders from backend records, resolving item names and delivery details
func (s *Service) convert(ctx context.Context, token string, records []order.Record) []order.Order {
	products := s.lookupProducts(ctx, token, records)

	ids := make([]string, 0, len(records))
	for _, r := range records {
		ids = append(ids, r.ID)
	}
	deliveries, err := s.deliveries.FindByOrderIDs(ctx, ids)
	if err != nil {
		s.logger.Warn("Failed to load delivery details", zap.Error(err))
		deliveries = nil
	}

	now := s.now()
	out := make([]order.Order, 0, len(records))
	for _, r := range records {
		// Some backends omit createdAt; treat such orders as placed now
		orderDate := r.CreatedAt
		if orderDate.IsZero() {
			orderDate = now
		}
		o := order.Order{
			ID:             r.ID,
			UserID:         r.UserID,
			Items:          make([]order.Item, 0, len(r.Lines)),
			TotalAmount:    r.TotalAmount,
			Status:         order.FromBackend(r.Status),
			OrderDate:      orderDate,
			TrackingNumber: order.TrackingNumber(r.ID),
		}
		for _, l := range r.Lines {
			item := order.Item{
				ID:       l.ProductID,
				Name:     order.FallbackItemName(l.ProductID),
				Price:    l.UnitPrice,
				Quantity: l.Quantity,
			}
			if p, ok := products[l.ProductID]; ok {
				item.Name = p.Name
				item.Image = p.Image
				if item.Image == "" {
					item.Image = catalog.ImageFor(p.Name)
				}
			}
			o.Items = append(o.Items, item)
		}

		d, ok := deliveries[r.ID]
		if !ok {
			d = order.DefaultDelivery(r.ID, orderDate)
		}
		o.ApplyDelivery(d)
		out = append(out, o)
	}
	return out
}

// lookupProducts fetches each distinct product once; failures are left out
func (s *Service) lookupProducts(ctx context.Context, token string, records []order.Record) map[string]catalog.Product {
	seen := make(map[string]struct{})
	for _, r := range records {
		for _, l := range r.Lines {
			seen[l.ProductID] = struct{}{}
		}
	}

	var mu sync.Mutex
	found := make(map[string]catalog.Product, len(seen))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(lookupConcurrency)
	for id := range seen {
		g.Go(func() error {
			p, err := s.products.Get(gctx, token, id)
			if err != nil {
				s.logger.Debug("Product lookup failed", zap.String("product_id", id), zap.Error(err))
				return nil
			}
			mu.Lock()
			found[id] = *p
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return found
}

func (s *Service) toResponse(o order.Order) OrderResponse {
	resp := OrderResponse{
		ID:               o.ID,
		UserID:           o.UserID,
		Items:            o.Items,
		TotalAmount:      o.TotalAmount,
		Status:           o.Status,
		CanCancel:        o.Status.CanCancel(),
		DeliveryTime:     o.DeliveryTime,
		DeliveryLocation: o.DeliveryLocation,
		OrderDate:        o.OrderDate,
		TrackingNumber:   o.TrackingNumber,
	}
	if !o.DeliveryDate.IsZero() {
		resp.DeliveryDate = o.DeliveryDate.Format(purchase.DateLayout)
	}
	if !o.EstimatedDelivery.IsZero() {
		resp.EstimatedDelivery = o.EstimatedDelivery.Format(purchase.DateLayout)
	}
	if s.formatter != nil {
		resp.TotalLabel = s.formatter.Price(o.TotalAmount)
		resp.StatusLabel = s.formatter.Label(string(o.Status))
	}
	return resp
}
