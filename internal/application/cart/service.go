// Package cart manages the shopper's cart and mirrors it to the backend.
package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/identity"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/render"
	"github.com/storefront/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// hydrateConcurrency bounds parallel product lookups during sync
const hydrateConcurrency = 4

// Service handles cart operations. The local cart is authoritative; the
// remote cart is a best-effort mirror for sessions with an upstream token.
type Service struct {
	carts     cart.Repository
	remote    cart.RemoteGateway
	products  catalog.ProductGateway
	tokens    identity.TokenSource
	pricing   cart.PricingPolicy
	formatter *render.Formatter
	metrics   *telemetry.StorefrontMetrics
	logger    *zap.Logger
	locks     *ownerLocks
}

// NewService creates a new cart service
func NewService(
	carts cart.Repository,
	remote cart.RemoteGateway,
	products catalog.ProductGateway,
	tokens identity.TokenSource,
	pricing cart.PricingPolicy,
	formatter *render.Formatter,
	metrics *telemetry.StorefrontMetrics,
	logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		carts:     carts,
		remote:    remote,
		products:  products,
		tokens:    tokens,
		pricing:   pricing,
		formatter: formatter,
		metrics:   metrics,
		logger:    logger,
		locks:     newOwnerLocks(),
	}
}

// Current returns the session's cart and its priced summary
func (s *Service) Current(ctx context.Context, session *identity.Session) (*cart.Cart, cart.Summary, error) {
	c, err := s.carts.Get(ctx, session.OwnerKey())
	if err != nil {
		return nil, cart.Summary{}, err
	}
	return c, s.pricing.Summarize(c), nil
}

// Get returns the cart with its summary
func (s *Service) Get(ctx context.Context, session *identity.Session) (*CartResponse, error) {
	c, err := s.carts.Get(ctx, session.OwnerKey())
	if err != nil {
		return nil, err
	}
	return s.toResponse(c), nil
}

// Summary returns only the priced summary
func (s *Service) Summary(ctx context.Context, session *identity.Session) (*SummaryResponse, error) {
	c, err := s.carts.Get(ctx, session.OwnerKey())
	if err != nil {
		return nil, err
	}
	summary := s.summary(c)
	return &summary, nil
}

// Add puts a product in the cart, merging with an existing line
func (s *Service) Add(ctx context.Context, session *identity.Session, req AddItemRequest) (resp *CartResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "CartService", "Add", attribute.String("product.id", req.ProductID))
	defer func() { telemetry.EndSpan(span, err) }()

	qty := req.Quantity
	if qty == 0 {
		qty = 1
	}
	if qty < 0 {
		return nil, shared.ErrInvalidInput.WithMessage("Quantity must be at least 1")
	}

	token, err := s.tokens.AccessToken(ctx, session)
	if err != nil {
		return nil, err
	}
	product, err := s.products.Get(ctx, token, req.ProductID)
	if err != nil {
		return nil, err
	}

	c, err := s.modify(ctx, session.OwnerKey(), func(c *cart.Cart) error {
		current := 0
		if existing, ok := c.Find(product.ID); ok {
			current = existing.Quantity
		}
		if !product.InStock(current + qty) {
			return insufficientStock(product.Stock)
		}
		return c.Add(itemFromProduct(*product, qty))
	})
	if err != nil {
		return nil, err
	}
	s.metrics.RecordCartMutation(ctx, "add")

	s.mirror(ctx, token, "add", func(ctx context.Context) error {
		return s.remote.AddLine(ctx, token, product.ID, qty)
	})
	return s.toResponse(c), nil
}

// UpdateQuantity sets an item's quantity; zero or less removes it
func (s *Service) UpdateQuantity(ctx context.Context, session *identity.Session, productID string, quantity int) (*CartResponse, error) {
	c, err := s.modify(ctx, session.OwnerKey(), func(c *cart.Cart) error {
		item, ok := c.Find(productID)
		if !ok {
			return shared.ErrNotFound.WithMessage("Item is not in the cart")
		}
		if quantity > 0 && item.Stock > 0 && quantity > item.Stock {
			return insufficientStock(item.Stock)
		}
		return c.SetQuantity(productID, quantity)
	})
	if err != nil {
		return nil, err
	}
	s.metrics.RecordCartMutation(ctx, "update")

	token, err := s.tokens.AccessToken(ctx, session)
	if err != nil {
		s.logger.Warn("Skipping remote cart update", zap.Error(err))
		return s.toResponse(c), nil
	}
	s.mirror(ctx, token, "update", func(ctx context.Context) error {
		if err := s.remote.RemoveLine(ctx, token, productID); err != nil {
			return err
		}
		if quantity <= 0 {
			return nil
		}
		return s.remote.AddLine(ctx, token, productID, quantity)
	})
	return s.toResponse(c), nil
}

// Remove drops an item from the cart
func (s *Service) Remove(ctx context.Context, session *identity.Session, productID string) (*CartResponse, error) {
	c, err := s.modify(ctx, session.OwnerKey(), func(c *cart.Cart) error {
		c.Remove(productID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.metrics.RecordCartMutation(ctx, "remove")

	token, err := s.tokens.AccessToken(ctx, session)
	if err != nil {
		s.logger.Warn("Skipping remote cart update", zap.Error(err))
		return s.toResponse(c), nil
	}
	s.mirror(ctx, token, "remove", func(ctx context.Context) error {
		return s.remote.RemoveLine(ctx, token, productID)
	})
	return s.toResponse(c), nil
}

// Clear empties the local cart and, when possible, the remote one
func (s *Service) Clear(ctx context.Context, session *identity.Session) (*CartResponse, error) {
	c := cart.New(session.OwnerKey())
	unlock := s.locks.lock(c.OwnerKey)
	err := s.carts.Delete(ctx, c.OwnerKey)
	unlock()
	if err != nil {
		return nil, err
	}
	s.metrics.RecordCartMutation(ctx, "clear")

	token, err := s.tokens.AccessToken(ctx, session)
	if err != nil {
		s.logger.Warn("Skipping remote cart clear", zap.Error(err))
		return s.toResponse(c), nil
	}
	s.mirror(ctx, token, "clear", func(ctx context.Context) error {
		return s.remote.ClearLines(ctx, token)
	})
	return s.toResponse(c), nil
}

// modify runs fn against the owner's stored cart and saves the result
// while holding the owner's lock. Nothing is saved when fn fails.
func (s *Service) modify(ctx context.Context, ownerKey string, fn func(*cart.Cart) error) (*cart.Cart, error) {
	defer s.locks.lock(ownerKey)()

	c, err := s.carts.Get(ctx, ownerKey)
	if err != nil {
		return nil, err
	}
	if err := fn(c); err != nil {
		return nil, err
	}
	if err := s.carts.Save(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Sync reconciles the local and remote carts. A non-empty remote cart wins;
// otherwise a non-empty local cart is pushed.
func (s *Service) Sync(ctx context.Context, session *identity.Session) (resp *SyncResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "CartService", "Sync")
	defer func() { telemetry.EndSpan(span, err) }()

	// Held across the remote round trip so a pull cannot overwrite a concurrent add
	defer s.locks.lock(session.OwnerKey())()

	c, err := s.carts.Get(ctx, session.OwnerKey())
	if err != nil {
		return nil, err
	}

	token, err := s.tokens.AccessToken(ctx, session)
	if err != nil {
		return nil, err
	}
	if token == "" {
		return s.synced(ctx, SyncSkipped, c), nil
	}

	lines, err := s.remote.Lines(ctx, token)
	if err != nil {
		return nil, err
	}

	switch {
	case len(lines) > 0:
		c.Replace(s.hydrate(ctx, token, lines))
		if err := s.carts.Save(ctx, c); err != nil {
			return nil, err
		}
		return s.synced(ctx, SyncPulled, c), nil

	case !c.IsEmpty():
		if err := s.push(ctx, token, c); err != nil {
			return nil, err
		}
		return s.synced(ctx, SyncPushed, c), nil

	default:
		return s.synced(ctx, SyncUnchanged, c), nil
	}
}

// AfterLogin reconciles the cart once a session is authenticated
func (s *Service) AfterLogin(ctx context.Context, session *identity.Session) {
	resp, err := s.Sync(ctx, session)
	if err != nil {
		s.logger.Warn("Cart sync after login failed", zap.String("session_id", session.ID), zap.Error(err))
		return
	}
	s.logger.Info("Cart synced after login", zap.String("session_id", session.ID), zap.String("outcome", resp.Outcome))
}

func (s *Service) synced(ctx context.Context, outcome string, c *cart.Cart) *SyncResponse {
	s.metrics.RecordCartSync(ctx, outcome)
	return &SyncResponse{Outcome: outcome, Cart: s.toResponse(c)}
}

func (s *Service) push(ctx context.Context, token string, c *cart.Cart) error {
	if err := s.remote.ClearLines(ctx, token); err != nil {
		return err
	}
	var errs []error
	for _, it := range c.Items {
		if err := s.remote.AddLine(ctx, token, it.ProductID, it.Quantity); err != nil {
			errs = append(errs, fmt.Errorf("product %s: %w", it.ProductID, err))
		}
	}
	return errors.Join(errs...)
}

// hydrate resolves remote lines into cart items, skipping lines whose product cannot be loaded
func (s *Service) hydrate(ctx context.Context, token string, lines []cart.RemoteLine) []cart.Item {
	resolved := make([]*cart.Item, len(lines))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(hydrateConcurrency)
	for i, line := range lines {
		g.Go(func() error {
			p, err := s.products.Get(gctx, token, line.ProductID)
			if err != nil {
				s.logger.Warn("Skipping remote cart line", zap.String("product_id", line.ProductID), zap.Error(err))
				return nil
			}
			item := itemFromProduct(*p, line.Quantity)
			resolved[i] = &item
			return nil
		})
	}
	_ = g.Wait()

	items := make([]cart.Item, 0, len(lines))
	for _, it := range resolved {
		if it != nil && it.Quantity > 0 {
			items = append(items, *it)
		}
	}
	return items
}

// mirror applies fn to the remote cart when the session has a token. Failures are logged only.
func (s *Service) mirror(ctx context.Context, token, op string, fn func(ctx context.Context) error) {
	if token == "" || s.remote == nil {
		return
	}
	if err := fn(ctx); err != nil {
		s.logger.Warn("Remote cart mirror failed", zap.String("operation", op), zap.Error(err))
	}
}

func (s *Service) summary(c *cart.Cart) SummaryResponse {
	sum := s.pricing.Summarize(c)
	resp := SummaryResponse{Summary: sum}
	if s.formatter != nil {
		resp.SubtotalLabel = s.formatter.Price(sum.Subtotal)
		resp.ShippingLabel = s.formatter.Price(sum.Shipping)
		resp.TaxLabel = s.formatter.Price(sum.Tax)
		resp.TotalLabel = s.formatter.Price(sum.Total)
		if !c.IsEmpty() {
			resp.FreeShippingMessage = s.formatter.FreeShippingHint(sum.AmountToFreeShipping)
		}
	}
	return resp
}

func (s *Service) toResponse(c *cart.Cart) *CartResponse {
	items := make([]ItemResponse, 0, len(c.Items))
	for _, it := range c.Items {
		r := ItemResponse{
			ProductID: it.ProductID,
			Name:      it.Name,
			Price:     it.Price,
			Quantity:  it.Quantity,
			Image:     it.Image,
			Stock:     it.Stock,
			LineTotal: it.LineTotal(),
		}
		if s.formatter != nil {
			r.PriceLabel = s.formatter.Price(it.Price)
			r.LineTotalLabel = s.formatter.Price(r.LineTotal)
		}
		items = append(items, r)
	}
	return &CartResponse{Items: items, Summary: s.summary(c), UpdatedAt: c.UpdatedAt}
}

func itemFromProduct(p catalog.Product, qty int) cart.Item {
	image := p.Image
	if image == "" {
		image = catalog.ImageFor(p.Name)
	}
	return cart.Item{
		ProductID: p.ID,
		Name:      p.Name,
		Price:     p.Price,
		Quantity:  qty,
		Image:     image,
		Stock:     p.Stock,
	}
}

func insufficientStock(stock int) error {
	if stock <= 0 {
		return shared.ErrInsufficientStock.WithMessage("This product is out of stock")
	}
	return shared.ErrInsufficientStock.WithMessage(fmt.Sprintf("Only %d left in stock", stock))
}
