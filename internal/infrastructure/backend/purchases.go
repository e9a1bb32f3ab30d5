package backend

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/storefront/backend/internal/domain/purchase"
)

// PurchaseGateway implements purchase.Gateway over /api/purchases
type PurchaseGateway struct {
	client *Client
}

// NewPurchaseGateway creates a purchase gateway
func NewPurchaseGateway(client *Client) *PurchaseGateway {
	return &PurchaseGateway{client: client}
}

var _ purchase.Gateway = (*PurchaseGateway)(nil)

// Create submits a purchase; the delivery time is sent in the backend's 24h form
func (g *PurchaseGateway) Create(ctx context.Context, token string, p purchase.Purchase) (*purchase.Purchase, error) {
	deliveryTime, ok := purchase.ToBackendTime(p.DeliveryTime)
	if !ok {
		deliveryTime = p.DeliveryTime
	}
	body := purchaseRequestDTO{
		Username:         p.Username,
		PurchaseDate:     p.PurchaseDate.Format(purchase.DateLayout),
		DeliveryTime:     deliveryTime,
		DeliveryLocation: p.DeliveryLocation,
		ProductName:      p.ProductName,
		Quantity:         p.Quantity,
		Message:          p.Message,
	}
	var dto purchaseDTO
	if err := g.client.Do(ctx, http.MethodPost, "/api/purchases", token, body, &dto); err != nil {
		return nil, translate(err)
	}
	created := dto.toDomain()
	if created.Username == "" {
		created.Username = p.Username
	}
	return &created, nil
}

// ListMine returns the caller's purchases
func (g *PurchaseGateway) ListMine(ctx context.Context, token string) ([]purchase.Purchase, error) {
	return g.list(ctx, token, "/api/purchases")
}

// ListAll returns every purchase; the backend restricts it to administrators
func (g *PurchaseGateway) ListAll(ctx context.Context, token string) ([]purchase.Purchase, error) {
	return g.list(ctx, token, "/api/purchases/admin")
}

// Get returns one purchase
func (g *PurchaseGateway) Get(ctx context.Context, token, id string) (*purchase.Purchase, error) {
	var dto purchaseDTO
	if err := g.client.Do(ctx, http.MethodGet, "/api/purchases/"+url.PathEscape(id), token, nil, &dto); err != nil {
		return nil, translate(err)
	}
	p := dto.toDomain()
	return &p, nil
}

func (g *PurchaseGateway) list(ctx context.Context, token, endpoint string) ([]purchase.Purchase, error) {
	var dtos []purchaseDTO
	if err := g.client.Do(ctx, http.MethodGet, endpoint, token, nil, &dtos); err != nil {
		return nil, translate(err)
	}
	purchases := make([]purchase.Purchase, 0, len(dtos))
	for _, d := range dtos {
		purchases = append(purchases, d.toDomain())
	}
	return purchases, nil
}

func (d purchaseDTO) toDomain() purchase.Purchase {
	p := purchase.Purchase{
		ID:               string(d.ID),
		Username:         d.Username,
		DeliveryTime:     purchase.FromBackendTime(d.DeliveryTime),
		DeliveryLocation: d.DeliveryLocation,
		ProductName:      d.ProductName,
		Quantity:         d.Quantity,
		Message:          d.Message,
		Status:           d.Status,
		CreatedAt:        d.CreatedAt.ptr(),
		UpdatedAt:        d.UpdatedAt.ptr(),
	}
	if len(d.PurchaseDate) >= len(purchase.DateLayout) {
		if date, err := time.Parse(purchase.DateLayout, d.PurchaseDate[:len(purchase.DateLayout)]); err == nil {
			p.PurchaseDate = date
		}
	}
	if p.Status == "" {
		p.Status = purchase.StatusPending
	}
	return p
}
