package backend

import (
	"context"
	"net/http"
	"net/url"

	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/order"
)

// OrderGateway implements order.Gateway over /api/orders
type OrderGateway struct {
	client *Client
}

// NewOrderGateway creates an order gateway
func NewOrderGateway(client *Client) *OrderGateway {
	return &OrderGateway{client: client}
}

var _ order.Gateway = (*OrderGateway)(nil)

// List returns the caller's orders
func (g *OrderGateway) List(ctx context.Context, token string) ([]order.Record, error) {
	var dtos []orderDTO
	if err := g.client.Do(ctx, http.MethodGet, "/api/orders", token, nil, &dtos); err != nil {
		return nil, translate(err)
	}
	records := make([]order.Record, 0, len(dtos))
	for _, d := range dtos {
		records = append(records, d.toRecord())
	}
	return records, nil
}

// Get returns one order
func (g *OrderGateway) Get(ctx context.Context, token, id string) (*order.Record, error) {
	var dto orderDTO
	if err := g.client.Do(ctx, http.MethodGet, "/api/orders/"+url.PathEscape(id), token, nil, &dto); err != nil {
		return nil, translate(err)
	}
	r := dto.toRecord()
	return &r, nil
}

// Create places an order with status PENDING
func (g *OrderGateway) Create(ctx context.Context, token string, p order.Placement) (*order.Record, error) {
	body := orderCreateDTO{
		UserID:      wireID(p.UserID),
		Items:       make([]orderLineDTO, 0, len(p.Lines)),
		TotalAmount: p.TotalAmount.InexactFloat64(),
		Status:      order.BackendPending,
	}
	for _, l := range p.Lines {
		body.Items = append(body.Items, orderLineDTO{
			ProductID: wireID(l.ProductID),
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice.InexactFloat64(),
		})
	}

	var dto orderDTO
	if err := g.client.Do(ctx, http.MethodPost, "/api/orders", token, body, &dto); err != nil {
		return nil, translate(err)
	}
	r := dto.toRecord()
	return &r, nil
}

// UpdateStatus sets the backend status of an order
func (g *OrderGateway) UpdateStatus(ctx context.Context, token, id, backendStatus string) (*order.Record, error) {
	var dto orderDTO
	body := orderStatusDTO{Status: backendStatus}
	if err := g.client.Do(ctx, http.MethodPut, "/api/orders/"+url.PathEscape(id), token, body, &dto); err != nil {
		return nil, translate(err)
	}
	r := dto.toRecord()
	return &r, nil
}

func (d orderDTO) toRecord() order.Record {
	r := order.Record{
		ID:          string(d.ID),
		UserID:      string(d.UserID),
		Lines:       make([]order.Line, 0, len(d.Items)),
		TotalAmount: decimal.NewFromFloat(d.TotalAmount),
		Status:      d.Status,
		CreatedAt:   d.CreatedAt.Time,
		UpdatedAt:   d.UpdatedAt.ptr(),
	}
	for _, it := range d.Items {
		r.Lines = append(r.Lines, order.Line{
			ProductID: string(it.ProductID),
			Quantity:  it.Quantity,
			UnitPrice: decimal.NewFromFloat(it.UnitPrice),
		})
	}
	return r
}
