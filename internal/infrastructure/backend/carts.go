package backend

import (
	"context"
	"net/http"
	"net/url"

	"github.com/storefront/backend/internal/domain/cart"
)

// CartGateway implements cart.RemoteGateway over /api/cart
type CartGateway struct {
	client *Client
}

// NewCartGateway creates a cart gateway
func NewCartGateway(client *Client) *CartGateway {
	return &CartGateway{client: client}
}

var _ cart.RemoteGateway = (*CartGateway)(nil)

// Lines returns the backend cart's product/quantity pairs
func (g *CartGateway) Lines(ctx context.Context, token string) ([]cart.RemoteLine, error) {
	var dto cartDTO
	if err := g.client.Do(ctx, http.MethodGet, "/api/cart", token, nil, &dto); err != nil {
		return nil, translate(err)
	}
	lines := make([]cart.RemoteLine, 0, len(dto.Items))
	for _, it := range dto.Items {
		lines = append(lines, cart.RemoteLine{ProductID: string(it.ProductID), Quantity: it.Quantity})
	}
	return lines, nil
}

// AddLine adds quantity of productID to the backend cart
func (g *CartGateway) AddLine(ctx context.Context, token, productID string, quantity int) error {
	if quantity < 1 {
		quantity = 1
	}
	body := cartLineDTO{ProductID: wireID(productID), Quantity: quantity}
	return translate(g.client.Do(ctx, http.MethodPost, "/api/cart/items", token, body, nil))
}

// RemoveLine removes productID from the backend cart
func (g *CartGateway) RemoveLine(ctx context.Context, token, productID string) error {
	return translate(g.client.Do(ctx, http.MethodDelete, "/api/cart/items/"+url.PathEscape(productID), token, nil, nil))
}

// ClearLines empties the backend cart
func (g *CartGateway) ClearLines(ctx context.Context, token string) error {
	return translate(g.client.Do(ctx, http.MethodDelete, "/api/cart/clear", token, nil, nil))
}
