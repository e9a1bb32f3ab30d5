package backend

import (
	"context"
	"net/http"
	"net/url"

	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/catalog"
)

// ProductGateway implements catalog.ProductGateway over /api/products
type ProductGateway struct {
	client *Client
}

// NewProductGateway creates a product gateway
func NewProductGateway(client *Client) *ProductGateway {
	return &ProductGateway{client: client}
}

var _ catalog.ProductGateway = (*ProductGateway)(nil)

// List fetches products matching filter
func (g *ProductGateway) List(ctx context.Context, token string, filter catalog.Filter) ([]catalog.Product, error) {
	q := url.Values{}
	if c := filter.EffectiveCategory(); c != "" {
		q.Set("category", c)
	}
	if filter.MinPrice != nil {
		q.Set("minPrice", filter.MinPrice.String())
	}
	if filter.MaxPrice != nil {
		q.Set("maxPrice", filter.MaxPrice.String())
	}
	if filter.Search != "" {
		q.Set("search", filter.Search)
	}
	endpoint := "/api/products"
	if len(q) > 0 {
		endpoint += "?" + q.Encode()
	}

	var dtos []productDTO
	if err := g.client.Do(ctx, http.MethodGet, endpoint, token, nil, &dtos); err != nil {
		return nil, translate(err)
	}
	products := make([]catalog.Product, 0, len(dtos))
	for _, d := range dtos {
		products = append(products, d.toDomain())
	}
	return products, nil
}

// Get fetches one product
func (g *ProductGateway) Get(ctx context.Context, token, id string) (*catalog.Product, error) {
	var dto productDTO
	if err := g.client.Do(ctx, http.MethodGet, "/api/products/"+url.PathEscape(id), token, nil, &dto); err != nil {
		return nil, translate(err)
	}
	p := dto.toDomain()
	return &p, nil
}

// Create posts a new product
func (g *ProductGateway) Create(ctx context.Context, token string, draft catalog.ProductDraft) (*catalog.Product, error) {
	price := draft.Price.InexactFloat64()
	body := productWriteDTO{
		Name:              &draft.Name,
		Description:       &draft.Description,
		Price:             &price,
		AvailableQuantity: &draft.Stock,
		Category:          &draft.Category,
	}
	var dto productDTO
	if err := g.client.Do(ctx, http.MethodPost, "/api/products", token, body, &dto); err != nil {
		return nil, translate(err)
	}
	p := dto.toDomain()
	return &p, nil
}

// Update sends only the fields set on patch
func (g *ProductGateway) Update(ctx context.Context, token, id string, patch catalog.ProductPatch) (*catalog.Product, error) {
	body := productWriteDTO{
		Name:              patch.Name,
		Description:       patch.Description,
		AvailableQuantity: patch.Stock,
		Category:          patch.Category,
	}
	if patch.Price != nil {
		price := patch.Price.InexactFloat64()
		body.Price = &price
	}
	var dto productDTO
	if err := g.client.Do(ctx, http.MethodPut, "/api/products/"+url.PathEscape(id), token, body, &dto); err != nil {
		return nil, translate(err)
	}
	p := dto.toDomain()
	return &p, nil
}

// Delete removes a product
func (g *ProductGateway) Delete(ctx context.Context, token, id string) error {
	return translate(g.client.Do(ctx, http.MethodDelete, "/api/products/"+url.PathEscape(id), token, nil, nil))
}

func (d productDTO) toDomain() catalog.Product {
	return catalog.Product{
		ID:          string(d.ID),
		Name:        d.Name,
		Description: d.Description,
		Price:       decimal.NewFromFloat(d.Price),
		Stock:       d.AvailableQuantity,
		Category:    d.Category,
		Image:       catalog.ImageFor(d.Name),
		CreatedAt:   d.CreatedAt.ptr(),
		UpdatedAt:   d.UpdatedAt.ptr(),
	}
}
