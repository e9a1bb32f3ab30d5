// Package catalog serves the product catalog from the storefront backend.
package catalog

import (
	"context"

	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/infrastructure/render"
	"github.com/storefront/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ProductService handles product-related operations
type ProductService struct {
	products  catalog.ProductGateway
	markdown  *render.Markdown
	formatter *render.Formatter
	logger    *zap.Logger
}

// NewProductService creates a new ProductService
func NewProductService(
	products catalog.ProductGateway,
	markdown *render.Markdown,
	formatter *render.Formatter,
	logger *zap.Logger,
) *ProductService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProductService{
		products:  products,
		markdown:  markdown,
		formatter: formatter,
		logger:    logger,
	}
}

// List returns the products matching filter. The filter is re-applied locally
// since the backend may ignore some query parameters.
func (s *ProductService) List(ctx context.Context, token string, filter catalog.Filter) (resp *ProductListResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "ProductService", "List",
		attribute.String("catalog.category", filter.EffectiveCategory()))
	defer func() { telemetry.EndSpan(span, err) }()

	all, err := s.products.List(ctx, token, filter)
	if err != nil {
		return nil, err
	}

	resp = &ProductListResponse{
		Products:   make([]ProductResponse, 0, len(all)),
		Categories: catalog.Categories(all),
	}
	for _, p := range all {
		if !filter.Matches(p) {
			continue
		}
		resp.Products = append(resp.Products, s.toResponse(p))
	}
	resp.Total = len(resp.Products)
	return resp, nil
}

// Get returns one product
func (s *ProductService) Get(ctx context.Context, token, id string) (*ProductResponse, error) {
	p, err := s.products.Get(ctx, token, id)
	if err != nil {
		return nil, err
	}
	resp := s.toResponse(*p)
	return &resp, nil
}

// Create adds a product; the category defaults to General
func (s *ProductService) Create(ctx context.Context, token string, req CreateProductRequest) (*ProductResponse, error) {
	draft := req.toDraft()
	if err := draft.Normalize(); err != nil {
		return nil, err
	}
	p, err := s.products.Create(ctx, token, draft)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Product created", zap.String("product_id", p.ID), zap.String("name", p.Name))
	resp := s.toResponse(*p)
	return &resp, nil
}

// Update changes only the fields set in req
func (s *ProductService) Update(ctx context.Context, token, id string, req UpdateProductRequest) (*ProductResponse, error) {
	patch := req.toPatch()
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	p, err := s.products.Update(ctx, token, id, patch)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Product updated", zap.String("product_id", id))
	resp := s.toResponse(*p)
	return &resp, nil
}

// Delete removes a product
func (s *ProductService) Delete(ctx context.Context, token, id string) error {
	if err := s.products.Delete(ctx, token, id); err != nil {
		return err
	}
	s.logger.Info("Product deleted", zap.String("product_id", id))
	return nil
}

// Categories returns the distinct categories of the catalog, sorted
func (s *ProductService) Categories(ctx context.Context, token string) ([]string, error) {
	all, err := s.products.List(ctx, token, catalog.Filter{})
	if err != nil {
		return nil, err
	}
	return catalog.Categories(all), nil
}

func (s *ProductService) toResponse(p catalog.Product) ProductResponse {
	image := p.Image
	if image == "" {
		image = catalog.ImageFor(p.Name)
	}
	resp := ProductResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Stock:       p.Stock,
		InStock:     p.Stock > 0,
		Category:    p.Category,
		Image:       image,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
	if s.formatter != nil {
		resp.PriceLabel = s.formatter.Price(p.Price)
	}
	if s.markdown != nil {
		html, err := s.markdown.HTML(p.Description)
		if err != nil {
			s.logger.Warn("Failed to render product description", zap.String("product_id", p.ID), zap.Error(err))
		} else {
			resp.DescriptionHTML = html
		}
	}
	return resp
}
