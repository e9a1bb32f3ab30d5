package catalog

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/catalog"
)

// CreateProductRequest represents a request to create a new product
type CreateProductRequest struct {
	Name        string          `json:"name" binding:"required,min=1,max=200"`
	Description string          `json:"description" binding:"max=5000"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock" binding:"min=0"`
	Category    string          `json:"category" binding:"max=100"`
}

// UpdateProductRequest represents a partial product update
type UpdateProductRequest struct {
	Name        *string          `json:"name" binding:"omitempty,min=1,max=200"`
	Description *string          `json:"description" binding:"omitempty,max=5000"`
	Price       *decimal.Decimal `json:"price"`
	Stock       *int             `json:"stock" binding:"omitempty,min=0"`
	Category    *string          `json:"category" binding:"omitempty,max=100"`
}

// ListProductsQuery is the product list query string
type ListProductsQuery struct {
	Category string           `form:"category"`
	MinPrice *decimal.Decimal `form:"minPrice"`
	MaxPrice *decimal.Decimal `form:"maxPrice"`
	Search   string           `form:"search" binding:"max=200"`
}

// ToFilter converts the query to a catalog filter
func (q ListProductsQuery) ToFilter() catalog.Filter {
	return catalog.Filter{
		Category: q.Category,
		MinPrice: q.MinPrice,
		MaxPrice: q.MaxPrice,
		Search:   q.Search,
	}
}

// ProductResponse represents a product in API responses
type ProductResponse struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Description     string          `json:"description"`
	DescriptionHTML string          `json:"descriptionHtml"`
	Price           decimal.Decimal `json:"price"`
	PriceLabel      string          `json:"priceLabel"`
	Stock           int             `json:"stock"`
	InStock         bool            `json:"inStock"`
	Category        string          `json:"category"`
	Image           string          `json:"image"`
	CreatedAt       *time.Time      `json:"createdAt,omitempty"`
	UpdatedAt       *time.Time      `json:"updatedAt,omitempty"`
}

// ProductListResponse is a filtered product list
type ProductListResponse struct {
	Products   []ProductResponse `json:"products"`
	Total      int               `json:"total"`
	Categories []string          `json:"categories"`
}

func (r CreateProductRequest) toDraft() catalog.ProductDraft {
	return catalog.ProductDraft{
		Name:        r.Name,
		Description: r.Description,
		Price:       r.Price,
		Stock:       r.Stock,
		Category:    r.Category,
	}
}

func (r UpdateProductRequest) toPatch() catalog.ProductPatch {
	return catalog.ProductPatch{
		Name:        r.Name,
		Description: r.Description,
		Price:       r.Price,
		Stock:       r.Stock,
		Category:    r.Category,
	}
}
