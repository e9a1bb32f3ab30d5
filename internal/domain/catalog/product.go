package catalog

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/shared"
)

// DefaultCategory is assigned to products created without a category
const DefaultCategory = "General"

// AllCategories is the filter value meaning "no category filter"
const AllCategories = "All categories"

// Product represents a sellable item from the remote catalog
type Product struct {
	ID          string
	Name        string
	Description string
	Price       decimal.Decimal
	Stock       int
	Category    string
	Image       string
	CreatedAt   *time.Time
	UpdatedAt   *time.Time
}

// InStock reports whether at least qty units are available
func (p *Product) InStock(qty int) bool {
	return p.Stock >= qty
}

// ProductDraft carries the fields for creating a product
type ProductDraft struct {
	Name        string
	Description string
	Price       decimal.Decimal
	Stock       int
	Category    string
}

// Normalize applies defaults and validates the draft
func (d *ProductDraft) Normalize() error {
	d.Name = strings.TrimSpace(d.Name)
	d.Category = strings.TrimSpace(d.Category)
	if d.Category == "" {
		d.Category = DefaultCategory
	}
	if err := validateProductName(d.Name); err != nil {
		return err
	}
	if err := validatePrice(d.Price); err != nil {
		return err
	}
	return validateStock(d.Stock)
}

// ProductPatch carries a partial update; nil fields are left unchanged
type ProductPatch struct {
	Name        *string
	Description *string
	Price       *decimal.Decimal
	Stock       *int
	Category    *string
}

// IsEmpty reports whether the patch changes nothing
func (p *ProductPatch) IsEmpty() bool {
	return p.Name == nil && p.Description == nil && p.Price == nil && p.Stock == nil && p.Category == nil
}

// Validate checks the fields that are set
func (p *ProductPatch) Validate() error {
	if p.IsEmpty() {
		return shared.ErrInvalidInput.WithMessage("At least one field must be provided")
	}
	if p.Name != nil {
		if err := validateProductName(strings.TrimSpace(*p.Name)); err != nil {
			return err
		}
	}
	if p.Price != nil {
		if err := validatePrice(*p.Price); err != nil {
			return err
		}
	}
	if p.Stock != nil {
		if err := validateStock(*p.Stock); err != nil {
			return err
		}
	}
	return nil
}

func validateProductName(name string) error {
	if name == "" {
		return shared.NewDomainError("INVALID_INPUT", "Product name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewDomainError("INVALID_INPUT", "Product name cannot exceed 200 characters")
	}
	return nil
}

func validatePrice(price decimal.Decimal) error {
	if price.IsNegative() {
		return shared.NewDomainError("INVALID_INPUT", "Price cannot be negative")
	}
	return nil
}

func validateStock(stock int) error {
	if stock < 0 {
		return shared.NewDomainError("INVALID_INPUT", "Stock cannot be negative")
	}
	return nil
}
