package cart

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/cart"
)

// AddItemRequest adds a product to the cart; quantity defaults to 1
type AddItemRequest struct {
	ProductID string `json:"productId" binding:"required,max=64"`
	Quantity  int    `json:"quantity" binding:"omitempty,min=1,max=1000"`
}

// UpdateQuantityRequest sets an item's quantity; 0 removes the item
type UpdateQuantityRequest struct {
	Quantity *int `json:"quantity" binding:"required,min=0,max=1000"`
}

// ItemResponse is a cart line
type ItemResponse struct {
	ProductID      string          `json:"productId"`
	Name           string          `json:"name"`
	Price          decimal.Decimal `json:"price"`
	PriceLabel     string          `json:"priceLabel"`
	Quantity       int             `json:"quantity"`
	Image          string          `json:"image,omitempty"`
	Stock          int             `json:"stock"`
	LineTotal      decimal.Decimal `json:"lineTotal"`
	LineTotalLabel string          `json:"lineTotalLabel"`
}

// SummaryResponse is the priced cart summary
type SummaryResponse struct {
	cart.Summary
	SubtotalLabel       string `json:"subtotalLabel"`
	ShippingLabel       string `json:"shippingLabel"`
	TaxLabel            string `json:"taxLabel"`
	TotalLabel          string `json:"totalLabel"`
	FreeShippingMessage string `json:"freeShippingMessage,omitempty"`
}

// CartResponse is the cart with its summary
type CartResponse struct {
	Items     []ItemResponse  `json:"items"`
	Summary   SummaryResponse `json:"summary"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// Sync outcomes
const (
	SyncSkipped   = "skipped"
	SyncPulled    = "pulled"
	SyncPushed    = "pushed"
	SyncUnchanged = "unchanged"
)

// SyncResponse reports what a reconciliation did
type SyncResponse struct {
	Outcome string        `json:"outcome"`
	Cart    *CartResponse `json:"cart"`
}
