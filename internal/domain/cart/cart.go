package cart

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/shared"
)

// Item is one product line in a cart with the price captured when it was added
type Item struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	Image     string          `json:"image,omitempty"`
	Stock     int             `json:"stock"`
}

// LineTotal returns price * quantity
func (i Item) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Cart is a shopper's cart, keyed by owner
type Cart struct {
	OwnerKey  string    `json:"ownerKey"`
	Items     []Item    `json:"items"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// New returns an empty cart for owner
func New(ownerKey string) *Cart {
	return &Cart{OwnerKey: ownerKey, Items: []Item{}, UpdatedAt: time.Now()}
}

// Find returns the item for productID, if present
func (c *Cart) Find(productID string) (Item, bool) {
	for _, it := range c.Items {
		if it.ProductID == productID {
			return it, true
		}
	}
	return Item{}, false
}

// Add inserts item or merges its quantity into the existing line.
// The stored price, name and image are refreshed from item.
func (c *Cart) Add(item Item) error {
	if item.ProductID == "" {
		return shared.ErrInvalidInput.WithMessage("Product ID is required")
	}
	if item.Quantity < 1 {
		return shared.ErrInvalidInput.WithMessage("Quantity must be at least 1")
	}
	for i := range c.Items {
		if c.Items[i].ProductID == item.ProductID {
			c.Items[i].Quantity += item.Quantity
			c.Items[i].Price = item.Price
			c.Items[i].Name = item.Name
			c.Items[i].Image = item.Image
			c.Items[i].Stock = item.Stock
			c.touch()
			return nil
		}
	}
	c.Items = append(c.Items, item)
	c.touch()
	return nil
}

// SetQuantity sets the quantity for productID; a quantity <= 0 removes the line
func (c *Cart) SetQuantity(productID string, quantity int) error {
	if quantity <= 0 {
		c.Remove(productID)
		return nil
	}
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items[i].Quantity = quantity
			c.touch()
			return nil
		}
	}
	return shared.ErrNotFound.WithMessage("Item is not in the cart")
}

// Remove drops productID from the cart; removing a missing item is a no-op
func (c *Cart) Remove(productID string) {
	out := c.Items[:0]
	for _, it := range c.Items {
		if it.ProductID != productID {
			out = append(out, it)
		}
	}
	c.Items = out
	c.touch()
}

// Clear empties the cart
func (c *Cart) Clear() {
	c.Items = []Item{}
	c.touch()
}

// Replace swaps the cart contents for items
func (c *Cart) Replace(items []Item) {
	c.Items = append([]Item{}, items...)
	c.touch()
}

// Subtotal sums all line totals
func (c *Cart) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, it := range c.Items {
		total = total.Add(it.LineTotal())
	}
	return total
}

// ItemCount sums the quantities of all lines
func (c *Cart) ItemCount() int {
	n := 0
	for _, it := range c.Items {
		n += it.Quantity
	}
	return n
}

// IsEmpty reports whether the cart has no lines
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

func (c *Cart) touch() {
	c.UpdatedAt = time.Now()
}
