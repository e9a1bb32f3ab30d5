package cart

import "github.com/shopspring/decimal"

// PricingPolicy holds the shipping and tax rules applied to a cart
type PricingPolicy struct {
	TaxRate               decimal.Decimal
	ShippingFee           decimal.Decimal
	FreeShippingThreshold decimal.Decimal
	Currency              string
}

// DefaultPricingPolicy returns 8% tax and 9.99 shipping, free above 100
func DefaultPricingPolicy() PricingPolicy {
	return PricingPolicy{
		TaxRate:               decimal.RequireFromString("0.08"),
		ShippingFee:           decimal.RequireFromString("9.99"),
		FreeShippingThreshold: decimal.NewFromInt(100),
		Currency:              "USD",
	}
}

// Summary is the priced view of a cart
type Summary struct {
	ItemCount             int             `json:"itemCount"`
	Subtotal              decimal.Decimal `json:"subtotal"`
	Shipping              decimal.Decimal `json:"shipping"`
	Tax                   decimal.Decimal `json:"tax"`
	Total                 decimal.Decimal `json:"total"`
	FreeShipping          bool            `json:"freeShipping"`
	AmountToFreeShipping  decimal.Decimal `json:"amountToFreeShipping"`
	FreeShippingThreshold decimal.Decimal `json:"freeShippingThreshold"`
	Currency              string          `json:"currency"`
}

// Summarize prices the cart. Shipping is waived only when the subtotal is
// strictly above the threshold; an empty cart costs nothing.
func (p PricingPolicy) Summarize(c *Cart) Summary {
	subtotal := c.Subtotal()
	shipping := p.ShippingFee
	free := subtotal.GreaterThan(p.FreeShippingThreshold)
	if free || c.IsEmpty() {
		shipping = decimal.Zero
	}
	tax := subtotal.Mul(p.TaxRate)

	toFree := decimal.Zero
	if subtotal.LessThan(p.FreeShippingThreshold) {
		toFree = p.FreeShippingThreshold.Sub(subtotal)
	}

	return Summary{
		ItemCount:             c.ItemCount(),
		Subtotal:              subtotal.Round(2),
		Shipping:              shipping.Round(2),
		Tax:                   tax.Round(2),
		Total:                 subtotal.Add(shipping).Add(tax).Round(2),
		FreeShipping:          free,
		AmountToFreeShipping:  toFree.Round(2),
		FreeShippingThreshold: p.FreeShippingThreshold,
		Currency:              p.Currency,
	}
}
