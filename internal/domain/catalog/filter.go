package catalog

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// Filter narrows a product listing
type Filter struct {
	Category string
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	Search   string
}

// EffectiveCategory returns the category to filter on, or "" for none
func (f Filter) EffectiveCategory() string {
	c := strings.TrimSpace(f.Category)
	if c == AllCategories {
		return ""
	}
	return c
}

// Matches applies the filter locally; used when the upstream ignores a parameter
func (f Filter) Matches(p Product) bool {
	if c := f.EffectiveCategory(); c != "" && !strings.EqualFold(p.Category, c) {
		return false
	}
	if f.MinPrice != nil && p.Price.LessThan(*f.MinPrice) {
		return false
	}
	if f.MaxPrice != nil && p.Price.GreaterThan(*f.MaxPrice) {
		return false
	}
	if s := strings.ToLower(strings.TrimSpace(f.Search)); s != "" {
		if !strings.Contains(strings.ToLower(p.Name), s) && !strings.Contains(strings.ToLower(p.Description), s) {
			return false
		}
	}
	return true
}

// Categories returns the distinct, sorted, non-empty categories of products
func Categories(products []Product) []string {
	seen := make(map[string]struct{}, len(products))
	out := make([]string, 0, len(products))
	for _, p := range products {
		if p.Category == "" {
			continue
		}
		if _, ok := seen[p.Category]; ok {
			continue
		}
		seen[p.Category] = struct{}{}
		out = append(out, p.Category)
	}
	sort.Strings(out)
	return out
}
