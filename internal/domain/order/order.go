package order

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Status is the storefront view of an order's lifecycle
type Status string

const (
	StatusPending    Status = "pending"
	StatusConfirmed  Status = "confirmed"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

// StatusAll is the filter value matching every status
const StatusAll = "all"

// Statuses lists every storefront status in display order
var Statuses = []Status{
	StatusPending, StatusConfirmed, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled,
}

// IsValid reports whether s is a known status
func (s Status) IsValid() bool {
	for _, v := range Statuses {
		if v == s {
			return true
		}
	}
	return false
}

// CanCancel reports whether an order in this status may still be cancelled
func (s Status) CanCancel() bool {
	return s == StatusPending || s == StatusConfirmed
}

// Backend status values
const (
	BackendPending   = "PENDING"
	BackendCompleted = "COMPLETED"
	BackendCancelled = "CANCELLED"
)

// FromBackend maps a backend status; unknown values read as pending
func FromBackend(status string) Status {
	switch strings.ToUpper(status) {
	case BackendCompleted:
		return StatusDelivered
	case BackendCancelled:
		return StatusCancelled
	default:
		return StatusPending
	}
}

// ToBackend maps a storefront status; statuses the backend cannot store become PENDING
func ToBackend(s Status) string {
	switch s {
	case StatusDelivered:
		return BackendCompleted
	case StatusCancelled:
		return BackendCancelled
	default:
		return BackendPending
	}
}

// Item is a hydrated order line
type Item struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
	Image    string          `json:"image,omitempty"`
}

// Order is the storefront view of a backend order
type Order struct {
	ID                string
	UserID            string
	Items             []Item
	TotalAmount       decimal.Decimal
	Status            Status
	DeliveryDate      time.Time
	DeliveryTime      string
	DeliveryLocation  string
	OrderDate         time.Time
	TrackingNumber    string
	EstimatedDelivery time.Time
}

// Delivery defaults applied when no delivery details were recorded
const (
	DefaultDeliveryTime     = "10:00"
	DefaultDeliveryLocation = "Colombo"
	DefaultDeliveryLeadDays = 2
)

// Delivery is the delivery slot chosen at checkout
type Delivery struct {
	OrderID  string
	Date     time.Time
	Time     string
	Location string
}

// DefaultDelivery returns the fallback delivery slot for an order placed at orderDate
func DefaultDelivery(orderID string, orderDate time.Time) Delivery {
	return Delivery{
		OrderID:  orderID,
		Date:     orderDate.AddDate(0, 0, DefaultDeliveryLeadDays),
		Time:     DefaultDeliveryTime,
		Location: DefaultDeliveryLocation,
	}
}

// ApplyDelivery copies the delivery slot onto the order
func (o *Order) ApplyDelivery(d Delivery) {
	o.DeliveryDate = d.Date
	o.DeliveryTime = d.Time
	o.DeliveryLocation = d.Location
	o.EstimatedDelivery = d.Date
}

// TrackingNumber derives the display tracking number from an order id
func TrackingNumber(id string) string {
	suffix := id
	if len(suffix) > 6 {
		suffix = suffix[len(suffix)-6:]
	}
	return "TRK" + strings.ToUpper(suffix)
}

// FallbackItemName is shown when a product can no longer be resolved
func FallbackItemName(productID string) string {
	return "Product " + productID
}

// Filter returns the orders matching status ("all" or "" matches everything),
// newest first.
func Filter(orders []Order, status string) []Order {
	out := make([]Order, 0, len(orders))
	for _, o := range orders {
		if status == "" || status == StatusAll || string(o.Status) == status {
			out = append(out, o)
		}
	}
	SortNewestFirst(out)
	return out
}

// SortNewestFirst sorts orders by order date, descending
func SortNewestFirst(orders []Order) {
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].OrderDate.After(orders[j].OrderDate)
	})
}

// Counts returns the number of orders per status plus "all"
func Counts(orders []Order) map[string]int {
	counts := make(map[string]int, len(Statuses)+1)
	counts[StatusAll] = len(orders)
	for _, s := range Statuses {
		counts[string(s)] = 0
	}
	for _, o := range orders {
		counts[string(o.Status)]++
	}
	return counts
}
