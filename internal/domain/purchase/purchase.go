package purchase

import (
	"context"
	"time"
	"unicode/utf8"

	"github.com/storefront/backend/internal/domain/shared"
)

// Limits for purchase requests
const (
	MinQuantity      = 1
	MaxQuantity      = 100
	MaxMessageLength = 500

	// StatusPending is assigned when the backend does not report a status
	StatusPending = "PENDING"

	// DateLayout is the wire format for purchase dates
	DateLayout = "2006-01-02"
)

// Purchase is a delivery request for a single catalog product
type Purchase struct {
	ID               string
	Username         string
	PurchaseDate     time.Time
	DeliveryTime     string
	DeliveryLocation string
	ProductName      string
	Quantity         int
	Message          string
	Status           string
	CreatedAt        *time.Time
	UpdatedAt        *time.Time
}

// Request is the shopper's input for a new purchase
type Request struct {
	PurchaseDate     *time.Time
	DeliveryTime     string
	DeliveryLocation string
	ProductName      string
	Quantity         int
	Message          string
}

// Validate checks the request against the delivery rules as of now.
// Every failing field is reported.
func (r Request) Validate(now time.Time) error {
	var errs shared.ValidationErrors
	if msg := ValidateDeliveryDate(r.PurchaseDate, now); msg != "" {
		errs.Add("purchaseDate", msg)
	}
	if r.DeliveryTime == "" {
		errs.Add("deliveryTime", "Please select a delivery time")
	} else if _, ok := ToBackendTime(r.DeliveryTime); !ok {
		errs.Add("deliveryTime", "Invalid delivery time")
	}
	if r.DeliveryLocation == "" {
		errs.Add("deliveryLocation", "Please select a delivery location")
	} else if !IsDistrict(r.DeliveryLocation) {
		errs.Add("deliveryLocation", "Invalid delivery location")
	}
	if r.ProductName == "" {
		errs.Add("productName", "Please select a product")
	} else if !IsProduct(r.ProductName) {
		errs.Add("productName", "Invalid product")
	}
	if r.Quantity < MinQuantity {
		errs.Add("quantity", "Quantity must be at least 1")
	} else if r.Quantity > MaxQuantity {
		errs.Add("quantity", "Quantity cannot exceed 100")
	}
	if utf8.RuneCountInString(r.Message) > MaxMessageLength {
		errs.Add("message", "Message cannot exceed 500 characters")
	}
	return errs.Err()
}

// ValidateDeliveryDate returns a user-facing message when date is not deliverable, or "".
// Dates are compared by calendar day in now's location.
func ValidateDeliveryDate(date *time.Time, now time.Time) string {
	if date == nil || date.IsZero() {
		return "Please select a delivery date"
	}
	day := startOfDay(date.In(now.Location()))
	if day.Before(startOfDay(now)) {
		return "Delivery date cannot be in the past"
	}
	if day.Weekday() == time.Sunday {
		return "Delivery is not available on Sundays"
	}
	return ""
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Gateway reads and writes purchases on the remote backend
type Gateway interface {
	Create(ctx context.Context, token string, p Purchase) (*Purchase, error)
	ListMine(ctx context.Context, token string) ([]Purchase, error)
	Get(ctx context.Context, token, id string) (*Purchase, error)
	ListAll(ctx context.Context, token string) ([]Purchase, error)
}
