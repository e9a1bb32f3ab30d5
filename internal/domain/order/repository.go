package order

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Line is an order line as the backend stores it
type Line struct {
	ProductID string
	Quantity  int
	UnitPrice decimal.Decimal
}

// Record is an order as the backend returns it, before hydration
type Record struct {
	ID          string
	UserID      string
	Lines       []Line
	TotalAmount decimal.Decimal
	Status      string
	CreatedAt   time.Time
	UpdatedAt   *time.Time
}

// Placement is the payload for creating an order upstream
type Placement struct {
	UserID      string
	Lines       []Line
	TotalAmount decimal.Decimal
}

// Gateway reads and writes orders on the remote backend
type Gateway interface {
	List(ctx context.Context, token string) ([]Record, error)
	Get(ctx context.Context, token, id string) (*Record, error)
	Create(ctx context.Context, token string, p Placement) (*Record, error)
	UpdateStatus(ctx context.Context, token, id, backendStatus string) (*Record, error)
}

// DeliveryRepository persists the delivery slot chosen at checkout,
// which the backend does not store.
type DeliveryRepository interface {
	Save(ctx context.Context, d Delivery) error
	FindByOrderIDs(ctx context.Context, ids []string) (map[string]Delivery, error)
}
