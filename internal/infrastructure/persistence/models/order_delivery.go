package models

import (
	"time"

	"github.com/storefront/backend/internal/domain/order"
)

// OrderDeliveryModel stores the delivery slot chosen for a backend order
type OrderDeliveryModel struct {
	OrderID          string    `gorm:"type:varchar(64);primaryKey"`
	DeliveryDate     time.Time `gorm:"not null"`
	DeliveryTime     string    `gorm:"type:varchar(16);not null"`
	DeliveryLocation string    `gorm:"type:varchar(100);not null"`
	CreatedAt        time.Time `gorm:"not null"`
	UpdatedAt        time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (OrderDeliveryModel) TableName() string {
	return "order_deliveries"
}

// ToDomain converts the model to a domain Delivery
func (m *OrderDeliveryModel) ToDomain() order.Delivery {
	return order.Delivery{
		OrderID:  m.OrderID,
		Date:     m.DeliveryDate,
		Time:     m.DeliveryTime,
		Location: m.DeliveryLocation,
	}
}

// OrderDeliveryModelFromDomain creates a persistence model from a domain Delivery
func OrderDeliveryModelFromDomain(d order.Delivery) *OrderDeliveryModel {
	now := time.Now()
	return &OrderDeliveryModel{
		OrderID:          d.OrderID,
		DeliveryDate:     d.Date,
		DeliveryTime:     d.Time,
		DeliveryLocation: d.Location,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// All lists every model, in dependency order, for AutoMigrate
func All() []any {
	return []any{&DemoUserModel{}, &OrderDeliveryModel{}}
}
