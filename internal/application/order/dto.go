package order

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/order"
)

// UpdateStatusRequest changes an order's status
type UpdateStatusRequest struct {
	Status order.Status `json:"status" binding:"required,oneof=pending confirmed processing shipped delivered cancelled"`
}

// OrderResponse represents an order in API responses
type OrderResponse struct {
	ID                string          `json:"id"`
	UserID            string          `json:"userId"`
	Items             []order.Item    `json:"items"`
	TotalAmount       decimal.Decimal `json:"totalAmount"`
	TotalLabel        string          `json:"totalLabel"`
	Status            order.Status    `json:"status"`
	StatusLabel       string          `json:"statusLabel"`
	CanCancel         bool            `json:"canCancel"`
	DeliveryDate      string          `json:"deliveryDate"`
	DeliveryTime      string          `json:"deliveryTime"`
	DeliveryLocation  string          `json:"deliveryLocation"`
	OrderDate         time.Time       `json:"orderDate"`
	TrackingNumber    string          `json:"trackingNumber"`
	EstimatedDelivery string          `json:"estimatedDelivery"`
}

// OrderListResponse is a filtered order list with per-status counts
type OrderListResponse struct {
	Orders []OrderResponse `json:"orders"`
	Counts map[string]int  `json:"counts"`
	Total  int             `json:"total"`
}

// CancelResult reports a cancellation attempt
type CancelResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
