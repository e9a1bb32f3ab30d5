package backend

import (
	"strings"
	"time"
)

type productDTO struct {
	ID                wireID   `json:"id"`
	Name              string   `json:"name"`
	Description       string   `json:"description"`
	Price             float64  `json:"price"`
	AvailableQuantity int      `json:"availableQuantity"`
	Category          string   `json:"category"`
	CreatedAt         wireTime `json:"createdAt,omitempty"`
	UpdatedAt         wireTime `json:"updatedAt,omitempty"`
}

type productWriteDTO struct {
	Name              *string  `json:"name,omitempty"`
	Description       *string  `json:"description,omitempty"`
	Price             *float64 `json:"price,omitempty"`
	AvailableQuantity *int     `json:"availableQuantity,omitempty"`
	Category          *string  `json:"category,omitempty"`
}

type cartLineDTO struct {
	ProductID wireID `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type cartDTO struct {
	UserID wireID        `json:"userId"`
	Items  []cartLineDTO `json:"items"`
}

type orderLineDTO struct {
	ProductID wireID  `json:"productId"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unitPrice"`
}

type orderDTO struct {
	ID          wireID         `json:"id"`
	UserID      wireID         `json:"userId"`
	Items       []orderLineDTO `json:"items"`
	TotalAmount float64        `json:"totalAmount"`
	Status      string         `json:"status"`
	CreatedAt   wireTime       `json:"createdAt,omitempty"`
	UpdatedAt   wireTime       `json:"updatedAt,omitempty"`
}

type orderCreateDTO struct {
	UserID      wireID         `json:"userId"`
	Items       []orderLineDTO `json:"items"`
	TotalAmount float64        `json:"totalAmount"`
	Status      string         `json:"status"`
}

type orderStatusDTO struct {
	Status string `json:"status"`
}

type purchaseDTO struct {
	ID               wireID   `json:"id"`
	Username         string   `json:"username"`
	PurchaseDate     string   `json:"purchaseDate"`
	DeliveryTime     string   `json:"deliveryTime"`
	DeliveryLocation string   `json:"deliveryLocation"`
	ProductName      string   `json:"productName"`
	Quantity         int      `json:"quantity"`
	Message          string   `json:"message"`
	Status           string   `json:"status"`
	CreatedAt        wireTime `json:"createdAt,omitempty"`
	UpdatedAt        wireTime `json:"updatedAt,omitempty"`
}

type purchaseRequestDTO struct {
	Username         string `json:"username"`
	PurchaseDate     string `json:"purchaseDate"`
	DeliveryTime     string `json:"deliveryTime"`
	DeliveryLocation string `json:"deliveryLocation"`
	ProductName      string `json:"productName"`
	Quantity         int    `json:"quantity"`
	Message          string `json:"message"`
}

type userDTO struct {
	ID            wireID   `json:"id"`
	Username      string   `json:"username"`
	Email         string   `json:"email"`
	Name          string   `json:"name"`
	ContactNumber string   `json:"contactNumber"`
	Country       string   `json:"country"`
	Roles         []string `json:"roles"`
	CreatedAt     wireTime `json:"createdAt,omitempty"`
	UpdatedAt     wireTime `json:"updatedAt,omitempty"`
}

type registerDTO struct {
	Username      string `json:"username"`
	Email         string `json:"email"`
	Password      string `json:"password"`
	Name          string `json:"name"`
	ContactNumber string `json:"contactNumber"`
	Country       string `json:"country"`
}

type userUpdateDTO struct {
	Email         *string `json:"email,omitempty"`
	Name          *string `json:"name,omitempty"`
	ContactNumber *string `json:"contactNumber,omitempty"`
	Country       *string `json:"country,omitempty"`
}

// wireID accepts both string and numeric identifiers and always encodes as a string.
type wireID string

func (id *wireID) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		*id = ""
		return nil
	}
	*id = wireID(strings.Trim(s, `"`))
	return nil
}

// wireTime accepts the timestamp shapes the backend emits: RFC 3339,
// zone-less local date-times and plain dates. Unparseable values decode as zero.
type wireTime struct {
	time.Time
}

var wireTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func (t *wireTime) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		return nil
	}
	for _, layout := range wireTimeLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return nil
}

func (t wireTime) ptr() *time.Time {
	if t.IsZero() {
		return nil
	}
	v := t.Time
	return &v
}
