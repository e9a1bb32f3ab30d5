// Package purchase handles scheduled product purchases.
package purchase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/storefront/backend/internal/domain/identity"
	"github.com/storefront/backend/internal/domain/purchase"
	"github.com/storefront/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// CreateRequest is the purchase form
type CreateRequest struct {
	PurchaseDate     string `json:"purchaseDate"`
	DeliveryTime     string `json:"deliveryTime"`
	DeliveryLocation string `json:"deliveryLocation"`
	ProductName      string `json:"productName"`
	Quantity         int    `json:"quantity"`
	Message          string `json:"message"`
}

// Response represents a purchase in API responses
type Response struct {
	ID               string     `json:"id"`
	Username         string     `json:"username"`
	PurchaseDate     string     `json:"purchaseDate"`
	DeliveryTime     string     `json:"deliveryTime"`
	DeliveryLocation string     `json:"deliveryLocation"`
	ProductName      string     `json:"productName"`
	Quantity         int        `json:"quantity"`
	Message          string     `json:"message,omitempty"`
	Status           string     `json:"status"`
	CreatedAt        *time.Time `json:"createdAt,omitempty"`
	UpdatedAt        *time.Time `json:"updatedAt,omitempty"`
}

// Options are the choices offered by the purchase form
type Options struct {
	TimeSlots []purchase.TimeSlot `json:"timeSlots"`
	Districts []string            `json:"districts"`
	Products  []string            `json:"products"`
}

// Service handles purchase operations
type Service struct {
	purchases purchase.Gateway
	tokens    identity.TokenSource
	logger    *zap.Logger
	now       func() time.Time
}

// NewService creates a purchase service
func NewService(purchases purchase.Gateway, tokens identity.TokenSource, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{purchases: purchases, tokens: tokens, logger: logger, now: time.Now}
}

// Options returns the delivery times, districts and products
func (s *Service) Options() Options {
	return Options{
		TimeSlots: purchase.TimeSlots,
		Districts: purchase.Districts,
		Products:  purchase.Products,
	}
}

// Create validates and submits a purchase for the session's user
func (s *Service) Create(ctx context.Context, session *identity.Session, req CreateRequest) (*Response, error) {
	now := s.now()
	r := purchase.Request{
		DeliveryTime:     strings.TrimSpace(req.DeliveryTime),
		DeliveryLocation: strings.TrimSpace(req.DeliveryLocation),
		ProductName:      strings.TrimSpace(req.ProductName),
		Quantity:         req.Quantity,
		Message:          strings.TrimSpace(req.Message),
	}

	var dateErr shared.ValidationErrors
	if raw := strings.TrimSpace(req.PurchaseDate); raw != "" {
		date, err := time.ParseInLocation(purchase.DateLayout, raw, now.Location())
		if err != nil {
			dateErr.Add("purchaseDate", "Invalid purchase date")
		} else {
			r.PurchaseDate = &date
		}
	}
	if err := r.Validate(now); err != nil {
		return nil, mergeDateError(dateErr, err)
	}
	if dateErr.HasErrors() {
		return nil, &dateErr
	}

	backendTime, _ := purchase.ToBackendTime(r.DeliveryTime)
	p := purchase.Purchase{
		Username:         session.Username,
		PurchaseDate:     *r.PurchaseDate,
		DeliveryTime:     backendTime,
		DeliveryLocation: r.DeliveryLocation,
		ProductName:      r.ProductName,
		Quantity:         r.Quantity,
		Message:          r.Message,
		Status:           purchase.StatusPending,
	}

	token, err := s.tokens.AccessToken(ctx, session)
	if err != nil {
		return nil, err
	}
	created, err := s.purchases.Create(ctx, token, p)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Purchase created",
		zap.String("purchase_id", created.ID),
		zap.String("username", p.Username),
		zap.String("product", p.ProductName))
	resp := toResponse(*created)
	return &resp, nil
}

// ListMine returns the session user's purchases
func (s *Service) ListMine(ctx context.Context, session *identity.Session) ([]Response, error) {
	token, err := s.tokens.AccessToken(ctx, session)
	if err != nil {
		return nil, err
	}
	list, err := s.purchases.ListMine(ctx, token)
	if err != nil {
		return nil, err
	}
	return toResponses(list), nil
}

// ListAll returns every purchase (admin)
func (s *Service) ListAll(ctx context.Context, session *identity.Session) ([]Response, error) {
	token, err := s.tokens.AccessToken(ctx, session)
	if err != nil {
		return nil, err
	}
	list, err := s.purchases.ListAll(ctx, token)
	if err != nil {
		return nil, err
	}
	return toResponses(list), nil
}

// Get returns one purchase
func (s *Service) Get(ctx context.Context, session *identity.Session, id string) (*Response, error) {
	token, err := s.tokens.AccessToken(ctx, session)
	if err != nil {
		return nil, err
	}
	p, err := s.purchases.Get(ctx, token, id)
	if err != nil {
		return nil, err
	}
	resp := toResponse(*p)
	return &resp, nil
}

// mergeDateError replaces the generic missing-date message with the parse failure
func mergeDateError(dateErr shared.ValidationErrors, err error) error {
	if !dateErr.HasErrors() {
		return err
	}
	var verrs *shared.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	merged := shared.ValidationErrors{Fields: dateErr.Fields}
	for _, f := range verrs.Fields {
		if f.Field != "purchaseDate" {
			merged.Fields = append(merged.Fields, f)
		}
	}
	return &merged
}

func toResponses(list []purchase.Purchase) []Response {
	out := make([]Response, 0, len(list))
	for _, p := range list {
		out = append(out, toResponse(p))
	}
	return out
}

func toResponse(p purchase.Purchase) Response {
	resp := Response{
		ID:               p.ID,
		Username:         p.Username,
		DeliveryTime:     purchase.FromBackendTime(p.DeliveryTime),
		DeliveryLocation: p.DeliveryLocation,
		ProductName:      p.ProductName,
		Quantity:         p.Quantity,
		Message:          p.Message,
		Status:           p.Status,
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}
	if !p.PurchaseDate.IsZero() {
		resp.PurchaseDate = p.PurchaseDate.Format(purchase.DateLayout)
	}
	if resp.Status == "" {
		resp.Status = purchase.StatusPending
	}
	return resp
}
