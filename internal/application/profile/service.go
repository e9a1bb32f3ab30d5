// Package profile serves the shopper's account details.
package profile

import (
	"context"
	"errors"
	"time"

	"github.com/storefront/backend/internal/domain/identity"
	"github.com/storefront/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// Profile sources
const (
	SourceBackend  = "backend"
	SourceDemo     = "demo"
	SourceFallback = "fallback"
)

// RegisterRequest creates a backend account
type RegisterRequest struct {
	Username      string `json:"username" binding:"required,max=100"`
	Email         string `json:"email" binding:"required,email,max=200"`
	Password      string `json:"password" binding:"required,min=6,max=72"`
	Name          string `json:"name" binding:"required,max=200"`
	ContactNumber string `json:"contactNumber" binding:"max=30"`
	Country       string `json:"country" binding:"max=100"`
}

// UpdateRequest is a partial profile update
type UpdateRequest struct {
	Email         *string `json:"email" binding:"omitempty,email,max=200"`
	Name          *string `json:"name" binding:"omitempty,min=1,max=200"`
	ContactNumber *string `json:"contactNumber" binding:"omitempty,max=30"`
	Country       *string `json:"country" binding:"omitempty,max=100"`
}

// Response represents a profile in API responses
type Response struct {
	ID            string     `json:"id"`
	Username      string     `json:"username"`
	Email         string     `json:"email"`
	Name          string     `json:"name"`
	ContactNumber string     `json:"contactNumber"`
	Country       string     `json:"country"`
	Roles         []string   `json:"roles"`
	Picture       string     `json:"picture,omitempty"`
	Source        string     `json:"source"`
	CreatedAt     *time.Time `json:"createdAt,omitempty"`
	UpdatedAt     *time.Time `json:"updatedAt,omitempty"`
}

// Service reads and writes profiles
type Service struct {
	users     identity.ProfileGateway
	demoUsers identity.DemoUserRepository
	tokens    identity.TokenSource
	logger    *zap.Logger
}

// NewService creates a profile service
func NewService(
	users identity.ProfileGateway,
	demoUsers identity.DemoUserRepository,
	tokens identity.TokenSource,
	logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{users: users, demoUsers: demoUsers, tokens: tokens, logger: logger}
}

// Get returns the session's profile. OIDC profiles come from the backend and
// fall back to the session claims when it cannot answer.
func (s *Service) Get(ctx context.Context, session *identity.Session) (*Response, error) {
	if session.Mode == identity.AuthModeDemo {
		return s.demoProfile(ctx, session), nil
	}

	token, err := s.tokens.AccessToken(ctx, session)
	if err != nil {
		return nil, err
	}
	p, err := s.users.Current(ctx, token)
	if err != nil {
		s.logger.Warn("Profile lookup failed, using fallback", zap.String("subject", session.Subject), zap.Error(err))
		fallback := identity.FallbackProfile(session)
		return toResponse(fallback, SourceFallback), nil
	}
	p.EnsureRoles()
	if p.Picture == "" {
		p.Picture = session.Picture
	}
	return toResponse(*p, SourceBackend), nil
}

func (s *Service) demoProfile(ctx context.Context, session *identity.Session) *Response {
	fallback := identity.FallbackProfile(session)
	if session.Email == "" || s.demoUsers == nil {
		return toResponse(fallback, SourceFallback)
	}
	user, err := s.demoUsers.FindByEmail(ctx, session.Email)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			s.logger.Warn("Demo user lookup failed", zap.String("email", session.Email), zap.Error(err))
		}
		return toResponse(fallback, SourceFallback)
	}

	created := user.CreatedAt
	updated := user.UpdatedAt
	p := identity.Profile{
		ID:            user.ID.String(),
		Username:      user.Email,
		Email:         user.Email,
		Name:          user.Name,
		ContactNumber: identity.FallbackContactNumber,
		Country:       identity.FallbackCountry,
		Picture:       user.AvatarURL(),
		CreatedAt:     &created,
		UpdatedAt:     &updated,
	}
	p.EnsureRoles()
	return toResponse(p, SourceDemo)
}

// Register creates an account on the backend
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*Response, error) {
	r := identity.Registration{
		Username:      req.Username,
		Email:         req.Email,
		Password:      req.Password,
		Name:          req.Name,
		ContactNumber: req.ContactNumber,
		Country:       req.Country,
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	p, err := s.users.Register(ctx, r)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Account registered", zap.String("username", r.Username))
	p.EnsureRoles()
	return toResponse(*p, SourceBackend), nil
}

// Update applies a partial update to account id
func (s *Service) Update(ctx context.Context, session *identity.Session, id string, req UpdateRequest) (*Response, error) {
	patch := identity.ProfilePatch{
		Email:         req.Email,
		Name:          req.Name,
		ContactNumber: req.ContactNumber,
		Country:       req.Country,
	}
	if patch.IsEmpty() {
		return nil, shared.ErrInvalidInput.WithMessage("At least one field must be provided")
	}
	token, err := s.tokens.AccessToken(ctx, session)
	if err != nil {
		return nil, err
	}
	p, err := s.users.Update(ctx, token, id, patch)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Profile updated", zap.String("user_id", id))
	p.EnsureRoles()
	return toResponse(*p, SourceBackend), nil
}

// Delete removes account id
func (s *Service) Delete(ctx context.Context, session *identity.Session, id string) error {
	token, err := s.tokens.AccessToken(ctx, session)
	if err != nil {
		return err
	}
	if err := s.users.Delete(ctx, token, id); err != nil {
		return err
	}
	s.logger.Info("Profile deleted", zap.String("user_id", id))
	return nil
}

func toResponse(p identity.Profile, source string) *Response {
	return &Response{
		ID:            p.ID,
		Username:      p.Username,
		Email:         p.Email,
		Name:          p.Name,
		ContactNumber: p.ContactNumber,
		Country:       p.Country,
		Roles:         p.Roles,
		Picture:       p.Picture,
		Source:        source,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}
