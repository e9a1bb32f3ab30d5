package backend

import (
	"context"
	"net/http"
	"net/url"

	"github.com/storefront/backend/internal/domain/identity"
)

// UserGateway implements identity.ProfileGateway over /api/users
type UserGateway struct {
	client *Client
}

// NewUserGateway creates a user gateway
func NewUserGateway(client *Client) *UserGateway {
	return &UserGateway{client: client}
}

var _ identity.ProfileGateway = (*UserGateway)(nil)

// Register creates a backend account; the call is unauthenticated
func (g *UserGateway) Register(ctx context.Context, r identity.Registration) (*identity.Profile, error) {
	body := registerDTO{
		Username:      r.Username,
		Email:         r.Email,
		Password:      r.Password,
		Name:          r.Name,
		ContactNumber: r.ContactNumber,
		Country:       r.Country,
	}
	var dto userDTO
	if err := g.client.Do(ctx, http.MethodPost, "/api/users/register", "", body, &dto); err != nil {
		return nil, translate(err)
	}
	p := dto.toDomain()
	return &p, nil
}

// Current returns the profile of the token's owner
func (g *UserGateway) Current(ctx context.Context, token string) (*identity.Profile, error) {
	var dto userDTO
	if err := g.client.Do(ctx, http.MethodGet, "/api/users/profile", token, nil, &dto); err != nil {
		return nil, translate(err)
	}
	p := dto.toDomain()
	return &p, nil
}

// Update applies patch to user id
func (g *UserGateway) Update(ctx context.Context, token, id string, patch identity.ProfilePatch) (*identity.Profile, error) {
	body := userUpdateDTO{
		Email:         patch.Email,
		Name:          patch.Name,
		ContactNumber: patch.ContactNumber,
		Country:       patch.Country,
	}
	var dto userDTO
	if err := g.client.Do(ctx, http.MethodPut, "/api/users/"+url.PathEscape(id), token, body, &dto); err != nil {
		return nil, translate(err)
	}
	p := dto.toDomain()
	return &p, nil
}

// Delete removes user id
func (g *UserGateway) Delete(ctx context.Context, token, id string) error {
	return translate(g.client.Do(ctx, http.MethodDelete, "/api/users/"+url.PathEscape(id), token, nil, nil))
}

func (d userDTO) toDomain() identity.Profile {
	p := identity.Profile{
		ID:            string(d.ID),
		Username:      d.Username,
		Email:         d.Email,
		Name:          d.Name,
		ContactNumber: d.ContactNumber,
		Country:       d.Country,
		Roles:         d.Roles,
		CreatedAt:     d.CreatedAt.ptr(),
		UpdatedAt:     d.UpdatedAt.ptr(),
	}
	p.EnsureRoles()
	return p
}
