package auth

import (
	"time"

	"github.com/storefront/backend/internal/domain/identity"
	infraauth "github.com/storefront/backend/internal/infrastructure/auth"
)

// SignInRequest is a demo-mode credential sign-in
type SignInRequest struct {
	Email    string `json:"email" binding:"required,email,max=200"`
	Password string `json:"password" binding:"required,max=72"`
}

// SignUpRequest creates a demo-mode account and signs it in
type SignUpRequest struct {
	Email    string `json:"email" binding:"required,email,max=200"`
	Password string `json:"password" binding:"required,min=6,max=72"`
	Name     string `json:"name" binding:"required,min=1,max=100"`
}

// SwitchModeRequest selects the sign-in mode to use next
type SwitchModeRequest struct {
	Mode identity.AuthMode `json:"mode" binding:"required,oneof=demo oidc"`
}

// CallbackInput carries the identity provider's redirect parameters
type CallbackInput struct {
	State            string
	Code             string
	Error            string
	ErrorDescription string
}

// StatusResponse describes the caller's authentication state
type StatusResponse struct {
	IsAuthenticated bool                `json:"isAuthenticated"`
	IsLoading       bool                `json:"isLoading"`
	Username        string              `json:"username,omitempty"`
	DisplayName     string              `json:"displayName,omitempty"`
	Email           string              `json:"email,omitempty"`
	Picture         string              `json:"picture,omitempty"`
	AuthMode        identity.AuthMode   `json:"authMode"`
	AvailableModes  []identity.AuthMode `json:"availableModes"`
}

// ModesResponse lists the sign-in modes this deployment offers
type ModesResponse struct {
	Default   identity.AuthMode   `json:"default"`
	Available []identity.AuthMode `json:"available"`
}

// SessionResult is a freshly issued session and its token
type SessionResult struct {
	Session  *identity.Session
	Token    *infraauth.IssuedToken
	Status   StatusResponse
	ReturnTo string
}

// TokenResponse is the JSON form of an issued session token
type TokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// AuthResponse is returned by sign-in and sign-up
type AuthResponse struct {
	StatusResponse
	Session TokenResponse `json:"session"`
}

// ToAuthResponse converts a SessionResult for the wire
func ToAuthResponse(r *SessionResult) AuthResponse {
	return AuthResponse{
		StatusResponse: r.Status,
		Session:        TokenResponse{Token: r.Token.Token, ExpiresAt: r.Token.ExpiresAt},
	}
}

// BeginLoginResult is the start of a hosted OIDC login
type BeginLoginResult struct {
	AuthURL string                 `json:"authUrl"`
	Session *identity.Session      `json:"-"`
	Token   *infraauth.IssuedToken `json:"-"`
}

// SignOutResult tells the caller where to go after signing out
type SignOutResult struct {
	Mode          identity.AuthMode `json:"mode"`
	EndSessionURL string            `json:"endSessionUrl,omitempty"`
}

// SwitchModeResult is the mode to use next
type SwitchModeResult struct {
	Mode          identity.AuthMode `json:"mode"`
	SignedOut     bool              `json:"signedOut"`
	EndSessionURL string            `json:"endSessionUrl,omitempty"`
}

// Authenticated is a resolved request session
type Authenticated struct {
	Session *identity.Session
	Claims  *infraauth.Claims
}
