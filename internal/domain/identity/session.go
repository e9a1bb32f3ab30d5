package identity

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/shared"
)

// AuthMode selects the credential flow
type AuthMode string

const (
	AuthModeDemo AuthMode = "demo"
	AuthModeOIDC AuthMode = "oidc"
)

// IsValid reports whether m is a known mode
func (m AuthMode) IsValid() bool {
	return m == AuthModeDemo || m == AuthModeOIDC
}

// Other returns the opposite mode
func (m AuthMode) Other() AuthMode {
	if m == AuthModeOIDC {
		return AuthModeDemo
	}
	return AuthModeOIDC
}

// SessionState is a node of the session lifecycle
type SessionState string

const (
	StateAnonymous     SessionState = "anonymous"
	StatePending       SessionState = "pending"
	StateAuthenticated SessionState = "authenticated"
	StateSignedOut     SessionState = "signed_out"
)

// ErrInvalidTransition is returned for a lifecycle move that is not allowed
var ErrInvalidTransition = shared.NewDomainError("INVALID_STATE", "Invalid session state transition")

var transitions = map[SessionState][]SessionState{
	StateAnonymous:     {StatePending, StateAuthenticated},
	StatePending:       {StateAuthenticated, StateAnonymous},
	StateAuthenticated: {StateSignedOut},
}

// CanTransition reports whether from -> to is allowed
func CanTransition(from, to SessionState) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Session is a shopper's server-side login state
type Session struct {
	ID           string       `json:"id"`
	Mode         AuthMode     `json:"mode"`
	State        SessionState `json:"state"`
	Subject      string       `json:"subject,omitempty"`
	Username     string       `json:"username,omitempty"`
	DisplayName  string       `json:"displayName,omitempty"`
	Email        string       `json:"email,omitempty"`
	Picture      string       `json:"picture,omitempty"`
	AccessToken  string       `json:"accessToken,omitempty"`
	RefreshToken string       `json:"refreshToken,omitempty"`
	IDToken      string       `json:"idToken,omitempty"`
	TokenExpiry  time.Time    `json:"tokenExpiry,omitempty"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}

// NewSession returns an anonymous session for mode
func NewSession(mode AuthMode) *Session {
	now := time.Now()
	return &Session{
		ID:        uuid.NewString(),
		Mode:      mode,
		State:     StateAnonymous,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Principal describes an authenticated shopper
type Principal struct {
	Subject     string
	Username    string
	DisplayName string
	Email       string
	Picture     string
}

// Tokens are the upstream OIDC tokens held for a session
type Tokens struct {
	AccessToken  string
	RefreshToken string
	IDToken      string
	Expiry       time.Time
}

func (s *Session) transition(to SessionState) error {
	if !CanTransition(s.State, to) {
		return ErrInvalidTransition.WithCause(fmt.Errorf("%s -> %s", s.State, to))
	}
	s.State = to
	s.UpdatedAt = time.Now()
	return nil
}

// Begin marks an OIDC login as in flight
func (s *Session) Begin() error {
	return s.transition(StatePending)
}

// Authenticate completes a login for p
func (s *Session) Authenticate(p Principal, tokens *Tokens) error {
	if err := s.transition(StateAuthenticated); err != nil {
		return err
	}
	s.Subject = p.Subject
	s.Username = p.Username
	s.DisplayName = p.DisplayName
	s.Email = p.Email
	s.Picture = p.Picture
	if tokens != nil {
		s.SetTokens(*tokens)
	}
	return nil
}

// Abandon returns a pending login to anonymous
func (s *Session) Abandon() error {
	return s.transition(StateAnonymous)
}

// SignOut ends the session and drops the upstream tokens
func (s *Session) SignOut() error {
	if err := s.transition(StateSignedOut); err != nil {
		return err
	}
	s.AccessToken = ""
	s.RefreshToken = ""
	s.TokenExpiry = time.Time{}
	return nil
}

// SetTokens replaces the upstream tokens; an empty refresh or id token keeps the old one
func (s *Session) SetTokens(t Tokens) {
	s.AccessToken = t.AccessToken
	if t.RefreshToken != "" {
		s.RefreshToken = t.RefreshToken
	}
	if t.IDToken != "" {
		s.IDToken = t.IDToken
	}
	s.TokenExpiry = t.Expiry
	s.UpdatedAt = time.Now()
}

// IsAuthenticated reports whether the session belongs to a signed-in shopper
func (s *Session) IsAuthenticated() bool {
	return s != nil && s.State == StateAuthenticated
}

// IsLoading reports whether a login is in flight
func (s *Session) IsLoading() bool {
	return s != nil && s.State == StatePending
}

// HasUpstreamToken reports whether calls to the backend can carry a bearer token
func (s *Session) HasUpstreamToken() bool {
	return s.IsAuthenticated() && s.Mode == AuthModeOIDC && s.AccessToken != ""
}

// TokenExpiresWithin reports whether the access token expires within d
func (s *Session) TokenExpiresWithin(d time.Duration) bool {
	if s.TokenExpiry.IsZero() {
		return false
	}
	return time.Until(s.TokenExpiry) < d
}

// OwnerKey identifies the shopper across sessions, e.g. for carts
func (s *Session) OwnerKey() string {
	if s.Subject == "" {
		return "session:" + s.ID
	}
	return string(s.Mode) + ":" + s.Subject
}
