package identity

import (
	"context"
	"time"
)

// DemoUserRepository persists demo-mode accounts
type DemoUserRepository interface {
	// FindByEmail returns shared.ErrNotFound when no account matches
	FindByEmail(ctx context.Context, email string) (*DemoUser, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, u *DemoUser) error
	// Upsert inserts or updates by email; used by the seed loader
	Upsert(ctx context.Context, u *DemoUser) error
	Count(ctx context.Context) (int64, error)
}

// SessionStore keeps sessions server-side
type SessionStore interface {
	// Get returns shared.ErrNotFound for unknown or expired ids
	Get(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, s *Session, ttl time.Duration) error
	Delete(ctx context.Context, id string) error
}

// LoginState is the one-time state of an in-flight OIDC login
type LoginState struct {
	State        string    `json:"state"`
	SessionID    string    `json:"sessionId"`
	CodeVerifier string    `json:"codeVerifier"`
	ReturnTo     string    `json:"returnTo"`
	CreatedAt    time.Time `json:"createdAt"`
}

// LoginStateStore keeps in-flight OIDC logins
type LoginStateStore interface {
	Put(ctx context.Context, s *LoginState, ttl time.Duration) error
	// Take returns and removes the state; shared.ErrInvalidInput when missing, used or expired
	Take(ctx context.Context, state string) (*LoginState, error)
}

// ProfileGateway reads and writes accounts on the remote backend
type ProfileGateway interface {
	Register(ctx context.Context, r Registration) (*Profile, error)
	Current(ctx context.Context, token string) (*Profile, error)
	Update(ctx context.Context, token, id string, patch ProfilePatch) (*Profile, error)
	Delete(ctx context.Context, token, id string) error
}

// TokenSource yields the upstream bearer token for a session.
// Sessions without upstream credentials (demo mode) yield "".
type TokenSource interface {
	AccessToken(ctx context.Context, s *Session) (string, error)
}
