package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/identity"
	"github.com/storefront/backend/internal/infrastructure/config"
)

// Common errors
var (
	ErrInvalidToken      = errors.New("invalid token")
	ErrExpiredToken      = errors.New("token has expired")
	ErrInvalidClaims     = errors.New("invalid token claims")
	ErrTokenNotYetValid  = errors.New("token is not yet valid")
	ErrMissingSessionID  = errors.New("missing sid in claims")
	ErrTokenBlacklisted  = errors.New("token has been revoked")
	ErrMissingSessionKey = errors.New("session secret is empty")
)

// Claims are the contents of a session token. The token only points at
// server-side session state; upstream credentials never leave the server.
type Claims struct {
	jwt.RegisteredClaims
	SessionID string            `json:"sid"`
	Mode      identity.AuthMode `json:"mode"`
}

// IssuedToken is a signed session token with its expiry
type IssuedToken struct {
	Token     string
	ID        string
	ExpiresAt time.Time
}

// SessionTokenService signs and validates session tokens (HS256)
type SessionTokenService struct {
	secret []byte
	ttl    time.Duration
	issuer string
}

// NewSessionTokenService creates a token service from session config
func NewSessionTokenService(cfg config.SessionConfig) *SessionTokenService {
	issuer := cfg.Issuer
	if issuer == "" {
		issuer = "storefront"
	}
	return &SessionTokenService{
		secret: []byte(cfg.Secret),
		ttl:    cfg.TTL,
		issuer: issuer,
	}
}

// Issue signs a token for s
func (s *SessionTokenService) Issue(session *identity.Session) (*IssuedToken, error) {
	if len(s.secret) == 0 {
		return nil, ErrMissingSessionKey
	}
	now := time.Now()
	expiresAt := now.Add(s.ttl)
	jti := uuid.New().String()

	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Issuer:    s.issuer,
			Subject:   session.Subject,
			Audience:  jwt.ClaimStrings{s.issuer},
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		SessionID: session.ID,
		Mode:      session.Mode,
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, err
	}
	return &IssuedToken{Token: token, ID: jti, ExpiresAt: expiresAt}, nil
}

// Validate parses tokenString and returns its claims
func (s *SessionTokenService) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	}, jwt.WithIssuer(s.issuer), jwt.WithAudience(s.issuer))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		if errors.Is(err, jwt.ErrTokenNotValidYet) {
			return nil, ErrTokenNotYetValid
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidClaims
	}
	if claims.SessionID == "" {
		return nil, ErrMissingSessionID
	}
	return claims, nil
}

// TTL returns the token lifetime
func (s *SessionTokenService) TTL() time.Duration {
	return s.ttl
}

// GetRemainingTTL returns the remaining time until the token expires
func (c *Claims) GetRemainingTTL() time.Duration {
	if c.ExpiresAt == nil {
		return 0
	}
	remaining := time.Until(c.ExpiresAt.Time)
	if remaining < 0 {
		return 0
	}
	return remaining
}
