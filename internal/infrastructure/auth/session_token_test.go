package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/storefront/backend/internal/domain/identity"
	"github.com/storefront/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTokenService(ttl time.Duration) *SessionTokenService {
	return NewSessionTokenService(config.SessionConfig{
		Secret: "test-session-secret-at-least-32-chars",
		TTL:    ttl,
		Issuer: "test-storefront",
	})
}

func TestSessionTokenService_IssueAndValidate(t *testing.T) {
	svc := newTestTokenService(time.Hour)
	session := identity.NewSession(identity.AuthModeDemo)
	session.Subject = "user-1"

	issued, err := svc.Issue(session)
	require.NoError(t, err)
	assert.NotEmpty(t, issued.Token)
	assert.NotEmpty(t, issued.ID)
	assert.WithinDuration(t, time.Now().Add(time.Hour), issued.ExpiresAt, 5*time.Second)

	claims, err := svc.Validate(issued.Token)
	require.NoError(t, err)
	assert.Equal(t, session.ID, claims.SessionID)
	assert.Equal(t, identity.AuthModeDemo, claims.Mode)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, issued.ID, claims.ID)
	assert.Greater(t, claims.GetRemainingTTL(), 59*time.Minute)
}

func TestSessionTokenService_DefaultIssuer(t *testing.T) {
	svc := NewSessionTokenService(config.SessionConfig{Secret: "s", TTL: time.Minute})
	assert.Equal(t, "storefront", svc.issuer)
	assert.Equal(t, time.Minute, svc.TTL())
}

func TestSessionTokenService_Expired(t *testing.T) {
	svc := newTestTokenService(-time.Minute)
	issued, err := svc.Issue(identity.NewSession(identity.AuthModeDemo))
	require.NoError(t, err)

	_, err = svc.Validate(issued.Token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestSessionTokenService_WrongSecret(t *testing.T) {
	issued, err := newTestTokenService(time.Hour).Issue(identity.NewSession(identity.AuthModeOIDC))
	require.NoError(t, err)

	other := NewSessionTokenService(config.SessionConfig{
		Secret: "another-secret-another-secret-123",
		TTL:    time.Hour,
		Issuer: "test-storefront",
	})
	_, err = other.Validate(issued.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestSessionTokenService_WrongIssuer(t *testing.T) {
	issued, err := newTestTokenService(time.Hour).Issue(identity.NewSession(identity.AuthModeOIDC))
	require.NoError(t, err)

	other := NewSessionTokenService(config.SessionConfig{
		Secret: "test-session-secret-at-least-32-chars",
		TTL:    time.Hour,
		Issuer: "someone-else",
	})
	_, err = other.Validate(issued.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestSessionTokenService_RejectsNoneAlgorithm(t *testing.T) {
	svc := newTestTokenService(time.Hour)
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "test-storefront",
			Audience:  jwt.ClaimStrings{"test-storefront"},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		SessionID: "sid",
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = svc.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestSessionTokenService_MissingSessionID(t *testing.T) {
	svc := newTestTokenService(time.Hour)
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "test-storefront",
			Audience:  jwt.ClaimStrings{"test-storefront"},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(svc.secret)
	require.NoError(t, err)

	_, err = svc.Validate(token)
	assert.ErrorIs(t, err, ErrMissingSessionID)
}

func TestSessionTokenService_EmptySecret(t *testing.T) {
	svc := NewSessionTokenService(config.SessionConfig{TTL: time.Hour})
	_, err := svc.Issue(identity.NewSession(identity.AuthModeDemo))
	assert.ErrorIs(t, err, ErrMissingSessionKey)
}

func TestSessionTokenService_Garbage(t *testing.T) {
	_, err := newTestTokenService(time.Hour).Validate("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
