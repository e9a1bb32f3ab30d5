package identity

import (
	"errors"
	"testing"
	"time"

	"github.com/storefront/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDemoUser(t *testing.T) {
	t.Run("hashes password and normalizes email", func(t *testing.T) {
		u, err := NewDemoUser(" Demo@Example.com ", "demo123", "Demo User")
		require.NoError(t, err)

		assert.Equal(t, "demo@example.com", u.Email)
		assert.NotEqual(t, "demo123", u.PasswordHash)
		assert.True(t, u.VerifyPassword("demo123"))
		assert.False(t, u.VerifyPassword("wrong"))
		assert.Contains(t, u.AvatarURL(), "seed=Demo+User")
	})

	t.Run("rejects short password", func(t *testing.T) {
		_, err := NewDemoUser("a@b.co", "123", "A")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "at least 6")
	})

	t.Run("rejects bad email", func(t *testing.T) {
		_, err := NewDemoUser("not-an-email", "secret1", "A")
		assert.Error(t, err)
	})

	t.Run("requires name", func(t *testing.T) {
		_, err := NewDemoUser("a@b.co", "secret1", " ")
		assert.Error(t, err)
	})
}

func TestSessionLifecycle(t *testing.T) {
	t.Run("demo sign-in goes straight to authenticated", func(t *testing.T) {
		s := NewSession(AuthModeDemo)
		require.NoError(t, s.Authenticate(Principal{Subject: "demo@example.com", Username: "demo@example.com"}, nil))
		assert.True(t, s.IsAuthenticated())
		assert.False(t, s.HasUpstreamToken())
		assert.Equal(t, "demo:demo@example.com", s.OwnerKey())
	})

	t.Run("oidc login passes through pending", func(t *testing.T) {
		s := NewSession(AuthModeOIDC)
		require.NoError(t, s.Begin())
		assert.True(t, s.IsLoading())

		tokens := &Tokens{AccessToken: "at", RefreshToken: "rt", Expiry: time.Now().Add(time.Hour)}
		require.NoError(t, s.Authenticate(Principal{Subject: "sub-1"}, tokens))
		assert.True(t, s.HasUpstreamToken())
		assert.False(t, s.TokenExpiresWithin(time.Minute))

		require.NoError(t, s.SignOut())
		assert.Equal(t, StateSignedOut, s.State)
		assert.Empty(t, s.AccessToken)
	})

	t.Run("pending can be abandoned", func(t *testing.T) {
		s := NewSession(AuthModeOIDC)
		require.NoError(t, s.Begin())
		require.NoError(t, s.Abandon())
		assert.Equal(t, StateAnonymous, s.State)
	})

	t.Run("rejects invalid transitions", func(t *testing.T) {
		s := NewSession(AuthModeDemo)
		err := s.SignOut()
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidTransition))

		require.NoError(t, s.Authenticate(Principal{Subject: "x"}, nil))
		assert.Error(t, s.Begin())
		require.NoError(t, s.SignOut())
		assert.Error(t, s.Authenticate(Principal{Subject: "x"}, nil))
	})

	t.Run("refresh keeps the old refresh token when none is returned", func(t *testing.T) {
		s := NewSession(AuthModeOIDC)
		s.SetTokens(Tokens{AccessToken: "a1", RefreshToken: "r1", IDToken: "id1"})
		s.SetTokens(Tokens{AccessToken: "a2"})
		assert.Equal(t, "a2", s.AccessToken)
		assert.Equal(t, "r1", s.RefreshToken)
		assert.Equal(t, "id1", s.IDToken)
	})
}

func TestFallbackProfile(t *testing.T) {
	p := FallbackProfile(nil)
	assert.Equal(t, "demo@example.com", p.Email)
	assert.Equal(t, "Demo User", p.Name)
	assert.Equal(t, "+94771234567", p.ContactNumber)
	assert.Equal(t, "Sri Lanka", p.Country)
	assert.Equal(t, []string{"USER"}, p.Roles)

	s := NewSession(AuthModeOIDC)
	s.Subject = "sub-9"
	s.Email = "jane@example.com"
	s.DisplayName = "Jane"
	p = FallbackProfile(s)
	assert.Equal(t, "sub-9", p.ID)
	assert.Equal(t, "jane@example.com", p.Email)
	assert.Equal(t, "Jane", p.Name)
	assert.Equal(t, "Sri Lanka", p.Country)
}

func TestRegistration_Validate(t *testing.T) {
	r := Registration{Username: "jane", Email: "JANE@example.com", Password: "secret1", Name: "Jane"}
	require.NoError(t, r.Validate())
	assert.Equal(t, "jane@example.com", r.Email)

	bad := Registration{Password: "1"}
	err := bad.Validate()
	var verrs *shared.ValidationErrors
	require.True(t, errors.As(err, &verrs))
	assert.Len(t, verrs.Fields, 4)
}
