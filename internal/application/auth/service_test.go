package auth

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/storefront/backend/internal/domain/identity"
	"github.com/storefront/backend/internal/domain/shared"
	infraauth "github.com/storefront/backend/internal/infrastructure/auth"
	"github.com/storefront/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockDemoUserRepository is a mock implementation of identity.DemoUserRepository
type MockDemoUserRepository struct {
	mock.Mock
}

func (m *MockDemoUserRepository) FindByEmail(ctx context.Context, email string) (*identity.DemoUser, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.DemoUser), args.Error(1)
}

func (m *MockDemoUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockDemoUserRepository) Create(ctx context.Context, u *identity.DemoUser) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *MockDemoUserRepository) Upsert(ctx context.Context, u *identity.DemoUser) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *MockDemoUserRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// MockOIDCProvider is a mock implementation of infraauth.OIDCProvider
type MockOIDCProvider struct {
	mock.Mock
}

func (m *MockOIDCProvider) AuthURL(ctx context.Context, state, verifier string) (string, error) {
	args := m.Called(ctx, state, verifier)
	return args.String(0), args.Error(1)
}

func (m *MockOIDCProvider) Exchange(ctx context.Context, code, verifier string) (*identity.Principal, *identity.Tokens, error) {
	args := m.Called(ctx, code, verifier)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*identity.Principal), args.Get(1).(*identity.Tokens), args.Error(2)
}

func (m *MockOIDCProvider) Refresh(ctx context.Context, refreshToken string) (*identity.Tokens, error) {
	args := m.Called(ctx, refreshToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.Tokens), args.Error(1)
}

func (m *MockOIDCProvider) EndSessionURL(ctx context.Context, idToken, state string) (string, error) {
	args := m.Called(ctx, idToken, state)
	return args.String(0), args.Error(1)
}

type countingHook struct {
	calls atomic.Int32
	last  *identity.Session
}

func (h *countingHook) AfterLogin(_ context.Context, s *identity.Session) {
	h.calls.Add(1)
	h.last = s
}

type fixture struct {
	svc       *Service
	sessions  *infraauth.InMemorySessionStore
	states    *infraauth.InMemoryLoginStateStore
	blacklist *infraauth.InMemoryTokenBlacklist
	users     *MockDemoUserRepository
	oidc      *MockOIDCProvider
	hook      *countingHook
}

func newFixture(t *testing.T, withOIDC bool) *fixture {
	t.Helper()
	f := &fixture{
		sessions:  infraauth.NewInMemorySessionStore(),
		states:    infraauth.NewInMemoryLoginStateStore(),
		blacklist: infraauth.NewInMemoryTokenBlacklist(),
		users:     new(MockDemoUserRepository),
		hook:      &countingHook{},
	}
	tokens := infraauth.NewSessionTokenService(config.SessionConfig{
		Secret: "test-secret-that-is-long-enough-32b",
		TTL:    time.Hour,
	})
	opts := []Option{WithLoginHook(f.hook)}
	if withOIDC {
		f.oidc = new(MockOIDCProvider)
		opts = append(opts, WithOIDC(f.oidc))
	}
	f.svc = NewService(f.sessions, f.states, f.users, tokens, f.blacklist,
		Config{DefaultMode: identity.AuthModeDemo, DemoEnabled: true},
		zap.NewNop(), opts...)
	return f
}

func demoUser(t *testing.T) *identity.DemoUser {
	t.Helper()
	u, err := identity.NewDemoUser("demo@example.com", "demo123", "Demo User")
	require.NoError(t, err)
	return u
}

func TestService_Modes(t *testing.T) {
	t.Run("demo only", func(t *testing.T) {
		f := newFixture(t, false)
		modes := f.svc.Modes()
		assert.Equal(t, identity.AuthModeDemo, modes.Default)
		assert.Equal(t, []identity.AuthMode{identity.AuthModeDemo}, modes.Available)
	})

	t.Run("both", func(t *testing.T) {
		f := newFixture(t, true)
		modes := f.svc.Modes()
		assert.Equal(t, []identity.AuthMode{identity.AuthModeDemo, identity.AuthModeOIDC}, modes.Available)
	})
}

func TestService_Status_Anonymous(t *testing.T) {
	f := newFixture(t, false)
	status := f.svc.Status(nil)
	assert.False(t, status.IsAuthenticated)
	assert.False(t, status.IsLoading)
	assert.Equal(t, identity.AuthModeDemo, status.AuthMode)
	assert.Empty(t, status.Username)
}

func TestService_SignIn(t *testing.T) {
	ctx := context.Background()

	t.Run("valid credentials open a session", func(t *testing.T) {
		f := newFixture(t, false)
		user := demoUser(t)
		f.users.On("FindByEmail", mock.Anything, "demo@example.com").Return(user, nil)

		result, err := f.svc.SignIn(ctx, nil, SignInRequest{Email: " Demo@Example.com ", Password: "demo123"})
		require.NoError(t, err)

		assert.True(t, result.Status.IsAuthenticated)
		assert.Equal(t, "demo@example.com", result.Status.Username)
		assert.Equal(t, "Demo User", result.Status.DisplayName)
		assert.NotEmpty(t, result.Token.Token)
		assert.Equal(t, int32(1), f.hook.calls.Load())

		auth, err := f.svc.Resolve(ctx, result.Token.Token)
		require.NoError(t, err)
		assert.Equal(t, result.Session.ID, auth.Session.ID)
		assert.Equal(t, identity.AuthModeDemo, auth.Claims.Mode)
	})

	t.Run("wrong password", func(t *testing.T) {
		f := newFixture(t, false)
		f.users.On("FindByEmail", mock.Anything, "demo@example.com").Return(demoUser(t), nil)

		_, err := f.svc.SignIn(ctx, nil, SignInRequest{Email: "demo@example.com", Password: "nope"})
		assert.ErrorIs(t, err, identity.ErrInvalidCredentials)
		assert.Zero(t, f.hook.calls.Load())
	})

	t.Run("unknown account", func(t *testing.T) {
		f := newFixture(t, false)
		f.users.On("FindByEmail", mock.Anything, "ghost@example.com").Return(nil, shared.ErrNotFound)

		_, err := f.svc.SignIn(ctx, nil, SignInRequest{Email: "ghost@example.com", Password: "demo123"})
		assert.ErrorIs(t, err, identity.ErrInvalidCredentials)
	})

	t.Run("replaces the current session", func(t *testing.T) {
		f := newFixture(t, false)
		f.users.On("FindByEmail", mock.Anything, "demo@example.com").Return(demoUser(t), nil)
		old := identity.NewSession(identity.AuthModeDemo)
		require.NoError(t, f.sessions.Save(ctx, old, time.Hour))

		_, err := f.svc.SignIn(ctx, old, SignInRequest{Email: "demo@example.com", Password: "demo123"})
		require.NoError(t, err)

		_, err = f.sessions.Get(ctx, old.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("demo disabled", func(t *testing.T) {
		f := newFixture(t, true)
		f.svc.cfg.DemoEnabled = false
		_, err := f.svc.SignIn(ctx, nil, SignInRequest{Email: "demo@example.com", Password: "demo123"})
		assert.ErrorIs(t, err, shared.ErrForbidden)
	})
}

func TestService_SignUp(t *testing.T) {
	ctx := context.Background()

	t.Run("creates the account and signs in", func(t *testing.T) {
		f := newFixture(t, false)
		f.users.On("ExistsByEmail", mock.Anything, "new@example.com").Return(false, nil)
		f.users.On("Create", mock.Anything, mock.AnythingOfType("*identity.DemoUser")).Return(nil)

		result, err := f.svc.SignUp(ctx, nil, SignUpRequest{Email: "new@example.com", Password: "secret1", Name: "New Shopper"})
		require.NoError(t, err)
		assert.Equal(t, "New Shopper", result.Status.DisplayName)
		f.users.AssertExpectations(t)
	})

	t.Run("duplicate email", func(t *testing.T) {
		f := newFixture(t, false)
		f.users.On("ExistsByEmail", mock.Anything, "demo@example.com").Return(true, nil)

		_, err := f.svc.SignUp(ctx, nil, SignUpRequest{Email: "demo@example.com", Password: "secret1", Name: "Dup"})
		assert.ErrorIs(t, err, identity.ErrUserExists)
		f.users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}

func TestService_Resolve_Rejects(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)

	_, err := f.svc.Resolve(ctx, "not-a-token")
	assert.ErrorIs(t, err, shared.ErrUnauthorized)

	// token for a session that is not stored
	session := identity.NewSession(identity.AuthModeDemo)
	issued, err := f.svc.tokens.Issue(session)
	require.NoError(t, err)
	_, err = f.svc.Resolve(ctx, issued.Token)
	assert.ErrorIs(t, err, shared.ErrUnauthorized)
}

func TestService_SignOut_RevokesToken(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)
	f.users.On("FindByEmail", mock.Anything, "demo@example.com").Return(demoUser(t), nil)

	result, err := f.svc.SignIn(ctx, nil, SignInRequest{Email: "demo@example.com", Password: "demo123"})
	require.NoError(t, err)
	auth, err := f.svc.Resolve(ctx, result.Token.Token)
	require.NoError(t, err)

	out, err := f.svc.SignOut(ctx, auth)
	require.NoError(t, err)
	assert.Equal(t, identity.AuthModeDemo, out.Mode)
	assert.Empty(t, out.EndSessionURL)

	revoked, err := f.blacklist.IsBlacklisted(ctx, auth.Claims.ID)
	require.NoError(t, err)
	assert.True(t, revoked)

	_, err = f.svc.Resolve(ctx, result.Token.Token)
	assert.ErrorIs(t, err, shared.ErrUnauthorized)
}

func TestService_OIDCLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("full round trip", func(t *testing.T) {
		f := newFixture(t, true)
		f.oidc.On("AuthURL", mock.Anything, mock.AnythingOfType("string"), mock.AnythingOfType("string")).
			Return("https://idp.example.com/authorize?x=1", nil)

		begin, err := f.svc.BeginLogin(ctx, nil, "/orders")
		require.NoError(t, err)
		assert.Equal(t, "https://idp.example.com/authorize?x=1", begin.AuthURL)
		assert.True(t, begin.Session.IsLoading())

		state := f.oidc.Calls[0].Arguments.String(1)
		verifier := f.oidc.Calls[0].Arguments.String(2)

		principal := &identity.Principal{Subject: "sub-1", Username: "alice", DisplayName: "Alice", Email: "alice@example.com"}
		tokens := &identity.Tokens{AccessToken: "at", RefreshToken: "rt", IDToken: "idt", Expiry: time.Now().Add(time.Hour)}
		f.oidc.On("Exchange", mock.Anything, "code-1", verifier).Return(principal, tokens, nil)

		result, err := f.svc.CompleteLogin(ctx, begin.Session, CallbackInput{State: state, Code: "code-1"})
		require.NoError(t, err)
		assert.Equal(t, begin.Session.ID, result.Session.ID)
		assert.Equal(t, "/orders", result.ReturnTo)
		assert.True(t, result.Status.IsAuthenticated)
		assert.Equal(t, identity.AuthModeOIDC, result.Status.AuthMode)
		assert.Equal(t, "alice", result.Status.Username)
		assert.Equal(t, int32(1), f.hook.calls.Load())

		// states are single use
		_, err = f.svc.CompleteLogin(ctx, begin.Session, CallbackInput{State: state, Code: "code-1"})
		assert.ErrorIs(t, err, shared.ErrInvalidInput)

		f.oidc.On("EndSessionURL", mock.Anything, "idt", mock.AnythingOfType("string")).
			Return("https://idp.example.com/logout?id_token_hint=idt", nil)
		auth, err := f.svc.Resolve(ctx, result.Token.Token)
		require.NoError(t, err)
		out, err := f.svc.SignOut(ctx, auth)
		require.NoError(t, err)
		assert.Equal(t, "https://idp.example.com/logout?id_token_hint=idt", out.EndSessionURL)
	})

	t.Run("provider error abandons the login", func(t *testing.T) {
		f := newFixture(t, true)
		f.oidc.On("AuthURL", mock.Anything, mock.Anything, mock.Anything).Return("https://idp/authorize", nil)

		begin, err := f.svc.BeginLogin(ctx, nil, "")
		require.NoError(t, err)
		state := f.oidc.Calls[0].Arguments.String(1)

		_, err = f.svc.CompleteLogin(ctx, begin.Session, CallbackInput{State: state, Error: "access_denied"})
		assert.ErrorIs(t, err, shared.ErrUnauthorized)

		stored, err := f.sessions.Get(ctx, begin.Session.ID)
		require.NoError(t, err)
		assert.Equal(t, identity.StateAnonymous, stored.State)
		assert.Zero(t, f.hook.calls.Load())
	})

	t.Run("exchange failure", func(t *testing.T) {
		f := newFixture(t, true)
		f.oidc.On("AuthURL", mock.Anything, mock.Anything, mock.Anything).Return("https://idp/authorize", nil)
		begin, err := f.svc.BeginLogin(ctx, nil, "")
		require.NoError(t, err)
		state := f.oidc.Calls[0].Arguments.String(1)
		f.oidc.On("Exchange", mock.Anything, "bad", mock.Anything).Return(nil, nil, errors.New("invalid_grant"))

		_, err = f.svc.CompleteLogin(ctx, begin.Session, CallbackInput{State: state, Code: "bad"})
		assert.ErrorIs(t, err, shared.ErrUnauthorized)
	})

	t.Run("callback without the starting session is rejected", func(t *testing.T) {
		f := newFixture(t, true)
		f.oidc.On("AuthURL", mock.Anything, mock.Anything, mock.Anything).Return("https://idp/authorize", nil)
		_, err := f.svc.BeginLogin(ctx, nil, "/")
		require.NoError(t, err)
		state := f.oidc.Calls[0].Arguments.String(1)

		result, err := f.svc.CompleteLogin(ctx, nil, CallbackInput{State: state, Code: "attacker-code"})
		assert.ErrorIs(t, err, shared.ErrUnauthorized)
		assert.Nil(t, result)
		f.oidc.AssertNotCalled(t, "Exchange", mock.Anything, mock.Anything, mock.Anything)
		assert.Zero(t, f.hook.calls.Load())
	})

	t.Run("callback from another pending session is rejected", func(t *testing.T) {
		f := newFixture(t, true)
		f.oidc.On("AuthURL", mock.Anything, mock.Anything, mock.Anything).Return("https://idp/authorize", nil)
		_, err := f.svc.BeginLogin(ctx, nil, "/")
		require.NoError(t, err)
		attackerState := f.oidc.Calls[0].Arguments.String(1)

		victim, err := f.svc.BeginLogin(ctx, nil, "/cart")
		require.NoError(t, err)

		_, err = f.svc.CompleteLogin(ctx, victim.Session, CallbackInput{State: attackerState, Code: "attacker-code"})
		assert.ErrorIs(t, err, shared.ErrUnauthorized)
		f.oidc.AssertNotCalled(t, "Exchange", mock.Anything, mock.Anything, mock.Anything)

		stored, err := f.sessions.Get(ctx, victim.Session.ID)
		require.NoError(t, err)
		assert.Equal(t, identity.StatePending, stored.State)
	})

	t.Run("callback from a signed-in session is rejected", func(t *testing.T) {
		f := newFixture(t, true)
		f.oidc.On("AuthURL", mock.Anything, mock.Anything, mock.Anything).Return("https://idp/authorize", nil)
		begin, err := f.svc.BeginLogin(ctx, nil, "/")
		require.NoError(t, err)
		state := f.oidc.Calls[0].Arguments.String(1)

		signedIn := identity.NewSession(identity.AuthModeDemo)
		signedIn.ID = begin.Session.ID
		require.NoError(t, signedIn.Authenticate(identity.Principal{Subject: "demo", Username: "demo"}, nil))

		_, err = f.svc.CompleteLogin(ctx, signedIn, CallbackInput{State: state, Code: "code"})
		assert.ErrorIs(t, err, shared.ErrUnauthorized)
		f.oidc.AssertNotCalled(t, "Exchange", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("expired state returns the session to anonymous", func(t *testing.T) {
		f := newFixture(t, true)
		f.oidc.On("AuthURL", mock.Anything, mock.Anything, mock.Anything).Return("https://idp/authorize", nil)
		begin, err := f.svc.BeginLogin(ctx, nil, "/")
		require.NoError(t, err)
		state := f.oidc.Calls[0].Arguments.String(1)
		_, err = f.states.Take(ctx, state)
		require.NoError(t, err)

		_, err = f.svc.CompleteLogin(ctx, begin.Session, CallbackInput{State: state, Code: "code"})
		assert.ErrorIs(t, err, shared.ErrInvalidInput)

		stored, err := f.sessions.Get(ctx, begin.Session.ID)
		require.NoError(t, err)
		assert.Equal(t, identity.StateAnonymous, stored.State)
	})

	t.Run("provider unreachable", func(t *testing.T) {
		f := newFixture(t, true)
		f.oidc.On("AuthURL", mock.Anything, mock.Anything, mock.Anything).Return("", errors.New("dial tcp: refused"))

		_, err := f.svc.BeginLogin(ctx, nil, "")
		assert.ErrorIs(t, err, shared.ErrUpstream)
	})

	t.Run("disabled", func(t *testing.T) {
		f := newFixture(t, false)
		_, err := f.svc.BeginLogin(ctx, nil, "")
		assert.ErrorIs(t, err, shared.ErrForbidden)
	})
}

func TestService_SwitchMode(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true)
	f.users.On("FindByEmail", mock.Anything, "demo@example.com").Return(demoUser(t), nil)

	result, err := f.svc.SignIn(ctx, nil, SignInRequest{Email: "demo@example.com", Password: "demo123"})
	require.NoError(t, err)
	auth, err := f.svc.Resolve(ctx, result.Token.Token)
	require.NoError(t, err)

	same, err := f.svc.SwitchMode(ctx, auth, identity.AuthModeDemo)
	require.NoError(t, err)
	assert.False(t, same.SignedOut)

	switched, err := f.svc.SwitchMode(ctx, auth, identity.AuthModeOIDC)
	require.NoError(t, err)
	assert.True(t, switched.SignedOut)
	assert.Equal(t, identity.AuthModeOIDC, switched.Mode)

	_, err = f.svc.SwitchMode(ctx, nil, identity.AuthMode("saml"))
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestService_AccessToken(t *testing.T) {
	ctx := context.Background()

	oidcSession := func(expiry time.Time) *identity.Session {
		s := identity.NewSession(identity.AuthModeOIDC)
		require.NoError(t, s.Authenticate(identity.Principal{Subject: "sub"}, &identity.Tokens{
			AccessToken: "old", RefreshToken: "rt", Expiry: expiry,
		}))
		return s
	}

	t.Run("demo sessions carry no bearer", func(t *testing.T) {
		f := newFixture(t, true)
		s := identity.NewSession(identity.AuthModeDemo)
		require.NoError(t, s.Authenticate(identity.Principal{Subject: "u"}, nil))
		token, err := f.svc.AccessToken(ctx, s)
		require.NoError(t, err)
		assert.Empty(t, token)
	})

	t.Run("fresh token is reused", func(t *testing.T) {
		f := newFixture(t, true)
		token, err := f.svc.AccessToken(ctx, oidcSession(time.Now().Add(time.Hour)))
		require.NoError(t, err)
		assert.Equal(t, "old", token)
		f.oidc.AssertNotCalled(t, "Refresh", mock.Anything, mock.Anything)
	})

	t.Run("refreshes near expiry", func(t *testing.T) {
		f := newFixture(t, true)
		s := oidcSession(time.Now().Add(10 * time.Second))
		f.oidc.On("Refresh", mock.Anything, "rt").Return(&identity.Tokens{AccessToken: "new", Expiry: time.Now().Add(time.Hour)}, nil)

		token, err := f.svc.AccessToken(ctx, s)
		require.NoError(t, err)
		assert.Equal(t, "new", token)
		assert.Equal(t, "rt", s.RefreshToken)

		stored, err := f.sessions.Get(ctx, s.ID)
		require.NoError(t, err)
		assert.Equal(t, "new", stored.AccessToken)
	})

	t.Run("refresh failure after expiry", func(t *testing.T) {
		f := newFixture(t, true)
		s := oidcSession(time.Now().Add(-time.Minute))
		f.oidc.On("Refresh", mock.Anything, "rt").Return(nil, errors.New("invalid_grant"))

		_, err := f.svc.AccessToken(ctx, s)
		assert.ErrorIs(t, err, shared.ErrUnauthorized)
	})
}

func TestSafeReturnTo(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "/"},
		{"/orders", "/orders"},
		{"/products?category=clothes", "/products?category=clothes"},
		{"https://evil.example.com", "/"},
		{"//evil.example.com", "/"},
		{`/\evil.example.com`, "/"},
		{"orders", "/"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, SafeReturnTo(tt.in))
		})
	}
}
