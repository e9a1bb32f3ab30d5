// Package auth runs the dual demo/OIDC sign-in flows over server-side sessions.
package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/identity"
	"github.com/storefront/backend/internal/domain/shared"
	infraauth "github.com/storefront/backend/internal/infrastructure/auth"
	"github.com/storefront/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Errors surfaced to callers
var (
	ErrModeDisabled   = shared.ErrForbidden.WithMessage("This sign-in mode is not enabled")
	ErrSessionInvalid = shared.ErrUnauthorized.WithMessage("Your session is invalid or has expired. Please sign in again")
	ErrLoginFailed    = shared.ErrUnauthorized.WithMessage("Sign-in with the identity provider failed")
)

// DefaultRefreshLeeway is how close to expiry an upstream token is refreshed
const DefaultRefreshLeeway = 30 * time.Second

// LoginHook runs after a session becomes authenticated
type LoginHook interface {
	AfterLogin(ctx context.Context, s *identity.Session)
}

// Config holds the auth service settings
type Config struct {
	DefaultMode   identity.AuthMode
	DemoEnabled   bool
	LoginStateTTL time.Duration
	RefreshLeeway time.Duration
}

// Service implements sign-in, sign-out and session resolution for both modes
type Service struct {
	sessions  identity.SessionStore
	states    identity.LoginStateStore
	demoUsers identity.DemoUserRepository
	tokens    *infraauth.SessionTokenService
	blacklist infraauth.TokenBlacklist
	oidc      infraauth.OIDCProvider
	metrics   *telemetry.StorefrontMetrics
	cfg       Config
	logger    *zap.Logger

	hooks   []LoginHook
	refresh singleflight.Group
}

// Option configures optional collaborators
type Option func(*Service)

// WithOIDC enables the hosted login flow
func WithOIDC(p infraauth.OIDCProvider) Option {
	return func(s *Service) { s.oidc = p }
}

// WithMetrics records sign-in counters
func WithMetrics(m *telemetry.StorefrontMetrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithLoginHook adds a hook run after every successful sign-in
func WithLoginHook(h LoginHook) Option {
	return func(s *Service) { s.hooks = append(s.hooks, h) }
}

// NewService creates the auth service
func NewService(
	sessions identity.SessionStore,
	states identity.LoginStateStore,
	demoUsers identity.DemoUserRepository,
	tokens *infraauth.SessionTokenService,
	blacklist infraauth.TokenBlacklist,
	cfg Config,
	logger *zap.Logger,
	opts ...Option,
) *Service {
	if cfg.LoginStateTTL <= 0 {
		cfg.LoginStateTTL = 10 * time.Minute
	}
	if cfg.RefreshLeeway <= 0 {
		cfg.RefreshLeeway = DefaultRefreshLeeway
	}
	if !cfg.DefaultMode.IsValid() {
		cfg.DefaultMode = identity.AuthModeDemo
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		sessions:  sessions,
		states:    states,
		demoUsers: demoUsers,
		tokens:    tokens,
		blacklist: blacklist,
		cfg:       cfg,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddLoginHook registers h after construction; used when the hook depends on this service
func (s *Service) AddLoginHook(h LoginHook) {
	s.hooks = append(s.hooks, h)
}

// ModeEnabled reports whether mode can be used
func (s *Service) ModeEnabled(mode identity.AuthMode) bool {
	switch mode {
	case identity.AuthModeDemo:
		return s.cfg.DemoEnabled
	case identity.AuthModeOIDC:
		return s.oidc != nil
	default:
		return false
	}
}

// Modes lists the enabled modes; the default comes first when enabled
func (s *Service) Modes() ModesResponse {
	available := make([]identity.AuthMode, 0, 2)
	for _, m := range []identity.AuthMode{s.cfg.DefaultMode, s.cfg.DefaultMode.Other()} {
		if s.ModeEnabled(m) {
			available = append(available, m)
		}
	}
	def := s.cfg.DefaultMode
	if !s.ModeEnabled(def) && len(available) > 0 {
		def = available[0]
	}
	return ModesResponse{Default: def, Available: available}
}

// Status describes session; a nil session is anonymous in the default mode
func (s *Service) Status(session *identity.Session) StatusResponse {
	modes := s.Modes()
	resp := StatusResponse{
		AuthMode:       modes.Default,
		AvailableModes: modes.Available,
	}
	if session == nil {
		return resp
	}
	resp.AuthMode = session.Mode
	resp.IsLoading = session.IsLoading()
	if session.IsAuthenticated() {
		resp.IsAuthenticated = true
		resp.Username = session.Username
		resp.DisplayName = session.DisplayName
		resp.Email = session.Email
		resp.Picture = session.Picture
	}
	return resp
}

// Resolve validates a session token and loads its session
func (s *Service) Resolve(ctx context.Context, token string) (*Authenticated, error) {
	claims, err := s.tokens.Validate(token)
	if err != nil {
		return nil, ErrSessionInvalid.WithCause(err)
	}
	revoked, err := s.blacklist.IsBlacklisted(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, ErrSessionInvalid.WithCause(infraauth.ErrTokenBlacklisted)
	}
	session, err := s.sessions.Get(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, ErrSessionInvalid.WithCause(err)
		}
		return nil, err
	}
	if session.State == identity.StateSignedOut {
		return nil, ErrSessionInvalid
	}
	return &Authenticated{Session: session, Claims: claims}, nil
}

// SignIn authenticates a demo account and opens a session
func (s *Service) SignIn(ctx context.Context, current *identity.Session, req SignInRequest) (result *SessionResult, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "AuthService", "SignIn", attribute.String("auth.mode", string(identity.AuthModeDemo)))
	defer func() { telemetry.EndSpan(span, err) }()

	if !s.cfg.DemoEnabled {
		return nil, ErrModeDisabled
	}

	user, err := s.demoUsers.FindByEmail(ctx, identity.NormalizeEmail(req.Email))
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	if user == nil || !user.VerifyPassword(req.Password) {
		s.metrics.RecordLogin(ctx, string(identity.AuthModeDemo), "failure")
		s.logger.Warn("Demo sign-in failed", zap.String("email", identity.NormalizeEmail(req.Email)))
		return nil, identity.ErrInvalidCredentials
	}

	return s.openDemoSession(ctx, current, user)
}

// SignUp creates a demo account and signs it in
func (s *Service) SignUp(ctx context.Context, current *identity.Session, req SignUpRequest) (result *SessionResult, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "AuthService", "SignUp")
	defer func() { telemetry.EndSpan(span, err) }()

	if !s.cfg.DemoEnabled {
		return nil, ErrModeDisabled
	}

	exists, err := s.demoUsers.ExistsByEmail(ctx, identity.NormalizeEmail(req.Email))
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, identity.ErrUserExists
	}

	user, err := identity.NewDemoUser(req.Email, req.Password, req.Name)
	if err != nil {
		return nil, err
	}
	if err := s.demoUsers.Create(ctx, user); err != nil {
		return nil, err
	}
	s.logger.Info("Demo account created", zap.String("email", user.Email))

	return s.openDemoSession(ctx, current, user)
}

func (s *Service) openDemoSession(ctx context.Context, current *identity.Session, user *identity.DemoUser) (*SessionResult, error) {
	s.discard(ctx, current)

	session := identity.NewSession(identity.AuthModeDemo)
	principal := identity.Principal{
		Subject:     user.ID.String(),
		Username:    user.Email,
		DisplayName: user.Name,
		Email:       user.Email,
		Picture:     user.AvatarURL(),
	}
	if err := session.Authenticate(principal, nil); err != nil {
		return nil, err
	}

	result, err := s.persistAndIssue(ctx, session)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordLogin(ctx, string(identity.AuthModeDemo), "success")
	s.logger.Info("Demo sign-in succeeded", zap.String("email", user.Email), zap.String("session_id", session.ID))
	s.runHooks(ctx, session)
	return result, nil
}

// BeginLogin starts a hosted login: a pending session plus a one-time state bound to a PKCE verifier
func (s *Service) BeginLogin(ctx context.Context, current *identity.Session, returnTo string) (result *BeginLoginResult, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "AuthService", "BeginLogin", attribute.String("auth.mode", string(identity.AuthModeOIDC)))
	defer func() { telemetry.EndSpan(span, err) }()

	if s.oidc == nil {
		return nil, ErrModeDisabled
	}
	s.discard(ctx, current)

	session := identity.NewSession(identity.AuthModeOIDC)
	if err := session.Begin(); err != nil {
		return nil, err
	}

	verifier, err := infraauth.NewCodeVerifier()
	if err != nil {
		return nil, err
	}
	state := &identity.LoginState{
		State:        uuid.NewString(),
		SessionID:    session.ID,
		CodeVerifier: verifier,
		ReturnTo:     SafeReturnTo(returnTo),
		CreatedAt:    time.Now(),
	}

	authURL, err := s.oidc.AuthURL(ctx, state.State, verifier)
	if err != nil {
		s.logger.Error("Identity provider unavailable", zap.Error(err))
		return nil, shared.ErrUpstream.WithMessage("The identity provider is unavailable").WithCause(err)
	}

	if err := s.sessions.Save(ctx, session, s.cfg.LoginStateTTL); err != nil {
		return nil, err
	}
	if err := s.states.Put(ctx, state, s.cfg.LoginStateTTL); err != nil {
		return nil, err
	}
	token, err := s.tokens.Issue(session)
	if err != nil {
		return nil, err
	}

	return &BeginLoginResult{AuthURL: authURL, Session: session, Token: token}, nil
}

// CompleteLogin consumes the login state, redeems the code and authenticates the
// pending session. current must be the pending session that started the login;
// a callback arriving from any other browser is rejected.
func (s *Service) CompleteLogin(ctx context.Context, current *identity.Session, in CallbackInput) (result *SessionResult, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "AuthService", "CompleteLogin", attribute.String("auth.mode", string(identity.AuthModeOIDC)))
	defer func() { telemetry.EndSpan(span, err) }()

	if s.oidc == nil {
		return nil, ErrModeDisabled
	}
	if in.State == "" {
		return nil, shared.ErrInvalidInput.WithMessage("Missing login state")
	}

	ls, err := s.states.Take(ctx, in.State)
	if err != nil {
		if current != nil && current.IsLoading() {
			s.abandon(ctx, current)
		}
		return nil, err
	}

	if current == nil || current.ID != ls.SessionID || !current.IsLoading() {
		s.metrics.RecordLogin(ctx, string(identity.AuthModeOIDC), "failure")
		s.logger.Warn("Login callback does not belong to the caller's session",
			zap.String("expected_session_id", ls.SessionID),
			zap.Bool("has_session", current != nil))
		return nil, ErrLoginFailed
	}
	session := current

	if in.Error != "" || in.Code == "" {
		s.abandon(ctx, session)
		s.metrics.RecordLogin(ctx, string(identity.AuthModeOIDC), "failure")
		s.logger.Warn("Identity provider returned an error",
			zap.String("error", in.Error),
			zap.String("description", in.ErrorDescription))
		if in.Error == "" {
			return nil, shared.ErrInvalidInput.WithMessage("Missing authorization code")
		}
		return nil, ErrLoginFailed
	}

	principal, tokens, err := s.oidc.Exchange(ctx, in.Code, ls.CodeVerifier)
	if err != nil {
		s.abandon(ctx, session)
		s.metrics.RecordLogin(ctx, string(identity.AuthModeOIDC), "failure")
		s.logger.Warn("Code exchange failed", zap.Error(err))
		return nil, ErrLoginFailed.WithCause(err)
	}

	if err := session.Authenticate(*principal, tokens); err != nil {
		return nil, err
	}
	result, err = s.persistAndIssue(ctx, session)
	if err != nil {
		return nil, err
	}
	result.ReturnTo = ls.ReturnTo

	s.metrics.RecordLogin(ctx, string(identity.AuthModeOIDC), "success")
	s.logger.Info("OIDC sign-in succeeded", zap.String("subject", session.Subject), zap.String("session_id", session.ID))
	s.runHooks(ctx, session)
	return result, nil
}

// SignOut revokes the caller's token, ends the session and returns the
// identity provider's logout URL in OIDC mode
func (s *Service) SignOut(ctx context.Context, auth *Authenticated) (result *SignOutResult, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "AuthService", "SignOut")
	defer func() { telemetry.EndSpan(span, err) }()

	session := auth.Session
	result = &SignOutResult{Mode: session.Mode}

	if auth.Claims != nil {
		if err := s.blacklist.AddToBlacklist(ctx, auth.Claims.ID, auth.Claims.GetRemainingTTL()); err != nil {
			return nil, err
		}
	}

	idToken := session.IDToken
	wasAuthenticated := session.IsAuthenticated()
	if wasAuthenticated {
		if err := session.SignOut(); err != nil {
			return nil, err
		}
	}
	if err := s.sessions.Delete(ctx, session.ID); err != nil {
		return nil, err
	}

	if session.Mode == identity.AuthModeOIDC && s.oidc != nil && wasAuthenticated {
		endURL, err := s.oidc.EndSessionURL(ctx, idToken, uuid.NewString())
		if err != nil {
			s.logger.Warn("Failed to build end-session URL", zap.Error(err))
		} else {
			result.EndSessionURL = endURL
		}
	}

	s.metrics.RecordSignOut(ctx, string(session.Mode))
	s.logger.Info("Signed out", zap.String("session_id", session.ID), zap.String("mode", string(session.Mode)))
	return result, nil
}

// SwitchMode signs out a session belonging to the other mode and returns the mode to use next
func (s *Service) SwitchMode(ctx context.Context, auth *Authenticated, mode identity.AuthMode) (*SwitchModeResult, error) {
	if !mode.IsValid() {
		return nil, shared.ErrInvalidInput.WithMessage("Unknown sign-in mode")
	}
	if !s.ModeEnabled(mode) {
		return nil, ErrModeDisabled
	}

	result := &SwitchModeResult{Mode: mode}
	if auth == nil || auth.Session == nil || auth.Session.Mode == mode {
		return result, nil
	}

	out, err := s.SignOut(ctx, auth)
	if err != nil {
		return nil, err
	}
	result.SignedOut = true
	result.EndSessionURL = out.EndSessionURL
	return result, nil
}

// AccessToken returns the upstream bearer token for session, refreshing it when it
// is about to expire. Demo sessions have none.
func (s *Service) AccessToken(ctx context.Context, session *identity.Session) (string, error) {
	if !session.HasUpstreamToken() {
		return "", nil
	}
	if !session.TokenExpiresWithin(s.cfg.RefreshLeeway) {
		return session.AccessToken, nil
	}
	if s.oidc == nil || session.RefreshToken == "" {
		if time.Now().Before(session.TokenExpiry) {
			return session.AccessToken, nil
		}
		return "", ErrSessionInvalid
	}

	v, err, _ := s.refresh.Do(session.ID, func() (any, error) {
		tokens, err := s.oidc.Refresh(ctx, session.RefreshToken)
		if err != nil {
			return nil, err
		}
		return tokens, nil
	})
	if err != nil {
		s.logger.Warn("Upstream token refresh failed", zap.String("session_id", session.ID), zap.Error(err))
		if time.Now().Before(session.TokenExpiry) {
			return session.AccessToken, nil
		}
		return "", ErrSessionInvalid.WithCause(err)
	}

	session.SetTokens(*v.(*identity.Tokens))
	if err := s.sessions.Save(ctx, session, s.tokens.TTL()); err != nil {
		s.logger.Warn("Failed to store refreshed tokens", zap.Error(err))
	}
	return session.AccessToken, nil
}

var _ identity.TokenSource = (*Service)(nil)

func (s *Service) persistAndIssue(ctx context.Context, session *identity.Session) (*SessionResult, error) {
	if err := s.sessions.Save(ctx, session, s.tokens.TTL()); err != nil {
		return nil, err
	}
	token, err := s.tokens.Issue(session)
	if err != nil {
		return nil, err
	}
	return &SessionResult{Session: session, Token: token, Status: s.Status(session)}, nil
}

func (s *Service) abandon(ctx context.Context, session *identity.Session) {
	if session.IsLoading() {
		_ = session.Abandon()
	}
	if err := s.sessions.Save(ctx, session, s.cfg.LoginStateTTL); err != nil {
		s.logger.Warn("Failed to store abandoned session", zap.Error(err))
	}
}

// discard drops a session that is being replaced by a new sign-in
func (s *Service) discard(ctx context.Context, current *identity.Session) {
	if current == nil {
		return
	}
	if err := s.sessions.Delete(ctx, current.ID); err != nil {
		s.logger.Warn("Failed to drop replaced session", zap.String("session_id", current.ID), zap.Error(err))
	}
}

func (s *Service) runHooks(ctx context.Context, session *identity.Session) {
	for _, h := range s.hooks {
		h.AfterLogin(ctx, session)
	}
}

// SafeReturnTo keeps post-login redirects on this site: only absolute paths are allowed
func SafeReturnTo(returnTo string) string {
	returnTo = strings.TrimSpace(returnTo)
	if returnTo == "" || !strings.HasPrefix(returnTo, "/") || strings.HasPrefix(returnTo, "//") || strings.Contains(returnTo, `\`) {
		return "/"
	}
	return returnTo
}
