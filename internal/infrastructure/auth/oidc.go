package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"

	"github.com/storefront/backend/internal/domain/identity"
	"github.com/storefront/backend/internal/infrastructure/config"
	"github.com/zitadel/oidc/v3/pkg/client/rp"
	"github.com/zitadel/oidc/v3/pkg/oidc"
	"go.uber.org/zap"
)

// ErrOIDCDisabled is returned when no identity provider is configured
var ErrOIDCDisabled = errors.New("oidc: identity provider is not configured")

// OIDCProvider is the authorization-code-with-PKCE client used for hosted login
type OIDCProvider interface {
	// AuthURL returns the IdP authorization URL for state and the S256 challenge of verifier
	AuthURL(ctx context.Context, state, verifier string) (string, error)
	// Exchange redeems an authorization code
	Exchange(ctx context.Context, code, verifier string) (*identity.Principal, *identity.Tokens, error)
	// Refresh redeems a refresh token
	Refresh(ctx context.Context, refreshToken string) (*identity.Tokens, error)
	// EndSessionURL returns the IdP logout URL, or "" when the IdP has none
	EndSessionURL(ctx context.Context, idToken, state string) (string, error)
}

// NewCodeVerifier returns a random PKCE code verifier
func NewCodeVerifier() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate code verifier: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// ZitadelProvider implements OIDCProvider with the zitadel relying party.
// Discovery runs on first use and is retried until it succeeds, so the
// server can start while the IdP is down.
type ZitadelProvider struct {
	cfg        config.OIDCConfig
	httpClient *http.Client
	logger     *zap.Logger

	mu    sync.Mutex
	party rp.RelyingParty
}

// NewZitadelProvider creates a provider; it returns ErrOIDCDisabled when cfg is incomplete
func NewZitadelProvider(cfg config.OIDCConfig, httpClient *http.Client, logger *zap.Logger) (*ZitadelProvider, error) {
	if !cfg.Enabled() {
		return nil, ErrOIDCDisabled
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ZitadelProvider{cfg: cfg, httpClient: httpClient, logger: logger}, nil
}

func (p *ZitadelProvider) relyingParty(ctx context.Context) (rp.RelyingParty, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.party != nil {
		return p.party, nil
	}

	scopes := p.cfg.Scopes
	if len(scopes) == 0 {
		scopes = []string{oidc.ScopeOpenID, oidc.ScopeProfile, oidc.ScopeEmail}
	}
	party, err := rp.NewRelyingPartyOIDC(ctx,
		p.cfg.Issuer, p.cfg.ClientID, p.cfg.ClientSecret, p.cfg.RedirectURL, scopes,
		rp.WithHTTPClient(p.httpClient),
	)
	if err != nil {
		p.logger.Warn("OIDC discovery failed", zap.String("issuer", p.cfg.Issuer), zap.Error(err))
		return nil, fmt.Errorf("oidc: discovery failed: %w", err)
	}
	p.logger.Info("OIDC provider ready", zap.String("issuer", p.cfg.Issuer))
	p.party = party
	return party, nil
}

// AuthURL builds the authorization request URL
func (p *ZitadelProvider) AuthURL(ctx context.Context, state, verifier string) (string, error) {
	party, err := p.relyingParty(ctx)
	if err != nil {
		return "", err
	}
	return rp.AuthURL(state, party, rp.WithCodeChallenge(oidc.NewSHACodeChallenge(verifier))), nil
}

// Exchange redeems code and verifies the returned ID token
func (p *ZitadelProvider) Exchange(ctx context.Context, code, verifier string) (*identity.Principal, *identity.Tokens, error) {
	party, err := p.relyingParty(ctx)
	if err != nil {
		return nil, nil, err
	}
	tokens, err := rp.CodeExchange[*oidc.IDTokenClaims](ctx, code, party, rp.WithCodeVerifier(verifier))
	if err != nil {
		return nil, nil, fmt.Errorf("oidc: code exchange failed: %w", err)
	}
	if tokens.IDTokenClaims == nil {
		return nil, nil, errors.New("oidc: token response has no id_token")
	}

	claims := tokens.IDTokenClaims
	principal := &identity.Principal{
		Subject:     claims.Subject,
		Username:    claims.PreferredUsername,
		DisplayName: claims.Name,
		Email:       claims.Email,
		Picture:     claims.Picture,
	}
	if principal.Username == "" {
		principal.Username = principal.Email
	}
	return principal, toTokens(tokens), nil
}

// Refresh exchanges refreshToken for new tokens
func (p *ZitadelProvider) Refresh(ctx context.Context, refreshToken string) (*identity.Tokens, error) {
	party, err := p.relyingParty(ctx)
	if err != nil {
		return nil, err
	}
	tokens, err := rp.RefreshTokens[*oidc.IDTokenClaims](ctx, party, refreshToken, "", "")
	if err != nil {
		return nil, fmt.Errorf("oidc: token refresh failed: %w", err)
	}
	return toTokens(tokens), nil
}

// EndSessionURL builds the RP-initiated logout URL the browser is sent to
func (p *ZitadelProvider) EndSessionURL(ctx context.Context, idToken, state string) (string, error) {
	party, err := p.relyingParty(ctx)
	if err != nil {
		return "", err
	}
	endpoint := party.GetEndSessionEndpoint()
	if endpoint == "" {
		return "", nil
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("oidc: invalid end_session_endpoint: %w", err)
	}
	q := u.Query()
	q.Set("client_id", p.cfg.ClientID)
	if idToken != "" {
		q.Set("id_token_hint", idToken)
	}
	if p.cfg.PostLogoutRedirectURL != "" {
		q.Set("post_logout_redirect_uri", p.cfg.PostLogoutRedirectURL)
	}
	if state != "" {
		q.Set("state", state)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func toTokens(t *oidc.Tokens[*oidc.IDTokenClaims]) *identity.Tokens {
	out := &identity.Tokens{IDToken: t.IDToken}
	if t.Token != nil {
		out.AccessToken = t.AccessToken
		out.RefreshToken = t.RefreshToken
		out.Expiry = t.Expiry
	}
	return out
}

var _ OIDCProvider = (*ZitadelProvider)(nil)
