package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/storefront/backend/internal/application/auth"
	"github.com/storefront/backend/internal/domain/identity"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/logger"
	"github.com/storefront/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// Session context keys
const (
	SessionKey      = "session"
	SessionIDKey    = "session_id"
	SessionTokenKey = "session_token"
	AuthHeaderKey   = "Authorization"
	BearerPrefix    = "Bearer "
	DefaultLogin    = "/login"
)

// SessionResolver turns a session token into a live session
type SessionResolver interface {
	Resolve(ctx context.Context, token string) (*auth.Authenticated, error)
}

// SessionConfig holds configuration for the session middleware
type SessionConfig struct {
	Resolver   SessionResolver
	CookieName string
	Logger     *zap.Logger
}

// Session resolves the caller's session from the Authorization header or the
// session cookie. Requests without a usable token continue anonymously.
func Session(cfg SessionConfig) gin.HandlerFunc {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return func(c *gin.Context) {
		token := SessionToken(c, cfg.CookieName)
		if token == "" {
			c.Next()
			return
		}

		authenticated, err := cfg.Resolver.Resolve(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, shared.ErrUnauthorized) {
				log.Debug("Ignoring unusable session token", zap.Error(err), zap.String("path", c.Request.URL.Path))
			} else {
				// Store outages degrade to anonymous rather than failing public routes
				log.Error("Failed to resolve session", zap.Error(err))
			}
			c.Next()
			return
		}

		session := authenticated.Session
		c.Set(SessionKey, authenticated)
		c.Set(SessionIDKey, session.ID)
		c.Set(SessionTokenKey, token)

		ctx := logger.WithSession(c.Request.Context(), session.ID, string(session.Mode))
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// SessionToken extracts the raw session token, preferring a Bearer header over the cookie
func SessionToken(c *gin.Context, cookieName string) string {
	if header := c.GetHeader(AuthHeaderKey); strings.HasPrefix(header, BearerPrefix) {
		if token := strings.TrimSpace(strings.TrimPrefix(header, BearerPrefix)); token != "" {
			return token
		}
	}
	if cookieName == "" {
		return ""
	}
	if cookie, err := c.Cookie(cookieName); err == nil {
		return cookie
	}
	return ""
}

// RequireSession rejects requests without an authenticated session.
// The response carries loginPath in meta.login so clients know where to send the shopper.
func RequireSession(loginPath string) gin.HandlerFunc {
	if loginPath == "" {
		loginPath = DefaultLogin
	}
	return func(c *gin.Context) {
		if session := GetSession(c); session != nil && session.IsAuthenticated() {
			c.Next()
			return
		}
		resp := dto.NewErrorResponseWithRequestID(dto.ErrCodeUnauthorized, "Authentication required", GetRequestID(c)).
			WithMeta("login", loginPath)
		c.AbortWithStatusJSON(http.StatusUnauthorized, resp)
	}
}

// GetAuthenticated returns the resolved session and claims, or nil
func GetAuthenticated(c *gin.Context) *auth.Authenticated {
	if v, ok := c.Get(SessionKey); ok {
		if a, ok := v.(*auth.Authenticated); ok {
			return a
		}
	}
	return nil
}

// GetSession returns the caller's session, or nil when anonymous
func GetSession(c *gin.Context) *identity.Session {
	if a := GetAuthenticated(c); a != nil {
		return a.Session
	}
	return nil
}

// MustGetSession returns the caller's session; only use behind RequireSession
func MustGetSession(c *gin.Context) *identity.Session {
	session := GetSession(c)
	if session == nil {
		panic("session not found in context")
	}
	return session
}
