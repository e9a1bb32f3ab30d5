package handler

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	authapp "github.com/storefront/backend/internal/application/auth"
	"github.com/storefront/backend/internal/domain/shared"
	infraauth "github.com/storefront/backend/internal/infrastructure/auth"
	"github.com/storefront/backend/internal/infrastructure/config"
	"github.com/storefront/backend/internal/interfaces/http/dto"
	"github.com/storefront/backend/internal/interfaces/http/middleware"
)

// CookieConfig describes the session cookie
type CookieConfig struct {
	Name     string
	Domain   string
	Path     string
	Secure   bool
	SameSite http.SameSite
}

// CookieConfigFrom builds the cookie settings from session config
func CookieConfigFrom(cfg config.SessionConfig) CookieConfig {
	cc := CookieConfig{
		Name:     cfg.CookieName,
		Domain:   cfg.CookieDomain,
		Path:     cfg.CookiePath,
		Secure:   cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
	if cc.Path == "" {
		cc.Path = "/"
	}
	switch strings.ToLower(cfg.SameSite) {
	case "strict":
		cc.SameSite = http.SameSiteStrictMode
	case "none":
		cc.SameSite = http.SameSiteNoneMode
	}
	return cc
}

// AuthHandler serves the dual demo/OIDC sign-in endpoints
type AuthHandler struct {
	BaseHandler
	auth      *authapp.Service
	cookie    CookieConfig
	publicURL string
	loginPath string
}

// NewAuthHandler creates a new AuthHandler. publicURL prefixes post-login
// redirects; loginPath is where failed hosted logins are sent.
func NewAuthHandler(auth *authapp.Service, cookie CookieConfig, publicURL, loginPath string) *AuthHandler {
	if loginPath == "" {
		loginPath = middleware.DefaultLogin
	}
	return &AuthHandler{
		auth:      auth,
		cookie:    cookie,
		publicURL: strings.TrimRight(publicURL, "/"),
		loginPath: loginPath,
	}
}

// Status godoc
// @Summary      Current authentication state
// @Tags         auth
// @Produce      json
// @Success      200 {object} dto.Response{data=authapp.StatusResponse}
// @Router       /auth/status [get]
func (h *AuthHandler) Status(c *gin.Context) {
	h.Success(c, h.auth.Status(middleware.GetSession(c)))
}

// Modes godoc
// @Summary      Sign-in modes offered by this deployment
// @Tags         auth
// @Produce      json
// @Success      200 {object} dto.Response{data=authapp.ModesResponse}
// @Router       /auth/modes [get]
func (h *AuthHandler) Modes(c *gin.Context) {
	h.Success(c, h.auth.Modes())
}

// SignIn godoc
// @Summary      Demo-mode sign-in
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body authapp.SignInRequest true "Credentials"
// @Success      200 {object} dto.Response{data=authapp.AuthResponse}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      429 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /auth/demo/sign-in [post]
func (h *AuthHandler) SignIn(c *gin.Context) {
	var req authapp.SignInRequest
	if !h.BindJSON(c, &req) {
		return
	}

	result, err := h.auth.SignIn(c.Request.Context(), middleware.GetSession(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.setSessionCookie(c, result.Token)
	h.Success(c, authapp.ToAuthResponse(result))
}

// SignUp godoc
// @Summary      Demo-mode account creation
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body authapp.SignUpRequest true "New account"
// @Success      201 {object} dto.Response{data=authapp.AuthResponse}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /auth/demo/sign-up [post]
func (h *AuthHandler) SignUp(c *gin.Context) {
	var req authapp.SignUpRequest
	if !h.BindJSON(c, &req) {
		return
	}

	result, err := h.auth.SignUp(c.Request.Context(), middleware.GetSession(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.setSessionCookie(c, result.Token)
	h.Created(c, authapp.ToAuthResponse(result))
}

// OIDCLogin godoc
// @Summary      Start a hosted login
// @Description  Redirects to the identity provider, or returns the URL with format=json
// @Tags         auth
// @Param        returnTo query string false "Path to return to after login"
// @Param        format   query string false "json to receive the URL instead of a redirect"
// @Success      302
// @Success      200 {object} dto.Response{data=authapp.BeginLoginResult}
// @Failure      502 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /auth/oidc/login [get]
func (h *AuthHandler) OIDCLogin(c *gin.Context) {
	result, err := h.auth.BeginLogin(c.Request.Context(), middleware.GetSession(c), c.Query("returnTo"))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.setSessionCookie(c, result.Token)
	if wantsJSON(c) {
		h.Success(c, result)
		return
	}
	c.Redirect(http.StatusFound, result.AuthURL)
}

// OIDCCallback godoc
// @Summary      Identity provider redirect target
// @Tags         auth
// @Param        state query string true  "Login state"
// @Param        code  query string false "Authorization code"
// @Param        error query string false "Provider error"
// @Success      302
// @Router       /auth/oidc/callback [get]
func (h *AuthHandler) OIDCCallback(c *gin.Context) {
	result, err := h.auth.CompleteLogin(c.Request.Context(), middleware.GetSession(c), authapp.CallbackInput{
		State:            c.Query("state"),
		Code:             c.Query("code"),
		Error:            c.Query("error"),
		ErrorDescription: c.Query("error_description"),
	})
	if err != nil {
		if wantsJSON(c) {
			h.HandleError(c, err)
			return
		}
		_ = c.Error(err)
		c.Redirect(http.StatusFound, h.publicURL+h.loginPath+"?error="+url.QueryEscape(errorMessage(err)))
		return
	}

	h.setSessionCookie(c, result.Token)
	if wantsJSON(c) {
		c.JSON(http.StatusOK, dto.NewSuccessResponse(authapp.ToAuthResponse(result)).WithMeta("returnTo", result.ReturnTo))
		return
	}
	c.Redirect(http.StatusFound, h.publicURL+result.ReturnTo)
}

// SignOut godoc
// @Summary      Sign out
// @Description  Revokes the session token; in OIDC mode the response carries the provider logout URL
// @Tags         auth
// @Produce      json
// @Success      200 {object} dto.Response{data=authapp.SignOutResult}
// @Router       /auth/sign-out [post]
func (h *AuthHandler) SignOut(c *gin.Context) {
	authenticated := middleware.GetAuthenticated(c)
	if authenticated == nil {
		h.clearSessionCookie(c)
		h.Success(c, authapp.SignOutResult{Mode: h.auth.Modes().Default})
		return
	}

	result, err := h.auth.SignOut(c.Request.Context(), authenticated)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.clearSessionCookie(c)
	h.Success(c, result)
}

// SwitchMode godoc
// @Summary      Choose the sign-in mode
// @Description  Signs out a session that belongs to the other mode
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body authapp.SwitchModeRequest true "Mode"
// @Success      200 {object} dto.Response{data=authapp.SwitchModeResult}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /auth/switch-mode [post]
func (h *AuthHandler) SwitchMode(c *gin.Context) {
	var req authapp.SwitchModeRequest
	if !h.BindJSON(c, &req) {
		return
	}

	result, err := h.auth.SwitchMode(c.Request.Context(), middleware.GetAuthenticated(c), req.Mode)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	if result.SignedOut {
		h.clearSessionCookie(c)
	}
	h.Success(c, result)
}

func (h *AuthHandler) setSessionCookie(c *gin.Context, token *infraauth.IssuedToken) {
	if token == nil {
		return
	}
	maxAge := int(time.Until(token.ExpiresAt).Seconds())
	if maxAge <= 0 {
		maxAge = -1
	}
	c.SetSameSite(h.cookie.SameSite)
	c.SetCookie(h.cookie.Name, token.Token, maxAge, h.cookie.Path, h.cookie.Domain, h.cookie.Secure, true)
}

func (h *AuthHandler) clearSessionCookie(c *gin.Context) {
	c.SetSameSite(h.cookie.SameSite)
	c.SetCookie(h.cookie.Name, "", -1, h.cookie.Path, h.cookie.Domain, h.cookie.Secure, true)
}

func wantsJSON(c *gin.Context) bool {
	return c.Query("format") == "json"
}

func errorMessage(err error) string {
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Message
	}
	return "Sign-in failed"
}
