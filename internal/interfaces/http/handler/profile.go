package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/storefront/backend/internal/application/profile"
	"github.com/storefront/backend/internal/domain/identity"
	"github.com/storefront/backend/internal/interfaces/http/middleware"
)

// ProfileHandler handles the shopper's account
type ProfileHandler struct {
	BaseHandler
	profiles *profile.Service
}

// NewProfileHandler creates a new ProfileHandler
func NewProfileHandler(profiles *profile.Service) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

// Register godoc
// @Summary      Create a backend account
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        request body profile.RegisterRequest true "Account"
// @Success      201 {object} dto.Response{data=profile.Response}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /users/register [post]
func (h *ProfileHandler) Register(c *gin.Context) {
	var req profile.RegisterRequest
	if !h.BindJSON(c, &req) {
		return
	}
	resp, err := h.profiles.Register(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// Get godoc
// @Summary      The caller's profile
// @Tags         profile
// @Produce      json
// @Success      200 {object} dto.Response{data=profile.Response}
// @Security     SessionAuth
// @Router       /profile [get]
func (h *ProfileHandler) Get(c *gin.Context) {
	resp, err := h.profiles.Get(c.Request.Context(), middleware.MustGetSession(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Update godoc
// @Summary      Partially update the caller's profile
// @Tags         profile
// @Accept       json
// @Produce      json
// @Param        id      query string false "Account ID; defaults to the caller's"
// @Param        request body  profile.UpdateRequest true "Changed fields"
// @Success      200 {object} dto.Response{data=profile.Response}
// @Security     SessionAuth
// @Router       /profile [put]
func (h *ProfileHandler) Update(c *gin.Context) {
	var req profile.UpdateRequest
	if !h.BindJSON(c, &req) {
		return
	}
	session := middleware.MustGetSession(c)
	id, ok := h.accountID(c, session)
	if !ok {
		return
	}
	resp, err := h.profiles.Update(c.Request.Context(), session, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Delete godoc
// @Summary      Delete the caller's account
// @Tags         profile
// @Param        id query string false "Account ID; defaults to the caller's"
// @Success      204
// @Security     SessionAuth
// @Router       /profile [delete]
func (h *ProfileHandler) Delete(c *gin.Context) {
	session := middleware.MustGetSession(c)
	id, ok := h.accountID(c, session)
	if !ok {
		return
	}
	if err := h.profiles.Delete(c.Request.Context(), session, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// accountID resolves the backend account id from the query or the current profile
func (h *ProfileHandler) accountID(c *gin.Context, session *identity.Session) (string, bool) {
	if id := c.Query("id"); id != "" {
		return id, true
	}
	current, err := h.profiles.Get(c.Request.Context(), session)
	if err != nil {
		h.HandleError(c, err)
		return "", false
	}
	if current.Source != profile.SourceBackend || current.ID == "" {
		h.BadRequest(c, "This profile is not stored on the backend")
		return "", false
	}
	return current.ID, true
}
