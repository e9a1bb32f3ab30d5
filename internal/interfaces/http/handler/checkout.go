package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/storefront/backend/internal/application/checkout"
	"github.com/storefront/backend/internal/interfaces/http/middleware"
)

// CheckoutHandler places orders from the cart
type CheckoutHandler struct {
	BaseHandler
	checkout *checkout.Service
}

// NewCheckoutHandler creates a new CheckoutHandler
func NewCheckoutHandler(svc *checkout.Service) *CheckoutHandler {
	return &CheckoutHandler{checkout: svc}
}

// Checkout godoc
// @Summary      Place an order for the cart
// @Tags         checkout
// @Accept       json
// @Produce      json
// @Param        request body checkout.Request true "Delivery details"
// @Success      201 {object} dto.Response{data=checkout.Result}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      502 {object} dto.Response{error=dto.ErrorInfo}
// @Security     SessionAuth
// @Router       /checkout [post]
func (h *CheckoutHandler) Checkout(c *gin.Context) {
	var req checkout.Request
	if !h.BindJSON(c, &req) {
		return
	}
	result, err := h.checkout.Checkout(c.Request.Context(), middleware.MustGetSession(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}
