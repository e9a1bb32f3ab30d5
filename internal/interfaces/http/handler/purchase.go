package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/storefront/backend/internal/application/purchase"
	"github.com/storefront/backend/internal/interfaces/http/middleware"
)

// PurchaseHandler handles scheduled purchases
type PurchaseHandler struct {
	BaseHandler
	purchases *purchase.Service
}

// NewPurchaseHandler creates a new PurchaseHandler
func NewPurchaseHandler(purchases *purchase.Service) *PurchaseHandler {
	return &PurchaseHandler{purchases: purchases}
}

// Options godoc
// @Summary      Purchase form choices
// @Tags         purchases
// @Produce      json
// @Success      200 {object} dto.Response{data=purchase.Options}
// @Security     SessionAuth
// @Router       /purchases/options [get]
func (h *PurchaseHandler) Options(c *gin.Context) {
	h.Success(c, h.purchases.Options())
}

// Create godoc
// @Summary      Schedule a purchase
// @Tags         purchases
// @Accept       json
// @Produce      json
// @Param        request body purchase.CreateRequest true "Purchase"
// @Success      201 {object} dto.Response{data=purchase.Response}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Security     SessionAuth
// @Router       /purchases [post]
func (h *PurchaseHandler) Create(c *gin.Context) {
	var req purchase.CreateRequest
	if !h.BindJSON(c, &req) {
		return
	}
	resp, err := h.purchases.Create(c.Request.Context(), middleware.MustGetSession(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// ListMine godoc
// @Summary      The caller's purchases
// @Tags         purchases
// @Produce      json
// @Success      200 {object} dto.Response{data=[]purchase.Response}
// @Security     SessionAuth
// @Router       /purchases [get]
func (h *PurchaseHandler) ListMine(c *gin.Context) {
	resp, err := h.purchases.ListMine(c.Request.Context(), middleware.MustGetSession(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// ListAll godoc
// @Summary      Every purchase (admin)
// @Tags         purchases
// @Produce      json
// @Success      200 {object} dto.Response{data=[]purchase.Response}
// @Security     SessionAuth
// @Router       /purchases/admin [get]
func (h *PurchaseHandler) ListAll(c *gin.Context) {
	resp, err := h.purchases.ListAll(c.Request.Context(), middleware.MustGetSession(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Get godoc
// @Summary      Get a purchase
// @Tags         purchases
// @Produce      json
// @Param        id path string true "Purchase ID"
// @Success      200 {object} dto.Response{data=purchase.Response}
// @Security     SessionAuth
// @Router       /purchases/{id} [get]
func (h *PurchaseHandler) Get(c *gin.Context) {
	resp, err := h.purchases.Get(c.Request.Context(), middleware.MustGetSession(c), c.Param("id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
