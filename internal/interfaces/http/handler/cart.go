package handler

import (
	"github.com/gin-gonic/gin"
	cartapp "github.com/storefront/backend/internal/application/cart"
	"github.com/storefront/backend/internal/interfaces/http/middleware"
)

// CartHandler handles the shopper's cart
type CartHandler struct {
	BaseHandler
	carts *cartapp.Service
}

// NewCartHandler creates a new CartHandler
func NewCartHandler(carts *cartapp.Service) *CartHandler {
	return &CartHandler{carts: carts}
}

// Get godoc
// @Summary      Current cart with its summary
// @Tags         cart
// @Produce      json
// @Success      200 {object} dto.Response{data=cartapp.CartResponse}
// @Security     SessionAuth
// @Router       /cart [get]
func (h *CartHandler) Get(c *gin.Context) {
	resp, err := h.carts.Get(c.Request.Context(), middleware.MustGetSession(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// AddItem godoc
// @Summary      Add a product to the cart
// @Tags         cart
// @Accept       json
// @Produce      json
// @Param        request body cartapp.AddItemRequest true "Product and quantity (default 1)"
// @Success      200 {object} dto.Response{data=cartapp.CartResponse}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     SessionAuth
// @Router       /cart/items [post]
func (h *CartHandler) AddItem(c *gin.Context) {
	var req cartapp.AddItemRequest
	if !h.BindJSON(c, &req) {
		return
	}
	resp, err := h.carts.Add(c.Request.Context(), middleware.MustGetSession(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// UpdateItem godoc
// @Summary      Set an item's quantity; zero removes it
// @Tags         cart
// @Accept       json
// @Produce      json
// @Param        productId path string true "Product ID"
// @Param        request   body cartapp.UpdateQuantityRequest true "Quantity"
// @Success      200 {object} dto.Response{data=cartapp.CartResponse}
// @Security     SessionAuth
// @Router       /cart/items/{productId} [put]
func (h *CartHandler) UpdateItem(c *gin.Context) {
	var req cartapp.UpdateQuantityRequest
	if !h.BindJSON(c, &req) {
		return
	}
	resp, err := h.carts.UpdateQuantity(c.Request.Context(), middleware.MustGetSession(c), c.Param("productId"), *req.Quantity)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// RemoveItem godoc
// @Summary      Remove an item
// @Tags         cart
// @Produce      json
// @Param        productId path string true "Product ID"
// @Success      200 {object} dto.Response{data=cartapp.CartResponse}
// @Security     SessionAuth
// @Router       /cart/items/{productId} [delete]
func (h *CartHandler) RemoveItem(c *gin.Context) {
	resp, err := h.carts.Remove(c.Request.Context(), middleware.MustGetSession(c), c.Param("productId"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Clear godoc
// @Summary      Empty the cart
// @Tags         cart
// @Produce      json
// @Success      200 {object} dto.Response{data=cartapp.CartResponse}
// @Security     SessionAuth
// @Router       /cart [delete]
func (h *CartHandler) Clear(c *gin.Context) {
	resp, err := h.carts.Clear(c.Request.Context(), middleware.MustGetSession(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Sync godoc
// @Summary      Reconcile the local cart with the backend cart
// @Tags         cart
// @Produce      json
// @Success      200 {object} dto.Response{data=cartapp.SyncResponse}
// @Security     SessionAuth
// @Router       /cart/sync [post]
func (h *CartHandler) Sync(c *gin.Context) {
	resp, err := h.carts.Sync(c.Request.Context(), middleware.MustGetSession(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
