package handler

import (
	"github.com/gin-gonic/gin"
	orderapp "github.com/storefront/backend/internal/application/order"
	"github.com/storefront/backend/internal/interfaces/http/middleware"
)

// OrderHandler handles order history endpoints
type OrderHandler struct {
	BaseHandler
	orders *orderapp.Service
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(orders *orderapp.Service) *OrderHandler {
	return &OrderHandler{orders: orders}
}

// List godoc
// @Summary      List orders
// @Tags         orders
// @Produce      json
// @Param        status query string false "Status filter, or all"
// @Success      200 {object} dto.Response{data=orderapp.OrderListResponse}
// @Security     SessionAuth
// @Router       /orders [get]
func (h *OrderHandler) List(c *gin.Context) {
	resp, err := h.orders.List(c.Request.Context(), middleware.MustGetSession(c), c.Query("status"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Get godoc
// @Summary      Get an order
// @Tags         orders
// @Produce      json
// @Param        id path string true "Order ID"
// @Success      200 {object} dto.Response{data=orderapp.OrderResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     SessionAuth
// @Router       /orders/{id} [get]
func (h *OrderHandler) Get(c *gin.Context) {
	resp, err := h.orders.Get(c.Request.Context(), middleware.MustGetSession(c), c.Param("id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// UpdateStatus godoc
// @Summary      Change an order's status
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        id      path string true "Order ID"
// @Param        request body orderapp.UpdateStatusRequest true "New status"
// @Success      200 {object} dto.Response{data=orderapp.OrderResponse}
// @Security     SessionAuth
// @Router       /orders/{id}/status [put]
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	var req orderapp.UpdateStatusRequest
	if !h.BindJSON(c, &req) {
		return
	}
	resp, err := h.orders.UpdateStatus(c.Request.Context(), middleware.MustGetSession(c), c.Param("id"), req.Status)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Cancel godoc
// @Summary      Cancel a pending or confirmed order
// @Tags         orders
// @Produce      json
// @Param        id path string true "Order ID"
// @Success      200 {object} dto.Response{data=orderapp.CancelResult}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     SessionAuth
// @Router       /orders/{id}/cancel [post]
func (h *OrderHandler) Cancel(c *gin.Context) {
	resp, err := h.orders.Cancel(c.Request.Context(), middleware.MustGetSession(c), c.Param("id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
