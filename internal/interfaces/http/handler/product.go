package handler

import (
	"github.com/gin-gonic/gin"
	catalogapp "github.com/storefront/backend/internal/application/catalog"
	"github.com/storefront/backend/internal/domain/identity"
	"github.com/storefront/backend/internal/interfaces/http/middleware"
)

// ProductHandler handles product-related API endpoints
type ProductHandler struct {
	BaseHandler
	products *catalogapp.ProductService
	tokens   identity.TokenSource
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(products *catalogapp.ProductService, tokens identity.TokenSource) *ProductHandler {
	return &ProductHandler{products: products, tokens: tokens}
}

// token returns the caller's upstream bearer token, answering the request on failure
func (h *ProductHandler) token(c *gin.Context) (string, bool) {
	token, err := h.tokens.AccessToken(c.Request.Context(), middleware.MustGetSession(c))
	if err != nil {
		h.HandleError(c, err)
		return "", false
	}
	return token, true
}

// List godoc
// @Summary      List products
// @Tags         products
// @Produce      json
// @Param        category query string false "Category, or 'All categories'"
// @Param        minPrice query number false "Minimum price"
// @Param        maxPrice query number false "Maximum price"
// @Param        search   query string false "Name or description search"
// @Success      200 {object} dto.Response{data=catalogapp.ProductListResponse}
// @Failure      502 {object} dto.Response{error=dto.ErrorInfo}
// @Security     SessionAuth
// @Router       /products [get]
func (h *ProductHandler) List(c *gin.Context) {
	var query catalogapp.ListProductsQuery
	if !h.BindQuery(c, &query) {
		return
	}
	token, ok := h.token(c)
	if !ok {
		return
	}

	resp, err := h.products.List(c.Request.Context(), token, query.ToFilter())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Categories godoc
// @Summary      Distinct product categories
// @Tags         products
// @Produce      json
// @Success      200 {object} dto.Response{data=[]string}
// @Security     SessionAuth
// @Router       /products/categories [get]
func (h *ProductHandler) Categories(c *gin.Context) {
	token, ok := h.token(c)
	if !ok {
		return
	}
	categories, err := h.products.Categories(c.Request.Context(), token)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, categories)
}

// Get godoc
// @Summary      Get a product
// @Tags         products
// @Produce      json
// @Param        id path string true "Product ID"
// @Success      200 {object} dto.Response{data=catalogapp.ProductResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     SessionAuth
// @Router       /products/{id} [get]
func (h *ProductHandler) Get(c *gin.Context) {
	token, ok := h.token(c)
	if !ok {
		return
	}
	product, err := h.products.Get(c.Request.Context(), token, c.Param("id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, product)
}

// Create godoc
// @Summary      Create a product
// @Tags         products
// @Accept       json
// @Produce      json
// @Param        request body catalogapp.CreateProductRequest true "Product"
// @Success      201 {object} dto.Response{data=catalogapp.ProductResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Security     SessionAuth
// @Router       /products [post]
func (h *ProductHandler) Create(c *gin.Context) {
	var req catalogapp.CreateProductRequest
	if !h.BindJSON(c, &req) {
		return
	}
	token, ok := h.token(c)
	if !ok {
		return
	}
	product, err := h.products.Create(c.Request.Context(), token, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, product)
}

// Update godoc
// @Summary      Partially update a product
// @Tags         products
// @Accept       json
// @Produce      json
// @Param        id      path string true "Product ID"
// @Param        request body catalogapp.UpdateProductRequest true "Changed fields"
// @Success      200 {object} dto.Response{data=catalogapp.ProductResponse}
// @Security     SessionAuth
// @Router       /products/{id} [put]
func (h *ProductHandler) Update(c *gin.Context) {
	var req catalogapp.UpdateProductRequest
	if !h.BindJSON(c, &req) {
		return
	}
	token, ok := h.token(c)
	if !ok {
		return
	}
	product, err := h.products.Update(c.Request.Context(), token, c.Param("id"), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, product)
}

// Delete godoc
// @Summary      Delete a product
// @Tags         products
// @Param        id path string true "Product ID"
// @Success      204
// @Security     SessionAuth
// @Router       /products/{id} [delete]
func (h *ProductHandler) Delete(c *gin.Context) {
	token, ok := h.token(c)
	if !ok {
		return
	}
	if err := h.products.Delete(c.Request.Context(), token, c.Param("id")); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
