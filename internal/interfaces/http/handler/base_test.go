package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/interfaces/http/dto"
	"github.com/storefront/backend/internal/interfaces/http/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestBaseHandlerSuccess(t *testing.T) {
	h := &BaseHandler{}
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	h.Success(c, map[string]string{"key": "value"})

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	assert.True(t, resp.Success)
	assert.Nil(t, resp.Error)
}

func TestBaseHandlerCreated(t *testing.T) {
	h := &BaseHandler{}
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	h.Created(c, map[string]string{"id": "123"})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, decodeResponse(t, w).Success)
}

func TestBaseHandlerNoContent(t *testing.T) {
	h := &BaseHandler{}

	router := gin.New()
	router.DELETE("/test", func(c *gin.Context) {
		h.NoContent(c)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/test", nil))

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.Bytes())
}

func TestBaseHandlerErrorMethods(t *testing.T) {
	tests := []struct {
		name         string
		method       func(*BaseHandler, *gin.Context)
		expectedCode int
		expectedErr  string
	}{
		{
			name:         "BadRequest",
			method:       func(h *BaseHandler, c *gin.Context) { h.BadRequest(c, "Invalid request") },
			expectedCode: http.StatusBadRequest,
			expectedErr:  dto.ErrCodeBadRequest,
		},
		{
			name:         "Unauthorized",
			method:       func(h *BaseHandler, c *gin.Context) { h.Unauthorized(c, "Not authenticated") },
			expectedCode: http.StatusUnauthorized,
			expectedErr:  dto.ErrCodeUnauthorized,
		},
		{
			name:         "InternalError",
			method:       func(h *BaseHandler, c *gin.Context) { h.InternalError(c, "Server error") },
			expectedCode: http.StatusInternalServerError,
			expectedErr:  dto.ErrCodeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &BaseHandler{}
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
			c.Set(middleware.RequestIDKey, "req-1")

			tt.method(h, c)

			assert.Equal(t, tt.expectedCode, w.Code)
			resp := decodeResponse(t, w)
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.expectedErr, resp.Error.Code)
			assert.Equal(t, "req-1", resp.Error.RequestID)
		})
	}
}

func TestBaseHandlerHandleError(t *testing.T) {
	fieldErrs := &shared.ValidationErrors{}
	fieldErrs.Add("deliveryDate", "Delivery date is required")
	fieldErrs.Add("deliveryLocation", "Delivery location is required")

	tests := []struct {
		name         string
		err          error
		expectedCode int
		expectedErr  string
		details      int
	}{
		{"not found", shared.ErrNotFound, http.StatusNotFound, "NOT_FOUND", 0},
		{"wrapped upstream", fmt.Errorf("list products: %w", shared.ErrUpstream), http.StatusBadGateway, "UPSTREAM_ERROR", 0},
		{"cart empty", shared.ErrCartEmpty, http.StatusUnprocessableEntity, "CART_EMPTY", 0},
		{"insufficient stock", shared.ErrInsufficientStock.WithMessage("Only 2 left in stock"), http.StatusUnprocessableEntity, "INSUFFICIENT_STOCK", 0},
		{"field validation", fieldErrs, http.StatusBadRequest, "VALIDATION_ERROR", 2},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &BaseHandler{}
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			h.HandleError(c, tt.err)

			assert.Equal(t, tt.expectedCode, w.Code)
			resp := decodeResponse(t, w)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.expectedErr, resp.Error.Code)
			assert.Len(t, resp.Error.Details, tt.details)
		})
	}
}

func TestBaseHandlerHandleError_HidesInternalMessage(t *testing.T) {
	h := &BaseHandler{}
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	h.HandleError(c, errors.New("pq: password authentication failed"))

	resp := decodeResponse(t, w)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "An unexpected error occurred", resp.Error.Message)
}

func TestBaseHandlerBindJSON(t *testing.T) {
	type payload struct {
		Name string `json:"name" binding:"required"`
	}
	h := &BaseHandler{}

	t.Run("valid", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodPost, "/", jsonBody(`{"name":"lamp"}`))
		c.Request.Header.Set("Content-Type", "application/json")

		var p payload
		assert.True(t, h.BindJSON(c, &p))
		assert.Equal(t, "lamp", p.Name)
	})

	t.Run("missing field", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodPost, "/", jsonBody(`{}`))
		c.Request.Header.Set("Content-Type", "application/json")

		var p payload
		assert.False(t, h.BindJSON(c, &p))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		resp := decodeResponse(t, w)
		assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
	})

	t.Run("malformed", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodPost, "/", jsonBody(`{"name":`))
		c.Request.Header.Set("Content-Type", "application/json")

		var p payload
		assert.False(t, h.BindJSON(c, &p))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeBadRequest, decodeResponse(t, w).Error.Code)
	})
}
