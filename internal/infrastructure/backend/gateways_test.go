package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/identity"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/purchase"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestProductGateway_List(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/products", r.URL.Path)
		assert.Equal(t, "Fruits", r.URL.Query().Get("category"))
		assert.Equal(t, "1.5", r.URL.Query().Get("minPrice"))
		assert.Equal(t, "", r.URL.Query().Get("maxPrice"))
		assert.Equal(t, "apple", r.URL.Query().Get("search"))
		writeJSON(w, http.StatusOK, []map[string]any{
			{"id": 7, "name": "Fresh Apples", "description": "Crisp", "price": 2.49, "availableQuantity": 12, "category": "Fruits"},
		})
	})

	minPrice := decimal.RequireFromString("1.5")
	products, err := NewProductGateway(c).List(context.Background(), "", catalog.Filter{
		Category: "Fruits",
		MinPrice: &minPrice,
		Search:   "apple",
	})
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "7", products[0].ID)
	assert.Equal(t, 12, products[0].Stock)
	assert.True(t, products[0].Price.Equal(decimal.RequireFromString("2.49")))
	assert.Equal(t, catalog.ImageFor("Fresh Apples"), products[0].Image)
}

func TestProductGateway_List_AllCategoriesOmitsFilter(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.URL.RawQuery)
		writeJSON(w, http.StatusOK, []any{})
	})

	products, err := NewProductGateway(c).List(context.Background(), "", catalog.Filter{Category: catalog.AllCategories})
	require.NoError(t, err)
	assert.Empty(t, products)
}

func TestProductGateway_Get_NotFound(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Product not found"})
	})

	_, err := NewProductGateway(c).Get(context.Background(), "", "99")
	assert.ErrorIs(t, err, shared.ErrNotFound)
	assert.Equal(t, "Product not found", err.Error())
}

func TestProductGateway_Update_SendsOnlyPatchedFields(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "Bearer admin", r.Header.Get("Authorization"))
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]any{"price": 3.5}, body)
		writeJSON(w, http.StatusOK, map[string]any{"id": "p1", "name": "Milk", "price": 3.5})
	})

	price := decimal.RequireFromString("3.50")
	p, err := NewProductGateway(c).Update(context.Background(), "admin", "p1", catalog.ProductPatch{Price: &price})
	require.NoError(t, err)
	assert.Equal(t, "Milk", p.Name)
}

func TestCartGateway_Lines(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"userId": 1,
			"items":  []map[string]any{{"productId": 3, "quantity": 2}},
		})
	})

	lines, err := NewCartGateway(c).Lines(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, []cart.RemoteLine{{ProductID: "3", Quantity: 2}}, lines)
}

func TestCartGateway_Mutations(t *testing.T) {
	var calls []string
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.Method+" "+r.URL.Path)
		if r.Method == http.MethodPost {
			var body cartLineDTO
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, cartLineDTO{ProductID: "3", Quantity: 1}, body)
		}
		w.WriteHeader(http.StatusOK)
	})

	g := NewCartGateway(c)
	ctx := context.Background()
	require.NoError(t, g.AddLine(ctx, "tok", "3", 0))
	require.NoError(t, g.RemoveLine(ctx, "tok", "3"))
	require.NoError(t, g.ClearLines(ctx, "tok"))

	assert.Equal(t, []string{
		"POST /api/cart/items",
		"DELETE /api/cart/items/3",
		"DELETE /api/cart/clear",
	}, calls)
}

func TestOrderGateway_Create(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "PENDING", body["status"])
		assert.Equal(t, "u1", body["userId"])
		assert.NotContains(t, body, "createdAt")
		writeJSON(w, http.StatusCreated, map[string]any{
			"id":          101,
			"userId":      "u1",
			"items":       []map[string]any{{"productId": "p1", "quantity": 2, "unitPrice": 2.5}},
			"totalAmount": 5.0,
			"status":      "PENDING",
			"createdAt":   "2026-04-15T09:00:00",
		})
	})

	rec, err := NewOrderGateway(c).Create(context.Background(), "tok", order.Placement{
		UserID:      "u1",
		Lines:       []order.Line{{ProductID: "p1", Quantity: 2, UnitPrice: decimal.RequireFromString("2.5")}},
		TotalAmount: decimal.RequireFromString("5"),
	})
	require.NoError(t, err)
	assert.Equal(t, "101", rec.ID)
	assert.Equal(t, order.BackendPending, rec.Status)
	require.Len(t, rec.Lines, 1)
	assert.Equal(t, 2, rec.Lines[0].Quantity)
	assert.Equal(t, time.Date(2026, 4, 15, 9, 0, 0, 0, time.UTC), rec.CreatedAt)
}

func TestOrderGateway_UpdateStatus(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/orders/5", r.URL.Path)
		var body orderStatusDTO
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, order.BackendCancelled, body.Status)
		writeJSON(w, http.StatusOK, map[string]any{"id": 5, "status": body.Status})
	})

	rec, err := NewOrderGateway(c).UpdateStatus(context.Background(), "tok", "5", order.BackendCancelled)
	require.NoError(t, err)
	assert.Equal(t, order.BackendCancelled, rec.Status)
}

func TestPurchaseGateway_Create(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		var body purchaseRequestDTO
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "2026-04-16", body.PurchaseDate)
		assert.Equal(t, "10AM", body.DeliveryTime)
		writeJSON(w, http.StatusCreated, map[string]any{
			"id":               9,
			"purchaseDate":     "2026-04-16",
			"deliveryTime":     "10AM",
			"deliveryLocation": "Colombo",
			"productName":      body.ProductName,
			"quantity":         body.Quantity,
		})
	})

	p, err := NewPurchaseGateway(c).Create(context.Background(), "tok", purchase.Purchase{
		Username:         "alice",
		PurchaseDate:     time.Date(2026, 4, 16, 0, 0, 0, 0, time.UTC),
		DeliveryTime:     "10:00",
		DeliveryLocation: "Colombo",
		ProductName:      purchase.Products[0],
		Quantity:         3,
	})
	require.NoError(t, err)
	assert.Equal(t, "9", p.ID)
	assert.Equal(t, "alice", p.Username)
	assert.Equal(t, purchase.StatusPending, p.Status)
	assert.Equal(t, "10:00", p.DeliveryTime)
	assert.Equal(t, 16, p.PurchaseDate.Day())
}

func TestPurchaseGateway_ListAll_Forbidden(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/purchases/admin", r.URL.Path)
		w.WriteHeader(http.StatusForbidden)
	})

	_, err := NewPurchaseGateway(c).ListAll(context.Background(), "tok")
	assert.ErrorIs(t, err, shared.ErrForbidden)
}

func TestUserGateway_RegisterIsAnonymous(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		assert.Equal(t, "/api/users/register", r.URL.Path)
		writeJSON(w, http.StatusCreated, map[string]any{"id": 1, "username": "bob", "email": "bob@example.com"})
	})

	p, err := NewUserGateway(c).Register(context.Background(), identity.Registration{Username: "bob"})
	require.NoError(t, err)
	assert.Equal(t, "1", p.ID)
	assert.Equal(t, []string{identity.DefaultRole}, p.Roles)
}

func TestUserGateway_Update(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/users/u1", r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]any{"country": "Sri Lanka"}, body)
		writeJSON(w, http.StatusOK, map[string]any{"id": "u1", "country": "Sri Lanka", "roles": []string{"ADMIN"}})
	})

	country := "Sri Lanka"
	p, err := NewUserGateway(c).Update(context.Background(), "tok", "u1", identity.ProfilePatch{Country: &country})
	require.NoError(t, err)
	assert.Equal(t, []string{"ADMIN"}, p.Roles)
}
