package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/storefront/backend/internal/application/auth"
	"github.com/storefront/backend/internal/domain/identity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// setupTestTracer sets up a test tracer provider and returns the span recorder.
func setupTestTracer(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()

	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	t.Cleanup(func() {
		_ = tp.Shutdown(t.Context())
	})

	return sr
}

func findSpan(t *testing.T, sr *tracetest.SpanRecorder, name string) sdktrace.ReadOnlySpan {
	t.Helper()
	for _, span := range sr.Ended() {
		if span.Name() == name {
			return span
		}
	}
	require.Failf(t, "span not found", "no span named %q", name)
	return nil
}

func spanAttr(span sdktrace.ReadOnlySpan, key string) (attribute.Value, bool) {
	for _, kv := range span.Attributes() {
		if string(kv.Key) == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestTracingWithConfig_Disabled(t *testing.T) {
	gin.SetMode(gin.TestMode)
	sr := setupTestTracer(t)

	router := gin.New()
	router.Use(TracingWithConfig(TracingConfig{Enabled: false, ServiceName: "test"}))
	router.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, sr.Ended())
}

func TestTracing_RequestAndSessionAttributes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	sr := setupTestTracer(t)

	session := identity.NewSession(identity.AuthModeDemo)
	require.NoError(t, session.Authenticate(identity.Principal{Subject: "u-1", Username: "demo@example.com"}, nil))

	router := gin.New()
	router.Use(RequestID())
	router.Use(TracingWithConfig(TracingConfig{Enabled: true, ServiceName: "test"}))
	router.Use(func(c *gin.Context) {
		c.Set(SessionKey, &auth.Authenticated{Session: session})
		c.Next()
	})
	router.Use(TracingAttributeInjector())
	router.GET("/cart", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	req.Header.Set(RequestIDHeader, "trace-req-1")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	span := findSpan(t, sr, "GET /cart")

	v, ok := spanAttr(span, "request_id")
	require.True(t, ok)
	assert.Equal(t, "trace-req-1", v.AsString())

	v, ok = spanAttr(span, "session.id")
	require.True(t, ok)
	assert.Equal(t, session.ID, v.AsString())

	v, ok = spanAttr(span, "auth.mode")
	require.True(t, ok)
	assert.Equal(t, "demo", v.AsString())
}

func TestSpanErrorMarker(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		wantError bool
	}{
		{"success", http.StatusOK, false},
		{"unauthorized", http.StatusUnauthorized, true},
		{"upstream failure", http.StatusBadGateway, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gin.SetMode(gin.TestMode)
			sr := setupTestTracer(t)

			router := gin.New()
			router.Use(TracingWithConfig(TracingConfig{Enabled: true, ServiceName: "test"}))
			router.Use(SpanErrorMarker())
			router.GET("/orders", func(c *gin.Context) { c.Status(tt.status) })

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/orders", nil))

			span := findSpan(t, sr, "GET /orders")
			if tt.wantError {
				assert.Equal(t, codes.Error, span.Status().Code)
			} else {
				assert.NotEqual(t, codes.Error, span.Status().Code)
			}
		})
	}
}

func TestTracingAttributeInjector_WithNoSpan(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(TracingAttributeInjector())
	router.Use(SpanErrorMarker())
	router.GET("/test", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	w := httptest.NewRecorder()
	assert.NotPanics(t, func() {
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))
	})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
