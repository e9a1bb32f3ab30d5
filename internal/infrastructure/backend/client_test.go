package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/storefront/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/", WithHTTPClient(srv.Client()))
}

func TestNewClient_TrimsTrailingSlash(t *testing.T) {
	c := NewClient("http://backend.local:8081///")
	assert.Equal(t, "http://backend.local:8081", c.BaseURL())
	assert.Equal(t, "http://backend.local:8081/api/products", c.url("api/products"))
}

func TestNewClient_TimeoutLeavesSharedClientAlone(t *testing.T) {
	hc := &http.Client{}

	c := NewClient("http://backend.local", WithHTTPClient(hc), WithTimeout(2*time.Second))
	assert.Equal(t, 2*time.Second, c.httpClient.Timeout)
	assert.Zero(t, hc.Timeout)
	assert.NotSame(t, hc, c.httpClient)

	c = NewClient("http://backend.local", WithTimeout(3*time.Second), WithHTTPClient(hc))
	assert.Equal(t, 3*time.Second, c.httpClient.Timeout)
	assert.Zero(t, hc.Timeout)

	c = NewClient("http://backend.local", WithHTTPClient(hc))
	assert.Same(t, hc, c.httpClient)

	c = NewClient("http://backend.local")
	assert.Equal(t, defaultTimeout, c.httpClient.Timeout)
}

func TestClient_Do_SendsBearerOnlyWithToken(t *testing.T) {
	var auth []string
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		auth = append(auth, r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	var out map[string]bool
	require.NoError(t, c.Do(context.Background(), http.MethodGet, "/api/x", "tok-1", nil, &out))
	require.NoError(t, c.Do(context.Background(), http.MethodGet, "/api/x", "", nil, &out))

	assert.Equal(t, []string{"Bearer tok-1", ""}, auth)
	assert.True(t, out["ok"])
}

func TestClient_Do_EncodesBody(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "value", body["key"])
		w.WriteHeader(http.StatusNoContent)
	})

	var out map[string]any
	err := c.Do(context.Background(), http.MethodPost, "/api/x", "", map[string]string{"key": "value"}, &out)
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestClient_Do_ErrorMessages(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		contentType string
		body        string
		want        string
	}{
		{"message field", http.StatusBadRequest, "application/json", `{"message":"Bad price"}`, "Bad price"},
		{"error field", http.StatusNotFound, "application/json", `{"error":"Not here"}`, "Not here"},
		{"plain text", http.StatusInternalServerError, "text/plain", "boom", "boom"},
		{"empty body", http.StatusBadGateway, "", "", "HTTP error! status: 502"},
		{"json without message", http.StatusConflict, "application/json", `{"code":1}`, "HTTP error! status: 409"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				if tt.contentType != "" {
					w.Header().Set("Content-Type", tt.contentType)
				}
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			err := c.Do(context.Background(), http.MethodGet, "/api/x", "", nil, nil)
			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.status, apiErr.Status)
			assert.Equal(t, tt.want, apiErr.Message)
			assert.True(t, IsStatus(err, tt.status))
		})
	}
}

func TestClient_Do_InvalidJSON(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html></html>"))
	})

	var out map[string]any
	err := c.Do(context.Background(), http.MethodGet, "/api/x", "", nil, &out)
	assert.ErrorIs(t, err, ErrInvalidResponse)
}

func TestClient_Do_Unavailable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewClient(url)
	err := c.Do(context.Background(), http.MethodGet, "/api/x", "", nil, nil)
	assert.ErrorIs(t, err, ErrBackendUnavailable)
}

func TestClient_DoText(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("pong"))
	})

	text, err := c.DoText(context.Background(), http.MethodGet, "/ping", "", nil)
	require.NoError(t, err)
	assert.Equal(t, "pong", text)
}

func TestTranslate(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
		wantMsg  string
	}{
		{"bad request", &APIError{Status: 400, Message: "Bad price"}, "INVALID_INPUT", "Bad price"},
		{"unprocessable", &APIError{Status: 422, Message: "nope"}, "INVALID_INPUT", "nope"},
		{"unauthorized", &APIError{Status: 401, Message: "login"}, "UNAUTHORIZED", "login"},
		{"forbidden", &APIError{Status: 403}, "FORBIDDEN", shared.ErrForbidden.Message},
		{"not found", &APIError{Status: 404, Message: "gone"}, "NOT_FOUND", "gone"},
		{"conflict", &APIError{Status: 409, Message: "dup"}, "CONFLICT", "dup"},
		{"server error", &APIError{Status: 500, Message: "stack trace"}, "UPSTREAM_ERROR", shared.ErrUpstream.Message},
		{"unavailable", ErrBackendUnavailable, "UPSTREAM_ERROR", shared.ErrUpstream.Message},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := translate(tt.err)
			var de *shared.DomainError
			require.ErrorAs(t, err, &de)
			assert.Equal(t, tt.wantCode, de.Code)
			assert.Equal(t, tt.wantMsg, de.Message)
		})
	}

	assert.NoError(t, translate(nil))
}

func TestWireID_AcceptsNumbers(t *testing.T) {
	var v struct {
		A wireID `json:"a"`
		B wireID `json:"b"`
		C wireID `json:"c"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":42,"b":"p-1","c":null}`), &v))
	assert.Equal(t, wireID("42"), v.A)
	assert.Equal(t, wireID("p-1"), v.B)
	assert.Equal(t, wireID(""), v.C)
}

func TestWireTime_Layouts(t *testing.T) {
	for _, in := range []string{
		`"2026-04-15T10:30:00Z"`,
		`"2026-04-15T10:30:00.123456"`,
		`"2026-04-15 10:30:00"`,
		`"2026-04-15"`,
	} {
		var wt wireTime
		require.NoError(t, json.Unmarshal([]byte(in), &wt), in)
		assert.Equal(t, 2026, wt.Year(), in)
		assert.Equal(t, 15, wt.Day(), in)
		assert.NotNil(t, wt.ptr())
	}

	var zero wireTime
	require.NoError(t, json.Unmarshal([]byte(`"garbage"`), &zero))
	assert.Nil(t, zero.ptr())
}
