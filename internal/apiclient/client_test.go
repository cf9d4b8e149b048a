package apiclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ateliercarvalho/atelier/pkg/logging"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	opts = append([]Option{WithLogger(logging.Discard())}, opts...)
	return New(ts.URL+"/api/", opts...)
}

func TestClient_Get_DecodesAndSendsHeaders(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Fatalf("method = %s, want GET", r.Method)
		}
		if r.URL.Path != "/api/services" {
			t.Fatalf("path = %s", r.URL.Path)
		}
		if r.URL.Query().Get("date") != "2025-03-10" {
			t.Fatalf("date = %s", r.URL.Query().Get("date"))
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok-1" {
			t.Fatalf("authorization = %q", got)
		}
		if got := r.Header.Get("X-Client"); got != "site" {
			t.Fatalf("x-client = %q", got)
		}
		_, _ = w.Write([]byte(`[{"id":"noiva"}]`))
	}, WithTokenSource(func(context.Context) string { return "tok-1" }), WithHeader("X-Client", "site"))

	var out []struct {
		ID string `json:"id"`
	}
	if err := client.Get(context.Background(), "/services", url.Values{"date": {"2025-03-10"}}, &out); err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if len(out) != 1 || out[0].ID != "noiva" {
		t.Fatalf("unexpected payload %#v", out)
	}
}

func TestClient_NoTokenMeansNoAuthorizationHeader(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "" {
			t.Fatalf("expected anonymous request")
		}
		w.WriteHeader(http.StatusNoContent)
	}, WithTokenSource(func(context.Context) string { return "" }))

	if err := client.Post(context.Background(), "/user/logout", nil, nil); err != nil {
		t.Fatalf("Post() error = %v", err)
	}
}

func TestClient_WithBearerOverridesTokenSource(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer pinned" {
			t.Fatalf("authorization = %q", got)
		}
		w.WriteHeader(http.StatusNoContent)
	}, WithTokenSource(func(context.Context) string { return "from-session" }))

	ctx := WithBearer(context.Background(), "pinned")
	if err := client.Post(ctx, "/user/logout", nil, nil); err != nil {
		t.Fatalf("Post() error = %v", err)
	}
}

func TestClient_ErrorMessageFromBody(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"message field", `{"message":"Horário indisponível"}`, "Horário indisponível"},
		{"error field", `{"error":"bad request"}`, "bad request"},
		{"no json", `oops`, "HTTP Error: 409"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusConflict)
				_, _ = w.Write([]byte(tt.body))
			})
			err := client.Get(context.Background(), "/x", nil, nil)
			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected APIError, got %v", err)
			}
			if apiErr.Status != http.StatusConflict || apiErr.Message != tt.want {
				t.Fatalf("got %d %q", apiErr.Status, apiErr.Message)
			}
			if !IsStatus(err, http.StatusConflict) {
				t.Fatalf("IsStatus should match")
			}
		})
	}
}

func TestClient_UnauthorizedRunsInterceptor(t *testing.T) {
	var calls int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}, WithUnauthorizedHandler(func(context.Context) { atomic.AddInt32(&calls, 1) }))

	err := client.Get(context.Background(), "/user/me", nil, nil)
	if !IsUnauthorized(err) {
		t.Fatalf("expected unauthorized error, got %v", err)
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Fatalf("interceptor calls = %d, want 1", calls)
	}
}

func TestClient_ForbiddenDoesNotRunInterceptor(t *testing.T) {
	var calls int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}, WithUnauthorizedHandler(func(context.Context) { atomic.AddInt32(&calls, 1) }))

	_ = client.Get(context.Background(), "/customers", nil, nil)
	if atomic.LoadInt32(&calls) != 0 {
		t.Fatalf("interceptor should not run on 403")
	}
}

func TestClient_TimeoutIsTransportError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}, WithTimeout(20*time.Millisecond))

	err := client.Get(context.Background(), "/slow", nil, nil)
	if !IsTransport(err) {
		t.Fatalf("expected transport error, got %v", err)
	}
	if Message(err, "generic") != "generic" {
		t.Fatalf("transport errors should use the fallback message")
	}
}

func TestMessage(t *testing.T) {
	if got := Message(&APIError{Status: 400, Message: "Email já cadastrado"}, "fallback"); got != "Email já cadastrado" {
		t.Fatalf("got %q", got)
	}
	if got := Message(&APIError{Status: 500, Message: "HTTP Error: 500"}, "fallback"); got != "fallback" {
		t.Fatalf("got %q", got)
	}
}
