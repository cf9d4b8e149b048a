package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ateliercarvalho/atelier/internal/session"
	"github.com/ateliercarvalho/atelier/pkg/logging"
)

type stubAuth struct {
	result *session.AuthResult
}

func (s *stubAuth) Login(context.Context, session.Credentials) (*session.AuthResult, error) {
	return s.result, nil
}

func (s *stubAuth) Logout(context.Context, string) error { return nil }

func newTestSessions(store session.Store) *Sessions {
	return NewSessions(SessionConfig{
		Store:    store,
		Customer: &stubAuth{result: &session.AuthResult{User: session.User{ID: "1", Name: "Maria Silva"}, Token: "customer-token"}},
		Admin:    &stubAuth{},
		Cookie:   "sid",
		TTL:      time.Hour,
		Logger:   logging.Discard(),
	})
}

func storeAdmin(t *testing.T, storage session.Storage, role string) {
	t.Helper()
	payload, err := json.Marshal(session.User{ID: "42", Name: "Ana", Role: role})
	require.NoError(t, err)
	require.NoError(t, storage.Set(context.Background(), "admin_token", "admin-token"))
	require.NoError(t, storage.Set(context.Background(), "admin_user", string(payload)))
}

func TestSessions_IssuesCookieAndAttachesManagers(t *testing.T) {
	s := newTestSessions(session.NewMemoryStore())
	var customer, admin *session.Manager
	h := s.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		customer = session.FromContext(r.Context(), session.CustomerDomain)
		admin = session.FromContext(r.Context(), session.AdminDomain)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/services", nil))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "sid", cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)
	assert.Equal(t, 3600, cookies[0].MaxAge)
	require.NotNil(t, customer)
	require.NotNil(t, admin)
	assert.False(t, customer.IsAuthenticated())
	assert.Equal(t, "admin", admin.Domain().Name)
}

func TestSessions_LoginSurvivesAcrossRequests(t *testing.T) {
	store := session.NewMemoryStore()
	login := newTestSessions(store).Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m := session.FromContext(r.Context(), session.CustomerDomain)
		_, err := m.Login(r.Context(), session.Credentials{Identifier: "demo@email.com", Password: "123456"})
		assert.NoError(t, err)
	}))
	rec := httptest.NewRecorder()
	login.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/auth/login", nil))
	cookie := rec.Result().Cookies()[0]

	// A second process sharing the store sees the same session.
	var name string
	me := newTestSessions(store).Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if u := session.FromContext(r.Context(), session.CustomerDomain).Current(); u != nil {
			name = u.Name
		}
	}))
	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.AddCookie(cookie)
	rec = httptest.NewRecorder()
	me.ServeHTTP(rec, req)

	assert.Equal(t, "Maria Silva", name)
	assert.Empty(t, rec.Result().Cookies(), "existing session should not be reissued")
}

func TestSessions_ReplacesMalformedCookie(t *testing.T) {
	s := newTestSessions(session.NewMemoryStore())
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "sid", Value: "../../admin"})
	rec := httptest.NewRecorder()

	s.Handler(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})).ServeHTTP(rec, req)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.NotEqual(t, "../../admin", cookies[0].Value)
}

func TestSessions_AnonymousRequestsKeepNothing(t *testing.T) {
	s := newTestSessions(session.NewMemoryStore())
	h := s.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotNil(t, session.FromContext(r.Context(), session.CustomerDomain))
	}))

	for i := 0; i < 50; i++ {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/services", nil))
	}

	assert.Zero(t, s.Len())
}

func TestSessions_KeepsSignedInSession(t *testing.T) {
	store := session.NewMemoryStore()
	s := newTestSessions(store)
	var seen []*session.Manager
	h := s.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, session.FromContext(r.Context(), session.AdminDomain))
	}))

	const sid = "6f1c2a7e-3b5d-4c8e-9f0a-1b2c3d4e5f60"
	storeAdmin(t, store.Scope(sid), "admin")
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/admin/me", nil)
		req.AddCookie(&http.Cookie{Name: "sid", Value: sid})
		h.ServeHTTP(httptest.NewRecorder(), req)
	}

	assert.Equal(t, 1, s.Len())
	require.Len(t, seen, 2)
	assert.Same(t, seen[0], seen[1])
}

func TestSessions_SweepDropsIdleManagers(t *testing.T) {
	s := newTestSessions(session.NewMemoryStore())
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }
	s.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, err := session.FromContext(r.Context(), session.CustomerDomain).
			Login(r.Context(), session.Credentials{Identifier: "demo@email.com", Password: "123456"})
		assert.NoError(t, err)
	})).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/auth/login", nil))

	assert.Equal(t, 1, s.Len())
	assert.Equal(t, 0, s.Sweep())
	now = now.Add(managerIdle + time.Second)
	assert.Equal(t, 1, s.Sweep())
}

func TestRequireAdmin(t *testing.T) {
	const sid = "6f1c2a7e-3b5d-4c8e-9f0a-1b2c3d4e5f60"
	tests := []struct {
		name string
		role string
		want int
	}{
		{"no session", "", http.StatusUnauthorized},
		{"not an admin", "Customer", http.StatusForbidden},
		{"admin", "admin", http.StatusOK},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			store := session.NewMemoryStore()
			if tc.role != "" {
				storeAdmin(t, store.Scope(sid), tc.role)
			}
			h := newTestSessions(store).Handler(RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			})))
			req := httptest.NewRequest(http.MethodGet, "/api/admin/customers", nil)
			req.AddCookie(&http.Cookie{Name: "sid", Value: sid})
			rec := httptest.NewRecorder()

			h.ServeHTTP(rec, req)

			assert.Equal(t, tc.want, rec.Code)
			if tc.want != http.StatusOK {
				assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			}
		})
	}
}

func TestRateLimiter_AllowsBurstThenRejects(t *testing.T) {
	rl := NewRateLimiter(1, 2)
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.Allow("10.0.0.1"))
	assert.True(t, rl.Allow("10.0.0.1"))
	assert.False(t, rl.Allow("10.0.0.1"))
	assert.True(t, rl.Allow("10.0.0.2"), "buckets are per client")

	now = now.Add(time.Second)
	assert.True(t, rl.Allow("10.0.0.1"))

	now = now.Add(limiterIdle + time.Minute)
	assert.Equal(t, 2, rl.Sweep())
}

func TestRateLimit_Returns429(t *testing.T) {
	h := RateLimit(NewRateLimiter(0.001, 1))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	first := httptest.NewRecorder()
	h.ServeHTTP(first, httptest.NewRequest(http.MethodPost, "/api/bookings", nil))
	second := httptest.NewRecorder()
	h.ServeHTTP(second, httptest.NewRequest(http.MethodPost, "/api/bookings", nil))

	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, "1", second.Header().Get("Retry-After"))
	assert.Contains(t, second.Body.String(), `"error"`)
}

func TestRequestLogger_LogsStatusAndRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewWithWriter(&buf, "info")
	h := chimw.RequestID(RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/bookings", nil))

	line := strings.TrimSpace(buf.String())
	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(line), &entry))
	assert.Equal(t, "request completed", entry["msg"])
	assert.Equal(t, float64(http.StatusCreated), entry["status"])
	assert.NotEmpty(t, entry["request_id"])
}
