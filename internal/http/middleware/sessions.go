package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ateliercarvalho/atelier/internal/observability/metrics"
	"github.com/ateliercarvalho/atelier/internal/session"
	"github.com/ateliercarvalho/atelier/pkg/logging"
)

const (
	defaultSessionCookie = "atelier_sid"
	managerIdle          = 30 * time.Minute
)

// SessionConfig wires the Sessions middleware.
type SessionConfig struct {
	Store    session.Store
	Customer session.Authenticator
	Admin    session.Authenticator
	Cookie   string
	TTL      time.Duration
	Secure   bool
	Logger   *logging.Logger
	Metrics  *metrics.AtelierMetrics
}

// Sessions maps the browser's session cookie to its customer and admin
// managers. Managers are kept per session id once either domain is signed
// in, so a login in flight blocks a second one from the same browser.
// Anonymous requests get throwaway managers. Every request re-hydrates from
// the store, which stays the source of truth.
type Sessions struct {
	cfg SessionConfig
	now func() time.Time

	mu      sync.Mutex
	entries map[string]*sessionEntry
}

type sessionEntry struct {
	customer *session.Manager
	admin    *session.Manager
	lastSeen time.Time
}

func NewSessions(cfg SessionConfig) *Sessions {
	if cfg.Store == nil {
		panic("middleware: session store required")
	}
	if cfg.Cookie == "" {
		cfg.Cookie = defaultSessionCookie
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	return &Sessions{
		cfg:     cfg,
		now:     time.Now,
		entries: make(map[string]*sessionEntry),
	}
}

// Handler attaches the hydrated managers to the request context, issuing a
// session cookie when the request has none.
func (s *Sessions) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sid := s.sessionID(w, r)
		entry, kept := s.lookup(sid)
		if !kept {
			entry = s.newEntry(sid)
		}

		ctx := r.Context()
		entry.customer.Hydrate(ctx)
		entry.admin.Hydrate(ctx)
		if !kept && entry.signedIn() {
			if existing := s.keep(sid, entry); existing != entry {
				existing.customer.Hydrate(ctx)
				existing.admin.Hydrate(ctx)
				entry = existing
			}
			kept = true
		}
		ctx = session.WithManager(ctx, entry.customer)
		ctx = session.WithManager(ctx, entry.admin)
		next.ServeHTTP(w, r.WithContext(ctx))

		if !kept && entry.signedIn() {
			s.keep(sid, entry)
		}
	})
}

func (s *Sessions) sessionID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(s.cfg.Cookie); err == nil {
		if id, err := uuid.Parse(c.Value); err == nil {
			return id.String()
		}
	}
	sid := uuid.NewString()
	cookie := &http.Cookie{
		Name:     s.cfg.Cookie,
		Value:    sid,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	if s.cfg.TTL > 0 {
		cookie.MaxAge = int(s.cfg.TTL.Seconds())
	}
	http.SetCookie(w, cookie)
	return sid
}

func (s *Sessions) lookup(sid string) (*sessionEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[sid]
	if ok {
		e.lastSeen = s.now()
	}
	return e, ok
}

func (s *Sessions) newEntry(sid string) *sessionEntry {
	storage := s.cfg.Store.Scope(sid)
	opts := []session.ManagerOption{
		session.WithLogger(s.cfg.Logger.With("session_id", sid)),
		session.WithMetrics(s.cfg.Metrics),
	}
	return &sessionEntry{
		customer: session.NewManager(session.CustomerDomain, storage, s.cfg.Customer, opts...),
		admin:    session.NewManager(session.AdminDomain, storage, s.cfg.Admin, opts...),
	}
}

// keep registers e for sid unless another request already did, and returns
// the registered entry.
func (s *Sessions) keep(sid string, e *sessionEntry) *sessionEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.entries[sid]; ok {
		existing.lastSeen = s.now()
		return existing
	}
	e.lastSeen = s.now()
	s.entries[sid] = e
	return e
}

// Len returns the number of kept sessions.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (e *sessionEntry) signedIn() bool {
	return e.customer.IsAuthenticated() || e.admin.IsAuthenticated()
}

// Sweep drops managers not used for thirty minutes. Their stored keys are
// untouched.
func (s *Sessions) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := s.now().Add(-managerIdle)
	removed := 0
	for sid, e := range s.entries {
		if e.lastSeen.Before(cutoff) && !e.customer.Loading() && !e.admin.Loading() {
			delete(s.entries, sid)
			removed++
		}
	}
	return removed
}

// Run sweeps every interval until ctx is done.
func (s *Sessions) Run(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				s.cfg.Logger.Debug("session managers swept", "removed", n)
			}
		}
	}
}
