package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ateliercarvalho/atelier/internal/apiclient"
	"github.com/ateliercarvalho/atelier/internal/observability/metrics"
	"github.com/ateliercarvalho/atelier/pkg/logging"
	"github.com/golang-jwt/jwt/v5"
)

const logoutTimeout = 5 * time.Second

// Manager holds one session domain for one browser session.
type Manager struct {
	domain  Domain
	storage Storage
	auth    Authenticator
	logger  *logging.Logger
	metrics *metrics.AtelierMetrics
	now     func() time.Time

	mu      sync.Mutex
	user    *User
	token   string
	loading bool
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

func WithLogger(logger *logging.Logger) ManagerOption {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

func WithMetrics(mt *metrics.AtelierMetrics) ManagerOption {
	return func(m *Manager) { m.metrics = mt }
}

func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) { m.now = now }
}

// NewManager builds an unauthenticated manager. Call Hydrate to restore a
// stored session.
func NewManager(domain Domain, storage Storage, auth Authenticator, opts ...ManagerOption) *Manager {
	m := &Manager{
		domain:  domain,
		storage: storage,
		auth:    auth,
		logger:  logging.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Domain returns the session kind this manager owns.
func (m *Manager) Domain() Domain { return m.domain }

// Hydrate syncs the in-memory session with storage. Missing, partial,
// corrupt or expired data leaves the manager signed out and is removed; it is
// never an error for the caller. It does nothing while a login or register
// is in flight.
func (m *Manager) Hydrate(ctx context.Context) {
	if m.Loading() {
		return
	}
	token, hasToken, err := m.storage.Get(ctx, m.domain.TokenKey)
	if err != nil {
		m.logger.Warn("session hydrate failed", "domain", m.domain.Name, "error", err)
		return
	}
	raw, hasUser, err := m.storage.Get(ctx, m.domain.UserKey)
	if err != nil {
		m.logger.Warn("session hydrate failed", "domain", m.domain.Name, "error", err)
		return
	}
	if !hasToken && !hasUser {
		m.reset()
		return
	}

	var user User
	switch {
	case !hasToken || !hasUser || strings.TrimSpace(token) == "":
		m.discard(ctx, "partial")
		return
	case json.Unmarshal([]byte(raw), &user) != nil || user.ID == "":
		m.discard(ctx, "corrupt")
		return
	case tokenExpired(token, m.now()):
		m.discard(ctx, "expired")
		return
	}

	m.mu.Lock()
	m.user = &user
	m.token = token
	m.mu.Unlock()
}

// Login signs in and persists the session. On failure the previous session,
// if any, is left as it was.
func (m *Manager) Login(ctx context.Context, creds Credentials) (*User, error) {
	if err := m.begin(); err != nil {
		return nil, err
	}
	defer m.end()

	res, err := m.auth.Login(detach(ctx, m.domain), creds)
	if err != nil {
		m.logger.Info("login failed", "domain", m.domain.Name, "error", err)
		return nil, &AuthError{Message: apiclient.Message(err, loginMessage(err)), Err: err}
	}
	if err := m.establish(ctx, res); err != nil {
		return nil, err
	}
	m.logger.Info("login succeeded", "domain", m.domain.Name, "user_id", res.User.ID)
	u := res.User
	return &u, nil
}

// Register creates an account and signs it in.
func (m *Manager) Register(ctx context.Context, reg Registration) (*User, error) {
	registrar, ok := m.auth.(Registrar)
	if !ok {
		return nil, ErrUnsupported
	}
	if err := m.begin(); err != nil {
		return nil, err
	}
	defer m.end()

	res, err := registrar.Register(detach(ctx, m.domain), reg)
	if err != nil {
		m.logger.Info("registration failed", "domain", m.domain.Name, "error", err)
		return nil, &AuthError{Message: apiclient.Message(err, registerMessage(err)), Err: err}
	}
	if err := m.establish(ctx, res); err != nil {
		return nil, err
	}
	m.logger.Info("registration succeeded", "domain", m.domain.Name, "user_id", res.User.ID)
	u := res.User
	return &u, nil
}

// Logout tells the provider (best effort) and then clears the session. It
// never fails.
func (m *Manager) Logout(ctx context.Context) {
	m.mu.Lock()
	token := m.token
	m.mu.Unlock()

	if token != "" && m.auth != nil {
		callCtx, cancel := context.WithTimeout(detach(context.WithoutCancel(ctx), m.domain), logoutTimeout)
		if err := m.auth.Logout(callCtx, token); err != nil {
			m.logger.Warn("server logout failed", "domain", m.domain.Name, "error", err)
		}
		cancel()
	}
	m.clear(ctx, "logout")
}

// Expire clears the session after the backend rejected its token.
func (m *Manager) Expire(ctx context.Context) {
	m.clear(ctx, "unauthorized")
}

// Current returns a copy of the signed-in user, or nil.
func (m *Manager) Current() *User {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.user == nil {
		return nil
	}
	u := *m.user
	return &u
}

// Token returns the bearer token, or "".
func (m *Manager) Token() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token
}

func (m *Manager) IsAuthenticated() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.user != nil && m.token != ""
}

func (m *Manager) IsAdmin() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.user != nil && m.token != "" && m.user.IsAdmin()
}

// Loading reports whether a login or register is running.
func (m *Manager) Loading() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loading
}

// UpdateUser saves profile edits with the provider when it supports it,
// then merges them into the stored user.
func (m *Manager) UpdateUser(ctx context.Context, update ProfileUpdate) (*User, error) {
	m.mu.Lock()
	if m.user == nil {
		m.mu.Unlock()
		return nil, ErrNotAuthenticated
	}
	token := m.token
	m.mu.Unlock()

	var saved *User
	if updater, ok := m.auth.(ProfileUpdater); ok {
		u, err := updater.UpdateProfile(ctx, token, update)
		if err != nil {
			return nil, fmt.Errorf("session: update profile: %w", err)
		}
		saved = u
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.user == nil || m.token != token {
		return nil, ErrNotAuthenticated
	}
	next := update.Apply(*m.user)
	if saved != nil {
		next = *saved
	}
	payload, err := json.Marshal(next)
	if err != nil {
		return nil, fmt.Errorf("session: encode user: %w", err)
	}
	if err := m.storage.Set(ctx, m.domain.UserKey, string(payload)); err != nil {
		return nil, err
	}
	m.user = &next
	out := next
	return &out, nil
}

func (m *Manager) begin() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loading {
		return ErrBusy
	}
	m.loading = true
	return nil
}

func (m *Manager) end() {
	m.mu.Lock()
	m.loading = false
	m.mu.Unlock()
}

// establish persists both keys and then swaps the in-memory session.
func (m *Manager) establish(ctx context.Context, res *AuthResult) error {
	if res == nil || res.Token == "" {
		return &AuthError{Message: MsgLoginFailed, Err: errors.New("empty token")}
	}
	payload, err := json.Marshal(res.User)
	if err != nil {
		return fmt.Errorf("session: encode user: %w", err)
	}
	if err := m.storage.Set(ctx, m.domain.TokenKey, res.Token); err != nil {
		return err
	}
	if err := m.storage.Set(ctx, m.domain.UserKey, string(payload)); err != nil {
		_ = m.storage.Delete(ctx, m.domain.TokenKey)
		return err
	}
	user := res.User
	m.mu.Lock()
	m.user = &user
	m.token = res.Token
	m.mu.Unlock()
	return nil
}

func (m *Manager) clear(ctx context.Context, reason string) {
	m.reset()

	if err := m.storage.Delete(context.WithoutCancel(ctx), m.domain.TokenKey, m.domain.UserKey); err != nil {
		m.logger.Error("failed to clear session keys", "domain", m.domain.Name, "reason", reason, "error", err)
	}
	m.metrics.ObserveTeardown(m.domain.Name, reason)
	m.logger.Info("session cleared", "domain", m.domain.Name, "reason", reason)
}

func (m *Manager) reset() {
	m.mu.Lock()
	m.user = nil
	m.token = ""
	m.mu.Unlock()
}

func (m *Manager) discard(ctx context.Context, reason string) {
	m.reset()
	m.logger.Warn("discarding stored session", "domain", m.domain.Name, "reason", reason)
	if err := m.storage.Delete(ctx, m.domain.TokenKey, m.domain.UserKey); err != nil {
		m.logger.Warn("failed to remove stored session", "domain", m.domain.Name, "error", err)
	}
}

// tokenExpired reports whether token is a JWT whose exp claim has passed.
// Opaque tokens never expire here; the backend decides.
func tokenExpired(token string, now time.Time) bool {
	claims := jwt.RegisteredClaims{}
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	if _, _, err := parser.ParseUnverified(token, &claims); err != nil {
		return false
	}
	return claims.ExpiresAt != nil && !claims.ExpiresAt.After(now)
}

func loginMessage(err error) string {
	var authErr *AuthError
	if errors.As(err, &authErr) && authErr.Message != "" {
		return authErr.Message
	}
	return MsgLoginFailed
}

func registerMessage(err error) string {
	var authErr *AuthError
	if errors.As(err, &authErr) && authErr.Message != "" {
		return authErr.Message
	}
	return MsgRegisterFailed
}
