package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ateliercarvalho/atelier/internal/session"
	"github.com/ateliercarvalho/atelier/pkg/logging"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	DemoEmail    = "demo@email.com"
	DemoPassword = "123456"

	defaultTokenTTL = 24 * time.Hour
	mockIssuer      = "atelier-mock"
)

// Claims are carried by tokens issued in offline mode.
type Claims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	jwt.RegisteredClaims
}

type mockAccount struct {
	user session.User
	hash []byte
}

// MockCustomerAuth is an in-memory customer directory that issues signed
// tokens. It backs offline mode.
type MockCustomerAuth struct {
	secret []byte
	ttl    time.Duration
	cost   int
	now    func() time.Time
	logger *logging.Logger

	mu       sync.RWMutex
	accounts map[string]*mockAccount
}

type MockOption func(*MockCustomerAuth)

func WithTokenTTL(ttl time.Duration) MockOption {
	return func(m *MockCustomerAuth) {
		if ttl > 0 {
			m.ttl = ttl
		}
	}
}

// WithBcryptCost lowers the hashing cost, for tests.
func WithBcryptCost(cost int) MockOption {
	return func(m *MockCustomerAuth) { m.cost = cost }
}

func WithClock(now func() time.Time) MockOption {
	return func(m *MockCustomerAuth) { m.now = now }
}

func WithLogger(logger *logging.Logger) MockOption {
	return func(m *MockCustomerAuth) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewMockCustomerAuth builds the directory seeded with the demo customer.
func NewMockCustomerAuth(secret string, opts ...MockOption) (*MockCustomerAuth, error) {
	if secret == "" {
		return nil, errors.New("auth: mock token secret is required")
	}
	m := &MockCustomerAuth{
		secret:   []byte(secret),
		ttl:      defaultTokenTTL,
		cost:     bcrypt.DefaultCost,
		now:      time.Now,
		logger:   logging.Default(),
		accounts: make(map[string]*mockAccount),
	}
	for _, opt := range opts {
		opt(m)
	}

	demo := session.User{
		ID:        "1",
		Name:      "Maria Silva",
		Email:     DemoEmail,
		Phone:     "(11) 99999-9999",
		CreatedAt: m.now().UTC().Format(time.RFC3339),
	}
	if err := m.add(demo, DemoPassword); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *MockCustomerAuth) add(user session.User, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), m.cost)
	if err != nil {
		return fmt.Errorf("auth: hash password: %w", err)
	}
	m.accounts[normalizeEmail(user.Email)] = &mockAccount{user: user, hash: hash}
	return nil
}

func (m *MockCustomerAuth) Login(_ context.Context, creds session.Credentials) (*session.AuthResult, error) {
	m.mu.RLock()
	account, ok := m.accounts[normalizeEmail(creds.Identifier)]
	m.mu.RUnlock()
	if !ok || bcrypt.CompareHashAndPassword(account.hash, []byte(creds.Password)) != nil {
		return nil, &session.AuthError{Message: MsgInvalidCredentials}
	}
	return m.issue(account.user)
}

func (m *MockCustomerAuth) Register(_ context.Context, reg session.Registration) (*session.AuthResult, error) {
	if err := ValidateRegistration(reg); err != nil {
		return nil, err
	}
	email := normalizeEmail(reg.Email)

	m.mu.Lock()
	if _, exists := m.accounts[email]; exists {
		m.mu.Unlock()
		return nil, &session.AuthError{Message: MsgEmailTaken}
	}
	user := session.User{
		ID:        "user_" + uuid.NewString(),
		Name:      reg.Name,
		Email:     email,
		Phone:     reg.Phone,
		CreatedAt: m.now().UTC().Format(time.RFC3339),
	}
	err := m.add(user, reg.Password)
	m.mu.Unlock()
	if err != nil {
		return nil, err
	}

	m.logger.Info("mock customer registered", "user_id", user.ID)
	return m.issue(user)
}

func (m *MockCustomerAuth) Logout(context.Context, string) error {
	return nil
}

// Verify parses a token issued by this directory.
func (m *MockCustomerAuth) Verify(token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now), jwt.WithIssuer(mockIssuer))
	if err != nil || !parsed.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return claims, nil
}

func (m *MockCustomerAuth) Profile(_ context.Context, token string) (*session.User, error) {
	account, err := m.accountFor(token)
	if err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	u := account.user
	return &u, nil
}

func (m *MockCustomerAuth) UpdateProfile(_ context.Context, token string, update session.ProfileUpdate) (*session.User, error) {
	account, err := m.accountFor(token)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	next := update.Apply(account.user)
	next.Email = account.user.Email
	account.user = next
	return &next, nil
}

func (m *MockCustomerAuth) accountFor(token string) (*mockAccount, error) {
	claims, err := m.Verify(token)
	if err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	account, ok := m.accounts[normalizeEmail(claims.Email)]
	if !ok || account.user.ID != claims.Subject {
		return nil, fmt.Errorf("%w: unknown account", ErrInvalidToken)
	}
	return account, nil
}

func (m *MockCustomerAuth) issue(user session.User) (*session.AuthResult, error) {
	now := m.now()
	expires := now.Add(m.ttl)
	claims := Claims{
		Email: user.Email,
		Name:  user.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    mockIssuer,
			Subject:   user.ID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return nil, fmt.Errorf("auth: sign token: %w", err)
	}
	return &session.AuthResult{User: user, Token: signed, ExpiresAt: expires}, nil
}
