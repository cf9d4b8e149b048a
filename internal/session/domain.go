// Package session owns the signed-in identity of a browser session: it
// hydrates it from storage, runs login/register/logout against an
// authenticator and is the only writer of the session keys.
package session

import (
	"context"
	"errors"
	"strings"
	"time"
)

// Domain names one session kind and its two storage keys.
type Domain struct {
	Name     string
	TokenKey string
	UserKey  string
}

var (
	CustomerDomain = Domain{Name: "customer", TokenKey: "auth_token", UserKey: "auth_user"}
	AdminDomain    = Domain{Name: "admin", TokenKey: "admin_token", UserKey: "admin_user"}
)

// RoleAdmin is the role the back office requires.
const RoleAdmin = "Admin"

// User is the signed-in identity as stored with the session.
type User struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
	Role      string `json:"role,omitempty"`
	Avatar    string `json:"avatar,omitempty"`
	CreatedAt string `json:"createdAt,omitempty"`
}

// IsAdmin reports whether the user carries the admin role.
func (u User) IsAdmin() bool {
	return strings.EqualFold(u.Role, RoleAdmin)
}

// Credentials identify a user by email or phone.
type Credentials struct {
	Identifier string `json:"emailOrPhone"`
	Password   string `json:"password"`
}

// Registration is a new customer account.
type Registration struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

// AuthResult is a successful login or registration.
type AuthResult struct {
	User      User
	Token     string
	ExpiresAt time.Time
}

// ProfileUpdate carries the editable profile fields; nil fields are left alone.
type ProfileUpdate struct {
	Name   *string `json:"name,omitempty"`
	Email  *string `json:"email,omitempty"`
	Phone  *string `json:"phone,omitempty"`
	Avatar *string `json:"avatar,omitempty"`
}

// Apply merges the update into u.
func (p ProfileUpdate) Apply(u User) User {
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.Phone != nil {
		u.Phone = *p.Phone
	}
	if p.Avatar != nil {
		u.Avatar = *p.Avatar
	}
	return u
}

// Authenticator verifies credentials against the identity provider.
type Authenticator interface {
	Login(ctx context.Context, creds Credentials) (*AuthResult, error)
	// Logout tells the provider the token is done. Callers treat it as best effort.
	Logout(ctx context.Context, token string) error
}

// Registrar is implemented by authenticators that can create accounts.
type Registrar interface {
	Register(ctx context.Context, reg Registration) (*AuthResult, error)
}

// ProfileUpdater is implemented by authenticators that can save profile edits.
type ProfileUpdater interface {
	UpdateProfile(ctx context.Context, token string, update ProfileUpdate) (*User, error)
}

var (
	// ErrBusy rejects a login or register while another one is running.
	ErrBusy = errors.New("session: another sign-in is in progress")
	// ErrNotAuthenticated is returned by operations that need a session.
	ErrNotAuthenticated = errors.New("session: not authenticated")
	// ErrUnsupported is returned when the authenticator lacks a capability.
	ErrUnsupported = errors.New("session: operation not supported")
)

// Generic messages used when the provider gives none.
const (
	MsgLoginFailed    = "Não foi possível fazer login. Tente novamente."
	MsgRegisterFailed = "Não foi possível criar a conta. Tente novamente."
)

// AuthError is a failed login or registration. Message is safe to show.
type AuthError struct {
	Message string
	Err     error
}

func (e *AuthError) Error() string {
	return "session: " + e.Message
}

func (e *AuthError) Unwrap() error { return e.Err }
