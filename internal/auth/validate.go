// Package auth implements the identity providers behind the customer and
// admin sessions.
package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/ateliercarvalho/atelier/internal/session"
)

const minPasswordLength = 6

var (
	// ErrInvalidRegistration marks registration input rejected before any call.
	ErrInvalidRegistration = errors.New("auth: invalid registration")
	// ErrInvalidToken is returned by the mock directory for tokens it did not
	// issue, or that expired.
	ErrInvalidToken = errors.New("auth: invalid token")
)

const (
	MsgPasswordMismatch   = "As senhas não coincidem"
	MsgPasswordTooShort   = "A senha deve ter pelo menos 6 caracteres"
	MsgInvalidCredentials = "E-mail ou senha incorretos"
	MsgEmailTaken         = "Este e-mail já está cadastrado"
	MsgAdminCredentials   = "Credenciais inválidas"
)

// ValidateRegistration checks the password pair.
func ValidateRegistration(reg session.Registration) error {
	if reg.Password != reg.ConfirmPassword {
		return &session.AuthError{Message: MsgPasswordMismatch, Err: ErrInvalidRegistration}
	}
	if len([]rune(reg.Password)) < minPasswordLength {
		return &session.AuthError{Message: MsgPasswordTooShort, Err: ErrInvalidRegistration}
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func parseExpiry(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}
