package auth

import (
	"context"
	"fmt"

	"github.com/ateliercarvalho/atelier/internal/apiclient"
	"github.com/ateliercarvalho/atelier/internal/session"
)

// AdminAuth signs back-office staff in against the admin API.
type AdminAuth struct {
	client *apiclient.Client
}

func NewAdminAuth(client *apiclient.Client) *AdminAuth {
	if client == nil {
		panic("auth: admin api client cannot be nil")
	}
	return &AdminAuth{client: client}
}

type adminLoginResponse struct {
	Token     string `json:"token"`
	TokenType string `json:"tokenType"`
	UserID    string `json:"userId"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	ExpiresAt string `json:"expiresAt"`
}

// adminUser is the /user/me payload.
type adminUser struct {
	UserID string `json:"userId"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}

func (u adminUser) sessionUser() session.User {
	return session.User{ID: u.UserID, Name: u.Name, Email: u.Email, Role: u.Role}
}

func (a *AdminAuth) Login(ctx context.Context, creds session.Credentials) (*session.AuthResult, error) {
	var resp adminLoginResponse
	if err := a.client.Post(ctx, "/user/login", creds, &resp); err != nil {
		return nil, &session.AuthError{
			Message: apiclient.Message(err, MsgAdminCredentials),
			Err:     fmt.Errorf("auth: admin login: %w", err),
		}
	}
	user := adminUser{UserID: resp.UserID, Name: resp.Name, Email: resp.Email, Role: resp.Role}
	return &session.AuthResult{
		User:      user.sessionUser(),
		Token:     resp.Token,
		ExpiresAt: parseExpiry(resp.ExpiresAt),
	}, nil
}

func (a *AdminAuth) Logout(ctx context.Context, token string) error {
	if err := a.client.Post(apiclient.WithBearer(ctx, token), "/user/logout", nil, nil); err != nil {
		return fmt.Errorf("auth: admin logout: %w", err)
	}
	return nil
}

// Me fetches the signed-in staff member.
func (a *AdminAuth) Me(ctx context.Context) (*session.User, error) {
	var u adminUser
	if err := a.client.Get(ctx, "/user/me", nil, &u); err != nil {
		return nil, fmt.Errorf("auth: admin me: %w", err)
	}
	user := u.sessionUser()
	return &user, nil
}
