package auth

import (
	"context"
	"fmt"

	"github.com/ateliercarvalho/atelier/internal/apiclient"
	"github.com/ateliercarvalho/atelier/internal/session"
)

// RemoteCustomerAuth signs customers in against the atelier backend.
type RemoteCustomerAuth struct {
	client *apiclient.Client
}

func NewRemoteCustomerAuth(client *apiclient.Client) *RemoteCustomerAuth {
	if client == nil {
		panic("auth: api client cannot be nil")
	}
	return &RemoteCustomerAuth{client: client}
}

type customerLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type customerAuthResponse struct {
	User      session.User `json:"user"`
	Token     string       `json:"token"`
	ExpiresAt string       `json:"expiresAt"`
}

func (r customerAuthResponse) result() *session.AuthResult {
	return &session.AuthResult{User: r.User, Token: r.Token, ExpiresAt: parseExpiry(r.ExpiresAt)}
}

func (a *RemoteCustomerAuth) Login(ctx context.Context, creds session.Credentials) (*session.AuthResult, error) {
	var resp customerAuthResponse
	body := customerLoginRequest{Email: normalizeEmail(creds.Identifier), Password: creds.Password}
	if err := a.client.Post(ctx, "/user/login", body, &resp); err != nil {
		return nil, fmt.Errorf("auth: customer login: %w", err)
	}
	return resp.result(), nil
}

func (a *RemoteCustomerAuth) Register(ctx context.Context, reg session.Registration) (*session.AuthResult, error) {
	if err := ValidateRegistration(reg); err != nil {
		return nil, err
	}
	var resp customerAuthResponse
	if err := a.client.Post(ctx, "/user/register", reg, &resp); err != nil {
		return nil, fmt.Errorf("auth: customer register: %w", err)
	}
	return resp.result(), nil
}

// Logout is a no-op: the customer API keeps no server-side session.
func (a *RemoteCustomerAuth) Logout(context.Context, string) error {
	return nil
}

// Profile fetches the signed-in customer.
func (a *RemoteCustomerAuth) Profile(ctx context.Context, token string) (*session.User, error) {
	var user session.User
	if err := a.client.Get(apiclient.WithBearer(ctx, token), "/user/me", nil, &user); err != nil {
		return nil, fmt.Errorf("auth: fetch profile: %w", err)
	}
	return &user, nil
}

func (a *RemoteCustomerAuth) UpdateProfile(ctx context.Context, token string, update session.ProfileUpdate) (*session.User, error) {
	var user session.User
	if err := a.client.Put(apiclient.WithBearer(ctx, token), "/user/me", update, &user); err != nil {
		return nil, fmt.Errorf("auth: update profile: %w", err)
	}
	return &user, nil
}
