package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/ateliercarvalho/atelier/internal/apiclient"
	"github.com/ateliercarvalho/atelier/internal/auth"
	"github.com/ateliercarvalho/atelier/internal/session"
	"github.com/ateliercarvalho/atelier/pkg/logging"
)

// ProfileSource reads the signed-in customer's profile from the provider.
type ProfileSource interface {
	Profile(ctx context.Context, token string) (*session.User, error)
}

// AdminProfileSource reads the signed-in staff member from the admin API.
type AdminProfileSource interface {
	Me(ctx context.Context) (*session.User, error)
}

// AuthHandler serves login, registration, logout and profile for customers
// and for staff. Every session change goes through the request's manager.
type AuthHandler struct {
	profiles      ProfileSource
	adminProfiles AdminProfileSource
	logger        *logging.Logger
}

func NewAuthHandler(profiles ProfileSource, adminProfiles AdminProfileSource, logger *logging.Logger) *AuthHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &AuthHandler{profiles: profiles, adminProfiles: adminProfiles, logger: logger}
}

type userResponse struct {
	User *session.User `json:"user"`
}

// loginRequest accepts the website's {email} and the admin panel's
// {emailOrPhone} shapes.
type loginRequest struct {
	Email        string `json:"email"`
	EmailOrPhone string `json:"emailOrPhone"`
	Password     string `json:"password"`
}

func (r loginRequest) credentials() session.Credentials {
	id := strings.TrimSpace(r.EmailOrPhone)
	if id == "" {
		id = strings.TrimSpace(r.Email)
	}
	return session.Credentials{Identifier: id, Password: r.Password}
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	h.login(w, r, session.CustomerDomain)
}

// AdminLogin handles POST /api/admin/login.
func (h *AuthHandler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	h.login(w, r, session.AdminDomain)
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request, domain session.Domain) {
	m := h.manager(w, r, domain)
	if m == nil {
		return
	}
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	creds := req.credentials()
	if creds.Identifier == "" || creds.Password == "" {
		writeFieldError(w, "email", "Informe e-mail e senha.")
		return
	}
	user, err := m.Login(r.Context(), creds)
	if err != nil {
		respondError(w, h.logger, err, domain.Name+" login")
		return
	}
	writeJSON(w, http.StatusOK, userResponse{User: user})
}

// Register handles POST /api/auth/register. The password pair is checked
// before the provider is called.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	m := h.manager(w, r, session.CustomerDomain)
	if m == nil {
		return
	}
	var reg session.Registration
	if !decodeJSON(w, r, &reg) {
		return
	}
	if strings.TrimSpace(reg.Name) == "" || strings.TrimSpace(reg.Email) == "" {
		writeFieldError(w, "name", "Informe nome e e-mail.")
		return
	}
	if err := auth.ValidateRegistration(reg); err != nil {
		respondError(w, h.logger, err, "register")
		return
	}
	user, err := m.Register(r.Context(), reg)
	var authErr *session.AuthError
	switch {
	case errors.As(err, &authErr):
		writeError(w, http.StatusBadRequest, authErr.Message)
		return
	case err != nil:
		respondError(w, h.logger, err, "register")
		return
	}
	writeJSON(w, http.StatusCreated, userResponse{User: user})
}

// Logout handles POST /api/auth/logout. It always succeeds.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if m := session.FromContext(r.Context(), session.CustomerDomain); m != nil {
		m.Logout(r.Context())
	}
	w.WriteHeader(http.StatusNoContent)
}

// AdminLogout handles POST /api/admin/logout. It always succeeds.
func (h *AuthHandler) AdminLogout(w http.ResponseWriter, r *http.Request) {
	if m := session.FromContext(r.Context(), session.AdminDomain); m != nil {
		m.Logout(r.Context())
	}
	w.WriteHeader(http.StatusNoContent)
}

// Me handles GET /api/auth/me. The profile is re-read from the provider when
// one is configured; a rejected token signs the customer out.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	m := h.signedIn(w, r, session.CustomerDomain)
	if m == nil {
		return
	}
	user := m.Current()
	if h.profiles != nil {
		fresh, err := h.profiles.Profile(r.Context(), m.Token())
		switch {
		case apiclient.IsUnauthorized(err), errors.Is(err, auth.ErrInvalidToken):
			if m.IsAuthenticated() {
				m.Expire(r.Context())
			}
			writeError(w, http.StatusUnauthorized, MsgSessionExpired)
			return
		case err != nil:
			h.logger.Warn("profile refresh failed, serving stored user", "error", err)
		default:
			user = fresh
		}
	}
	writeJSON(w, http.StatusOK, userResponse{User: user})
}

// UpdateMe handles PUT /api/auth/me.
func (h *AuthHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	m := h.signedIn(w, r, session.CustomerDomain)
	if m == nil {
		return
	}
	var update session.ProfileUpdate
	if !decodeJSON(w, r, &update) {
		return
	}
	if update.Name != nil && strings.TrimSpace(*update.Name) == "" {
		writeFieldError(w, "name", "Informe seu nome.")
		return
	}
	user, err := m.UpdateUser(r.Context(), update)
	if errors.Is(err, auth.ErrInvalidToken) {
		m.Expire(r.Context())
		writeError(w, http.StatusUnauthorized, MsgSessionExpired)
		return
	}
	if err != nil {
		respondError(w, h.logger, err, "update profile")
		return
	}
	writeJSON(w, http.StatusOK, userResponse{User: user})
}

// AdminMe handles GET /api/admin/me. The admin API is asked so an expired
// token is noticed here; its 401 clears the admin session.
func (h *AuthHandler) AdminMe(w http.ResponseWriter, r *http.Request) {
	m := h.signedIn(w, r, session.AdminDomain)
	if m == nil {
		return
	}
	if h.adminProfiles == nil {
		writeJSON(w, http.StatusOK, userResponse{User: m.Current()})
		return
	}
	user, err := h.adminProfiles.Me(r.Context())
	if err != nil {
		respondError(w, h.logger, err, "admin me")
		return
	}
	writeJSON(w, http.StatusOK, userResponse{User: user})
}

func (h *AuthHandler) manager(w http.ResponseWriter, r *http.Request, domain session.Domain) *session.Manager {
	m := session.FromContext(r.Context(), domain)
	if m == nil {
		h.logger.Error("no session manager in request context", "domain", domain.Name)
		writeError(w, http.StatusInternalServerError, MsgGeneric)
	}
	return m
}

func (h *AuthHandler) signedIn(w http.ResponseWriter, r *http.Request, domain session.Domain) *session.Manager {
	m := session.FromContext(r.Context(), domain)
	if m == nil || !m.IsAuthenticated() {
		writeError(w, http.StatusUnauthorized, MsgSessionExpired)
		return nil
	}
	return m
}
