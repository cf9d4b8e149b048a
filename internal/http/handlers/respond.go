// Package handlers implements the JSON API served to the website and the
// admin panel.
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/ateliercarvalho/atelier/internal/admin"
	"github.com/ateliercarvalho/atelier/internal/apiclient"
	"github.com/ateliercarvalho/atelier/internal/auth"
	"github.com/ateliercarvalho/atelier/internal/availability"
	"github.com/ateliercarvalho/atelier/internal/booking"
	"github.com/ateliercarvalho/atelier/internal/bookingform"
	"github.com/ateliercarvalho/atelier/internal/session"
	"github.com/ateliercarvalho/atelier/pkg/logging"
)

const maxBodyBytes = 1 << 20

// User-facing messages shared by several handlers.
const (
	MsgGeneric         = "Ocorreu um erro. Tente novamente."
	MsgSessionExpired  = "Sessão expirada. Faça login novamente."
	MsgInvalidBody     = "Requisição inválida."
	MsgNotFound        = "Não encontrado."
	MsgBusy            = "Aguarde, a operação anterior ainda está em andamento."
	MsgMissingParams   = "Parâmetros obrigatórios ausentes."
	MsgSlotUnavailable = "Este horário não está mais disponível."
)

// errorResponse is the body of every non-2xx answer.
type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

func writeFieldError(w http.ResponseWriter, field, message string) {
	writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: message, Field: field})
}

// decodeJSON reads a JSON body into v. It answers 400 itself and returns
// false when the body is unreadable.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, MsgInvalidBody)
		return false
	}
	return true
}

// respondError maps err onto the error taxonomy: validation problems are
// 422 with the offending field, authentication problems 401, upstream and
// network failures 502 with one generic retryable message.
func respondError(w http.ResponseWriter, logger *logging.Logger, err error, op string) {
	var (
		formErr   *bookingform.ValidationError
		adminErr  *admin.ValidationError
		submitErr *bookingform.SubmitError
		authErr   *session.AuthError
		apiErr    *apiclient.APIError
	)
	switch {
	case errors.As(err, &formErr):
		writeFieldError(w, formErr.Field, formErr.Message)
	case errors.As(err, &adminErr):
		writeFieldError(w, adminErr.Field, adminErr.Message)
	case errors.As(err, &authErr) && errors.Is(err, auth.ErrInvalidRegistration):
		writeFieldError(w, "password", authErr.Message)
	case errors.As(err, &authErr):
		writeError(w, http.StatusUnauthorized, authErr.Message)
	case errors.Is(err, session.ErrNotAuthenticated), apiclient.IsUnauthorized(err):
		writeError(w, http.StatusUnauthorized, MsgSessionExpired)
	case errors.Is(err, session.ErrBusy),
		errors.Is(err, bookingform.ErrSubmitInFlight),
		errors.Is(err, admin.ErrWizardBusy):
		writeError(w, http.StatusConflict, MsgBusy)
	case errors.Is(err, booking.ErrSlotUnavailable):
		writeError(w, http.StatusConflict, MsgSlotUnavailable)
	case errors.Is(err, availability.ErrInert):
		writeError(w, http.StatusBadRequest, MsgMissingParams)
	case errors.Is(err, booking.ErrInvalidDate):
		writeFieldError(w, "date", bookingform.MsgInvalidDate)
	case errors.Is(err, booking.ErrServiceNotFound), apiclient.IsStatus(err, http.StatusNotFound):
		writeError(w, http.StatusNotFound, MsgNotFound)
	case errors.Is(err, session.ErrUnsupported):
		writeError(w, http.StatusNotImplemented, MsgGeneric)
	case errors.As(err, &submitErr):
		logger.Warn("upstream call failed", "op", op, "error", err)
		writeError(w, http.StatusBadGateway, submitErr.Message)
	case errors.As(err, &apiErr), apiclient.IsTransport(err):
		logger.Warn("upstream call failed", "op", op, "error", err)
		writeError(w, http.StatusBadGateway, MsgGeneric)
	default:
		logger.Error("request failed", "op", op, "error", err)
		writeError(w, http.StatusInternalServerError, MsgGeneric)
	}
}
