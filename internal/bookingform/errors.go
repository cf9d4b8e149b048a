package bookingform

import (
	"errors"
	"fmt"
)

// Customer-facing messages.
const (
	MsgRequiredFields  = "Por favor, preencha todos os campos."
	MsgOtherDressType  = "Por favor, especifique o tipo de vestido."
	MsgInvalidPhone    = "Informe um telefone válido com DDD."
	MsgCompanionsCount = "Informe quantas pessoas irão acompanhar você."
	MsgTimeUnavailable = "Selecione um horário disponível para a data escolhida."
	MsgInvalidDate     = "Selecione uma data válida."
	MsgGenericFailure  = "Ocorreu um erro. Tente novamente."
)

var (
	// ErrSubmitInFlight rejects a second Submit while one is running.
	ErrSubmitInFlight = errors.New("bookingform: submission already in progress")
	// ErrStaleSlots is returned by RefreshSlots when the service or date
	// changed while the fetch was running; the result was discarded.
	ErrStaleSlots = errors.New("bookingform: slot response no longer matches the form")
	// ErrSlotsInert is returned by RefreshSlots before a service and date are chosen.
	ErrSlotsInert = errors.New("bookingform: choose a service and a date first")
	// ErrTimeNotOffered is returned by SetTime for times outside the latest slot set.
	ErrTimeNotOffered = errors.New("bookingform: time is not in the current slot set")
)

// ValidationError names the first field that blocked submission.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("bookingform: %s: %s", e.Field, e.Message)
}

// SubmitError wraps a failed backend call. Message is safe to show.
type SubmitError struct {
	Message string
	Err     error
}

func (e *SubmitError) Error() string {
	return "bookingform: submit: " + e.Err.Error()
}

func (e *SubmitError) Unwrap() error { return e.Err }
