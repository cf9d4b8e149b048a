package admin

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/ateliercarvalho/atelier/internal/booking"
	"github.com/ateliercarvalho/atelier/internal/catalog"
)

// WizardStep is a stage of appointment creation.
type WizardStep int

const (
	StepDate WizardStep = iota + 1
	StepTime
	StepCustomer
	StepDetails
)

func (s WizardStep) String() string {
	switch s {
	case StepDate:
		return "date"
	case StepTime:
		return "time"
	case StepCustomer:
		return "customer"
	case StepDetails:
		return "details"
	default:
		return "unknown"
	}
}

var (
	ErrStepIncomplete = errors.New("admin: current step is incomplete")
	ErrWizardStale    = errors.New("admin: date changed while slots were loading")
	ErrTimeNotOffered = errors.New("admin: time is not an open slot for the selected date")
	ErrWizardBusy     = errors.New("admin: appointment is already being created")
)

const MsgPastDate = "Selecione uma data a partir de hoje."

// SlotSource lists open start times for a date.
type SlotSource interface {
	TimeSlots(ctx context.Context, date string) (*booking.DaySlots, error)
}

// AppointmentCreator creates an appointment.
type AppointmentCreator interface {
	Create(ctx context.Context, req CreateAppointmentRequest) (*CreateAppointmentResponse, error)
}

// Wizard walks staff through date, time, customer and details, in order.
type Wizard struct {
	slots   SlotSource
	creator AppointmentCreator
	loc     *time.Location
	now     func() time.Time

	mu         sync.Mutex
	step       WizardStep
	gen        uint64
	date       string
	timeSlots  []string
	reason     string
	clock      string
	customer   *Customer
	isNew      bool
	name       string
	phone      string
	account    bool
	color      string
	category   catalog.DressCategory
	companion  bool
	companions int
	submitting bool
}

func NewWizard(slots SlotSource, creator AppointmentCreator, loc *time.Location) *Wizard {
	if loc == nil {
		loc = time.UTC
	}
	return &Wizard{
		slots:    slots,
		creator:  creator,
		loc:      loc,
		now:      time.Now,
		step:     StepDate,
		category: catalog.DressNoiva,
	}
}

// WithClock replaces the wizard's clock, for tests.
func (w *Wizard) WithClock(now func() time.Time) *Wizard {
	w.now = now
	return w
}

func (w *Wizard) Step() WizardStep {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.step
}

// TimeSlots returns the open times for the selected date and, when the
// date is closed, the reason.
func (w *Wizard) TimeSlots() ([]string, string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return slices.Clone(w.timeSlots), w.reason
}

// SetDate selects a date, clears any chosen time and loads that date's
// slots. A load overtaken by a newer SetDate returns ErrWizardStale and
// leaves the newer state alone.
func (w *Wizard) SetDate(ctx context.Context, date string) error {
	day, err := time.ParseInLocation(catalog.DateLayout, date, w.loc)
	if err != nil {
		return &ValidationError{Field: "date", Message: booking.ReasonUnavailable}
	}
	today := w.now().In(w.loc)
	if day.Before(time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, w.loc)) {
		return &ValidationError{Field: "date", Message: MsgPastDate}
	}

	w.mu.Lock()
	w.gen++
	gen := w.gen
	w.date = date
	w.clock = ""
	w.timeSlots = nil
	w.reason = ""
	w.mu.Unlock()

	slots, err := w.slots.TimeSlots(ctx, date)

	w.mu.Lock()
	defer w.mu.Unlock()
	if gen != w.gen {
		return ErrWizardStale
	}
	if err != nil {
		w.timeSlots = []string{}
		return fmt.Errorf("admin: load slots: %w", err)
	}
	if !slots.IsAvailable {
		w.timeSlots = []string{}
		w.reason = slots.Reason
		if w.reason == "" {
			w.reason = booking.ReasonUnavailable
		}
		return nil
	}
	w.timeSlots = slices.Clone(slots.TimeSlots)
	return nil
}

// SetTime picks one of the loaded slots.
func (w *Wizard) SetTime(clock string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !slices.Contains(w.timeSlots, clock) {
		return ErrTimeNotOffered
	}
	w.clock = clock
	return nil
}

// SelectCustomer books for an existing customer.
func (w *Wizard) SelectCustomer(c Customer) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.isNew = false
	w.customer = &c
	w.account = false
}

// NewCustomer books for someone not yet registered.
func (w *Wizard) NewCustomer(name, phone string, createAccount bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.isNew = true
	w.customer = nil
	w.name = strings.TrimSpace(name)
	w.phone = strings.TrimSpace(phone)
	w.account = createAccount
}

// SetDetails fills the fitting details. Unknown categories fall back to Noiva.
func (w *Wizard) SetDetails(color string, category catalog.DressCategory, companion bool, companions int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.color = strings.TrimSpace(color)
	if !category.Valid() {
		category = catalog.DressNoiva
	}
	w.category = category
	w.companion = companion
	w.companions = max(companions, 0)
}

// CanProceed reports whether the current step has what it needs.
func (w *Wizard) CanProceed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.completeLocked(w.step)
}

func (w *Wizard) completeLocked(step WizardStep) bool {
	switch step {
	case StepDate:
		return w.date != ""
	case StepTime:
		return w.clock != ""
	case StepCustomer:
		if w.isNew {
			return w.name != "" && w.phone != ""
		}
		return w.customer != nil
	case StepDetails:
		return w.color != ""
	default:
		return false
	}
}

// Next advances one step.
func (w *Wizard) Next() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.completeLocked(w.step) {
		return fmt.Errorf("%w: %s", ErrStepIncomplete, w.step)
	}
	if w.step < StepDetails {
		w.step++
	}
	return nil
}

func (w *Wizard) Back() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.step > StepDate {
		w.step--
	}
}

// Request builds the admin API payload from the completed wizard.
func (w *Wizard) Request() (CreateAppointmentRequest, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.requestLocked()
}

func (w *Wizard) requestLocked() (CreateAppointmentRequest, error) {
	for step := StepDate; step <= StepDetails; step++ {
		if !w.completeLocked(step) {
			return CreateAppointmentRequest{}, fmt.Errorf("%w: %s", ErrStepIncomplete, step)
		}
	}
	if !slices.Contains(w.timeSlots, w.clock) {
		return CreateAppointmentRequest{}, ErrTimeNotOffered
	}

	start, err := time.ParseInLocation(catalog.DateLayout+" 15:04", w.date+" "+w.clock, w.loc)
	if err != nil {
		return CreateAppointmentRequest{}, &ValidationError{Field: "time", Message: booking.ReasonUnavailable}
	}

	req := CreateAppointmentRequest{
		ScheduledAt:        start.UTC().Format(isoMillis),
		CreateUserAccount:  w.account,
		ColorDress:         w.color,
		DressCategory:      w.category,
		WillBringCompanion: w.companion,
	}
	if w.companion {
		req.CompanionCount = w.companions
	}
	if w.isNew {
		req.CustomerName = w.name
		req.CustomerPhone = booking.Digits(w.phone)
	} else {
		req.CustomerName = w.customer.Name
		req.CustomerPhone = w.customer.Phone
	}
	return req, nil
}

// Submit creates the appointment. It is only allowed from the details step.
func (w *Wizard) Submit(ctx context.Context) (*CreateAppointmentResponse, error) {
	w.mu.Lock()
	if w.submitting {
		w.mu.Unlock()
		return nil, ErrWizardBusy
	}
	if w.step != StepDetails {
		w.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrStepIncomplete, w.step)
	}
	req, err := w.requestLocked()
	if err != nil {
		w.mu.Unlock()
		return nil, err
	}
	w.submitting = true
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		w.submitting = false
		w.mu.Unlock()
	}()
	return w.creator.Create(ctx, req)
}
