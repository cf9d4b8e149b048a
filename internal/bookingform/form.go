// Package bookingform is the booking form state machine: it holds the
// values being entered, keeps the chosen time consistent with the latest
// slot set, validates, submits once and builds the confirmation message.
package bookingform

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ateliercarvalho/atelier/internal/booking"
	"github.com/ateliercarvalho/atelier/internal/catalog"
	"github.com/ateliercarvalho/atelier/internal/deeplink"
	"github.com/ateliercarvalho/atelier/internal/observability/metrics"
	"github.com/ateliercarvalho/atelier/pkg/logging"
)

// Backend is what the form needs from the booking layer.
type Backend interface {
	Services(ctx context.Context) ([]catalog.ServiceType, error)
	TimeSlots(ctx context.Context, serviceID, date string) (*booking.DaySlots, error)
	CreateBooking(ctx context.Context, data booking.FormData) (*booking.Response, error)
}

// ContactResolver returns the messaging contact id for confirmation links.
type ContactResolver func(ctx context.Context) string

// Values are the fields as entered. CompanionsCount is kept raw so a blank
// entry can be told apart from zero.
type Values struct {
	Name            string `json:"name"`
	Phone           string `json:"phone"`
	ServiceID       string `json:"serviceId"`
	OtherService    string `json:"otherService,omitempty"`
	DressType       string `json:"dressType,omitempty"`
	OtherDressType  string `json:"otherDressType,omitempty"`
	Color           string `json:"color"`
	Date            string `json:"date"`
	Time            string `json:"time"`
	HasCompanions   bool   `json:"hasCompanions"`
	CompanionsCount string `json:"companionsCount,omitempty"`
	CreateAccount   bool   `json:"createAccount"`
	UserID          string `json:"userId,omitempty"`
}

// Result is a successful submission.
type Result struct {
	Booking  booking.Response `json:"booking"`
	Summary  string           `json:"summary"`
	DeepLink string           `json:"whatsappUrl"`

	// Request and Details describe what was booked, for the ledger and alerts.
	Request booking.FormData `json:"-"`
	Details SummaryInput     `json:"-"`
}

// Form is one booking form instance. It is safe for concurrent use. While a
// submission is in flight the values are locked: setters are ignored and
// SetTime and RefreshSlots return ErrSubmitInFlight.
type Form struct {
	cfg     Config
	backend Backend
	links   *deeplink.Builder
	contact ContactResolver
	logger  *logging.Logger
	metrics *metrics.AtelierMetrics

	mu         sync.Mutex
	state      State
	values     Values
	generation uint64
	slots      *booking.DaySlots
	lastErr    error
}

// Option configures a Form.
type Option func(*Form)

func WithLinks(b *deeplink.Builder) Option {
	return func(f *Form) {
		if b != nil {
			f.links = b
		}
	}
}

func WithContact(r ContactResolver) Option {
	return func(f *Form) {
		if r != nil {
			f.contact = r
		}
	}
}

func WithLogger(logger *logging.Logger) Option {
	return func(f *Form) {
		if logger != nil {
			f.logger = logger
		}
	}
}

func WithMetrics(m *metrics.AtelierMetrics) Option {
	return func(f *Form) { f.metrics = m }
}

// New returns an empty form in the idle state.
func New(cfg Config, backend Backend, opts ...Option) *Form {
	if cfg.DressType == "" {
		cfg.DressType = DressTypeServices
	}
	fallback := catalog.DefaultEstablishment().WhatsAppNumber
	f := &Form{
		cfg:     cfg,
		backend: backend,
		links:   deeplink.NewBuilder(deeplink.DefaultHost),
		contact: func(context.Context) string { return fallback },
		logger:  logging.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *Form) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Values returns a snapshot of the entered values.
func (f *Form) Values() Values {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.values
}

// Slots returns the latest slot set for the current service and date, or nil.
func (f *Form) Slots() *booking.DaySlots {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.slots
}

// LastError is the error of the last failed submission.
func (f *Form) LastError() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastErr
}

func (f *Form) SetName(v string) { f.set(func(x *Values) { x.Name = v }) }

func (f *Form) SetPhone(v string) { f.set(func(x *Values) { x.Phone = v }) }

// SetColor takes the dress color as free text.
func (f *Form) SetColor(v string) { f.set(func(x *Values) { x.Color = v }) }

func (f *Form) SetUserID(v string) { f.set(func(x *Values) { x.UserID = v }) }

func (f *Form) SetOtherService(v string) {
	f.set(func(x *Values) { x.OtherService = v })
}

func (f *Form) SetOtherDressType(v string) {
	f.set(func(x *Values) { x.OtherDressType = v })
}

// SetCompanions toggles the companions question. Turning it off forgets any
// count entered before.
func (f *Form) SetCompanions(on bool) {
	f.set(func(x *Values) {
		x.HasCompanions = on && f.cfg.Companions
		if !x.HasCompanions {
			x.CompanionsCount = ""
		}
	})
}

func (f *Form) SetCompanionsCount(v string) {
	f.set(func(x *Values) {
		if x.HasCompanions {
			x.CompanionsCount = strings.TrimSpace(v)
		}
	})
}

func (f *Form) SetCreateAccount(on bool) {
	f.set(func(x *Values) { x.CreateAccount = on && f.cfg.AccountToggle })
}

// SetService picks a service. A different service clears the chosen time and
// the slot set.
func (f *Form) SetService(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.lockedLocked() {
		return
	}
	f.setServiceLocked(strings.TrimSpace(id))
}

// SetDressType picks a dropdown dress type and the service it maps to.
func (f *Form) SetDressType(dress string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.lockedLocked() {
		return
	}
	f.values.DressType = strings.TrimSpace(dress)
	if f.cfg.DressType == DressTypeDropdown {
		f.setServiceLocked(f.cfg.serviceForDress(dress))
	}
}

// SetDate picks a date ("YYYY-MM-DD"). A different date clears the chosen
// time and the slot set.
func (f *Form) SetDate(date string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	date = strings.TrimSpace(date)
	if f.lockedLocked() || date == f.values.Date {
		return
	}
	f.values.Date = date
	f.invalidateSlotsLocked()
}

// SetTime picks a time; it must be one of the slots last fetched for the
// current service and date.
func (f *Form) SetTime(t string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.lockedLocked() {
		return ErrSubmitInFlight
	}
	t = strings.TrimSpace(t)
	if f.slots == nil || !f.slots.HasSlot(t) {
		return ErrTimeNotOffered
	}
	f.values.Time = t
	return nil
}

// RefreshSlots fetches the slot set for the current service and date. If
// either changes before the response arrives, the response is dropped and
// ErrStaleSlots returned.
func (f *Form) RefreshSlots(ctx context.Context) (*booking.DaySlots, error) {
	f.mu.Lock()
	if f.lockedLocked() {
		f.mu.Unlock()
		return nil, ErrSubmitInFlight
	}
	gen := f.generation
	serviceID, date := f.values.ServiceID, f.values.Date
	f.mu.Unlock()

	if serviceID == "" || date == "" {
		return nil, ErrSlotsInert
	}
	slots, err := f.backend.TimeSlots(ctx, serviceID, date)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if gen != f.generation {
		f.logger.Debug("dropping stale slot response", "service_id", serviceID, "date", date)
		return nil, ErrStaleSlots
	}
	f.slots = slots
	if f.values.Time != "" && !slots.HasSlot(f.values.Time) {
		f.values.Time = ""
	}
	return slots, nil
}

// Submit validates and sends the booking. On success the form is reset and
// the confirmation message and link are returned. On failure the values are
// kept for a retry.
func (f *Form) Submit(ctx context.Context) (*Result, error) {
	f.mu.Lock()
	if f.state == StateSubmitting {
		f.mu.Unlock()
		f.metrics.ObserveSubmission("rejected")
		return nil, ErrSubmitInFlight
	}
	f.state = StateValidating
	if verr := f.validateLocked(); verr != nil {
		f.state = StateIdle
		f.mu.Unlock()
		f.metrics.ObserveSubmission("invalid")
		return nil, verr
	}
	values := f.values
	data := f.formDataLocked()
	f.state = StateSubmitting
	f.mu.Unlock()

	resp, err := f.backend.CreateBooking(ctx, data)
	if err != nil {
		f.mu.Lock()
		f.state = StateFailed
		f.lastErr = err
		f.mu.Unlock()
		f.metrics.ObserveSubmission("failed")
		f.logger.Error("booking submission failed", "error", err, "service_id", data.ServiceID, "date", data.Date, "time", data.Time)
		return nil, &SubmitError{Message: MsgGenericFailure, Err: err}
	}

	result := &Result{Booking: *resp, Request: data}
	result.Details = f.summaryInput(ctx, values, data, resp.ID)
	result.Summary = Summary(result.Details)
	if link, err := f.links.Link(f.contact(ctx), result.Summary); err != nil {
		f.logger.Warn("confirmation link unavailable", "error", err, "booking_id", resp.ID)
	} else {
		result.DeepLink = link
	}

	f.mu.Lock()
	f.values = Values{}
	f.invalidateSlotsLocked()
	f.state = StateSucceeded
	f.lastErr = nil
	f.mu.Unlock()
	f.metrics.ObserveSubmission("succeeded")
	f.logger.Info("booking submitted", "booking_id", resp.ID, "service_id", data.ServiceID, "date", data.Date, "time", data.Time)
	return result, nil
}

func (f *Form) set(apply func(*Values)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.lockedLocked() {
		return
	}
	apply(&f.values)
}

func (f *Form) lockedLocked() bool {
	if f.state != StateSubmitting {
		return false
	}
	f.logger.Debug("form edit ignored during submission")
	return true
}

func (f *Form) setServiceLocked(id string) {
	if id == f.values.ServiceID {
		return
	}
	f.values.ServiceID = id
	f.invalidateSlotsLocked()
}

func (f *Form) invalidateSlotsLocked() {
	f.values.Time = ""
	f.slots = nil
	f.generation++
}

func (f *Form) validateLocked() *ValidationError {
	v := f.values
	serviceField, serviceValue := "service", v.ServiceID
	if f.cfg.DressType == DressTypeDropdown {
		serviceField, serviceValue = "dressType", v.DressType
	}
	required := []struct {
		field string
		value string
	}{
		{"name", v.Name},
		{"phone", v.Phone},
		{serviceField, serviceValue},
		{"color", v.Color},
		{"date", v.Date},
		{"time", v.Time},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return &ValidationError{Field: r.field, Message: MsgRequiredFields}
		}
	}

	switch f.cfg.DressType {
	case DressTypeDropdown:
		if strings.EqualFold(v.DressType, booking.OtherDressType) && strings.TrimSpace(v.OtherDressType) == "" {
			return &ValidationError{Field: "otherDressType", Message: MsgOtherDressType}
		}
	default:
		if strings.EqualFold(v.ServiceID, catalog.OtherServiceID) && strings.TrimSpace(v.OtherService) == "" {
			return &ValidationError{Field: "otherService", Message: MsgOtherDressType}
		}
	}

	if !booking.ValidPhone(v.Phone) {
		return &ValidationError{Field: "phone", Message: MsgInvalidPhone}
	}
	if _, err := time.Parse(catalog.DateLayout, v.Date); err != nil {
		return &ValidationError{Field: "date", Message: MsgInvalidDate}
	}
	if v.HasCompanions {
		if n, err := strconv.Atoi(v.CompanionsCount); err != nil || n < 1 {
			return &ValidationError{Field: "companionsCount", Message: MsgCompanionsCount}
		}
	}
	if f.slots == nil || !f.slots.HasSlot(v.Time) {
		return &ValidationError{Field: "time", Message: MsgTimeUnavailable}
	}
	return nil
}

func (f *Form) formDataLocked() booking.FormData {
	v := f.values
	data := booking.FormData{
		Name:          strings.TrimSpace(v.Name),
		Phone:         strings.TrimSpace(v.Phone),
		ServiceID:     v.ServiceID,
		Color:         strings.TrimSpace(v.Color),
		Date:          v.Date,
		Time:          v.Time,
		HasCompanions: v.HasCompanions,
		CreateAccount: v.CreateAccount,
		UserID:        v.UserID,
	}
	if strings.EqualFold(v.ServiceID, catalog.OtherServiceID) {
		data.OtherService = strings.TrimSpace(v.OtherService)
	}
	if f.cfg.DressType == DressTypeDropdown {
		data.DressType = v.DressType
		if strings.EqualFold(v.DressType, booking.OtherDressType) {
			data.OtherDressType = strings.TrimSpace(v.OtherDressType)
		}
	}
	if v.HasCompanions {
		n, _ := strconv.Atoi(v.CompanionsCount)
		data.CompanionsCount = &n
	}
	return data
}

func (f *Form) summaryInput(ctx context.Context, v Values, data booking.FormData, id string) SummaryInput {
	var services catalog.Catalog
	if list, err := f.backend.Services(ctx); err == nil {
		services = list
	} else {
		f.logger.Warn("service catalog unavailable for summary", "error", err)
		services = catalog.DefaultCatalog()
	}
	duration := 0
	if svc, ok := services.Find(data.ServiceID); ok {
		duration = svc.DurationMinutes
	}
	day, _ := time.Parse(catalog.DateLayout, data.Date)
	return SummaryInput{
		BookingID:       id,
		Name:            data.Name,
		Phone:           booking.DisplayPhone(v.Phone),
		DressLabel:      booking.DressLabel(data, services),
		Color:           data.Color,
		Companions:      data.CompanionsCount,
		Date:            day,
		Time:            data.Time,
		DurationMinutes: duration,
	}
}
