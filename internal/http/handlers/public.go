package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ateliercarvalho/atelier/internal/availability"
	"github.com/ateliercarvalho/atelier/internal/booking"
	"github.com/ateliercarvalho/atelier/internal/bookingform"
	"github.com/ateliercarvalho/atelier/internal/bookings"
	"github.com/ateliercarvalho/atelier/internal/deeplink"
	"github.com/ateliercarvalho/atelier/internal/observability/metrics"
	"github.com/ateliercarvalho/atelier/internal/session"
	"github.com/ateliercarvalho/atelier/pkg/logging"
)

const followUpTimeout = 15 * time.Second

// SubmissionRecorder writes successful bookings to the ledger.
type SubmissionRecorder interface {
	Record(ctx context.Context, backend string, result *bookingform.Result) (*bookings.Submission, error)
}

// BookingNotifier alerts the studio about a new booking.
type BookingNotifier interface {
	NotifyNewBooking(ctx context.Context, result *bookingform.Result) error
}

// PublicConfig wires the PublicHandler. Recorder and Notifier are optional.
type PublicConfig struct {
	Availability *availability.Service
	Links        *deeplink.Builder
	Contact      string
	Recorder     SubmissionRecorder
	Notifier     BookingNotifier
	Metrics      *metrics.AtelierMetrics
	Logger       *logging.Logger
}

// PublicHandler serves the catalog, availability and booking endpoints used
// by the website.
type PublicHandler struct {
	avail    *availability.Service
	links    *deeplink.Builder
	contact  string
	recorder SubmissionRecorder
	notifier BookingNotifier
	metrics  *metrics.AtelierMetrics
	logger   *logging.Logger
	variants map[string]bookingform.Config

	// followUps tracks ledger and alert work started after a booking.
	followUps chan struct{}
}

func NewPublicHandler(cfg PublicConfig) *PublicHandler {
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	if cfg.Links == nil {
		cfg.Links = deeplink.NewBuilder(deeplink.DefaultHost)
	}
	return &PublicHandler{
		avail:    cfg.Availability,
		links:    cfg.Links,
		contact:  cfg.Contact,
		recorder: cfg.Recorder,
		notifier: cfg.Notifier,
		metrics:  cfg.Metrics,
		logger:   cfg.Logger,
		variants: map[string]bookingform.Config{
			"":         bookingform.DefaultConfig(),
			"full":     bookingform.DefaultConfig(),
			"landing":  bookingform.LandingConfig(),
			"dropdown": bookingform.DropdownConfig(),
		},
		followUps: make(chan struct{}, 64),
	}
}

// ListServices handles GET /api/services.
func (h *PublicHandler) ListServices(w http.ResponseWriter, r *http.Request) {
	services, err := h.avail.Services(r.Context())
	if err != nil {
		respondError(w, h.logger, err, "list services")
		return
	}
	writeJSON(w, http.StatusOK, services)
}

// GetService handles GET /api/services/{id}.
func (h *PublicHandler) GetService(w http.ResponseWriter, r *http.Request) {
	service, err := h.avail.ServiceByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, h.logger, err, "get service")
		return
	}
	writeJSON(w, http.StatusOK, service)
}

// GetConfig handles GET /api/config.
func (h *PublicHandler) GetConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.avail.Config(r.Context())
	if err != nil {
		respondError(w, h.logger, err, "get config")
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

// MonthAvailability handles GET /api/availability?serviceId=&month=&year=.
// month is 1-12.
func (h *PublicHandler) MonthAvailability(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	month, _ := strconv.Atoi(q.Get("month"))
	year, _ := strconv.Atoi(q.Get("year"))
	if month < 0 || month > 12 {
		writeFieldError(w, "month", MsgInvalidBody)
		return
	}
	out, err := h.avail.MonthAvailability(r.Context(), q.Get("serviceId"), month, year)
	if err != nil {
		respondError(w, h.logger, err, "month availability")
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// DaySlots handles GET /api/availability/{date}?serviceId=. A closed date is
// a 200 with isAvailable=false and the reason.
func (h *PublicHandler) DaySlots(w http.ResponseWriter, r *http.Request) {
	slots, err := h.avail.TimeSlots(r.Context(), r.URL.Query().Get("serviceId"), chi.URLParam(r, "date"))
	if err != nil {
		respondError(w, h.logger, err, "day slots")
		return
	}
	writeJSON(w, http.StatusOK, slots)
}

// bookingRequest is the website's booking form as posted.
type bookingRequest struct {
	Variant string `json:"variant"`
	bookingform.Values
}

// CreateBooking handles POST /api/bookings. The posted values are replayed
// through a fresh booking form so the submission obeys the same rules as
// the form on the page: the time must be one of the date's current slots and
// a companion count is only sent when companions were chosen.
func (h *PublicHandler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var req bookingRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	cfg, ok := h.variants[strings.ToLower(strings.TrimSpace(req.Variant))]
	if !ok {
		writeFieldError(w, "variant", MsgInvalidBody)
		return
	}

	ctx := r.Context()
	form := bookingform.New(cfg, h.avail,
		bookingform.WithLinks(h.links),
		bookingform.WithContact(h.resolveContact),
		bookingform.WithLogger(h.logger),
		bookingform.WithMetrics(h.metrics),
	)
	h.fill(ctx, form, req.Values)

	if _, err := form.RefreshSlots(ctx); err != nil && !errors.Is(err, bookingform.ErrSlotsInert) {
		respondError(w, h.logger, err, "refresh slots")
		return
	}
	if req.Time != "" {
		if err := form.SetTime(req.Time); err != nil {
			writeFieldError(w, "time", bookingform.MsgTimeUnavailable)
			return
		}
	}

	result, err := form.Submit(ctx)
	if err != nil {
		respondError(w, h.logger, err, "create booking")
		return
	}
	h.followUp(ctx, result)
	writeJSON(w, http.StatusCreated, result)
}

// MyBookings handles GET /api/bookings/mine for the signed-in customer.
func (h *PublicHandler) MyBookings(w http.ResponseWriter, r *http.Request) {
	m := session.FromContext(r.Context(), session.CustomerDomain)
	if m == nil || !m.IsAuthenticated() {
		writeError(w, http.StatusUnauthorized, MsgSessionExpired)
		return
	}
	lister, ok := h.avail.Backend().(booking.UserBookingLister)
	if !ok {
		writeJSON(w, http.StatusOK, []booking.Response{})
		return
	}
	list, err := lister.UserBookings(r.Context(), m.Current().ID)
	if err != nil {
		respondError(w, h.logger, err, "my bookings")
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *PublicHandler) fill(ctx context.Context, form *bookingform.Form, v bookingform.Values) {
	form.SetName(v.Name)
	form.SetPhone(v.Phone)
	form.SetColor(v.Color)
	if v.DressType != "" {
		form.SetDressType(v.DressType)
	}
	if v.ServiceID != "" {
		form.SetService(v.ServiceID)
	}
	form.SetOtherService(v.OtherService)
	form.SetOtherDressType(v.OtherDressType)
	form.SetCompanions(v.HasCompanions)
	form.SetCompanionsCount(v.CompanionsCount)
	form.SetCreateAccount(v.CreateAccount)
	form.SetDate(v.Date)
	if m := session.FromContext(ctx, session.CustomerDomain); m != nil && m.IsAuthenticated() {
		form.SetUserID(m.Current().ID)
	}
}

// resolveContact prefers the studio's configured WhatsApp number.
func (h *PublicHandler) resolveContact(ctx context.Context) string {
	if cfg, err := h.avail.Config(ctx); err == nil && strings.TrimSpace(cfg.WhatsAppNumber) != "" {
		return cfg.WhatsAppNumber
	}
	return h.contact
}

// followUp records the booking and alerts the studio in the background.
// Neither may fail the booking, which already exists.
func (h *PublicHandler) followUp(ctx context.Context, result *bookingform.Result) {
	if h.recorder == nil && h.notifier == nil {
		return
	}
	select {
	case h.followUps <- struct{}{}:
	default:
		h.logger.Warn("booking follow-up skipped, too many in flight", "booking_id", result.Booking.ID)
		return
	}
	backend := h.avail.Backend().Name()
	go func() {
		defer func() { <-h.followUps }()
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), followUpTimeout)
		defer cancel()
		if h.recorder != nil {
			if _, err := h.recorder.Record(ctx, backend, result); err != nil {
				h.logger.Error("failed to record booking", "booking_id", result.Booking.ID, "error", err)
			}
		}
		if h.notifier != nil {
			if err := h.notifier.NotifyNewBooking(ctx, result); err != nil {
				h.logger.Warn("failed to send booking alert", "booking_id", result.Booking.ID, "error", err)
			}
		}
	}()
}
