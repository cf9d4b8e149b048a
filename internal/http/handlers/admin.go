package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ateliercarvalho/atelier/internal/admin"
	"github.com/ateliercarvalho/atelier/internal/bookings"
	"github.com/ateliercarvalho/atelier/internal/catalog"
	"github.com/ateliercarvalho/atelier/pkg/logging"
)

// SubmissionLister reads the booking ledger.
type SubmissionLister interface {
	Recent(ctx context.Context, limit int) ([]bookings.Submission, error)
}

// AdminConfig wires the AdminHandler. Submissions is optional.
type AdminConfig struct {
	Customers    *admin.CustomerService
	Appointments *admin.AppointmentService
	Settings     *admin.SettingsService
	Submissions  SubmissionLister
	Location     *time.Location
	SearchDelay  time.Duration
	Logger       *logging.Logger
}

// AdminHandler serves the back office. Every route sits behind RequireAdmin;
// the admin API client picks the staff token from the request context.
type AdminHandler struct {
	customers    *admin.CustomerService
	appointments *admin.AppointmentService
	settings     *admin.SettingsService
	dashboard    *admin.Dashboard
	submissions  SubmissionLister
	loc          *time.Location
	searchDelay  time.Duration
	logger       *logging.Logger
	now          func() time.Time
}

func NewAdminHandler(cfg AdminConfig) *AdminHandler {
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	h := &AdminHandler{
		customers:    cfg.Customers,
		appointments: cfg.Appointments,
		settings:     cfg.Settings,
		submissions:  cfg.Submissions,
		loc:          cfg.Location,
		searchDelay:  cfg.SearchDelay,
		logger:       cfg.Logger,
		now:          time.Now,
	}
	h.dashboard = admin.NewDashboard(cfg.Customers, cfg.Appointments, cfg.Location).
		WithClock(func() time.Time { return h.now() })
	return h
}

// Dashboard handles GET /api/admin/dashboard.
func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	data, err := h.dashboard.Load(r.Context())
	if err != nil {
		respondError(w, h.logger, err, "dashboard")
		return
	}
	writeJSON(w, http.StatusOK, data)
}

// ListCustomers handles GET /api/admin/customers[?filter=].
func (h *AdminHandler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := h.customers.Search(r.Context(), r.URL.Query().Get("filter"))
	if err != nil {
		respondError(w, h.logger, err, "list customers")
		return
	}
	if customers == nil {
		customers = []admin.Customer{}
	}
	writeJSON(w, http.StatusOK, customers)
}

// GetCustomer handles GET /api/admin/customers/{id}.
func (h *AdminHandler) GetCustomer(w http.ResponseWriter, r *http.Request) {
	customer, err := h.customers.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, h.logger, err, "get customer")
		return
	}
	writeJSON(w, http.StatusOK, customer)
}

// CreateCustomer handles POST /api/admin/customers.
func (h *AdminHandler) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	var req admin.CreateCustomerRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := h.customers.Create(r.Context(), req)
	if err != nil {
		respondError(w, h.logger, err, "create customer")
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

// UpdateCustomer handles PUT /api/admin/customers/{id}.
func (h *AdminHandler) UpdateCustomer(w http.ResponseWriter, r *http.Request) {
	var req admin.UpdateCustomerRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.customers.Update(r.Context(), chi.URLParam(r, "id"), req); err != nil {
		respondError(w, h.logger, err, "update customer")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteCustomer handles DELETE /api/admin/customers/{id}.
func (h *AdminHandler) DeleteCustomer(w http.ResponseWriter, r *http.Request) {
	if err := h.customers.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondError(w, h.logger, err, "delete customer")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListAppointments handles GET /api/admin/appointments?startDate=&endDate=.
// Dates are YYYY-MM-DD in the studio's timezone and both ends are included.
// Without dates the current week is listed.
func (h *AdminHandler) ListAppointments(w http.ResponseWriter, r *http.Request) {
	start, end := admin.WeekRange(h.now().In(h.loc))
	q := r.URL.Query()
	if raw := q.Get("startDate"); raw != "" {
		day, err := time.ParseInLocation(catalog.DateLayout, raw, h.loc)
		if err != nil {
			writeFieldError(w, "startDate", MsgInvalidBody)
			return
		}
		start = day
	}
	if raw := q.Get("endDate"); raw != "" {
		day, err := time.ParseInLocation(catalog.DateLayout, raw, h.loc)
		if err != nil {
			writeFieldError(w, "endDate", MsgInvalidBody)
			return
		}
		end = day.AddDate(0, 0, 1).Add(-time.Millisecond)
	}
	if end.Before(start) {
		writeFieldError(w, "endDate", MsgInvalidBody)
		return
	}
	resp, err := h.appointments.Range(r.Context(), start, end)
	if err != nil {
		respondError(w, h.logger, err, "list appointments")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetAppointment handles GET /api/admin/appointments/{id}.
func (h *AdminHandler) GetAppointment(w http.ResponseWriter, r *http.Request) {
	appt, err := h.appointments.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, h.logger, err, "get appointment")
		return
	}
	writeJSON(w, http.StatusOK, appt)
}

// CancelAppointment handles DELETE /api/admin/appointments/{id}.
func (h *AdminHandler) CancelAppointment(w http.ResponseWriter, r *http.Request) {
	if err := h.appointments.Cancel(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondError(w, h.logger, err, "cancel appointment")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type newCustomerInput struct {
	Name          string `json:"name"`
	Phone         string `json:"phone"`
	CreateAccount bool   `json:"createAccount"`
}

type createAppointmentRequest struct {
	Date               string                `json:"date"`
	Time               string                `json:"time"`
	CustomerID         string                `json:"customerId"`
	NewCustomer        *newCustomerInput     `json:"newCustomer"`
	ColorDress         string                `json:"colorDress"`
	DressCategory      catalog.DressCategory `json:"dressCategory"`
	WillBringCompanion bool                  `json:"willBringCompanion"`
	CompanionCount     int                   `json:"companionCount"`
}

// CreateAppointment handles POST /api/admin/appointments. The request is
// walked through the appointment wizard step by step, so the time must be
// open on the chosen date and each step must be complete before the next.
func (h *AdminHandler) CreateAppointment(w http.ResponseWriter, r *http.Request) {
	var req createAppointmentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	ctx := r.Context()
	wiz := admin.NewWizard(h.appointments, h.appointments, h.loc).WithClock(h.now)

	if err := wiz.SetDate(ctx, strings.TrimSpace(req.Date)); err != nil {
		respondError(w, h.logger, err, "wizard date")
		return
	}
	if err := wiz.Next(); err != nil {
		writeFieldError(w, "date", "Selecione uma data.")
		return
	}
	if err := wiz.SetTime(strings.TrimSpace(req.Time)); err != nil {
		writeFieldError(w, "time", "Selecione um horário disponível.")
		return
	}
	if err := wiz.Next(); err != nil {
		writeFieldError(w, "time", "Selecione um horário disponível.")
		return
	}

	switch {
	case req.NewCustomer != nil:
		wiz.NewCustomer(req.NewCustomer.Name, req.NewCustomer.Phone, req.NewCustomer.CreateAccount)
	case strings.TrimSpace(req.CustomerID) != "":
		customer, err := h.customers.Get(ctx, strings.TrimSpace(req.CustomerID))
		if err != nil {
			respondError(w, h.logger, err, "wizard customer")
			return
		}
		wiz.SelectCustomer(*customer)
	}
	if err := wiz.Next(); err != nil {
		writeFieldError(w, "customer", "Selecione ou cadastre a cliente.")
		return
	}

	wiz.SetDetails(req.ColorDress, req.DressCategory, req.WillBringCompanion, req.CompanionCount)
	resp, err := wiz.Submit(ctx)
	switch {
	case errors.Is(err, admin.ErrStepIncomplete):
		writeFieldError(w, "colorDress", "Informe a cor do vestido.")
		return
	case err != nil:
		respondError(w, h.logger, err, "create appointment")
		return
	}
	h.logger.Info("appointment created", "appointment_id", resp.AppointmentID, "date", req.Date, "time", req.Time)
	writeJSON(w, http.StatusCreated, resp)
}

// TimeSlots handles GET /api/admin/time-slots?date=. A closed date is a 200
// with isAvailable=false.
func (h *AdminHandler) TimeSlots(w http.ResponseWriter, r *http.Request) {
	date := strings.TrimSpace(r.URL.Query().Get("date"))
	if _, err := time.Parse(catalog.DateLayout, date); err != nil {
		writeFieldError(w, "date", MsgInvalidBody)
		return
	}
	slots, err := h.appointments.TimeSlots(r.Context(), date)
	if err != nil {
		respondError(w, h.logger, err, "time slots")
		return
	}
	writeJSON(w, http.StatusOK, slots)
}

// GetSettings handles GET /api/admin/settings.
func (h *AdminHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.settings.Get(r.Context())
	if err != nil {
		respondError(w, h.logger, err, "get settings")
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

// SaveSettings handles PUT /api/admin/settings.
func (h *AdminHandler) SaveSettings(w http.ResponseWriter, r *http.Request) {
	var settings admin.GeneralSettings
	if !decodeJSON(w, r, &settings) {
		return
	}
	if strings.TrimSpace(settings.StudioInfo.Name) == "" {
		writeFieldError(w, "studioInfo.name", "Informe o nome do ateliê.")
		return
	}
	if err := h.settings.Save(r.Context(), settings); err != nil {
		respondError(w, h.logger, err, "save settings")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Submissions handles GET /api/admin/submissions[?limit=].
func (h *AdminHandler) Submissions(w http.ResponseWriter, r *http.Request) {
	if h.submissions == nil {
		writeJSON(w, http.StatusOK, []bookings.Submission{})
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	list, err := h.submissions.Recent(r.Context(), limit)
	if err != nil {
		respondError(w, h.logger, err, "list submissions")
		return
	}
	if list == nil {
		list = []bookings.Submission{}
	}
	writeJSON(w, http.StatusOK, list)
}
