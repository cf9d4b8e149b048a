package booking

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/ateliercarvalho/atelier/internal/apiclient"
	"github.com/ateliercarvalho/atelier/internal/catalog"
	"github.com/ateliercarvalho/atelier/pkg/logging"
)

const remoteBookingMessage = "Agendamento criado com sucesso! Aguarde confirmação pelo WhatsApp."

// RemoteBackend talks to the atelier public API.
type RemoteBackend struct {
	client   *apiclient.Client
	services catalog.Catalog
	now      func() time.Time
	logger   *logging.Logger
}

// NewRemoteBackend wraps an API client. services is used only to resolve
// dress labels when the form carries a service id.
func NewRemoteBackend(client *apiclient.Client, services catalog.Catalog, logger *logging.Logger) *RemoteBackend {
	if logger == nil {
		logger = logging.Default()
	}
	if services == nil {
		services = catalog.DefaultCatalog()
	}
	return &RemoteBackend{
		client:   client,
		services: services,
		now:      time.Now,
		logger:   logger,
	}
}

func (r *RemoteBackend) Name() string { return "remote" }

func (r *RemoteBackend) Services(ctx context.Context) ([]catalog.ServiceType, error) {
	var out []catalog.ServiceType
	if err := r.client.Get(ctx, "/services", nil, &out); err != nil {
		return nil, fmt.Errorf("booking: list services: %w", err)
	}
	return out, nil
}

func (r *RemoteBackend) ServiceByID(ctx context.Context, id string) (*catalog.ServiceType, error) {
	var out catalog.ServiceType
	if err := r.client.Get(ctx, "/services/"+url.PathEscape(id), nil, &out); err != nil {
		if apiclient.IsStatus(err, http.StatusNotFound) {
			return nil, ErrServiceNotFound
		}
		return nil, fmt.Errorf("booking: get service: %w", err)
	}
	return &out, nil
}

func (r *RemoteBackend) Config(ctx context.Context) (*catalog.EstablishmentConfig, error) {
	var out catalog.EstablishmentConfig
	if err := r.client.Get(ctx, "/config", nil, &out); err != nil {
		return nil, fmt.Errorf("booking: get config: %w", err)
	}
	return &out, nil
}

func (r *RemoteBackend) MonthAvailability(ctx context.Context, req MonthRequest) (*MonthAvailability, error) {
	var out MonthAvailability
	if err := r.client.Post(ctx, "/availability", req, &out); err != nil {
		return nil, fmt.Errorf("booking: month availability: %w", err)
	}
	return &out, nil
}

func (r *RemoteBackend) DaySlots(ctx context.Context, serviceID, date string) (*DaySlots, error) {
	if _, err := time.Parse(catalog.DateLayout, date); err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}
	q := url.Values{}
	q.Set("date", date)
	if serviceID != "" {
		q.Set("serviceId", serviceID)
	}
	var out DaySlots
	if err := r.client.Get(ctx, "/Settings/available-time-slots", q, &out); err != nil {
		return nil, fmt.Errorf("booking: day slots: %w", err)
	}
	if out.Date == "" {
		out.Date = date
	}
	if out.TimeSlots == nil {
		out.TimeSlots = []string{}
	}
	if !out.IsAvailable && out.Reason == "" {
		out.Reason = ReasonUnavailable
	}
	return &out, nil
}

func (r *RemoteBackend) CreateBooking(ctx context.Context, data FormData) (*Response, error) {
	body := NewAppointmentRequest(data, r.services)
	var out struct {
		AppointmentID string `json:"appointmentId"`
	}
	if err := r.client.Post(ctx, "/Appointment", body, &out); err != nil {
		if apiclient.IsStatus(err, http.StatusConflict) {
			return nil, fmt.Errorf("%w: %v", ErrSlotUnavailable, err)
		}
		return nil, fmt.Errorf("booking: create appointment: %w", err)
	}
	if out.AppointmentID == "" {
		return nil, fmt.Errorf("booking: create appointment: empty appointment id")
	}
	r.logger.Info("booking submitted", "appointment_id", out.AppointmentID, "date", data.Date, "time", data.Time)
	return &Response{
		ID:        out.AppointmentID,
		Status:    StatusPending,
		Message:   remoteBookingMessage,
		CreatedAt: r.now().UTC(),
	}, nil
}

// UserBookings lists the signed-in customer's bookings.
func (r *RemoteBackend) UserBookings(ctx context.Context, userID string) ([]Response, error) {
	var out []Response
	if err := r.client.Get(ctx, "/Appointment/user", nil, &out); err != nil {
		return nil, fmt.Errorf("booking: user bookings: %w", err)
	}
	return out, nil
}

var _ Backend = (*RemoteBackend)(nil)
