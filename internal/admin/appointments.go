package admin

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/ateliercarvalho/atelier/internal/apiclient"
	"github.com/ateliercarvalho/atelier/internal/booking"
)

// isoMillis matches the admin API's UTC timestamps.
const isoMillis = "2006-01-02T15:04:05.000Z"

// AppointmentService manages fittings through the admin API.
type AppointmentService struct {
	client *apiclient.Client
}

func NewAppointmentService(client *apiclient.Client) *AppointmentService {
	return &AppointmentService{client: client}
}

// Range lists appointments scheduled between start and end inclusive.
func (s *AppointmentService) Range(ctx context.Context, start, end time.Time) (*AppointmentsResponse, error) {
	q := url.Values{
		"startDate": {start.UTC().Format(isoMillis)},
		"endDate":   {end.UTC().Format(isoMillis)},
	}
	var out AppointmentsResponse
	if err := s.client.Get(ctx, "/appointment", q, &out); err != nil {
		return nil, fmt.Errorf("admin: list appointments: %w", err)
	}
	if out.Appointments == nil {
		out.Appointments = []Appointment{}
	}
	return &out, nil
}

func (s *AppointmentService) Get(ctx context.Context, id string) (*Appointment, error) {
	var out Appointment
	if err := s.client.Get(ctx, "/appointment/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, fmt.Errorf("admin: get appointment %s: %w", id, err)
	}
	return &out, nil
}

func (s *AppointmentService) Create(ctx context.Context, req CreateAppointmentRequest) (*CreateAppointmentResponse, error) {
	var out CreateAppointmentResponse
	if err := s.client.Post(ctx, "/appointment", req, &out); err != nil {
		return nil, fmt.Errorf("admin: create appointment: %w", err)
	}
	return &out, nil
}

func (s *AppointmentService) Cancel(ctx context.Context, id string) error {
	if err := s.client.Delete(ctx, "/appointment/"+url.PathEscape(id), nil); err != nil {
		return fmt.Errorf("admin: cancel appointment %s: %w", id, err)
	}
	return nil
}

// TimeSlots returns the open start times for date (YYYY-MM-DD).
func (s *AppointmentService) TimeSlots(ctx context.Context, date string) (*booking.DaySlots, error) {
	var out booking.DaySlots
	if err := s.client.Get(ctx, "/settings/available-time-slots", url.Values{"date": {date}}, &out); err != nil {
		return nil, fmt.Errorf("admin: time slots for %s: %w", date, err)
	}
	if out.Date == "" {
		out.Date = date
	}
	if out.TimeSlots == nil {
		out.TimeSlots = []string{}
	}
	if !out.IsAvailable {
		out.TimeSlots = []string{}
		if out.Reason == "" {
			out.Reason = booking.ReasonUnavailable
		}
	}
	return &out, nil
}
