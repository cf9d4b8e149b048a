package booking

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ateliercarvalho/atelier/internal/catalog"
	"github.com/ateliercarvalho/atelier/pkg/logging"
	"github.com/google/uuid"
)

const mockBookingMessage = "Agendamento recebido! Aguarde confirmação pelo WhatsApp."

// Reasons reported for dates that cannot be booked.
const (
	ReasonPastDate      = "Data já passou"
	ReasonClosedWeekday = "Não atendemos neste dia da semana"
	ReasonUnavailable   = "Data indisponível"
)

// MockBackend is a deterministic in-memory backend. Booked slots stop being
// offered for any service whose fitting would overlap them.
type MockBackend struct {
	services catalog.Catalog
	config   catalog.EstablishmentConfig
	loc      *time.Location
	now      func() time.Time
	logger   *logging.Logger

	mu       sync.RWMutex
	bookings map[string][]mockBooking // by date
}

type mockBooking struct {
	response Response
	start    int
	end      int
	userID   string
}

// MockOption configures a MockBackend.
type MockOption func(*MockBackend)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) MockOption {
	return func(m *MockBackend) { m.now = now }
}

// WithLocation sets the studio timezone used to decide "today".
func WithLocation(loc *time.Location) MockOption {
	return func(m *MockBackend) {
		if loc != nil {
			m.loc = loc
		}
	}
}

// WithEstablishment replaces the studio details.
func WithEstablishment(cfg catalog.EstablishmentConfig) MockOption {
	return func(m *MockBackend) { m.config = cfg }
}

// WithCatalog replaces the service catalog.
func WithCatalog(c catalog.Catalog) MockOption {
	return func(m *MockBackend) { m.services = c }
}

// NewMockBackend builds the offline backend with the studio defaults.
func NewMockBackend(logger *logging.Logger, opts ...MockOption) *MockBackend {
	if logger == nil {
		logger = logging.Default()
	}
	m := &MockBackend{
		services: catalog.DefaultCatalog(),
		config:   catalog.DefaultEstablishment(),
		loc:      time.UTC,
		now:      time.Now,
		logger:   logger,
		bookings: make(map[string][]mockBooking),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *MockBackend) Name() string { return "mock" }

func (m *MockBackend) Services(ctx context.Context) ([]catalog.ServiceType, error) {
	return m.services.Active(), nil
}

func (m *MockBackend) ServiceByID(ctx context.Context, id string) (*catalog.ServiceType, error) {
	svc, ok := m.services.Find(id)
	if !ok {
		return nil, ErrServiceNotFound
	}
	return &svc, nil
}

func (m *MockBackend) Config(ctx context.Context) (*catalog.EstablishmentConfig, error) {
	cfg := m.config
	return &cfg, nil
}

// MonthAvailability lists every future working day of the month that is not
// blocked, with each slot flagged by whether it is still free.
func (m *MockBackend) MonthAvailability(ctx context.Context, req MonthRequest) (*MonthAvailability, error) {
	if req.Month < 1 || req.Month > 12 {
		return nil, fmt.Errorf("booking: month %d out of range", req.Month)
	}
	svc, ok := m.services.Find(req.ServiceID)
	if !ok {
		return nil, ErrServiceNotFound
	}
	window := m.config.Window()
	slots := catalog.GenerateSlots(svc.Duration(), window)
	today := m.today()

	m.mu.RLock()
	defer m.mu.RUnlock()

	first := time.Date(req.Year, time.Month(req.Month), 1, 0, 0, 0, 0, m.loc)
	dates := make([]AvailableDate, 0, 31)
	for day := first; day.Month() == first.Month(); day = day.AddDate(0, 0, 1) {
		if m.closedReason(day, today) != "" {
			continue
		}
		date := day.Format(catalog.DateLayout)
		entry := AvailableDate{
			Date:      date,
			DayOfWeek: catalog.DayName(day.Weekday()),
			TimeSlots: make([]TimeSlot, 0, len(slots)),
		}
		for _, s := range slots {
			start, _ := catalog.ParseClock(s)
			entry.TimeSlots = append(entry.TimeSlots, TimeSlot{
				ID:        date + "-" + s,
				Time:      s,
				Available: start > m.cutoff(day) && m.freeLocked(date, start, start+svc.Duration()),
			})
		}
		dates = append(dates, entry)
	}
	return &MonthAvailability{AvailableDates: dates, ServiceInfo: svc}, nil
}

func (m *MockBackend) DaySlots(ctx context.Context, serviceID, date string) (*DaySlots, error) {
	day, err := time.ParseInLocation(catalog.DateLayout, date, m.loc)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}
	duration := m.services.DurationFor(serviceID)

	if reason := m.closedReason(day, m.today()); reason != "" {
		return &DaySlots{Date: date, TimeSlots: []string{}, IsAvailable: false, Reason: reason}, nil
	}

	cutoff := m.cutoff(day)
	m.mu.RLock()
	defer m.mu.RUnlock()
	open := make([]string, 0)
	for _, s := range catalog.GenerateSlots(duration, m.config.Window()) {
		start, _ := catalog.ParseClock(s)
		if start > cutoff && m.freeLocked(date, start, start+duration) {
			open = append(open, s)
		}
	}
	return &DaySlots{Date: date, TimeSlots: open, IsAvailable: true}, nil
}

// CreateBooking reserves the slot if it is still open.
func (m *MockBackend) CreateBooking(ctx context.Context, data FormData) (*Response, error) {
	day, err := time.ParseInLocation(catalog.DateLayout, data.Date, m.loc)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDate, data.Date)
	}
	if m.closedReason(day, m.today()) != "" {
		return nil, ErrSlotUnavailable
	}
	start, err := catalog.ParseClock(data.Time)
	if err != nil || start <= m.cutoff(day) {
		return nil, ErrSlotUnavailable
	}
	duration := m.services.DurationFor(data.ServiceID)
	window := m.config.Window()
	if !containsSlot(catalog.GenerateSlots(duration, window), data.Time) {
		return nil, ErrSlotUnavailable
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.freeLocked(data.Date, start, start+duration) {
		return nil, ErrSlotUnavailable
	}
	resp := Response{
		ID:        "booking-" + uuid.NewString(),
		Status:    StatusPending,
		Message:   mockBookingMessage,
		CreatedAt: m.now().UTC(),
	}
	m.bookings[data.Date] = append(m.bookings[data.Date], mockBooking{
		response: resp,
		start:    start,
		end:      start + duration,
		userID:   data.UserID,
	})
	m.logger.Info("mock booking created", "booking_id", resp.ID, "date", data.Date, "time", data.Time, "service_id", data.ServiceID)
	return &resp, nil
}

// UserBookings lists the bookings a signed-in customer made, newest first.
func (m *MockBackend) UserBookings(ctx context.Context, userID string) ([]Response, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Response, 0)
	for _, list := range m.bookings {
		for _, b := range list {
			if userID != "" && b.userID == userID {
				out = append(out, b.response)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *MockBackend) today() time.Time {
	now := m.now().In(m.loc)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, m.loc)
}

// cutoff returns the minute of day up to which slots on day have started
// already, or -1 for future days.
func (m *MockBackend) cutoff(day time.Time) int {
	now := m.now().In(m.loc)
	if !day.Equal(m.today()) {
		return -1
	}
	return now.Hour()*60 + now.Minute()
}

// closedReason returns why day cannot be booked, or "" when it can.
func (m *MockBackend) closedReason(day, today time.Time) string {
	if day.Before(today) {
		return ReasonPastDate
	}
	if !m.config.IsWorkingDay(day.Weekday()) {
		return ReasonClosedWeekday
	}
	if reason, blocked := m.config.BlockedReason(day.Format(catalog.DateLayout)); blocked {
		if reason == "" {
			reason = ReasonUnavailable
		}
		return reason
	}
	return ""
}

func (m *MockBackend) freeLocked(date string, start, end int) bool {
	for _, b := range m.bookings[date] {
		if b.response.Status == StatusCancelled {
			continue
		}
		if start < b.end && b.start < end {
			return false
		}
	}
	return true
}

func containsSlot(slots []string, t string) bool {
	for _, s := range slots {
		if s == t {
			return true
		}
	}
	return false
}

var _ Backend = (*MockBackend)(nil)
