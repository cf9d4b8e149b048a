package availability

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/ateliercarvalho/atelier/internal/booking"
	"github.com/ateliercarvalho/atelier/internal/catalog"
	"github.com/ateliercarvalho/atelier/pkg/logging"
)

// ErrInert is returned, without touching the backend, when a query is missing
// a required parameter.
var ErrInert = errors.New("availability: query disabled until its parameters are set")

// Key prefixes. The second key part names the query shape. Everything under
// PrefixAvailability is dropped after a booking.
const (
	PrefixServices     = "services"
	PrefixConfig       = "config"
	PrefixAvailability = "availability"
)

var (
	ServicesPolicy = Policy{StaleTime: 5 * time.Minute, GCTime: 10 * time.Minute}
	ConfigPolicy   = Policy{StaleTime: 30 * time.Minute, GCTime: 60 * time.Minute}
	MonthPolicy    = Policy{StaleTime: 2 * time.Minute, GCTime: 5 * time.Minute}
	SlotsPolicy    = Policy{StaleTime: 1 * time.Minute, GCTime: 5 * time.Minute}
)

// Service serves reads through the cache and writes straight to the backend.
type Service struct {
	backend booking.Backend
	cache   *Cache
	logger  *logging.Logger
}

func NewService(backend booking.Backend, cache *Cache, logger *logging.Logger) *Service {
	if cache == nil {
		cache = NewCache(nil)
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{backend: backend, cache: cache, logger: logger}
}

// Backend exposes the underlying backend.
func (s *Service) Backend() booking.Backend { return s.backend }

// Cache exposes the underlying cache.
func (s *Service) Cache() *Cache { return s.cache }

func (s *Service) Services(ctx context.Context) ([]catalog.ServiceType, error) {
	return Fetch(ctx, s.cache, Key(PrefixServices, "list"), ServicesPolicy, s.backend.Services)
}

func (s *Service) ServiceByID(ctx context.Context, id string) (*catalog.ServiceType, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrInert
	}
	return Fetch(ctx, s.cache, Key(PrefixServices, "id", id), ServicesPolicy, func(ctx context.Context) (*catalog.ServiceType, error) {
		return s.backend.ServiceByID(ctx, id)
	})
}

func (s *Service) Config(ctx context.Context) (*catalog.EstablishmentConfig, error) {
	return Fetch(ctx, s.cache, Key(PrefixConfig, "establishment"), ConfigPolicy, s.backend.Config)
}

// MonthAvailability returns the month projection for a service. month is 1-12.
func (s *Service) MonthAvailability(ctx context.Context, serviceID string, month, year int) (*booking.MonthAvailability, error) {
	serviceID = strings.TrimSpace(serviceID)
	if serviceID == "" || month == 0 || year == 0 {
		return nil, ErrInert
	}
	key := Key(PrefixAvailability, "month", serviceID, strconv.Itoa(year), strconv.Itoa(month))
	return Fetch(ctx, s.cache, key, MonthPolicy, func(ctx context.Context) (*booking.MonthAvailability, error) {
		return s.backend.MonthAvailability(ctx, booking.MonthRequest{ServiceID: serviceID, Month: month, Year: year})
	})
}

// TimeSlots returns the slot list for one service and date.
func (s *Service) TimeSlots(ctx context.Context, serviceID, date string) (*booking.DaySlots, error) {
	serviceID = strings.TrimSpace(serviceID)
	date = strings.TrimSpace(date)
	if serviceID == "" || date == "" {
		return nil, ErrInert
	}
	key := Key(PrefixAvailability, "timeSlots", serviceID, date)
	return Fetch(ctx, s.cache, key, SlotsPolicy, func(ctx context.Context) (*booking.DaySlots, error) {
		return s.backend.DaySlots(ctx, serviceID, date)
	})
}

// CreateBooking submits to the backend and, on success, drops every cached
// availability entry.
func (s *Service) CreateBooking(ctx context.Context, data booking.FormData) (*booking.Response, error) {
	resp, err := s.backend.CreateBooking(ctx, data)
	if err != nil {
		return nil, err
	}
	removed := s.cache.Invalidate(PrefixAvailability + ":")
	s.logger.Debug("availability cache invalidated", "entries", removed, "booking_id", resp.ID)
	return resp, nil
}
