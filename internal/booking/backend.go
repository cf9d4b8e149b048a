// Package booking holds the booking domain types and the backend strategy
// that serves them: an in-memory backend for offline work and a remote one
// talking to the atelier API.
package booking

import (
	"context"
	"errors"

	"github.com/ateliercarvalho/atelier/internal/catalog"
)

var (
	// ErrServiceNotFound is returned for unknown service ids.
	ErrServiceNotFound = errors.New("booking: service not found")
	// ErrSlotUnavailable is returned when the requested slot is taken or closed.
	ErrSlotUnavailable = errors.New("booking: slot unavailable")
	// ErrInvalidDate is returned for dates that are not YYYY-MM-DD.
	ErrInvalidDate = errors.New("booking: invalid date")
)

// Backend is the booking capability. Exactly one implementation is chosen at
// startup.
type Backend interface {
	// Name identifies the implementation ("mock" or "remote").
	Name() string

	// Services lists the active service catalog.
	Services(ctx context.Context) ([]catalog.ServiceType, error)

	// ServiceByID returns one service or ErrServiceNotFound.
	ServiceByID(ctx context.Context, id string) (*catalog.ServiceType, error)

	// Config returns the studio details.
	Config(ctx context.Context) (*catalog.EstablishmentConfig, error)

	// MonthAvailability projects the bookable dates of a month for a service.
	MonthAvailability(ctx context.Context, req MonthRequest) (*MonthAvailability, error)

	// DaySlots returns the open slots of one date. A closed date is not an
	// error: it comes back with IsAvailable=false and a reason.
	DaySlots(ctx context.Context, serviceID, date string) (*DaySlots, error)

	// CreateBooking submits a booking.
	CreateBooking(ctx context.Context, data FormData) (*Response, error)
}

// UserBookingLister is implemented by backends that can list a customer's
// own bookings.
type UserBookingLister interface {
	UserBookings(ctx context.Context, userID string) ([]Response, error)
}
