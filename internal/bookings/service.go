package bookings

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/ateliercarvalho/atelier/internal/booking"
	"github.com/ateliercarvalho/atelier/internal/bookingform"
	"github.com/ateliercarvalho/atelier/pkg/logging"
)

var bookingsTracer = otel.Tracer("atelier.internal.bookings")

// Service keeps the ledger of bookings accepted through the site.
type Service struct {
	repo   *Repository
	logger *logging.Logger
}

func NewService(repo *Repository, logger *logging.Logger) *Service {
	if repo == nil {
		panic("bookings: repository required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{repo: repo, logger: logger}
}

// Record stores a successful form submission made against backend.
func (s *Service) Record(ctx context.Context, backend string, result *bookingform.Result) (*Submission, error) {
	ctx, span := bookingsTracer.Start(ctx, "bookings.record")
	defer span.End()
	span.SetAttributes(
		attribute.String("atelier.booking_id", result.Booking.ID),
		attribute.String("atelier.service_id", result.Request.ServiceID),
		attribute.String("atelier.backend", backend),
	)

	sub := NewSubmission(backend, result)
	if err := s.repo.Insert(ctx, &sub); err != nil {
		span.RecordError(err)
		return nil, err
	}
	s.logger.Info("booking recorded", "booking_id", sub.BookingID, "submission_id", sub.ID, "backend", backend)
	return &sub, nil
}

func (s *Service) Recent(ctx context.Context, limit int) ([]Submission, error) {
	ctx, span := bookingsTracer.Start(ctx, "bookings.recent")
	defer span.End()

	out, err := s.repo.Recent(ctx, limit)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return out, nil
}

// NewSubmission maps a form result to a ledger row.
func NewSubmission(backend string, result *bookingform.Result) Submission {
	req := result.Request
	scheduled, _ := time.Parse(time.RFC3339, booking.ScheduledAt(req.Date, req.Time))
	status := string(result.Booking.Status)
	if status == "" {
		status = string(booking.StatusPending)
	}
	return Submission{
		BookingID:     result.Booking.ID,
		Backend:       backend,
		ServiceID:     req.ServiceID,
		DressLabel:    result.Details.DressLabel,
		CustomerName:  req.Name,
		CustomerPhone: booking.Digits(req.Phone),
		Color:         req.Color,
		ScheduledAt:   scheduled,
		Companions:    req.CompanionsCount,
		Status:        status,
	}
}
