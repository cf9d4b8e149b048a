package bookings

import (
	"context"
	"errors"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v4"

	"github.com/ateliercarvalho/atelier/internal/booking"
	"github.com/ateliercarvalho/atelier/internal/bookingform"
	"github.com/ateliercarvalho/atelier/pkg/logging"
)

func TestRepositoryInsertFillsIDAndTimestamp(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	scheduled := time.Date(2025, 3, 12, 14, 0, 0, 0, time.UTC)
	two := 2

	mock.ExpectExec("INSERT INTO booking_submissions").
		WithArgs(pgxmock.AnyArg(), "booking-1", "mock", "noiva", "Noiva", "Ana", "21999990000", "Marfim", scheduled, &two, "pending", now).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	repo := NewRepository(mock)
	repo.now = func() time.Time { return now }

	sub := &Submission{
		BookingID:     "booking-1",
		Backend:       "mock",
		ServiceID:     "noiva",
		DressLabel:    "Noiva",
		CustomerName:  "Ana",
		CustomerPhone: "21999990000",
		Color:         "Marfim",
		ScheduledAt:   scheduled,
		Companions:    &two,
		Status:        "pending",
	}
	if err := repo.Insert(context.Background(), sub); err != nil {
		t.Fatalf("Insert returned error: %v", err)
	}
	if sub.ID == "" {
		t.Fatalf("expected id to be assigned")
	}
	if !sub.CreatedAt.Equal(now) {
		t.Fatalf("created_at = %s, want %s", sub.CreatedAt, now)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRepositoryInsertWrapsErrors(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	mock.ExpectExec("INSERT INTO booking_submissions").WillReturnError(errors.New("connection reset"))

	err = NewRepository(mock).Insert(context.Background(), &Submission{BookingID: "b"})
	if err == nil {
		t.Fatalf("expected error")
	}
}

func TestRepositoryRecent(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	created := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	scheduled := time.Date(2025, 3, 12, 14, 0, 0, 0, time.UTC)
	rows := pgxmock.NewRows([]string{
		"id", "booking_id", "backend", "service_id", "dress_label", "customer_name",
		"customer_phone", "color", "scheduled_at", "companions", "status", "created_at",
	}).
		AddRow("a0f1", "booking-2", "remote", "madrinha", "Madrinha", "Bia", "21988887777", "Azul", scheduled, nil, "pending", created).
		AddRow("b1c2", "booking-1", "remote", "noiva", "Noiva", "Ana", "21999990000", "Marfim", scheduled, nil, "pending", created.Add(-time.Hour))

	mock.ExpectQuery("SELECT id, booking_id").WithArgs(defaultRecentLimit).WillReturnRows(rows)

	got, err := NewRepository(mock).Recent(context.Background(), 0)
	if err != nil {
		t.Fatalf("Recent returned error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].BookingID != "booking-2" || got[1].CustomerName != "Ana" {
		t.Fatalf("unexpected rows %#v", got)
	}
	if got[0].Companions != nil {
		t.Fatalf("expected nil companions")
	}
}

func TestServiceRecordMapsFormResult(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	scheduled := time.Date(2025, 3, 12, 14, 0, 0, 0, time.UTC)
	mock.ExpectExec("INSERT INTO booking_submissions").
		WithArgs(pgxmock.AnyArg(), "booking-9", "remote", "outro", "Vestido de formatura", "Ana", "21999990000", "Verde", scheduled, (*int)(nil), "pending", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	svc := NewService(NewRepository(mock), logging.Discard())
	sub, err := svc.Record(context.Background(), "remote", &bookingform.Result{
		Booking: booking.Response{ID: "booking-9", Status: booking.StatusPending},
		Request: booking.FormData{
			Name:      "Ana",
			Phone:     "(21) 99999-0000",
			ServiceID: "outro",
			Color:     "Verde",
			Date:      "2025-03-12",
			Time:      "14:00",
		},
		Details: bookingform.SummaryInput{DressLabel: "Vestido de formatura"},
	})
	if err != nil {
		t.Fatalf("Record returned error: %v", err)
	}
	if sub.BookingID != "booking-9" {
		t.Fatalf("booking id = %s", sub.BookingID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
