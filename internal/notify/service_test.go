package notify

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/ateliercarvalho/atelier/internal/bookingform"
	"github.com/ateliercarvalho/atelier/pkg/logging"
)

type recordingSender struct {
	sent    []EmailMessage
	failFor string
}

func (r *recordingSender) Send(_ context.Context, msg EmailMessage) error {
	r.sent = append(r.sent, msg)
	if msg.To == r.failFor {
		return errors.New("mailbox full")
	}
	return nil
}

func sampleResult() *bookingform.Result {
	two := 2
	return &bookingform.Result{
		DeepLink: "https://wa.me/5521982495227?text=Ol%C3%A1",
		Details: bookingform.SummaryInput{
			BookingID:       "booking-1",
			Name:            "Ana <Costa>",
			Phone:           "(21) 99999-0000",
			DressLabel:      "Noiva",
			Color:           "Marfim",
			Companions:      &two,
			Date:            time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC),
			Time:            "09:00",
			DurationMinutes: 120,
		},
	}
}

func TestNotifyNewBooking_SendsToEveryRecipient(t *testing.T) {
	sender := &recordingSender{}
	svc := NewService(sender, []string{"dona@example.com", " ", "agenda@example.com"}, "", logging.Discard())

	if err := svc.NotifyNewBooking(context.Background(), sampleResult()); err != nil {
		t.Fatalf("NotifyNewBooking() error = %v", err)
	}
	if len(sender.sent) != 2 {
		t.Fatalf("sent %d emails, want 2", len(sender.sent))
	}
	msg := sender.sent[0]
	if !strings.Contains(msg.Subject, "Ana <Costa>") {
		t.Errorf("subject = %q", msg.Subject)
	}
	if !strings.Contains(msg.Body, "Quando: Quarta, 12 de março de 2025 às 09:00 (2 hora(s))") {
		t.Errorf("body missing schedule line:\n%s", msg.Body)
	}
	if !strings.Contains(msg.Body, "Acompanhantes: 2 pessoa(s)") {
		t.Errorf("body missing companions:\n%s", msg.Body)
	}
	if strings.Contains(msg.HTML, "<Costa>") || !strings.Contains(msg.HTML, "&lt;Costa&gt;") {
		t.Errorf("html not escaped:\n%s", msg.HTML)
	}
}

func TestNotifyNewBooking_CountsFailures(t *testing.T) {
	sender := &recordingSender{failFor: "dona@example.com"}
	svc := NewService(sender, []string{"dona@example.com", "agenda@example.com"}, "Atelier", logging.Discard())

	err := svc.NotifyNewBooking(context.Background(), sampleResult())
	if err == nil || !strings.Contains(err.Error(), "1 booking alert") {
		t.Fatalf("error = %v", err)
	}
	if len(sender.sent) != 2 {
		t.Fatalf("expected both recipients attempted")
	}
}

func TestNotifyNewBooking_DisabledWithoutRecipients(t *testing.T) {
	sender := &recordingSender{}
	svc := NewService(sender, nil, "", logging.Discard())

	if svc.Enabled() {
		t.Fatal("expected disabled service")
	}
	if err := svc.NotifyNewBooking(context.Background(), sampleResult()); err != nil {
		t.Fatalf("NotifyNewBooking() error = %v", err)
	}
	if len(sender.sent) != 0 {
		t.Fatal("expected no emails")
	}
}

func TestFormatBookingAlert_Alone(t *testing.T) {
	in := sampleResult().Details
	in.Companions = nil
	text := FormatBookingAlert("Atelier Carvalho", in, "")
	if !strings.Contains(text, "Acompanhantes: Sozinha") {
		t.Errorf("unexpected text:\n%s", text)
	}
	if strings.Contains(text, "WhatsApp") {
		t.Errorf("expected no link line:\n%s", text)
	}
}
