package notify

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/ateliercarvalho/atelier/internal/bookingform"
	"github.com/ateliercarvalho/atelier/internal/catalog"
	"github.com/ateliercarvalho/atelier/pkg/logging"
)

// Service alerts the studio about new bookings.
type Service struct {
	email      EmailSender
	recipients []string
	studioName string
	logger     *logging.Logger
}

// NewService builds the alert service. With no recipients it does nothing.
func NewService(email EmailSender, recipients []string, studioName string, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	if studioName == "" {
		studioName = defaultFromName
	}
	clean := make([]string, 0, len(recipients))
	for _, r := range recipients {
		if r = strings.TrimSpace(r); r != "" {
			clean = append(clean, r)
		}
	}
	return &Service{email: email, recipients: clean, studioName: studioName, logger: logger}
}

// Enabled reports whether alerts will be sent.
func (s *Service) Enabled() bool {
	return s != nil && s.email != nil && len(s.recipients) > 0
}

// NotifyNewBooking emails every recipient. Each failure is logged; the
// returned error counts them.
func (s *Service) NotifyNewBooking(ctx context.Context, result *bookingform.Result) error {
	if !s.Enabled() {
		s.logger.Debug("notify: studio alerts not configured, skipping")
		return nil
	}
	in := result.Details
	subject := fmt.Sprintf("👗 Nova prova agendada - %s", in.Name)
	msg := EmailMessage{
		Subject: subject,
		Body:    FormatBookingAlert(s.studioName, in, result.DeepLink),
		HTML:    FormatBookingAlertHTML(s.studioName, in, result.DeepLink),
	}

	var failed int
	for _, to := range s.recipients {
		msg.To = to
		if err := s.email.Send(ctx, msg); err != nil {
			s.logger.Error("notify: failed to send booking alert", "error", err, "to", to, "booking_id", in.BookingID)
			failed++
			continue
		}
		s.logger.Info("notify: booking alert sent", "to", to, "booking_id", in.BookingID)
	}
	if failed > 0 {
		return fmt.Errorf("notify: %d booking alert(s) failed", failed)
	}
	return nil
}

func companionsText(n *int) string {
	if n == nil {
		return "Sozinha"
	}
	return fmt.Sprintf("%d pessoa(s)", *n)
}

func whenText(in bookingform.SummaryInput) string {
	if in.Date.IsZero() {
		return in.Time
	}
	return fmt.Sprintf("%s, %s às %s (%s)", catalog.DayName(in.Date.Weekday()), catalog.LongDate(in.Date), in.Time, catalog.DurationLabel(in.DurationMinutes))
}

// FormatBookingAlert is the plain-text studio alert.
func FormatBookingAlert(studio string, in bookingform.SummaryInput, link string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Nova prova de vestido agendada pelo site.\n\n")
	fmt.Fprintf(&b, "Código: %s\n", in.BookingID)
	fmt.Fprintf(&b, "Cliente: %s\n", in.Name)
	fmt.Fprintf(&b, "Telefone: %s\n", in.Phone)
	fmt.Fprintf(&b, "Tipo: %s\n", in.DressLabel)
	fmt.Fprintf(&b, "Cor: %s\n", in.Color)
	fmt.Fprintf(&b, "Acompanhantes: %s\n", companionsText(in.Companions))
	fmt.Fprintf(&b, "Quando: %s\n", whenText(in))
	if link != "" {
		fmt.Fprintf(&b, "\nConversa no WhatsApp: %s\n", link)
	}
	fmt.Fprintf(&b, "\nConfirme o horário com a cliente.\n— %s", studio)
	return b.String()
}

const alertRow = `<tr><td style="padding:6px 12px;font-weight:bold;">%s</td><td style="padding:6px 12px;">%s</td></tr>`

// FormatBookingAlertHTML is the HTML studio alert. All values are escaped.
func FormatBookingAlertHTML(studio string, in bookingform.SummaryInput, link string) string {
	rows := []string{
		fmt.Sprintf(alertRow, "Código", html.EscapeString(in.BookingID)),
		fmt.Sprintf(alertRow, "Cliente", html.EscapeString(in.Name)),
		fmt.Sprintf(alertRow, "Telefone", html.EscapeString(in.Phone)),
		fmt.Sprintf(alertRow, "Tipo", html.EscapeString(in.DressLabel)),
		fmt.Sprintf(alertRow, "Cor", html.EscapeString(in.Color)),
		fmt.Sprintf(alertRow, "Acompanhantes", html.EscapeString(companionsText(in.Companions))),
		fmt.Sprintf(alertRow, "Quando", html.EscapeString(whenText(in))),
	}
	action := ""
	if link != "" {
		action = fmt.Sprintf(`<p><a href="%s">Abrir conversa no WhatsApp</a></p>`, html.EscapeString(link))
	}
	return fmt.Sprintf(`<div style="font-family:sans-serif;max-width:600px;">
<h2 style="color:#8b5e3c;">Nova prova agendada</h2>
<table style="border-collapse:collapse;width:100%%;">
%s
</table>
%s<p style="color:#666;font-size:12px;">Confirme o horário com a cliente. — %s</p>
</div>`, strings.Join(rows, "\n"), action, html.EscapeString(studio))
}
