package bookingform

import (
	"fmt"
	"strings"
	"time"

	"github.com/ateliercarvalho/atelier/internal/catalog"
)

// SummaryInput is everything the confirmation message shows.
type SummaryInput struct {
	BookingID       string
	Name            string
	Phone           string
	DressLabel      string
	Color           string
	Companions      *int
	Date            time.Time
	Time            string
	DurationMinutes int
}

// Summary renders the message sent to the studio. A nil Companions renders
// "Irei sozinha" and no count.
func Summary(in SummaryInput) string {
	var b strings.Builder
	b.WriteString("Olá! Gostaria de agendar uma prova de vestido.\n\n")
	fmt.Fprintf(&b, "🎫 Código: %s\n", in.BookingID)
	fmt.Fprintf(&b, "👤 Nome: %s\n", in.Name)
	fmt.Fprintf(&b, "📱 Telefone: %s\n", in.Phone)
	fmt.Fprintf(&b, "✨ Tipo: %s\n", in.DressLabel)
	fmt.Fprintf(&b, "🎨 Cor: %s\n", in.Color)
	if in.Companions != nil {
		fmt.Fprintf(&b, "👥 Acompanhantes: %d pessoa(s)\n", *in.Companions)
	} else {
		b.WriteString("👥 Acompanhantes: Irei sozinha\n")
	}
	fmt.Fprintf(&b, "📅 Data preferida: %s\n", catalog.LongDate(in.Date))
	fmt.Fprintf(&b, "🕐 Horário: %s (duração: %s)\n\n", in.Time, catalog.DurationLabel(in.DurationMinutes))
	b.WriteString("Aguardo confirmação. Obrigada!")
	return b.String()
}
