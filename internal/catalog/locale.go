package catalog

import (
	"fmt"
	"strconv"
	"time"
)

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

var dayNames = [...]string{"Domingo", "Segunda", "Terça", "Quarta", "Quinta", "Sexta", "Sábado"}

var monthNames = [...]string{
	"janeiro", "fevereiro", "março", "abril", "maio", "junho",
	"julho", "agosto", "setembro", "outubro", "novembro", "dezembro",
}

// DayName returns the pt-BR weekday name.
func DayName(day time.Weekday) string {
	return dayNames[day]
}

// LongDate renders a date as "dd de <mês> de yyyy".
func LongDate(t time.Time) string {
	return fmt.Sprintf("%02d de %s de %d", t.Day(), monthNames[t.Month()-1], t.Year())
}

// DurationLabel renders a duration in minutes for customer-facing text.
func DurationLabel(minutes int) string {
	switch {
	case minutes <= 0:
		return "1 hora"
	case minutes >= 60:
		return strconv.FormatFloat(float64(minutes)/60, 'f', -1, 64) + " hora(s)"
	default:
		return fmt.Sprintf("%d minutos", minutes)
	}
}
