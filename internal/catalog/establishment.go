package catalog

import "time"

// WorkingHours is the daily business window as "HH:MM" strings.
type WorkingHours struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// EstablishmentConfig describes the studio. WorkingDays uses 0 for Sunday.
type EstablishmentConfig struct {
	Name           string        `json:"name"`
	Phone          string        `json:"phone"`
	WhatsAppNumber string        `json:"whatsappNumber"`
	Address        string        `json:"address"`
	Instagram      string        `json:"instagram"`
	WorkingHours   WorkingHours  `json:"workingHours"`
	WorkingDays    []int         `json:"workingDays"`
	BlockedDates   []BlockedDate `json:"blockedDates,omitempty"`
}

// BlockedDate closes a whole day, e.g. a holiday.
type BlockedDate struct {
	Date   string `json:"date"`
	Reason string `json:"reason"`
}

// DefaultEstablishment returns the studio's published details.
func DefaultEstablishment() EstablishmentConfig {
	return EstablishmentConfig{
		Name:           "Atelier Carvalho",
		Phone:          "(21) 98249-5227",
		WhatsAppNumber: "5521982495227",
		Address:        "R. Cel. Costa Pereira, 100, Vila Ibirapitanga, Itaguaí - RJ, 23815-040",
		Instagram:      "https://www.instagram.com/ateliecarvalho.oficial",
		WorkingHours:   WorkingHours{Start: "09:00", End: "18:00"},
		WorkingDays:    []int{1, 2, 3, 4, 5, 6},
	}
}

// IsWorkingDay reports whether the weekday is open.
func (c EstablishmentConfig) IsWorkingDay(day time.Weekday) bool {
	for _, d := range c.WorkingDays {
		if d == int(day) {
			return true
		}
	}
	return false
}

// BlockedReason returns the reason date ("YYYY-MM-DD") is blocked, if it is.
func (c EstablishmentConfig) BlockedReason(date string) (string, bool) {
	for _, b := range c.BlockedDates {
		if b.Date == date {
			return b.Reason, true
		}
	}
	return "", false
}

// Window parses the working hours, falling back to 09:00-18:00.
func (c EstablishmentConfig) Window() Window {
	w, err := ParseWindow(c.WorkingHours.Start, c.WorkingHours.End)
	if err != nil {
		return DefaultWindow()
	}
	return w
}
