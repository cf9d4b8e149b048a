package catalog

import (
	"fmt"
	"strconv"
	"strings"
)

// Window is a business window in minutes since midnight.
type Window struct {
	Open  int
	Close int
}

// DefaultWindow is 09:00-18:00.
func DefaultWindow() Window {
	return Window{Open: 9 * 60, Close: 18 * 60}
}

// ParseWindow builds a window from two "HH:MM" strings.
func ParseWindow(open, close string) (Window, error) {
	o, err := ParseClock(open)
	if err != nil {
		return Window{}, err
	}
	c, err := ParseClock(close)
	if err != nil {
		return Window{}, err
	}
	if c <= o {
		return Window{}, fmt.Errorf("catalog: window closes at %s before it opens at %s", close, open)
	}
	return Window{Open: o, Close: c}, nil
}

// ParseClock converts "HH:MM" to minutes since midnight.
func ParseClock(value string) (int, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(value), ":")
	if !ok {
		return 0, fmt.Errorf("catalog: invalid clock %q", value)
	}
	h, err := strconv.Atoi(hh)
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("catalog: invalid hour in %q", value)
	}
	m, err := strconv.Atoi(mm)
	if err != nil || m < 0 || m > 59 || len(mm) != 2 {
		return 0, fmt.Errorf("catalog: invalid minute in %q", value)
	}
	return h*60 + m, nil
}

// FormatClock renders minutes since midnight as "HH:MM".
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// GenerateSlots returns the slot start times for a service of the given
// duration: first slot at the window open, spaced by the duration, and no
// slot ending after the window close.
func GenerateSlots(durationMinutes int, w Window) []string {
	if durationMinutes <= 0 {
		durationMinutes = DefaultDurationMinutes
	}
	slots := make([]string, 0, (w.Close-w.Open)/durationMinutes)
	for start := w.Open; start+durationMinutes <= w.Close; start += durationMinutes {
		slots = append(slots, FormatClock(start))
	}
	return slots
}

// SlotsForService generates the slots for a catalog service inside w.
func (c Catalog) SlotsForService(id string, w Window) []string {
	return GenerateSlots(c.DurationFor(id), w)
}
