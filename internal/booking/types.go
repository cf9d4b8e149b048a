package booking

import (
	"time"

	"github.com/ateliercarvalho/atelier/internal/catalog"
)

// Status is the server-owned lifecycle of a booking.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
)

// FormData is one booking submission as collected from the customer.
type FormData struct {
	Name            string `json:"name"`
	Phone           string `json:"phone"`
	DressType       string `json:"dressType,omitempty"`
	OtherDressType  string `json:"otherDressType,omitempty"`
	ServiceID       string `json:"serviceId"`
	OtherService    string `json:"otherService,omitempty"`
	Color           string `json:"color"`
	Date            string `json:"date"`
	Time            string `json:"time"`
	HasCompanions   bool   `json:"hasCompanions"`
	CompanionsCount *int   `json:"companionsCount,omitempty"`
	CreateAccount   bool   `json:"createAccount"`
	UserID          string `json:"userId,omitempty"`
}

// Response is the backend's answer to a booking submission.
type Response struct {
	ID        string    `json:"id"`
	Status    Status    `json:"status"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

// TimeSlot is one slot on an available date.
type TimeSlot struct {
	ID        string `json:"id"`
	Time      string `json:"time"`
	Available bool   `json:"available"`
}

// AvailableDate is a bookable date with its slots.
type AvailableDate struct {
	Date      string     `json:"date"`
	DayOfWeek string     `json:"dayOfWeek"`
	TimeSlots []TimeSlot `json:"timeSlots"`
}

// MonthRequest asks for a service's availability in one month (1-12).
type MonthRequest struct {
	ServiceID string `json:"serviceId"`
	Month     int    `json:"month"`
	Year      int    `json:"year"`
}

// MonthAvailability is the month projection for one service.
type MonthAvailability struct {
	AvailableDates []AvailableDate     `json:"availableDates"`
	ServiceInfo    catalog.ServiceType `json:"serviceInfo"`
}

// DaySlots is the slot list for one date. IsAvailable=false means the date is
// not bookable at all; IsAvailable=true with no slots means fully booked.
type DaySlots struct {
	Date        string   `json:"date"`
	TimeSlots   []string `json:"timeSlots"`
	IsAvailable bool     `json:"isAvailable"`
	Reason      string   `json:"reason,omitempty"`
}

// HasSlot reports whether t is one of the listed slots.
func (d DaySlots) HasSlot(t string) bool {
	if !d.IsAvailable {
		return false
	}
	for _, s := range d.TimeSlots {
		if s == t {
			return true
		}
	}
	return false
}
