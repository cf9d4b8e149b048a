// Package admin holds the back-office workflows: customer and appointment
// management, studio settings, the appointment wizard and the dashboard.
package admin

import (
	"time"

	"github.com/ateliercarvalho/atelier/internal/catalog"
)

type Customer struct {
	CustomerID              string  `json:"customerId"`
	Name                    string  `json:"name"`
	Phone                   string  `json:"phone"`
	Email                   *string `json:"email"`
	TaxNumber               *string `json:"taxNumber"`
	HasCompleteRegistration bool    `json:"hasCompleteRegistration"`
	HasUserAccount          bool    `json:"hasUserAccount"`
	UserID                  *string `json:"userId"`
	UserEmail               *string `json:"userEmail"`
	IsUserActive            *bool   `json:"isUserActive"`
}

type CreateCustomerRequest struct {
	Name              string `json:"name"`
	Phone             string `json:"phone"`
	Email             string `json:"email,omitempty"`
	TaxNumber         string `json:"taxNumber,omitempty"`
	CreateUserAccount bool   `json:"createUserAccount"`
	Password          string `json:"password,omitempty"`
}

type CreateCustomerResponse struct {
	CustomerID         string  `json:"customerId"`
	UserID             *string `json:"userId"`
	UserAccountCreated bool    `json:"userAccountCreated"`
	Message            string  `json:"message"`
}

type UpdateCustomerRequest struct {
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	Email     string `json:"email,omitempty"`
	TaxNumber string `json:"taxNumber,omitempty"`
}

type FittingDetails struct {
	ColorDress         string `json:"colorDress"`
	DressCategory      string `json:"dressCategory"`
	WillBringCompanion bool   `json:"willBringCompanion"`
	CompanionCount     *int   `json:"companionCount"`
}

type Appointment struct {
	ID             string          `json:"id"`
	CustomerID     string          `json:"customerId"`
	CustomerName   string          `json:"customerName"`
	ScheduledAt    string          `json:"scheduledAt"`
	Duration       string          `json:"duration"`
	Type           string          `json:"type"`
	Status         string          `json:"status"`
	FittingDetails *FittingDetails `json:"fittingDetails"`
}

// Start parses ScheduledAt; the zero time means it could not be read.
func (a Appointment) Start() time.Time {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, a.ScheduledAt); err == nil {
			return t
		}
	}
	return time.Time{}
}

type AppointmentsResponse struct {
	Appointments []Appointment `json:"appointments"`
	TotalCount   int           `json:"totalCount"`
	StartDate    string        `json:"startDate"`
	EndDate      string        `json:"endDate"`
}

type CreateAppointmentRequest struct {
	ScheduledAt        string                `json:"scheduledAt"`
	CustomerName       string                `json:"customerName"`
	CustomerPhone      string                `json:"customerPhone"`
	CreateUserAccount  bool                  `json:"createUserAccount"`
	ColorDress         string                `json:"colorDress"`
	DressCategory      catalog.DressCategory `json:"dressCategory"`
	WillBringCompanion bool                  `json:"willBringCompanion"`
	CompanionCount     int                   `json:"companionCount"`
}

type CreateAppointmentResponse struct {
	AppointmentID string `json:"appointmentId"`
}

type StudioInfo struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	WhatsApp    string `json:"whatsApp"`
	Address     string `json:"address"`
	Description string `json:"description"`
}

type NotificationSettings struct {
	ID                           string `json:"id,omitempty"`
	EmailNotificationsEnabled    bool   `json:"emailNotificationsEnabled"`
	WhatsAppNotificationsEnabled bool   `json:"whatsAppNotificationsEnabled"`
	DailyReportEnabled           bool   `json:"dailyReportEnabled"`
	NewAppointmentAlertEnabled   bool   `json:"newAppointmentAlertEnabled"`
}

type GeneralSettings struct {
	StudioInfo    StudioInfo           `json:"studioInfo"`
	Notifications NotificationSettings `json:"notifications"`
}

// ValidationError is input rejected before reaching the admin API.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return "admin: " + e.Field + ": " + e.Message
}
