package booking

import (
	"strings"

	"github.com/ateliercarvalho/atelier/internal/catalog"
)

// OtherDressType is the dropdown value that asks for a free-text dress type.
const OtherDressType = "outros"

// AppointmentRequest is the body of POST /Appointment on the atelier API.
type AppointmentRequest struct {
	ScheduledAt        string `json:"scheduledAt"`
	CustomerName       string `json:"customerName"`
	CustomerPhone      string `json:"customerPhone"`
	CreateUserAccount  bool   `json:"createUserAccount"`
	ColorDress         string `json:"colorDress"`
	DressCategory      string `json:"dressCategory"`
	WillBringCompanion bool   `json:"willBringCompanion"`
	CompanionCount     *int   `json:"companionCount,omitempty"`
	UserID             string `json:"userId,omitempty"`
}

// NewAppointmentRequest maps a form submission onto the backend contract.
// The companion count is only carried when HasCompanions is set.
func NewAppointmentRequest(data FormData, services catalog.Catalog) AppointmentRequest {
	req := AppointmentRequest{
		ScheduledAt:        ScheduledAt(data.Date, data.Time),
		CustomerName:       strings.TrimSpace(data.Name),
		CustomerPhone:      Digits(data.Phone),
		CreateUserAccount:  data.CreateAccount,
		ColorDress:         strings.TrimSpace(data.Color),
		DressCategory:      DressLabel(data, services),
		WillBringCompanion: data.HasCompanions,
		UserID:             data.UserID,
	}
	if data.HasCompanions && data.CompanionsCount != nil {
		n := *data.CompanionsCount
		req.CompanionCount = &n
	}
	return req
}

// ScheduledAt renders the backend timestamp for a date and "HH:MM" time.
func ScheduledAt(date, clock string) string {
	return date + "T" + clock + ":00.000Z"
}

// DressLabel resolves what the customer is being fitted for: the dress type
// when the form has one, otherwise the service label, with free text
// replacing the "other" choices.
func DressLabel(data FormData, services catalog.Catalog) string {
	if dress := strings.TrimSpace(data.DressType); dress != "" {
		if strings.EqualFold(dress, OtherDressType) {
			return strings.TrimSpace(data.OtherDressType)
		}
		return dress
	}
	if strings.EqualFold(strings.TrimSpace(data.ServiceID), catalog.OtherServiceID) {
		return strings.TrimSpace(data.OtherService)
	}
	if svc, ok := services.Find(data.ServiceID); ok {
		return svc.Label
	}
	return strings.TrimSpace(data.ServiceID)
}
