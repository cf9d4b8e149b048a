package catalog

import "strings"

// DefaultDurationMinutes applies to services with no usable duration.
const DefaultDurationMinutes = 60

// OtherServiceID marks the free-text service; its label comes from the customer.
const OtherServiceID = "outro"

// ServiceType is a bookable fitting category.
type ServiceType struct {
	ID              string `json:"id"`
	Label           string `json:"label"`
	Icon            string `json:"icon"`
	DurationMinutes int    `json:"durationMinutes"`
	IsActive        bool   `json:"isActive"`
}

// Duration returns the slot length in minutes, never less than one.
func (s ServiceType) Duration() int {
	if s.DurationMinutes <= 0 {
		return DefaultDurationMinutes
	}
	return s.DurationMinutes
}

// DurationLabel renders the duration the way the confirmation message shows it.
func (s ServiceType) DurationLabel() string {
	return DurationLabel(s.DurationMinutes)
}

// Catalog is an ordered list of services.
type Catalog []ServiceType

// DefaultCatalog returns the studio's standard fitting categories.
func DefaultCatalog() Catalog {
	return Catalog{
		{ID: "noiva", Label: "Noiva", Icon: "💍", DurationMinutes: 120, IsActive: true},
		{ID: "debutante", Label: "Debutante", Icon: "👑", DurationMinutes: 60, IsActive: true},
		{ID: "madrinha", Label: "Madrinha", Icon: "✨", DurationMinutes: 60, IsActive: true},
		{ID: "daminha", Label: "Daminha", Icon: "🌸", DurationMinutes: 60, IsActive: true},
		{ID: OtherServiceID, Label: "Outro", Icon: "🎀", DurationMinutes: 60, IsActive: true},
	}
}

// Find looks a service up by id, case-insensitively.
func (c Catalog) Find(id string) (ServiceType, bool) {
	id = strings.ToLower(strings.TrimSpace(id))
	for _, s := range c {
		if strings.ToLower(s.ID) == id {
			return s, true
		}
	}
	return ServiceType{}, false
}

// Active returns the services open for booking, preserving order.
func (c Catalog) Active() Catalog {
	out := make(Catalog, 0, len(c))
	for _, s := range c {
		if s.IsActive {
			out = append(out, s)
		}
	}
	return out
}

// DurationFor returns the duration of id, or the default when unknown.
func (c Catalog) DurationFor(id string) int {
	if s, ok := c.Find(id); ok {
		return s.Duration()
	}
	return DefaultDurationMinutes
}
