package bookingform

import (
	"strings"

	"github.com/ateliercarvalho/atelier/internal/catalog"
)

// DressTypeMode selects how the customer says what she is being fitted for.
type DressTypeMode string

const (
	// DressTypeServices shows the service catalog as fixed categories; the
	// "outro" service asks for free text.
	DressTypeServices DressTypeMode = "services"
	// DressTypeDropdown shows a dress-type dropdown; "outros" asks for free
	// text and each option maps onto a catalog service.
	DressTypeDropdown DressTypeMode = "dropdown"
)

// Config says which optional parts of the form are enabled.
type Config struct {
	DressType     DressTypeMode
	Companions    bool
	AccountToggle bool
	// DressOptions maps dropdown labels to service ids. Only used with
	// DressTypeDropdown.
	DressOptions map[string]string
}

// DefaultConfig is the complete booking form: service categories, the
// companions question and the account toggle.
func DefaultConfig() Config {
	return Config{
		DressType:     DressTypeServices,
		Companions:    true,
		AccountToggle: true,
	}
}

// LandingConfig is the short form with only the required fields.
func LandingConfig() Config {
	return Config{DressType: DressTypeServices}
}

// DropdownConfig is the dress-type dropdown variant.
func DropdownConfig() Config {
	return Config{
		DressType:     DressTypeDropdown,
		Companions:    true,
		AccountToggle: true,
		DressOptions: map[string]string{
			"noiva":     "noiva",
			"debutante": "debutante",
			"madrinha":  "madrinha",
			"daminha":   "daminha",
			"festa":     catalog.OtherServiceID,
		},
	}
}

// serviceForDress maps a dropdown value onto a service id.
func (c Config) serviceForDress(dress string) string {
	key := strings.ToLower(strings.TrimSpace(dress))
	if key == "" {
		return ""
	}
	if key == "outros" {
		return catalog.OtherServiceID
	}
	if id, ok := c.DressOptions[key]; ok {
		return id
	}
	return catalog.OtherServiceID
}
