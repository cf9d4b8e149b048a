package catalog

import "strings"

// DressCategory is the admin backend's numeric fitting category.
type DressCategory int

const (
	DressNoiva    DressCategory = 1
	DressFesta    DressCategory = 2
	DressMadrinha DressCategory = 3
)

func (d DressCategory) String() string {
	switch d {
	case DressNoiva:
		return "Noiva"
	case DressFesta:
		return "Festa"
	case DressMadrinha:
		return "Madrinha"
	default:
		return ""
	}
}

// Valid reports whether d is one of the known categories.
func (d DressCategory) Valid() bool {
	return d.String() != ""
}

// DressCategories lists the categories in display order.
func DressCategories() []DressCategory {
	return []DressCategory{DressNoiva, DressFesta, DressMadrinha}
}

// ParseDressCategory accepts a label ("Noiva", "festa").
func ParseDressCategory(label string) (DressCategory, bool) {
	for _, d := range DressCategories() {
		if strings.EqualFold(d.String(), strings.TrimSpace(label)) {
			return d, true
		}
	}
	return 0, false
}
