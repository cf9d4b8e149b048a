package booking

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// DefaultRegion is used to parse phone numbers typed without a country code.
const DefaultRegion = "BR"

// Digits strips everything but ASCII digits.
func Digits(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ValidPhone reports whether raw parses as a valid number for the region.
func ValidPhone(raw string) bool {
	num, err := phonenumbers.Parse(raw, DefaultRegion)
	if err != nil {
		return false
	}
	return phonenumbers.IsValidNumber(num)
}

// DisplayPhone renders raw in national format, e.g. "(21) 98249-5227".
// Unparseable input is returned unchanged.
func DisplayPhone(raw string) string {
	num, err := phonenumbers.Parse(raw, DefaultRegion)
	if err != nil || !phonenumbers.IsValidNumber(num) {
		return strings.TrimSpace(raw)
	}
	return phonenumbers.Format(num, phonenumbers.NATIONAL)
}
