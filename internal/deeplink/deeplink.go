// Package deeplink builds outbound links that open a messaging app with a
// pre-filled message.
package deeplink

import (
	"errors"
	"net/url"
	"strings"
)

// DefaultHost is the WhatsApp click-to-chat host.
const DefaultHost = "wa.me"

// ErrNoContact is returned when no contact id is configured.
var ErrNoContact = errors.New("deeplink: contact id is empty")

// Builder renders links for one messaging host.
type Builder struct {
	host string
}

func NewBuilder(host string) *Builder {
	host = strings.Trim(strings.TrimSpace(host), "/")
	host = strings.TrimPrefix(strings.TrimPrefix(host, "https://"), "http://")
	if host == "" {
		host = DefaultHost
	}
	return &Builder{host: host}
}

// Link returns https://<host>/<contact>?text=<encoded text>. Non-digits are
// dropped from the contact id.
func (b *Builder) Link(contact, text string) (string, error) {
	id := digits(contact)
	if id == "" {
		return "", ErrNoContact
	}
	return "https://" + b.host + "/" + id + "?text=" + EncodeComponent(text), nil
}

// WhatsApp is NewBuilder(host).Link(contact, text).
func WhatsApp(host, contact, text string) (string, error) {
	return NewBuilder(host).Link(contact, text)
}

// EncodeComponent percent-encodes s for a query value, with spaces as %20.
func EncodeComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

func digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
