package booking

import (
	"encoding/json"
	"testing"

	"github.com/ateliercarvalho/atelier/internal/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(n int) *int { return &n }

func TestNewAppointmentRequest_Companions(t *testing.T) {
	base := FormData{
		Name:      " Ana Souza ",
		Phone:     "(21) 98249-5227",
		ServiceID: "noiva",
		Color:     "Marfim",
		Date:      "2025-03-11",
		Time:      "09:00",
	}

	with := base
	with.HasCompanions = true
	with.CompanionsCount = intPtr(3)
	req := NewAppointmentRequest(with, catalog.DefaultCatalog())
	require.NotNil(t, req.CompanionCount)
	assert.Equal(t, 3, *req.CompanionCount)
	assert.True(t, req.WillBringCompanion)

	without := base
	without.HasCompanions = false
	without.CompanionsCount = intPtr(3)
	req = NewAppointmentRequest(without, catalog.DefaultCatalog())
	assert.Nil(t, req.CompanionCount)

	raw, err := json.Marshal(req)
	require.NoError(t, err)
	var fields map[string]any
	require.NoError(t, json.Unmarshal(raw, &fields))
	_, present := fields["companionCount"]
	assert.False(t, present, "companion count must be absent when not bringing companions")
	assert.Equal(t, false, fields["willBringCompanion"])
}

func TestNewAppointmentRequest_Mapping(t *testing.T) {
	req := NewAppointmentRequest(FormData{
		Name:          "Ana",
		Phone:         "+55 (21) 98249-5227",
		ServiceID:     "debutante",
		Color:         "Rosa",
		Date:          "2025-03-11",
		Time:          "14:00",
		CreateAccount: true,
	}, catalog.DefaultCatalog())

	assert.Equal(t, "2025-03-11T14:00:00.000Z", req.ScheduledAt)
	assert.Equal(t, "5521982495227", req.CustomerPhone)
	assert.Equal(t, "Debutante", req.DressCategory)
	assert.True(t, req.CreateUserAccount)
}

func TestDressLabel(t *testing.T) {
	cat := catalog.DefaultCatalog()
	tests := []struct {
		name string
		data FormData
		want string
	}{
		{"dress type", FormData{DressType: "Festa", ServiceID: "noiva"}, "Festa"},
		{"other dress type", FormData{DressType: "outros", OtherDressType: " Civil "}, "Civil"},
		{"service label", FormData{ServiceID: "madrinha"}, "Madrinha"},
		{"other service", FormData{ServiceID: "outro", OtherService: "Formatura"}, "Formatura"},
		{"unknown service", FormData{ServiceID: "gala"}, "gala"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DressLabel(tt.data, cat))
		})
	}
}

func TestPhoneHelpers(t *testing.T) {
	assert.Equal(t, "21982495227", Digits("(21) 98249-5227"))
	assert.True(t, ValidPhone("(21) 98249-5227"))
	assert.False(t, ValidPhone("123"))
	assert.Equal(t, "(21) 98249-5227", DisplayPhone("21982495227"))
	assert.Equal(t, "abc", DisplayPhone(" abc "))
}

func TestDaySlotsHasSlot(t *testing.T) {
	day := DaySlots{TimeSlots: []string{"09:00"}, IsAvailable: true}
	assert.True(t, day.HasSlot("09:00"))
	assert.False(t, day.HasSlot("10:00"))
	day.IsAvailable = false
	assert.False(t, day.HasSlot("09:00"))
}
