package catalog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSlots_Scenarios(t *testing.T) {
	w := DefaultWindow()
	cat := DefaultCatalog()

	// A 17:00 noiva fitting would end at 19:00, after close, so the list
	// stops at 15:00. The old site's generator stepped hourly whatever the
	// duration (09:00-16:00 for noiva); slots here follow the duration.
	assert.Equal(t, []string{"09:00", "11:00", "13:00", "15:00"}, cat.SlotsForService("noiva", w))
	assert.Equal(t,
		[]string{"09:00", "10:00", "11:00", "12:00", "13:00", "14:00", "15:00", "16:00", "17:00"},
		cat.SlotsForService("debutante", w))
	assert.Len(t, cat.SlotsForService("unknown", w), 9, "unknown services fall back to 60 minutes")
}

func TestGenerateSlots_Properties(t *testing.T) {
	windows := []Window{DefaultWindow(), {Open: 8*60 + 30, Close: 12 * 60}, {Open: 0, Close: 24 * 60}}
	for _, w := range windows {
		for _, d := range []int{15, 30, 45, 60, 90, 120, 180, 600} {
			slots := GenerateSlots(d, w)
			if len(slots) == 0 {
				assert.Greater(t, w.Open+d, w.Close)
				continue
			}
			first, err := ParseClock(slots[0])
			require.NoError(t, err)
			assert.Equal(t, w.Open, first, "first slot starts at open")
			prev := -1
			for _, s := range slots {
				m, err := ParseClock(s)
				require.NoError(t, err)
				assert.Greater(t, m, prev, "slots strictly increasing")
				assert.LessOrEqual(t, m+d, w.Close, "slot %s (%d min) ends after close", s, d)
				prev = m
			}
			assert.Greater(t, prev+2*d, w.Close, "no further slot fits")
		}
	}
}

func TestGenerateSlots_NonPositiveDuration(t *testing.T) {
	assert.Len(t, GenerateSlots(0, DefaultWindow()), 9)
	assert.Len(t, GenerateSlots(-30, DefaultWindow()), 9)
}

func TestParseWindow(t *testing.T) {
	w, err := ParseWindow("09:30", "12:00")
	require.NoError(t, err)
	assert.Equal(t, Window{Open: 570, Close: 720}, w)

	_, err = ParseWindow("18:00", "09:00")
	assert.Error(t, err)
	_, err = ParseWindow("9", "18:00")
	assert.Error(t, err)
	_, err = ParseClock("25:00")
	assert.Error(t, err)
	_, err = ParseClock("10:5")
	assert.Error(t, err)

	cfg := DefaultEstablishment()
	cfg.WorkingHours = WorkingHours{Start: "bad", End: "18:00"}
	assert.Equal(t, DefaultWindow(), cfg.Window())
}

func TestCatalogLookup(t *testing.T) {
	cat := DefaultCatalog()
	svc, ok := cat.Find(" Noiva ")
	require.True(t, ok)
	assert.Equal(t, 120, svc.DurationMinutes)

	cat[1].IsActive = false
	assert.Len(t, cat.Active(), 4)
	_, ok = cat.Find("missing")
	assert.False(t, ok)
}

func TestEstablishment(t *testing.T) {
	cfg := DefaultEstablishment()
	assert.False(t, cfg.IsWorkingDay(time.Sunday))
	assert.True(t, cfg.IsWorkingDay(time.Saturday))

	cfg.BlockedDates = []BlockedDate{{Date: "2025-12-25", Reason: "Natal"}}
	reason, ok := cfg.BlockedReason("2025-12-25")
	assert.True(t, ok)
	assert.Equal(t, "Natal", reason)
}

func TestLocaleFormatting(t *testing.T) {
	assert.Equal(t, "05 de março de 2025", LongDate(time.Date(2025, time.March, 5, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "Terça", DayName(time.Tuesday))
	assert.Equal(t, "2 hora(s)", DurationLabel(120))
	assert.Equal(t, "1.5 hora(s)", DurationLabel(90))
	assert.Equal(t, "45 minutos", DurationLabel(45))
	assert.Equal(t, "1 hora", DurationLabel(0))
}

func TestDressCategory(t *testing.T) {
	d, ok := ParseDressCategory("festa")
	require.True(t, ok)
	assert.Equal(t, DressFesta, d)
	assert.True(t, DressMadrinha.Valid())
	assert.False(t, DressCategory(7).Valid())
}
