package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ateliercarvalho/atelier/internal/catalog"
	"github.com/ateliercarvalho/atelier/pkg/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Monday 2025-03-10, 08:00 UTC.
var fixedNow = time.Date(2025, time.March, 10, 8, 0, 0, 0, time.UTC)

func newMock(t *testing.T, opts ...MockOption) *MockBackend {
	t.Helper()
	opts = append([]MockOption{WithClock(func() time.Time { return fixedNow })}, opts...)
	return NewMockBackend(logging.Discard(), opts...)
}

func TestMockBackend_DaySlots(t *testing.T) {
	m := newMock(t)
	ctx := context.Background()

	day, err := m.DaySlots(ctx, "noiva", "2025-03-11")
	require.NoError(t, err)
	assert.True(t, day.IsAvailable)
	assert.Equal(t, []string{"09:00", "11:00", "13:00", "15:00"}, day.TimeSlots)

	day, err = m.DaySlots(ctx, "debutante", "2025-03-11")
	require.NoError(t, err)
	assert.Len(t, day.TimeSlots, 9)
}

func TestMockBackend_ClosedDatesCarryReason(t *testing.T) {
	cfg := catalog.DefaultEstablishment()
	cfg.BlockedDates = []catalog.BlockedDate{{Date: "2025-03-12", Reason: "Feriado"}, {Date: "2025-03-13"}}
	m := newMock(t, WithEstablishment(cfg))
	ctx := context.Background()

	tests := []struct {
		date   string
		reason string
	}{
		{"2025-03-07", ReasonPastDate},
		{"2025-03-16", ReasonClosedWeekday},
		{"2025-03-12", "Feriado"},
		{"2025-03-13", ReasonUnavailable},
	}
	for _, tt := range tests {
		day, err := m.DaySlots(ctx, "madrinha", tt.date)
		require.NoError(t, err, tt.date)
		assert.False(t, day.IsAvailable, tt.date)
		assert.Empty(t, day.TimeSlots, tt.date)
		assert.NotNil(t, day.TimeSlots, tt.date)
		assert.Equal(t, tt.reason, day.Reason, tt.date)
	}
}

func TestMockBackend_TodayHidesStartedSlots(t *testing.T) {
	m := newMock(t, WithClock(func() time.Time { return time.Date(2025, time.March, 10, 12, 30, 0, 0, time.UTC) }))
	day, err := m.DaySlots(context.Background(), "debutante", "2025-03-10")
	require.NoError(t, err)
	assert.Equal(t, []string{"13:00", "14:00", "15:00", "16:00", "17:00"}, day.TimeSlots)
}

func TestMockBackend_BookingRemovesOverlappingSlots(t *testing.T) {
	m := newMock(t)
	ctx := context.Background()

	resp, err := m.CreateBooking(ctx, FormData{Name: "Ana", Phone: "21982495227", ServiceID: "noiva", Color: "Branco", Date: "2025-03-11", Time: "11:00"})
	require.NoError(t, err)
	assert.Equal(t, StatusPending, resp.Status)
	assert.Contains(t, resp.ID, "booking-")
	assert.Equal(t, mockBookingMessage, resp.Message)

	day, err := m.DaySlots(ctx, "debutante", "2025-03-11")
	require.NoError(t, err)
	assert.NotContains(t, day.TimeSlots, "11:00")
	assert.NotContains(t, day.TimeSlots, "12:00")
	assert.Contains(t, day.TimeSlots, "13:00")

	_, err = m.CreateBooking(ctx, FormData{ServiceID: "debutante", Date: "2025-03-11", Time: "12:00"})
	assert.ErrorIs(t, err, ErrSlotUnavailable)
}

func TestMockBackend_CreateBookingRejectsBadSlots(t *testing.T) {
	m := newMock(t)
	ctx := context.Background()

	_, err := m.CreateBooking(ctx, FormData{ServiceID: "noiva", Date: "2025-03-11", Time: "10:00"})
	assert.ErrorIs(t, err, ErrSlotUnavailable, "not a noiva slot")
	_, err = m.CreateBooking(ctx, FormData{ServiceID: "noiva", Date: "2025-03-16", Time: "09:00"})
	assert.ErrorIs(t, err, ErrSlotUnavailable, "sunday")
	_, err = m.CreateBooking(ctx, FormData{ServiceID: "noiva", Date: "11/03/2025", Time: "09:00"})
	assert.True(t, errors.Is(err, ErrInvalidDate))
}

func TestMockBackend_MonthAvailability(t *testing.T) {
	m := newMock(t)
	ctx := context.Background()

	_, err := m.CreateBooking(ctx, FormData{ServiceID: "debutante", Date: "2025-03-11", Time: "09:00"})
	require.NoError(t, err)

	month, err := m.MonthAvailability(ctx, MonthRequest{ServiceID: "debutante", Month: 3, Year: 2025})
	require.NoError(t, err)
	assert.Equal(t, "debutante", month.ServiceInfo.ID)
	// March 10..31 2025 without Sundays (16, 23, 30).
	require.Len(t, month.AvailableDates, 19)
	first := month.AvailableDates[0]
	assert.Equal(t, "2025-03-10", first.Date)
	assert.Equal(t, "Segunda", first.DayOfWeek)

	second := month.AvailableDates[1]
	require.Equal(t, "2025-03-11", second.Date)
	assert.Equal(t, "2025-03-11-09:00", second.TimeSlots[0].ID)
	assert.False(t, second.TimeSlots[0].Available)
	assert.True(t, second.TimeSlots[1].Available)

	_, err = m.MonthAvailability(ctx, MonthRequest{ServiceID: "debutante", Month: 13, Year: 2025})
	assert.Error(t, err)
	_, err = m.MonthAvailability(ctx, MonthRequest{ServiceID: "nope", Month: 3, Year: 2025})
	assert.ErrorIs(t, err, ErrServiceNotFound)
}

func TestMockBackend_CatalogAndUserBookings(t *testing.T) {
	m := newMock(t)
	ctx := context.Background()

	services, err := m.Services(ctx)
	require.NoError(t, err)
	assert.Len(t, services, 5)

	_, err = m.ServiceByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrServiceNotFound)

	cfg, err := m.Config(ctx)
	require.NoError(t, err)
	assert.Equal(t, "5521982495227", cfg.WhatsAppNumber)

	_, err = m.CreateBooking(ctx, FormData{ServiceID: "madrinha", Date: "2025-03-11", Time: "15:00", UserID: "u-1"})
	require.NoError(t, err)
	_, err = m.CreateBooking(ctx, FormData{ServiceID: "madrinha", Date: "2025-03-11", Time: "16:00"})
	require.NoError(t, err)

	mine, err := m.UserBookings(ctx, "u-1")
	require.NoError(t, err)
	assert.Len(t, mine, 1)
}
