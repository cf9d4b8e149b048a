package availability

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/ateliercarvalho/atelier/internal/booking"
	"github.com/ateliercarvalho/atelier/internal/catalog"
	"github.com/ateliercarvalho/atelier/pkg/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingBackend struct {
	booking.Backend
	daySlots int32
	months   int32
	services int32
}

func (b *countingBackend) Services(ctx context.Context) ([]catalog.ServiceType, error) {
	atomic.AddInt32(&b.services, 1)
	return b.Backend.Services(ctx)
}

func (b *countingBackend) DaySlots(ctx context.Context, serviceID, date string) (*booking.DaySlots, error) {
	atomic.AddInt32(&b.daySlots, 1)
	return b.Backend.DaySlots(ctx, serviceID, date)
}

func (b *countingBackend) MonthAvailability(ctx context.Context, req booking.MonthRequest) (*booking.MonthAvailability, error) {
	atomic.AddInt32(&b.months, 1)
	return b.Backend.MonthAvailability(ctx, req)
}

func newTestService(t *testing.T) (*Service, *countingBackend) {
	t.Helper()
	backend := &countingBackend{Backend: booking.NewMockBackend(logging.Discard())}
	return NewService(backend, NewCache(nil), logging.Discard()), backend
}

func TestService_InertQueries(t *testing.T) {
	svc, backend := newTestService(t)
	ctx := context.Background()

	_, err := svc.TimeSlots(ctx, "", "2030-01-08")
	assert.ErrorIs(t, err, ErrInert)
	_, err = svc.TimeSlots(ctx, "noiva", " ")
	assert.ErrorIs(t, err, ErrInert)
	_, err = svc.MonthAvailability(ctx, "", 1, 2030)
	assert.ErrorIs(t, err, ErrInert)
	_, err = svc.MonthAvailability(ctx, "noiva", 0, 2030)
	assert.ErrorIs(t, err, ErrInert)
	_, err = svc.ServiceByID(ctx, "")
	assert.ErrorIs(t, err, ErrInert)

	assert.Zero(t, atomic.LoadInt32(&backend.daySlots))
	assert.Zero(t, atomic.LoadInt32(&backend.months))
}

func TestService_CachesPerKey(t *testing.T) {
	svc, backend := newTestService(t)
	ctx := context.Background()

	_, err := svc.TimeSlots(ctx, "noiva", "2030-01-08")
	require.NoError(t, err)
	_, err = svc.TimeSlots(ctx, "noiva", "2030-01-08")
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&backend.daySlots))

	_, err = svc.TimeSlots(ctx, "debutante", "2030-01-08")
	require.NoError(t, err)
	_, err = svc.TimeSlots(ctx, "noiva", "2030-01-09")
	require.NoError(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&backend.daySlots))

	_, _ = svc.Services(ctx)
	_, _ = svc.Services(ctx)
	assert.Equal(t, int32(1), atomic.LoadInt32(&backend.services))
}

func TestService_CreateBookingInvalidatesAvailability(t *testing.T) {
	svc, backend := newTestService(t)
	ctx := context.Background()

	before, err := svc.TimeSlots(ctx, "debutante", "2030-01-08")
	require.NoError(t, err)
	require.Contains(t, before.TimeSlots, "10:00")
	_, err = svc.MonthAvailability(ctx, "debutante", 1, 2030)
	require.NoError(t, err)
	_, err = svc.Services(ctx)
	require.NoError(t, err)

	_, err = svc.CreateBooking(ctx, booking.FormData{ServiceID: "debutante", Date: "2030-01-08", Time: "10:00"})
	require.NoError(t, err)

	after, err := svc.TimeSlots(ctx, "debutante", "2030-01-08")
	require.NoError(t, err)
	assert.NotContains(t, after.TimeSlots, "10:00")
	assert.Equal(t, int32(2), atomic.LoadInt32(&backend.daySlots))

	_, _ = svc.MonthAvailability(ctx, "debutante", 1, 2030)
	assert.Equal(t, int32(2), atomic.LoadInt32(&backend.months))

	_, _ = svc.Services(ctx)
	assert.Equal(t, int32(1), atomic.LoadInt32(&backend.services), "catalog entries survive a booking")
}

func TestService_FailedBookingKeepsCache(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.TimeSlots(ctx, "noiva", "2030-01-08")
	require.NoError(t, err)
	_, err = svc.CreateBooking(ctx, booking.FormData{ServiceID: "noiva", Date: "2030-01-08", Time: "10:00"})
	assert.ErrorIs(t, err, booking.ErrSlotUnavailable)
	assert.Equal(t, 1, svc.Cache().Len())
}

type shapeBackend struct {
	booking.Backend
}

func (shapeBackend) MonthAvailability(_ context.Context, req booking.MonthRequest) (*booking.MonthAvailability, error) {
	return &booking.MonthAvailability{ServiceInfo: catalog.ServiceType{ID: req.ServiceID}}, nil
}

func (shapeBackend) DaySlots(_ context.Context, serviceID, date string) (*booking.DaySlots, error) {
	return &booking.DaySlots{Date: date, TimeSlots: []string{"09:00"}, IsAvailable: true}, nil
}

func TestService_QueryShapesNeverShareKeys(t *testing.T) {
	svc := NewService(shapeBackend{}, NewCache(nil), logging.Discard())
	ctx := context.Background()

	month, err := svc.MonthAvailability(ctx, "timeSlots", 3, 2026)
	require.NoError(t, err)
	assert.Equal(t, "timeSlots", month.ServiceInfo.ID)

	var day *booking.DaySlots
	require.NotPanics(t, func() {
		day, err = svc.TimeSlots(ctx, "2026", "3")
	})
	require.NoError(t, err)
	assert.Equal(t, "3", day.Date)

	_, err = svc.TimeSlots(ctx, "a:b", "c")
	require.NoError(t, err)
	day, err = svc.TimeSlots(ctx, "a", "b:c")
	require.NoError(t, err)
	assert.Equal(t, "b:c", day.Date)
	assert.Equal(t, 4, svc.Cache().Len())
}
