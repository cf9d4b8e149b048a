package admin

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ateliercarvalho/atelier/internal/booking"
	"github.com/ateliercarvalho/atelier/internal/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var wizardNow = time.Date(2025, 3, 10, 11, 0, 0, 0, time.UTC)

type fakeSlots struct {
	mu    sync.Mutex
	days  map[string]*booking.DaySlots
	gates map[string]chan struct{}
	calls []string
	err   error
}

func (f *fakeSlots) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeSlots) TimeSlots(ctx context.Context, date string) (*booking.DaySlots, error) {
	f.mu.Lock()
	f.calls = append(f.calls, date)
	gate := f.gates[date]
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	if f.err != nil {
		return nil, f.err
	}
	if d, ok := f.days[date]; ok {
		return d, nil
	}
	return &booking.DaySlots{Date: date, TimeSlots: []string{}, IsAvailable: false}, nil
}

type fakeCreator struct {
	got []CreateAppointmentRequest
}

func (f *fakeCreator) Create(_ context.Context, req CreateAppointmentRequest) (*CreateAppointmentResponse, error) {
	f.got = append(f.got, req)
	return &CreateAppointmentResponse{AppointmentID: "apt-1"}, nil
}

func openDays() *fakeSlots {
	return &fakeSlots{days: map[string]*booking.DaySlots{
		"2025-03-12": {Date: "2025-03-12", TimeSlots: []string{"09:00", "10:00", "14:00"}, IsAvailable: true},
		"2025-03-13": {Date: "2025-03-13", TimeSlots: []string{"15:00"}, IsAvailable: true},
	}}
}

func newTestWizard(t *testing.T, slots SlotSource, creator AppointmentCreator) *Wizard {
	t.Helper()
	loc, err := time.LoadLocation("America/Sao_Paulo")
	require.NoError(t, err)
	return NewWizard(slots, creator, loc).WithClock(func() time.Time { return wizardNow })
}

func TestWizard_HappyPathBuildsRequest(t *testing.T) {
	creator := &fakeCreator{}
	w := newTestWizard(t, openDays(), creator)

	assert.False(t, w.CanProceed())
	require.NoError(t, w.SetDate(context.Background(), "2025-03-12"))
	require.NoError(t, w.Next())

	assert.ErrorIs(t, w.Next(), ErrStepIncomplete)
	require.NoError(t, w.SetTime("14:00"))
	require.NoError(t, w.Next())

	w.NewCustomer("Ana Costa", "(21) 98888-7777", true)
	require.NoError(t, w.Next())

	w.SetDetails("Marfim", catalog.DressFesta, false, 3)
	require.True(t, w.CanProceed())

	out, err := w.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "apt-1", out.AppointmentID)

	require.Len(t, creator.got, 1)
	req := creator.got[0]
	assert.Equal(t, "2025-03-12T17:00:00.000Z", req.ScheduledAt)
	assert.Equal(t, "Ana Costa", req.CustomerName)
	assert.Equal(t, "21988887777", req.CustomerPhone)
	assert.True(t, req.CreateUserAccount)
	assert.Equal(t, catalog.DressFesta, req.DressCategory)
	assert.False(t, req.WillBringCompanion)
	assert.Equal(t, 0, req.CompanionCount)
}

func TestWizard_ExistingCustomerAndCompanions(t *testing.T) {
	creator := &fakeCreator{}
	w := newTestWizard(t, openDays(), creator)

	require.NoError(t, w.SetDate(context.Background(), "2025-03-13"))
	require.NoError(t, w.Next())
	require.NoError(t, w.SetTime("15:00"))
	require.NoError(t, w.Next())
	w.SelectCustomer(Customer{CustomerID: "c1", Name: "Beatriz", Phone: "21977776666"})
	require.NoError(t, w.Next())
	w.SetDetails("Azul", catalog.DressCategory(9), true, 2)

	req, err := w.Request()
	require.NoError(t, err)
	assert.Equal(t, "Beatriz", req.CustomerName)
	assert.Equal(t, "21977776666", req.CustomerPhone)
	assert.Equal(t, catalog.DressNoiva, req.DressCategory)
	assert.Equal(t, 2, req.CompanionCount)
}

func TestWizard_DateChangeClearsTime(t *testing.T) {
	w := newTestWizard(t, openDays(), &fakeCreator{})

	require.NoError(t, w.SetDate(context.Background(), "2025-03-12"))
	require.NoError(t, w.SetTime("09:00"))

	require.NoError(t, w.SetDate(context.Background(), "2025-03-13"))
	assert.ErrorIs(t, w.SetTime("09:00"), ErrTimeNotOffered)

	_, err := w.Request()
	assert.ErrorIs(t, err, ErrStepIncomplete)
}

func TestWizard_ClosedDateReportsReason(t *testing.T) {
	w := newTestWizard(t, openDays(), &fakeCreator{})

	require.NoError(t, w.SetDate(context.Background(), "2025-03-16"))
	slots, reason := w.TimeSlots()
	assert.Empty(t, slots)
	assert.Equal(t, booking.ReasonUnavailable, reason)
}

func TestWizard_RejectsPastDate(t *testing.T) {
	w := newTestWizard(t, openDays(), &fakeCreator{})

	err := w.SetDate(context.Background(), "2025-03-09")
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, MsgPastDate, vErr.Message)
}

func TestWizard_StaleSlotLoadIsDiscarded(t *testing.T) {
	gate := make(chan struct{})
	slots := openDays()
	slots.gates = map[string]chan struct{}{"2025-03-12": gate}
	w := newTestWizard(t, slots, &fakeCreator{})

	done := make(chan error, 1)
	go func() { done <- w.SetDate(context.Background(), "2025-03-12") }()

	require.Eventually(t, func() bool { return slots.callCount() == 1 }, time.Second, time.Millisecond)
	require.NoError(t, w.SetDate(context.Background(), "2025-03-13"))
	close(gate)

	assert.ErrorIs(t, <-done, ErrWizardStale)
	got, _ := w.TimeSlots()
	assert.Equal(t, []string{"15:00"}, got)
}

func TestWizard_SlotLoadFailure(t *testing.T) {
	w := newTestWizard(t, &fakeSlots{err: errors.New("boom")}, &fakeCreator{})

	err := w.SetDate(context.Background(), "2025-03-12")
	assert.Error(t, err)
	got, _ := w.TimeSlots()
	assert.Empty(t, got)
}

func TestWizard_SubmitOnlyFromDetails(t *testing.T) {
	w := newTestWizard(t, openDays(), &fakeCreator{})
	require.NoError(t, w.SetDate(context.Background(), "2025-03-12"))

	_, err := w.Submit(context.Background())
	assert.ErrorIs(t, err, ErrStepIncomplete)

	w.Back()
	assert.Equal(t, StepDate, w.Step())
}
