package admin

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ateliercarvalho/atelier/internal/apiclient"
	"github.com/ateliercarvalho/atelier/internal/booking"
	"github.com/ateliercarvalho/atelier/pkg/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *apiclient.Client {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	return apiclient.New(ts.URL+"/api", apiclient.WithLogger(logging.Discard()))
}

func TestCustomerService_SearchEmptyListsAll(t *testing.T) {
	var paths []string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.RequestURI())
		_, _ = w.Write([]byte(`[{"customerId":"c1","name":"Ana","phone":"21999990000"}]`))
	})
	svc := NewCustomerService(client)

	all, err := svc.Search(context.Background(), "   ")
	require.NoError(t, err)
	require.Len(t, all, 1)

	_, err = svc.Search(context.Background(), "ana")
	require.NoError(t, err)

	assert.Equal(t, []string{"/api/customers", "/api/customers/search?filter=ana"}, paths)
}

func TestCustomerService_CreateValidates(t *testing.T) {
	called := false
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) { called = true })
	svc := NewCustomerService(client)

	tests := []struct {
		name  string
		req   CreateCustomerRequest
		field string
	}{
		{name: "missing name", req: CreateCustomerRequest{Phone: "(21) 99999-0000"}, field: "name"},
		{name: "bad phone", req: CreateCustomerRequest{Name: "Ana", Phone: "123"}, field: "phone"},
		{name: "account without password", req: CreateCustomerRequest{Name: "Ana", Phone: "(21) 99999-0000", CreateUserAccount: true}, field: "password"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tt.req)
			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tt.field, vErr.Field)
		})
	}
	assert.False(t, called)
}

func TestCustomerService_CreateSendsDigits(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body CreateCustomerRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "21999990000", body.Phone)
		assert.Empty(t, body.Password)
		_, _ = w.Write([]byte(`{"customerId":"c9","userAccountCreated":false,"message":"ok"}`))
	})

	out, err := NewCustomerService(client).Create(context.Background(), CreateCustomerRequest{Name: " Ana ", Phone: "(21) 99999-0000", Password: "ignored"})
	require.NoError(t, err)
	assert.Equal(t, "c9", out.CustomerID)
}

func TestAppointmentService_RangeSendsUTCBounds(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/appointment", r.URL.Path)
		assert.Equal(t, "2025-03-10T03:00:00.000Z", r.URL.Query().Get("startDate"))
		_, _ = w.Write([]byte(`{"totalCount":0}`))
	})
	loc, err := time.LoadLocation("America/Sao_Paulo")
	require.NoError(t, err)

	out, err := NewAppointmentService(client).Range(context.Background(), time.Date(2025, 3, 10, 0, 0, 0, 0, loc), time.Date(2025, 3, 16, 23, 59, 0, 0, loc))
	require.NoError(t, err)
	assert.NotNil(t, out.Appointments)
}

func TestAppointmentService_TimeSlotsClosedDay(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/settings/available-time-slots", r.URL.Path)
		assert.Equal(t, "2025-03-16", r.URL.Query().Get("date"))
		_, _ = w.Write([]byte(`{"isAvailable":false,"timeSlots":["09:00"]}`))
	})

	day, err := NewAppointmentService(client).TimeSlots(context.Background(), "2025-03-16")
	require.NoError(t, err)
	assert.False(t, day.IsAvailable)
	assert.Empty(t, day.TimeSlots)
	assert.Equal(t, booking.ReasonUnavailable, day.Reason)
	assert.Equal(t, "2025-03-16", day.Date)
}

func TestSettingsService_SaveStripsIDs(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		var raw map[string]map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
		_, hasID := raw["studioInfo"]["id"]
		assert.False(t, hasID)
		w.WriteHeader(http.StatusNoContent)
	})

	err := NewSettingsService(client).Save(context.Background(), GeneralSettings{
		StudioInfo:    StudioInfo{ID: "s1", Name: "Atelier Carvalho"},
		Notifications: NotificationSettings{ID: "n1", NewAppointmentAlertEnabled: true},
	})
	require.NoError(t, err)
}
