package admin

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"
)

const upcomingLimit = 5

type CustomerLister interface {
	List(ctx context.Context) ([]Customer, error)
}

type AppointmentRanger interface {
	Range(ctx context.Context, start, end time.Time) (*AppointmentsResponse, error)
}

type DashboardStats struct {
	TotalCustomers    int `json:"totalCustomers"`
	WeekAppointments  int `json:"weekAppointments"`
	MonthAppointments int `json:"monthAppointments"`
	TodayAppointments int `json:"todayAppointments"`
}

type DashboardData struct {
	Stats    DashboardStats `json:"stats"`
	Upcoming []Appointment  `json:"upcoming"`
}

// Dashboard aggregates the back-office landing numbers.
type Dashboard struct {
	customers    CustomerLister
	appointments AppointmentRanger
	loc          *time.Location
	now          func() time.Time
}

func NewDashboard(customers CustomerLister, appointments AppointmentRanger, loc *time.Location) *Dashboard {
	if loc == nil {
		loc = time.UTC
	}
	return &Dashboard{customers: customers, appointments: appointments, loc: loc, now: time.Now}
}

// WithClock replaces the dashboard's clock, for tests.
func (d *Dashboard) WithClock(now func() time.Time) *Dashboard {
	d.now = now
	return d
}

// Load fetches customers, this week and this month concurrently. Any
// failure fails the whole load.
func (d *Dashboard) Load(ctx context.Context) (*DashboardData, error) {
	now := d.now().In(d.loc)
	weekStart, weekEnd := WeekRange(now)
	monthStart, monthEnd := MonthRange(now)

	var (
		customers []Customer
		week      *AppointmentsResponse
		month     *AppointmentsResponse
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		customers, err = d.customers.List(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		week, err = d.appointments.Range(gctx, weekStart, weekEnd)
		return err
	})
	g.Go(func() error {
		var err error
		month, err = d.appointments.Range(gctx, monthStart, monthEnd)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("admin: load dashboard: %w", err)
	}

	data := &DashboardData{
		Stats: DashboardStats{
			TotalCustomers:    len(customers),
			WeekAppointments:  week.TotalCount,
			MonthAppointments: month.TotalCount,
		},
		Upcoming: []Appointment{},
	}
	y, m, day := now.Date()
	for _, apt := range week.Appointments {
		start := apt.Start()
		if start.IsZero() {
			continue
		}
		ay, am, ad := start.In(d.loc).Date()
		if ay == y && am == m && ad == day {
			data.Stats.TodayAppointments++
		}
		if !start.Before(now) {
			data.Upcoming = append(data.Upcoming, apt)
		}
	}
	sort.SliceStable(data.Upcoming, func(i, j int) bool {
		return data.Upcoming[i].Start().Before(data.Upcoming[j].Start())
	})
	if len(data.Upcoming) > upcomingLimit {
		data.Upcoming = data.Upcoming[:upcomingLimit]
	}
	return data, nil
}

// WeekRange returns Monday 00:00 through Sunday 23:59:59.999 of t's week.
func WeekRange(t time.Time) (time.Time, time.Time) {
	offset := (int(t.Weekday()) + 6) % 7
	start := time.Date(t.Year(), t.Month(), t.Day()-offset, 0, 0, 0, 0, t.Location())
	return start, start.AddDate(0, 0, 7).Add(-time.Millisecond)
}

// MonthRange returns the first and last instant of t's month.
func MonthRange(t time.Time) (time.Time, time.Time) {
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	return start, start.AddDate(0, 1, 0).Add(-time.Millisecond)
}
