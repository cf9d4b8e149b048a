package bookings

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const defaultRecentLimit = 50

type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Submission is one booking accepted through the site.
type Submission struct {
	ID            string    `json:"id"`
	BookingID     string    `json:"bookingId"`
	Backend       string    `json:"backend"`
	ServiceID     string    `json:"serviceId"`
	DressLabel    string    `json:"dressLabel"`
	CustomerName  string    `json:"customerName"`
	CustomerPhone string    `json:"customerPhone"`
	Color         string    `json:"color"`
	ScheduledAt   time.Time `json:"scheduledAt"`
	Companions    *int      `json:"companions,omitempty"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Repository persists submissions in booking_submissions.
type Repository struct {
	db  db
	now func() time.Time
}

// NewRepository accepts a *pgxpool.Pool or anything with the same Exec/Query.
func NewRepository(db db) *Repository {
	if db == nil {
		panic("bookings: database required")
	}
	return &Repository{db: db, now: time.Now}
}

const insertSubmission = `
INSERT INTO booking_submissions (
	id, booking_id, backend, service_id, dress_label, customer_name,
	customer_phone, color, scheduled_at, companions, status, created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

// Insert stores s, filling ID and CreatedAt when unset.
func (r *Repository) Insert(ctx context.Context, s *Submission) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = r.now().UTC()
	}
	_, err := r.db.Exec(ctx, insertSubmission,
		s.ID, s.BookingID, s.Backend, s.ServiceID, s.DressLabel, s.CustomerName,
		s.CustomerPhone, s.Color, s.ScheduledAt, s.Companions, s.Status, s.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("bookings: insert submission: %w", err)
	}
	return nil
}

const selectRecent = `
SELECT id, booking_id, backend, service_id, dress_label, customer_name,
	customer_phone, color, scheduled_at, companions, status, created_at
FROM booking_submissions
ORDER BY created_at DESC
LIMIT $1`

// Recent lists the newest submissions first.
func (r *Repository) Recent(ctx context.Context, limit int) ([]Submission, error) {
	if limit <= 0 || limit > 500 {
		limit = defaultRecentLimit
	}
	rows, err := r.db.Query(ctx, selectRecent, limit)
	if err != nil {
		return nil, fmt.Errorf("bookings: query recent: %w", err)
	}
	defer rows.Close()

	out := []Submission{}
	for rows.Next() {
		var s Submission
		if err := rows.Scan(
			&s.ID, &s.BookingID, &s.Backend, &s.ServiceID, &s.DressLabel, &s.CustomerName,
			&s.CustomerPhone, &s.Color, &s.ScheduledAt, &s.Companions, &s.Status, &s.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("bookings: scan submission: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("bookings: iterate submissions: %w", err)
	}
	return out, nil
}
