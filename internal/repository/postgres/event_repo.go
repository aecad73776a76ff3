package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"eventrsvp/internal/domain"
)

const eventColumns = `id, title, description, date, location, latitude, longitude, organizer_id, created_at, updated_at`

type eventRepository struct {
	DB *sql.DB
}

func NewEventRepository(db *sql.DB) domain.EventRepository {
	return &eventRepository{
		DB: db,
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *eventRepository) Create(ctx context.Context, e *domain.Event) error {
	query := `
		INSERT INTO events (title, description, date, location, latitude, longitude, organizer_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`
	err := r.DB.QueryRowContext(ctx, query,
		e.Title, nullString(e.Description), e.Date, e.Location,
		nullFloat(e.Latitude), nullFloat(e.Longitude),
		e.OrganizerID, e.CreatedAt, e.UpdatedAt,
	).Scan(&e.ID)
	if isPQCode(err, pqForeignKeyViolation) {
		return domain.ErrUserNotFound
	}
	return err
}

func (r *eventRepository) GetByID(ctx context.Context, id int64) (*domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`
	return scanEvent(r.DB.QueryRowContext(ctx, query, id))
}

// Update replaces every mutable column of the event.
func (r *eventRepository) Update(ctx context.Context, id int64, u domain.EventUpdate) (*domain.Event, error) {
	query := `
		UPDATE events
		SET title = $1, description = $2, date = $3, location = $4, latitude = $5, longitude = $6, updated_at = NOW()
		WHERE id = $7
		RETURNING ` + eventColumns
	return scanEvent(r.DB.QueryRowContext(ctx, query,
		u.Title, nullString(u.Description), u.Date, u.Location,
		nullFloat(u.Latitude), nullFloat(u.Longitude), id,
	))
}

// Delete removes the event and everything hanging off it in one transaction.
func (r *eventRepository) Delete(ctx context.Context, id int64) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM invitation_attempts WHERE event_id = $1`, id); err != nil {
		return fmt.Errorf("delete invitation attempts: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM rsvps WHERE event_id = $1`, id); err != nil {
		return fmt.Errorf("delete rsvps: %w", err)
	}
	result, err := tx.ExecContext(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return tx.Commit()
}

// ListSummaries returns every event ordered by date with its RSVP counters. Pending counts MAYBE rows.
func (r *eventRepository) ListSummaries(ctx context.Context) ([]*domain.EventSummary, error) {
	query := `
		SELECT e.id, e.title, e.date, e.location,
			COUNT(r.id) AS rsvp_count,
			COUNT(r.id) FILTER (WHERE r.response = 'MAYBE') AS pending_count
		FROM events e
		LEFT JOIN rsvps r ON r.event_id = e.id
		GROUP BY e.id
		ORDER BY e.date ASC, e.id ASC
	`
	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summaries := make([]*domain.EventSummary, 0)
	for rows.Next() {
		s := &domain.EventSummary{}
		if err := rows.Scan(&s.ID, &s.Title, &s.Date, &s.Location, &s.RSVPCount, &s.PendingCount); err != nil {
			return nil, err
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

func scanEvent(row rowScanner) (*domain.Event, error) {
	e := &domain.Event{}
	var descNull sql.NullString
	var latNull, lngNull sql.NullFloat64
	err := row.Scan(
		&e.ID, &e.Title, &descNull, &e.Date, &e.Location,
		&latNull, &lngNull, &e.OrganizerID, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if descNull.Valid {
		e.Description = &descNull.String
	}
	if latNull.Valid {
		e.Latitude = &latNull.Float64
	}
	if lngNull.Valid {
		e.Longitude = &lngNull.Float64
	}
	return e, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}
