package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"eventrsvp/internal/domain"
)

const rsvpUserForeignKey = "rsvps_user_id_fkey"

type rsvpRepository struct {
	DB *sql.DB
}

func NewRSVPRepository(db *sql.DB) domain.RSVPRepository {
	return &rsvpRepository{DB: db}
}

// Create appends a new RSVP row.
func (r *rsvpRepository) Create(ctx context.Context, rsvp *domain.RSVP) error {
	query := `
		INSERT INTO rsvps (event_id, user_id, response)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`
	err := r.DB.QueryRowContext(ctx, query, rsvp.EventID, rsvp.UserID, string(rsvp.Response)).
		Scan(&rsvp.ID, &rsvp.CreatedAt)
	if isPQCode(err, pqForeignKeyViolation) {
		return rsvpForeignKeyError(err)
	}
	return err
}

// Upsert replaces whatever the user previously answered for the event with a single row.
// The event row is locked so concurrent submissions for the same event serialize.
func (r *rsvpRepository) Upsert(ctx context.Context, rsvp *domain.RSVP) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var locked int64
	if err := tx.QueryRowContext(ctx, `SELECT id FROM events WHERE id = $1 FOR UPDATE`, rsvp.EventID).Scan(&locked); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("lock event: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM rsvps WHERE event_id = $1 AND user_id = $2`, rsvp.EventID, rsvp.UserID); err != nil {
		return fmt.Errorf("clear previous rsvp: %w", err)
	}
	query := `
		INSERT INTO rsvps (event_id, user_id, response)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`
	if err := tx.QueryRowContext(ctx, query, rsvp.EventID, rsvp.UserID, string(rsvp.Response)).Scan(&rsvp.ID, &rsvp.CreatedAt); err != nil {
		if isPQCode(err, pqForeignKeyViolation) {
			return rsvpForeignKeyError(err)
		}
		return fmt.Errorf("insert rsvp: %w", err)
	}
	return tx.Commit()
}

// rsvpForeignKeyError names the missing parent of a rejected rsvps insert.
func rsvpForeignKeyError(err error) error {
	if pqConstraint(err) == rsvpUserForeignKey {
		return domain.ErrUserNotFound
	}
	return domain.ErrNotFound
}

func (r *rsvpRepository) SummaryByEventID(ctx context.Context, eventID int64) (*domain.RSVPSummary, error) {
	query := `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE response = 'MAYBE')
		FROM rsvps
		WHERE event_id = $1
	`
	s := &domain.RSVPSummary{}
	if err := r.DB.QueryRowContext(ctx, query, eventID).Scan(&s.TotalRSVPs, &s.PendingRSVPs); err != nil {
		return nil, err
	}
	return s, nil
}

// CountByResponse returns one row per response value that has at least one RSVP.
func (r *rsvpRepository) CountByResponse(ctx context.Context) ([]*domain.RSVPResponseCount, error) {
	query := `
		SELECT response, COUNT(*)
		FROM rsvps
		GROUP BY response
		ORDER BY response
	`
	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make([]*domain.RSVPResponseCount, 0)
	for rows.Next() {
		var response string
		c := &domain.RSVPResponseCount{}
		if err := rows.Scan(&response, &c.Count); err != nil {
			return nil, err
		}
		c.Response = domain.RSVPResponse(response)
		counts = append(counts, c)
	}
	return counts, rows.Err()
}
