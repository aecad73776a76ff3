package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"eventrsvp/internal/domain"
)

const invitationColumns = `id, event_id, email, state, campaign_id, last_error, created_at, updated_at`

type invitationRepository struct {
	DB *sql.DB
}

func NewInvitationRepository(db *sql.DB) domain.InvitationRepository {
	return &invitationRepository{
		DB: db,
	}
}

// GetOrCreate returns the attempt for (eventID, email), inserting it in state validated
// when none exists. Emails are stored lowercased.
func (r *invitationRepository) GetOrCreate(ctx context.Context, eventID int64, email string) (*domain.InvitationAttempt, error) {
	query := `
		INSERT INTO invitation_attempts (event_id, email, state)
		VALUES ($1, $2, $3)
		ON CONFLICT (event_id, email) DO UPDATE SET event_id = invitation_attempts.event_id
		RETURNING ` + invitationColumns
	row := r.DB.QueryRowContext(ctx, query, eventID, strings.ToLower(strings.TrimSpace(email)), string(domain.InvitationValidated))
	inv, err := scanInvitation(row)
	if err != nil {
		if isPQCode(err, pqForeignKeyViolation) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return inv, nil
}

// Claim sets the dispatch lease when no unexpired lease is held and returns the row
// as it is after the update.
func (r *invitationRepository) Claim(ctx context.Context, id int64, until time.Time) (*domain.InvitationAttempt, error) {
	query := `
		UPDATE invitation_attempts
		SET claimed_until = $2
		WHERE id = $1 AND (claimed_until IS NULL OR claimed_until < NOW())
		RETURNING ` + invitationColumns
	inv, err := scanInvitation(r.DB.QueryRowContext(ctx, query, id, until))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrInvitationInProgress
		}
		return nil, err
	}
	return inv, nil
}

func (r *invitationRepository) Release(ctx context.Context, id int64) error {
	_, err := r.DB.ExecContext(ctx, `UPDATE invitation_attempts SET claimed_until = NULL WHERE id = $1`, id)
	return err
}

// Advance moves the attempt from one state to the next and clears any recorded failure.
// An empty campaignID keeps the stored one.
func (r *invitationRepository) Advance(ctx context.Context, id int64, from, to domain.InvitationState, campaignID string) error {
	query := `
		UPDATE invitation_attempts
		SET state = $1, campaign_id = COALESCE(NULLIF($2, ''), campaign_id), last_error = NULL, updated_at = NOW()
		WHERE id = $3 AND state = $4
	`
	result, err := r.DB.ExecContext(ctx, query, string(to), campaignID, id, string(from))
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrInvitationInProgress
	}
	return nil
}

func (r *invitationRepository) RecordFailure(ctx context.Context, id int64, message string) error {
	query := `
		UPDATE invitation_attempts
		SET last_error = $1, updated_at = NOW()
		WHERE id = $2
	`
	result, err := r.DB.ExecContext(ctx, query, message, id)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListByEventID returns one page of attempts, newest first, and the total count.
func (r *invitationRepository) ListByEventID(ctx context.Context, eventID int64, params domain.PaginationParams) ([]*domain.InvitationAttempt, int, error) {
	var total int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM invitation_attempts WHERE event_id = $1`, eventID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count invitations: %w", err)
	}

	query := `SELECT ` + invitationColumns + `
		FROM invitation_attempts
		WHERE event_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.DB.QueryContext(ctx, query, eventID, params.PageSize, params.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	invs := make([]*domain.InvitationAttempt, 0)
	for rows.Next() {
		inv, err := scanInvitation(rows)
		if err != nil {
			return nil, 0, err
		}
		invs = append(invs, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return invs, total, nil
}

func scanInvitation(row rowScanner) (*domain.InvitationAttempt, error) {
	inv := &domain.InvitationAttempt{}
	var state string
	var campaignNull, errNull sql.NullString
	if err := row.Scan(&inv.ID, &inv.EventID, &inv.Email, &state, &campaignNull, &errNull, &inv.CreatedAt, &inv.UpdatedAt); err != nil {
		return nil, err
	}
	inv.State = domain.InvitationState(state)
	inv.CampaignID = campaignNull.String
	inv.LastError = errNull.String
	return inv, nil
}
