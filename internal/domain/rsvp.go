package domain

import (
	"context"
	"strings"
	"time"
)

// RSVPResponse is a user's declared attendance.
type RSVPResponse string

const (
	RSVPYes   RSVPResponse = "YES"
	RSVPNo    RSVPResponse = "NO"
	RSVPMaybe RSVPResponse = "MAYBE"
)

// ParseRSVPResponse normalizes s and reports whether it names a known response.
func ParseRSVPResponse(s string) (RSVPResponse, bool) {
	switch r := RSVPResponse(strings.ToUpper(strings.TrimSpace(s))); r {
	case RSVPYes, RSVPNo, RSVPMaybe:
		return r, true
	}
	return "", false
}

// RSVPMode selects how repeated RSVPs from the same user for the same event are stored.
type RSVPMode string

const (
	// RSVPModeAppend keeps every submission as its own row.
	RSVPModeAppend RSVPMode = "append"
	// RSVPModeLatest keeps one row per (event, user); the latest response wins.
	RSVPModeLatest RSVPMode = "latest"
)

// RSVP represents one attendance response
// swagger:model RSVP
type RSVP struct {
	ID        int64        `json:"id"`
	EventID   int64        `json:"event_id"`
	UserID    int64        `json:"user_id"`
	Response  RSVPResponse `json:"response"`
	CreatedAt time.Time    `json:"created_at"`
}

// RSVPSummary holds per-event counters. Pending counts MAYBE responses.
// swagger:model RSVPSummary
type RSVPSummary struct {
	TotalRSVPs   int `json:"totalRSVPs"`
	PendingRSVPs int `json:"pendingRSVPs"`
}

// RSVPResponseCount is one row of the response histogram.
// swagger:model RSVPResponseCount
type RSVPResponseCount struct {
	Response RSVPResponse `json:"response"`
	Count    int          `json:"count"`
}

// RSVPRepository defines the interface for RSVP storage
type RSVPRepository interface {
	Create(ctx context.Context, rsvp *RSVP) error
	Upsert(ctx context.Context, rsvp *RSVP) error
	SummaryByEventID(ctx context.Context, eventID int64) (*RSVPSummary, error)
	CountByResponse(ctx context.Context) ([]*RSVPResponseCount, error)
}

// RSVPService defines the business logic for RSVPs.
type RSVPService interface {
	SubmitRSVP(ctx context.Context, eventID, userID int64, response string) (*RSVP, error)
	GetRSVPSummary(ctx context.Context, eventID int64) (*RSVPSummary, error)
	GroupRSVPsByResponse(ctx context.Context) ([]*RSVPResponseCount, error)
}
