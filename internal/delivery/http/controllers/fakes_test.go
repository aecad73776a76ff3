package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"eventrsvp/internal/delivery/http/helpers"
	"eventrsvp/internal/domain"
)

// testLogger is a no-op logger for controller tests so we don't assert on log output.
var testLogger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))

// decodeEnvelope decodes the response envelope and, when dest is non-nil, its data field.
func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder, dest any) helpers.APIResponse {
	t.Helper()
	var envelope helpers.APIResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&envelope), "response must be valid JSON envelope")
	if dest != nil {
		require.Nil(t, envelope.Error)
		raw, err := json.Marshal(envelope.Data)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(raw, dest))
	}
	return envelope
}

type fakeCodec struct{}

func (fakeCodec) Encode(sessionID string) (string, error) { return "tok." + sessionID, nil }

func (fakeCodec) Decode(token string) (string, error) {
	id, ok := strings.CutPrefix(token, "tok.")
	if !ok {
		return "", errors.New("bad token")
	}
	return id, nil
}

type fakeAuthService struct {
	registerErr    error
	loginErr       error
	logoutErr      error
	lastName       string
	lastEmail      string
	lastPassword   string
	lastLogoutID   string
	loggedInUserID int64
}

func (f *fakeAuthService) Register(ctx context.Context, name, email, password string) (*domain.User, error) {
	f.lastName, f.lastEmail, f.lastPassword = name, email, password
	if f.registerErr != nil {
		return nil, f.registerErr
	}
	return &domain.User{ID: 1, Name: name, Email: email}, nil
}

func (f *fakeAuthService) Login(ctx context.Context, email, password string) (*domain.Session, *domain.User, error) {
	f.lastEmail, f.lastPassword = email, password
	if f.loginErr != nil {
		return nil, nil, f.loginErr
	}
	return &domain.Session{ID: "sess-1", UserID: f.loggedInUserID}, &domain.User{ID: f.loggedInUserID, Email: email}, nil
}

func (f *fakeAuthService) Authenticate(ctx context.Context, sessionID string) (*domain.User, *domain.Session, error) {
	return nil, nil, domain.ErrNoSession
}

func (f *fakeAuthService) Logout(ctx context.Context, sessionID string) error {
	f.lastLogoutID = sessionID
	return f.logoutErr
}

type fakeEventService struct {
	events          map[int64]*domain.Event
	summaries       []*domain.EventSummary
	err             error
	lastCreated     *domain.Event
	lastUpdate      domain.EventUpdate
	lastOrganizerID int64
	lastDeletedID   int64
}

func (f *fakeEventService) CreateEvent(ctx context.Context, event *domain.Event) error {
	f.lastCreated = event
	if f.err != nil {
		return f.err
	}
	event.ID = 42
	return nil
}

func (f *fakeEventService) GetEvent(ctx context.Context, id int64) (*domain.Event, error) {
	if f.err != nil {
		return nil, f.err
	}
	e, ok := f.events[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return e, nil
}

func (f *fakeEventService) UpdateEvent(ctx context.Context, id, organizerID int64, update domain.EventUpdate) (*domain.Event, error) {
	f.lastUpdate, f.lastOrganizerID = update, organizerID
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Event{ID: id, Title: update.Title, Date: update.Date, Location: update.Location, OrganizerID: organizerID}, nil
}

func (f *fakeEventService) DeleteEvent(ctx context.Context, id, organizerID int64) error {
	f.lastDeletedID, f.lastOrganizerID = id, organizerID
	return f.err
}

func (f *fakeEventService) ListEvents(ctx context.Context) ([]*domain.EventSummary, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.summaries, nil
}

type fakeRSVPService struct {
	err          error
	summary      *domain.RSVPSummary
	groups       []*domain.RSVPResponseCount
	lastEventID  int64
	lastUserID   int64
	lastResponse string
}

func (f *fakeRSVPService) SubmitRSVP(ctx context.Context, eventID, userID int64, response string) (*domain.RSVP, error) {
	f.lastEventID, f.lastUserID, f.lastResponse = eventID, userID, response
	if f.err != nil {
		return nil, f.err
	}
	return &domain.RSVP{ID: 9, EventID: eventID, UserID: userID, Response: domain.RSVPResponse(strings.ToUpper(response))}, nil
}

func (f *fakeRSVPService) GetRSVPSummary(ctx context.Context, eventID int64) (*domain.RSVPSummary, error) {
	f.lastEventID = eventID
	if f.err != nil {
		return nil, f.err
	}
	return f.summary, nil
}

func (f *fakeRSVPService) GroupRSVPsByResponse(ctx context.Context) ([]*domain.RSVPResponseCount, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.groups, nil
}

type fakeInvitationService struct {
	outcome         domain.InviteOutcome
	err             error
	attempts        []*domain.InvitationAttempt
	total           int
	lastEventID     int64
	lastEmail       string
	lastOrganizerID int64
	lastParams      domain.PaginationParams
}

func (f *fakeInvitationService) Invite(ctx context.Context, eventID, organizerID int64, email string) (domain.InviteOutcome, error) {
	f.lastEventID, f.lastOrganizerID, f.lastEmail = eventID, organizerID, email
	if f.err != nil {
		return "", f.err
	}
	return f.outcome, nil
}

func (f *fakeInvitationService) ListInvitations(ctx context.Context, eventID, organizerID int64, params domain.PaginationParams) ([]*domain.InvitationAttempt, int, error) {
	f.lastEventID, f.lastOrganizerID, f.lastParams = eventID, organizerID, params
	if f.err != nil {
		return nil, 0, f.err
	}
	return f.attempts, f.total, nil
}
