package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventrsvp/internal/domain"
)

func strPtr(s string) *string     { return &s }
func floatPtr(f float64) *float64 { return &f }

func TestEventService_CreateEvent(t *testing.T) {
	ctx := context.Background()
	date := time.Date(2025, 6, 1, 18, 0, 0, 0, time.UTC)

	tests := []struct {
		name         string
		event        *domain.Event
		resolver     *fakeResolver
		wantErr      error
		wantLocation string
		wantResolves int
	}{
		{
			name:         "resolved location overrides caller location",
			event:        domain.NewEvent("Launch", strPtr("Party"), date, "TBD", floatPtr(37.77), floatPtr(-122.41), 1),
			resolver:     &fakeResolver{name: "San Francisco", ok: true},
			wantLocation: "San Francisco",
			wantResolves: 1,
		},
		{
			name:         "unresolved coordinates keep caller location",
			event:        domain.NewEvent("Launch", strPtr("Party"), date, "TBD", floatPtr(0), floatPtr(0), 1),
			resolver:     &fakeResolver{},
			wantLocation: "TBD",
			wantResolves: 1,
		},
		{
			name:         "single coordinate skips lookup",
			event:        domain.NewEvent("Launch", strPtr("Party"), date, "TBD", floatPtr(37.77), nil, 1),
			resolver:     &fakeResolver{name: "San Francisco", ok: true},
			wantLocation: "TBD",
		},
		{
			name:     "missing title",
			event:    domain.NewEvent("  ", strPtr("Party"), date, "", nil, nil, 1),
			resolver: &fakeResolver{},
			wantErr:  domain.ErrValidation,
		},
		{
			name:     "missing description",
			event:    domain.NewEvent("Launch", nil, date, "", nil, nil, 1),
			resolver: &fakeResolver{},
			wantErr:  domain.ErrValidation,
		},
		{
			name:     "missing date",
			event:    domain.NewEvent("Launch", strPtr("Party"), time.Time{}, "", nil, nil, 1),
			resolver: &fakeResolver{},
			wantErr:  domain.ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newFakeEventRepo()
			svc := NewEventService(repo, tt.resolver, testLogger, time.Second)
			err := svc.CreateEvent(ctx, tt.event)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, repo.events)
				return
			}
			require.NoError(t, err)
			assert.NotZero(t, tt.event.ID)
			assert.Equal(t, tt.wantLocation, repo.events[tt.event.ID].Location)
			assert.Equal(t, tt.wantResolves, tt.resolver.calls)
			assert.False(t, tt.event.CreatedAt.IsZero())
		})
	}
}

func TestEventService_UpdateEvent(t *testing.T) {
	ctx := context.Background()
	date := time.Date(2025, 6, 1, 18, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		eventID  int64
		callerID int64
		update   domain.EventUpdate
		wantErr  error
	}{
		{name: "organizer updates", eventID: 1, callerID: 7, update: domain.EventUpdate{Title: "Renamed", Date: date, Location: "Oakland"}},
		{name: "other user forbidden", eventID: 1, callerID: 8, update: domain.EventUpdate{Title: "Renamed", Date: date}, wantErr: domain.ErrForbidden},
		{name: "missing event", eventID: 99, callerID: 7, update: domain.EventUpdate{Title: "Renamed", Date: date}, wantErr: domain.ErrNotFound},
		{name: "missing title", eventID: 1, callerID: 7, update: domain.EventUpdate{Date: date}, wantErr: domain.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newFakeEventRepo()
			repo.add(domain.NewEvent("Launch", strPtr("Party"), date, "SF", nil, nil, 7))
			svc := NewEventService(repo, &fakeResolver{}, testLogger, time.Second)

			e, err := svc.UpdateEvent(ctx, tt.eventID, tt.callerID, tt.update)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, "Launch", repo.events[1].Title)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "Renamed", e.Title)
			assert.Equal(t, "Oakland", e.Location)
		})
	}
}

func TestEventService_DeleteEvent(t *testing.T) {
	ctx := context.Background()
	date := time.Date(2025, 6, 1, 18, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		eventID  int64
		callerID int64
		wantErr  error
	}{
		{name: "organizer deletes", eventID: 1, callerID: 7},
		{name: "non-existent event is not found", eventID: 42, callerID: 7, wantErr: domain.ErrNotFound},
		{name: "other user forbidden", eventID: 1, callerID: 8, wantErr: domain.ErrForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newFakeEventRepo()
			repo.add(domain.NewEvent("Launch", strPtr("Party"), date, "SF", nil, nil, 7))
			svc := NewEventService(repo, &fakeResolver{}, testLogger, time.Second)

			err := svc.DeleteEvent(ctx, tt.eventID, tt.callerID)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, repo.deleted)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, []int64{1}, repo.deleted)
		})
	}
}

func TestEventService_GetEvent(t *testing.T) {
	ctx := context.Background()
	repo := newFakeEventRepo()
	repo.add(domain.NewEvent("Launch", nil, time.Now(), "", nil, nil, 7))
	svc := NewEventService(repo, &fakeResolver{}, testLogger, time.Second)

	e, err := svc.GetEvent(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Launch", e.Title)

	_, err = svc.GetEvent(ctx, 2)
	require.ErrorIs(t, err, domain.ErrNotFound)

	repo.getErr = errors.New("db down")
	_, err = svc.GetEvent(ctx, 1)
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrNotFound)
}

func TestEventService_ListEvents_empty(t *testing.T) {
	svc := NewEventService(newFakeEventRepo(), &fakeResolver{}, testLogger, time.Second)
	events, err := svc.ListEvents(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, events)
	assert.Empty(t, events)
}
