package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"eventrsvp/internal/domain"
)

type eventService struct {
	eventRepo      domain.EventRepository
	resolver       domain.LocationResolver
	logger         *slog.Logger
	contextTimeout time.Duration
}

func NewEventService(eventRepo domain.EventRepository, resolver domain.LocationResolver, logger *slog.Logger, timeout time.Duration) domain.EventService {
	return &eventService{
		eventRepo:      eventRepo,
		resolver:       resolver,
		logger:         logger,
		contextTimeout: timeout,
	}
}

// CreateEvent validates and stores event. When coordinates are present and resolve to a
// place name, that name replaces event.Location.
func (s *eventService) CreateEvent(ctx context.Context, event *domain.Event) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event.Title = strings.TrimSpace(event.Title)
	if event.Title == "" || event.Description == nil || strings.TrimSpace(*event.Description) == "" || event.Date.IsZero() {
		return domain.NewValidationError("title, description and date are required")
	}
	if event.OrganizerID == 0 {
		return fmt.Errorf("event organizer is required")
	}
	if event.HasCoordinates() {
		if name, ok := s.resolver.Resolve(ctx, *event.Latitude, *event.Longitude); ok {
			event.Location = name
		}
	}

	now := time.Now()
	event.CreatedAt = now
	event.UpdatedAt = now
	if err := s.eventRepo.Create(ctx, event); err != nil {
		return fmt.Errorf("create event: %w", err)
	}
	s.logger.InfoContext(ctx, "event created", "event_id", event.ID, "organizer_id", event.OrganizerID)
	return nil
}

func (s *eventService) GetEvent(ctx context.Context, id int64) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return event, nil
}

func (s *eventService) UpdateEvent(ctx context.Context, id, organizerID int64, update domain.EventUpdate) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	update.Title = strings.TrimSpace(update.Title)
	if update.Title == "" || update.Date.IsZero() {
		return nil, domain.NewValidationError("title and date are required")
	}
	if _, err := s.ownedEvent(ctx, id, organizerID); err != nil {
		return nil, err
	}
	if update.Latitude != nil && update.Longitude != nil {
		if name, ok := s.resolver.Resolve(ctx, *update.Latitude, *update.Longitude); ok {
			update.Location = name
		}
	}

	event, err := s.eventRepo.Update(ctx, id, update)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("update event: %w", err)
	}
	return event, nil
}

// DeleteEvent removes the event with its RSVPs and invitation attempts.
func (s *eventService) DeleteEvent(ctx context.Context, id, organizerID int64) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if _, err := s.ownedEvent(ctx, id, organizerID); err != nil {
		return err
	}
	if err := s.eventRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("delete event: %w", err)
	}
	s.logger.InfoContext(ctx, "event deleted", "event_id", id)
	return nil
}

func (s *eventService) ListEvents(ctx context.Context) ([]*domain.EventSummary, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	events, err := s.eventRepo.ListSummaries(ctx)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	if events == nil {
		events = []*domain.EventSummary{}
	}
	return events, nil
}

func (s *eventService) ownedEvent(ctx context.Context, id, organizerID int64) (*domain.Event, error) {
	event, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	if event.OrganizerID != organizerID {
		return nil, domain.ErrForbidden
	}
	return event, nil
}
