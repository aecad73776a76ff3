package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"eventrsvp/internal/domain"
)

type rsvpService struct {
	rsvpRepo       domain.RSVPRepository
	eventRepo      domain.EventRepository
	mode           domain.RSVPMode
	contextTimeout time.Duration
}

// NewRSVPService returns an RSVPService storing repeated answers according to mode.
func NewRSVPService(rsvpRepo domain.RSVPRepository, eventRepo domain.EventRepository, mode domain.RSVPMode, timeout time.Duration) domain.RSVPService {
	if mode == "" {
		mode = domain.RSVPModeAppend
	}
	return &rsvpService{
		rsvpRepo:       rsvpRepo,
		eventRepo:      eventRepo,
		mode:           mode,
		contextTimeout: timeout,
	}
}

func (s *rsvpService) SubmitRSVP(ctx context.Context, eventID, userID int64, response string) (*domain.RSVP, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if eventID <= 0 || userID <= 0 {
		return nil, domain.NewValidationError("event and user are required")
	}
	parsed, ok := domain.ParseRSVPResponse(response)
	if !ok {
		return nil, domain.NewValidationError("response must be one of YES, NO, MAYBE")
	}
	if err := s.requireEvent(ctx, eventID); err != nil {
		return nil, err
	}

	rsvp := &domain.RSVP{EventID: eventID, UserID: userID, Response: parsed}
	var err error
	if s.mode == domain.RSVPModeLatest {
		err = s.rsvpRepo.Upsert(ctx, rsvp)
	} else {
		err = s.rsvpRepo.Create(ctx, rsvp)
	}
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("save rsvp: %w", err)
	}
	return rsvp, nil
}

func (s *rsvpService) GetRSVPSummary(ctx context.Context, eventID int64) (*domain.RSVPSummary, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if err := s.requireEvent(ctx, eventID); err != nil {
		return nil, err
	}
	summary, err := s.rsvpRepo.SummaryByEventID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("rsvp summary: %w", err)
	}
	return summary, nil
}

func (s *rsvpService) GroupRSVPsByResponse(ctx context.Context) ([]*domain.RSVPResponseCount, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	counts, err := s.rsvpRepo.CountByResponse(ctx)
	if err != nil {
		return nil, fmt.Errorf("group rsvps: %w", err)
	}
	if counts == nil {
		counts = []*domain.RSVPResponseCount{}
	}
	return counts, nil
}

func (s *rsvpService) requireEvent(ctx context.Context, eventID int64) error {
	if _, err := s.eventRepo.GetByID(ctx, eventID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("get event: %w", err)
	}
	return nil
}
