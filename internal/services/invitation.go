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

const (
	invitationDateLayout = "1/2/2006"
	releaseTimeout       = 2 * time.Second
)

// InvitationConfig carries the sender identity and link base for invitation campaigns.
type InvitationConfig struct {
	AppBaseURL string
	FromName   string
	ReplyTo    string
}

type invitationService struct {
	eventRepo      domain.EventRepository
	invitationRepo domain.InvitationRepository
	mailingList    domain.MailingList
	renderer       domain.EmailTemplateRenderer
	config         InvitationConfig
	logger         *slog.Logger
	contextTimeout time.Duration
}

func NewInvitationService(
	eventRepo domain.EventRepository,
	invitationRepo domain.InvitationRepository,
	mailingList domain.MailingList,
	renderer domain.EmailTemplateRenderer,
	config InvitationConfig,
	logger *slog.Logger,
	timeout time.Duration,
) domain.InvitationService {
	config.AppBaseURL = strings.TrimRight(config.AppBaseURL, "/")
	return &invitationService{
		eventRepo:      eventRepo,
		invitationRepo: invitationRepo,
		mailingList:    mailingList,
		renderer:       renderer,
		config:         config,
		logger:         logger,
		contextTimeout: timeout,
	}
}

// dispatchStep is one provider call of the invitation workflow. Completing it moves the
// attempt to target.
type dispatchStep struct {
	target domain.InvitationState
	run    func(ctx context.Context, attempt *domain.InvitationAttempt) error
}

// Invite sends the event invitation to email through the mailing list provider. Only the
// event's organizer may invite. Progress is persisted after every step so a failed invite
// resumes where it stopped, and the attempt is leased so concurrent invites of the same
// address do not both dispatch.
func (s *invitationService) Invite(ctx context.Context, eventID, organizerID int64, email string) (domain.InviteOutcome, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	email = normalizeEmail(email)
	if email == "" {
		return "", domain.NewValidationError("email is required")
	}
	if !emailRegexp.MatchString(email) {
		return "", domain.NewValidationError("invalid email format")
	}

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", domain.ErrNotFound
		}
		return "", fmt.Errorf("get event: %w", err)
	}
	if event.OrganizerID != organizerID {
		return "", domain.ErrForbidden
	}

	created, err := s.invitationRepo.GetOrCreate(ctx, eventID, email)
	if err != nil {
		return "", fmt.Errorf("load invitation attempt: %w", err)
	}
	if created.State.Reached(domain.InvitationTagged) {
		return domain.InviteAlreadyInvited, nil
	}

	attempt, err := s.invitationRepo.Claim(ctx, created.ID, time.Now().Add(s.contextTimeout))
	if err != nil {
		if errors.Is(err, domain.ErrInvitationInProgress) {
			return "", domain.ErrInvitationInProgress
		}
		return "", fmt.Errorf("claim invitation attempt: %w", err)
	}
	defer s.release(ctx, attempt.ID)
	if attempt.State.Reached(domain.InvitationTagged) {
		return domain.InviteAlreadyInvited, nil
	}

	tag := domain.EventTag(eventID)
	member, err := s.mailingList.GetMember(ctx, email)
	if err != nil {
		return "", s.fail(ctx, attempt, nextInvitationState(attempt.State), err)
	}
	if member != nil && member.HasTag(tag) {
		if err := s.advance(ctx, attempt, domain.InvitationTagged); err != nil {
			return "", err
		}
		return domain.InviteAlreadyInvited, nil
	}

	subject, html, _, err := s.renderer.Render("invitation", s.emailData(event))
	if err != nil {
		return "", fmt.Errorf("render invitation: %w", err)
	}

	steps := []dispatchStep{
		{
			target: domain.InvitationListUpserted,
			run: func(ctx context.Context, _ *domain.InvitationAttempt) error {
				_, err := s.mailingList.UpsertMember(ctx, email)
				return err
			},
		},
		{
			target: domain.InvitationCampaignCreated,
			run: func(ctx context.Context, a *domain.InvitationAttempt) error {
				id, err := s.mailingList.CreateCampaign(ctx, domain.CampaignSettings{
					Title:          fmt.Sprintf("%s invitation for %s", event.Title, email),
					SubjectLine:    subject,
					FromName:       s.config.FromName,
					ReplyTo:        s.config.ReplyTo,
					RecipientEmail: email,
				})
				if err != nil {
					return err
				}
				a.CampaignID = id
				return nil
			},
		},
		{
			target: domain.InvitationContentSet,
			run: func(ctx context.Context, a *domain.InvitationAttempt) error {
				return s.mailingList.SetCampaignContent(ctx, a.CampaignID, html)
			},
		},
		{
			target: domain.InvitationSent,
			run: func(ctx context.Context, a *domain.InvitationAttempt) error {
				return s.mailingList.SendCampaign(ctx, a.CampaignID)
			},
		},
		{
			target: domain.InvitationTagged,
			run: func(ctx context.Context, _ *domain.InvitationAttempt) error {
				return s.mailingList.TagMember(ctx, email, tag)
			},
		},
	}

	for _, step := range steps {
		if attempt.State.Reached(step.target) {
			continue
		}
		if err := step.run(ctx, attempt); err != nil {
			return "", s.fail(ctx, attempt, step.target, err)
		}
		if err := s.advance(ctx, attempt, step.target); err != nil {
			return "", err
		}
	}

	s.logger.InfoContext(ctx, "invitation sent", "event_id", eventID, "campaign_id", attempt.CampaignID)
	return domain.InviteSent, nil
}

func (s *invitationService) ListInvitations(ctx context.Context, eventID, organizerID int64, params domain.PaginationParams) ([]*domain.InvitationAttempt, int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, 0, domain.ErrNotFound
		}
		return nil, 0, fmt.Errorf("get event: %w", err)
	}
	if event.OrganizerID != organizerID {
		return nil, 0, domain.ErrForbidden
	}

	invs, total, err := s.invitationRepo.ListByEventID(ctx, eventID, params)
	if err != nil {
		return nil, 0, fmt.Errorf("list invitations: %w", err)
	}
	if invs == nil {
		invs = []*domain.InvitationAttempt{}
	}
	return invs, total, nil
}

func (s *invitationService) emailData(event *domain.Event) *domain.InvitationEmailData {
	data := &domain.InvitationEmailData{
		Title:    event.Title,
		Date:     event.Date.Format(invitationDateLayout),
		Location: event.Location,
		RSVPURL:  fmt.Sprintf("%s/event/%d/rsvp", s.config.AppBaseURL, event.ID),
	}
	if event.Description != nil {
		data.Description = *event.Description
	}
	return data
}

// advance persists the move from the attempt's current state to next.
func (s *invitationService) advance(ctx context.Context, attempt *domain.InvitationAttempt, next domain.InvitationState) error {
	err := s.invitationRepo.Advance(ctx, attempt.ID, attempt.State, next, attempt.CampaignID)
	if err != nil {
		if errors.Is(err, domain.ErrInvitationInProgress) {
			return domain.ErrInvitationInProgress
		}
		return fmt.Errorf("record invitation state: %w", err)
	}
	attempt.State = next
	return nil
}

// release drops the dispatch lease even when the request context is already done.
func (s *invitationService) release(ctx context.Context, id int64) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
	defer cancel()
	if err := s.invitationRepo.Release(ctx, id); err != nil {
		s.logger.ErrorContext(ctx, "failed to release invitation attempt", "attempt_id", id, "err", err)
	}
}

// fail records the provider error on the attempt and wraps it for the caller.
func (s *invitationService) fail(ctx context.Context, attempt *domain.InvitationAttempt, step domain.InvitationState, cause error) error {
	s.logger.ErrorContext(ctx, "invitation step failed",
		"event_id", attempt.EventID, "attempt_id", attempt.ID, "step", step, "err", cause)
	if err := s.invitationRepo.RecordFailure(ctx, attempt.ID, cause.Error()); err != nil {
		s.logger.ErrorContext(ctx, "failed to record invitation failure", "attempt_id", attempt.ID, "err", err)
	}
	return &domain.DispatchError{Step: step, Err: cause}
}

func nextInvitationState(s domain.InvitationState) domain.InvitationState {
	order := []domain.InvitationState{
		domain.InvitationListUpserted,
		domain.InvitationCampaignCreated,
		domain.InvitationContentSet,
		domain.InvitationSent,
		domain.InvitationTagged,
	}
	for _, next := range order {
		if !s.Reached(next) {
			return next
		}
	}
	return domain.InvitationTagged
}
