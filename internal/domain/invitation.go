package domain

import (
	"context"
	"fmt"
	"strconv"
	"time"
)

// InvitationState is a step of the invitation workflow. States are ordered; an attempt
// only moves forward.
type InvitationState string

const (
	InvitationValidated       InvitationState = "validated"
	InvitationListUpserted    InvitationState = "list_upserted"
	InvitationCampaignCreated InvitationState = "campaign_created"
	InvitationContentSet      InvitationState = "content_set"
	InvitationSent            InvitationState = "sent"
	InvitationTagged          InvitationState = "tagged"
)

var invitationStateOrder = map[InvitationState]int{
	InvitationValidated:       0,
	InvitationListUpserted:    1,
	InvitationCampaignCreated: 2,
	InvitationContentSet:      3,
	InvitationSent:            4,
	InvitationTagged:          5,
}

// Reached reports whether s is at or past target.
func (s InvitationState) Reached(target InvitationState) bool {
	return invitationStateOrder[s] >= invitationStateOrder[target]
}

// Valid reports whether s is a known state.
func (s InvitationState) Valid() bool {
	_, ok := invitationStateOrder[s]
	return ok
}

// InvitationAttempt is the locally persisted progress of inviting one email to one event.
// swagger:model InvitationAttempt
type InvitationAttempt struct {
	ID         int64           `json:"id"`
	EventID    int64           `json:"event_id"`
	Email      string          `json:"email"`
	State      InvitationState `json:"state"`
	CampaignID string          `json:"campaign_id,omitempty"`
	LastError  string          `json:"last_error,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// InvitationRepository persists invitation attempts.
type InvitationRepository interface {
	// GetOrCreate returns the attempt for (eventID, email), creating it in state validated.
	GetOrCreate(ctx context.Context, eventID int64, email string) (*InvitationAttempt, error)
	// Claim takes the attempt's dispatch lease until the given time and returns the current
	// row. ErrInvitationInProgress means another caller holds an unexpired lease.
	Claim(ctx context.Context, id int64, until time.Time) (*InvitationAttempt, error)
	Release(ctx context.Context, id int64) error
	// Advance moves the attempt from one state to the next. ErrInvitationInProgress means the
	// stored state is no longer from.
	Advance(ctx context.Context, id int64, from, to InvitationState, campaignID string) error
	RecordFailure(ctx context.Context, id int64, message string) error
	ListByEventID(ctx context.Context, eventID int64, params PaginationParams) ([]*InvitationAttempt, int, error)
}

// EventTag is the mailing-list tag marking a member as already invited to the event.
func EventTag(eventID int64) string {
	return "event_" + strconv.FormatInt(eventID, 10)
}

// MailingListMember is a member record on the external mailing list.
type MailingListMember struct {
	ID     string
	Email  string
	Status string
	Tags   []string
}

// HasTag reports whether the member carries the named tag.
func (m *MailingListMember) HasTag(name string) bool {
	for _, t := range m.Tags {
		if t == name {
			return true
		}
	}
	return false
}

// CampaignSettings configures a one-off campaign.
type CampaignSettings struct {
	Title       string
	SubjectLine string
	FromName    string
	ReplyTo     string

	// RecipientEmail narrows the campaign to a single list member when set.
	RecipientEmail string
}

// MailingList is the external mailing/campaign provider.
type MailingList interface {
	// GetMember returns nil and no error when the email is not on the list.
	GetMember(ctx context.Context, email string) (*MailingListMember, error)
	UpsertMember(ctx context.Context, email string) (*MailingListMember, error)
	CreateCampaign(ctx context.Context, settings CampaignSettings) (campaignID string, err error)
	SetCampaignContent(ctx context.Context, campaignID, html string) error
	SendCampaign(ctx context.Context, campaignID string) error
	TagMember(ctx context.Context, email, tag string) error
}

// InvitationEmailData is rendered into the campaign body.
type InvitationEmailData struct {
	Title       string
	Date        string
	Location    string
	Description string
	RSVPURL     string
}

// InviteOutcome tells a caller whether an invitation went out.
type InviteOutcome string

const (
	InviteSent           InviteOutcome = "sent"
	InviteAlreadyInvited InviteOutcome = "already_invited"
)

// DispatchError reports a failed provider step of the invitation workflow.
type DispatchError struct {
	Step InvitationState
	Err  error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("invitation dispatch failed before %s: %v", e.Step, e.Err)
}

func (e *DispatchError) Unwrap() error { return e.Err }

// InvitationService dispatches event invitations.
type InvitationService interface {
	Invite(ctx context.Context, eventID, organizerID int64, email string) (InviteOutcome, error)
	ListInvitations(ctx context.Context, eventID, organizerID int64, params PaginationParams) ([]*InvitationAttempt, int, error)
}
