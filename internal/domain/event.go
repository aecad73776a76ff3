package domain

import (
	"context"
	"time"
)

// Event represents an organized event
// swagger:model Event
type Event struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	Date        time.Time `json:"date"`
	Location    string    `json:"location"`
	Latitude    *float64  `json:"latitude"`
	Longitude   *float64  `json:"longitude"`
	OrganizerID int64     `json:"organizer_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewEvent returns a new Event with the given fields. ID is typically set by the repository on create.
func NewEvent(title string, description *string, date time.Time, location string, latitude, longitude *float64, organizerID int64) *Event {
	return &Event{
		Title:       title,
		Description: description,
		Date:        date,
		Location:    location,
		Latitude:    latitude,
		Longitude:   longitude,
		OrganizerID: organizerID,
	}
}

// HasCoordinates reports whether both latitude and longitude are set.
func (e *Event) HasCoordinates() bool {
	return e.Latitude != nil && e.Longitude != nil
}

// EventSummary is a list row with RSVP counters.
// swagger:model EventSummary
type EventSummary struct {
	ID           int64     `json:"id"`
	Title        string    `json:"title"`
	Date         time.Time `json:"date"`
	Location     string    `json:"location"`
	RSVPCount    int       `json:"rsvpCount"`
	PendingCount int       `json:"pendingCount"`
}

// EventUpdate holds the replacement values for PUT /events/{id}.
type EventUpdate struct {
	Title       string
	Description *string
	Date        time.Time
	Location    string
	Latitude    *float64
	Longitude   *float64
}

// EventRepository defines the interface for event storage
type EventRepository interface {
	Create(ctx context.Context, event *Event) error
	GetByID(ctx context.Context, id int64) (*Event, error)
	Update(ctx context.Context, id int64, update EventUpdate) (*Event, error)
	// Delete removes the event together with its RSVPs and invitation attempts.
	Delete(ctx context.Context, id int64) error
	ListSummaries(ctx context.Context) ([]*EventSummary, error)
}

// EventService defines the business logic for events.
type EventService interface {
	CreateEvent(ctx context.Context, event *Event) error
	GetEvent(ctx context.Context, id int64) (*Event, error)
	UpdateEvent(ctx context.Context, id, organizerID int64, update EventUpdate) (*Event, error)
	DeleteEvent(ctx context.Context, id, organizerID int64) error
	ListEvents(ctx context.Context) ([]*EventSummary, error)
}
