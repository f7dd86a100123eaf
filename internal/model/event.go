package model

import "time"

// Event is a scheduled sports activity with a fixed number of spots.
// TakenSpots only changes through the participation engine's guarded commit.
type Event struct {
	ID         string        `json:"id"`
	Title      string        `json:"title"`
	Sport      string        `json:"sport"`
	SkillLevel string        `json:"skill_level"`
	StartTime  time.Time     `json:"start_time"`
	Location   EventLocation `json:"location"`
	Spots      int           `json:"spots"`
	TakenSpots int           `json:"taken_spots"`
	CreatorID  string        `json:"creator_id"`
	ImageURL   *string       `json:"image_url,omitempty"`
	// Version is bumped by every committed participation change
	Version   int       `json:"version"`
	CreatedOn time.Time `json:"created_on"`
	UpdatedOn time.Time `json:"updated_on"`
}

// EventLocation holds coordinates and postal address of an event
type EventLocation struct {
	Lat        float64 `json:"lat"`
	Lng        float64 `json:"lng"`
	Street     string  `json:"street,omitempty"`
	City       string  `json:"city,omitempty"`
	PostalCode string  `json:"postal_code,omitempty"`
	Country    string  `json:"country,omitempty"`
}

// RemainingSpots returns how many more participants the event accepts
func (e *Event) RemainingSpots() int {
	return e.Spots - e.TakenSpots
}

// IsFull reports whether no places are left
func (e *Event) IsFull() bool {
	return e.RemainingSpots() <= 0
}

// HasStarted reports whether the event start time is at or before now
func (e *Event) HasStarted(now time.Time) bool {
	return !e.StartTime.After(now)
}

// EventWithDistance is an event annotated with its distance from a caller
type EventWithDistance struct {
	Event
	DistanceMeters float64 `json:"distance_meters"`
	Distance       string  `json:"distance"`
}

// LikedEvent marks an event a user saved for later
type LikedEvent struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	EventID   string    `json:"event_id"`
	CreatedOn time.Time `json:"created_on"`
}

// Event constraints
const (
	MaxEventTitleLength = 120
	MaxEventSpots       = 500
)

// CreateEventRequest represents a request to create an event
type CreateEventRequest struct {
	Title      string        `json:"title"`
	Sport      string        `json:"sport"`
	SkillLevel string        `json:"skill_level"`
	StartTime  time.Time     `json:"start_time"`
	Location   EventLocation `json:"location"`
	Spots      int           `json:"spots"`
	ImageURL   *string       `json:"image_url,omitempty"`
	// AutoInvite sends invites to every compatible user (default true)
	AutoInvite *bool `json:"auto_invite,omitempty"`
}

// Validate checks the request and returns field errors
func (r *CreateEventRequest) Validate() []FieldError {
	var errs []FieldError
	if r.Title == "" {
		errs = append(errs, FieldError{Field: "title", Message: "title is required"})
	} else if len(r.Title) > MaxEventTitleLength {
		errs = append(errs, FieldError{Field: "title", Message: "title must be 120 characters or less"})
	}
	if r.Sport == "" {
		errs = append(errs, FieldError{Field: "sport", Message: "sport is required"})
	}
	if r.StartTime.IsZero() {
		errs = append(errs, FieldError{Field: "start_time", Message: "start_time is required"})
	}
	if r.Spots < 1 || r.Spots > MaxEventSpots {
		errs = append(errs, FieldError{Field: "spots", Message: "spots must be between 1 and 500"})
	}
	if r.Location.Lat < -90 || r.Location.Lat > 90 {
		errs = append(errs, FieldError{Field: "location.lat", Message: "lat must be between -90 and 90"})
	}
	if r.Location.Lng < -180 || r.Location.Lng > 180 {
		errs = append(errs, FieldError{Field: "location.lng", Message: "lng must be between -180 and 180"})
	}
	return errs
}

// WantsAutoInvite reports whether compatible users should be invited on creation
func (r *CreateEventRequest) WantsAutoInvite() bool {
	return r.AutoInvite == nil || *r.AutoInvite
}

// EventDetails is the event read model shown on the detail screen
type EventDetails struct {
	Event        *Event             `json:"event"`
	Participants []*Participant     `json:"participants"`
	Status       ParticipationState `json:"status"`
	Invite       *Invite            `json:"invite,omitempty"`
	Liked        bool               `json:"liked"`
}

// EventScope selects one of the event list projections
type EventScope string

const (
	EventScopeAll         EventScope = "all"
	EventScopeJoined      EventScope = "joined"
	EventScopeCreated     EventScope = "created"
	EventScopeLiked       EventScope = "liked"
	EventScopeUpcoming    EventScope = "upcoming"
	EventScopeRecommended EventScope = "recommended"
)

// IsValid checks the scope against the known projections
func (s EventScope) IsValid() bool {
	switch s {
	case EventScopeAll, EventScopeJoined, EventScopeCreated, EventScopeLiked,
		EventScopeUpcoming, EventScopeRecommended:
		return true
	}
	return false
}
