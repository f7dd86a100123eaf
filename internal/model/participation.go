package model

import "time"

// Participation links one user to one event. At most one record exists per
// (event, user) pair; it is created on join and deleted on leave.
type Participation struct {
	ID          string     `json:"id"`
	EventID     string     `json:"event_id"`
	UserID      string     `json:"user_id"`
	JoinedAt    time.Time  `json:"joined_at"`
	CheckedIn   bool       `json:"checked_in"`
	CheckedInAt *time.Time `json:"checked_in_at,omitempty"`
}

// ParticipationState is the state of a (user, event) pair
type ParticipationState string

const (
	ParticipationNotJoined ParticipationState = "not_joined"
	ParticipationJoined    ParticipationState = "joined"
	ParticipationCheckedIn ParticipationState = "checked_in"
)

// ParticipationAction is an intent applied to a ParticipationState
type ParticipationAction string

const (
	ActionJoin    ParticipationAction = "join"
	ActionLeave   ParticipationAction = "leave"
	ActionCheckIn ParticipationAction = "check_in"
)

// StateOf derives the participation state from the records found for a pair
func StateOf(records []*Participation) ParticipationState {
	if len(records) == 0 {
		return ParticipationNotJoined
	}
	for _, p := range records {
		if p.CheckedIn {
			return ParticipationCheckedIn
		}
	}
	return ParticipationJoined
}

// Participant is the display summary of a user taking part in an event
type Participant struct {
	UserID      string     `json:"user_id"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	Rating      float64    `json:"rating"`
	PictureURL  *string    `json:"picture_url,omitempty"`
	JoinedAt    time.Time  `json:"joined_at"`
	CheckedIn   bool       `json:"checked_in"`
	CheckedInAt *time.Time `json:"checked_in_at,omitempty"`
}

// EventSnapshot is everything a participation change needs to decide its
// outcome, read at one event version.
type EventSnapshot struct {
	Event          *Event
	Participations []*Participation // records for the acting user only
	Invite         *Invite
}

// SnapshotScope selects what LoadSnapshot reads
type SnapshotScope struct {
	EventID  string
	UserID   string
	InviteID string // optional
}

// EventMutation is the write set of one participation change. It is applied
// atomically and only if the event is still at ExpectedVersion.
type EventMutation struct {
	EventID         string
	ExpectedVersion int
	TakenSpots      int

	CreateParticipation  *Participation
	DeleteParticipations []string
	CheckInParticipation string
	InviteID             string
	InviteStatus         InviteStatus
}
