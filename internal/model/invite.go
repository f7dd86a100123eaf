package model

import "time"

// InviteStatus is the lifecycle state of an invite
type InviteStatus string

const (
	InviteStatusPending  InviteStatus = "pending"
	InviteStatusAccepted InviteStatus = "accepted"
	InviteStatusDeclined InviteStatus = "declined"
)

// IsValid checks the status against the known values
func (s InviteStatus) IsValid() bool {
	switch s {
	case InviteStatusPending, InviteStatusAccepted, InviteStatusDeclined:
		return true
	}
	return false
}

// InviteAction is a response applied to an InviteStatus
type InviteAction string

const (
	InviteActionAccept  InviteAction = "accept"
	InviteActionDecline InviteAction = "decline"
)

// Invite is an offer from an event creator to a specific user
type Invite struct {
	ID          string       `json:"id"`
	EventID     string       `json:"event_id"`
	InviterID   string       `json:"inviter_id"`
	InviteeID   string       `json:"invitee_id"`
	Status      InviteStatus `json:"status"`
	InvitedAt   time.Time    `json:"invited_at"`
	RespondedAt *time.Time   `json:"responded_at,omitempty"`
}

// IsPending reports whether the invite still awaits a response
func (i *Invite) IsPending() bool {
	return i.Status == InviteStatusPending
}

// CreateInviteRequest represents a manual invite from the event creator
type CreateInviteRequest struct {
	InviteeID string `json:"invitee_id"`
}

// CreateEventResult is returned after creating an event
type CreateEventResult struct {
	Event   *Event    `json:"event"`
	Invites []*Invite `json:"invites"`
}
