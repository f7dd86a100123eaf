package service

import (
	"fmt"

	"github.com/forgo/rally/internal/model"
)

// TransitionParticipation is the single transition function of the
// (user, event) participation state machine:
//
//	NotJoined --join-->     Joined
//	Joined    --check_in--> CheckedIn
//	Joined    --leave-->    NotJoined
//	CheckedIn --leave-->    NotJoined
//
// Every other pair is refused with the error the caller surfaces.
func TransitionParticipation(from model.ParticipationState, action model.ParticipationAction) (model.ParticipationState, error) {
	switch action {
	case model.ActionJoin:
		if from == model.ParticipationNotJoined {
			return model.ParticipationJoined, nil
		}
		return from, ErrAlreadyJoined

	case model.ActionLeave:
		if from == model.ParticipationNotJoined {
			return from, ErrNotRegistered
		}
		return model.ParticipationNotJoined, nil

	case model.ActionCheckIn:
		switch from {
		case model.ParticipationJoined:
			return model.ParticipationCheckedIn, nil
		case model.ParticipationCheckedIn:
			return from, ErrAlreadyCheckedIn
		default:
			return from, ErrNotRegistered
		}
	}

	return from, fmt.Errorf("unknown participation action %q", action)
}

// TransitionInvite is the single transition function of the invite state
// machine. Only pending invites can be answered, and answers are final.
func TransitionInvite(from model.InviteStatus, action model.InviteAction) (model.InviteStatus, error) {
	if from != model.InviteStatusPending {
		return from, ErrInviteNotPending
	}

	switch action {
	case model.InviteActionAccept:
		return model.InviteStatusAccepted, nil
	case model.InviteActionDecline:
		return model.InviteStatusDeclined, nil
	}

	return from, fmt.Errorf("unknown invite action %q", action)
}
