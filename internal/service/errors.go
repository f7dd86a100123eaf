package service

import (
	"errors"
	"fmt"
	"time"
)

// Centralized service layer errors.
// All errors returned by service methods are defined here for consistency
// and to make error handling in handlers predictable.

// ===== Event Errors =====
var (
	ErrEventNotFound   = errors.New("event not found")
	ErrInvalidEvent    = errors.New("invalid event")
	ErrNotEventCreator = errors.New("only the event creator can do this")
)

// ===== Participation Errors =====
var (
	ErrCapacityExceeded  = errors.New("no more places available")
	ErrAlreadyJoined     = errors.New("already joined this event")
	ErrNotRegistered     = errors.New("not registered for this event")
	ErrAlreadyCheckedIn  = errors.New("already checked in")
	ErrCheckInNotYetOpen = errors.New("check-in is not open yet")
	ErrCheckInClosed     = errors.New("check-in is closed")
	ErrConcurrentUpdate  = errors.New("event is busy, please try again")

	// ErrInvariantViolation signals stored state that the engine should never
	// have produced, e.g. a leave that would drive taken spots below zero.
	ErrInvariantViolation = errors.New("participation invariant violated")
)

// ===== Invite Errors =====
var (
	ErrInviteNotFound   = errors.New("invite not found")
	ErrInviteNotPending = errors.New("invite has already been answered")
	ErrAlreadyInvited   = errors.New("user already invited to this event")
	ErrCannotInviteSelf = errors.New("cannot invite yourself")
)

// ===== User Errors =====
var (
	ErrUserNotFound    = errors.New("user not found")
	ErrInvalidCriteria = errors.New("invalid match criteria")
)

// CheckInNotYetOpenError carries how long the caller has to wait before the
// check-in window opens. It matches ErrCheckInNotYetOpen with errors.Is.
type CheckInNotYetOpenError struct {
	Wait time.Duration
}

func (e *CheckInNotYetOpenError) Error() string {
	return fmt.Sprintf("%s: opens in %s", ErrCheckInNotYetOpen.Error(), e.Wait.Round(time.Second))
}

// Is makes errors.Is(err, ErrCheckInNotYetOpen) true
func (e *CheckInNotYetOpenError) Is(target error) bool {
	return target == ErrCheckInNotYetOpen
}

// CheckInWait extracts the remaining wait from a CheckInNotYetOpenError
func CheckInWait(err error) (time.Duration, bool) {
	var notOpen *CheckInNotYetOpenError
	if errors.As(err, &notOpen) {
		return notOpen.Wait, true
	}
	return 0, false
}
