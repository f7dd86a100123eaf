package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/forgo/rally/internal/model"
	"github.com/forgo/rally/internal/service"
)

// MapServiceError converts a service error to a ProblemDetails response.
// Every handler goes through here so the same error always yields the same
// status and code.
func MapServiceError(err error) *model.ProblemDetails {
	if err == nil {
		return nil
	}

	if wait, ok := service.CheckInWait(err); ok {
		seconds := int(math.Ceil(wait.Seconds()))
		return model.NewCheckInNotOpenError(fmt.Sprintf("check-in opens in %ds", seconds), seconds)
	}

	switch {
	// ===== Not Found Errors → 404 =====
	case errors.Is(err, service.ErrEventNotFound):
		return model.NewNotFoundError("event")
	case errors.Is(err, service.ErrInviteNotFound):
		return model.NewNotFoundError("invite")
	case errors.Is(err, service.ErrUserNotFound):
		return model.NewNotFoundError("user")

	// ===== Authorization Errors → 403 =====
	case errors.Is(err, service.ErrNotEventCreator):
		p := model.NewForbiddenError(err.Error())
		p.Code = model.ErrCodeNotEventCreator
		return p

	// ===== Participation Errors → 409 =====
	case errors.Is(err, service.ErrCapacityExceeded):
		return model.NewParticipationError("capacity-exceeded", model.ErrCodeCapacityExceeded, err.Error())
	case errors.Is(err, service.ErrAlreadyJoined):
		return model.NewParticipationError("already-joined", model.ErrCodeAlreadyJoined, err.Error())
	case errors.Is(err, service.ErrNotRegistered):
		return model.NewParticipationError("not-registered", model.ErrCodeNotRegistered, err.Error())
	case errors.Is(err, service.ErrAlreadyCheckedIn):
		return model.NewParticipationError("already-checked-in", model.ErrCodeAlreadyCheckedIn, err.Error())
	case errors.Is(err, service.ErrCheckInNotYetOpen):
		return model.NewParticipationError("check-in-not-open", model.ErrCodeCheckInNotOpen, err.Error())
	case errors.Is(err, service.ErrCheckInClosed):
		return model.NewParticipationError("check-in-closed", model.ErrCodeCheckInClosed, err.Error())
	case errors.Is(err, service.ErrInviteNotPending):
		return model.NewParticipationError("invite-not-pending", model.ErrCodeInviteNotPending, err.Error())
	case errors.Is(err, service.ErrConcurrentUpdate):
		return model.NewParticipationError("concurrent-update", model.ErrCodeConcurrentUpdate, err.Error())

	// ===== Conflict Errors → 409 =====
	case errors.Is(err, service.ErrAlreadyInvited):
		p := model.NewConflictError(err.Error())
		p.Code = model.ErrCodeAlreadyExists
		return p

	// ===== Validation Errors → 422 =====
	case errors.Is(err, service.ErrInvalidEvent):
		return model.NewValidationError([]model.FieldError{{Field: "event", Message: err.Error()}})
	case errors.Is(err, service.ErrInvalidCriteria):
		return model.NewValidationError([]model.FieldError{{Field: "criteria", Message: err.Error()}})
	case errors.Is(err, service.ErrCannotInviteSelf):
		return model.NewValidationError([]model.FieldError{{Field: "invitee_id", Message: err.Error()}})

	// ===== Broken invariants → 500 =====
	case errors.Is(err, service.ErrInvariantViolation):
		slog.Error("participation invariant violated", slog.String("error", err.Error()))
		return model.NewInternalError("")

	// ===== Default → 500 =====
	default:
		slog.Error("unhandled service error", slog.String("error", err.Error()))
		return model.NewInternalError("")
	}
}

// MapServiceErrorWithContext is MapServiceError with the failed operation
// named in the detail of internal errors.
func MapServiceErrorWithContext(err error, operation string) *model.ProblemDetails {
	pd := MapServiceError(err)
	if pd != nil && pd.Status == 500 {
		pd.Detail = operation + ": an unexpected error occurred"
	}
	return pd
}
