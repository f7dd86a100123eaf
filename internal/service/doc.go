// Package service implements the business logic of the Rally API.
//
// Services sit between the HTTP handlers and the repositories. Each service
// is built from a config struct and declares the repository interfaces it
// needs, so tests can substitute in-memory fakes.
//
// # Participation
//
// Every change to an event's spot counter goes through EventTransactor:
//
//	snap, err := transactor.WithEventTransaction(ctx, scope, func(snap *model.EventSnapshot) (*model.EventMutation, error) {
//	    return planJoin(snap, userID)
//	})
//
// The function decides the outcome from a freshly loaded snapshot and returns
// the writes to make. The writes are committed only if the event version is
// unchanged; otherwise the snapshot is reloaded and the function runs again.
// Join, leave, check-in and invite acceptance all use this path, so their
// checks and writes cannot interleave with a concurrent change.
//
// Participation and invite states move only through TransitionParticipation
// and TransitionInvite.
//
// # Errors
//
// Services return the sentinel errors in errors.go, wrapped with context where
// useful. Callers match them with errors.Is; CheckInWait extracts the wait
// time from a not-yet-open check-in.
package service
