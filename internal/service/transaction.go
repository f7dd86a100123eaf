package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/forgo/rally/internal/database"
	"github.com/forgo/rally/internal/model"
)

// DefaultMaxCommitAttempts bounds consecutive conflicts during which the event
// version did not move, when no limit is configured.
const DefaultMaxCommitAttempts = 8

// SnapshotStore loads event snapshots and applies version-guarded mutations
type SnapshotStore interface {
	LoadSnapshot(ctx context.Context, scope model.SnapshotScope) (*model.EventSnapshot, error)
	Apply(ctx context.Context, m *model.EventMutation) error
}

// ChangeFunc decides the outcome of a participation change from a snapshot.
// It must be a pure function of the snapshot: it may run several times.
// Returning a nil mutation means there is nothing to write.
type ChangeFunc func(snap *model.EventSnapshot) (*model.EventMutation, error)

// EventTransactor is the only path through which spot counters, participation
// records and invite answers are written.
type EventTransactor struct {
	store       SnapshotStore
	maxAttempts int
}

// NewEventTransactor creates a transactor. maxAttempts <= 0 uses the default.
func NewEventTransactor(store SnapshotStore, maxAttempts int) *EventTransactor {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxCommitAttempts
	}
	return &EventTransactor{store: store, maxAttempts: maxAttempts}
}

// WithEventTransaction loads a fresh snapshot, runs fn and commits its
// mutation guarded on the snapshot's event version. A lost race reloads and
// re-runs fn. Races lost to a commit that advanced the event version are
// retried until fn decides or ctx ends; only maxAttempts consecutive conflicts
// without such progress return ErrConcurrentUpdate.
// The snapshot fn approved is returned on success.
func (t *EventTransactor) WithEventTransaction(ctx context.Context, scope model.SnapshotScope, fn ChangeFunc) (*model.EventSnapshot, error) {
	stalls := 0
	lostAt := -1
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		snap, err := t.store.LoadSnapshot(ctx, scope)
		if err != nil {
			return nil, err
		}
		if lostAt >= 0 && snap.Event != nil && snap.Event.Version > lostAt {
			stalls = 0
		}

		mutation, err := fn(snap)
		if err != nil {
			return snap, err
		}
		if mutation == nil {
			return snap, nil
		}
		if snap.Event == nil {
			return snap, ErrEventNotFound
		}

		mutation.EventID = snap.Event.ID
		mutation.ExpectedVersion = snap.Event.Version

		err = t.store.Apply(ctx, mutation)
		switch {
		case err == nil:
			return snap, nil
		case errors.Is(err, database.ErrConflict):
			stalls++
			if stalls >= t.maxAttempts {
				slog.Warn("giving up on contended event",
					slog.String("event_id", snap.Event.ID),
					slog.Int("attempts", attempt),
				)
				return nil, ErrConcurrentUpdate
			}
			lostAt = snap.Event.Version
			slog.Debug("event version moved, retrying",
				slog.String("event_id", snap.Event.ID),
				slog.Int("attempt", attempt),
			)
			continue
		case errors.Is(err, database.ErrDuplicate) && mutation.CreateParticipation != nil:
			// unique (event, user) index caught a record the snapshot did not show
			return nil, ErrAlreadyJoined
		default:
			return nil, fmt.Errorf("committing participation change: %w", err)
		}
	}
}

// planJoin decides a join against a snapshot: the already-joined check and the
// capacity check are evaluated on the same state that the commit is guarded on.
func planJoin(snap *model.EventSnapshot, userID string) (*model.EventMutation, error) {
	if snap.Event == nil {
		return nil, ErrEventNotFound
	}
	if _, err := TransitionParticipation(model.StateOf(snap.Participations), model.ActionJoin); err != nil {
		return nil, err
	}
	if snap.Event.IsFull() {
		return nil, ErrCapacityExceeded
	}

	return &model.EventMutation{
		TakenSpots: snap.Event.TakenSpots + 1,
		CreateParticipation: &model.Participation{
			EventID: snap.Event.ID,
			UserID:  userID,
		},
	}, nil
}

// sameID compares ids that may or may not carry their "table:" prefix
func sameID(a, b string) bool {
	return idKey(a) == idKey(b)
}

func idKey(id string) string {
	if i := strings.Index(id, ":"); i >= 0 {
		return id[i+1:]
	}
	return id
}
