package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/forgo/rally/internal/database"
	"github.com/forgo/rally/internal/model"
)

// ParticipationRepository reads participation records and commits
// version-guarded participation changes.
type ParticipationRepository struct {
	db database.Database
}

// NewParticipationRepository creates a new participation repository
func NewParticipationRepository(db database.Database) *ParticipationRepository {
	return &ParticipationRepository{db: db}
}

// LoadSnapshot reads the event, the user's participation records and the
// optional invite in one round trip. The event is read first, so any change
// committed after it is detected by the version guard in Apply.
func (r *ParticipationRepository) LoadSnapshot(ctx context.Context, scope model.SnapshotScope) (*model.EventSnapshot, error) {
	query := `
		SELECT * FROM type::record($event_id);
		SELECT * FROM participation WHERE event = type::record($event_id) AND user = type::record($user_id);
	`
	vars := map[string]interface{}{
		"event_id": qualify("event", scope.EventID),
		"user_id":  qualify("user", scope.UserID),
	}
	if scope.InviteID != "" {
		query += `SELECT * FROM type::record($invite_id);`
		vars["invite_id"] = qualify("invite", scope.InviteID)
	}

	results, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return nil, fmt.Errorf("loading event snapshot: %w", err)
	}

	snap := &model.EventSnapshot{}
	if rows := database.StatementRecords(results, 0); len(rows) > 0 {
		if data, ok := asRecord(rows[0]); ok {
			snap.Event = parseEvent(data)
		}
	}
	for _, row := range database.StatementRecords(results, 1) {
		if data, ok := asRecord(row); ok {
			snap.Participations = append(snap.Participations, parseParticipation(data))
		}
	}
	if scope.InviteID != "" {
		if rows := database.StatementRecords(results, 2); len(rows) > 0 {
			if data, ok := asRecord(rows[0]); ok {
				snap.Invite = parseInvite(data)
			}
		}
	}

	return snap, nil
}

// Apply commits a mutation in one transaction. The transaction is cancelled
// with database.ErrConflict if the event is no longer at ExpectedVersion or the
// invite being answered is no longer pending.
func (r *ParticipationRepository) Apply(ctx context.Context, m *model.EventMutation) error {
	eventID := qualify("event", m.EventID)
	tb := database.NewTxBuilder()

	tb.Add(`IF (SELECT VALUE version FROM ONLY type::record($event_id)) != $expected { THROW "`+database.ConflictMarker+`" }`,
		map[string]interface{}{"event_id": eventID, "expected": m.ExpectedVersion})

	if m.InviteID != "" {
		inviteID := qualify("invite", m.InviteID)
		tb.Add(`IF (SELECT VALUE status FROM ONLY type::record($invite_id)) != $pending { THROW "`+database.ConflictMarker+`" }`,
			map[string]interface{}{"invite_id": inviteID, "pending": string(model.InviteStatusPending)})
		tb.Add(`UPDATE type::record($invite_id) SET status = $status, responded_at = time::now()`,
			map[string]interface{}{"invite_id": inviteID, "status": string(m.InviteStatus)})
	}

	if p := m.CreateParticipation; p != nil {
		tb.Add(`CREATE participation SET event = type::record($event_id), user = type::record($user_id), joined_at = time::now(), checked_in = false`,
			map[string]interface{}{"event_id": eventID, "user_id": qualify("user", p.UserID)})
	}

	for _, id := range m.DeleteParticipations {
		tb.Add(`DELETE type::record($participation_id)`,
			map[string]interface{}{"participation_id": qualify("participation", id)})
	}

	if m.CheckInParticipation != "" {
		tb.Add(`UPDATE type::record($participation_id) SET checked_in = true, checked_in_at = time::now()`,
			map[string]interface{}{"participation_id": qualify("participation", m.CheckInParticipation)})
	}

	tb.Add(`UPDATE type::record($event_id) SET taken_spots = $taken_spots, version += 1, updated_on = time::now()`,
		map[string]interface{}{"event_id": eventID, "taken_spots": m.TakenSpots})

	_, err := database.ExecuteTransaction(ctx, r.db, tb)
	return err
}

// ListByEvent returns every participation record of an event in join order
func (r *ParticipationRepository) ListByEvent(ctx context.Context, eventID string) ([]*model.Participation, error) {
	query := `SELECT * FROM participation WHERE event = type::record($event_id) ORDER BY joined_at ASC`
	vars := map[string]interface{}{"event_id": qualify("event", eventID)}

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return nil, err
	}
	return parseParticipations(result), nil
}

// GetByEventAndUser returns the user's records for an event; normally zero or one
func (r *ParticipationRepository) GetByEventAndUser(ctx context.Context, eventID, userID string) ([]*model.Participation, error) {
	query := `SELECT * FROM participation WHERE event = type::record($event_id) AND user = type::record($user_id)`
	vars := map[string]interface{}{
		"event_id": qualify("event", eventID),
		"user_id":  qualify("user", userID),
	}

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return parseParticipations(result), nil
}

// JoinedEventIDs returns the ids of all events a user participates in
func (r *ParticipationRepository) JoinedEventIDs(ctx context.Context, userID string) ([]string, error) {
	query := `SELECT VALUE event FROM participation WHERE user = type::record($user_id)`
	vars := map[string]interface{}{"user_id": qualify("user", userID)}

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0)
	for _, v := range database.StatementRecords(result, 0) {
		if id := convertSurrealID(v); id != "" {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func parseParticipations(result []interface{}) []*model.Participation {
	rows := flattenRecords(result)
	out := make([]*model.Participation, 0, len(rows))
	for _, row := range rows {
		out = append(out, parseParticipation(row))
	}
	return out
}

func parseParticipation(data map[string]interface{}) *model.Participation {
	return &model.Participation{
		ID:          getRecordID(data, "id"),
		EventID:     getRecordID(data, "event"),
		UserID:      getRecordID(data, "user"),
		JoinedAt:    getTimeValue(data, "joined_at"),
		CheckedIn:   getBool(data, "checked_in"),
		CheckedInAt: getTime(data, "checked_in_at"),
	}
}
