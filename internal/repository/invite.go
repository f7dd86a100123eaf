package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/forgo/rally/internal/database"
	"github.com/forgo/rally/internal/model"
)

// InviteRepository handles event invite data access
type InviteRepository struct {
	db database.Database
}

// NewInviteRepository creates a new invite repository
func NewInviteRepository(db database.Database) *InviteRepository {
	return &InviteRepository{db: db}
}

// Create inserts a pending invite. A second invite for the same (event,
// invitee) pair fails with database.ErrDuplicate.
func (r *InviteRepository) Create(ctx context.Context, invite *model.Invite) error {
	query := `
		CREATE invite SET
			event = type::record($event_id),
			inviter = type::record($inviter_id),
			invitee = type::record($invitee_id),
			status = $status,
			invited_at = time::now()
	`
	vars := map[string]interface{}{
		"event_id":   qualify("event", invite.EventID),
		"inviter_id": qualify("user", invite.InviterID),
		"invitee_id": qualify("user", invite.InviteeID),
		"status":     string(model.InviteStatusPending),
	}

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return fmt.Errorf("%w: invite already exists for this user", database.ErrDuplicate)
		}
		return err
	}

	created, err := database.FirstRecord(result)
	if err != nil {
		return err
	}
	data, ok := asRecord(created)
	if !ok {
		return errors.New("unexpected result format")
	}

	*invite = *parseInvite(data)
	return nil
}

// Get retrieves an invite by ID, nil if it does not exist
func (r *InviteRepository) Get(ctx context.Context, inviteID string) (*model.Invite, error) {
	query := `SELECT * FROM type::record($invite_id)`
	vars := map[string]interface{}{"invite_id": qualify("invite", inviteID)}

	result, err := r.db.QueryOne(ctx, query, vars)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	data, ok := asRecord(result)
	if !ok {
		return nil, errors.New("unexpected result format")
	}
	return parseInvite(data), nil
}

// GetForInvitee returns the invite a user received for an event, nil if none
func (r *InviteRepository) GetForInvitee(ctx context.Context, eventID, userID string) (*model.Invite, error) {
	query := `SELECT * FROM invite WHERE event = type::record($event_id) AND invitee = type::record($user_id) LIMIT 1`
	vars := map[string]interface{}{
		"event_id": qualify("event", eventID),
		"user_id":  qualify("user", userID),
	}

	result, err := r.db.QueryOne(ctx, query, vars)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	data, ok := asRecord(result)
	if !ok {
		return nil, errors.New("unexpected result format")
	}
	return parseInvite(data), nil
}

// ListByEvent returns all invites of an event
func (r *InviteRepository) ListByEvent(ctx context.Context, eventID string) ([]*model.Invite, error) {
	query := `SELECT * FROM invite WHERE event = type::record($event_id) ORDER BY invited_at ASC`
	vars := map[string]interface{}{"event_id": qualify("event", eventID)}

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return nil, err
	}
	return parseInvites(result), nil
}

// ListByUser returns all invites addressed to a user, newest first
func (r *InviteRepository) ListByUser(ctx context.Context, userID string) ([]*model.Invite, error) {
	query := `SELECT * FROM invite WHERE invitee = type::record($user_id) ORDER BY invited_at DESC`
	vars := map[string]interface{}{"user_id": qualify("user", userID)}

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return nil, err
	}
	return parseInvites(result), nil
}

// Decline moves a pending invite addressed to userID to declined.
// Returns nil when the invite was not pending or belongs to someone else.
func (r *InviteRepository) Decline(ctx context.Context, inviteID, userID string) (*model.Invite, error) {
	query := `
		UPDATE type::record($invite_id)
		SET status = $declined, responded_at = time::now()
		WHERE status = $pending AND invitee = type::record($user_id)
		RETURN AFTER
	`
	vars := map[string]interface{}{
		"invite_id": qualify("invite", inviteID),
		"user_id":   qualify("user", userID),
		"declined":  string(model.InviteStatusDeclined),
		"pending":   string(model.InviteStatusPending),
	}

	result, err := r.db.QueryOne(ctx, query, vars)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	data, ok := asRecord(result)
	if !ok {
		return nil, errors.New("unexpected result format")
	}
	return parseInvite(data), nil
}

// ExpireStarted declines every pending invite whose event started before now
// and returns how many were changed.
func (r *InviteRepository) ExpireStarted(ctx context.Context, now time.Time) (int, error) {
	query := `
		UPDATE invite
		SET status = $declined, responded_at = time::now()
		WHERE status = $pending AND event.start_time <= $now
		RETURN AFTER
	`
	vars := map[string]interface{}{
		"declined": string(model.InviteStatusDeclined),
		"pending":  string(model.InviteStatusPending),
		"now":      now.UTC(),
	}

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return 0, err
	}
	return len(flattenRecords(result)), nil
}

func parseInvites(result []interface{}) []*model.Invite {
	rows := flattenRecords(result)
	out := make([]*model.Invite, 0, len(rows))
	for _, row := range rows {
		out = append(out, parseInvite(row))
	}
	return out
}

func parseInvite(data map[string]interface{}) *model.Invite {
	return &model.Invite{
		ID:          getRecordID(data, "id"),
		EventID:     getRecordID(data, "event"),
		InviterID:   getRecordID(data, "inviter"),
		InviteeID:   getRecordID(data, "invitee"),
		Status:      model.InviteStatus(getString(data, "status")),
		InvitedAt:   getTimeValue(data, "invited_at"),
		RespondedAt: getTime(data, "responded_at"),
	}
}
