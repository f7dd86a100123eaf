package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/forgo/rally/internal/database"
	"github.com/forgo/rally/internal/model"
)

// EventRepository handles event and liked-event data access
type EventRepository struct {
	db database.Database
}

// NewEventRepository creates a new event repository
func NewEventRepository(db database.Database) *EventRepository {
	return &EventRepository{db: db}
}

// qualify prefixes a bare id with its table so type::record() accepts it.
// A prefix naming another table is replaced, so the lookup stays in table.
func qualify(table, id string) string {
	if id == "" {
		return id
	}
	if prefix, key, ok := strings.Cut(id, ":"); ok {
		if prefix == table {
			return id
		}
		return table + ":" + key
	}
	return table + ":" + id
}

// Create creates a new event with zero taken spots
func (r *EventRepository) Create(ctx context.Context, event *model.Event) error {
	setClause := `
		title = $title,
		sport = $sport,
		skill_level = $skill_level,
		start_time = $start_time,
		location = $location,
		spots = $spots,
		taken_spots = 0,
		version = 0,
		creator = type::record($creator_id),
		created_on = time::now(),
		updated_on = time::now()`

	vars := map[string]interface{}{
		"title":       event.Title,
		"sport":       event.Sport,
		"skill_level": event.SkillLevel,
		"start_time":  event.StartTime.UTC(),
		"spots":       event.Spots,
		"creator_id":  qualify("user", event.CreatorID),
		"location": map[string]interface{}{
			"lat":         event.Location.Lat,
			"lng":         event.Location.Lng,
			"street":      event.Location.Street,
			"city":        event.Location.City,
			"postal_code": event.Location.PostalCode,
			"country":     event.Location.Country,
		},
	}

	// option<string> needs NONE rather than NULL, so only set when present
	if event.ImageURL != nil {
		setClause += ", image_url = $image_url"
		vars["image_url"] = *event.ImageURL
	}

	result, err := r.db.Query(ctx, "CREATE event SET "+setClause, vars)
	if err != nil {
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

	*event = *parseEvent(data)
	return nil
}

// Get retrieves an event by ID, nil if it does not exist
func (r *EventRepository) Get(ctx context.Context, eventID string) (*model.Event, error) {
	query := `SELECT * FROM type::record($event_id)`
	vars := map[string]interface{}{"event_id": qualify("event", eventID)}

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
	return parseEvent(data), nil
}

// List returns all events ordered by start time
func (r *EventRepository) List(ctx context.Context) ([]*model.Event, error) {
	return r.queryEvents(ctx, `SELECT * FROM event ORDER BY start_time ASC`, nil)
}

// ListByCreator returns the events a user created
func (r *EventRepository) ListByCreator(ctx context.Context, userID string) ([]*model.Event, error) {
	query := `SELECT * FROM event WHERE creator = type::record($user_id) ORDER BY start_time ASC`
	return r.queryEvents(ctx, query, map[string]interface{}{"user_id": qualify("user", userID)})
}

// ListByParticipant returns the events a user has a participation record for
func (r *EventRepository) ListByParticipant(ctx context.Context, userID string) ([]*model.Event, error) {
	query := `
		SELECT * FROM event
		WHERE id IN (SELECT VALUE event FROM participation WHERE user = type::record($user_id))
		ORDER BY start_time ASC
	`
	return r.queryEvents(ctx, query, map[string]interface{}{"user_id": qualify("user", userID)})
}

// ListUpcoming returns events starting after now
func (r *EventRepository) ListUpcoming(ctx context.Context, now time.Time) ([]*model.Event, error) {
	query := `SELECT * FROM event WHERE start_time > $now ORDER BY start_time ASC`
	return r.queryEvents(ctx, query, map[string]interface{}{"now": now.UTC()})
}

// ListLiked returns the events a user liked
func (r *EventRepository) ListLiked(ctx context.Context, userID string) ([]*model.Event, error) {
	query := `
		SELECT * FROM event
		WHERE id IN (SELECT VALUE event FROM liked_event WHERE user = type::record($user_id))
		ORDER BY start_time ASC
	`
	return r.queryEvents(ctx, query, map[string]interface{}{"user_id": qualify("user", userID)})
}

// Like records that a user saved an event. Liking twice is a no-op.
func (r *EventRepository) Like(ctx context.Context, userID, eventID string) error {
	query := `
		LET $existing = (SELECT id FROM liked_event WHERE user = type::record($user_id) AND event = type::record($event_id));
		IF array::len($existing) = 0 {
			CREATE liked_event SET user = type::record($user_id), event = type::record($event_id), created_on = time::now();
		};
	`
	vars := map[string]interface{}{
		"user_id":  qualify("user", userID),
		"event_id": qualify("event", eventID),
	}

	err := r.db.Execute(ctx, query, vars)
	if errors.Is(err, database.ErrDuplicate) {
		return nil
	}
	return err
}

// Unlike removes a like. Unliking an event that was not liked is a no-op.
func (r *EventRepository) Unlike(ctx context.Context, userID, eventID string) error {
	query := `DELETE liked_event WHERE user = type::record($user_id) AND event = type::record($event_id)`
	vars := map[string]interface{}{
		"user_id":  qualify("user", userID),
		"event_id": qualify("event", eventID),
	}
	return r.db.Execute(ctx, query, vars)
}

// IsLiked reports whether a user liked an event
func (r *EventRepository) IsLiked(ctx context.Context, userID, eventID string) (bool, error) {
	query := `SELECT count() AS count FROM liked_event WHERE user = type::record($user_id) AND event = type::record($event_id) GROUP ALL`
	vars := map[string]interface{}{
		"user_id":  qualify("user", userID),
		"event_id": qualify("event", eventID),
	}

	result, err := r.db.QueryOne(ctx, query, vars)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	data, ok := asRecord(result)
	if !ok {
		return false, nil
	}
	return getInt(data, "count") > 0, nil
}

func (r *EventRepository) queryEvents(ctx context.Context, query string, vars map[string]interface{}) ([]*model.Event, error) {
	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return nil, fmt.Errorf("querying events: %w", err)
	}
	return parseEvents(result), nil
}

func parseEvents(result []interface{}) []*model.Event {
	rows := flattenRecords(result)
	events := make([]*model.Event, 0, len(rows))
	for _, row := range rows {
		events = append(events, parseEvent(row))
	}
	return events
}

func parseEvent(data map[string]interface{}) *model.Event {
	event := &model.Event{
		ID:         getRecordID(data, "id"),
		Title:      getString(data, "title"),
		Sport:      getString(data, "sport"),
		SkillLevel: getString(data, "skill_level"),
		StartTime:  getTimeValue(data, "start_time"),
		Spots:      getInt(data, "spots"),
		TakenSpots: getInt(data, "taken_spots"),
		CreatorID:  getRecordID(data, "creator"),
		ImageURL:   getStringPtr(data, "image_url"),
		Version:    getInt(data, "version"),
		CreatedOn:  getTimeValue(data, "created_on"),
		UpdatedOn:  getTimeValue(data, "updated_on"),
	}

	if loc, ok := asRecord(data["location"]); ok {
		event.Location = model.EventLocation{
			Lat:        getFloat(loc, "lat"),
			Lng:        getFloat(loc, "lng"),
			Street:     getString(loc, "street"),
			City:       getString(loc, "city"),
			PostalCode: getString(loc, "postal_code"),
			Country:    getString(loc, "country"),
		}
	}

	return event
}
