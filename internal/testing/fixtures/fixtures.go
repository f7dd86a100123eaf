package fixtures

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"github.com/forgo/rally/internal/database"
	"github.com/forgo/rally/internal/model"
	"github.com/forgo/rally/internal/repository"
)

// Factory creates test entities in the database
type Factory struct {
	db            database.Database
	users         *repository.UserRepository
	events        *repository.EventRepository
	participation *repository.ParticipationRepository
	invites       *repository.InviteRepository
}

// New creates a new fixture factory
func New(db database.Database) *Factory {
	return &Factory{
		db:            db,
		users:         repository.NewUserRepository(db),
		events:        repository.NewEventRepository(db),
		participation: repository.NewParticipationRepository(db),
		invites:       repository.NewInviteRepository(db),
	}
}

func randomID() string {
	b := make([]byte, 4)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

func ctx(t *testing.T) context.Context {
	c, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return c
}

// ============================================================================
// User Fixtures
// ============================================================================

// UserOpts customizes user creation
type UserOpts struct {
	FirstName      string
	LastName       string
	FavouriteSport string
	SkillLevel     string
	Availability   []string
	IsAvailable    bool
	Rating         float64
}

// WithSport sets the favourite sport and skill level
func WithSport(sport, skill string) func(*UserOpts) {
	return func(o *UserOpts) {
		o.FavouriteSport = sport
		o.SkillLevel = skill
	}
}

// WithAvailability sets the weekdays the user can play
func WithAvailability(weekdays ...string) func(*UserOpts) {
	return func(o *UserOpts) {
		o.Availability = weekdays
	}
}

// Unavailable marks the user as not looking for games
func Unavailable(o *UserOpts) {
	o.IsAvailable = false
}

// CreateUser creates an available user with no sport preferences
func (f *Factory) CreateUser(t *testing.T, opts ...func(*UserOpts)) *model.User {
	t.Helper()

	o := &UserOpts{
		FirstName:    "Player",
		LastName:     randomID(),
		Availability: []string{},
		IsAvailable:  true,
	}
	for _, fn := range opts {
		fn(o)
	}

	user := &model.User{
		FirstName:      o.FirstName,
		LastName:       o.LastName,
		FavouriteSport: o.FavouriteSport,
		SkillLevel:     o.SkillLevel,
		Availability:   o.Availability,
		IsAvailable:    o.IsAvailable,
		Rating:         o.Rating,
	}
	if err := f.users.Create(ctx(t), user); err != nil {
		t.Fatalf("fixtures: failed to create user: %v", err)
	}
	return user
}

// CreateUsers creates n users sharing the same options
func (f *Factory) CreateUsers(t *testing.T, n int, opts ...func(*UserOpts)) []*model.User {
	t.Helper()
	users := make([]*model.User, n)
	for i := range users {
		users[i] = f.CreateUser(t, opts...)
	}
	return users
}

// ============================================================================
// Event Fixtures
// ============================================================================

// EventOpts customizes event creation
type EventOpts struct {
	Title      string
	Sport      string
	SkillLevel string
	StartTime  time.Time
	Spots      int
	Location   model.EventLocation
}

// WithSpots sets the event capacity
func WithSpots(n int) func(*EventOpts) {
	return func(o *EventOpts) {
		o.Spots = n
	}
}

// StartingAt sets the event start time
func StartingAt(start time.Time) func(*EventOpts) {
	return func(o *EventOpts) {
		o.StartTime = start
	}
}

// ForSport sets the event sport and skill level
func ForSport(sport, skill string) func(*EventOpts) {
	return func(o *EventOpts) {
		o.Sport = sport
		o.SkillLevel = skill
	}
}

// CreateEvent creates a football event tomorrow with ten spots
func (f *Factory) CreateEvent(t *testing.T, creator *model.User, opts ...func(*EventOpts)) *model.Event {
	t.Helper()

	o := &EventOpts{
		Title:     fmt.Sprintf("Game %s", randomID()),
		Sport:     "Football",
		StartTime: time.Now().Add(24 * time.Hour).Truncate(time.Second),
		Spots:     10,
		Location: model.EventLocation{
			Lat:     52.5200,
			Lng:     13.4050,
			Street:  "Alexanderplatz 1",
			City:    "Berlin",
			Country: "Germany",
		},
	}
	for _, fn := range opts {
		fn(o)
	}

	event := &model.Event{
		Title:      o.Title,
		Sport:      o.Sport,
		SkillLevel: o.SkillLevel,
		StartTime:  o.StartTime,
		Location:   o.Location,
		Spots:      o.Spots,
		CreatorID:  creator.ID,
	}
	if err := f.events.Create(ctx(t), event); err != nil {
		t.Fatalf("fixtures: failed to create event: %v", err)
	}
	return event
}

// GetEvent reloads an event, failing the test if it is gone
func (f *Factory) GetEvent(t *testing.T, eventID string) *model.Event {
	t.Helper()
	event, err := f.events.Get(ctx(t), eventID)
	if err != nil || event == nil {
		t.Fatalf("fixtures: failed to load event %s: %v", eventID, err)
	}
	return event
}

// ============================================================================
// Participation Fixtures
// ============================================================================

// CreateParticipation joins user to event directly in the database, keeping
// taken_spots and the event version consistent with the new record.
func (f *Factory) CreateParticipation(t *testing.T, event *model.Event, user *model.User) *model.Participation {
	t.Helper()

	c := ctx(t)
	vars := map[string]interface{}{
		"event_id": event.ID,
		"user_id":  user.ID,
	}
	err := database.NewAtomicBatch().
		Add(`CREATE participation SET event = type::record($event_id), user = type::record($user_id), joined_at = time::now(), checked_in = false`, vars).
		Add(`UPDATE type::record($event_id) SET taken_spots += 1, version += 1`, vars).
		Execute(c, f.db)
	if err != nil {
		t.Fatalf("fixtures: failed to create participation: %v", err)
	}

	records, err := f.participation.GetByEventAndUser(c, event.ID, user.ID)
	if err != nil || len(records) == 0 {
		t.Fatalf("fixtures: participation not readable after create: %v", err)
	}
	return records[0]
}

// Participations returns every participation record of an event
func (f *Factory) Participations(t *testing.T, eventID string) []*model.Participation {
	t.Helper()
	records, err := f.participation.ListByEvent(ctx(t), eventID)
	if err != nil {
		t.Fatalf("fixtures: failed to list participations: %v", err)
	}
	return records
}

// ============================================================================
// Invite Fixtures
// ============================================================================

// CreateInvite creates a pending invite from the event creator
func (f *Factory) CreateInvite(t *testing.T, event *model.Event, invitee *model.User) *model.Invite {
	t.Helper()

	invite := &model.Invite{
		EventID:   event.ID,
		InviterID: event.CreatorID,
		InviteeID: invitee.ID,
	}
	if err := f.invites.Create(ctx(t), invite); err != nil {
		t.Fatalf("fixtures: failed to create invite: %v", err)
	}
	return invite
}

// GetInvite reloads an invite, failing the test if it is gone
func (f *Factory) GetInvite(t *testing.T, inviteID string) *model.Invite {
	t.Helper()
	invite, err := f.invites.Get(ctx(t), inviteID)
	if err != nil || invite == nil {
		t.Fatalf("fixtures: failed to load invite %s: %v", inviteID, err)
	}
	return invite
}
