package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/forgo/rally/internal/database"
	"github.com/forgo/rally/internal/model"
)

// ============================================================================
// In-memory store
// ============================================================================

// memStore keeps events, participations, invites, likes and users in memory
// and commits mutations with the same version guard as the database.
type memStore struct {
	mu             sync.Mutex
	seq            int
	now            time.Time
	events         map[string]*model.Event
	participations map[string]*model.Participation
	invites        map[string]*model.Invite
	users          map[string]*model.User
	likes          map[string]bool

	applyCalls int
	// applyDelay widens the window between loading a snapshot and committing
	applyDelay time.Duration
	// conflictsLeft forces the next n Apply calls to report a version conflict
	conflictsLeft int
	violations    []string
}

func newMemStore() *memStore {
	return &memStore{
		now:            time.Date(2026, 3, 2, 18, 0, 0, 0, time.UTC),
		events:         make(map[string]*model.Event),
		participations: make(map[string]*model.Participation),
		invites:        make(map[string]*model.Invite),
		users:          make(map[string]*model.User),
		likes:          make(map[string]bool),
	}
}

func (m *memStore) nextID(table string) string {
	m.seq++
	return fmt.Sprintf("%s:%d", table, m.seq)
}

func (m *memStore) addEvent(e *model.Event) *model.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e.ID == "" {
		e.ID = m.nextID("event")
	}
	cp := *e
	m.events[e.ID] = &cp
	return e
}

func (m *memStore) addUser(u *model.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *u
	m.users[u.ID] = &cp
}

func (m *memStore) addParticipation(eventID, userID string) *model.Participation {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := &model.Participation{ID: m.nextID("participation"), EventID: eventID, UserID: userID, JoinedAt: m.now}
	m.participations[p.ID] = p
	return p
}

func (m *memStore) addInvite(eventID, inviterID, inviteeID string) *model.Invite {
	m.mu.Lock()
	defer m.mu.Unlock()
	inv := &model.Invite{
		ID:        m.nextID("invite"),
		EventID:   eventID,
		InviterID: inviterID,
		InviteeID: inviteeID,
		Status:    model.InviteStatusPending,
		InvitedAt: m.now,
	}
	m.invites[inv.ID] = inv
	cp := *inv
	return &cp
}

func (m *memStore) event(id string) *model.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.events[id]
	if !ok {
		return nil
	}
	cp := *e
	return &cp
}

func (m *memStore) invite(id string) *model.Invite {
	m.mu.Lock()
	defer m.mu.Unlock()
	inv, ok := m.invites[id]
	if !ok {
		return nil
	}
	cp := *inv
	return &cp
}

func (m *memStore) recordsFor(eventID, userID string) []*model.Participation {
	out := make([]*model.Participation, 0)
	for _, p := range m.participations {
		if p.EventID == eventID && (userID == "" || p.UserID == userID) {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *memStore) countRecords(eventID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.recordsFor(eventID, ""))
}

// SnapshotStore

func (m *memStore) LoadSnapshot(ctx context.Context, scope model.SnapshotScope) (*model.EventSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := &model.EventSnapshot{}
	if e, ok := m.events[scope.EventID]; ok {
		cp := *e
		snap.Event = &cp
	}
	snap.Participations = m.recordsFor(scope.EventID, scope.UserID)
	if inv, ok := m.invites[scope.InviteID]; ok {
		cp := *inv
		snap.Invite = &cp
	}
	return snap, nil
}

func (m *memStore) Apply(ctx context.Context, mut *model.EventMutation) error {
	if m.applyDelay > 0 {
		time.Sleep(m.applyDelay)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.applyCalls++

	if m.conflictsLeft > 0 {
		m.conflictsLeft--
		return fmt.Errorf("%w: %s", database.ErrConflict, database.ConflictMarker)
	}

	e, ok := m.events[mut.EventID]
	if !ok || e.Version != mut.ExpectedVersion {
		return database.ErrConflict
	}
	if mut.InviteID != "" {
		inv, ok := m.invites[mut.InviteID]
		if !ok || inv.Status != model.InviteStatusPending {
			return database.ErrConflict
		}
	}
	if p := mut.CreateParticipation; p != nil && len(m.recordsFor(mut.EventID, p.UserID)) > 0 {
		return database.ErrDuplicate
	}

	if mut.InviteID != "" {
		inv := m.invites[mut.InviteID]
		inv.Status = mut.InviteStatus
		at := m.now
		inv.RespondedAt = &at
	}
	if p := mut.CreateParticipation; p != nil {
		rec := &model.Participation{ID: m.nextID("participation"), EventID: mut.EventID, UserID: p.UserID, JoinedAt: m.now}
		m.participations[rec.ID] = rec
	}
	for _, id := range mut.DeleteParticipations {
		delete(m.participations, id)
	}
	if id := mut.CheckInParticipation; id != "" {
		if p, ok := m.participations[id]; ok {
			at := m.now
			p.CheckedIn = true
			p.CheckedInAt = &at
		}
	}

	if mut.TakenSpots < 0 || mut.TakenSpots > e.Spots {
		m.violations = append(m.violations, fmt.Sprintf("taken_spots=%d spots=%d", mut.TakenSpots, e.Spots))
	}
	e.TakenSpots = mut.TakenSpots
	e.Version++
	return nil
}

// participation reads

func (m *memStore) ListByEvent(ctx context.Context, eventID string) ([]*model.Participation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.recordsFor(eventID, ""), nil
}

func (m *memStore) GetByEventAndUser(ctx context.Context, eventID, userID string) ([]*model.Participation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.recordsFor(eventID, userID), nil
}

func (m *memStore) JoinedEventIDs(ctx context.Context, userID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0)
	for _, p := range m.participations {
		if p.UserID == userID {
			ids = append(ids, p.EventID)
		}
	}
	return ids, nil
}

// ============================================================================
// Repository views over memStore
// ============================================================================

type memEvents struct{ *memStore }

func (r memEvents) Create(ctx context.Context, e *model.Event) error {
	r.addEvent(e)
	return nil
}

func (r memEvents) Get(ctx context.Context, eventID string) (*model.Event, error) {
	return r.event(eventID), nil
}

func (r memEvents) sorted(keep func(*model.Event) bool) []*model.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*model.Event, 0)
	for _, e := range r.events {
		if keep(e) {
			cp := *e
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out
}

func (r memEvents) List(ctx context.Context) ([]*model.Event, error) {
	return r.sorted(func(*model.Event) bool { return true }), nil
}

func (r memEvents) ListByCreator(ctx context.Context, userID string) ([]*model.Event, error) {
	return r.sorted(func(e *model.Event) bool { return e.CreatorID == userID }), nil
}

func (r memEvents) ListByParticipant(ctx context.Context, userID string) ([]*model.Event, error) {
	ids, _ := r.JoinedEventIDs(ctx, userID)
	joined := make(map[string]bool, len(ids))
	for _, id := range ids {
		joined[id] = true
	}
	return r.sorted(func(e *model.Event) bool { return joined[e.ID] }), nil
}

func (r memEvents) ListUpcoming(ctx context.Context, now time.Time) ([]*model.Event, error) {
	return r.sorted(func(e *model.Event) bool { return e.StartTime.After(now) }), nil
}

func (r memEvents) ListLiked(ctx context.Context, userID string) ([]*model.Event, error) {
	r.mu.Lock()
	likes := make(map[string]bool)
	for k := range r.likes {
		likes[k] = true
	}
	r.mu.Unlock()
	return r.sorted(func(e *model.Event) bool { return likes[userID+"|"+e.ID] }), nil
}

func (r memEvents) Like(ctx context.Context, userID, eventID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.likes[userID+"|"+eventID] = true
	return nil
}

func (r memEvents) Unlike(ctx context.Context, userID, eventID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.likes, userID+"|"+eventID)
	return nil
}

func (r memEvents) IsLiked(ctx context.Context, userID, eventID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.likes[userID+"|"+eventID], nil
}

type memInvites struct{ *memStore }

func (r memInvites) Create(ctx context.Context, inv *model.Invite) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.invites {
		if existing.EventID == inv.EventID && existing.InviteeID == inv.InviteeID {
			return database.ErrDuplicate
		}
	}
	inv.ID = r.nextID("invite")
	inv.Status = model.InviteStatusPending
	inv.InvitedAt = r.now
	cp := *inv
	r.invites[inv.ID] = &cp
	return nil
}

func (r memInvites) Get(ctx context.Context, inviteID string) (*model.Invite, error) {
	return r.invite(inviteID), nil
}

func (r memInvites) GetForInvitee(ctx context.Context, eventID, userID string) (*model.Invite, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, inv := range r.invites {
		if inv.EventID == eventID && inv.InviteeID == userID {
			cp := *inv
			return &cp, nil
		}
	}
	return nil, nil
}

func (r memInvites) list(keep func(*model.Invite) bool) []*model.Invite {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*model.Invite, 0)
	for _, inv := range r.invites {
		if keep(inv) {
			cp := *inv
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r memInvites) ListByEvent(ctx context.Context, eventID string) ([]*model.Invite, error) {
	return r.list(func(inv *model.Invite) bool { return inv.EventID == eventID }), nil
}

func (r memInvites) ListByUser(ctx context.Context, userID string) ([]*model.Invite, error) {
	return r.list(func(inv *model.Invite) bool { return inv.InviteeID == userID }), nil
}

func (r memInvites) Decline(ctx context.Context, inviteID, userID string) (*model.Invite, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inv, ok := r.invites[inviteID]
	if !ok || inv.InviteeID != userID || inv.Status != model.InviteStatusPending {
		return nil, nil
	}
	inv.Status = model.InviteStatusDeclined
	at := r.now
	inv.RespondedAt = &at
	cp := *inv
	return &cp, nil
}

func (r memInvites) ExpireStarted(ctx context.Context, now time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, inv := range r.invites {
		e, ok := r.events[inv.EventID]
		if ok && inv.Status == model.InviteStatusPending && !e.StartTime.After(now) {
			inv.Status = model.InviteStatusDeclined
			n++
		}
	}
	return n, nil
}

type memUsers struct{ *memStore }

func (r memUsers) Get(ctx context.Context, userID string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (r memUsers) GetByIDs(ctx context.Context, ids []string) ([]*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*model.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := r.users[id]; ok {
			cp := *u
			out = append(out, &cp)
		}
	}
	return out, nil
}

// ListCandidates returns every user so the matcher predicate is what filters
func (r memUsers) ListCandidates(ctx context.Context, sport, weekday string) ([]*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*model.User, 0, len(r.users))
	for _, u := range r.users {
		cp := *u
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ============================================================================
// Wiring
// ============================================================================

type testServices struct {
	store         *memStore
	transactor    *EventTransactor
	participation *ParticipationService
	invites       *InviteService
	events        *EventService
	matcher       *MatcherService
}

func newTestServices(store *memStore, maxAttempts int) *testServices {
	now := func() time.Time { return store.now }
	transactor := NewEventTransactor(store, maxAttempts)
	matcher := NewMatcherService(MatcherServiceConfig{UserRepo: memUsers{store}})
	participation := NewParticipationService(ParticipationServiceConfig{
		Transactor: transactor,
		Records:    store,
		UserRepo:   memUsers{store},
		Now:        now,
	})
	invites := NewInviteService(InviteServiceConfig{
		Transactor: transactor,
		InviteRepo: memInvites{store},
		EventRepo:  memEvents{store},
		Records:    store,
		Matcher:    matcher,
		Now:        now,
	})
	events := NewEventService(EventServiceConfig{
		Repo:          memEvents{store},
		Joined:        store,
		UserRepo:      memUsers{store},
		Participation: participation,
		Invites:       invites,
		Matcher:       matcher,
		Now:           now,
	})
	return &testServices{
		store:         store,
		transactor:    transactor,
		participation: participation,
		invites:       invites,
		events:        events,
		matcher:       matcher,
	}
}

func newEvent(spots int, start time.Time) *model.Event {
	return &model.Event{
		Title:     "Sunday doubles",
		Sport:     "Tennis",
		StartTime: start,
		Spots:     spots,
		CreatorID: "user:creator",
		Location:  model.EventLocation{Lat: 52.52, Lng: 13.405, City: "Berlin"},
	}
}
