package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/forgo/rally/internal/model"
)

// DefaultCheckInLead is how long before the start an event opens for check-in
const DefaultCheckInLead = 15 * time.Minute

// ParticipationRecordRepository defines the read queries on participation records
type ParticipationRecordRepository interface {
	ListByEvent(ctx context.Context, eventID string) ([]*model.Participation, error)
	GetByEventAndUser(ctx context.Context, eventID, userID string) ([]*model.Participation, error)
}

// ParticipantUserRepository resolves participation records to user profiles
type ParticipantUserRepository interface {
	GetByIDs(ctx context.Context, userIDs []string) ([]*model.User, error)
}

// ParticipationService implements join, leave and check-in
type ParticipationService struct {
	transactor   *EventTransactor
	records      ParticipationRecordRepository
	userRepo     ParticipantUserRepository
	checkInLead  time.Duration
	checkInGrace time.Duration
	now          func() time.Time
}

// ParticipationServiceConfig holds configuration for ParticipationService
type ParticipationServiceConfig struct {
	Transactor *EventTransactor
	Records    ParticipationRecordRepository
	UserRepo   ParticipantUserRepository
	// CheckInLead defaults to 15 minutes
	CheckInLead time.Duration
	// CheckInGrace closes check-in this long after the start. Zero keeps it
	// open indefinitely once the event has started.
	CheckInGrace time.Duration
	Now          func() time.Time
}

// NewParticipationService creates a new participation service
func NewParticipationService(cfg ParticipationServiceConfig) *ParticipationService {
	lead := cfg.CheckInLead
	if lead <= 0 {
		lead = DefaultCheckInLead
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &ParticipationService{
		transactor:   cfg.Transactor,
		records:      cfg.Records,
		userRepo:     cfg.UserRepo,
		checkInLead:  lead,
		checkInGrace: cfg.CheckInGrace,
		now:          now,
	}
}

// Join takes one spot of the event for the user
func (s *ParticipationService) Join(ctx context.Context, eventID, userID string) (*model.Event, error) {
	snap, err := s.transactor.WithEventTransaction(ctx, scopeFor(eventID, userID), func(snap *model.EventSnapshot) (*model.EventMutation, error) {
		return planJoin(snap, userID)
	})
	if err != nil {
		return nil, err
	}
	return afterCommit(snap.Event, 1), nil
}

// Leave gives the user's spot back. Leaving after check-in is allowed.
func (s *ParticipationService) Leave(ctx context.Context, eventID, userID string) (*model.Event, error) {
	var released int
	snap, err := s.transactor.WithEventTransaction(ctx, scopeFor(eventID, userID), func(snap *model.EventSnapshot) (*model.EventMutation, error) {
		if _, err := TransitionParticipation(model.StateOf(snap.Participations), model.ActionLeave); err != nil {
			return nil, err
		}
		if snap.Event == nil {
			return nil, ErrEventNotFound
		}

		// Each record holds one spot; more than one only exists in data
		// written before the unique index.
		released = len(snap.Participations)
		if snap.Event.TakenSpots <= 0 || snap.Event.TakenSpots < released {
			slog.Error("taken spots would go negative",
				slog.String("event_id", snap.Event.ID),
				slog.Int("taken_spots", snap.Event.TakenSpots),
				slog.Int("records", released),
			)
			return nil, ErrInvariantViolation
		}

		ids := make([]string, 0, released)
		for _, p := range snap.Participations {
			ids = append(ids, p.ID)
		}
		return &model.EventMutation{
			TakenSpots:           snap.Event.TakenSpots - released,
			DeleteParticipations: ids,
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return afterCommit(snap.Event, -released), nil
}

// CheckIn marks the user as present. The window opens CheckInLead before the
// start and, unless a grace period is configured, stays open afterwards.
func (s *ParticipationService) CheckIn(ctx context.Context, eventID, userID string) (*model.Participation, error) {
	var checkedIn *model.Participation
	_, err := s.transactor.WithEventTransaction(ctx, scopeFor(eventID, userID), func(snap *model.EventSnapshot) (*model.EventMutation, error) {
		if snap.Event == nil {
			return nil, ErrEventNotFound
		}
		now := s.now()
		if err := s.checkInWindow(snap.Event.StartTime, now); err != nil {
			return nil, err
		}
		if _, err := TransitionParticipation(model.StateOf(snap.Participations), model.ActionCheckIn); err != nil {
			return nil, err
		}

		p := *snap.Participations[0]
		p.CheckedIn = true
		p.CheckedInAt = &now
		checkedIn = &p

		return &model.EventMutation{
			TakenSpots:           snap.Event.TakenSpots,
			CheckInParticipation: p.ID,
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return checkedIn, nil
}

// checkInWindow returns nil when check-in is allowed at now
func (s *ParticipationService) checkInWindow(start, now time.Time) error {
	untilStart := start.Sub(now)
	if untilStart > s.checkInLead {
		return &CheckInNotYetOpenError{Wait: untilStart - s.checkInLead}
	}
	if s.checkInGrace > 0 && now.Sub(start) > s.checkInGrace {
		return ErrCheckInClosed
	}
	return nil
}

// Status returns the participation state of the user for an event
func (s *ParticipationService) Status(ctx context.Context, eventID, userID string) (model.ParticipationState, error) {
	records, err := s.records.GetByEventAndUser(ctx, eventID, userID)
	if err != nil {
		return model.ParticipationNotJoined, err
	}
	return model.StateOf(records), nil
}

// IsJoined reports whether the user has a participation record for the event
func (s *ParticipationService) IsJoined(ctx context.Context, eventID, userID string) (bool, error) {
	state, err := s.Status(ctx, eventID, userID)
	if err != nil {
		return false, err
	}
	return state != model.ParticipationNotJoined, nil
}

// IsCheckedIn reports whether the user checked in to the event
func (s *ParticipationService) IsCheckedIn(ctx context.Context, eventID, userID string) (bool, error) {
	state, err := s.Status(ctx, eventID, userID)
	if err != nil {
		return false, err
	}
	return state == model.ParticipationCheckedIn, nil
}

// FetchParticipants returns display summaries of everyone who joined the
// event, in join order. Records whose user no longer exists are dropped.
func (s *ParticipationService) FetchParticipants(ctx context.Context, eventID string) ([]*model.Participant, error) {
	records, err := s.records.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return []*model.Participant{}, nil
	}

	ids := make([]string, 0, len(records))
	for _, p := range records {
		ids = append(ids, p.UserID)
	}
	users, err := s.userRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]*model.User, len(users))
	for _, u := range users {
		byID[idKey(u.ID)] = u
	}

	participants := make([]*model.Participant, 0, len(records))
	for _, p := range records {
		u, ok := byID[idKey(p.UserID)]
		if !ok {
			continue
		}
		participants = append(participants, &model.Participant{
			UserID:      u.ID,
			FirstName:   u.FirstName,
			LastName:    u.LastName,
			Rating:      u.Rating,
			PictureURL:  u.PictureURL,
			JoinedAt:    p.JoinedAt,
			CheckedIn:   p.CheckedIn,
			CheckedInAt: p.CheckedInAt,
		})
	}
	return participants, nil
}

func scopeFor(eventID, userID string) model.SnapshotScope {
	return model.SnapshotScope{EventID: eventID, UserID: userID}
}

// afterCommit returns a copy of the snapshot event as it reads after a
// committed change of delta spots.
func afterCommit(event *model.Event, delta int) *model.Event {
	e := *event
	e.TakenSpots += delta
	e.Version++
	return &e
}
