package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/forgo/rally/internal/model"
)

// EventRepository defines the event data access the service needs
type EventRepository interface {
	Create(ctx context.Context, event *model.Event) error
	Get(ctx context.Context, eventID string) (*model.Event, error)
	List(ctx context.Context) ([]*model.Event, error)
	ListByCreator(ctx context.Context, userID string) ([]*model.Event, error)
	ListByParticipant(ctx context.Context, userID string) ([]*model.Event, error)
	ListUpcoming(ctx context.Context, now time.Time) ([]*model.Event, error)
	ListLiked(ctx context.Context, userID string) ([]*model.Event, error)
	Like(ctx context.Context, userID, eventID string) error
	Unlike(ctx context.Context, userID, eventID string) error
	IsLiked(ctx context.Context, userID, eventID string) (bool, error)
}

// JoinedEventLookup returns the ids of the events a user joined
type JoinedEventLookup interface {
	JoinedEventIDs(ctx context.Context, userID string) ([]string, error)
}

// UserReader loads a single user, nil when it does not exist
type UserReader interface {
	Get(ctx context.Context, userID string) (*model.User, error)
}

// EventService handles event creation and the event read models
type EventService struct {
	repo          EventRepository
	joined        JoinedEventLookup
	userRepo      UserReader
	participation *ParticipationService
	invites       *InviteService
	matcher       *MatcherService
	now           func() time.Time
}

// EventServiceConfig holds configuration for EventService
type EventServiceConfig struct {
	Repo          EventRepository
	Joined        JoinedEventLookup
	UserRepo      UserReader
	Participation *ParticipationService
	Invites       *InviteService
	Matcher       *MatcherService
	Now           func() time.Time
}

// NewEventService creates a new event service
func NewEventService(cfg EventServiceConfig) *EventService {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &EventService{
		repo:          cfg.Repo,
		joined:        cfg.Joined,
		userRepo:      cfg.UserRepo,
		participation: cfg.Participation,
		invites:       cfg.Invites,
		matcher:       cfg.Matcher,
		now:           now,
	}
}

// CreateEvent stores a new event and, unless disabled in the request,
// invites every compatible user.
func (s *EventService) CreateEvent(ctx context.Context, creatorID string, req *model.CreateEventRequest) (*model.CreateEventResult, error) {
	if errs := req.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidEvent, errs[0].Message)
	}

	event := &model.Event{
		Title:      req.Title,
		Sport:      req.Sport,
		SkillLevel: req.SkillLevel,
		StartTime:  req.StartTime.UTC(),
		Location:   req.Location,
		Spots:      req.Spots,
		CreatorID:  creatorID,
		ImageURL:   req.ImageURL,
	}
	if err := s.repo.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("creating event: %w", err)
	}

	result := &model.CreateEventResult{Event: event, Invites: []*model.Invite{}}
	if !req.WantsAutoInvite() || s.invites == nil {
		return result, nil
	}

	invites, err := s.invites.InviteCompatibleUsers(ctx, event)
	if err != nil {
		// the event exists either way; the creator can still invite by hand
		slog.Warn("auto invites skipped",
			slog.String("event_id", event.ID),
			slog.String("error", err.Error()),
		)
		return result, nil
	}
	result.Invites = invites

	slog.Info("event created",
		slog.String("event_id", event.ID),
		slog.Int("spots", event.Spots),
		slog.Int("invites", len(invites)),
	)
	return result, nil
}

// GetEvent retrieves an event by ID
func (s *EventService) GetEvent(ctx context.Context, eventID string) (*model.Event, error) {
	event, err := s.repo.Get(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, ErrEventNotFound
	}
	return event, nil
}

// GetEventDetails returns the event together with its participants and the
// caller's own participation, invite and like.
func (s *EventService) GetEventDetails(ctx context.Context, eventID, userID string) (*model.EventDetails, error) {
	event, err := s.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	details := &model.EventDetails{Event: event}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		details.Participants, err = s.participation.FetchParticipants(gctx, event.ID)
		return err
	})
	g.Go(func() error {
		var err error
		details.Status, err = s.participation.Status(gctx, event.ID, userID)
		return err
	})
	g.Go(func() error {
		var err error
		details.Invite, err = s.invites.InviteFor(gctx, event.ID, userID)
		return err
	})
	g.Go(func() error {
		var err error
		details.Liked, err = s.repo.IsLiked(gctx, userID, event.ID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return details, nil
}

// Like saves an event for a user
func (s *EventService) Like(ctx context.Context, userID, eventID string) error {
	if _, err := s.GetEvent(ctx, eventID); err != nil {
		return err
	}
	return s.repo.Like(ctx, userID, eventID)
}

// Unlike removes a saved event
func (s *EventService) Unlike(ctx context.Context, userID, eventID string) error {
	return s.repo.Unlike(ctx, userID, eventID)
}
