package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/forgo/rally/internal/database"
	"github.com/forgo/rally/internal/model"
)

// InviteRepository defines the invite data access the service needs
type InviteRepository interface {
	Create(ctx context.Context, invite *model.Invite) error
	Get(ctx context.Context, inviteID string) (*model.Invite, error)
	GetForInvitee(ctx context.Context, eventID, userID string) (*model.Invite, error)
	ListByEvent(ctx context.Context, eventID string) ([]*model.Invite, error)
	ListByUser(ctx context.Context, userID string) ([]*model.Invite, error)
	Decline(ctx context.Context, inviteID, userID string) (*model.Invite, error)
	ExpireStarted(ctx context.Context, now time.Time) (int, error)
}

// EventReader loads a single event, nil when it does not exist
type EventReader interface {
	Get(ctx context.Context, eventID string) (*model.Event, error)
}

// InviteService manages the invite lifecycle
type InviteService struct {
	transactor *EventTransactor
	inviteRepo InviteRepository
	eventRepo  EventReader
	records    ParticipationRecordRepository
	matcher    *MatcherService
	now        func() time.Time
}

// InviteServiceConfig holds configuration for InviteService
type InviteServiceConfig struct {
	Transactor *EventTransactor
	InviteRepo InviteRepository
	EventRepo  EventReader
	Records    ParticipationRecordRepository
	Matcher    *MatcherService
	Now        func() time.Time
}

// NewInviteService creates a new invite service
func NewInviteService(cfg InviteServiceConfig) *InviteService {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &InviteService{
		transactor: cfg.Transactor,
		inviteRepo: cfg.InviteRepo,
		eventRepo:  cfg.EventRepo,
		records:    cfg.Records,
		matcher:    cfg.Matcher,
		now:        now,
	}
}

// CreateInvite invites a user to an event. Only the event creator may invite,
// and each user can be invited to an event once.
func (s *InviteService) CreateInvite(ctx context.Context, eventID, inviterID, inviteeID string) (*model.Invite, error) {
	event, err := s.eventRepo.Get(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, ErrEventNotFound
	}
	if !sameID(event.CreatorID, inviterID) {
		return nil, ErrNotEventCreator
	}
	if sameID(inviterID, inviteeID) {
		return nil, ErrCannotInviteSelf
	}

	return s.insert(ctx, event.ID, inviterID, inviteeID)
}

func (s *InviteService) insert(ctx context.Context, eventID, inviterID, inviteeID string) (*model.Invite, error) {
	invite := &model.Invite{
		EventID:   eventID,
		InviterID: inviterID,
		InviteeID: inviteeID,
		Status:    model.InviteStatusPending,
	}
	if err := s.inviteRepo.Create(ctx, invite); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, ErrAlreadyInvited
		}
		return nil, fmt.Errorf("creating invite: %w", err)
	}
	return invite, nil
}

// InviteCompatibleUsers invites every user the matcher finds for the event.
// Failures for single users are logged and skipped so event creation is not
// undone by one bad invite.
func (s *InviteService) InviteCompatibleUsers(ctx context.Context, event *model.Event) ([]*model.Invite, error) {
	users, err := s.matcher.FindCompatibleUsers(ctx, CriteriaForEvent(event, event.CreatorID))
	if err != nil {
		return nil, err
	}

	invites := make([]*model.Invite, 0, len(users))
	for _, u := range users {
		inv, err := s.insert(ctx, event.ID, event.CreatorID, u.ID)
		if err != nil {
			if !errors.Is(err, ErrAlreadyInvited) {
				slog.Warn("auto invite failed",
					slog.String("event_id", event.ID),
					slog.String("invitee_id", u.ID),
					slog.String("error", err.Error()),
				)
			}
			continue
		}
		invites = append(invites, inv)
	}
	return invites, nil
}

// ListInvitesByEvent returns the invites of an event to its creator
func (s *InviteService) ListInvitesByEvent(ctx context.Context, eventID, requesterID string) ([]*model.Invite, error) {
	event, err := s.eventRepo.Get(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, ErrEventNotFound
	}
	if !sameID(event.CreatorID, requesterID) {
		return nil, ErrNotEventCreator
	}
	return s.inviteRepo.ListByEvent(ctx, eventID)
}

// InviteFor returns the invite a user received for an event, nil if none
func (s *InviteService) InviteFor(ctx context.Context, eventID, userID string) (*model.Invite, error) {
	return s.inviteRepo.GetForInvitee(ctx, eventID, userID)
}

// ListInvitesByUser returns the invites addressed to a user, newest first
func (s *InviteService) ListInvitesByUser(ctx context.Context, userID string) ([]*model.Invite, error) {
	return s.inviteRepo.ListByUser(ctx, userID)
}

// AcceptInvite joins the event and marks the invite accepted in one commit.
// On a full event the invite stays pending and ErrCapacityExceeded is
// returned. An empty eventID is resolved from the invite.
func (s *InviteService) AcceptInvite(ctx context.Context, inviteID, eventID, userID string) (*model.Invite, error) {
	if eventID == "" {
		inv, err := s.inviteRepo.Get(ctx, inviteID)
		if err != nil {
			return nil, err
		}
		if inv == nil || !sameID(inv.InviteeID, userID) {
			return nil, ErrInviteNotFound
		}
		eventID = inv.EventID
	}

	scope := model.SnapshotScope{EventID: eventID, UserID: userID, InviteID: inviteID}
	snap, err := s.transactor.WithEventTransaction(ctx, scope, func(snap *model.EventSnapshot) (*model.EventMutation, error) {
		return planAccept(snap, userID)
	})
	if err != nil {
		return nil, err
	}

	accepted := *snap.Invite
	accepted.Status = model.InviteStatusAccepted
	respondedAt := s.now()
	accepted.RespondedAt = &respondedAt
	return &accepted, nil
}

// planAccept decides an invite acceptance against a snapshot
func planAccept(snap *model.EventSnapshot, userID string) (*model.EventMutation, error) {
	inv := snap.Invite
	if inv == nil || !sameID(inv.InviteeID, userID) {
		return nil, ErrInviteNotFound
	}
	if snap.Event == nil {
		return nil, ErrEventNotFound
	}
	if !sameID(inv.EventID, snap.Event.ID) {
		return nil, ErrInviteNotFound
	}
	next, err := TransitionInvite(inv.Status, model.InviteActionAccept)
	if err != nil {
		return nil, err
	}

	// Already joined through open discovery: only the invite changes.
	if model.StateOf(snap.Participations) != model.ParticipationNotJoined {
		return &model.EventMutation{
			TakenSpots:   snap.Event.TakenSpots,
			InviteID:     inv.ID,
			InviteStatus: next,
		}, nil
	}

	m, err := planJoin(snap, userID)
	if err != nil {
		return nil, err
	}
	m.InviteID = inv.ID
	m.InviteStatus = next
	return m, nil
}

// DeclineInvite moves a pending invite addressed to userID to declined
func (s *InviteService) DeclineInvite(ctx context.Context, inviteID, userID string) (*model.Invite, error) {
	inv, err := s.inviteRepo.Get(ctx, inviteID)
	if err != nil {
		return nil, err
	}
	if inv == nil || !sameID(inv.InviteeID, userID) {
		return nil, ErrInviteNotFound
	}
	if _, err := TransitionInvite(inv.Status, model.InviteActionDecline); err != nil {
		return nil, err
	}

	declined, err := s.inviteRepo.Decline(ctx, inviteID, userID)
	if err != nil {
		return nil, err
	}
	if declined == nil {
		// answered between the read and the conditional update
		return nil, ErrInviteNotPending
	}
	return declined, nil
}

// SuggestInvitees lists compatible users the creator has not invited yet and
// who have not joined on their own.
func (s *InviteService) SuggestInvitees(ctx context.Context, eventID, requesterID string) ([]*model.User, error) {
	event, err := s.eventRepo.Get(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, ErrEventNotFound
	}
	if !sameID(event.CreatorID, requesterID) {
		return nil, ErrNotEventCreator
	}

	var (
		candidates []*model.User
		invites    []*model.Invite
		records    []*model.Participation
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		candidates, err = s.matcher.FindCompatibleUsers(gctx, CriteriaForEvent(event, event.CreatorID))
		return err
	})
	g.Go(func() error {
		var err error
		invites, err = s.inviteRepo.ListByEvent(gctx, event.ID)
		return err
	})
	g.Go(func() error {
		var err error
		records, err = s.records.ListByEvent(gctx, event.ID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	taken := make(map[string]struct{}, len(invites)+len(records))
	for _, inv := range invites {
		taken[idKey(inv.InviteeID)] = struct{}{}
	}
	for _, p := range records {
		taken[idKey(p.UserID)] = struct{}{}
	}

	suggestions := make([]*model.User, 0, len(candidates))
	for _, u := range candidates {
		if _, ok := taken[idKey(u.ID)]; ok {
			continue
		}
		suggestions = append(suggestions, u)
	}
	return suggestions, nil
}

// ExpireStartedInvites declines pending invites of events that have started
func (s *InviteService) ExpireStartedInvites(ctx context.Context) (int, error) {
	return s.inviteRepo.ExpireStarted(ctx, s.now())
}
