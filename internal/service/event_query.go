package service

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/forgo/rally/internal/model"
)

// ListEvents returns one of the event projections for a user
func (s *EventService) ListEvents(ctx context.Context, userID string, scope model.EventScope) ([]*model.Event, error) {
	switch scope {
	case model.EventScopeAll, "":
		return s.ListAll(ctx)
	case model.EventScopeJoined:
		return s.ListByParticipant(ctx, userID)
	case model.EventScopeCreated:
		return s.ListByCreator(ctx, userID)
	case model.EventScopeLiked:
		return s.ListLiked(ctx, userID)
	case model.EventScopeUpcoming:
		return s.ListUpcomingNotJoined(ctx, userID)
	case model.EventScopeRecommended:
		return s.ListRecommended(ctx, userID)
	}
	return nil, fmt.Errorf("unknown event scope %q", scope)
}

// ListAll returns every event
func (s *EventService) ListAll(ctx context.Context) ([]*model.Event, error) {
	return s.repo.List(ctx)
}

// ListByParticipant returns the events a user joined
func (s *EventService) ListByParticipant(ctx context.Context, userID string) ([]*model.Event, error) {
	return s.repo.ListByParticipant(ctx, userID)
}

// ListByCreator returns the events a user created
func (s *EventService) ListByCreator(ctx context.Context, userID string) ([]*model.Event, error) {
	return s.repo.ListByCreator(ctx, userID)
}

// ListLiked returns the events a user liked
func (s *EventService) ListLiked(ctx context.Context, userID string) ([]*model.Event, error) {
	return s.repo.ListLiked(ctx, userID)
}

// ListUpcomingNotJoined returns future events the user has not joined. The
// joined set is fetched once and subtracted instead of checking per event.
func (s *EventService) ListUpcomingNotJoined(ctx context.Context, userID string) ([]*model.Event, error) {
	var (
		upcoming  []*model.Event
		joinedIDs []string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		upcoming, err = s.repo.ListUpcoming(gctx, s.now())
		return err
	})
	g.Go(func() error {
		var err error
		joinedIDs, err = s.joined.JoinedEventIDs(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return excludeEvents(upcoming, joinedIDs), nil
}

// ListRecommended returns upcoming, not yet joined events that match the
// user's favourite sport and available weekdays.
func (s *EventService) ListRecommended(ctx context.Context, userID string) ([]*model.Event, error) {
	user, err := s.userRepo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	candidates, err := s.ListUpcomingNotJoined(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]*model.Event, 0, len(candidates))
	for _, e := range candidates {
		if e.IsFull() || sameID(e.CreatorID, user.ID) {
			continue
		}
		if s.matcher.IsCompatible(user, CriteriaForEvent(e, "")) {
			out = append(out, e)
		}
	}
	return out, nil
}

func excludeEvents(events []*model.Event, ids []string) []*model.Event {
	skip := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		skip[idKey(id)] = struct{}{}
	}
	out := make([]*model.Event, 0, len(events))
	for _, e := range events {
		if _, ok := skip[idKey(e.ID)]; ok {
			continue
		}
		out = append(out, e)
	}
	return out
}
