package service

import (
	"context"
	"fmt"
	"time"

	"github.com/forgo/rally/internal/model"
)

// MatcherUserRepository defines the user queries the matcher needs
type MatcherUserRepository interface {
	ListCandidates(ctx context.Context, sport, weekday string) ([]*model.User, error)
}

// MatcherService selects users compatible with a sport, skill level and weekday
type MatcherService struct {
	userRepo          MatcherUserRepository
	enforceSkillMatch bool
}

// MatcherServiceConfig holds dependencies for MatcherService
type MatcherServiceConfig struct {
	UserRepo MatcherUserRepository
	// EnforceSkillMatch also requires the user's skill level to equal the
	// requested one. Off by default, which ignores the skill argument.
	EnforceSkillMatch bool
}

// NewMatcherService creates a new matcher service
func NewMatcherService(cfg MatcherServiceConfig) *MatcherService {
	return &MatcherService{
		userRepo:          cfg.UserRepo,
		enforceSkillMatch: cfg.EnforceSkillMatch,
	}
}

// FindCompatibleUsers returns the users whose favourite sport equals
// criteria.Sport, whose availability contains criteria.Weekday and who are
// available, excluding criteria.ExcludeUserID.
func (s *MatcherService) FindCompatibleUsers(ctx context.Context, criteria model.MatchCriteria) ([]*model.User, error) {
	if criteria.Sport == "" {
		return nil, fmt.Errorf("%w: sport is required", ErrInvalidCriteria)
	}
	if !model.IsWeekday(criteria.Weekday) {
		return nil, fmt.Errorf("%w: unknown weekday %q", ErrInvalidCriteria, criteria.Weekday)
	}

	candidates, err := s.userRepo.ListCandidates(ctx, criteria.Sport, criteria.Weekday)
	if err != nil {
		return nil, err
	}

	// The query narrows the scan; the predicate below is authoritative.
	matches := make([]*model.User, 0, len(candidates))
	for _, u := range candidates {
		if s.IsCompatible(u, criteria) {
			matches = append(matches, u)
		}
	}
	return matches, nil
}

// IsCompatible applies the eligibility predicate to one user
func (s *MatcherService) IsCompatible(u *model.User, criteria model.MatchCriteria) bool {
	if u == nil || sameID(u.ID, criteria.ExcludeUserID) {
		return false
	}
	if !u.IsAvailable || u.FavouriteSport != criteria.Sport || !u.AvailableOn(criteria.Weekday) {
		return false
	}
	if s.enforceSkillMatch && u.SkillLevel != criteria.SkillLevel {
		return false
	}
	return true
}

// CriteriaForEvent builds the match criteria describing an event
func CriteriaForEvent(event *model.Event, excludeUserID string) model.MatchCriteria {
	return model.MatchCriteria{
		Sport:         event.Sport,
		SkillLevel:    event.SkillLevel,
		Weekday:       WeekdayOf(event.StartTime),
		ExcludeUserID: excludeUserID,
	}
}

// WeekdayOf returns the UTC weekday name of an instant
func WeekdayOf(t time.Time) string {
	return t.UTC().Weekday().String()
}

// DayOfWeek maps an ISO-8601 instant to its UTC weekday name ("Monday".."Sunday").
// The UTC day is used, not the local one, so it lines up with stored availability.
func DayOfWeek(isoInstant string) (string, error) {
	t, err := time.Parse(time.RFC3339Nano, isoInstant)
	if err != nil {
		return "", fmt.Errorf("parsing instant %q: %w", isoInstant, err)
	}
	return WeekdayOf(t), nil
}
