package handler

import (
	"context"
	"net/http"

	"github.com/forgo/rally/internal/middleware"
	"github.com/forgo/rally/internal/model"
	"github.com/forgo/rally/internal/service"
)

// MatchFinder finds users compatible with match criteria
type MatchFinder interface {
	FindCompatibleUsers(ctx context.Context, criteria model.MatchCriteria) ([]*model.User, error)
}

// MatchHandler handles the compatible-user search
type MatchHandler struct {
	matcher MatchFinder
}

// NewMatchHandler creates a new match handler
func NewMatchHandler(matcher MatchFinder) *MatchHandler {
	return &MatchHandler{matcher: matcher}
}

// RegisterRoutes registers the match route behind auth
func (h *MatchHandler) RegisterRoutes(mux *http.ServeMux, auth middleware.Middleware) {
	mux.Handle("GET /v1/matches", auth(http.HandlerFunc(h.FindMatches)))
}

// FindMatches handles GET /v1/matches
//
// Query parameters:
//   - sport: required
//   - skill: skill level, only compared when skill matching is enforced
//   - weekday: Monday..Sunday
//   - date: ISO-8601 instant, used for the weekday when weekday is absent
func (h *MatchHandler) FindMatches(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	weekday := q.Get("weekday")
	if weekday == "" && q.Get("date") != "" {
		day, err := service.DayOfWeek(q.Get("date"))
		if err != nil {
			WriteError(w, model.NewValidationError([]model.FieldError{{Field: "date", Message: "date must be an ISO-8601 instant"}}))
			return
		}
		weekday = day
	}

	users, err := h.matcher.FindCompatibleUsers(r.Context(), model.MatchCriteria{
		Sport:         q.Get("sport"),
		SkillLevel:    q.Get("skill"),
		Weekday:       weekday,
		ExcludeUserID: userID,
	})
	if err != nil {
		WriteError(w, MapServiceErrorWithContext(err, "find matches"))
		return
	}
	WriteCollection(w, users, len(users), nil)
}
