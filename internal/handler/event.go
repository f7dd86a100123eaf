package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/forgo/rally/internal/middleware"
	"github.com/forgo/rally/internal/model"
	"github.com/forgo/rally/internal/service"
)

// EventService is the event behaviour the handler needs
type EventService interface {
	CreateEvent(ctx context.Context, creatorID string, req *model.CreateEventRequest) (*model.CreateEventResult, error)
	GetEventDetails(ctx context.Context, eventID, userID string) (*model.EventDetails, error)
	ListEvents(ctx context.Context, userID string, scope model.EventScope) ([]*model.Event, error)
	Like(ctx context.Context, userID, eventID string) error
	Unlike(ctx context.Context, userID, eventID string) error
}

// ParticipationService is the participation behaviour the handler needs
type ParticipationService interface {
	Join(ctx context.Context, eventID, userID string) (*model.Event, error)
	Leave(ctx context.Context, eventID, userID string) (*model.Event, error)
	CheckIn(ctx context.Context, eventID, userID string) (*model.Participation, error)
	FetchParticipants(ctx context.Context, eventID string) ([]*model.Participant, error)
}

// EventHandler handles event and participation endpoints
type EventHandler struct {
	events        EventService
	participation ParticipationService
}

// NewEventHandler creates a new event handler
func NewEventHandler(events EventService, participation ParticipationService) *EventHandler {
	return &EventHandler{
		events:        events,
		participation: participation,
	}
}

// RegisterRoutes registers event and participation routes behind auth
func (h *EventHandler) RegisterRoutes(mux *http.ServeMux, auth middleware.Middleware) {
	mux.Handle("POST /v1/events", auth(http.HandlerFunc(h.CreateEvent)))
	mux.Handle("GET /v1/events", auth(http.HandlerFunc(h.ListEvents)))
	mux.Handle("GET /v1/events/{eventId}", auth(http.HandlerFunc(h.GetEvent)))

	// Participation
	mux.Handle("POST /v1/events/{eventId}/join", auth(http.HandlerFunc(h.Join)))
	mux.Handle("DELETE /v1/events/{eventId}/join", auth(http.HandlerFunc(h.Leave)))
	mux.Handle("POST /v1/events/{eventId}/check-in", auth(http.HandlerFunc(h.CheckIn)))
	mux.Handle("GET /v1/events/{eventId}/participants", auth(http.HandlerFunc(h.ListParticipants)))

	// Likes
	mux.Handle("PUT /v1/events/{eventId}/like", auth(http.HandlerFunc(h.Like)))
	mux.Handle("DELETE /v1/events/{eventId}/like", auth(http.HandlerFunc(h.Unlike)))
}

// CreateEvent handles POST /v1/events
func (h *EventHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req model.CreateEventRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, model.NewBadRequestError("invalid request body"))
		return
	}
	if fieldErrors := req.Validate(); len(fieldErrors) > 0 {
		WriteError(w, model.NewValidationError(fieldErrors))
		return
	}

	result, err := h.events.CreateEvent(r.Context(), userID, &req)
	if err != nil {
		WriteError(w, MapServiceErrorWithContext(err, "create event"))
		return
	}

	WriteData(w, http.StatusCreated, result, map[string]string{
		"self": "/v1/events/" + result.Event.ID,
	})
}

// ListEvents handles GET /v1/events
//
// Query parameters:
//   - scope: all (default), joined, created, liked, upcoming or recommended
//   - lat, lng: caller position; when both are set every event carries its distance
//   - radius_km: with lat/lng, drop events further away
func (h *EventHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	scope := model.EventScope(q.Get("scope"))
	if scope != "" && !scope.IsValid() {
		WriteError(w, model.NewBadRequestError("unknown scope: "+string(scope)))
		return
	}

	origin, radiusKm, problem := parseOrigin(q.Get("lat"), q.Get("lng"), q.Get("radius_km"))
	if problem != nil {
		WriteError(w, problem)
		return
	}

	events, err := h.events.ListEvents(r.Context(), userID, scope)
	if err != nil {
		WriteError(w, MapServiceErrorWithContext(err, "list events"))
		return
	}

	if origin == nil {
		WriteCollection(w, events, len(events), nil)
		return
	}

	enriched := service.EnrichWithDistance(events, origin.Lat, origin.Lng)
	if radiusKm > 0 {
		enriched = service.WithinRadius(enriched, radiusKm*1000)
	}
	WriteCollection(w, enriched, len(enriched), nil)
}

type point struct {
	Lat, Lng float64
}

func parseOrigin(latParam, lngParam, radiusParam string) (*point, float64, *model.ProblemDetails) {
	if latParam == "" && lngParam == "" {
		if radiusParam != "" {
			return nil, 0, model.NewBadRequestError("radius_km requires lat and lng")
		}
		return nil, 0, nil
	}

	var fieldErrors []model.FieldError
	lat, err := strconv.ParseFloat(latParam, 64)
	if err != nil || lat < -90 || lat > 90 {
		fieldErrors = append(fieldErrors, model.FieldError{Field: "lat", Message: "lat must be a number between -90 and 90"})
	}
	lng, err := strconv.ParseFloat(lngParam, 64)
	if err != nil || lng < -180 || lng > 180 {
		fieldErrors = append(fieldErrors, model.FieldError{Field: "lng", Message: "lng must be a number between -180 and 180"})
	}
	var radiusKm float64
	if radiusParam != "" {
		radiusKm, err = strconv.ParseFloat(radiusParam, 64)
		if err != nil || radiusKm <= 0 {
			fieldErrors = append(fieldErrors, model.FieldError{Field: "radius_km", Message: "radius_km must be a positive number"})
		}
	}
	if len(fieldErrors) > 0 {
		return nil, 0, model.NewValidationError(fieldErrors)
	}
	return &point{Lat: lat, Lng: lng}, radiusKm, nil
}

// GetEvent handles GET /v1/events/{eventId}
func (h *EventHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	eventID, ok := pathID(w, r, "eventId", "event")
	if !ok {
		return
	}

	details, err := h.events.GetEventDetails(r.Context(), eventID, userID)
	if err != nil {
		WriteError(w, MapServiceErrorWithContext(err, "get event"))
		return
	}

	WriteData(w, http.StatusOK, details, map[string]string{
		"self":         "/v1/events/" + eventID,
		"join":         "/v1/events/" + eventID + "/join",
		"participants": "/v1/events/" + eventID + "/participants",
	})
}

// Join handles POST /v1/events/{eventId}/join
func (h *EventHandler) Join(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	eventID, ok := pathID(w, r, "eventId", "event")
	if !ok {
		return
	}

	event, err := h.participation.Join(r.Context(), eventID, userID)
	if err != nil {
		WriteError(w, MapServiceErrorWithContext(err, "join event"))
		return
	}
	WriteData(w, http.StatusOK, event, nil)
}

// Leave handles DELETE /v1/events/{eventId}/join
func (h *EventHandler) Leave(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	eventID, ok := pathID(w, r, "eventId", "event")
	if !ok {
		return
	}

	event, err := h.participation.Leave(r.Context(), eventID, userID)
	if err != nil {
		WriteError(w, MapServiceErrorWithContext(err, "leave event"))
		return
	}
	WriteData(w, http.StatusOK, event, nil)
}

// CheckIn handles POST /v1/events/{eventId}/check-in
func (h *EventHandler) CheckIn(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	eventID, ok := pathID(w, r, "eventId", "event")
	if !ok {
		return
	}

	participation, err := h.participation.CheckIn(r.Context(), eventID, userID)
	if err != nil {
		WriteError(w, MapServiceErrorWithContext(err, "check in"))
		return
	}
	WriteData(w, http.StatusOK, participation, nil)
}

// ListParticipants handles GET /v1/events/{eventId}/participants
func (h *EventHandler) ListParticipants(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUser(w, r); !ok {
		return
	}
	eventID, ok := pathID(w, r, "eventId", "event")
	if !ok {
		return
	}

	participants, err := h.participation.FetchParticipants(r.Context(), eventID)
	if err != nil {
		WriteError(w, MapServiceErrorWithContext(err, "list participants"))
		return
	}
	WriteCollection(w, participants, len(participants), nil)
}

// Like handles PUT /v1/events/{eventId}/like
func (h *EventHandler) Like(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	eventID, ok := pathID(w, r, "eventId", "event")
	if !ok {
		return
	}

	if err := h.events.Like(r.Context(), userID, eventID); err != nil {
		WriteError(w, MapServiceErrorWithContext(err, "like event"))
		return
	}
	WriteNoContent(w)
}

// Unlike handles DELETE /v1/events/{eventId}/like
func (h *EventHandler) Unlike(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	eventID, ok := pathID(w, r, "eventId", "event")
	if !ok {
		return
	}

	if err := h.events.Unlike(r.Context(), userID, eventID); err != nil {
		WriteError(w, MapServiceErrorWithContext(err, "unlike event"))
		return
	}
	WriteNoContent(w)
}

// requireUser returns the authenticated caller or writes a 401
func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		WriteError(w, model.NewUnauthorizedError("authentication required"))
		return "", false
	}
	return userID, true
}

func pathID(w http.ResponseWriter, r *http.Request, name, table string) (string, bool) {
	id := r.PathValue(name)
	if id == "" {
		WriteError(w, model.NewBadRequestError(name+" required"))
		return "", false
	}
	// a record of another table never names this resource
	if prefix, _, ok := strings.Cut(id, ":"); ok && prefix != table {
		WriteError(w, model.NewNotFoundError(table))
		return "", false
	}
	return id, true
}
