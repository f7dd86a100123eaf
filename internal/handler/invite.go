package handler

import (
	"context"
	"net/http"

	"github.com/forgo/rally/internal/middleware"
	"github.com/forgo/rally/internal/model"
)

// InviteService is the invite behaviour the handler needs
type InviteService interface {
	CreateInvite(ctx context.Context, eventID, inviterID, inviteeID string) (*model.Invite, error)
	ListInvitesByEvent(ctx context.Context, eventID, requesterID string) ([]*model.Invite, error)
	ListInvitesByUser(ctx context.Context, userID string) ([]*model.Invite, error)
	AcceptInvite(ctx context.Context, inviteID, eventID, userID string) (*model.Invite, error)
	DeclineInvite(ctx context.Context, inviteID, userID string) (*model.Invite, error)
	SuggestInvitees(ctx context.Context, eventID, requesterID string) ([]*model.User, error)
}

// InviteHandler handles invite endpoints
type InviteHandler struct {
	invites InviteService
}

// NewInviteHandler creates a new invite handler
func NewInviteHandler(invites InviteService) *InviteHandler {
	return &InviteHandler{invites: invites}
}

// RegisterRoutes registers invite routes behind auth
func (h *InviteHandler) RegisterRoutes(mux *http.ServeMux, auth middleware.Middleware) {
	mux.Handle("GET /v1/events/{eventId}/invites", auth(http.HandlerFunc(h.ListEventInvites)))
	mux.Handle("POST /v1/events/{eventId}/invites", auth(http.HandlerFunc(h.CreateInvite)))
	mux.Handle("GET /v1/events/{eventId}/invite-suggestions", auth(http.HandlerFunc(h.SuggestInvitees)))

	mux.Handle("GET /v1/invites", auth(http.HandlerFunc(h.ListMyInvites)))
	mux.Handle("POST /v1/invites/{inviteId}/accept", auth(http.HandlerFunc(h.AcceptInvite)))
	mux.Handle("POST /v1/invites/{inviteId}/decline", auth(http.HandlerFunc(h.DeclineInvite)))
}

// CreateInvite handles POST /v1/events/{eventId}/invites
func (h *InviteHandler) CreateInvite(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	eventID, ok := pathID(w, r, "eventId", "event")
	if !ok {
		return
	}

	var req model.CreateInviteRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, model.NewBadRequestError("invalid request body"))
		return
	}
	if req.InviteeID == "" {
		WriteError(w, model.NewValidationError([]model.FieldError{{Field: "invitee_id", Message: "invitee_id is required"}}))
		return
	}

	invite, err := h.invites.CreateInvite(r.Context(), eventID, userID, req.InviteeID)
	if err != nil {
		WriteError(w, MapServiceErrorWithContext(err, "create invite"))
		return
	}
	WriteData(w, http.StatusCreated, invite, map[string]string{
		"event": "/v1/events/" + eventID,
	})
}

// ListEventInvites handles GET /v1/events/{eventId}/invites
func (h *InviteHandler) ListEventInvites(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	eventID, ok := pathID(w, r, "eventId", "event")
	if !ok {
		return
	}

	invites, err := h.invites.ListInvitesByEvent(r.Context(), eventID, userID)
	if err != nil {
		WriteError(w, MapServiceErrorWithContext(err, "list invites"))
		return
	}
	WriteCollection(w, invites, len(invites), nil)
}

// SuggestInvitees handles GET /v1/events/{eventId}/invite-suggestions
func (h *InviteHandler) SuggestInvitees(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	eventID, ok := pathID(w, r, "eventId", "event")
	if !ok {
		return
	}

	users, err := h.invites.SuggestInvitees(r.Context(), eventID, userID)
	if err != nil {
		WriteError(w, MapServiceErrorWithContext(err, "suggest invitees"))
		return
	}
	WriteCollection(w, users, len(users), nil)
}

// ListMyInvites handles GET /v1/invites
func (h *InviteHandler) ListMyInvites(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	invites, err := h.invites.ListInvitesByUser(r.Context(), userID)
	if err != nil {
		WriteError(w, MapServiceErrorWithContext(err, "list invites"))
		return
	}
	WriteCollection(w, invites, len(invites), nil)
}

// AcceptInvite handles POST /v1/invites/{inviteId}/accept
func (h *InviteHandler) AcceptInvite(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	inviteID, ok := pathID(w, r, "inviteId", "invite")
	if !ok {
		return
	}

	invite, err := h.invites.AcceptInvite(r.Context(), inviteID, "", userID)
	if err != nil {
		WriteError(w, MapServiceErrorWithContext(err, "accept invite"))
		return
	}
	WriteData(w, http.StatusOK, invite, map[string]string{
		"event": "/v1/events/" + invite.EventID,
	})
}

// DeclineInvite handles POST /v1/invites/{inviteId}/decline
func (h *InviteHandler) DeclineInvite(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	inviteID, ok := pathID(w, r, "inviteId", "invite")
	if !ok {
		return
	}

	invite, err := h.invites.DeclineInvite(r.Context(), inviteID, userID)
	if err != nil {
		WriteError(w, MapServiceErrorWithContext(err, "decline invite"))
		return
	}
	WriteData(w, http.StatusOK, invite, nil)
}
