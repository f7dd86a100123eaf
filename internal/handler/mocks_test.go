package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/forgo/rally/internal/middleware"
	"github.com/forgo/rally/internal/model"
)

// ============================================================================
// Mock services
// ============================================================================

type mockEventService struct {
	createEventFunc     func(ctx context.Context, creatorID string, req *model.CreateEventRequest) (*model.CreateEventResult, error)
	getEventDetailsFunc func(ctx context.Context, eventID, userID string) (*model.EventDetails, error)
	listEventsFunc      func(ctx context.Context, userID string, scope model.EventScope) ([]*model.Event, error)
	likeFunc            func(ctx context.Context, userID, eventID string) error
	unlikeFunc          func(ctx context.Context, userID, eventID string) error
}

func (m *mockEventService) CreateEvent(ctx context.Context, creatorID string, req *model.CreateEventRequest) (*model.CreateEventResult, error) {
	if m.createEventFunc != nil {
		return m.createEventFunc(ctx, creatorID, req)
	}
	return nil, nil
}

func (m *mockEventService) GetEventDetails(ctx context.Context, eventID, userID string) (*model.EventDetails, error) {
	if m.getEventDetailsFunc != nil {
		return m.getEventDetailsFunc(ctx, eventID, userID)
	}
	return nil, nil
}

func (m *mockEventService) ListEvents(ctx context.Context, userID string, scope model.EventScope) ([]*model.Event, error) {
	if m.listEventsFunc != nil {
		return m.listEventsFunc(ctx, userID, scope)
	}
	return nil, nil
}

func (m *mockEventService) Like(ctx context.Context, userID, eventID string) error {
	if m.likeFunc != nil {
		return m.likeFunc(ctx, userID, eventID)
	}
	return nil
}

func (m *mockEventService) Unlike(ctx context.Context, userID, eventID string) error {
	if m.unlikeFunc != nil {
		return m.unlikeFunc(ctx, userID, eventID)
	}
	return nil
}

type mockParticipationService struct {
	joinFunc              func(ctx context.Context, eventID, userID string) (*model.Event, error)
	leaveFunc             func(ctx context.Context, eventID, userID string) (*model.Event, error)
	checkInFunc           func(ctx context.Context, eventID, userID string) (*model.Participation, error)
	fetchParticipantsFunc func(ctx context.Context, eventID string) ([]*model.Participant, error)
}

func (m *mockParticipationService) Join(ctx context.Context, eventID, userID string) (*model.Event, error) {
	if m.joinFunc != nil {
		return m.joinFunc(ctx, eventID, userID)
	}
	return nil, nil
}

func (m *mockParticipationService) Leave(ctx context.Context, eventID, userID string) (*model.Event, error) {
	if m.leaveFunc != nil {
		return m.leaveFunc(ctx, eventID, userID)
	}
	return nil, nil
}

func (m *mockParticipationService) CheckIn(ctx context.Context, eventID, userID string) (*model.Participation, error) {
	if m.checkInFunc != nil {
		return m.checkInFunc(ctx, eventID, userID)
	}
	return nil, nil
}

func (m *mockParticipationService) FetchParticipants(ctx context.Context, eventID string) ([]*model.Participant, error) {
	if m.fetchParticipantsFunc != nil {
		return m.fetchParticipantsFunc(ctx, eventID)
	}
	return []*model.Participant{}, nil
}

type mockInviteService struct {
	createInviteFunc       func(ctx context.Context, eventID, inviterID, inviteeID string) (*model.Invite, error)
	listInvitesByEventFunc func(ctx context.Context, eventID, requesterID string) ([]*model.Invite, error)
	listInvitesByUserFunc  func(ctx context.Context, userID string) ([]*model.Invite, error)
	acceptInviteFunc       func(ctx context.Context, inviteID, eventID, userID string) (*model.Invite, error)
	declineInviteFunc      func(ctx context.Context, inviteID, userID string) (*model.Invite, error)
	suggestInviteesFunc    func(ctx context.Context, eventID, requesterID string) ([]*model.User, error)
}

func (m *mockInviteService) CreateInvite(ctx context.Context, eventID, inviterID, inviteeID string) (*model.Invite, error) {
	if m.createInviteFunc != nil {
		return m.createInviteFunc(ctx, eventID, inviterID, inviteeID)
	}
	return nil, nil
}

func (m *mockInviteService) ListInvitesByEvent(ctx context.Context, eventID, requesterID string) ([]*model.Invite, error) {
	if m.listInvitesByEventFunc != nil {
		return m.listInvitesByEventFunc(ctx, eventID, requesterID)
	}
	return nil, nil
}

func (m *mockInviteService) ListInvitesByUser(ctx context.Context, userID string) ([]*model.Invite, error) {
	if m.listInvitesByUserFunc != nil {
		return m.listInvitesByUserFunc(ctx, userID)
	}
	return nil, nil
}

func (m *mockInviteService) AcceptInvite(ctx context.Context, inviteID, eventID, userID string) (*model.Invite, error) {
	if m.acceptInviteFunc != nil {
		return m.acceptInviteFunc(ctx, inviteID, eventID, userID)
	}
	return nil, nil
}

func (m *mockInviteService) DeclineInvite(ctx context.Context, inviteID, userID string) (*model.Invite, error) {
	if m.declineInviteFunc != nil {
		return m.declineInviteFunc(ctx, inviteID, userID)
	}
	return nil, nil
}

func (m *mockInviteService) SuggestInvitees(ctx context.Context, eventID, requesterID string) ([]*model.User, error) {
	if m.suggestInviteesFunc != nil {
		return m.suggestInviteesFunc(ctx, eventID, requesterID)
	}
	return nil, nil
}

type mockMatchFinder struct {
	findFunc func(ctx context.Context, criteria model.MatchCriteria) ([]*model.User, error)
}

func (m *mockMatchFinder) FindCompatibleUsers(ctx context.Context, criteria model.MatchCriteria) ([]*model.User, error) {
	if m.findFunc != nil {
		return m.findFunc(ctx, criteria)
	}
	return nil, nil
}

// ============================================================================
// Test Helpers
// ============================================================================

// passthrough stands in for the auth middleware; tests put the caller in
// the request context themselves.
func passthrough(next http.Handler) http.Handler { return next }

func makeJSONRequest(method, path string, body interface{}) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func withUserContext(req *http.Request, userID string) *http.Request {
	return req.WithContext(middleware.WithUserID(req.Context(), userID))
}

func serve(mux *http.ServeMux, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	return rr
}

func parseErrorResponse(t *testing.T, body []byte) *model.ProblemDetails {
	t.Helper()
	var problem model.ProblemDetails
	if err := json.Unmarshal(body, &problem); err != nil {
		t.Fatalf("failed to parse error response: %v", err)
	}
	return &problem
}

func parseDataResponse(t *testing.T, body []byte, v interface{}) {
	t.Helper()
	resp := struct {
		Data json.RawMessage `json:"data"`
	}{}
	if err := json.Unmarshal(body, &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if err := json.Unmarshal(resp.Data, v); err != nil {
		t.Fatalf("failed to parse data: %v", err)
	}
}
