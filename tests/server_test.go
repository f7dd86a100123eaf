package tests

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/forgo/rally/internal/handler"
	"github.com/forgo/rally/internal/middleware"
	"github.com/forgo/rally/internal/model"
	"github.com/forgo/rally/internal/repository"
	"github.com/forgo/rally/internal/service"
	"github.com/forgo/rally/internal/testing/fixtures"
	"github.com/forgo/rally/internal/testing/helpers"
	"github.com/forgo/rally/internal/testing/testdb"
)

// testCheckInLead is the check-in lead time of the server under test
const testCheckInLead = time.Hour

// testServer wires the real repositories, services and handlers against a
// test database, the way cmd/server does.
type testServer struct {
	tdb     *testdb.TestDB
	f       *fixtures.Factory
	jwt     *helpers.JWTHelper
	handler http.Handler

	participation *service.ParticipationService
	invites       *service.InviteService
	events        *service.EventService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	tdb := testdb.New(t)
	t.Cleanup(tdb.Close)

	userRepo := repository.NewUserRepository(tdb.DB)
	eventRepo := repository.NewEventRepository(tdb.DB)
	participationRepo := repository.NewParticipationRepository(tdb.DB)
	inviteRepo := repository.NewInviteRepository(tdb.DB)

	transactor := service.NewEventTransactor(participationRepo, 0)
	matcher := service.NewMatcherService(service.MatcherServiceConfig{UserRepo: userRepo})
	participation := service.NewParticipationService(service.ParticipationServiceConfig{
		Transactor:  transactor,
		Records:     participationRepo,
		UserRepo:    userRepo,
		CheckInLead: testCheckInLead,
	})
	invites := service.NewInviteService(service.InviteServiceConfig{
		Transactor: transactor,
		InviteRepo: inviteRepo,
		EventRepo:  eventRepo,
		Records:    participationRepo,
		Matcher:    matcher,
	})
	events := service.NewEventService(service.EventServiceConfig{
		Repo:          eventRepo,
		Joined:        participationRepo,
		UserRepo:      userRepo,
		Participation: participation,
		Invites:       invites,
		Matcher:       matcher,
	})

	jwtHelper := helpers.NewJWTHelper(t)
	auth := middleware.Auth(jwtHelper.Service())

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", handler.NewHealthHandler(tdb.DB).Health)
	handler.NewEventHandler(events, participation).RegisterRoutes(mux, auth)
	handler.NewInviteHandler(invites).RegisterRoutes(mux, auth)
	handler.NewMatchHandler(matcher).RegisterRoutes(mux, auth)

	return &testServer{
		tdb:           tdb,
		f:             fixtures.New(tdb.DB),
		jwt:           jwtHelper,
		handler:       middleware.Chain(mux, middleware.RequestID, middleware.Recovery),
		participation: participation,
		invites:       invites,
		events:        events,
	}
}

// do sends an authenticated request as user; a nil user sends none
func (s *testServer) do(t *testing.T, user *model.User, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	rb := helpers.NewRequest(t, method, path)
	if body != nil {
		rb.WithBody(body)
	}
	if user != nil {
		rb.WithAuth(s.jwt, user)
	}

	rr := httptest.NewRecorder()
	s.handler.ServeHTTP(rr, rb.Build())
	return rr
}

func serveRequest(s *testServer, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	s.handler.ServeHTTP(rr, req)
	return rr
}
