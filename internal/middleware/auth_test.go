package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	gojwt "github.com/golang-jwt/jwt/v4"

	"github.com/forgo/rally/internal/model"
	"github.com/forgo/rally/pkg/jwt"
)

// ============================================================================
// Mock validator
// ============================================================================

type mockValidator struct {
	validateFunc func(token string) (*jwt.Claims, error)
	gotToken     string
}

func (m *mockValidator) Validate(token string) (*jwt.Claims, error) {
	m.gotToken = token
	return m.validateFunc(token)
}

func acceptingValidator(userID string) *mockValidator {
	return &mockValidator{
		validateFunc: func(string) (*jwt.Claims, error) {
			return &jwt.Claims{RegisteredClaims: gojwt.RegisteredClaims{Subject: userID}}, nil
		},
	}
}

func rejectingValidator(err error) *mockValidator {
	return &mockValidator{
		validateFunc: func(string) (*jwt.Claims, error) {
			return nil, err
		},
	}
}

// ============================================================================
// Test Helpers
// ============================================================================

func newTestRequest(authHeader string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	return req
}

// captureHandler captures the request context for inspection
type captureHandler struct {
	called bool
	ctx    context.Context
}

func (h *captureHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.called = true
	h.ctx = r.Context()
	w.WriteHeader(http.StatusOK)
}

func decodeProblem(t *testing.T, rr *httptest.ResponseRecorder) model.ProblemDetails {
	t.Helper()
	var p model.ProblemDetails
	if err := json.Unmarshal(rr.Body.Bytes(), &p); err != nil {
		t.Fatalf("failed to decode problem: %v", err)
	}
	return p
}

// ============================================================================
// Auth Tests
// ============================================================================

func TestAuth_MalformedHeader_ReturnsUnauthorized(t *testing.T) {
	t.Parallel()

	for _, header := range []string{"", "Token abc", "Bearer", "Bearer ", "Bearerabc"} {
		handler := &captureHandler{}
		validator := acceptingValidator("user:1")
		rr := httptest.NewRecorder()

		Auth(validator)(handler).ServeHTTP(rr, newTestRequest(header))

		if rr.Code != http.StatusUnauthorized {
			t.Errorf("%q: expected 401, got %d", header, rr.Code)
		}
		if handler.called {
			t.Errorf("%q: handler should not be called", header)
		}
		if validator.gotToken != "" {
			t.Errorf("%q: validator should not be consulted", header)
		}
	}
}

func TestAuth_ValidToken_SetsUserID(t *testing.T) {
	t.Parallel()

	handler := &captureHandler{}
	validator := acceptingValidator("user:ana")
	rr := httptest.NewRecorder()

	Auth(validator)(handler).ServeHTTP(rr, newTestRequest("bearer tok-123"))

	if !handler.called {
		t.Fatal("expected handler to be called")
	}
	if validator.gotToken != "tok-123" {
		t.Errorf("expected token tok-123, got %q", validator.gotToken)
	}
	if got := GetUserID(handler.ctx); got != "user:ana" {
		t.Errorf("expected user:ana, got %q", got)
	}
}

func TestAuth_RejectedToken_MapsDetail(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		err    error
		detail string
		code   model.ErrorCode
	}{
		{"expired", jwt.ErrTokenExpired, "token expired", model.ErrCodeTokenExpired},
		{"bad signature", jwt.ErrInvalidSignature, "invalid token signature", model.ErrCodeTokenInvalid},
		{"other", errors.New("nope"), "invalid token", model.ErrCodeUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			handler := &captureHandler{}
			rr := httptest.NewRecorder()

			Auth(rejectingValidator(tt.err))(handler).ServeHTTP(rr, newTestRequest("Bearer x"))

			if rr.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", rr.Code)
			}
			p := decodeProblem(t, rr)
			if p.Detail != tt.detail || p.Code != tt.code {
				t.Errorf("expected %q/%d, got %q/%d", tt.detail, tt.code, p.Detail, p.Code)
			}
			if handler.called {
				t.Error("handler should not be called")
			}
		})
	}
}

// ============================================================================
// Context helpers
// ============================================================================

func TestGetUserID_RoundTrip(t *testing.T) {
	t.Parallel()

	ctx := WithUserID(context.Background(), "user:1")
	if got := GetUserID(ctx); got != "user:1" {
		t.Errorf("expected user:1, got %q", got)
	}
	if got := GetUserID(context.Background()); got != "" {
		t.Errorf("expected empty, got %q", got)
	}
	if got := GetUserID(context.WithValue(context.Background(), UserIDKey, 42)); got != "" {
		t.Errorf("expected empty for wrong type, got %q", got)
	}
}
