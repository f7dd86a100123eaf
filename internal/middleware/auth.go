package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/forgo/rally/internal/model"
	"github.com/forgo/rally/pkg/jwt"
)

// TokenValidator verifies a bearer token
type TokenValidator interface {
	Validate(token string) (*jwt.Claims, error)
}

// Auth rejects requests without a valid bearer token and stores the
// caller's user id in the request context.
func Auth(validator TokenValidator) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				model.NewUnauthorizedError("missing or malformed authorization header").WriteJSON(w)
				return
			}

			claims, err := validator.Validate(token)
			if err != nil {
				unauthorized(err).WriteJSON(w)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), claims.UserID())))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	scheme, token, found := strings.Cut(r.Header.Get("Authorization"), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func unauthorized(err error) *model.ProblemDetails {
	p := model.NewUnauthorizedError("invalid token")
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		p.Detail = "token expired"
		p.Code = model.ErrCodeTokenExpired
	case errors.Is(err, jwt.ErrInvalidSignature):
		p.Detail = "invalid token signature"
		p.Code = model.ErrCodeTokenInvalid
	}
	return p
}

// WithUserID returns a context carrying the authenticated user id
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}

// GetUserID extracts the user ID from context
func GetUserID(ctx context.Context) string {
	if id, ok := ctx.Value(UserIDKey).(string); ok {
		return id
	}
	return ""
}
