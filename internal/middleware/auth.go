package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"pass-eligibility-api/internal/auth"
	"pass-eligibility-api/pkg/logger"
)

type ctxKey string

const profileIDKey ctxKey = "profile_id"

// TokenValidator validates a bearer token.
type TokenValidator interface {
	Validate(token string) (*auth.Claims, error)
}

// RequireAuth rejects requests without a valid bearer token and stores the
// authenticated profile id in the request context.
func RequireAuth(validator TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || strings.TrimSpace(token) == "" {
				writeJSONError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}

			claims, err := validator.Validate(strings.TrimSpace(token))
			if err != nil {
				msg := "invalid token"
				if errors.Is(err, auth.ErrExpiredToken) {
					msg = "token has expired"
				}
				writeJSONError(w, http.StatusUnauthorized, msg)
				return
			}

			ctx := WithProfileID(r.Context(), claims.ProfileID)
			ctx = logger.With(ctx, "profile_id", claims.ProfileID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WithProfileID stores the authenticated profile id in ctx.
func WithProfileID(ctx context.Context, profileID string) context.Context {
	return context.WithValue(ctx, profileIDKey, profileID)
}

// ProfileIDFrom returns the authenticated profile id, if any.
func ProfileIDFrom(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(profileIDKey).(string)
	return id, ok && id != ""
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(`{"error":"` + message + `"}`))
}
