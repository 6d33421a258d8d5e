package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"perftrack/internal/domain/auth"
)

// SessionChecker reports whether the session an access token was minted
// under is still alive.
type SessionChecker interface {
	SessionAlive(ctx context.Context, sessionID string) (bool, error)
}

// Auth parses a bearer token and puts the caller into the request
// context. Requests without a valid token pass through unauthenticated;
// role gates downstream decide whether that is acceptable.
func Auth(secret string, sessions SessionChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				next.ServeHTTP(w, r)
				return
			}
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := auth.ParseToken(secret, parts[1])
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			if sessions != nil && claims.SessionID != "" {
				alive, err := sessions.SessionAlive(r.Context(), claims.SessionID)
				if err != nil {
					slog.Warn("session check failed", "err", err)
					next.ServeHTTP(w, r)
					return
				}
				if !alive {
					next.ServeHTTP(w, r)
					return
				}
			}

			ctx := context.WithValue(r.Context(), ctxKeyUser, auth.UserContext{
				UserID:     claims.UserID,
				Email:      claims.Subject,
				Role:       claims.Role,
				EmployeeID: claims.EmployeeID,
				SessionID:  claims.SessionID,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func GetUser(ctx context.Context) (auth.UserContext, bool) {
	user, ok := ctx.Value(ctxKeyUser).(auth.UserContext)
	return user, ok
}
