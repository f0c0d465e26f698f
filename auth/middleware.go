package auth

import (
	"context"
	"net/http"
)

// Cookie names carrying the session tokens.
const (
	SessionCookie = "chathub"
	AdminCookie   = "chatadmin"
)

// AdminUserID is the claims subject issued by the admin login.
const AdminUserID = "admin"

type contextKey string

const (
	userIDKey   contextKey = "userID"
	usernameKey contextKey = "username"
)

// UserIDFromContext returns the authenticated user id set by Middleware.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok
}

// UsernameFromContext returns the authenticated username set by Middleware.
func UsernameFromContext(ctx context.Context) (string, bool) {
	name, ok := ctx.Value(usernameKey).(string)
	return name, ok
}

// Middleware authenticates requests from the session cookie and stores the
// claims in the request context.
func Middleware(tokens TokenManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookie)
			if err != nil {
				unauthorized(w)
				return
			}

			claims, err := tokens.Validate(cookie.Value)
			if err != nil {
				unauthorized(w)
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, claims.UserID)
			ctx = context.WithValue(ctx, usernameKey, claims.Username)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AdminMiddleware authenticates requests from the admin cookie.
func AdminMiddleware(tokens TokenManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(AdminCookie)
			if err != nil {
				unauthorized(w)
				return
			}

			claims, err := tokens.Validate(cookie.Value)
			if err != nil || claims.UserID != AdminUserID {
				unauthorized(w)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"success":false,"message":"login required"}`))
}
