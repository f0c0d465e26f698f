package auth

import (
	"log/slog"
	"net/http"

	"chat-hub/domain"
	"chat-hub/errors"
)

// IdentityLoader resolves a user id to the identity attached to a realtime
// connection.
type IdentityLoader interface {
	LoadIdentity(userID string) (domain.UserIdentity, error)
}

// SocketAuthenticator verifies the session cookie on a websocket upgrade
// request, before the connection is admitted. Runs once per connection.
type SocketAuthenticator struct {
	tokens TokenManager
	users  IdentityLoader
	log    *slog.Logger
}

func NewSocketAuthenticator(tokens TokenManager, users IdentityLoader, log *slog.Logger) SocketAuthenticator {
	return SocketAuthenticator{tokens: tokens, users: users, log: log}
}

// Authenticate extracts and validates the session cookie of the handshake
// request and resolves the full identity from storage.
func (a SocketAuthenticator) Authenticate(r *http.Request) (domain.UserIdentity, error) {
	cookie, err := r.Cookie(SessionCookie)
	if err != nil {
		return domain.UserIdentity{}, errors.ErrUnauthorized
	}

	claims, err := a.tokens.Validate(cookie.Value)
	if err != nil {
		a.log.Debug("handshake token rejected", "error", err)
		return domain.UserIdentity{}, errors.ErrUnauthorized
	}

	identity, err := a.users.LoadIdentity(claims.UserID)
	if err != nil {
		a.log.Debug("handshake user unknown", "user_id", claims.UserID)
		return domain.UserIdentity{}, errors.ErrUnauthorized
	}

	return identity, nil
}
