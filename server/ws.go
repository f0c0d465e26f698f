package server

import (
	"log/slog"
	"net/http"

	"chat-hub/auth"
	"chat-hub/realtime"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The session cookie is the only credential; cross-origin pages cannot
	// read it, so any origin may open the socket.
	CheckOrigin: func(*http.Request) bool { return true },
}

// wsHandler authenticates the handshake, upgrades it and hands the
// connection to the dispatcher for the rest of its life.
type wsHandler struct {
	authenticator  auth.SocketAuthenticator
	dispatcher     *realtime.Dispatcher
	sendBufferSize int
	log            *slog.Logger
}

func (h *wsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	identity, err := h.authenticator.Authenticate(r)
	if err != nil {
		http.Error(w, "login required", http.StatusUnauthorized)
		return
	}

	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Debug("upgrade failed", "error", err)
		return
	}

	conn := realtime.NewConn(ws, identity, h.sendBufferSize, h.log)
	h.dispatcher.ServeConn(conn)
}
