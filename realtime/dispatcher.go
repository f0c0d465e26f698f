package realtime

import (
	"encoding/json"
	"log/slog"
	"time"

	"chat-hub/domain"
	"chat-hub/domain/event"
	"chat-hub/moderation"
	"chat-hub/repositories"

	"github.com/abadojack/whatlanggo"
	"github.com/google/uuid"
)

// MessageStore is the slice of the message repository the dispatcher needs.
type MessageStore interface {
	StoreMessage(message repositories.DiskMessage) error
}

// Session is a live connection as seen by the dispatcher: an outbound sink
// plus the identity resolved at handshake time.
type Session interface {
	EventSink
	Identity() domain.UserIdentity
}

// Dispatcher drives authenticated connections: it registers them, routes
// their inbound events and tears them down on disconnect. Handler errors
// are logged and swallowed; they never terminate the connection.
type Dispatcher struct {
	registry  *Registry
	presence  *Presence
	router    *Router
	messages  MessageStore
	moderator *moderation.Moderator
	log       *slog.Logger
}

func NewDispatcher(registry *Registry, presence *Presence, router *Router,
	messages MessageStore, moderator *moderation.Moderator, log *slog.Logger) *Dispatcher {
	return &Dispatcher{
		registry:  registry,
		presence:  presence,
		router:    router,
		messages:  messages,
		moderator: moderator,
		log:       log,
	}
}

// ServeConn owns the connection until the peer goes away. It must be called
// once per accepted websocket, after authentication.
func (d *Dispatcher) ServeConn(conn *Conn) {
	identity := conn.Identity()
	d.registry.Register(identity.ID, conn)
	d.log.Info("connection registered", "user_id", identity.ID)

	go conn.WritePump()
	defer d.handleDisconnect(conn)

	for {
		env, err := conn.ReadEnvelope()
		if err != nil {
			d.log.Debug("read loop ended", "user_id", identity.ID, "error", err)
			return
		}
		d.dispatch(conn, env)
	}
}

func (d *Dispatcher) dispatch(sess Session, env event.Envelope) {
	switch env.Event {
	case event.NewMessage:
		var p event.NewMessageIn
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			d.log.Debug("malformed payload", "event", env.Event, "error", err)
			return
		}
		d.handleNewMessage(sess, p)
	case event.StartTyping, event.StopTyping:
		var p event.TypingIn
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			d.log.Debug("malformed payload", "event", env.Event, "error", err)
			return
		}
		d.handleTyping(sess, env.Event, p)
	case event.ChatJoined:
		var p event.PresenceIn
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			d.log.Debug("malformed payload", "event", env.Event, "error", err)
			return
		}
		d.handleJoined(p)
	case event.ChatLeaved:
		var p event.PresenceIn
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			d.log.Debug("malformed payload", "event", env.Event, "error", err)
			return
		}
		d.handleLeaved(p)
	default:
		d.log.Debug("unknown event", "event", env.Event)
	}
}

// handleNewMessage censors the content, broadcasts the transient view to
// the chat members, then persists asynchronously. The broadcast is never
// retracted when the write fails.
func (d *Dispatcher) handleNewMessage(sess Session, p event.NewMessageIn) {
	identity := sess.Identity()
	now := time.Now().UTC()

	content, censored := d.moderator.Censor(p.Message)
	if len(censored) > 0 {
		d.log.Warn("message censored", "user_id", identity.ID, "words", len(censored))
	}

	view := event.MessageView{
		ID:      uuid.New().String(),
		Content: content,
		Sender: event.Sender{
			ID:   identity.ID,
			Name: identity.Name,
		},
		Chat:      p.ChatID,
		CreatedAt: now.Format(time.RFC3339),
	}

	d.router.Broadcast(p.Members, event.NewMessage, event.NewMessageOut{ChatID: p.ChatID, Message: view})
	d.router.Broadcast(p.Members, event.NewMessageAlert, event.ChatRef{ChatID: p.ChatID})

	info := whatlanggo.Detect(content)
	record := repositories.DiskMessage{
		Chat:     p.ChatID,
		Sender:   identity.ID,
		Content:  content,
		Language: info.Lang.Iso6391(),
		At:       now,
	}
	go func() {
		if err := d.messages.StoreMessage(record); err != nil {
			d.log.Error("message persistence failed", "chat_id", p.ChatID, "user_id", identity.ID, "error", err)
		}
	}()
}

// handleTyping relays the indicator to the chat members minus the sender's
// own connection.
func (d *Dispatcher) handleTyping(sess Session, eventName string, p event.TypingIn) {
	d.router.BroadcastExcept(p.Members, sess, eventName, event.ChatRef{ChatID: p.ChatID})
}

func (d *Dispatcher) handleJoined(p event.PresenceIn) {
	d.presence.MarkOnline(p.UserID)
	d.router.Broadcast(p.Members, event.OnlineUsers, d.presence.Snapshot())
}

func (d *Dispatcher) handleLeaved(p event.PresenceIn) {
	d.presence.MarkOffline(p.UserID)
	d.router.Broadcast(p.Members, event.OnlineUsers, d.presence.Snapshot())
}

// handleDisconnect tears the session down. The unregister is guarded so a
// stale disconnect arriving after a reconnect leaves the newer handle in
// place. The presence snapshot goes to every live connection, not only the
// chats the user was in.
func (d *Dispatcher) handleDisconnect(sess Session) {
	identity := sess.Identity()
	d.registry.Unregister(identity.ID, sess)
	d.presence.MarkOffline(identity.ID)
	d.router.BroadcastAll(event.OnlineUsers, d.presence.Snapshot())
	if conn, ok := sess.(*Conn); ok {
		conn.Close()
	}
	d.log.Info("connection closed", "user_id", identity.ID)
}
