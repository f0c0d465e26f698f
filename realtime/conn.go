package realtime

import (
	"log/slog"
	"sync"
	"time"

	"chat-hub/domain"
	"chat-hub/domain/event"
	"chat-hub/errors"

	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 64 * 1024
)

// outEnvelope is the frame written to the peer.
type outEnvelope struct {
	Event   string `json:"event"`
	Payload any    `json:"payload"`
}

// Conn wraps a websocket connection with its resolved identity and a
// buffered outbound queue drained by WritePump.
type Conn struct {
	ws       *websocket.Conn
	identity domain.UserIdentity
	send     chan outEnvelope
	closed   chan struct{}
	once     sync.Once
	log      *slog.Logger
}

func NewConn(ws *websocket.Conn, identity domain.UserIdentity, sendBufferSize int, log *slog.Logger) *Conn {
	ws.SetReadLimit(maxMessageSize)
	ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	return &Conn{
		ws:       ws,
		identity: identity,
		send:     make(chan outEnvelope, sendBufferSize),
		closed:   make(chan struct{}),
		log:      log,
	}
}

func (c *Conn) Identity() domain.UserIdentity {
	return c.identity
}

// Send queues an event for delivery. It never blocks: a closed connection
// or a full queue yields an error and the payload is dropped for this
// recipient only.
func (c *Conn) Send(eventName string, payload any) error {
	select {
	case <-c.closed:
		return errors.ErrConnClosed
	case c.send <- outEnvelope{Event: eventName, Payload: payload}:
		return nil
	default:
		return errors.ErrSendBufferFull
	}
}

// ReadEnvelope blocks until the next frame from the peer.
func (c *Conn) ReadEnvelope() (event.Envelope, error) {
	var env event.Envelope
	if err := c.ws.ReadJSON(&env); err != nil {
		return event.Envelope{}, err
	}
	return env, nil
}

// WritePump drains the send queue onto the wire and keeps the connection
// alive with periodic pings. One goroutine per connection.
func (c *Conn) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case out := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteJSON(out); err != nil {
				c.log.Debug("write failed", "user_id", c.identity.ID, "error", err)
				return
			}
		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.closed:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			c.ws.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}

// Close shuts the connection down, idempotently.
func (c *Conn) Close() {
	c.once.Do(func() {
		close(c.closed)
		c.ws.Close()
	})
}
