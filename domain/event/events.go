package event

import "encoding/json"

// Wire event names shared with the web client. These are part of the
// protocol and must not be renamed.
const (
	NewMessage      = "NEW_MESSAGE"
	NewMessageAlert = "NEW_MESSAGE_ALERT"
	StartTyping     = "START_TYPING"
	StopTyping      = "STOP_TYPING"
	ChatJoined      = "CHAT_JOINED"
	ChatLeaved      = "CHAT_LEAVED"
	OnlineUsers     = "ONLINE_USER"
	RefetchChats    = "REFETCH_CHATS"
	NewRequest      = "NEW_REQUEST"
	Alert           = "ALERT"
)

// Envelope is the JSON frame exchanged on the websocket, both directions.
type Envelope struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// NewMessageIn is the client payload for NEW_MESSAGE.
type NewMessageIn struct {
	ChatID  string   `json:"chatId"`
	Members []string `json:"members"`
	Message string   `json:"message"`
}

// TypingIn is the client payload for START_TYPING and STOP_TYPING.
type TypingIn struct {
	ChatID  string   `json:"chatId"`
	Members []string `json:"members"`
}

// PresenceIn is the client payload for CHAT_JOINED and CHAT_LEAVED.
type PresenceIn struct {
	UserID  string   `json:"userId"`
	Members []string `json:"members"`
}

// Sender identifies the author on an outbound message view.
type Sender struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
}

// Attachment mirrors a stored file reference on the wire.
type Attachment struct {
	PublicID string `json:"public_id"`
	URL      string `json:"url"`
}

// MessageView is the transient representation broadcast to recipients.
// It is built before persistence and never read back from storage.
type MessageView struct {
	ID          string       `json:"_id"`
	Content     string       `json:"content"`
	Sender      Sender       `json:"sender"`
	Chat        string       `json:"chat"`
	Attachments []Attachment `json:"attachments,omitempty"`
	CreatedAt   string       `json:"createdAt"`
}

// NewMessageOut is the server payload for NEW_MESSAGE.
type NewMessageOut struct {
	ChatID  string      `json:"chatId"`
	Message MessageView `json:"message"`
}

// ChatRef carries only a chat id, used by NEW_MESSAGE_ALERT and typing
// notifications.
type ChatRef struct {
	ChatID string `json:"chatId"`
}
