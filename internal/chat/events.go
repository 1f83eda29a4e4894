// Package chat implements the real-time chat session: one live connection
// per signed-in user, the conversation list, per-conversation message
// sequences, typing presence and read receipts.
package chat

import (
	"encoding/json"

	"github.com/AliShanawar/sitelink/internal/models"
)

// Events emitted by the client.
const (
	EventSetup         = "setup"
	EventFetchAllChats = "fetch_all_chats"
	EventFetchChat     = "fetch_chat"
	EventSendMessage   = "send_message"
	EventTyping        = "typing"
	EventStopTyping    = "stop_typing"
	EventMarkSeen      = "mark_seen"
	EventDeleteMessage = "delete_message"
)

// Events emitted by the gateway. Transport lifecycle ("connect" and
// "disconnect") is defined in the transport package.
const (
	EventAllChats           = "all_chats"
	EventChatHistory        = "chat_history"
	EventReceiveMessage     = "receive_message"
	EventMessageSent        = "message_sent"
	EventMessageSeen        = "message_seen"
	EventMessageDeleted     = "message_deleted"
	EventUserTyping         = "user_typing"
	EventUserStopTyping     = "user_stop_typing"
	EventChatFoundOrCreated = "chat_found_or_created"
	EventChatError          = "chat_error"
)

// Frame is the wire envelope for every socket event, both directions.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// EncodeFrame marshals an event and its payload into a wire frame.
func EncodeFrame(event string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Frame{Event: event, Data: data})
}

type SetupPayload struct {
	UserID string `json:"userId"`
}

type FetchAllChatsPayload struct {
	UserID string `json:"userId"`
}

type FetchChatPayload struct {
	SenderID   string `json:"senderId"`
	ReceiverID string `json:"receiverId"`
	Page       int    `json:"page"`
	Limit      int    `json:"limit"`
}

type SendMessagePayload struct {
	SenderID   string `json:"senderId"`
	ReceiverID string `json:"receiverId"`
	Content    string `json:"content"`
	Type       string `json:"type"`
}

type TypingPayload struct {
	SenderID   string `json:"senderId"`
	ReceiverID string `json:"receiverId"`
}

type MarkSeenPayload struct {
	MessageID string `json:"messageId"`
}

type DeleteMessagePayload struct {
	MessageID string `json:"messageId"`
	SenderID  string `json:"senderId"`
}

// HistoryPayload is the gateway's chat_history body. The chat reference may
// arrive as a bare id or a full object; see normalize.go for the client side.
type HistoryPayload struct {
	Chat     models.Chat      `json:"chat"`
	Messages []models.Message `json:"messages"`
}

type TypingEvent struct {
	SenderID string `json:"senderId"`
}

type ErrorEvent struct {
	Message string `json:"message,omitempty"`
}
