package models

import "time"

// Message kinds as sent on the wire.
const (
	MessageText  = "text"
	MessageImage = "image"
	MessageFile  = "file"
)

// Delivery states reported by the backend. The client never computes these
// locally; it stores whatever the last event said.
const (
	StatusSent      = "sent"
	StatusDelivered = "delivered"
	StatusSeen      = "seen"
	StatusDeleted   = "deleted"
)

// Participant identifies a user inside a chat. It is an immutable snapshot
// copied by value into messages and chat summaries.
type Participant struct {
	ID     string `json:"_id"`
	Name   string `json:"name,omitempty"`
	Email  string `json:"email,omitempty"`
	Avatar string `json:"avatar,omitempty"`
}

// Message is one chat event. ChatID is always the bare conversation id;
// payloads that carry the conversation as an embedded object are normalized
// before a Message is built.
type Message struct {
	ID        string      `json:"_id"`
	ChatID    string      `json:"chat"`
	Sender    Participant `json:"sender"`
	Content   string      `json:"content"`
	Kind      string      `json:"type"`
	Status    string      `json:"status"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt *time.Time  `json:"updatedAt,omitempty"`
}

// Chat is a 1:1 or group thread summary. LastMessage is a denormalized copy
// of the most recent message and may be absent on a fresh thread.
type Chat struct {
	ID           string        `json:"_id"`
	Name         string        `json:"name,omitempty"`
	IsGroup      bool          `json:"isGroup"`
	Participants []Participant `json:"participants"`
	LastMessage  *Message      `json:"lastMessage,omitempty"`
	Unread       int           `json:"unreadCount"`
	UpdatedAt    time.Time     `json:"updatedAt"`
}

// HasParticipant reports whether the given user id is a member of the chat.
func (c Chat) HasParticipant(userID string) bool {
	for _, p := range c.Participants {
		if p.ID == userID {
			return true
		}
	}
	return false
}
