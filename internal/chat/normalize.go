package chat

import (
	"encoding/json"
	"time"

	"github.com/AliShanawar/sitelink/internal/models"
)

// chatRef is a conversation reference as it appears on the wire: either a
// bare id string or an embedded object carrying an _id field. It is decoded
// exactly once, at the transport boundary; everything past this point works
// with the bare id.
type chatRef struct {
	ID string
}

func (r *chatRef) UnmarshalJSON(data []byte) error {
	if len(data) == 0 || string(data) == "null" {
		r.ID = ""
		return nil
	}
	if data[0] == '"' {
		return json.Unmarshal(data, &r.ID)
	}
	var obj struct {
		ID string `json:"_id"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	r.ID = obj.ID
	return nil
}

// rawMessage is a message payload as received, before normalization.
type rawMessage struct {
	ID        string             `json:"_id"`
	Chat      chatRef            `json:"chat"`
	Sender    models.Participant `json:"sender"`
	Content   string             `json:"content"`
	Kind      string             `json:"type"`
	Status    string             `json:"status"`
	CreatedAt time.Time          `json:"createdAt"`
	UpdatedAt *time.Time         `json:"updatedAt"`
}

func (m rawMessage) normalize() models.Message {
	kind := m.Kind
	if kind == "" {
		kind = models.MessageText
	}
	return models.Message{
		ID:        m.ID,
		ChatID:    m.Chat.ID,
		Sender:    m.Sender,
		Content:   m.Content,
		Kind:      kind,
		Status:    m.Status,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// rawChat is a conversation summary payload as received. Its denormalized
// last message goes through the same normalization as standalone messages.
type rawChat struct {
	ID           string               `json:"_id"`
	Name         string               `json:"name"`
	IsGroup      bool                 `json:"isGroup"`
	Participants []models.Participant `json:"participants"`
	LastMessage  *rawMessage          `json:"lastMessage"`
	Unread       int                  `json:"unreadCount"`
	UpdatedAt    time.Time            `json:"updatedAt"`
}

func (c rawChat) normalize() models.Chat {
	out := models.Chat{
		ID:           c.ID,
		Name:         c.Name,
		IsGroup:      c.IsGroup,
		Participants: c.Participants,
		Unread:       c.Unread,
		UpdatedAt:    c.UpdatedAt,
	}
	if c.LastMessage != nil {
		last := c.LastMessage.normalize()
		if last.ChatID == "" {
			last.ChatID = c.ID
		}
		out.LastMessage = &last
	}
	return out
}

// rawHistory is the chat_history payload: the conversation reference plus a
// chronologically ordered page of messages.
type rawHistory struct {
	Chat     chatRef      `json:"chat"`
	Messages []rawMessage `json:"messages"`
}

func (h rawHistory) normalize() (string, []models.Message) {
	msgs := make([]models.Message, 0, len(h.Messages))
	for _, m := range h.Messages {
		msg := m.normalize()
		if msg.ChatID == "" {
			msg.ChatID = h.Chat.ID
		}
		msgs = append(msgs, msg)
	}
	return h.Chat.ID, msgs
}
