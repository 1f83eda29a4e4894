package gateway

import (
	"encoding/json"
	"strings"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/AliShanawar/sitelink/internal/chat"
)

// Client is one authenticated websocket connection. It is registered in the
// hub once the peer announces itself with a setup event.
type Client struct {
	UserID string
	Name   string

	conn  *websocket.Conn
	send  chan []byte
	done  chan struct{}
	hub   *Hub
	state *State
	log   *zap.Logger
}

func NewClient(hub *Hub, state *State, conn *websocket.Conn, userID, name string, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		UserID: userID,
		Name:   name,
		conn:   conn,
		send:   make(chan []byte, 256),
		done:   make(chan struct{}),
		hub:    hub,
		state:  state,
		log:    log,
	}
}

func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
		close(c.done)
	}()

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var frame chat.Frame
		if err := json.Unmarshal(data, &frame); err != nil {
			continue
		}
		c.handle(frame)
	}
}

func (c *Client) WritePump() {
	for {
		select {
		case frame := <-c.send:
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}

func (c *Client) handle(frame chat.Frame) {
	switch frame.Event {
	case chat.EventSetup:
		var p chat.SetupPayload
		if err := json.Unmarshal(frame.Data, &p); err != nil || p.UserID != c.UserID {
			c.emit(chat.EventChatError, chat.ErrorEvent{Message: "setup rejected"})
			return
		}
		c.hub.Register(c)

	case chat.EventFetchAllChats:
		c.emit(chat.EventAllChats, c.state.ChatsFor(c.UserID))

	case chat.EventFetchChat:
		var p chat.FetchChatPayload
		if err := json.Unmarshal(frame.Data, &p); err != nil {
			c.emit(chat.EventChatError, chat.ErrorEvent{Message: "bad fetch_chat payload"})
			return
		}
		thread, created, err := c.state.FindOrCreateDirect(c.UserID, p.ReceiverID)
		if err != nil {
			c.emit(chat.EventChatError, chat.ErrorEvent{Message: err.Error()})
			return
		}
		if created {
			c.emit(chat.EventChatFoundOrCreated, thread)
			c.sendTo(p.ReceiverID, chat.EventChatFoundOrCreated, thread)
		}
		messages, _ := c.state.History(thread.ID, p.Page, p.Limit)
		c.emit(chat.EventChatHistory, chat.HistoryPayload{Chat: thread, Messages: messages})

	case chat.EventSendMessage:
		var p chat.SendMessagePayload
		if err := json.Unmarshal(frame.Data, &p); err != nil || strings.TrimSpace(p.Content) == "" {
			c.emit(chat.EventChatError, chat.ErrorEvent{Message: "bad send_message payload"})
			return
		}
		msg, thread, created, err := c.state.AppendDirect(c.UserID, p.ReceiverID, p.Content, p.Type)
		if err != nil {
			c.emit(chat.EventChatError, chat.ErrorEvent{Message: err.Error()})
			return
		}
		if created {
			c.emit(chat.EventChatFoundOrCreated, thread)
			c.sendTo(p.ReceiverID, chat.EventChatFoundOrCreated, thread)
		}
		c.emit(chat.EventMessageSent, msg)
		c.sendTo(p.ReceiverID, chat.EventReceiveMessage, msg)

	case chat.EventTyping:
		var p chat.TypingPayload
		if err := json.Unmarshal(frame.Data, &p); err != nil {
			return
		}
		c.sendTo(p.ReceiverID, chat.EventUserTyping, chat.TypingEvent{SenderID: c.UserID})

	case chat.EventStopTyping:
		var p chat.TypingPayload
		if err := json.Unmarshal(frame.Data, &p); err != nil {
			return
		}
		c.sendTo(p.ReceiverID, chat.EventUserStopTyping, chat.TypingEvent{SenderID: c.UserID})

	case chat.EventMarkSeen:
		var p chat.MarkSeenPayload
		if err := json.Unmarshal(frame.Data, &p); err != nil {
			return
		}
		msg, ok := c.state.MarkSeen(p.MessageID, c.UserID)
		if !ok {
			c.emit(chat.EventChatError, chat.ErrorEvent{Message: "unknown message"})
			return
		}
		for _, member := range c.state.Participants(msg.ChatID) {
			c.sendTo(member, chat.EventMessageSeen, msg)
		}

	case chat.EventDeleteMessage:
		var p chat.DeleteMessagePayload
		if err := json.Unmarshal(frame.Data, &p); err != nil {
			return
		}
		msg, err := c.state.Delete(p.MessageID, c.UserID)
		if err != nil {
			c.emit(chat.EventChatError, chat.ErrorEvent{Message: err.Error()})
			return
		}
		for _, member := range c.state.Participants(msg.ChatID) {
			c.sendTo(member, chat.EventMessageDeleted, msg)
		}

	default:
		c.log.Debug("gateway: unknown event", zap.String("event", frame.Event), zap.String("user", c.UserID))
		c.emit(chat.EventChatError, chat.ErrorEvent{Message: "unknown event: " + frame.Event})
	}
}

// emit queues a frame on this connection.
func (c *Client) emit(event string, payload any) {
	frame, err := chat.EncodeFrame(event, payload)
	if err != nil {
		c.log.Warn("gateway: encode failed", zap.String("event", event), zap.Error(err))
		return
	}
	select {
	case c.send <- frame:
	default:
		c.log.Warn("gateway: send buffer full, frame dropped", zap.String("user", c.UserID))
	}
}

// sendTo routes a frame to another user through the hub.
func (c *Client) sendTo(userID, event string, payload any) {
	if userID == c.UserID {
		c.emit(event, payload)
		return
	}
	frame, err := chat.EncodeFrame(event, payload)
	if err != nil {
		c.log.Warn("gateway: encode failed", zap.String("event", event), zap.Error(err))
		return
	}
	c.hub.SendToUser(userID, frame)
}
