package chat

import (
	"encoding/json"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/AliShanawar/sitelink/internal/models"
	"github.com/AliShanawar/sitelink/internal/transport"
)

const (
	defaultPage  = 1
	defaultLimit = 20
)

// Session owns one live transport connection per signed-in user and keeps a
// consistent view of conversations, message history, typing presence and
// read receipts, whatever order transport events arrive in relative to
// commands.
//
// Commands are fire-and-forget: they emit to the transport and return, and
// results land later as events. A command issued while disconnected or with
// invalid input is silently dropped; the UI gates on IsConnected and the
// loading flags instead of catching errors.
//
// There is no request correlation: the most recent list or history response
// to arrive wins, even if responses were reordered. The gateway delivers at
// most one outstanding response per query kind, so this matches its
// guarantees.
type Session struct {
	url  string
	dial transport.Dialer
	log  *zap.Logger

	mu  sync.Mutex
	gen int
	tr  transport.Transport

	connected       bool
	userID          string
	chats           []models.Chat
	messages        map[string][]models.Message
	activeChatID    string
	typing          map[string]struct{}
	loadingChats    bool
	loadingMessages bool
	lastError       string
}

// NewSession builds a disconnected session. url is the websocket endpoint,
// including any authentication query parameters.
func NewSession(url string, dial transport.Dialer, log *zap.Logger) *Session {
	if log == nil {
		log = zap.NewNop()
	}
	return &Session{
		url:      url,
		dial:     dial,
		log:      log,
		messages: make(map[string][]models.Message),
		typing:   make(map[string]struct{}),
	}
}

// Connect opens the transport for userID. Calling it again for the same
// user while a transport is open is a no-op; connecting as a different user
// closes the previous transport first. The connected flag flips on the
// transport's own lifecycle events, not here.
func (s *Session) Connect(userID string) error {
	s.mu.Lock()
	if s.tr != nil && s.userID == userID {
		s.mu.Unlock()
		return nil
	}
	old := s.tr
	s.tr = nil
	s.connected = false
	s.userID = userID
	s.gen++
	gen := s.gen
	s.mu.Unlock()

	if old != nil {
		_ = old.Close()
	}

	tr, err := s.dial(s.url, func(event string, data json.RawMessage) {
		s.handleEvent(gen, event, data)
	})
	if err != nil {
		s.log.Warn("chat: dial failed", zap.String("user", userID), zap.Error(err))
		return err
	}

	s.mu.Lock()
	if s.gen != gen {
		// Disconnect or a newer Connect raced us; this transport lost.
		s.mu.Unlock()
		_ = tr.Close()
		return nil
	}
	s.tr = tr
	s.mu.Unlock()

	if err := tr.Emit(EventSetup, SetupPayload{UserID: userID}); err != nil {
		s.log.Warn("chat: setup emit failed", zap.Error(err))
	}
	return nil
}

// Disconnect closes the transport and clears the connected flag, user id,
// active conversation and typing presence. Conversations and message
// history are retained so a later Connect resumes with a populated view.
func (s *Session) Disconnect() {
	s.mu.Lock()
	tr := s.tr
	s.tr = nil
	s.gen++
	s.connected = false
	s.userID = ""
	s.activeChatID = ""
	s.typing = make(map[string]struct{})
	s.mu.Unlock()

	if tr != nil {
		_ = tr.Close()
	}
}

// FetchChats requests the full conversation list. The response replaces the
// stored list wholesale.
func (s *Session) FetchChats() {
	s.mu.Lock()
	if !s.connected || s.tr == nil {
		s.mu.Unlock()
		return
	}
	s.loadingChats = true
	tr, userID := s.tr, s.userID
	s.mu.Unlock()

	s.emit(tr, EventFetchAllChats, FetchAllChatsPayload{UserID: userID})
}

// OpenChat requests message history for the 1:1 counterpart receiverID.
// Non-positive page and limit fall back to 1 and 20.
func (s *Session) OpenChat(receiverID string, page, limit int) {
	s.mu.Lock()
	if !s.connected || s.tr == nil || receiverID == "" {
		s.mu.Unlock()
		return
	}
	if page <= 0 {
		page = defaultPage
	}
	if limit <= 0 {
		limit = defaultLimit
	}
	s.loadingMessages = true
	tr, userID := s.tr, s.userID
	s.mu.Unlock()

	s.emit(tr, EventFetchChat, FetchChatPayload{
		SenderID:   userID,
		ReceiverID: receiverID,
		Page:       page,
		Limit:      limit,
	})
}

// SetActiveChat selects the open conversation locally. An empty id clears
// the selection without touching history. Never emits.
func (s *Session) SetActiveChat(chatID string) {
	s.mu.Lock()
	s.activeChatID = chatID
	s.mu.Unlock()
}

// SendMessage emits a send request. The message is not inserted locally;
// it appears when the gateway echoes it back with its authoritative id and
// timestamp. Whitespace-only content is dropped.
func (s *Session) SendMessage(receiverID, content, kind string) {
	s.mu.Lock()
	if !s.connected || s.tr == nil || s.userID == "" || receiverID == "" ||
		strings.TrimSpace(content) == "" {
		s.mu.Unlock()
		return
	}
	if kind == "" {
		kind = models.MessageText
	}
	tr, userID := s.tr, s.userID
	s.mu.Unlock()

	s.emit(tr, EventSendMessage, SendMessagePayload{
		SenderID:   userID,
		ReceiverID: receiverID,
		Content:    content,
		Type:       kind,
	})
}

// StartTyping signals that the current user began composing to receiverID.
// The session runs no expiry timer; the caller is responsible for the
// debounced StopTyping.
func (s *Session) StartTyping(receiverID string) {
	s.relayTyping(EventTyping, receiverID)
}

// StopTyping signals that composing stopped.
func (s *Session) StopTyping(receiverID string) {
	s.relayTyping(EventStopTyping, receiverID)
}

func (s *Session) relayTyping(event, receiverID string) {
	s.mu.Lock()
	if !s.connected || s.tr == nil || receiverID == "" {
		s.mu.Unlock()
		return
	}
	tr, userID := s.tr, s.userID
	s.mu.Unlock()

	s.emit(tr, event, TypingPayload{SenderID: userID, ReceiverID: receiverID})
}

// MarkSeen acknowledges a message as read.
func (s *Session) MarkSeen(messageID string) {
	s.mu.Lock()
	if !s.connected || s.tr == nil || messageID == "" {
		s.mu.Unlock()
		return
	}
	tr := s.tr
	s.mu.Unlock()

	s.emit(tr, EventMarkSeen, MarkSeenPayload{MessageID: messageID})
}

// DeleteMessage requests deletion of one of the current user's messages.
func (s *Session) DeleteMessage(messageID string) {
	s.mu.Lock()
	if !s.connected || s.tr == nil || s.userID == "" || messageID == "" {
		s.mu.Unlock()
		return
	}
	tr, userID := s.tr, s.userID
	s.mu.Unlock()

	s.emit(tr, EventDeleteMessage, DeleteMessagePayload{MessageID: messageID, SenderID: userID})
}

func (s *Session) emit(tr transport.Transport, event string, payload any) {
	if err := tr.Emit(event, payload); err != nil {
		s.log.Warn("chat: emit failed", zap.String("event", event), zap.Error(err))
	}
}

// handleEvent is the sole translator of transport payloads into session
// state. It never fails upward: a payload that does not decode is logged
// and dropped. gen fences off events from transports that have since been
// replaced by Connect or Disconnect.
func (s *Session) handleEvent(gen int, event string, data json.RawMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return
	}

	switch event {
	case transport.EventConnect:
		s.connected = true

	case transport.EventDisconnect:
		// Loaded conversations stay put so a reconnect does not blank the UI.
		s.connected = false

	case EventAllChats:
		var raw []rawChat
		if !s.decode(event, data, &raw) {
			return
		}
		chats := make([]models.Chat, 0, len(raw))
		for _, c := range raw {
			chats = append(chats, c.normalize())
		}
		s.chats = chats
		s.loadingChats = false

	case EventChatHistory:
		var raw rawHistory
		if !s.decode(event, data, &raw) {
			return
		}
		chatID, msgs := raw.normalize()
		if chatID == "" {
			return
		}
		s.messages[chatID] = msgs
		s.activeChatID = chatID
		s.loadingMessages = false
		s.lastError = ""

	case EventReceiveMessage, EventMessageSent:
		var raw rawMessage
		if !s.decode(event, data, &raw) {
			return
		}
		msg := raw.normalize()
		if msg.ChatID == "" {
			return
		}
		s.upsertMessage(msg)

	case EventMessageSeen:
		var raw rawMessage
		if !s.decode(event, data, &raw) {
			return
		}
		msg := raw.normalize()
		seq := s.messages[msg.ChatID]
		for i := range seq {
			if seq[i].ID == msg.ID {
				// Field-level patch: only the delivery state moves.
				seq[i].Status = msg.Status
				break
			}
		}

	case EventMessageDeleted:
		var raw rawMessage
		if !s.decode(event, data, &raw) {
			return
		}
		msg := raw.normalize()
		seq := s.messages[msg.ChatID]
		for i := range seq {
			if seq[i].ID == msg.ID {
				seq[i] = msg
				break
			}
		}

	case EventUserTyping:
		var p TypingEvent
		if !s.decode(event, data, &p) {
			return
		}
		if p.SenderID != "" {
			s.typing[p.SenderID] = struct{}{}
		}

	case EventUserStopTyping:
		var p TypingEvent
		if !s.decode(event, data, &p) {
			return
		}
		// The entry is removed, not set false, so stale peers never pile up.
		delete(s.typing, p.SenderID)

	case EventChatFoundOrCreated:
		var raw rawChat
		if !s.decode(event, data, &raw) {
			return
		}
		c := raw.normalize()
		if c.ID == "" {
			return
		}
		for _, known := range s.chats {
			if known.ID == c.ID {
				return
			}
		}
		s.chats = append([]models.Chat{c}, s.chats...)
		s.activeChatID = c.ID

	case EventChatError:
		var p ErrorEvent
		if !s.decode(event, data, &p) {
			return
		}
		msg := p.Message
		if msg == "" {
			msg = "chat error"
		}
		s.lastError = msg
		// History fetches and list fetches fail independently; only the
		// message-loading flag is cleared here.
		s.loadingMessages = false

	default:
		s.log.Debug("chat: unhandled event", zap.String("event", event))
	}
}

func (s *Session) decode(event string, data json.RawMessage, out any) bool {
	if err := json.Unmarshal(data, out); err != nil {
		s.log.Warn("chat: bad payload", zap.String("event", event), zap.Error(err))
		return false
	}
	return true
}

// upsertMessage appends a new message to its conversation's sequence or,
// when the id is already present, replaces it in place so ordering holds.
// The parent summary's last message and timestamp follow the newest
// observed message whether or not that conversation is active.
func (s *Session) upsertMessage(msg models.Message) {
	seq := s.messages[msg.ChatID]
	replaced := false
	for i := range seq {
		if seq[i].ID == msg.ID {
			seq[i] = msg
			replaced = true
			break
		}
	}
	if !replaced {
		s.messages[msg.ChatID] = append(seq, msg)
	}

	for i := range s.chats {
		if s.chats[i].ID == msg.ChatID {
			last := msg
			s.chats[i].LastMessage = &last
			s.chats[i].UpdatedAt = msg.CreatedAt
			break
		}
	}
}

// Snapshot accessors. Everything returned is a copy; callers never see the
// session's live maps.

func (s *Session) IsConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

func (s *Session) UserID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID
}

func (s *Session) ActiveChatID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeChatID
}

func (s *Session) LoadingChats() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadingChats
}

func (s *Session) LoadingMessages() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadingMessages
}

func (s *Session) LastError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastError
}

// Chats returns the conversation list in stored order.
func (s *Session) Chats() []models.Chat {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Chat, len(s.chats))
	for i, c := range s.chats {
		out[i] = cloneChat(c)
	}
	return out
}

// Chat returns one conversation summary by id.
func (s *Session) Chat(chatID string) (models.Chat, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.chats {
		if c.ID == chatID {
			return cloneChat(c), true
		}
	}
	return models.Chat{}, false
}

// Messages returns the stored message sequence for a conversation.
func (s *Session) Messages(chatID string) []models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	seq := s.messages[chatID]
	out := make([]models.Message, len(seq))
	copy(out, seq)
	return out
}

// IsTyping reports whether the peer is currently marked as composing.
// Absence means not typing.
func (s *Session) IsTyping(peerID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.typing[peerID]
	return ok
}

// TypingPeers lists peers currently marked as composing, sorted for stable
// rendering.
func (s *Session) TypingPeers() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.typing))
	for id := range s.typing {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func cloneChat(c models.Chat) models.Chat {
	out := c
	out.Participants = append([]models.Participant(nil), c.Participants...)
	if c.LastMessage != nil {
		last := *c.LastMessage
		out.LastMessage = &last
	}
	return out
}
