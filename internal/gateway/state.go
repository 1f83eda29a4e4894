package gateway

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/AliShanawar/sitelink/internal/models"
)

var (
	ErrEmailTaken   = errors.New("gateway: email already registered")
	ErrUnknownUser  = errors.New("gateway: unknown user")
	ErrNotSender    = errors.New("gateway: only the sender may delete a message")
	ErrNoSuchThread = errors.New("gateway: unknown chat")
)

// thread is one conversation with its full message sequence and per-user
// unread counters.
type thread struct {
	chat     models.Chat
	messages []models.Message
	unread   map[string]int
}

// State is the gateway's in-memory data set: users, threads and a message
// index. It owns all mutation; connections only read snapshots out of it.
type State struct {
	mu       sync.Mutex
	users    map[string]models.User // id -> user, Password holds the bcrypt hash
	byEmail  map[string]string
	threads  map[string]*thread
	msgIndex map[string]string // message id -> chat id
}

func NewState() *State {
	return &State{
		users:    make(map[string]models.User),
		byEmail:  make(map[string]string),
		threads:  make(map[string]*thread),
		msgIndex: make(map[string]string),
	}
}

func (s *State) CreateUser(name, email, passwordHash string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.byEmail[email]; taken {
		return models.User{}, ErrEmailTaken
	}
	user := models.User{
		ID:        uuid.NewString(),
		Name:      name,
		Email:     email,
		Password:  passwordHash,
		CreatedAt: time.Now().UTC(),
	}
	s.users[user.ID] = user
	s.byEmail[email] = user.ID
	return user, nil
}

func (s *State) UserByEmail(email string) (models.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byEmail[email]
	if !ok {
		return models.User{}, false
	}
	return s.users[id], true
}

func (s *State) UserByID(id string) (models.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	return u, ok
}

// FindOrCreateDirect returns the 1:1 thread between two users, creating it
// when none exists yet.
func (s *State) FindOrCreateDirect(aID, bID string) (models.Chat, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findOrCreateDirectLocked(aID, bID)
}

func (s *State) findOrCreateDirectLocked(aID, bID string) (models.Chat, bool, error) {
	a, okA := s.users[aID]
	b, okB := s.users[bID]
	if !okA || !okB {
		return models.Chat{}, false, ErrUnknownUser
	}

	for _, t := range s.threads {
		if !t.chat.IsGroup && t.chat.HasParticipant(aID) && t.chat.HasParticipant(bID) {
			return cloneChat(t.chat), false, nil
		}
	}

	chat := models.Chat{
		ID:           uuid.NewString(),
		IsGroup:      false,
		Participants: []models.Participant{a.Participant(), b.Participant()},
		UpdatedAt:    time.Now().UTC(),
	}
	s.threads[chat.ID] = &thread{
		chat:   chat,
		unread: make(map[string]int),
	}
	return cloneChat(chat), true, nil
}

// ChatsFor lists the user's threads, most recently updated first, with the
// unread counter resolved for that user.
func (s *State) ChatsFor(userID string) []models.Chat {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Chat, 0, len(s.threads))
	for _, t := range s.threads {
		if !t.chat.HasParticipant(userID) {
			continue
		}
		c := cloneChat(t.chat)
		c.Unread = t.unread[userID]
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out
}

// History returns one page of a thread's messages in chronological order.
// Page 1 is the most recent page.
func (s *State) History(chatID string, page, limit int) ([]models.Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.threads[chatID]
	if !ok {
		return nil, false
	}
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	end := len(t.messages) - (page-1)*limit
	if end <= 0 {
		return []models.Message{}, true
	}
	start := end - limit
	if start < 0 {
		start = 0
	}
	out := make([]models.Message, end-start)
	copy(out, t.messages[start:end])
	return out, true
}

// AppendDirect stores a new message between two users, creating their
// thread on first contact, and bumps the receiver's unread counter.
func (s *State) AppendDirect(senderID, receiverID, content, kind string) (models.Message, models.Chat, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	chat, created, err := s.findOrCreateDirectLocked(senderID, receiverID)
	if err != nil {
		return models.Message{}, models.Chat{}, false, err
	}
	t := s.threads[chat.ID]

	if kind == "" {
		kind = models.MessageText
	}
	msg := models.Message{
		ID:        uuid.NewString(),
		ChatID:    chat.ID,
		Sender:    s.users[senderID].Participant(),
		Content:   content,
		Kind:      kind,
		Status:    models.StatusSent,
		CreatedAt: time.Now().UTC(),
	}
	t.messages = append(t.messages, msg)
	s.msgIndex[msg.ID] = chat.ID

	last := msg
	t.chat.LastMessage = &last
	t.chat.UpdatedAt = msg.CreatedAt
	t.unread[receiverID]++

	return msg, cloneChat(t.chat), created, nil
}

// MarkSeen flips a message's delivery state to seen and clears the marking
// user's unread counter for that thread.
func (s *State) MarkSeen(messageID, byUserID string) (models.Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	chatID, ok := s.msgIndex[messageID]
	if !ok {
		return models.Message{}, false
	}
	t := s.threads[chatID]
	for i := range t.messages {
		if t.messages[i].ID == messageID {
			now := time.Now().UTC()
			t.messages[i].Status = models.StatusSeen
			t.messages[i].UpdatedAt = &now
			if t.chat.LastMessage != nil && t.chat.LastMessage.ID == messageID {
				t.chat.LastMessage.Status = models.StatusSeen
			}
			t.unread[byUserID] = 0
			return t.messages[i], true
		}
	}
	return models.Message{}, false
}

// Delete marks a message deleted and blanks its content. Only the sender
// may delete; the entry stays in the sequence so ordering holds.
func (s *State) Delete(messageID, requesterID string) (models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	chatID, ok := s.msgIndex[messageID]
	if !ok {
		return models.Message{}, ErrNoSuchThread
	}
	t := s.threads[chatID]
	for i := range t.messages {
		if t.messages[i].ID == messageID {
			if t.messages[i].Sender.ID != requesterID {
				return models.Message{}, ErrNotSender
			}
			now := time.Now().UTC()
			t.messages[i].Status = models.StatusDeleted
			t.messages[i].Content = ""
			t.messages[i].UpdatedAt = &now
			if t.chat.LastMessage != nil && t.chat.LastMessage.ID == messageID {
				last := t.messages[i]
				t.chat.LastMessage = &last
			}
			return t.messages[i], nil
		}
	}
	return models.Message{}, ErrNoSuchThread
}

// Participants lists the member ids of a thread, for event fan-out.
func (s *State) Participants(chatID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.threads[chatID]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(t.chat.Participants))
	for _, p := range t.chat.Participants {
		out = append(out, p.ID)
	}
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
