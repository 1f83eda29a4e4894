package chat

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/AliShanawar/sitelink/internal/transport"
)

type fakeEmit struct {
	event   string
	payload any
}

type fakeTransport struct {
	mu     sync.Mutex
	emits  []fakeEmit
	closed bool
}

func (f *fakeTransport) Emit(event string, payload any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.emits = append(f.emits, fakeEmit{event: event, payload: payload})
	return nil
}

func (f *fakeTransport) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeTransport) emitted(event string) []fakeEmit {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []fakeEmit
	for _, e := range f.emits {
		if e.event == event {
			out = append(out, e)
		}
	}
	return out
}

func (f *fakeTransport) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// fakeDial records every dial and exposes the handler so tests can inject
// gateway events.
type fakeDial struct {
	mu      sync.Mutex
	dials   int
	last    *fakeTransport
	handler transport.Handler
}

func (d *fakeDial) dialer() transport.Dialer {
	return func(url string, h transport.Handler) (transport.Transport, error) {
		d.mu.Lock()
		defer d.mu.Unlock()
		d.dials++
		d.last = &fakeTransport{}
		d.handler = h
		return d.last, nil
	}
}

func (d *fakeDial) push(event, payload string) {
	d.mu.Lock()
	h := d.handler
	d.mu.Unlock()
	var data json.RawMessage
	if payload != "" {
		data = json.RawMessage(payload)
	}
	h(event, data)
}

func (d *fakeDial) dialCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dials
}

func (d *fakeDial) transport() *fakeTransport {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.last
}

func newConnectedSession(t *testing.T, userID string) (*Session, *fakeDial) {
	t.Helper()
	dial := &fakeDial{}
	s := NewSession("ws://test/ws", dial.dialer(), nil)
	if err := s.Connect(userID); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	dial.push(transport.EventConnect, "")
	if !s.IsConnected() {
		t.Fatal("expected connected after connect event")
	}
	return s, dial
}

func TestConnectIdempotentForSameUser(t *testing.T) {
	s, dial := newConnectedSession(t, "u1")

	if err := s.Connect("u1"); err != nil {
		t.Fatalf("second Connect: %v", err)
	}
	if got := dial.dialCount(); got != 1 {
		t.Fatalf("dial count = %d, want 1", got)
	}
	if s.UserID() != "u1" {
		t.Fatalf("user id = %q, want u1", s.UserID())
	}
}

func TestConnectAsDifferentUserReplacesTransport(t *testing.T) {
	s, dial := newConnectedSession(t, "u1")
	first := dial.transport()

	if err := s.Connect("u2"); err != nil {
		t.Fatalf("Connect u2: %v", err)
	}
	if got := dial.dialCount(); got != 2 {
		t.Fatalf("dial count = %d, want 2", got)
	}
	if !first.isClosed() {
		t.Fatal("previous transport was not closed")
	}
	if s.UserID() != "u2" {
		t.Fatalf("user id = %q, want u2", s.UserID())
	}
}

func TestConnectAnnouncesPresence(t *testing.T) {
	s, dial := newConnectedSession(t, "u1")
	defer s.Disconnect()

	setups := dial.transport().emitted(EventSetup)
	if len(setups) != 1 {
		t.Fatalf("setup emits = %d, want 1", len(setups))
	}
	p, ok := setups[0].payload.(SetupPayload)
	if !ok || p.UserID != "u1" {
		t.Fatalf("setup payload = %#v, want user u1", setups[0].payload)
	}
}

func TestFetchChatsReplacesList(t *testing.T) {
	s, dial := newConnectedSession(t, "u1")

	s.FetchChats()
	if !s.LoadingChats() {
		t.Fatal("expected loadingChats after FetchChats")
	}
	if got := len(dial.transport().emitted(EventFetchAllChats)); got != 1 {
		t.Fatalf("fetch_all_chats emits = %d, want 1", got)
	}

	dial.push(EventAllChats, `[
		{"_id":"c1","isGroup":false,"participants":[{"_id":"u1"},{"_id":"u2"}],"unreadCount":2},
		{"_id":"c2","isGroup":true,"name":"Site A crew","participants":[{"_id":"u1"},{"_id":"u3"}]}
	]`)

	chats := s.Chats()
	if len(chats) != 2 || chats[0].ID != "c1" || chats[1].ID != "c2" {
		t.Fatalf("chats = %#v, want c1 then c2", chats)
	}
	if chats[0].Unread != 2 {
		t.Fatalf("unread = %d, want 2", chats[0].Unread)
	}
	if !chats[1].IsGroup || chats[1].Name != "Site A crew" {
		t.Fatalf("group chat not preserved: %#v", chats[1])
	}
	if s.LoadingChats() {
		t.Fatal("loadingChats still set after all_chats")
	}
}

func TestAllChatsLastWriteWins(t *testing.T) {
	s, dial := newConnectedSession(t, "u1")

	dial.push(EventAllChats, `[{"_id":"c1","participants":[]}]`)
	dial.push(EventAllChats, `[{"_id":"c9","participants":[]}]`)

	chats := s.Chats()
	if len(chats) != 1 || chats[0].ID != "c9" {
		t.Fatalf("chats = %#v, want the last-arrived list", chats)
	}
}

func TestFetchChatsWhileDisconnectedIsNoop(t *testing.T) {
	dial := &fakeDial{}
	s := NewSession("ws://test/ws", dial.dialer(), nil)

	s.FetchChats()
	if s.LoadingChats() {
		t.Fatal("loadingChats set while disconnected")
	}
	if dial.dialCount() != 0 {
		t.Fatal("unexpected dial")
	}
}

func TestChatHistoryNormalizesAndActivates(t *testing.T) {
	s, dial := newConnectedSession(t, "u1")

	s.OpenChat("u2", 0, 0)
	fetches := dial.transport().emitted(EventFetchChat)
	if len(fetches) != 1 {
		t.Fatalf("fetch_chat emits = %d, want 1", len(fetches))
	}
	p := fetches[0].payload.(FetchChatPayload)
	if p.SenderID != "u1" || p.ReceiverID != "u2" || p.Page != 1 || p.Limit != 20 {
		t.Fatalf("fetch_chat payload = %#v, want defaults page=1 limit=20", p)
	}
	if !s.LoadingMessages() {
		t.Fatal("expected loadingMessages after OpenChat")
	}

	dial.push(EventChatHistory, `{
		"chat": {"_id":"c1"},
		"messages": [
			{"_id":"m1","chat":"c1","sender":{"_id":"u2"},"content":"hi","type":"text","status":"sent","createdAt":"2024-05-01T10:00:00Z"}
		]
	}`)

	if got := s.ActiveChatID(); got != "c1" {
		t.Fatalf("active chat = %q, want c1", got)
	}
	msgs := s.Messages("c1")
	if len(msgs) != 1 || msgs[0].ID != "m1" || msgs[0].ChatID != "c1" || msgs[0].Content != "hi" {
		t.Fatalf("messages = %#v", msgs)
	}
	if s.LoadingMessages() {
		t.Fatal("loadingMessages still set after chat_history")
	}
}

func TestChatHistoryClearsPriorError(t *testing.T) {
	s, dial := newConnectedSession(t, "u1")

	dial.push(EventChatError, `{"message":"boom"}`)
	if s.LastError() != "boom" {
		t.Fatalf("error = %q, want boom", s.LastError())
	}

	dial.push(EventChatHistory, `{"chat":"c1","messages":[]}`)
	if s.LastError() != "" {
		t.Fatalf("error = %q, want cleared", s.LastError())
	}
}

func TestUpsertAppendsThenReplacesByID(t *testing.T) {
	s, dial := newConnectedSession(t, "u1")

	dial.push(EventReceiveMessage, `{"_id":"m1","chat":"c1","sender":{"_id":"u2"},"content":"one","createdAt":"2024-05-01T10:00:00Z"}`)
	dial.push(EventReceiveMessage, `{"_id":"m2","chat":"c1","sender":{"_id":"u2"},"content":"two","createdAt":"2024-05-01T10:00:01Z"}`)
	dial.push(EventMessageSent, `{"_id":"m1","chat":"c1","sender":{"_id":"u2"},"content":"one edited","createdAt":"2024-05-01T10:00:00Z"}`)

	msgs := s.Messages("c1")
	if len(msgs) != 2 {
		t.Fatalf("len = %d, want 2 (replace in place, not append)", len(msgs))
	}
	if msgs[0].ID != "m1" || msgs[0].Content != "one edited" {
		t.Fatalf("msgs[0] = %#v, want m1 replaced in place", msgs[0])
	}
	if msgs[1].ID != "m2" {
		t.Fatalf("msgs[1] = %#v, want m2 still second", msgs[1])
	}
}

func TestIncomingMessageUpdatesInactiveChatSummary(t *testing.T) {
	s, dial := newConnectedSession(t, "u1")

	dial.push(EventAllChats, `[{"_id":"c1","participants":[]},{"_id":"c2","participants":[]}]`)
	s.SetActiveChat("c2")

	dial.push(EventReceiveMessage, `{"_id":"m9","chat":"c1","sender":{"_id":"u2"},"content":"news","createdAt":"2024-05-01T12:00:00Z"}`)

	c, ok := s.Chat("c1")
	if !ok {
		t.Fatal("chat c1 missing")
	}
	if c.LastMessage == nil || c.LastMessage.ID != "m9" {
		t.Fatalf("lastMessage = %#v, want m9 even though c1 is not active", c.LastMessage)
	}
	if c.UpdatedAt.IsZero() {
		t.Fatal("updatedAt not refreshed")
	}
	if got := s.ActiveChatID(); got != "c2" {
		t.Fatalf("active chat = %q, want unchanged c2", got)
	}
}

func TestMessageWithEmbeddedChatObjectNormalizes(t *testing.T) {
	s, dial := newConnectedSession(t, "u1")

	dial.push(EventReceiveMessage, `{"_id":"m1","chat":{"_id":"c1","isGroup":false},"sender":{"_id":"u2"},"content":"hello","createdAt":"2024-05-01T10:00:00Z"}`)

	if msgs := s.Messages("c1"); len(msgs) != 1 || msgs[0].ChatID != "c1" {
		t.Fatalf("messages under c1 = %#v, want normalized chat id", msgs)
	}
}

func TestSeenPatchesStatusOnly(t *testing.T) {
	s, dial := newConnectedSession(t, "u1")

	dial.push(EventReceiveMessage, `{"_id":"m1","chat":"c1","sender":{"_id":"u2"},"content":"hi","type":"text","status":"sent","createdAt":"2024-05-01T10:00:00Z"}`)
	dial.push(EventMessageSeen, `{"_id":"m1","chat":"c1","sender":{"_id":"zzz"},"content":"tampered","status":"seen"}`)

	msgs := s.Messages("c1")
	if len(msgs) != 1 {
		t.Fatalf("len = %d, want 1", len(msgs))
	}
	got := msgs[0]
	if got.Status != "seen" {
		t.Fatalf("status = %q, want seen", got.Status)
	}
	if got.Content != "hi" || got.Sender.ID != "u2" || got.CreatedAt.IsZero() {
		t.Fatalf("seen patch touched more than status: %#v", got)
	}
}

func TestDeletedReplacesWholesale(t *testing.T) {
	s, dial := newConnectedSession(t, "u1")

	dial.push(EventReceiveMessage, `{"_id":"m1","chat":"c1","sender":{"_id":"u2"},"content":"hi","status":"sent","createdAt":"2024-05-01T10:00:00Z"}`)
	dial.push(EventReceiveMessage, `{"_id":"m2","chat":"c1","sender":{"_id":"u2"},"content":"bye","status":"sent","createdAt":"2024-05-01T10:00:01Z"}`)
	dial.push(EventMessageDeleted, `{"_id":"m1","chat":"c1","sender":{"_id":"u2"},"content":"","status":"deleted","createdAt":"2024-05-01T10:00:00Z"}`)

	msgs := s.Messages("c1")
	if len(msgs) != 2 {
		t.Fatalf("len = %d, deleted messages must stay in the sequence", len(msgs))
	}
	if msgs[0].Status != "deleted" || msgs[0].Content != "" {
		t.Fatalf("msgs[0] = %#v, want wholesale deleted replacement", msgs[0])
	}
	if msgs[1].ID != "m2" {
		t.Fatal("delete reordered the sequence")
	}
}

func TestSendMessageGuards(t *testing.T) {
	s, dial := newConnectedSession(t, "u1")
	tr := dial.transport()

	s.SendMessage("u2", "   ", "")
	if got := len(tr.emitted(EventSendMessage)); got != 0 {
		t.Fatalf("whitespace-only content emitted %d frames, want 0", got)
	}

	s.SendMessage("", "hello", "")
	if got := len(tr.emitted(EventSendMessage)); got != 0 {
		t.Fatalf("empty receiver emitted %d frames, want 0", got)
	}

	s.SendMessage("u2", "hello", "")
	sends := tr.emitted(EventSendMessage)
	if len(sends) != 1 {
		t.Fatalf("send emits = %d, want 1", len(sends))
	}
	p := sends[0].payload.(SendMessagePayload)
	if p.SenderID != "u1" || p.ReceiverID != "u2" || p.Content != "hello" || p.Type != "text" {
		t.Fatalf("send payload = %#v", p)
	}
}

func TestTypingPresenceIsASet(t *testing.T) {
	s, dial := newConnectedSession(t, "u1")

	dial.push(EventUserTyping, `{"senderId":"u2"}`)
	if !s.IsTyping("u2") {
		t.Fatal("u2 should be typing")
	}
	if peers := s.TypingPeers(); len(peers) != 1 || peers[0] != "u2" {
		t.Fatalf("typing peers = %v", peers)
	}

	// No local expiry: presence holds until the peer says otherwise.
	if !s.IsTyping("u2") {
		t.Fatal("typing presence must not expire locally")
	}

	dial.push(EventUserStopTyping, `{"senderId":"u2"}`)
	if s.IsTyping("u2") {
		t.Fatal("u2 should not be typing after stop")
	}
	if peers := s.TypingPeers(); len(peers) != 0 {
		t.Fatalf("typing peers = %v, want empty (entry removed, not false)", peers)
	}
}

func TestTypingCommandsEmitKeyedPayloads(t *testing.T) {
	s, dial := newConnectedSession(t, "u1")
	tr := dial.transport()

	s.StartTyping("u2")
	s.StopTyping("u2")

	starts := tr.emitted(EventTyping)
	stops := tr.emitted(EventStopTyping)
	if len(starts) != 1 || len(stops) != 1 {
		t.Fatalf("typing emits = %d/%d, want 1/1", len(starts), len(stops))
	}
	p := starts[0].payload.(TypingPayload)
	if p.SenderID != "u1" || p.ReceiverID != "u2" {
		t.Fatalf("typing payload = %#v", p)
	}
}

func TestChatFoundOrCreatedPrependsOnce(t *testing.T) {
	s, dial := newConnectedSession(t, "u1")

	dial.push(EventAllChats, `[{"_id":"c1","participants":[]}]`)
	dial.push(EventChatFoundOrCreated, `{"_id":"c2","participants":[{"_id":"u1"},{"_id":"u9"}]}`)

	chats := s.Chats()
	if len(chats) != 2 || chats[0].ID != "c2" || chats[1].ID != "c1" {
		t.Fatalf("chats = %#v, want c2 prepended", chats)
	}
	if s.ActiveChatID() != "c2" {
		t.Fatalf("active chat = %q, want c2", s.ActiveChatID())
	}

	// Already-known conversation: no duplicate, no reorder, no reactivation.
	s.SetActiveChat("c1")
	dial.push(EventChatFoundOrCreated, `{"_id":"c2","participants":[]}`)
	chats = s.Chats()
	if len(chats) != 2 || chats[0].ID != "c2" || chats[1].ID != "c1" {
		t.Fatalf("chats after duplicate = %#v", chats)
	}
	if s.ActiveChatID() != "c1" {
		t.Fatalf("active chat = %q, duplicate event must be a no-op", s.ActiveChatID())
	}
}

func TestChatErrorClearsOnlyMessageLoading(t *testing.T) {
	s, dial := newConnectedSession(t, "u1")

	s.FetchChats()
	s.OpenChat("u2", 1, 20)
	dial.push(EventChatError, `{"message":"history unavailable"}`)

	if s.LastError() != "history unavailable" {
		t.Fatalf("error = %q", s.LastError())
	}
	if s.LoadingMessages() {
		t.Fatal("loadingMessages must clear on chat_error")
	}
	if !s.LoadingChats() {
		t.Fatal("loadingChats must survive chat_error; the failure domains are independent")
	}

	// A later error overwrites the slot.
	dial.push(EventChatError, `{"message":"second"}`)
	if s.LastError() != "second" {
		t.Fatalf("error = %q, want second", s.LastError())
	}
}

func TestDisconnectRetainsHistory(t *testing.T) {
	s, dial := newConnectedSession(t, "u1")

	dial.push(EventAllChats, `[{"_id":"c1","participants":[]}]`)
	dial.push(EventChatHistory, `{"chat":"c1","messages":[{"_id":"m1","chat":"c1","sender":{"_id":"u2"},"content":"hi","createdAt":"2024-05-01T10:00:00Z"}]}`)
	dial.push(EventUserTyping, `{"senderId":"u2"}`)
	tr := dial.transport()

	s.Disconnect()

	if s.IsConnected() {
		t.Fatal("still connected")
	}
	if !tr.isClosed() {
		t.Fatal("transport not closed")
	}
	if s.UserID() != "" {
		t.Fatalf("user id = %q, want cleared", s.UserID())
	}
	if s.ActiveChatID() != "" {
		t.Fatal("active chat not cleared")
	}
	if len(s.TypingPeers()) != 0 {
		t.Fatal("typing presence not cleared")
	}
	if len(s.Chats()) != 1 {
		t.Fatal("conversation list must survive disconnect")
	}
	if len(s.Messages("c1")) != 1 {
		t.Fatal("message history must survive disconnect")
	}
}

func TestTransportDropRetainsState(t *testing.T) {
	s, dial := newConnectedSession(t, "u1")

	dial.push(EventAllChats, `[{"_id":"c1","participants":[]}]`)
	dial.push(transport.EventDisconnect, "")

	if s.IsConnected() {
		t.Fatal("connected flag should drop")
	}
	if len(s.Chats()) != 1 {
		t.Fatal("a transport drop must not blank loaded conversations")
	}
	if s.UserID() != "u1" {
		t.Fatal("user id should survive a transport drop")
	}
}

func TestStaleTransportEventsAreFenced(t *testing.T) {
	s, dial := newConnectedSession(t, "u1")
	old := dial

	s.Disconnect()
	old.push(EventAllChats, `[{"_id":"ghost","participants":[]}]`)

	if len(s.Chats()) != 0 {
		t.Fatal("event from a replaced transport mutated the session")
	}

	old.push(transport.EventConnect, "")
	if s.IsConnected() {
		t.Fatal("stale connect event flipped the connected flag")
	}
}

func TestCommandsAfterDisconnectAreSilentlyDropped(t *testing.T) {
	s, dial := newConnectedSession(t, "u1")
	tr := dial.transport()
	s.Disconnect()

	s.SendMessage("u2", "hello", "")
	s.FetchChats()
	s.OpenChat("u2", 1, 20)
	s.StartTyping("u2")
	s.MarkSeen("m1")
	s.DeleteMessage("m1")

	for _, ev := range []string{EventSendMessage, EventFetchAllChats, EventFetchChat, EventTyping, EventMarkSeen, EventDeleteMessage} {
		if got := len(tr.emitted(ev)); got != 0 {
			t.Fatalf("%s emitted %d frames after disconnect, want 0", ev, got)
		}
	}
}

func TestSnapshotsAreCopies(t *testing.T) {
	s, dial := newConnectedSession(t, "u1")

	dial.push(EventAllChats, `[{"_id":"c1","participants":[{"_id":"u2"}]}]`)
	dial.push(EventReceiveMessage, `{"_id":"m1","chat":"c1","sender":{"_id":"u2"},"content":"hi","createdAt":"2024-05-01T10:00:00Z"}`)

	chats := s.Chats()
	chats[0].ID = "mutated"
	chats[0].Participants[0].ID = "mutated"
	chats[0].LastMessage.Content = "mutated"

	fresh := s.Chats()
	if fresh[0].ID != "c1" || fresh[0].Participants[0].ID != "u2" || fresh[0].LastMessage.Content != "hi" {
		t.Fatal("mutating a snapshot leaked into session state")
	}

	msgs := s.Messages("c1")
	msgs[0].Content = "mutated"
	if s.Messages("c1")[0].Content != "hi" {
		t.Fatal("mutating a message snapshot leaked into session state")
	}
}
