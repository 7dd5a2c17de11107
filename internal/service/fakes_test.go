package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go-chat-presence/internal/event"
	"go-chat-presence/internal/model"
)

type fakeDispatcher struct {
	mu     sync.Mutex
	events []event.Event
}

func (d *fakeDispatcher) Dispatch(ev event.Event) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, ev)
	return 1
}

func (d *fakeDispatcher) dispatched() []event.Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]event.Event(nil), d.events...)
}

type fakeUserStore struct {
	mu      sync.Mutex
	users   map[string]*model.User
	upserts int
}

func newFakeUserStore(users ...*model.User) *fakeUserStore {
	s := &fakeUserStore{users: make(map[string]*model.User)}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

func (s *fakeUserStore) Upsert(user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upserts++
	if existing, ok := s.users[user.ID]; ok {
		existing.Email = user.Email
		existing.FirstName = user.FirstName
		existing.LastName = user.LastName
		existing.ProfileImageURL = user.ProfileImageURL
		return nil
	}
	copied := *user
	s.users[user.ID] = &copied
	return nil
}

func (s *fakeUserStore) FindByID(id string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	copied := *u
	return &copied, nil
}

func (s *fakeUserStore) FindAll() ([]model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *fakeUserStore) FindByIDs(ids []string) ([]model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.User
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			out = append(out, *u)
		}
	}
	return out, nil
}

type fakeMessageStore struct {
	mu       sync.Mutex
	seq      int
	messages []*model.Message
	users    *fakeUserStore
}

func (s *fakeMessageStore) Create(message *model.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	if message.ID == "" {
		message.ID = fmt.Sprintf("m%d", s.seq)
	}
	message.CreatedAt = time.Now()
	s.messages = append(s.messages, message)
	return nil
}

func (s *fakeMessageStore) FindByID(id string) (*model.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.messages {
		if m.ID == id {
			copied := *m
			if s.users != nil {
				copied.Sender, _ = s.users.FindByID(m.SenderID)
			}
			return &copied, nil
		}
	}
	return nil, nil
}

func (s *fakeMessageStore) filter(keep func(m *model.Message) bool) []model.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Message
	for _, m := range s.messages {
		if keep(m) {
			out = append(out, *m)
		}
	}
	return out
}

func recipientOf(m *model.Message) string {
	if m.RecipientID == nil {
		return ""
	}
	return *m.RecipientID
}

func (s *fakeMessageStore) FindDirectBetween(a, b string) ([]model.Message, error) {
	return s.filter(func(m *model.Message) bool {
		r := recipientOf(m)
		return !m.IsBroadcast() && ((m.SenderID == a && r == b) || (m.SenderID == b && r == a))
	}), nil
}

func (s *fakeMessageStore) FindVisibleTo(userID string) ([]model.Message, error) {
	return s.filter(func(m *model.Message) bool {
		return m.IsBroadcast() || m.SenderID == userID || recipientOf(m) == userID
	}), nil
}

func (s *fakeMessageStore) FindBroadcasts() ([]model.Message, error) {
	return s.filter(func(m *model.Message) bool { return m.IsBroadcast() }), nil
}

func (s *fakeMessageStore) MarkRead(messageID, recipientID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.messages {
		if m.ID == messageID && recipientOf(m) == recipientID {
			m.IsRead = true
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeMessageStore) CountUnread(userID string) (int64, error) {
	return int64(len(s.filter(func(m *model.Message) bool {
		return recipientOf(m) == userID && !m.IsRead
	}))), nil
}

type fakePresenceStore struct {
	mu     sync.Mutex
	online map[string]bool
	err    error
}

func newFakePresenceStore(online ...string) *fakePresenceStore {
	s := &fakePresenceStore{online: make(map[string]bool)}
	for _, id := range online {
		s.online[id] = true
	}
	return s
}

func (s *fakePresenceStore) SetOnline(ctx context.Context, userID string, online bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.online[userID] = online
	return nil
}

func (s *fakePresenceStore) OnlineUserIDs(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	var ids []string
	for id, ok := range s.online {
		if ok {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *fakePresenceStore) isOnline(userID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.online[userID]
}

func (s *fakeMessageStore) LastDirectBetween(a, b string) (*model.Message, error) {
	direct, _ := s.FindDirectBetween(a, b)
	if len(direct) == 0 {
		return nil, nil
	}
	last := direct[len(direct)-1]
	return &last, nil
}

func (s *fakeMessageStore) CountUnreadFrom(recipientID, senderID string) (int64, error) {
	return int64(len(s.filter(func(m *model.Message) bool {
		return recipientOf(m) == recipientID && m.SenderID == senderID && !m.IsRead
	}))), nil
}

type fakeChatRoomStore struct {
	mu      sync.Mutex
	users   *fakeUserStore
	rooms   map[string]*model.ChatRoom
	order   []string
	creates int
}

func newFakeChatRoomStore(users *fakeUserStore) *fakeChatRoomStore {
	return &fakeChatRoomStore{users: users, rooms: make(map[string]*model.ChatRoom)}
}

func (s *fakeChatRoomStore) GetOrCreateDirect(userID, otherUserID string) (*model.ChatRoom, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := model.DirectRoomKey(userID, otherUserID)
	if room, ok := s.rooms[key]; ok {
		return room, nil
	}
	s.creates++
	room := &model.ChatRoom{ID: fmt.Sprintf("room%d", s.creates), CreatedBy: userID, DirectKey: &key}
	for _, id := range []string{userID, otherUserID} {
		p := model.ChatParticipant{ChatRoomID: room.ID, UserID: id}
		p.User, _ = s.users.FindByID(id)
		room.Participants = append(room.Participants, p)
	}
	s.rooms[key] = room
	s.order = append(s.order, key)
	return room, nil
}

func (s *fakeChatRoomStore) FindForUser(userID string) ([]model.ChatRoom, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.ChatRoom
	for i := len(s.order) - 1; i >= 0; i-- {
		room := s.rooms[s.order[i]]
		for _, p := range room.Participants {
			if p.UserID == userID {
				out = append(out, *room)
				break
			}
		}
	}
	return out, nil
}
