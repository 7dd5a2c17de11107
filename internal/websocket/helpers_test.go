package websocket

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/require"
)

// fakeConn 实现 interfaces.Connection 和 Transport
type fakeConn struct {
	id     string
	userID string

	mu         sync.Mutex
	frames     [][]byte
	full       bool
	closeCount int
}

func newFakeConn(id, userID string) *fakeConn {
	return &fakeConn{id: id, userID: userID}
}

func (c *fakeConn) ID() string     { return c.id }
func (c *fakeConn) UserID() string { return c.userID }

func (c *fakeConn) Enqueue(frame []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.full || c.closeCount > 0 {
		return false
	}
	c.frames = append(c.frames, frame)
	return true
}

func (c *fakeConn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeCount++
}

func (c *fakeConn) setFull(full bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.full = full
}

func (c *fakeConn) closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closeCount > 0
}

func (c *fakeConn) received() []map[string]any {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]map[string]any, 0, len(c.frames))
	for _, f := range c.frames {
		var m map[string]any
		if err := json.Unmarshal(f, &m); err == nil {
			out = append(out, m)
		}
	}
	return out
}

// userStatuses 返回收到的 userStatus 帧, 形如 "B:true"
func (c *fakeConn) userStatuses() []string {
	var out []string
	for _, f := range c.received() {
		if f["type"] == FrameUserStatus {
			out = append(out, f["userId"].(string)+":"+boolString(f["isOnline"].(bool)))
		}
	}
	return out
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

type presenceCall struct {
	userID string
	online bool
}

type fakePresenceStore struct {
	mu    sync.Mutex
	calls []presenceCall
	state map[string]bool
	delay time.Duration
}

func newFakePresenceStore() *fakePresenceStore {
	return &fakePresenceStore{state: make(map[string]bool)}
}

func (s *fakePresenceStore) SetOnline(ctx context.Context, userID string, online bool) error {
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, presenceCall{userID: userID, online: online})
	s.state[userID] = online
	return nil
}

func (s *fakePresenceStore) OnlineUserIDs(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []string
	for id, online := range s.state {
		if online {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (s *fakePresenceStore) online(userID string) (bool, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.state[userID]
	return v, ok
}

func newTestGateway(t *testing.T, store *fakePresenceStore) *Gateway {
	t.Helper()
	registry := NewRegistry()
	g := &Gateway{
		registry:   registry,
		dispatcher: NewDispatcher(registry),
		presence:   NewPresenceRecorder(store, registry, time.Second),
		clientOptions: ClientOptions{
			SendBufferSize: 16,
			WriteWait:      time.Second,
			PongWait:       10 * time.Second,
			MaxMessageSize: 4096,
		},
	}
	t.Cleanup(g.presence.Wait)
	return g
}

func authFrame(t *testing.T, userID string) []byte {
	t.Helper()
	data, err := json.Marshal(map[string]any{"type": FrameAuth, "userId": userID})
	require.NoError(t, err)
	return data
}

func typingFrameBytes(t *testing.T, recipientID string, isTyping bool) []byte {
	t.Helper()
	data, err := json.Marshal(map[string]any{"type": FrameTyping, "recipientId": recipientID, "isTyping": isTyping})
	require.NoError(t, err)
	return data
}
