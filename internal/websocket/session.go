package websocket

import (
	"sync"
	"time"

	"go-chat-presence/internal/event"
	"go-chat-presence/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type SessionState int

const (
	StatePending SessionState = iota
	StateAuthenticated
	StateClosed
)

func (s SessionState) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateAuthenticated:
		return "authenticated"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// Session 是一条连接的状态机: Pending -> Authenticated -> Closed.
// Closed 是终态.
type Session struct {
	id string
	// 握手时从令牌中验证得到的身份
	verifiedUserID string
	transport      Transport
	gateway        *Gateway

	mu        sync.Mutex
	state     SessionState
	userID    string
	authTimer *time.Timer

	// 在线快照发送完之前, 分发过来的帧先暂存, 保证快照排在后续事件之前
	outMu   sync.Mutex
	holding bool
	held    [][]byte
}

func newSession(verifiedUserID string, transport Transport, gateway *Gateway) *Session {
	s := &Session{
		id:             uuid.NewString(),
		verifiedUserID: verifiedUserID,
		transport:      transport,
		gateway:        gateway,
		state:          StatePending,
	}
	if timeout := gateway.authTimeout; timeout > 0 {
		s.authTimer = time.AfterFunc(timeout, s.closeIfPending)
	}
	return s
}

func (s *Session) ID() string {
	return s.id
}

// UserID 认证之前为空
func (s *Session) UserID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID
}

func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Enqueue(frame []byte) bool {
	s.outMu.Lock()
	if s.holding {
		s.held = append(s.held, frame)
		s.outMu.Unlock()
		return true
	}
	s.outMu.Unlock()
	return s.transport.Enqueue(frame)
}

func (s *Session) holdOutbound() {
	s.outMu.Lock()
	s.holding = true
	s.outMu.Unlock()
}

// releaseOutbound 按到达顺序发出暂存的帧, 直到队列为空才恢复直接发送.
// 发送期间新到的帧继续追加到队列尾部.
func (s *Session) releaseOutbound(ok bool) {
	for {
		s.outMu.Lock()
		batch := s.held
		s.held = nil
		if len(batch) == 0 || !ok {
			s.holding = false
			s.outMu.Unlock()
			break
		}
		s.outMu.Unlock()

		for _, frame := range batch {
			if !s.transport.Enqueue(frame) {
				ok = false
				break
			}
		}
	}
	if !ok {
		logger.L.Warn("Send buffer full during presence snapshot, closing connection", zap.String("connID", s.id))
		go s.Close()
	}
}

// HandleFrame 处理一帧客户端数据. 无法解析的帧只记录日志, 不会断开连接.
func (s *Session) HandleFrame(data []byte) {
	frame, err := decodeFrame(data)
	if err != nil {
		logger.L.Warn("Ignoring malformed frame", zap.String("connID", s.id), zap.Error(err))
		return
	}

	switch frame.Type {
	case FrameAuth:
		s.authenticate(frame.UserID)
	case FrameTyping:
		s.typing(frame)
	default:
		logger.L.Debug("Ignoring unknown frame type", zap.String("connID", s.id), zap.String("type", frame.Type))
	}
}

func (s *Session) authenticate(claimedUserID string) {
	s.mu.Lock()
	if s.state != StatePending {
		state := s.state
		s.mu.Unlock()
		logger.L.Debug("Ignoring auth frame", zap.String("connID", s.id), zap.Stringer("state", state))
		return
	}
	userID := s.verifiedUserID
	if userID == "" {
		s.mu.Unlock()
		logger.L.Warn("Ignoring auth frame on connection without verified identity", zap.String("connID", s.id))
		return
	}
	// auth 帧里的 userId 可省略; 如果给出, 必须与令牌中的身份一致
	if claimedUserID != "" && claimedUserID != userID {
		s.mu.Unlock()
		logger.L.Warn("Ignoring auth frame with mismatched identity",
			zap.String("connID", s.id),
			zap.String("verifiedUserID", userID),
			zap.String("claimedUserID", claimedUserID))
		return
	}

	s.state = StateAuthenticated
	s.userID = userID
	if s.authTimer != nil {
		s.authTimer.Stop()
	}
	// 注册之前开始暂存, 注册后分发到本连接的事件都排在快照之后
	s.holdOutbound()
	// 持锁注册, 并发的 Close 只能在注册完成之后注销
	peers := s.gateway.registry.RegisterWithPeers(userID, s)
	s.mu.Unlock()

	logger.L.Info("Connection authenticated", zap.String("userID", userID), zap.String("connID", s.id))

	s.releaseOutbound(s.sendPresenceSnapshot(peers))
	s.gateway.dispatcher.Dispatch(event.PresenceChange{UserID: userID, IsOnline: true})
	s.gateway.presence.Record(userID)
}

// sendPresenceSnapshot 把注册时已经在线的其他用户直接写入传输层, 返回是否全部写入
func (s *Session) sendPresenceSnapshot(peers []string) bool {
	for _, other := range peers {
		frame, err := encodeUserStatus(other, true)
		if err != nil {
			logger.L.Error("Failed to encode user status", zap.Error(err))
			continue
		}
		if !s.transport.Enqueue(frame) {
			return false
		}
	}
	return true
}

func (s *Session) typing(frame inboundFrame) {
	s.mu.Lock()
	state, userID := s.state, s.userID
	s.mu.Unlock()

	if state != StateAuthenticated {
		logger.L.Debug("Ignoring typing frame before authentication", zap.String("connID", s.id))
		return
	}
	if frame.RecipientID == "" {
		logger.L.Warn("Ignoring typing frame without recipient", zap.String("userID", userID))
		return
	}
	s.gateway.dispatcher.Dispatch(event.Typing{
		SenderID:    userID,
		RecipientID: frame.RecipientID,
		IsTyping:    frame.IsTyping,
	})
}

// Close 可以重复调用, 只有第一次生效.
// 只有当注册表里保存的仍是本连接时才广播下线并写入在线状态,
// 被新连接替换掉的旧连接关闭时保持静默.
func (s *Session) Close() {
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return
	}
	wasAuthenticated := s.state == StateAuthenticated
	s.state = StateClosed
	userID := s.userID
	if s.authTimer != nil {
		s.authTimer.Stop()
	}
	s.mu.Unlock()

	if wasAuthenticated && s.gateway.registry.Unregister(s) {
		logger.L.Info("User disconnected", zap.String("userID", userID), zap.String("connID", s.id))
		s.gateway.dispatcher.Dispatch(event.PresenceChange{UserID: userID, IsOnline: false})
		s.gateway.presence.Record(userID)
	}
	s.transport.Close()
}

func (s *Session) closeIfPending() {
	if s.State() != StatePending {
		return
	}
	logger.L.Info("Closing connection that did not authenticate in time", zap.String("connID", s.id))
	s.Close()
}
