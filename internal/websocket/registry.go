package websocket

import (
	"sync"

	"go-chat-presence/internal/interfaces"
	"go-chat-presence/pkg/logger"

	"go.uber.org/zap"
)

// Registry 维护 userID -> 连接 的映射, 每个用户最多一条连接
type Registry struct {
	mu    sync.RWMutex
	conns map[string]interfaces.Connection
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[string]interfaces.Connection)}
}

// Register 插入或替换用户的连接; 被替换的旧连接会被关闭.
// 替换在锁内原子完成, 旧连接在锁外关闭, 交换之后旧连接不会再收到任何分发.
func (r *Registry) Register(userID string, conn interfaces.Connection) {
	r.RegisterWithPeers(userID, conn)
}

// RegisterWithPeers 与 Register 相同, 同时返回注册瞬间其他已在线的用户ID.
// 列表与插入在同一次写锁内完成, 之后的任何注销都发生在列表之后.
func (r *Registry) RegisterWithPeers(userID string, conn interfaces.Connection) []string {
	r.mu.Lock()
	prev, ok := r.conns[userID]
	peers := make([]string, 0, len(r.conns))
	for id := range r.conns {
		if id != userID {
			peers = append(peers, id)
		}
	}
	r.conns[userID] = conn
	r.mu.Unlock()

	if ok && prev != conn {
		logger.L.Info("Replacing existing connection",
			zap.String("userID", userID),
			zap.String("previousConnID", prev.ID()),
			zap.String("connID", conn.ID()))
		prev.Close()
	}
	return peers
}

// Unregister 只有当注册表中保存的正是 conn 时才删除, 返回是否删除.
// 防止旧连接迟到的关闭把新连接注销掉.
func (r *Registry) Unregister(conn interfaces.Connection) bool {
	userID := conn.UserID()
	if userID == "" {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if current, ok := r.conns[userID]; ok && current == conn {
		delete(r.conns, userID)
		return true
	}
	return false
}

func (r *Registry) Lookup(userID string) (interfaces.Connection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conn, ok := r.conns[userID]
	return conn, ok
}

// Snapshot 返回调用时刻已注册的用户ID
func (r *Registry) Snapshot() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.conns))
	for id := range r.conns {
		ids = append(ids, id)
	}
	return ids
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// connections 返回当前连接的副本, 供分发时在锁外发送
func (r *Registry) connections() []interfaces.Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conns := make([]interfaces.Connection, 0, len(r.conns))
	for _, c := range r.conns {
		conns = append(conns, c)
	}
	return conns
}

// CloseAll 关闭所有已注册连接, 每条连接走自己的关闭流程
func (r *Registry) CloseAll() {
	conns := r.connections()
	for _, c := range conns {
		c.Close()
	}
	logger.L.Info("Closed all registered connections", zap.Int("count", len(conns)))
}
