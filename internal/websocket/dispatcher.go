package websocket

import (
	"go-chat-presence/internal/event"
	"go-chat-presence/internal/interfaces"
	"go-chat-presence/pkg/logger"

	"go.uber.org/zap"
)

type Dispatcher struct {
	registry *Registry
}

func NewDispatcher(registry *Registry) *Dispatcher {
	return &Dispatcher{registry: registry}
}

// Dispatch 把事件编码一次, 再按事件类型发给对应连接. 返回成功入队的帧数.
// 找不到接收者时静默丢弃; 发送失败不重试也不返回错误.
func (d *Dispatcher) Dispatch(ev event.Event) int {
	frame, err := encodeEvent(ev)
	if err != nil {
		logger.L.Error("Failed to encode event", zap.Error(err))
		return 0
	}

	switch e := ev.(type) {
	case event.DirectMessage:
		return d.sendToUser(e.RecipientID, frame)
	case event.Typing:
		return d.sendToUser(e.RecipientID, frame)
	case event.Broadcast:
		logger.L.Debug("Broadcasting message", zap.String("senderID", e.SenderID), zap.String("severity", e.Severity))
		return d.sendToAll(frame, "")
	case event.PresenceChange:
		return d.sendToAll(frame, e.UserID)
	}
	return 0
}

func (d *Dispatcher) sendToUser(userID string, frame []byte) int {
	conn, ok := d.registry.Lookup(userID)
	if !ok {
		logger.L.Debug("Recipient not connected, dropping frame", zap.String("recipientID", userID))
		return 0
	}
	if d.send(conn, frame) {
		return 1
	}
	return 0
}

// sendToAll 发给所有连接, exceptUserID 非空时跳过该用户
func (d *Dispatcher) sendToAll(frame []byte, exceptUserID string) int {
	sent := 0
	for _, conn := range d.registry.connections() {
		if exceptUserID != "" && conn.UserID() == exceptUserID {
			continue
		}
		if d.send(conn, frame) {
			sent++
		}
	}
	return sent
}

func (d *Dispatcher) send(conn interfaces.Connection, frame []byte) bool {
	if conn.Enqueue(frame) {
		return true
	}
	// 发送队列已满或连接正在关闭: 丢弃该帧并关闭连接,
	// 由连接自己的关闭流程清理注册表
	logger.L.Warn("Send buffer full or connection closing, closing connection",
		zap.String("userID", conn.UserID()),
		zap.String("connID", conn.ID()))
	go conn.Close()
	return false
}
