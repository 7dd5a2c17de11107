// event 定义推送给在线连接的事件, 构造之后不可修改
package event

type Event interface {
	isEvent()
}

// DirectMessage 只发给接收者, 发送者不会收到回显
type DirectMessage struct {
	SenderID    string
	RecipientID string
	Payload     any
}

// Broadcast 发给所有连接, 包括发送者. Severity 随 Payload 下发, 不参与路由
type Broadcast struct {
	SenderID string
	Payload  any
	Severity string
}

// PresenceChange 发给除本人以外的所有连接
type PresenceChange struct {
	UserID   string
	IsOnline bool
}

// Typing 只发给接收者, 不落库
type Typing struct {
	SenderID    string
	RecipientID string
	IsTyping    bool
}

func (DirectMessage) isEvent()  {}
func (Broadcast) isEvent()      {}
func (PresenceChange) isEvent() {}
func (Typing) isEvent()         {}
