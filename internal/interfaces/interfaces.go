package interfaces

import (
	"context"
	"time"

	"go-chat-presence/internal/event"
	"go-chat-presence/internal/model"
)

// Connection 是注册表中保存的一条已认证连接
type Connection interface {
	ID() string
	UserID() string
	// Enqueue 非阻塞地放入发送队列, 队列满或连接已关闭时返回 false
	Enqueue(frame []byte) bool
	Close()
}

// ConnectionRegistry 提供"谁当前在线"的只读视图
type ConnectionRegistry interface {
	Lookup(userID string) (Connection, bool)
	Snapshot() []string
	Len() int
}

// Dispatcher 把一个事件路由到对应的连接, 返回成功入队的帧数
// websocket.Dispatcher实现
type Dispatcher interface {
	Dispatch(ev event.Event) int
}

// PresenceStore 保存用户在线标志
// repository.UserRepository / repository.RedisPresenceRepository 实现
type PresenceStore interface {
	SetOnline(ctx context.Context, userID string, online bool) error
	OnlineUserIDs(ctx context.Context) ([]string, error)
}

// LastSeenStore 由单独记录下线时间的在线状态存储实现
// repository.RedisPresenceRepository 实现
type LastSeenStore interface {
	LastSeen(ctx context.Context, userIDs ...string) (map[string]time.Time, error)
}

// PresenceRecorder 异步地把注册表中的当前状态写入 PresenceStore
type PresenceRecorder interface {
	Record(userID string)
}

type UserStore interface {
	Upsert(user *model.User) error
	FindByID(id string) (*model.User, error)
	FindAll() ([]model.User, error)
	FindByIDs(ids []string) ([]model.User, error)
}

type MessageStore interface {
	Create(message *model.Message) error
	FindByID(id string) (*model.Message, error)
	FindDirectBetween(userID1, userID2 string) ([]model.Message, error)
	FindVisibleTo(userID string) ([]model.Message, error)
	FindBroadcasts() ([]model.Message, error)
	MarkRead(messageID, recipientID string) (bool, error)
	CountUnread(userID string) (int64, error)
	LastDirectBetween(userID1, userID2 string) (*model.Message, error)
	CountUnreadFrom(recipientID, senderID string) (int64, error)
}

// ChatRoomStore 聊天室目录, 只做持久化, 不参与消息分发
type ChatRoomStore interface {
	GetOrCreateDirect(userID, otherUserID string) (*model.ChatRoom, error)
	FindForUser(userID string) ([]model.ChatRoom, error)
}
