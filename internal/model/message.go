package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	MessageTypeDirect    = "direct"
	MessageTypeBroadcast = "broadcast"
)

// 广播级别, 只随消息下发, 不参与投递过滤
const (
	BroadcastInfo      = "info"
	BroadcastWarning   = "warning"
	BroadcastEmergency = "emergency"
)

func ValidBroadcastType(t string) bool {
	switch t {
	case BroadcastInfo, BroadcastWarning, BroadcastEmergency:
		return true
	}
	return false
}

// Message 预加载 Sender/Recipient 后即为推送给客户端的 MessageWithSender
type Message struct {
	ID            string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Content       string    `gorm:"type:text;not null" json:"content"`
	SenderID      string    `gorm:"type:varchar(36);not null;index" json:"senderId"`
	RecipientID   *string   `gorm:"type:varchar(36);index" json:"recipientId"`
	MessageType   string    `gorm:"type:varchar(16);not null;default:direct" json:"messageType"`
	BroadcastType *string   `gorm:"type:varchar(16)" json:"broadcastType"`
	IsRead        bool      `gorm:"not null;default:false" json:"isRead"`
	CreatedAt     time.Time `gorm:"index" json:"createdAt"`
	Sender        *User     `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
	Recipient     *User     `gorm:"foreignKey:RecipientID" json:"recipient,omitempty"`
}

func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

func (m *Message) IsBroadcast() bool {
	return m.MessageType == MessageTypeBroadcast
}
