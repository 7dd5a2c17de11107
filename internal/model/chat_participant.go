package model

import "time"

type ChatParticipant struct {
	ChatRoomID string    `gorm:"type:varchar(36);primaryKey" json:"chatRoomId"`
	UserID     string    `gorm:"type:varchar(36);primaryKey;index" json:"userId"`
	JoinedAt   time.Time `gorm:"autoCreateTime" json:"joinedAt"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
