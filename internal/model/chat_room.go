package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ChatRoom struct {
	ID        string  `gorm:"type:varchar(36);primaryKey" json:"id"`
	Name      *string `gorm:"type:varchar(100)" json:"name"`
	IsGroup   bool    `gorm:"not null;default:false" json:"isGroup"`
	CreatedBy string  `gorm:"type:varchar(36);not null;index" json:"createdBy"`
	// 私聊房间的唯一键, 两个用户ID排序后拼接; 群聊为空
	DirectKey *string   `gorm:"type:varchar(80);uniqueIndex" json:"-"`
	CreatedAt time.Time `json:"createdAt"`

	Participants []ChatParticipant `gorm:"foreignKey:ChatRoomID" json:"-"`
}

func (r *ChatRoom) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

// DirectRoomKey 与参数顺序无关
func DirectRoomKey(userID1, userID2 string) string {
	if userID2 < userID1 {
		userID1, userID2 = userID2, userID1
	}
	return userID1 + ":" + userID2
}
