package repository

import (
	"errors"

	"go-chat-presence/internal/model"
	"go-chat-presence/pkg/db"
	"go-chat-presence/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ChatRoomRepository 保存聊天室和参与者目录
type ChatRoomRepository struct {
	db *gorm.DB
}

func NewChatRoomRepository() *ChatRoomRepository {
	return &ChatRoomRepository{db: db.DB}
}

// GetOrCreateDirect 返回两个用户之间的私聊房间, 不存在时创建并把双方加为参与者.
// direct_key 唯一索引保证并发创建时只留下一个房间.
func (r *ChatRoomRepository) GetOrCreateDirect(userID, otherUserID string) (*model.ChatRoom, error) {
	key := model.DirectRoomKey(userID, otherUserID)
	room, err := r.findByDirectKey(key)
	if err != nil || room != nil {
		return room, err
	}

	room = &model.ChatRoom{IsGroup: false, CreatedBy: userID, DirectKey: &key}
	err = r.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(room)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			// 其他请求已经创建
			return nil
		}
		participants := []model.ChatParticipant{
			{ChatRoomID: room.ID, UserID: userID},
			{ChatRoomID: room.ID, UserID: otherUserID},
		}
		return tx.Create(&participants).Error
	})
	if err != nil {
		logger.L.Error("Failed to create direct chat room",
			zap.String("userID", userID),
			zap.String("otherUserID", otherUserID),
			zap.Error(err))
		return nil, err
	}
	return r.findByDirectKey(key)
}

func (r *ChatRoomRepository) findByDirectKey(key string) (*model.ChatRoom, error) {
	var room model.ChatRoom
	err := r.db.Where("direct_key = ?", key).First(&room).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &room, nil
}

// 查找用户参与的所有房间, 最新的在前
func (r *ChatRoomRepository) FindForUser(userID string) ([]model.ChatRoom, error) {
	var rooms []model.ChatRoom
	err := r.db.Joins("JOIN chat_participants ON chat_rooms.id = chat_participants.chat_room_id").
		Where("chat_participants.user_id = ?", userID).
		Preload("Participants", func(db *gorm.DB) *gorm.DB {
			return db.Order("joined_at ASC")
		}).
		Preload("Participants.User").
		Order("chat_rooms.created_at DESC").
		Find(&rooms).Error
	return rooms, err
}
