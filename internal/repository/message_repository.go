package repository

import (
	"errors"

	"go-chat-presence/internal/model"
	"go-chat-presence/pkg/db"

	"gorm.io/gorm"
)

type MessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository() *MessageRepository {
	return &MessageRepository{db: db.DB}
}

// 保存新消息
func (r *MessageRepository) Create(message *model.Message) error {
	return r.db.Create(message).Error
}

// FindByID 返回带发送者和接收者信息的消息
func (r *MessageRepository) FindByID(id string) (*model.Message, error) {
	var message model.Message
	err := r.db.Preload("Sender").Preload("Recipient").Where("id = ?", id).First(&message).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &message, nil
}

// 获取两个用户之间的私聊记录, 按时间升序
func (r *MessageRepository) FindDirectBetween(userID1, userID2 string) ([]model.Message, error) {
	var messages []model.Message
	err := r.db.Where("message_type = ?", model.MessageTypeDirect).
		Where(
			"(sender_id = ? AND recipient_id = ?) OR (sender_id = ? AND recipient_id = ?)",
			userID1, userID2, userID2, userID1,
		).
		Order("created_at ASC").
		Preload("Sender").
		Preload("Recipient").
		Find(&messages).Error
	return messages, err
}

// 获取用户可见的全部消息: 广播, 自己发送的, 发给自己的
func (r *MessageRepository) FindVisibleTo(userID string) ([]model.Message, error) {
	var messages []model.Message
	err := r.db.Where(
		"message_type = ? OR sender_id = ? OR recipient_id = ?",
		model.MessageTypeBroadcast, userID, userID,
	).
		Order("created_at ASC").
		Preload("Sender").
		Preload("Recipient").
		Find(&messages).Error
	return messages, err
}

func (r *MessageRepository) FindBroadcasts() ([]model.Message, error) {
	var messages []model.Message
	err := r.db.Where("message_type = ?", model.MessageTypeBroadcast).
		Order("created_at ASC").
		Preload("Sender").
		Find(&messages).Error
	return messages, err
}

// MarkRead 只有接收者可以标记已读; 返回是否命中
func (r *MessageRepository) MarkRead(messageID, recipientID string) (bool, error) {
	result := r.db.Model(&model.Message{}).
		Where("id = ? AND recipient_id = ?", messageID, recipientID).
		Update("is_read", true)
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected > 0 {
		return true, nil
	}
	// 已经是已读时 RowsAffected 为 0
	var count int64
	err := r.db.Model(&model.Message{}).
		Where("id = ? AND recipient_id = ?", messageID, recipientID).
		Count(&count).Error
	return count > 0, err
}

func (r *MessageRepository) CountUnread(userID string) (int64, error) {
	var count int64
	err := r.db.Model(&model.Message{}).
		Where("recipient_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	return count, err
}

// LastDirectBetween 返回两个用户之间最新的一条私聊, 没有时返回 nil
func (r *MessageRepository) LastDirectBetween(userID1, userID2 string) (*model.Message, error) {
	var message model.Message
	err := r.db.Where("message_type = ?", model.MessageTypeDirect).
		Where(
			"(sender_id = ? AND recipient_id = ?) OR (sender_id = ? AND recipient_id = ?)",
			userID1, userID2, userID2, userID1,
		).
		Order("created_at DESC").
		Preload("Sender").
		First(&message).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &message, nil
}

// CountUnreadFrom 统计 senderID 发给 recipientID 的未读消息
func (r *MessageRepository) CountUnreadFrom(recipientID, senderID string) (int64, error) {
	var count int64
	err := r.db.Model(&model.Message{}).
		Where("recipient_id = ? AND sender_id = ? AND is_read = ?", recipientID, senderID, false).
		Count(&count).Error
	return count, err
}
