package service

import (
	"fmt"
	"strings"

	"go-chat-presence/internal/event"
	"go-chat-presence/internal/interfaces"
	"go-chat-presence/internal/model"
	"go-chat-presence/pkg/logger"

	"go.uber.org/zap"
)

type ChatService struct {
	dispatcher  interfaces.Dispatcher
	messageRepo interfaces.MessageStore
	userRepo    interfaces.UserStore
}

func NewChatService(dispatcher interfaces.Dispatcher, messageRepo interfaces.MessageStore, userRepo interfaces.UserStore) *ChatService {
	return &ChatService{
		dispatcher:  dispatcher,
		messageRepo: messageRepo,
		userRepo:    userRepo,
	}
}

type MessageRequest struct {
	Content     string `json:"content" binding:"required"`
	RecipientID string `json:"recipientId" binding:"required"`
}

type BroadcastRequest struct {
	Content       string `json:"content" binding:"required"`
	BroadcastType string `json:"broadcastType"`
}

// SendDirect 先保存消息, 再推送给在线的接收者. 接收者不在线时只保存.
func (s *ChatService) SendDirect(senderID string, req MessageRequest) (*model.Message, error) {
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, ErrEmptyContent
	}
	if req.RecipientID == "" {
		return nil, ErrRecipientRequired
	}

	recipient, err := s.userRepo.FindByID(req.RecipientID)
	if err != nil {
		return nil, fmt.Errorf("failed to find recipient: %w", err)
	}
	if recipient == nil {
		return nil, ErrRecipientNotFound
	}

	recipientID := recipient.ID
	message := &model.Message{
		Content:     content,
		SenderID:    senderID,
		RecipientID: &recipientID,
		MessageType: model.MessageTypeDirect,
	}
	stored, err := s.persist(message)
	if err != nil {
		return nil, err
	}

	sent := s.dispatcher.Dispatch(event.DirectMessage{
		SenderID:    senderID,
		RecipientID: recipientID,
		Payload:     stored,
	})
	logger.L.Debug("Direct message dispatched",
		zap.String("messageID", stored.ID),
		zap.String("recipientID", recipientID),
		zap.Int("sent", sent))
	return stored, nil
}

// SendBroadcast 仅管理员可用, 推送给所有在线连接(包括发送者自己)
func (s *ChatService) SendBroadcast(senderID string, req BroadcastRequest) (*model.Message, error) {
	sender, err := s.userRepo.FindByID(senderID)
	if err != nil {
		return nil, fmt.Errorf("failed to find sender: %w", err)
	}
	if sender == nil || !sender.IsAdmin {
		return nil, ErrAdminRequired
	}

	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, ErrEmptyContent
	}
	level := req.BroadcastType
	if level == "" {
		level = model.BroadcastInfo
	}
	if !model.ValidBroadcastType(level) {
		return nil, ErrInvalidBroadcastType
	}

	message := &model.Message{
		Content:       content,
		SenderID:      senderID,
		MessageType:   model.MessageTypeBroadcast,
		BroadcastType: &level,
	}
	stored, err := s.persist(message)
	if err != nil {
		return nil, err
	}

	sent := s.dispatcher.Dispatch(event.Broadcast{
		SenderID: senderID,
		Payload:  stored,
		Severity: level,
	})
	logger.L.Info("Broadcast dispatched",
		zap.String("messageID", stored.ID),
		zap.String("severity", level),
		zap.Int("sent", sent))
	return stored, nil
}

// persist 保存消息并重新读取, 带上发送者和接收者信息
func (s *ChatService) persist(message *model.Message) (*model.Message, error) {
	if err := s.messageRepo.Create(message); err != nil {
		logger.L.Error("Error saving message to DB", zap.String("senderID", message.SenderID), zap.Error(err))
		return nil, fmt.Errorf("failed to save message: %w", err)
	}

	stored, err := s.messageRepo.FindByID(message.ID)
	if err != nil || stored == nil {
		logger.L.Warn("Failed to reload stored message, relaying as created",
			zap.String("messageID", message.ID), zap.Error(err))
		return message, nil
	}
	return stored, nil
}

// GetMessages 有 otherUserID 时返回双方私聊记录, 否则返回用户可见的全部消息
func (s *ChatService) GetMessages(userID, otherUserID string) ([]model.Message, error) {
	var (
		messages []model.Message
		err      error
	)
	if otherUserID != "" {
		messages, err = s.messageRepo.FindDirectBetween(userID, otherUserID)
	} else {
		messages, err = s.messageRepo.FindVisibleTo(userID)
	}
	if err != nil {
		logger.L.Error("Error fetching messages", zap.String("userID", userID), zap.String("otherUserID", otherUserID), zap.Error(err))
		return nil, fmt.Errorf("failed to retrieve messages: %w", err)
	}
	return messages, nil
}

func (s *ChatService) GetBroadcasts() ([]model.Message, error) {
	messages, err := s.messageRepo.FindBroadcasts()
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve broadcasts: %w", err)
	}
	return messages, nil
}

func (s *ChatService) MarkRead(userID, messageID string) error {
	ok, err := s.messageRepo.MarkRead(messageID, userID)
	if err != nil {
		return fmt.Errorf("failed to mark message as read: %w", err)
	}
	if !ok {
		return ErrMessageNotFound
	}
	return nil
}

func (s *ChatService) UnreadCount(userID string) (int64, error) {
	count, err := s.messageRepo.CountUnread(userID)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread messages: %w", err)
	}
	return count, nil
}
