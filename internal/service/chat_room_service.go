package service

import (
	"fmt"
	"strings"

	"go-chat-presence/internal/interfaces"
	"go-chat-presence/internal/model"
	"go-chat-presence/pkg/logger"

	"go.uber.org/zap"
)

type ChatRoomService struct {
	roomRepo    interfaces.ChatRoomStore
	messageRepo interfaces.MessageStore
	userRepo    interfaces.UserStore
}

func NewChatRoomService(roomRepo interfaces.ChatRoomStore, messageRepo interfaces.MessageStore, userRepo interfaces.UserStore) *ChatRoomService {
	return &ChatRoomService{
		roomRepo:    roomRepo,
		messageRepo: messageRepo,
		userRepo:    userRepo,
	}
}

type DirectRoomRequest struct {
	OtherUserID string `json:"otherUserId"`
}

// ChatRoomSummary 是房间列表中的一项
type ChatRoomSummary struct {
	model.ChatRoom
	Participants []model.User   `json:"participants"`
	LastMessage  *model.Message `json:"lastMessage,omitempty"`
	UnreadCount  int64          `json:"unreadCount"`
}

// GetOrCreateDirect 打开与另一个用户的私聊房间, 重复调用返回同一个房间
func (s *ChatRoomService) GetOrCreateDirect(userID string, req DirectRoomRequest) (*model.ChatRoom, error) {
	otherUserID := strings.TrimSpace(req.OtherUserID)
	if otherUserID == "" {
		return nil, ErrOtherUserRequired
	}
	if otherUserID == userID {
		return nil, ErrSelfChatRoom
	}

	other, err := s.userRepo.FindByID(otherUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if other == nil {
		return nil, ErrRecipientNotFound
	}

	room, err := s.roomRepo.GetOrCreateDirect(userID, otherUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get direct chat room: %w", err)
	}
	logger.L.Debug("Direct chat room opened", zap.String("roomID", room.ID), zap.String("userID", userID))
	return room, nil
}

// ListForUser 返回用户参与的房间. 私聊房间附带最近一条消息和对方发来的未读数.
func (s *ChatRoomService) ListForUser(userID string) ([]ChatRoomSummary, error) {
	rooms, err := s.roomRepo.FindForUser(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list chat rooms: %w", err)
	}

	summaries := make([]ChatRoomSummary, 0, len(rooms))
	for _, room := range rooms {
		summary := ChatRoomSummary{ChatRoom: room, Participants: make([]model.User, 0, len(room.Participants))}
		var otherUserID string
		for _, p := range room.Participants {
			if p.User != nil {
				summary.Participants = append(summary.Participants, *p.User)
			}
			if p.UserID != userID {
				otherUserID = p.UserID
			}
		}

		if !room.IsGroup && otherUserID != "" {
			summary.LastMessage, err = s.messageRepo.LastDirectBetween(userID, otherUserID)
			if err != nil {
				return nil, fmt.Errorf("failed to load last message: %w", err)
			}
			summary.UnreadCount, err = s.messageRepo.CountUnreadFrom(userID, otherUserID)
			if err != nil {
				return nil, fmt.Errorf("failed to count unread messages: %w", err)
			}
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}
