package service

import (
	"context"
	"fmt"

	"go-chat-presence/internal/interfaces"
	"go-chat-presence/internal/model"
)

type UserService struct {
	userRepo interfaces.UserStore
	presence interfaces.PresenceStore
}

func NewUserService(userRepo interfaces.UserStore, presence interfaces.PresenceStore) *UserService {
	return &UserService{userRepo: userRepo, presence: presence}
}

// GetUser 返回带当前在线状态的用户, 不存在时返回 nil
func (s *UserService) GetUser(ctx context.Context, id string) (*model.User, error) {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, nil
	}
	users := []model.User{*user}
	if err := s.applyPresence(ctx, users); err != nil {
		return nil, err
	}
	return &users[0], nil
}

func (s *UserService) ListUsers(ctx context.Context) ([]model.User, error) {
	users, err := s.userRepo.FindAll()
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	if err := s.applyPresence(ctx, users); err != nil {
		return nil, err
	}
	return users, nil
}

// OnlineUsers 以在线状态存储为准, 返回的用户 IsOnline 均为 true
func (s *UserService) OnlineUsers(ctx context.Context) ([]model.User, error) {
	ids, err := s.presence.OnlineUserIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read online users: %w", err)
	}
	users, err := s.userRepo.FindByIDs(ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load online users: %w", err)
	}
	for i := range users {
		users[i].IsOnline = true
	}
	return users, nil
}

// applyPresence 用在线状态存储覆盖 users 表里的 is_online / last_seen.
// Redis 作为存储时 users 表中的这两列不会更新.
func (s *UserService) applyPresence(ctx context.Context, users []model.User) error {
	ids, err := s.presence.OnlineUserIDs(ctx)
	if err != nil {
		return fmt.Errorf("failed to read online users: %w", err)
	}
	online := make(map[string]bool, len(ids))
	for _, id := range ids {
		online[id] = true
	}

	var offline []string
	for i := range users {
		users[i].IsOnline = online[users[i].ID]
		if !users[i].IsOnline {
			offline = append(offline, users[i].ID)
		}
	}

	history, ok := s.presence.(interfaces.LastSeenStore)
	if !ok || len(offline) == 0 {
		return nil
	}
	seen, err := history.LastSeen(ctx, offline...)
	if err != nil {
		return fmt.Errorf("failed to read last seen: %w", err)
	}
	for i := range users {
		if t, ok := seen[users[i].ID]; ok {
			users[i].LastSeen = &t
		}
	}
	return nil
}
