package service

import (
	"fmt"

	"go-chat-presence/internal/interfaces"
	"go-chat-presence/internal/model"
	"go-chat-presence/pkg/utils"
)

// 处理认证相关业务逻辑. 令牌由外部签发, 这里只做校验并保证用户记录存在.
type AuthService struct {
	userRepo interfaces.UserStore
}

// 创建一个新的认证服务实例
func NewAuthService(userRepo interfaces.UserStore) *AuthService {
	return &AuthService{
		userRepo: userRepo,
	}
}

// Authenticate 校验令牌并返回对应的用户; 用户不存在或资料变化时按令牌中的资料写入.
// 管理员标志从不取自令牌.
func (s *AuthService) Authenticate(token string) (*model.User, error) {
	claims, err := utils.ParseToken(token)
	if err != nil {
		return nil, ErrUnauthenticated
	}

	user, err := s.userRepo.FindByID(claims.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user != nil && !profileChanged(user, claims) {
		return user, nil
	}

	profile := &model.User{ID: claims.UserID}
	if user != nil {
		profile.Email, profile.FirstName, profile.LastName, profile.ProfileImageURL =
			user.Email, user.FirstName, user.LastName, user.ProfileImageURL
	}
	overlay(&profile.Email, claims.Email)
	overlay(&profile.FirstName, claims.FirstName)
	overlay(&profile.LastName, claims.LastName)
	overlay(&profile.ProfileImageURL, claims.ProfileImageURL)
	if err := s.userRepo.Upsert(profile); err != nil {
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}

	user, err = s.userRepo.FindByID(claims.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return profile, nil
	}
	return user, nil
}

// 令牌中没有的字段不视为变化
func profileChanged(user *model.User, claims *utils.Claims) bool {
	changed := func(stored, claimed string) bool {
		return claimed != "" && claimed != stored
	}
	return changed(user.Email, claims.Email) ||
		changed(user.FirstName, claims.FirstName) ||
		changed(user.LastName, claims.LastName) ||
		changed(user.ProfileImageURL, claims.ProfileImageURL)
}

func overlay(dst *string, claimed string) {
	if claimed != "" {
		*dst = claimed
	}
}
