package repository

import (
	"context"
	"errors"
	"time"

	"go-chat-presence/internal/model"
	"go-chat-presence/pkg/db"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserRepository 处理用户数据持久化, 同时作为数据库版的在线状态存储
type UserRepository struct {
	db *gorm.DB
}

// 创建一个新的用户存储库实例
func NewUserRepository() *UserRepository {
	return &UserRepository{db: db.DB}
}

// Upsert 按ID新建或更新用户资料; 不覆盖 is_admin 和在线状态
func (r *UserRepository) Upsert(user *model.User) error {
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"email", "first_name", "last_name", "profile_image_url", "updated_at"}),
	}).Create(user).Error
}

// 通过ID查找用户
func (r *UserRepository) FindByID(id string) (*model.User, error) {
	var user model.User
	if err := r.db.Where("id = ?", id).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil // 用户不存在
		}
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) FindAll() ([]model.User, error) {
	var users []model.User
	err := r.db.Order("first_name ASC, last_name ASC").Find(&users).Error
	return users, err
}

func (r *UserRepository) FindByIDs(ids []string) ([]model.User, error) {
	var users []model.User
	if len(ids) == 0 {
		return users, nil
	}
	err := r.db.Where("id IN ?", ids).Order("first_name ASC, last_name ASC").Find(&users).Error
	return users, err
}

// SetOnline 写入在线标志, 下线时同时记录 last_seen
func (r *UserRepository) SetOnline(ctx context.Context, userID string, online bool) error {
	updates := map[string]interface{}{"is_online": online}
	if !online {
		updates["last_seen"] = time.Now()
	}
	return r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", userID).Updates(updates).Error
}

func (r *UserRepository) OnlineUserIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).Model(&model.User{}).Where("is_online = ?", true).Pluck("id", &ids).Error
	return ids, err
}
