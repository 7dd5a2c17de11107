package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID              string     `gorm:"type:varchar(36);primaryKey" json:"id"`
	Email           string     `gorm:"type:varchar(255);index" json:"email"`
	FirstName       string     `gorm:"type:varchar(100)" json:"firstName"`
	LastName        string     `gorm:"type:varchar(100)" json:"lastName"`
	ProfileImageURL string     `gorm:"type:varchar(512)" json:"profileImageUrl"`
	IsAdmin         bool       `gorm:"not null;default:false" json:"isAdmin"`
	IsOnline        bool       `gorm:"not null;default:false;index" json:"isOnline"`
	LastSeen        *time.Time `json:"lastSeen"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}
