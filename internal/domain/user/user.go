package user

import (
	"time"
)

const MaxNameLength = 128

// User is created on first OAuth login (or by the seeder) and is never hard-deleted.
type User struct {
	ID             int       `gorm:"primaryKey;autoIncrement" json:"id"`
	Name           string    `gorm:"size:128;not null;column:name" json:"name"`
	Email          *string   `gorm:"size:256;uniqueIndex;column:email" json:"-"`
	OAuthProvider  *string   `gorm:"size:128;column:oauth_provider;uniqueIndex:idx_users_provider_subject" json:"-"`
	ProviderUserID *string   `gorm:"size:256;column:provider_user_id;uniqueIndex:idx_users_provider_subject" json:"-"`
	AccessToken    *string   `gorm:"column:access_token" json:"-"`
	CreatedAt      time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (User) TableName() string { return "users" }
