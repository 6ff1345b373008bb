package auth

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OAuthNonce is one pending login handshake. Only the hash of the nonce is stored.
type OAuthNonce struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Provider  string     `gorm:"size:64;not null;column:provider" json:"provider"`
	NonceHash string     `gorm:"not null;column:nonce_hash" json:"-"`
	ExpiresAt time.Time  `gorm:"not null;index;column:expires_at" json:"expires_at"`
	UsedAt    *time.Time `gorm:"column:used_at" json:"used_at,omitempty"`
	CreatedAt time.Time  `gorm:"not null;autoCreateTime" json:"created_at"`
}

func (OAuthNonce) TableName() string { return "oauth_nonce" }

func (n *OAuthNonce) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}

func (n *OAuthNonce) Usable(now time.Time) bool {
	return n != nil && n.UsedAt == nil && now.Before(n.ExpiresAt)
}
