package db

import (
	"fmt"

	"gorm.io/gorm"

	types "github.com/yungbote/instrument-catalog/internal/domain"
)

func AutoMigrateAll(db *gorm.DB) error {
	if err := db.AutoMigrate(types.Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return EnsureAuthIndexes(db)
}

func EnsureAuthIndexes(db *gorm.DB) error {
	if err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_oauth_nonce_provider_used ON oauth_nonce(provider, used_at);`).Error; err != nil {
		return fmt.Errorf("create idx_oauth_nonce_provider_used: %w", err)
	}
	if err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_instruments_user_created ON instruments(user_id, created_at);`).Error; err != nil {
		return fmt.Errorf("create idx_instruments_user_created: %w", err)
	}
	return nil
}
