package db

import (
	"fmt"

	types "github.com/yungbote/coursehub-backend/internal/domain"
	"gorm.io/gorm"
)

func AutoMigrateAll(db *gorm.DB) error {
	if err := db.AutoMigrate(types.Models()...); err != nil {
		return err
	}
	return EnsureIndexes(db)
}

// EnsureIndexes creates the indexes AutoMigrate cannot express. The statements are
// portable between postgres and sqlite.
func EnsureIndexes(db *gorm.DB) error {
	// One open attempt per (user, lesson).
	if err := db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_attempt_open_user_lesson
		ON attempt (user_id, lesson_id)
		WHERE submitted_at IS NULL;
	`).Error; err != nil {
		return fmt.Errorf("create idx_attempt_open_user_lesson: %w", err)
	}

	// Case-insensitive login lookups.
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_user_email_lower
		ON "user" (lower(email));
	`).Error; err != nil {
		return fmt.Errorf("create idx_user_email_lower: %w", err)
	}

	// Unread badge counts.
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_notification_user_unread
		ON notification (user_id, is_read, created_at);
	`).Error; err != nil {
		return fmt.Errorf("create idx_notification_user_unread: %w", err)
	}

	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_wallet_transaction_user_created
		ON wallet_transaction (user_id, created_at);
	`).Error; err != nil {
		return fmt.Errorf("create idx_wallet_transaction_user_created: %w", err)
	}

	return nil
}

func (s *PostgresService) AutoMigrateAll() error {
	s.log.Info("Auto migrating postgres tables...")
	if err := AutoMigrateAll(s.db); err != nil {
		s.log.Error("Auto migration failed", "error", err)
		return err
	}
	return nil
}
