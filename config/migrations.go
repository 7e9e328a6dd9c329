package config

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
	"p9e.in/fleetparts/models"
)

func Migrations(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		{
			ID: "10032026_create_core_tables",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&models.Organization{}, &models.User{},
					&models.Supplier{}, &models.AuxiliaryEmail{},
					&models.Vehicle{}, &models.Part{},
					&models.MaintenanceRecord{}, &models.MaintenancePart{})
			},
		},
		{
			ID: "10032026_create_quote_tables",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&models.QuoteRequest{}, &models.QuoteRequestItem{},
					&models.Order{}, &models.OrderItem{})
			},
		},
		{
			ID: "12032026_create_email_tables",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&models.EmailThread{}, &models.EmailMessage{},
					&models.Attachment{}, &models.QuoteRequestEmailThread{})
			},
		},
		{
			ID: "12032026_create_activity_and_chat_tables",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&models.ActivityLog{},
					&models.Conversation{}, &models.ChatMessage{})
			},
		},
		{
			ID: "19032026_add_position_to_email_messages",
			Migrate: func(tx *gorm.DB) error {
				// Older rows predate explicit ordering; backfill from sent_at order
				if err := tx.Exec(`ALTER TABLE email_messages ADD COLUMN IF NOT EXISTS position integer NOT NULL DEFAULT 0`).Error; err != nil {
					return err
				}
				return tx.Exec(`
					UPDATE email_messages m SET position = ranked.rn
					FROM (
						SELECT id, ROW_NUMBER() OVER (PARTITION BY thread_id ORDER BY COALESCE(sent_at, received_at, created_at)) - 1 AS rn
						FROM email_messages
					) ranked
					WHERE m.id = ranked.id AND m.position = 0
				`).Error
			},
		},
	})

	return m.Migrate()
}
