package database

import (
	"gorm.io/gorm"

	"github.com/sitepulse/sitepulse/internal/models"
)

// AutoMigrate creates or updates the database schema for all models.
// Admin accounts are provisioned out of band, so nothing is seeded here.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.UserAction{},
		&models.AdminUser{},
		&models.PushSubscription{},
		&models.PushNotification{},
	)
}
