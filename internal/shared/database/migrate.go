package database

import (
	"hutsync/internal/quotas"

	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&quotas.Quota{},
		&quotas.QuotaBedCategory{},
		&quotas.QuotaDescription{},
	)
}
