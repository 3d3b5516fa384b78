package database

import (
	"fmt"

	"food-dashboard/internal/models"

	log "github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// OpenAuditDB connects to the postgres database holding the audit trail and
// migrates its single table. Inventory and waste rows never go there.
func OpenAuditDB(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("connect audit database: %w", err)
	}

	if err := db.AutoMigrate(&models.AuditLog{}); err != nil {
		return nil, fmt.Errorf("migrate audit_logs: %w", err)
	}

	log.Info("audit database connected, migration complete")
	return db, nil
}
