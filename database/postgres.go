package database

import (
	"fmt"

	"github.com/yashrajoria/materials-storefront/models"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// ConnectPostgres opens the profiles database and migrates its schema.
func ConnectPostgres(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(&models.Profile{}); err != nil {
		return nil, fmt.Errorf("failed to migrate profiles: %w", err)
	}

	zap.L().Info("Connected to PostgreSQL")
	return db, nil
}
