package database

import (
	"fmt"

	"github.com/Visionatedigital/M-and-T/models"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Initialize opens the store with the given driver ("sqlite" or "postgres")
// and brings the schema up to date with the models.
func Initialize(driver, databaseURL string, verbose bool) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "sqlite":
		dialector = sqlite.Open(databaseURL)
	case "postgres":
		dialector = postgres.Open(databaseURL)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	level := logger.Warn
	if verbose {
		level = logger.Info
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(level),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Profile{},
		&models.UserRole{},
		&models.Territory{},
		&models.Branch{},
		&models.LoanProduct{},
		&models.LoanApplication{},
		&models.Collateral{},
		&models.CollateralInsurance{},
		&models.Conversation{},
		&models.ChatMessage{},
		&models.AuditLog{},
	)
}
