package database

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/ivgeniay/jointpresentation/internal/models"
)

// AutoMigrate creates or updates the database schema for all deck models.
// Parents are listed before children so foreign keys resolve on every driver.
func AutoMigrate(db *gorm.DB) error {
	if db == nil {
		return errors.New("nil database handle")
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Presentation{},
		&models.Slide{},
		&models.SlideElement{},
		&models.PresentationEditor{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
