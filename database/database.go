package database

import (
	"fmt"

	"github.com/anjiri1684/tutor_booking/models"
	"gorm.io/gorm"
)

// Connect opens the database behind any GORM dialector. Production wires
// postgres; tests wire sqlite.
func Connect(dialector gorm.Dialector) (*gorm.DB, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		PrepareStmt:              false,
		SkipDefaultTransaction:   true,
		DisableNestedTransaction: true,
		TranslateError:           true,
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	return db, nil
}

func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Course{},
		&models.Country{},
		&models.RegionalPricing{},
		&models.AvailabilitySlot{},
		&models.Reservation{},
		&models.Enrollment{},
		&models.Payment{},
	)
	if err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}
	return nil
}
