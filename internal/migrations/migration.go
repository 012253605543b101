package migrations

import (
	"log"

	"gorm.io/gorm"

	"fulfillment/internal/models"
)

// RunMigrations brings the schema up to date.
func RunMigrations(db *gorm.DB) error {
	log.Println("Running database migrations...")

	err := db.AutoMigrate(
		&models.Order{},
		&models.SubOrder{},
		&models.OrderItem{},
		&models.StatusHistory{},
	)
	if err != nil {
		return err
	}

	log.Println("Migrations completed")
	return nil
}

// Reset drops and recreates all tables. Used by the init-db script only.
func Reset(db *gorm.DB) error {
	log.Println("Dropping existing tables...")
	err := db.Migrator().DropTable(
		&models.Order{},
		&models.SubOrder{},
		&models.OrderItem{},
		&models.StatusHistory{},
	)
	if err != nil {
		log.Printf("Warning: Error dropping tables: %v", err)
	}
	return RunMigrations(db)
}
