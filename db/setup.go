package db

import (
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/cronwatch-dev/cronwatch/internal/models"
)

var DB *gorm.DB

func ConnectDatabase(dsn string) error {
	var err error

	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})

	if err != nil {
		return err
	}

	return nil
}

func MigrateDatabase() error {
	return Migrate(DB)
}

// Migrate runs schema migration on the given handle. Tests use it with an
// in-memory database.
func Migrate(database *gorm.DB) error {
	tables := []interface{}{
		&models.User{},
		&models.Organization{},
		&models.Project{},
		&models.ProjectMembership{},
		&models.Monitor{},
		&models.MonitorLocation{},
		&models.CheckIn{},
		&models.FailureEvent{},
	}

	migrator := database.Migrator()

	for _, table := range tables {
		if !migrator.HasTable(table) {
			if err := database.AutoMigrate(table); err != nil {
				return err
			}
		}
	}

	return nil
}
