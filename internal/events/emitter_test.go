package events

import (
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/cronwatch-dev/cronwatch/db"
	"github.com/cronwatch-dev/cronwatch/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	database, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	sqlDB, err := database.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.Migrate(database); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return database
}

func TestEmitterRecordsEventAndNotifiesObservers(t *testing.T) {
	database := newTestDB(t)

	monitor := models.Monitor{
		OrganizationID: 1,
		ProjectID:      7,
		Name:           "nightly-backup",
		Status:         models.MonitorStatusFailing,
		Type:           models.MonitorTypeCronJob,
	}
	if err := database.Create(&monitor).Error; err != nil {
		t.Fatalf("failed to create monitor: %v", err)
	}

	var observed []models.FailureEvent
	emitter := NewEmitter(ObserverFunc(func(event models.FailureEvent, m models.Monitor) {
		observed = append(observed, event)
	}))

	emitter.MonitorFailed(database, monitor, "Monitor failure: nightly-backup")

	var stored models.FailureEvent
	if err := database.Where("monitor_id = ?", monitor.ID).First(&stored).Error; err != nil {
		t.Fatalf("failure event not recorded: %v", err)
	}
	if stored.ProjectID != 7 {
		t.Fatalf("project id = %d, want 7", stored.ProjectID)
	}
	if stored.Message != "Monitor failure: nightly-backup" {
		t.Fatalf("unexpected message %q", stored.Message)
	}

	if len(observed) != 1 {
		t.Fatalf("observer notifications = %d, want 1", len(observed))
	}
	if observed[0].ID != stored.ID {
		t.Fatalf("observer saw event %d, stored %d", observed[0].ID, stored.ID)
	}
}
