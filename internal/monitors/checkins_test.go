package monitors

import (
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/cronwatch-dev/cronwatch/internal/models"
)

func TestCreateCheckInSuccessRearmsMonitor(t *testing.T) {
	database := newTestDB(t)
	project := createTestProject(t, database)
	monitor := createTestMonitor(t, database, project, models.MonitorStatusActive, "* * * * *", 0, nil, nil)

	notifier := &recordingNotifier{}
	svc := NewService(database, notifier)

	duration := 1500
	checkin, err := svc.CreateCheckIn(monitor, models.CheckInStatusSuccess, &duration, nil)
	if err != nil {
		t.Fatalf("CreateCheckIn error: %v", err)
	}
	if checkin.GUID == "" {
		t.Fatal("check-in has no GUID")
	}
	if checkin.Status != models.CheckInStatusSuccess {
		t.Fatalf("status = %v, want success", checkin.Status)
	}

	got := reloadMonitor(t, database, monitor.ID)
	if got.Status != models.MonitorStatusActive {
		t.Fatalf("monitor status = %v, want active", got.Status)
	}
	if got.LastCheckIn == nil || !got.LastCheckIn.Equal(checkin.CreatedAt) {
		t.Fatalf("last_checkin = %v, want %v", got.LastCheckIn, checkin.CreatedAt)
	}
	if got.NextCheckIn == nil || !got.NextCheckIn.After(checkin.CreatedAt) {
		t.Fatalf("next_checkin = %v, want after %v", got.NextCheckIn, checkin.CreatedAt)
	}
	if notifier.calls != 0 {
		t.Fatalf("notifier calls = %d, want 0", notifier.calls)
	}
}

func TestCreateCheckInFailureMarksFailing(t *testing.T) {
	database := newTestDB(t)
	project := createTestProject(t, database)
	monitor := createTestMonitor(t, database, project, models.MonitorStatusActive, "* * * * *", 0, nil, nil)

	notifier := &recordingNotifier{}
	svc := NewService(database, notifier)

	checkin, err := svc.CreateCheckIn(monitor, models.CheckInStatusFailure, nil, nil)
	if err != nil {
		t.Fatalf("CreateCheckIn error: %v", err)
	}

	got := reloadMonitor(t, database, monitor.ID)
	if got.Status != models.MonitorStatusFailing {
		t.Fatalf("monitor status = %v, want failing", got.Status)
	}
	if got.LastCheckIn == nil || !got.LastCheckIn.Equal(checkin.CreatedAt) {
		t.Fatalf("last_checkin = %v, want %v", got.LastCheckIn, checkin.CreatedAt)
	}

	if notifier.calls != 1 {
		t.Fatalf("notifier calls = %d, want 1", notifier.calls)
	}
	if notifier.messages[0] != "Monitor failure: nightly-backup" {
		t.Fatalf("unexpected message %q", notifier.messages[0])
	}
}

func TestCreateCheckInValidation(t *testing.T) {
	database := newTestDB(t)
	project := createTestProject(t, database)
	monitor := createTestMonitor(t, database, project, models.MonitorStatusActive, "* * * * *", 0, nil, nil)

	svc := NewService(database, &recordingNotifier{})

	if _, err := svc.CreateCheckIn(monitor, models.CheckInStatusUnknown, nil, nil); !errors.Is(err, ErrInvalidCheckInStatus) {
		t.Fatalf("error = %v, want ErrInvalidCheckInStatus", err)
	}

	negative := -1
	if _, err := svc.CreateCheckIn(monitor, models.CheckInStatusSuccess, &negative, nil); !errors.Is(err, ErrInvalidDuration) {
		t.Fatalf("error = %v, want ErrInvalidDuration", err)
	}

	// Nothing may have been persisted by the rejected reports.
	var count int64
	database.Model(&models.CheckIn{}).Count(&count)
	if count != 0 {
		t.Fatalf("check-in count = %d, want 0", count)
	}
}

func TestCreateCheckInSnapshotsConfigAndLocation(t *testing.T) {
	database := newTestDB(t)
	project := createTestProject(t, database)
	monitor := createTestMonitor(t, database, project, models.MonitorStatusActive, "*/5 * * * *", 2, nil, nil)

	location := models.MonitorLocation{Name: "us-east-1"}
	if err := database.Create(&location).Error; err != nil {
		t.Fatalf("failed to create location: %v", err)
	}

	svc := NewService(database, &recordingNotifier{})

	checkin, err := svc.CreateCheckIn(monitor, models.CheckInStatusSuccess, nil, &location)
	if err != nil {
		t.Fatalf("CreateCheckIn error: %v", err)
	}

	cfg, err := ParseConfig(checkin.Config)
	if err != nil {
		t.Fatalf("check-in config did not snapshot: %v", err)
	}
	if cfg.Schedule != "*/5 * * * *" || cfg.CheckInMargin != 2 {
		t.Fatalf("unexpected config snapshot: %+v", cfg)
	}
	if checkin.LocationID == nil || *checkin.LocationID != location.ID {
		t.Fatalf("location id = %v, want %d", checkin.LocationID, location.ID)
	}
}

func TestUpdateCheckInTerminalIsConflict(t *testing.T) {
	database := newTestDB(t)
	project := createTestProject(t, database)
	monitor := createTestMonitor(t, database, project, models.MonitorStatusActive, "* * * * *", 0, nil, nil)

	svc := NewService(database, &recordingNotifier{})

	checkin, err := svc.CreateCheckIn(monitor, models.CheckInStatusSuccess, nil, nil)
	if err != nil {
		t.Fatalf("CreateCheckIn error: %v", err)
	}

	status := models.CheckInStatusFailure
	if _, err := svc.UpdateCheckIn(checkin, &status, nil); !errors.Is(err, ErrCheckInFinished) {
		t.Fatalf("error = %v, want ErrCheckInFinished", err)
	}

	// The record must be untouched.
	stored, err := svc.GetCheckIn(monitor, checkin.GUID)
	if err != nil {
		t.Fatalf("GetCheckIn error: %v", err)
	}
	if stored.Status != models.CheckInStatusSuccess {
		t.Fatalf("status = %v, want success", stored.Status)
	}
}

func TestUpdateCheckInProgressToTerminal(t *testing.T) {
	database := newTestDB(t)
	project := createTestProject(t, database)
	monitor := createTestMonitor(t, database, project, models.MonitorStatusActive, "* * * * *", 0, nil, nil)

	notifier := &recordingNotifier{}
	svc := NewService(database, notifier)

	checkin, err := svc.CreateCheckIn(monitor, models.CheckInStatusInProgress, nil, nil)
	if err != nil {
		t.Fatalf("CreateCheckIn error: %v", err)
	}

	// An in-progress report already re-armed the monitor.
	armed := reloadMonitor(t, database, monitor.ID)
	if armed.Status != models.MonitorStatusActive || armed.LastCheckIn == nil {
		t.Fatalf("monitor not armed by in-progress report: %+v", armed)
	}

	status := models.CheckInStatusSuccess
	duration := 420
	updated, err := svc.UpdateCheckIn(checkin, &status, &duration)
	if err != nil {
		t.Fatalf("UpdateCheckIn error: %v", err)
	}
	if updated.Status != models.CheckInStatusSuccess {
		t.Fatalf("status = %v, want success", updated.Status)
	}
	if updated.Duration == nil || *updated.Duration != 420 {
		t.Fatalf("duration = %v, want 420", updated.Duration)
	}

	// The transition is keyed on the check-in's original creation time, so
	// resolving the same check-in leaves the monitor state unchanged.
	got := reloadMonitor(t, database, monitor.ID)
	if !got.LastCheckIn.Equal(*armed.LastCheckIn) {
		t.Fatalf("last_checkin moved from %v to %v", armed.LastCheckIn, got.LastCheckIn)
	}
	if got.Status != models.MonitorStatusActive {
		t.Fatalf("status = %v, want active", got.Status)
	}
}

func TestUpdateCheckInProgressToFailure(t *testing.T) {
	database := newTestDB(t)
	project := createTestProject(t, database)
	monitor := createTestMonitor(t, database, project, models.MonitorStatusActive, "* * * * *", 0, nil, nil)

	notifier := &recordingNotifier{}
	svc := NewService(database, notifier)

	checkin, err := svc.CreateCheckIn(monitor, models.CheckInStatusInProgress, nil, nil)
	if err != nil {
		t.Fatalf("CreateCheckIn error: %v", err)
	}

	status := models.CheckInStatusFailure
	if _, err := svc.UpdateCheckIn(checkin, &status, nil); err != nil {
		t.Fatalf("UpdateCheckIn error: %v", err)
	}

	got := reloadMonitor(t, database, monitor.ID)
	if got.Status != models.MonitorStatusFailing {
		t.Fatalf("status = %v, want failing", got.Status)
	}
	if notifier.calls != 1 {
		t.Fatalf("notifier calls = %d, want 1", notifier.calls)
	}
}

func TestGetCheckInScopedToMonitor(t *testing.T) {
	database := newTestDB(t)
	project := createTestProject(t, database)
	owner := createTestMonitor(t, database, project, models.MonitorStatusActive, "* * * * *", 0, nil, nil)
	other := createTestMonitor(t, database, project, models.MonitorStatusActive, "* * * * *", 0, nil, nil)

	svc := NewService(database, &recordingNotifier{})

	checkin, err := svc.CreateCheckIn(owner, models.CheckInStatusSuccess, nil, nil)
	if err != nil {
		t.Fatalf("CreateCheckIn error: %v", err)
	}

	got, err := svc.GetCheckIn(owner, checkin.GUID)
	if err != nil {
		t.Fatalf("GetCheckIn error: %v", err)
	}
	if got.GUID != checkin.GUID || got.Status != models.CheckInStatusSuccess {
		t.Fatalf("unexpected check-in: %+v", got)
	}

	// A valid GUID reached through the wrong monitor must not resolve.
	if _, err := svc.GetCheckIn(other, checkin.GUID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("error = %v, want ErrRecordNotFound", err)
	}
}

func TestListCheckInsPagination(t *testing.T) {
	database := newTestDB(t)
	project := createTestProject(t, database)
	monitor := createTestMonitor(t, database, project, models.MonitorStatusActive, "* * * * *", 0, nil, nil)

	svc := NewService(database, &recordingNotifier{})

	// Insert with explicit creation times so ordering is deterministic.
	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		checkin := models.CheckIn{
			ProjectID: project.ID,
			MonitorID: monitor.ID,
			Status:    models.CheckInStatusSuccess,
			BaseModel: models.BaseModel{CreatedAt: base.Add(time.Duration(i) * time.Minute)},
		}
		if err := database.Create(&checkin).Error; err != nil {
			t.Fatalf("failed to seed check-in: %v", err)
		}
	}

	page, err := svc.ListCheckIns(monitor, 0, 2)
	if err != nil {
		t.Fatalf("ListCheckIns error: %v", err)
	}
	if len(page) != 2 {
		t.Fatalf("len(page) = %d, want 2", len(page))
	}
	if !page[0].CreatedAt.After(page[1].CreatedAt) {
		t.Fatalf("expected newest first, got %v then %v", page[0].CreatedAt, page[1].CreatedAt)
	}

	rest, err := svc.ListCheckIns(monitor, 2, 10)
	if err != nil {
		t.Fatalf("ListCheckIns error: %v", err)
	}
	if len(rest) != 3 {
		t.Fatalf("len(rest) = %d, want 3", len(rest))
	}
}
