package monitors

import (
	"time"

	"gorm.io/gorm"

	"github.com/cronwatch-dev/cronwatch/internal/models"
)

// Service ingests check-ins and drives the monitor state machine. The
// CheckIn record and the monitor transition always commit together; an
// orphaned check-in without its monitor transition would be undetectable
// later.
type Service struct {
	db       *gorm.DB
	notifier FailureNotifier
}

func NewService(db *gorm.DB, notifier FailureNotifier) *Service {
	return &Service{db: db, notifier: notifier}
}

// GetMonitor resolves a monitor by its external GUID.
func (s *Service) GetMonitor(guid string) (models.Monitor, error) {
	var monitor models.Monitor
	err := s.db.Where("guid = ?", guid).First(&monitor).Error
	return monitor, err
}

// GetCheckIn resolves a check-in by GUID, scoped to its monitor.
func (s *Service) GetCheckIn(monitor models.Monitor, guid string) (models.CheckIn, error) {
	var checkin models.CheckIn
	err := s.db.Where("monitor_id = ? AND guid = ?", monitor.ID, guid).First(&checkin).Error
	return checkin, err
}

// CreateCheckIn records a reported check-in and atomically advances the
// monitor's state based on the reported outcome.
func (s *Service) CreateCheckIn(monitor models.Monitor, status models.CheckInStatus, duration *int, location *models.MonitorLocation) (models.CheckIn, error) {
	if err := validateReport(&status, duration); err != nil {
		return models.CheckIn{}, err
	}

	checkin := models.CheckIn{
		ProjectID: monitor.ProjectID,
		MonitorID: monitor.ID,
		Status:    status,
		Config:    monitor.Config,
		Duration:  duration,
	}
	if location != nil {
		checkin.LocationID = &location.ID
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&checkin).Error; err != nil {
			return err
		}
		return s.applyTransition(tx, monitor, status, checkin.CreatedAt)
	})
	if err != nil {
		return models.CheckIn{}, err
	}
	return checkin, nil
}

// UpdateCheckIn amends an in-progress check-in. Terminal check-ins cannot be
// amended. The monitor transition uses the check-in's original creation
// timestamp, not the update time.
func (s *Service) UpdateCheckIn(checkin models.CheckIn, status *models.CheckInStatus, duration *int) (models.CheckIn, error) {
	if checkin.Status.Terminal() {
		return checkin, ErrCheckInFinished
	}
	if err := validateReport(status, duration); err != nil {
		return checkin, err
	}

	updates := make(map[string]interface{})
	if status != nil {
		updates["status"] = *status
	}
	if duration != nil {
		updates["duration"] = duration
	}
	if len(updates) == 0 {
		return checkin, nil
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.CheckIn{}).Where("id = ?", checkin.ID).Updates(updates).Error; err != nil {
			return err
		}

		var monitor models.Monitor
		if err := tx.First(&monitor, checkin.MonitorID).Error; err != nil {
			return err
		}

		reported := checkin.Status
		if status != nil {
			reported = *status
		}
		return s.applyTransition(tx, monitor, reported, checkin.CreatedAt)
	})
	if err != nil {
		return checkin, err
	}

	if status != nil {
		checkin.Status = *status
	}
	if duration != nil {
		checkin.Duration = duration
	}
	return checkin, nil
}

// ListCheckIns returns a monitor's check-ins, newest first, offset-based.
func (s *Service) ListCheckIns(monitor models.Monitor, offset, limit int) ([]models.CheckIn, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	var checkins []models.CheckIn
	err := s.db.Where("monitor_id = ?", monitor.ID).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&checkins).Error
	return checkins, err
}

func (s *Service) applyTransition(tx *gorm.DB, monitor models.Monitor, status models.CheckInStatus, ts time.Time) error {
	if status == models.CheckInStatusFailure {
		_, err := markFailedWithRetry(tx, monitor, &ts, time.Now(), s.notifier)
		return err
	}
	_, err := MarkActive(tx, monitor, ts)
	return err
}

// validateReport checks a reported status (if present) and duration. A nil
// status means the report leaves the existing status untouched.
func validateReport(status *models.CheckInStatus, duration *int) error {
	if status != nil {
		switch *status {
		case models.CheckInStatusSuccess, models.CheckInStatusFailure, models.CheckInStatusInProgress:
		default:
			return ErrInvalidCheckInStatus
		}
	}
	if duration != nil && *duration < 0 {
		return ErrInvalidDuration
	}
	return nil
}
