package monitors

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/cronwatch-dev/cronwatch/internal/models"
)

// transitionable are the only statuses the core moves between. Monitors in
// any other status (disabled, pending deletion) pass through untouched.
var transitionable = []models.MonitorStatus{
	models.MonitorStatusActive,
	models.MonitorStatusFailing,
}

// maxTransitionRetries bounds optimistic-conflict retries before the write
// is surfaced as ErrStaleWrite.
const maxTransitionRetries = 3

// MarkActive re-arms a monitor after a successful or in-progress check-in at
// ts. The update is conditional: it only applies when ts is newer than the
// monitor's current last_checkin, so an out-of-order check-in can never
// revive a monitor already advanced by a newer one. Returns whether the
// monitor row was advanced.
func MarkActive(tx *gorm.DB, monitor models.Monitor, ts time.Time) (bool, error) {
	next, err := NextScheduledCheckIn(monitor, ts)
	if err != nil {
		return false, err
	}

	res := tx.Model(&models.Monitor{}).
		Where("id = ? AND status IN ?", monitor.ID, transitionable).
		Where("last_checkin IS NULL OR last_checkin < ?", ts).
		Updates(map[string]interface{}{
			"status":       models.MonitorStatusActive,
			"last_checkin": ts,
			"next_checkin": next,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// MarkFailed transitions a monitor to failing. The update is keyed on the
// monitor's last-read last_checkin value (optimistic concurrency); a miss
// means a concurrent check-in advanced the row first. On a successful
// transition the failure notifier is invoked exactly once, inside the same
// transaction. lastCheckin is the timestamp recorded as the monitor's final
// observed check-in; now is the reference time for the next schedule slot.
func MarkFailed(tx *gorm.DB, monitor models.Monitor, lastCheckin *time.Time, now time.Time, notifier FailureNotifier) (bool, error) {
	if lastCheckin == nil {
		lastCheckin = monitor.LastCheckIn
	}

	next, err := NextScheduledCheckIn(monitor, now)
	if err != nil {
		return false, err
	}

	q := tx.Model(&models.Monitor{}).
		Where("id = ? AND status IN ?", monitor.ID, transitionable)
	if monitor.LastCheckIn == nil {
		q = q.Where("last_checkin IS NULL")
	} else {
		q = q.Where("last_checkin = ?", *monitor.LastCheckIn)
	}

	res := q.Updates(map[string]interface{}{
		"status":       models.MonitorStatusFailing,
		"last_checkin": lastCheckin,
		"next_checkin": next,
	})
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}

	if notifier != nil {
		notifier.MonitorFailed(tx, monitor, fmt.Sprintf("Monitor failure: %s", monitor.Name))
	}
	return true, nil
}

// markFailedWithRetry applies MarkFailed, re-reading the monitor and
// retrying against the new baseline when a concurrent check-in wins the
// conditional update. A failure report is not time-ordered against
// recoveries, so it always wins over a racing success; only a bounded
// number of retries is attempted before ErrStaleWrite.
func markFailedWithRetry(tx *gorm.DB, monitor models.Monitor, lastCheckin *time.Time, now time.Time, notifier FailureNotifier) (bool, error) {
	for attempt := 0; attempt < maxTransitionRetries; attempt++ {
		ok, err := MarkFailed(tx, monitor, lastCheckin, now, notifier)
		if err != nil || ok {
			return ok, err
		}

		var fresh models.Monitor
		if err := tx.First(&fresh, monitor.ID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return false, nil
			}
			return false, err
		}
		if !isTransitionable(fresh.Status) {
			return false, nil
		}
		monitor = fresh
	}
	return false, ErrStaleWrite
}

// ListDue returns the monitors eligible for sweeping: active or failing,
// with an expected check-in at or before now. Disabled and
// pending-deletion monitors are never selected.
func ListDue(db *gorm.DB, now time.Time) ([]models.Monitor, error) {
	var due []models.Monitor
	err := db.Where("status IN ? AND next_checkin IS NOT NULL AND next_checkin <= ?", transitionable, now).
		Find(&due).Error
	return due, err
}

func isTransitionable(status models.MonitorStatus) bool {
	for _, s := range transitionable {
		if s == status {
			return true
		}
	}
	return false
}
