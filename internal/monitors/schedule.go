package monitors

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/cronwatch-dev/cronwatch/internal/models"
)

// Standard five-field cron: minute, hour, day-of-month, month, day-of-week.
var scheduleParser = cron.NewParser(
	cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow,
)

// ValidateSchedule checks that a cron expression parses.
func ValidateSchedule(schedule string) error {
	if _, err := scheduleParser.Parse(schedule); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSchedule, err)
	}
	return nil
}

// NextCheckIn computes the earliest cron-matching instant strictly after
// from, plus the grace margin in minutes.
func NextCheckIn(schedule string, from time.Time, marginMinutes int) (time.Time, error) {
	sched, err := scheduleParser.Parse(schedule)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrInvalidSchedule, err)
	}
	if marginMinutes < 0 {
		marginMinutes = 0
	}
	return sched.Next(from).Add(time.Duration(marginMinutes) * time.Minute), nil
}

// NextScheduledCheckIn computes a monitor's next expected check-in from the
// given reference time, using the monitor's stored config.
func NextScheduledCheckIn(monitor models.Monitor, from time.Time) (time.Time, error) {
	cfg, err := ParseConfig(monitor.Config)
	if err != nil {
		return time.Time{}, err
	}
	return NextCheckIn(cfg.Schedule, from, cfg.CheckInMargin)
}
