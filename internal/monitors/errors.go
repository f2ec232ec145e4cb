package monitors

import "errors"

var (
	// ErrInvalidSchedule is returned when a monitor's cron expression does
	// not parse. Monitor creation rejects it up front; the sweeper treats an
	// already-stored malformed schedule as skip-and-log.
	ErrInvalidSchedule = errors.New("invalid cron schedule")

	// ErrInvalidCheckInStatus is returned when a caller reports a status
	// other than success, failure or in_progress.
	ErrInvalidCheckInStatus = errors.New("invalid check-in status")

	// ErrInvalidDuration is returned for a negative reported duration.
	ErrInvalidDuration = errors.New("invalid check-in duration")

	// ErrCheckInFinished is returned when amending a check-in whose status
	// is already terminal.
	ErrCheckInFinished = errors.New("check-in already finished")

	// ErrStaleWrite is returned after the bounded retries of a conditional
	// monitor update are exhausted.
	ErrStaleWrite = errors.New("monitor changed concurrently")
)
