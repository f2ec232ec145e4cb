package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/cronwatch-dev/cronwatch/internal/monitors"
)

// Sweeper periodically scans for monitors whose expected check-in has
// elapsed and transitions them to failing. Detection is purely poll-based;
// the sweep interval must be finer than the tightest monitor's grace
// margin.
type Sweeper struct {
	db       *gorm.DB
	notifier monitors.FailureNotifier
	interval time.Duration
	ctx      context.Context
	cancel   context.CancelFunc
}

func NewSweeper(db *gorm.DB, notifier monitors.FailureNotifier, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Sweeper{
		db:       db,
		notifier: notifier,
		interval: interval,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start begins the periodic sweep loop.
func (s *Sweeper) Start() {
	log.Info().Dur("interval", s.interval).Msg("Starting missed check-in sweeper")

	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.Sweep(time.Now())
			}
		}
	}()
}

// Stop shuts down the sweep loop.
func (s *Sweeper) Stop() {
	s.cancel()
	log.Info().Msg("Sweeper stopped")
}

// Sweep performs one scan at the given reference time and returns the
// number of monitors transitioned to failing. Each monitor is handled
// independently: a malformed schedule or transient store error is logged
// and skipped, never aborting the batch, and a conditional-update miss
// means a concurrent check-in won the race.
func (s *Sweeper) Sweep(now time.Time) int {
	due, err := monitors.ListDue(s.db, now)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list overdue monitors")
		return 0
	}

	count := 0
	for _, monitor := range due {
		// The monitor update and the failure event it raises commit
		// together, same as the ingestion path.
		var ok bool
		err := s.db.Transaction(func(tx *gorm.DB) error {
			var txErr error
			ok, txErr = monitors.MarkFailed(tx, monitor, &now, now, s.notifier)
			return txErr
		})
		if err != nil {
			if errors.Is(err, monitors.ErrInvalidSchedule) {
				log.Warn().Uint("monitor", monitor.ID).Err(err).Msg("Skipping monitor with malformed schedule")
			} else {
				log.Error().Uint("monitor", monitor.ID).Err(err).Msg("Failed to mark monitor as failing")
			}
			continue
		}
		if ok {
			count++
		}
	}

	if count > 0 {
		log.Info().Int("transitioned", count).Time("now", now).Msg("Sweep flagged overdue monitors")
	}
	return count
}

// Global sweeper instance
var globalSweeper *Sweeper

// Initialize creates and starts the global sweeper.
func Initialize(db *gorm.DB, notifier monitors.FailureNotifier, interval time.Duration) {
	globalSweeper = NewSweeper(db, notifier, interval)
	globalSweeper.Start()
}

// Shutdown stops the global sweeper.
func Shutdown() {
	if globalSweeper != nil {
		globalSweeper.Stop()
	}
}
