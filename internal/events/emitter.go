package events

import (
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/cronwatch-dev/cronwatch/internal/models"
)

// Observer is notified after a failure event has been recorded. Observers
// must not block; delivery beyond the process (webhooks, email) is outside
// this module.
type Observer interface {
	MonitorFailed(event models.FailureEvent, monitor models.Monitor)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(event models.FailureEvent, monitor models.Monitor)

func (f ObserverFunc) MonitorFailed(event models.FailureEvent, monitor models.Monitor) {
	f(event, monitor)
}

// Emitter records failure events and fans them out to registered
// observers. It implements the core's FailureNotifier, so event creation
// commits inside the same transaction as the monitor transition.
type Emitter struct {
	observers []Observer
}

func NewEmitter(observers ...Observer) *Emitter {
	return &Emitter{observers: observers}
}

func (e *Emitter) MonitorFailed(tx *gorm.DB, monitor models.Monitor, message string) {
	event := models.FailureEvent{
		MonitorID: monitor.ID,
		ProjectID: monitor.ProjectID,
		Message:   message,
	}

	if err := tx.Create(&event).Error; err != nil {
		log.Error().Err(err).Uint("monitor", monitor.ID).Msg("Failed to record failure event")
		return
	}

	for _, observer := range e.observers {
		observer.MonitorFailed(event, monitor)
	}
}
