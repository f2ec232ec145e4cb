package monitors

import (
	"gorm.io/gorm"

	"github.com/cronwatch-dev/cronwatch/internal/models"
)

// FailureNotifier receives the synthetic failure event raised when a monitor
// transitions to failing. It is invoked synchronously inside the transition's
// transaction, at most once per successful transition. Implementations own
// persistence and fan-out of the event; the core only raises the signal.
type FailureNotifier interface {
	MonitorFailed(tx *gorm.DB, monitor models.Monitor, message string)
}

// NotifierFunc adapts a function to the FailureNotifier interface.
type NotifierFunc func(tx *gorm.DB, monitor models.Monitor, message string)

func (f NotifierFunc) MonitorFailed(tx *gorm.DB, monitor models.Monitor, message string) {
	f(tx, monitor, message)
}
