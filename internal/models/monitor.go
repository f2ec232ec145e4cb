package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type MonitorStatus int

const (
	MonitorStatusActive MonitorStatus = iota
	MonitorStatusDisabled
	MonitorStatusPendingDeletion
	MonitorStatusDeletionInProgress
	MonitorStatusFailing
)

var monitorStatusNames = map[MonitorStatus]string{
	MonitorStatusActive:             "active",
	MonitorStatusDisabled:           "disabled",
	MonitorStatusPendingDeletion:    "pending_deletion",
	MonitorStatusDeletionInProgress: "deletion_in_progress",
	MonitorStatusFailing:            "failing",
}

func (s MonitorStatus) String() string {
	if name, ok := monitorStatusNames[s]; ok {
		return name
	}
	return "unknown"
}

type MonitorType int

const (
	MonitorTypeUnknown MonitorType = iota
	MonitorTypeHealthCheck
	MonitorTypeHeartbeat
	MonitorTypeCronJob
)

var monitorTypeNames = map[MonitorType]string{
	MonitorTypeUnknown:     "unknown",
	MonitorTypeHealthCheck: "health_check",
	MonitorTypeHeartbeat:   "heartbeat",
	MonitorTypeCronJob:     "cron_job",
}

func (t MonitorType) String() string {
	if name, ok := monitorTypeNames[t]; ok {
		return name
	}
	return "unknown"
}

// ParseMonitorType maps an external type label to its enum value.
func ParseMonitorType(name string) (MonitorType, bool) {
	for t, n := range monitorTypeNames {
		if n == name {
			return t, true
		}
	}
	return MonitorTypeUnknown, false
}

type Monitor struct {
	BaseModel

	GUID           string        `gorm:"uniqueIndex;size:32;not null"`
	OrganizationID uint          `gorm:"not null;index"`
	ProjectID      uint          `gorm:"not null;index"`
	Name           string        `gorm:"not null"`
	Status         MonitorStatus `gorm:"not null;default:0"`
	Type           MonitorType   `gorm:"not null;default:0"`
	Config         datatypes.JSON
	NextCheckIn    *time.Time `gorm:"column:next_checkin;index"`
	LastCheckIn    *time.Time `gorm:"column:last_checkin"`

	// Relationships
	Project       Project        `gorm:"foreignKey:ProjectID;constraint:OnUpdate:Cascade,OnDelete:CASCADE" json:"-"`
	CheckIns      []CheckIn      `gorm:"foreignKey:MonitorID;constraint:OnUpdate:Cascade,OnDelete:CASCADE" json:"-"`
	FailureEvents []FailureEvent `gorm:"foreignKey:MonitorID;constraint:OnUpdate:Cascade,OnDelete:CASCADE" json:"-"`
}

func (m *Monitor) BeforeCreate(tx *gorm.DB) error {
	if m.GUID == "" {
		m.GUID = NewGUID()
	}
	return nil
}
