package models

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type CheckInStatus int

const (
	CheckInStatusUnknown CheckInStatus = iota
	CheckInStatusSuccess
	CheckInStatusFailure
	CheckInStatusInProgress
)

var checkInStatusNames = map[CheckInStatus]string{
	CheckInStatusUnknown:    "unknown",
	CheckInStatusSuccess:    "success",
	CheckInStatusFailure:    "failure",
	CheckInStatusInProgress: "in_progress",
}

func (s CheckInStatus) String() string {
	if name, ok := checkInStatusNames[s]; ok {
		return name
	}
	return "unknown"
}

// Terminal reports whether the check-in has reached a final outcome.
// Terminal check-ins can no longer be amended.
func (s CheckInStatus) Terminal() bool {
	return s == CheckInStatusSuccess || s == CheckInStatusFailure
}

// ParseCheckInStatus maps a reported status label to its enum value.
// Only success, failure and in_progress are reportable by callers.
func ParseCheckInStatus(name string) (CheckInStatus, bool) {
	switch name {
	case "success":
		return CheckInStatusSuccess, true
	case "failure":
		return CheckInStatusFailure, true
	case "in_progress":
		return CheckInStatusInProgress, true
	}
	return CheckInStatusUnknown, false
}

type CheckIn struct {
	BaseModel

	GUID       string        `gorm:"uniqueIndex;size:32;not null"`
	ProjectID  uint          `gorm:"not null;index"`
	MonitorID  uint          `gorm:"not null;index"`
	LocationID *uint         `gorm:"index"`
	Status     CheckInStatus `gorm:"not null;default:0"`
	// Config snapshots the monitor's schedule config at report time.
	Config   datatypes.JSON
	Duration *int

	// Relationships
	Monitor  Monitor          `gorm:"foreignKey:MonitorID;constraint:OnUpdate:Cascade,OnDelete:CASCADE" json:"-"`
	Location *MonitorLocation `gorm:"foreignKey:LocationID" json:"-"`
}

func (c *CheckIn) BeforeCreate(tx *gorm.DB) error {
	if c.GUID == "" {
		c.GUID = NewGUID()
	}
	return nil
}
