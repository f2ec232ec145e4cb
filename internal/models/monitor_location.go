package models

import "gorm.io/gorm"

// MonitorLocation is a named reporting origin (data center, agent identity)
// that check-ins may reference. Reference data only.
type MonitorLocation struct {
	BaseModel

	GUID string `gorm:"uniqueIndex;size:32;not null"`
	Name string `gorm:"uniqueIndex;not null"`
}

func (l *MonitorLocation) BeforeCreate(tx *gorm.DB) error {
	if l.GUID == "" {
		l.GUID = NewGUID()
	}
	return nil
}
