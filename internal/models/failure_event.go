package models

// FailureEvent is the synthetic event raised when a monitor transitions to
// failing, either from a reported failure check-in or from the sweeper
// detecting a missed check-in. Delivery of the event is external; the core
// only records it.
type FailureEvent struct {
	BaseModel

	MonitorID uint   `gorm:"not null;index"`
	ProjectID uint   `gorm:"not null;index"`
	Message   string `gorm:"not null"`

	// Relationships
	Monitor Monitor `gorm:"foreignKey:MonitorID;constraint:OnUpdate:Cascade,OnDelete:CASCADE" json:"-"`
}
