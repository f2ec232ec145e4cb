package models

import "gorm.io/gorm"

type Organization struct {
	gorm.Model

	Name string `gorm:"not null"`
	// MonitorsEnabled gates the check-in surface for the whole organization.
	MonitorsEnabled bool `gorm:"default:true"`

	// Relationships
	Projects []Project `gorm:"foreignKey:OrganizationID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
