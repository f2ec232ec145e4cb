package models

import (
	"encoding/hex"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BaseModel struct {
	ID        uint `gorm:"primarykey"`
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// NewGUID returns a 32-char hex identifier safe to expose externally,
// distinct from the numeric row id.
func NewGUID() string {
	u := uuid.New()
	return hex.EncodeToString(u[:])
}
