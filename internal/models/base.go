package models

import "time"

// BaseModel is gorm.Model without soft deletes. Budget trees are replaced
// with hard deletes and unique columns must stay reusable.
type BaseModel struct {
	ID        uint `gorm:"primarykey"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
