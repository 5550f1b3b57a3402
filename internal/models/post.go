// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"gorm.io/gorm"
)

// Post represents an activity posted by a user. An activity starts out
// ongoing (IsActive) and is flipped to completed exactly once by its owner;
// posts are never deleted through the API.
type Post struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Activity  string         `gorm:"type:text;not null" json:"activity"`
	UserID    uint           `gorm:"not null;index" json:"user_id"`
	User      User           `gorm:"foreignKey:UserID" json:"user"`
	IsActive  bool           `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
