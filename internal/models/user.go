// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"gorm.io/gorm"
)

// User represents a registered account in the Stride application.
type User struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	Email          string         `gorm:"unique;not null" json:"email"`
	Password       string         `gorm:"not null" json:"-"`
	DisplayName    string         `gorm:"not null" json:"display_name"`
	Description    string         `json:"description"`
	AvatarName     string         `json:"avatar"`
	ProfilePicture []byte         `gorm:"type:bytea" json:"-"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
	Posts          []Post         `gorm:"foreignKey:UserID" json:"posts,omitempty"`
}

// HasProfilePicture reports whether the user uploaded a custom profile picture.
func (u *User) HasProfilePicture() bool {
	return len(u.ProfilePicture) > 0
}
