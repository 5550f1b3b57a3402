// Package models contains data structures for the application's domain models.
package models

import "time"

// RelationshipType represents the kind of directed relationship one user has
// declared toward another.
type RelationshipType string

const (
	// RelationshipFollowing indicates the user follows the related user.
	RelationshipFollowing RelationshipType = "following"
)

// Relationship is a directed edge from UserID toward RelatedUserID. At most
// one row may exist per (user, related user, type); the composite unique
// index makes concurrent duplicate follows collapse into a single row.
type Relationship struct {
	ID               uint             `gorm:"primaryKey" json:"id"`
	UserID           uint             `gorm:"not null;uniqueIndex:idx_relationship_edge" json:"user_id"`
	RelatedUserID    uint             `gorm:"not null;uniqueIndex:idx_relationship_edge" json:"related_user_id"`
	RelationshipType RelationshipType `gorm:"type:varchar(20);not null;uniqueIndex:idx_relationship_edge" json:"relationship_type"`
	CreatedAt        time.Time        `json:"created_at"`

	// Relationships
	User        User `gorm:"foreignKey:UserID" json:"user,omitempty"`
	RelatedUser User `gorm:"foreignKey:RelatedUserID" json:"related_user,omitempty"`
}

// TableName specifies the table name for GORM
func (Relationship) TableName() string {
	return "user_relationships"
}
