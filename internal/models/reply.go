// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"gorm.io/gorm"
)

// Reply is a node in the reply forest under a comment. CommentID always
// references the root comment of the tree the reply belongs to; ParentReplyID
// is nil for top-level replies (direct children of the comment) and set for
// nested replies. The parent chain is acyclic and terminates at the comment.
type Reply struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	Message       string         `gorm:"type:text;not null" json:"message"`
	CommentID     uint           `gorm:"not null;index" json:"comment_id"`
	Comment       Comment        `gorm:"foreignKey:CommentID" json:"comment,omitempty"`
	ParentReplyID *uint          `gorm:"column:reply_id;index" json:"parent_reply_id,omitempty"`
	UserID        uint           `gorm:"not null" json:"user_id"`
	User          User           `gorm:"foreignKey:UserID" json:"user"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for GORM
func (Reply) TableName() string {
	return "replies"
}

// IsTopLevel reports whether the reply is a direct child of its comment.
func (r *Reply) IsTopLevel() bool {
	return r.ParentReplyID == nil
}
