package repository

import (
	"context"

	"stride/internal/models"

	"gorm.io/gorm"
)

// ReplyRepository defines the interface for reply data operations.
// Every reply row carries the root comment id of its tree, so whole-tree
// reads never need recursive queries.
type ReplyRepository interface {
	Create(ctx context.Context, reply *models.Reply) error
	GetByID(ctx context.Context, id uint) (*models.Reply, error)
	ListTopLevel(ctx context.Context, commentID uint) ([]*models.Reply, error)
	ListChildren(ctx context.Context, parentReplyID uint) ([]*models.Reply, error)
	ListByRootComment(ctx context.Context, commentID uint) ([]*models.Reply, error)
	CountByCommentIDs(ctx context.Context, commentIDs []uint) (map[uint]int64, error)
	CountByPostIDs(ctx context.Context, postIDs []uint) (map[uint]int64, error)
}

type replyRepository struct {
	db *gorm.DB
}

// NewReplyRepository creates a new reply repository
func NewReplyRepository(db *gorm.DB) ReplyRepository {
	return &replyRepository{db: db}
}

func (r *replyRepository) Create(ctx context.Context, reply *models.Reply) error {
	return r.db.WithContext(ctx).Create(reply).Error
}

func (r *replyRepository) GetByID(ctx context.Context, id uint) (*models.Reply, error) {
	var reply models.Reply
	if err := r.db.WithContext(ctx).Preload("User").First(&reply, id).Error; err != nil {
		return nil, err
	}
	return &reply, nil
}

func (r *replyRepository) ListTopLevel(ctx context.Context, commentID uint) ([]*models.Reply, error) {
	var replies []*models.Reply
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("comment_id = ? AND reply_id IS NULL", commentID).
		Order("created_at ASC").
		Find(&replies).Error
	if err != nil {
		return nil, err
	}
	return replies, nil
}

func (r *replyRepository) ListChildren(ctx context.Context, parentReplyID uint) ([]*models.Reply, error) {
	var replies []*models.Reply
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("reply_id = ?", parentReplyID).
		Order("created_at ASC").
		Find(&replies).Error
	if err != nil {
		return nil, err
	}
	return replies, nil
}

// ListByRootComment returns every reply in the comment's tree in a single
// query, regardless of nesting depth.
func (r *replyRepository) ListByRootComment(ctx context.Context, commentID uint) ([]*models.Reply, error) {
	var replies []*models.Reply
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("comment_id = ?", commentID).
		Order("created_at ASC").
		Find(&replies).Error
	if err != nil {
		return nil, err
	}
	return replies, nil
}

type commentCount struct {
	CommentID uint
	Count     int64
}

func (r *replyRepository) CountByCommentIDs(ctx context.Context, commentIDs []uint) (map[uint]int64, error) {
	counts := make(map[uint]int64, len(commentIDs))
	if len(commentIDs) == 0 {
		return counts, nil
	}

	var rows []commentCount
	err := r.db.WithContext(ctx).
		Model(&models.Reply{}).
		Select("comment_id, COUNT(*) as count").
		Where("comment_id IN ?", commentIDs).
		Group("comment_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		counts[row.CommentID] = row.Count
	}
	return counts, nil
}

func (r *replyRepository) CountByPostIDs(ctx context.Context, postIDs []uint) (map[uint]int64, error) {
	counts := make(map[uint]int64, len(postIDs))
	if len(postIDs) == 0 {
		return counts, nil
	}

	var rows []postCount
	err := r.db.WithContext(ctx).
		Model(&models.Reply{}).
		Select("comments.post_id as post_id, COUNT(replies.id) as count").
		Joins("JOIN comments ON comments.id = replies.comment_id").
		Where("comments.post_id IN ?", postIDs).
		Group("comments.post_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		counts[row.PostID] = row.Count
	}
	return counts, nil
}
