package thread

import (
	"context"
	"errors"

	"stride/internal/models"
	"stride/internal/repository"

	"gorm.io/gorm"
)

// ReplyNode is a reply together with the size of the subtree below it.
type ReplyNode struct {
	Reply           *models.Reply `json:"reply"`
	DescendantCount int           `json:"descendant_count"`
}

// Resolver loads reply trees and answers hierarchy questions for comments
// and replies.
type Resolver struct {
	comments repository.CommentRepository
	replies  repository.ReplyRepository
}

// NewResolver creates a hierarchy resolver over the given repositories.
func NewResolver(comments repository.CommentRepository, replies repository.ReplyRepository) *Resolver {
	return &Resolver{comments: comments, replies: replies}
}

// ForestFor loads the complete reply tree of a comment and builds its
// hierarchy. Returns NOT_FOUND when the comment does not exist.
func (r *Resolver) ForestFor(ctx context.Context, commentID uint) (*Forest, []*models.Reply, error) {
	if _, err := r.comments.GetByID(ctx, commentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, models.NewNotFoundError("Comment", commentID)
		}
		return nil, nil, models.NewStorageError(err)
	}

	rows, err := r.replies.ListByRootComment(ctx, commentID)
	if err != nil {
		return nil, nil, models.NewStorageError(err)
	}

	edges := make([]Edge, 0, len(rows))
	for _, row := range rows {
		edges = append(edges, EdgeOf(row))
	}
	return BuildForest(commentID, edges), rows, nil
}

// TopLevelReplies returns the direct replies of a comment with their
// descendant counts. A comment with no replies yields an empty slice.
func (r *Resolver) TopLevelReplies(ctx context.Context, commentID uint) ([]ReplyNode, error) {
	forest, rows, err := r.ForestFor(ctx, commentID)
	if err != nil {
		return nil, err
	}
	return nodesFor(forest, rows, forest.TopLevel()), nil
}

// GetReply fetches a single reply. Returns NOT_FOUND when it does not exist.
func (r *Resolver) GetReply(ctx context.Context, replyID uint) (*models.Reply, error) {
	reply, err := r.replies.GetByID(ctx, replyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Reply", replyID)
		}
		return nil, models.NewStorageError(err)
	}
	return reply, nil
}

// ChildReplies returns the direct children of a reply with their descendant
// counts. Returns NOT_FOUND when the reply does not exist.
func (r *Resolver) ChildReplies(ctx context.Context, replyID uint) ([]ReplyNode, error) {
	parent, err := r.GetReply(ctx, replyID)
	if err != nil {
		return nil, err
	}

	forest, rows, err := r.ForestFor(ctx, parent.CommentID)
	if err != nil {
		return nil, err
	}
	return nodesFor(forest, rows, forest.Children(replyID)), nil
}

func nodesFor(forest *Forest, rows []*models.Reply, ids []uint) []ReplyNode {
	byID := make(map[uint]*models.Reply, len(rows))
	for _, row := range rows {
		byID[row.ID] = row
	}

	nodes := make([]ReplyNode, 0, len(ids))
	for _, id := range ids {
		row, ok := byID[id]
		if !ok {
			continue
		}
		nodes = append(nodes, ReplyNode{
			Reply:           row,
			DescendantCount: forest.DescendantCount(id),
		})
	}
	return nodes
}

// ReplyTotals returns the total reply count (all depths) per comment.
func (r *Resolver) ReplyTotals(ctx context.Context, commentIDs []uint) (map[uint]int64, error) {
	counts, err := r.replies.CountByCommentIDs(ctx, commentIDs)
	if err != nil {
		return nil, models.NewStorageError(err)
	}
	return counts, nil
}

// ThreadTotals returns the combined comment and reply count per post. This
// is the discussion size a feed entry advertises.
func (r *Resolver) ThreadTotals(ctx context.Context, postIDs []uint) (map[uint]int64, error) {
	commentCounts, err := r.comments.CountByPostIDs(ctx, postIDs)
	if err != nil {
		return nil, models.NewStorageError(err)
	}
	replyCounts, err := r.replies.CountByPostIDs(ctx, postIDs)
	if err != nil {
		return nil, models.NewStorageError(err)
	}

	totals := make(map[uint]int64, len(postIDs))
	for _, id := range postIDs {
		totals[id] = commentCounts[id] + replyCounts[id]
	}
	return totals, nil
}
