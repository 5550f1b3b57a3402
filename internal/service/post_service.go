package service

import (
	"context"
	"errors"
	"strings"

	"stride/internal/cache"
	"stride/internal/models"
	"stride/internal/repository"

	"gorm.io/gorm"
)

// EventPublisher pushes feed events to connected clients. A nil publisher
// disables realtime delivery without affecting writes.
type EventPublisher interface {
	PublishFeed(ctx context.Context, eventType string, payload any) error
}

// Feed event types pushed over the realtime channel.
const (
	EventPostCreated   = "post_created"
	EventPostCompleted = "post_completed"
	EventCommentAdded  = "comment_added"
	EventReplyAdded    = "reply_added"
)

type PostService struct {
	postRepo    repository.PostRepository
	commentRepo repository.CommentRepository
	replyRepo   repository.ReplyRepository
	events      EventPublisher
}

type CreatePostInput struct {
	UserID   uint
	Activity string
}

type CreateCommentInput struct {
	UserID  uint
	PostID  uint
	Message string
}

type CreateReplyInput struct {
	UserID        uint
	CommentID     uint
	ParentReplyID *uint
	Message       string
}

func NewPostService(
	postRepo repository.PostRepository,
	commentRepo repository.CommentRepository,
	replyRepo repository.ReplyRepository,
	events EventPublisher,
) *PostService {
	return &PostService{
		postRepo:    postRepo,
		commentRepo: commentRepo,
		replyRepo:   replyRepo,
		events:      events,
	}
}

const maxActivityLen = 5000
const maxMessageLen = 10000

func (s *PostService) publish(ctx context.Context, eventType string, payload any) {
	if s.events == nil {
		return
	}
	// Realtime delivery is best-effort; the write already succeeded.
	_ = s.events.PublishFeed(ctx, eventType, payload)
}

func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	activity := strings.TrimSpace(in.Activity)
	if activity == "" {
		return nil, models.NewValidationError("Activity is required")
	}
	if len(activity) > maxActivityLen {
		return nil, models.NewValidationError("Activity too long (max 5000 characters)")
	}

	post := &models.Post{
		Activity: activity,
		UserID:   in.UserID,
		IsActive: true,
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, models.NewStorageError(err)
	}

	cache.InvalidateHomeFeed(ctx, in.UserID)
	s.publish(ctx, EventPostCreated, post)
	return post, nil
}

// CompleteActivity marks a post as no longer ongoing. Completing a post that
// is already completed is a no-op success.
func (s *PostService) CompleteActivity(ctx context.Context, userID, postID uint) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, wrapStorage(err, "Post", postID)
	}
	if post.UserID != userID {
		return nil, models.NewUnauthorizedError("Only the owner can complete an activity")
	}
	if !post.IsActive {
		return post, nil
	}

	if err := s.postRepo.Complete(ctx, postID); err != nil {
		return nil, wrapStorage(err, "Post", postID)
	}
	post.IsActive = false

	cache.InvalidateHomeFeed(ctx, userID)
	s.publish(ctx, EventPostCompleted, post)
	return post, nil
}

func (s *PostService) DeletePost(ctx context.Context, userID, postID uint) error {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return wrapStorage(err, "Post", postID)
	}
	if post.UserID != userID {
		return models.NewUnauthorizedError("Only the owner can delete a post")
	}
	if err := s.postRepo.Delete(ctx, postID); err != nil {
		return models.NewStorageError(err)
	}
	return nil
}

func (s *PostService) CreateComment(ctx context.Context, in CreateCommentInput) (*models.Comment, error) {
	message := strings.TrimSpace(in.Message)
	if message == "" {
		return nil, models.NewValidationError("Message is required")
	}
	if len(message) > maxMessageLen {
		return nil, models.NewValidationError("Message too long (max 10000 characters)")
	}

	if _, err := s.postRepo.GetByID(ctx, in.PostID); err != nil {
		return nil, wrapStorage(err, "Post", in.PostID)
	}

	comment := &models.Comment{
		Message: message,
		PostID:  in.PostID,
		UserID:  in.UserID,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, models.NewStorageError(err)
	}

	cache.InvalidatePost(ctx, in.PostID)
	s.publish(ctx, EventCommentAdded, comment)
	return comment, nil
}

// CreateReply adds a reply under a comment. A nested reply names its parent
// reply and inherits the parent's root comment, so the whole tree stays
// reachable from one comment id.
func (s *PostService) CreateReply(ctx context.Context, in CreateReplyInput) (*models.Reply, error) {
	message := strings.TrimSpace(in.Message)
	if message == "" {
		return nil, models.NewValidationError("Message is required")
	}
	if len(message) > maxMessageLen {
		return nil, models.NewValidationError("Message too long (max 10000 characters)")
	}

	commentID := in.CommentID
	if in.ParentReplyID != nil {
		parent, err := s.replyRepo.GetByID(ctx, *in.ParentReplyID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, models.NewNotFoundError("Reply", *in.ParentReplyID)
			}
			return nil, models.NewStorageError(err)
		}
		if commentID != 0 && commentID != parent.CommentID {
			return nil, models.NewValidationError("Parent reply belongs to a different comment")
		}
		commentID = parent.CommentID
	} else if _, err := s.commentRepo.GetByID(ctx, commentID); err != nil {
		return nil, wrapStorage(err, "Comment", commentID)
	}

	reply := &models.Reply{
		Message:       message,
		CommentID:     commentID,
		ParentReplyID: in.ParentReplyID,
		UserID:        in.UserID,
	}
	if err := s.replyRepo.Create(ctx, reply); err != nil {
		return nil, models.NewStorageError(err)
	}

	cache.InvalidateThread(ctx, commentID)
	s.publish(ctx, EventReplyAdded, reply)
	return reply, nil
}
