package service

import (
	"context"

	"stride/internal/models"
	"stride/internal/repository"
)

// SocialService manages follow and bookmark edges. All operations are
// idempotent: repeating one leaves storage exactly as a single application
// would, and duplicates are silent no-op successes.
type SocialService struct {
	userRepo     repository.UserRepository
	postRepo     repository.PostRepository
	relRepo      repository.RelationshipRepository
	bookmarkRepo repository.BookmarkRepository
}

func NewSocialService(
	userRepo repository.UserRepository,
	postRepo repository.PostRepository,
	relRepo repository.RelationshipRepository,
	bookmarkRepo repository.BookmarkRepository,
) *SocialService {
	return &SocialService{
		userRepo:     userRepo,
		postRepo:     postRepo,
		relRepo:      relRepo,
		bookmarkRepo: bookmarkRepo,
	}
}

func (s *SocialService) Follow(ctx context.Context, userID, targetID uint) error {
	if userID == targetID {
		return models.NewValidationError("Cannot follow yourself")
	}
	if _, err := s.userRepo.GetByID(ctx, targetID); err != nil {
		return wrapStorage(err, "User", targetID)
	}
	if err := s.relRepo.Follow(ctx, userID, targetID); err != nil {
		return models.NewStorageError(err)
	}
	return nil
}

// Unfollow removes the follow edge. Unfollowing someone not followed is a
// no-op success.
func (s *SocialService) Unfollow(ctx context.Context, userID, targetID uint) error {
	if err := s.relRepo.Unfollow(ctx, userID, targetID); err != nil {
		return models.NewStorageError(err)
	}
	return nil
}

func (s *SocialService) Bookmark(ctx context.Context, userID, postID uint) error {
	if _, err := s.postRepo.GetByID(ctx, postID); err != nil {
		return wrapStorage(err, "Post", postID)
	}
	if err := s.bookmarkRepo.Bookmark(ctx, userID, postID); err != nil {
		return models.NewStorageError(err)
	}
	return nil
}

// Unbookmark removes the bookmark. Removing a bookmark that does not exist
// is a no-op success.
func (s *SocialService) Unbookmark(ctx context.Context, userID, postID uint) error {
	if err := s.bookmarkRepo.Unbookmark(ctx, userID, postID); err != nil {
		return models.NewStorageError(err)
	}
	return nil
}
