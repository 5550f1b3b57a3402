package service

import (
	"context"
	"errors"

	"stride/internal/images"
	"stride/internal/models"
	"stride/internal/repository"
	"stride/internal/validation"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

type UserService struct {
	userRepo   repository.UserRepository
	relRepo    repository.RelationshipRepository
	avatarRepo repository.AvatarRepository
}

// Profile is a user's public card with social counts and the viewer's
// relationship toward them.
type Profile struct {
	User             models.User             `json:"user"`
	AvatarPath       string                  `json:"avatar_path,omitempty"`
	Followers        int64                   `json:"followers"`
	Following        int64                   `json:"following"`
	RelationshipType models.RelationshipType `json:"relationship_type,omitempty"`
}

// UserSearchResult is a matched user annotated with the viewer's
// relationship toward them.
type UserSearchResult struct {
	User             models.User             `json:"user"`
	RelationshipType models.RelationshipType `json:"relationship_type,omitempty"`
}

type UpdateProfileInput struct {
	UserID         uint
	DisplayName    string
	Description    *string
	AvatarName     string
	ProfilePicture []byte
}

func NewUserService(
	userRepo repository.UserRepository,
	relRepo repository.RelationshipRepository,
	avatarRepo repository.AvatarRepository,
) *UserService {
	return &UserService{userRepo: userRepo, relRepo: relRepo, avatarRepo: avatarRepo}
}

// GetProfile assembles a user's profile as seen by the viewer. The social
// counts and relationship lookup are independent reads and run concurrently.
func (s *UserService) GetProfile(ctx context.Context, viewerID, userID uint) (*Profile, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, wrapStorage(err, "User", userID)
	}

	profile := &Profile{User: *user}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		n, err := s.relRepo.CountFollowers(gctx, userID)
		if err != nil {
			return models.NewStorageError(err)
		}
		profile.Followers = n
		return nil
	})

	g.Go(func() error {
		n, err := s.relRepo.CountFollowing(gctx, userID)
		if err != nil {
			return models.NewStorageError(err)
		}
		profile.Following = n
		return nil
	})

	g.Go(func() error {
		if viewerID == 0 || viewerID == userID {
			return nil
		}
		rels, err := s.relRepo.GetRelationshipMap(gctx, viewerID, []uint{userID})
		if err != nil {
			return models.NewStorageError(err)
		}
		profile.RelationshipType = rels[userID]
		return nil
	})

	g.Go(func() error {
		if user.AvatarName == "" {
			return nil
		}
		avatar, err := s.avatarRepo.GetByName(gctx, user.AvatarName)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return models.NewStorageError(err)
		}
		profile.AvatarPath = avatar.ImagePath
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return profile, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, wrapStorage(err, "User", in.UserID)
	}

	if in.DisplayName != "" {
		if err := validation.ValidateDisplayName(in.DisplayName); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		user.DisplayName = in.DisplayName
	}
	if in.Description != nil {
		const maxDescriptionLen = 500
		if len(*in.Description) > maxDescriptionLen {
			return nil, models.NewValidationError("Description too long (max 500 characters)")
		}
		user.Description = *in.Description
	}
	if in.AvatarName != "" {
		if _, err := s.avatarRepo.GetByName(ctx, in.AvatarName); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, models.NewValidationError("Unknown avatar name")
			}
			return nil, models.NewStorageError(err)
		}
		user.AvatarName = in.AvatarName
	}
	if len(in.ProfilePicture) > 0 {
		processed, err := images.ProcessProfilePicture(in.ProfilePicture)
		if err != nil {
			return nil, models.NewValidationError("Invalid profile picture: " + err.Error())
		}
		user.ProfilePicture = processed
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, models.NewStorageError(err)
	}
	return user, nil
}

// SearchUsers returns users matching the query, each annotated with the
// viewer's relationship toward them.
func (s *UserService) SearchUsers(ctx context.Context, viewerID uint, query string, limit, offset int) ([]UserSearchResult, error) {
	if query == "" {
		return nil, models.NewValidationError("Search query is required")
	}

	users, err := s.userRepo.Search(ctx, query, limit, offset)
	if err != nil {
		return nil, models.NewStorageError(err)
	}

	ids := make([]uint, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}

	rels := map[uint]models.RelationshipType{}
	if viewerID != 0 && len(ids) > 0 {
		rels, err = s.relRepo.GetRelationshipMap(ctx, viewerID, ids)
		if err != nil {
			return nil, models.NewStorageError(err)
		}
	}

	results := make([]UserSearchResult, 0, len(users))
	for _, u := range users {
		r := UserSearchResult{User: *u}
		if u.ID != viewerID {
			r.RelationshipType = rels[u.ID]
		}
		results = append(results, r)
	}
	return results, nil
}

// ListAvatars returns the avatar catalog as name to image path.
func (s *UserService) ListAvatars(ctx context.Context) (map[string]string, error) {
	all, err := s.avatarRepo.GetAll(ctx)
	if err != nil {
		return nil, models.NewStorageError(err)
	}
	return all, nil
}
