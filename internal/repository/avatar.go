package repository

import (
	"context"

	"stride/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AvatarRepository defines the interface for avatar catalog operations
type AvatarRepository interface {
	Upsert(ctx context.Context, avatars []models.Avatar) error
	GetByName(ctx context.Context, name string) (*models.Avatar, error)
	GetAll(ctx context.Context) (map[string]string, error)
}

type avatarRepository struct {
	db *gorm.DB
}

// NewAvatarRepository creates a new avatar repository
func NewAvatarRepository(db *gorm.DB) AvatarRepository {
	return &avatarRepository{db: db}
}

// Upsert syncs catalog rows, updating image paths for existing names.
func (r *avatarRepository) Upsert(ctx context.Context, avatars []models.Avatar) error {
	if len(avatars) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "avatar_name"}},
			DoUpdates: clause.AssignmentColumns([]string{"image_path"}),
		}).
		Create(&avatars).Error
}

func (r *avatarRepository) GetByName(ctx context.Context, name string) (*models.Avatar, error) {
	var avatar models.Avatar
	if err := r.db.WithContext(ctx).Where("avatar_name = ?", name).First(&avatar).Error; err != nil {
		return nil, err
	}
	return &avatar, nil
}

func (r *avatarRepository) GetAll(ctx context.Context) (map[string]string, error) {
	var avatars []models.Avatar
	if err := r.db.WithContext(ctx).Find(&avatars).Error; err != nil {
		return nil, err
	}
	result := make(map[string]string, len(avatars))
	for _, a := range avatars {
		result[a.AvatarName] = a.ImagePath
	}
	return result, nil
}
