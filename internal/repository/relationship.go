package repository

import (
	"context"

	"stride/internal/models"

	"gorm.io/gorm"
)

// RelationshipRepository defines the interface for follow-edge data operations
type RelationshipRepository interface {
	Follow(ctx context.Context, userID, relatedUserID uint) error
	Unfollow(ctx context.Context, userID, relatedUserID uint) error
	IsFollowing(ctx context.Context, userID, relatedUserID uint) (bool, error)
	GetRelationshipMap(ctx context.Context, userID uint, relatedUserIDs []uint) (map[uint]models.RelationshipType, error)
	CountFollowers(ctx context.Context, userID uint) (int64, error)
	CountFollowing(ctx context.Context, userID uint) (int64, error)
}

type relationshipRepository struct {
	db *gorm.DB
}

// NewRelationshipRepository creates a new relationship repository
func NewRelationshipRepository(db *gorm.DB) RelationshipRepository {
	return &relationshipRepository{db: db}
}

func (r *relationshipRepository) Follow(ctx context.Context, userID, relatedUserID uint) error {
	// Atomic insert; a concurrent duplicate collapses into the existing row.
	return r.db.WithContext(ctx).Exec(
		`INSERT INTO user_relationships (user_id, related_user_id, relationship_type, created_at)
		 VALUES (?, ?, ?, NOW())
		 ON CONFLICT (user_id, related_user_id, relationship_type) DO NOTHING`,
		userID, relatedUserID, models.RelationshipFollowing,
	).Error
}

func (r *relationshipRepository) Unfollow(ctx context.Context, userID, relatedUserID uint) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND related_user_id = ? AND relationship_type = ?",
			userID, relatedUserID, models.RelationshipFollowing).
		Delete(&models.Relationship{}).Error
}

func (r *relationshipRepository) IsFollowing(ctx context.Context, userID, relatedUserID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Relationship{}).
		Where("user_id = ? AND related_user_id = ? AND relationship_type = ?",
			userID, relatedUserID, models.RelationshipFollowing).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetRelationshipMap returns the relationship type the user has declared
// toward each of the given users. Users with no edge are absent from the map.
func (r *relationshipRepository) GetRelationshipMap(ctx context.Context, userID uint, relatedUserIDs []uint) (map[uint]models.RelationshipType, error) {
	result := make(map[uint]models.RelationshipType, len(relatedUserIDs))
	if len(relatedUserIDs) == 0 {
		return result, nil
	}

	var edges []models.Relationship
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND related_user_id IN ?", userID, relatedUserIDs).
		Find(&edges).Error
	if err != nil {
		return nil, err
	}

	for _, edge := range edges {
		result[edge.RelatedUserID] = edge.RelationshipType
	}
	return result, nil
}

func (r *relationshipRepository) CountFollowers(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Relationship{}).
		Where("related_user_id = ? AND relationship_type = ?", userID, models.RelationshipFollowing).
		Count(&count).Error
	return count, err
}

func (r *relationshipRepository) CountFollowing(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Relationship{}).
		Where("user_id = ? AND relationship_type = ?", userID, models.RelationshipFollowing).
		Count(&count).Error
	return count, err
}
