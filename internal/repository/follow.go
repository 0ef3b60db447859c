package repository

import (
	"context"

	"yatube/internal/models"
	"yatube/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FollowRepository defines persistence operations for follow edges.
type FollowRepository interface {
	// Create inserts the edge and reports whether a new row was written.
	// An existing edge is left alone.
	Create(ctx context.Context, userID, authorID uint) (bool, error)
	// Delete removes the edge and reports whether one existed.
	Delete(ctx context.Context, userID, authorID uint) (bool, error)
	Exists(ctx context.Context, userID, authorID uint) (bool, error)
	CountFollowers(ctx context.Context, authorID uint) (int64, error)
	CountFollowing(ctx context.Context, userID uint) (int64, error)
}

type followRepository struct {
	db     *gorm.DB
	logger *observability.RepoLogger
}

// NewFollowRepository returns a new FollowRepository implementation.
func NewFollowRepository(db *gorm.DB) FollowRepository {
	return &followRepository{db: db, logger: observability.NewRepoLogger("follows")}
}

func (r *followRepository) Create(ctx context.Context, userID, authorID uint) (bool, error) {
	defer observability.TrackQuery("insert", "follows")()

	follow := &models.Follow{UserID: userID, AuthorID: authorID}
	res := r.db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "author_id"}},
			DoNothing: true,
		}).
		Create(follow)
	if res.Error != nil {
		if isUniqueConstraintError(res.Error) {
			return false, nil
		}
		r.logger.LogError(ctx, res.Error, "create")
		return false, models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	r.logger.LogCreate(ctx, map[string]any{"user_id": userID, "author_id": authorID})
	return true, nil
}

func (r *followRepository) Delete(ctx context.Context, userID, authorID uint) (bool, error) {
	defer observability.TrackQuery("delete", "follows")()

	res := r.db.WithContext(ctx).
		Where("user_id = ? AND author_id = ?", userID, authorID).
		Delete(&models.Follow{})
	if res.Error != nil {
		r.logger.LogError(ctx, res.Error, "delete")
		return false, models.NewInternalError(res.Error)
	}
	if res.RowsAffected > 0 {
		r.logger.LogDelete(ctx, map[string]any{"user_id": userID, "author_id": authorID})
	}
	return res.RowsAffected > 0, nil
}

func (r *followRepository) Exists(ctx context.Context, userID, authorID uint) (bool, error) {
	defer observability.TrackQuery("select", "follows")()

	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Follow{}).
		Where("user_id = ? AND author_id = ?", userID, authorID).
		Count(&count).Error
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

func (r *followRepository) CountFollowers(ctx context.Context, authorID uint) (int64, error) {
	defer observability.TrackQuery("count", "follows")()

	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Follow{}).Where("author_id = ?", authorID).Count(&count).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}

func (r *followRepository) CountFollowing(ctx context.Context, userID uint) (int64, error) {
	defer observability.TrackQuery("count", "follows")()

	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Follow{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}
