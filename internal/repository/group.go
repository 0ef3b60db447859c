package repository

import (
	"context"
	"errors"

	"yatube/internal/models"
	"yatube/internal/observability"

	"gorm.io/gorm"
)

// GroupRepository defines persistence operations for groups.
type GroupRepository interface {
	Create(ctx context.Context, group *models.Group) error
	GetByID(ctx context.Context, id uint) (*models.Group, error)
	GetBySlug(ctx context.Context, slug string) (*models.Group, error)
	List(ctx context.Context) ([]models.Group, error)
	DeleteBySlug(ctx context.Context, slug string) error
}

type groupRepository struct {
	db     *gorm.DB
	logger *observability.RepoLogger
}

// NewGroupRepository returns a new GroupRepository implementation.
func NewGroupRepository(db *gorm.DB) GroupRepository {
	return &groupRepository{db: db, logger: observability.NewRepoLogger("groups")}
}

func (r *groupRepository) Create(ctx context.Context, group *models.Group) error {
	defer observability.TrackQuery("insert", "groups")()

	if err := r.db.WithContext(ctx).Create(group).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewFieldValidationError(map[string][]string{
				"slug": {"Group with this slug already exists."},
			})
		}
		r.logger.LogError(ctx, err, "create")
		return models.NewInternalError(err)
	}
	r.logger.LogCreate(ctx, map[string]any{"group_id": group.ID, "slug": group.Slug})
	return nil
}

func (r *groupRepository) GetByID(ctx context.Context, id uint) (*models.Group, error) {
	defer observability.TrackQuery("select", "groups")()

	var group models.Group
	if err := r.db.WithContext(ctx).First(&group, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Group", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &group, nil
}

func (r *groupRepository) GetBySlug(ctx context.Context, slug string) (*models.Group, error) {
	defer observability.TrackQuery("select", "groups")()

	var group models.Group
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&group).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Group", slug)
		}
		return nil, models.NewInternalError(err)
	}
	return &group, nil
}

func (r *groupRepository) List(ctx context.Context) ([]models.Group, error) {
	defer observability.TrackQuery("select", "groups")()

	var groups []models.Group
	if err := r.db.WithContext(ctx).Order("title ASC, id ASC").Find(&groups).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return groups, nil
}

// DeleteBySlug removes the group. Its posts survive with group_id set to NULL.
func (r *groupRepository) DeleteBySlug(ctx context.Context, slug string) error {
	defer observability.TrackQuery("delete", "groups")()

	res := r.db.WithContext(ctx).Where("slug = ?", slug).Delete(&models.Group{})
	if res.Error != nil {
		r.logger.LogError(ctx, res.Error, "delete")
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Group", slug)
	}
	r.logger.LogDelete(ctx, map[string]any{"slug": slug})
	return nil
}
