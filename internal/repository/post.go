package repository

import (
	"context"
	"errors"

	"yatube/internal/models"
	"yatube/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostFilter narrows a post listing. Nil fields do not filter.
type PostFilter struct {
	GroupID  *uint
	AuthorID *uint
	// FollowerID restricts the listing to authors this user follows.
	FollowerID *uint
}

// PostRepository defines the interface for post data operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	List(ctx context.Context, filter PostFilter, limit, offset int) ([]models.Post, error)
	Count(ctx context.Context, filter PostFilter) (int64, error)
	Update(ctx context.Context, post *models.Post) error
	Delete(ctx context.Context, id uint) error
}

type postRepository struct {
	db     *gorm.DB
	logger *observability.RepoLogger
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db, logger: observability.NewRepoLogger("posts")}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	defer observability.TrackQuery("insert", "posts")()

	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(post).Error; err != nil {
		r.logger.LogError(ctx, err, "create")
		return models.NewInternalError(err)
	}
	r.logger.LogCreate(ctx, map[string]any{"post_id": post.ID, "author_id": post.AuthorID})
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	defer observability.TrackQuery("select", "posts")()

	var post models.Post
	err := r.db.WithContext(ctx).
		Preload("Author").
		Preload("Group").
		First(&post, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Post", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &post, nil
}

func (r *postRepository) applyFilter(db *gorm.DB, filter PostFilter) *gorm.DB {
	if filter.GroupID != nil {
		db = db.Where("posts.group_id = ?", *filter.GroupID)
	}
	if filter.AuthorID != nil {
		db = db.Where("posts.author_id = ?", *filter.AuthorID)
	}
	if filter.FollowerID != nil {
		db = db.Where("posts.author_id IN (?)",
			r.db.Model(&models.Follow{}).Select("author_id").Where("user_id = ?", *filter.FollowerID))
	}
	return db
}

// List returns one page of posts, newest first.
func (r *postRepository) List(ctx context.Context, filter PostFilter, limit, offset int) ([]models.Post, error) {
	defer observability.TrackQuery("select", "posts")()

	var posts []models.Post
	err := r.applyFilter(r.db.WithContext(ctx).Model(&models.Post{}), filter).
		Preload("Author").
		Preload("Group").
		Order("posts.created_at DESC").
		Order("posts.id DESC").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

func (r *postRepository) Count(ctx context.Context, filter PostFilter) (int64, error) {
	defer observability.TrackQuery("count", "posts")()

	var count int64
	if err := r.applyFilter(r.db.WithContext(ctx).Model(&models.Post{}), filter).Count(&count).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}

// Update writes the editable fields: text, group and image.
func (r *postRepository) Update(ctx context.Context, post *models.Post) error {
	defer observability.TrackQuery("update", "posts")()

	err := r.db.WithContext(ctx).
		Model(post).
		Select("text", "group_id", "image").
		Updates(map[string]any{
			"text":     post.Text,
			"group_id": post.GroupID,
			"image":    post.Image,
		}).Error
	if err != nil {
		r.logger.LogError(ctx, err, "update")
		return models.NewInternalError(err)
	}
	r.logger.LogUpdate(ctx, map[string]any{"post_id": post.ID})
	return nil
}

// Delete removes the post and, through the foreign key, its comments.
func (r *postRepository) Delete(ctx context.Context, id uint) error {
	defer observability.TrackQuery("delete", "posts")()

	res := r.db.WithContext(ctx).Delete(&models.Post{}, id)
	if res.Error != nil {
		r.logger.LogError(ctx, res.Error, "delete")
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Post", id)
	}
	r.logger.LogDelete(ctx, map[string]any{"post_id": id})
	return nil
}
