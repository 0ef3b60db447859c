package service

import (
	"context"
	"errors"
	"testing"

	"yatube/internal/models"
	"yatube/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// postRepoStub is a stub for repository.PostRepository.
type postRepoStub struct {
	createFn  func(context.Context, *models.Post) error
	getByIDFn func(context.Context, uint) (*models.Post, error)
	listFn    func(context.Context, repository.PostFilter, int, int) ([]models.Post, error)
	countFn   func(context.Context, repository.PostFilter) (int64, error)
	updateFn  func(context.Context, *models.Post) error
	deleteFn  func(context.Context, uint) error
}

func (s *postRepoStub) Create(ctx context.Context, post *models.Post) error {
	return s.createFn(ctx, post)
}
func (s *postRepoStub) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	return s.getByIDFn(ctx, id)
}
func (s *postRepoStub) List(ctx context.Context, filter repository.PostFilter, limit, offset int) ([]models.Post, error) {
	return s.listFn(ctx, filter, limit, offset)
}
func (s *postRepoStub) Count(ctx context.Context, filter repository.PostFilter) (int64, error) {
	return s.countFn(ctx, filter)
}
func (s *postRepoStub) Update(ctx context.Context, post *models.Post) error {
	return s.updateFn(ctx, post)
}
func (s *postRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}

func noopPostRepo() *postRepoStub {
	return &postRepoStub{
		createFn: func(_ context.Context, p *models.Post) error { p.ID = 1; return nil },
		getByIDFn: func(_ context.Context, id uint) (*models.Post, error) {
			return nil, models.NewNotFoundError("Post", id)
		},
		listFn:   func(_ context.Context, _ repository.PostFilter, _, _ int) ([]models.Post, error) { return nil, nil },
		countFn:  func(_ context.Context, _ repository.PostFilter) (int64, error) { return 0, nil },
		updateFn: func(_ context.Context, _ *models.Post) error { return nil },
		deleteFn: func(_ context.Context, _ uint) error { return nil },
	}
}

// groupRepoStub is a stub for repository.GroupRepository.
type groupRepoStub struct {
	createFn       func(context.Context, *models.Group) error
	getByIDFn      func(context.Context, uint) (*models.Group, error)
	getBySlugFn    func(context.Context, string) (*models.Group, error)
	listFn         func(context.Context) ([]models.Group, error)
	deleteBySlugFn func(context.Context, string) error
}

func (s *groupRepoStub) Create(ctx context.Context, g *models.Group) error {
	return s.createFn(ctx, g)
}
func (s *groupRepoStub) GetByID(ctx context.Context, id uint) (*models.Group, error) {
	return s.getByIDFn(ctx, id)
}
func (s *groupRepoStub) GetBySlug(ctx context.Context, slug string) (*models.Group, error) {
	return s.getBySlugFn(ctx, slug)
}
func (s *groupRepoStub) List(ctx context.Context) ([]models.Group, error) {
	return s.listFn(ctx)
}
func (s *groupRepoStub) DeleteBySlug(ctx context.Context, slug string) error {
	return s.deleteBySlugFn(ctx, slug)
}

func noopGroupRepo() *groupRepoStub {
	return &groupRepoStub{
		createFn: func(_ context.Context, g *models.Group) error { g.ID = 1; return nil },
		getByIDFn: func(_ context.Context, id uint) (*models.Group, error) {
			return nil, models.NewNotFoundError("Group", id)
		},
		getBySlugFn: func(_ context.Context, slug string) (*models.Group, error) {
			return nil, models.NewNotFoundError("Group", slug)
		},
		listFn:         func(_ context.Context) ([]models.Group, error) { return nil, nil },
		deleteBySlugFn: func(_ context.Context, _ string) error { return nil },
	}
}

// userRepoStub is a stub for repository.UserRepository.
type userRepoStub struct {
	getByIDFn       func(context.Context, uint) (*models.User, error)
	getByUsernameFn func(context.Context, string) (*models.User, error)
	getByEmailFn    func(context.Context, string) (*models.User, error)
	createFn        func(context.Context, *models.User) error
	deleteFn        func(context.Context, uint) error
}

func (s *userRepoStub) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getByUsernameFn(ctx, username)
}
func (s *userRepoStub) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getByEmailFn(ctx, email)
}
func (s *userRepoStub) Create(ctx context.Context, user *models.User) error {
	return s.createFn(ctx, user)
}
func (s *userRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}

func noopUserRepo() *userRepoStub {
	return &userRepoStub{
		getByIDFn: func(_ context.Context, id uint) (*models.User, error) {
			return nil, models.NewNotFoundError("User", id)
		},
		getByUsernameFn: func(_ context.Context, _ string) (*models.User, error) { return nil, nil },
		getByEmailFn:    func(_ context.Context, _ string) (*models.User, error) { return nil, nil },
		createFn:        func(_ context.Context, u *models.User) error { u.ID = 1; return nil },
		deleteFn:        func(_ context.Context, _ uint) error { return nil },
	}
}

// usersByID resolves the given users by ID and reports the rest as missing.
func usersByID(users ...*models.User) func(context.Context, uint) (*models.User, error) {
	return func(_ context.Context, id uint) (*models.User, error) {
		for _, u := range users {
			if u.ID == id {
				return u, nil
			}
		}
		return nil, models.NewNotFoundError("User", id)
	}
}

// usersByName resolves the given users by username.
func usersByName(users ...*models.User) func(context.Context, string) (*models.User, error) {
	return func(_ context.Context, username string) (*models.User, error) {
		for _, u := range users {
			if u.Username == username {
				return u, nil
			}
		}
		return nil, nil
	}
}

// followRepoStub is a stub for repository.FollowRepository.
type followRepoStub struct {
	createFn         func(context.Context, uint, uint) (bool, error)
	deleteFn         func(context.Context, uint, uint) (bool, error)
	existsFn         func(context.Context, uint, uint) (bool, error)
	countFollowersFn func(context.Context, uint) (int64, error)
	countFollowingFn func(context.Context, uint) (int64, error)
}

func (s *followRepoStub) Create(ctx context.Context, userID, authorID uint) (bool, error) {
	return s.createFn(ctx, userID, authorID)
}
func (s *followRepoStub) Delete(ctx context.Context, userID, authorID uint) (bool, error) {
	return s.deleteFn(ctx, userID, authorID)
}
func (s *followRepoStub) Exists(ctx context.Context, userID, authorID uint) (bool, error) {
	return s.existsFn(ctx, userID, authorID)
}
func (s *followRepoStub) CountFollowers(ctx context.Context, authorID uint) (int64, error) {
	return s.countFollowersFn(ctx, authorID)
}
func (s *followRepoStub) CountFollowing(ctx context.Context, userID uint) (int64, error) {
	return s.countFollowingFn(ctx, userID)
}

func noopFollowRepo() *followRepoStub {
	return &followRepoStub{
		createFn:         func(_ context.Context, _, _ uint) (bool, error) { return true, nil },
		deleteFn:         func(_ context.Context, _, _ uint) (bool, error) { return true, nil },
		existsFn:         func(_ context.Context, _, _ uint) (bool, error) { return false, nil },
		countFollowersFn: func(_ context.Context, _ uint) (int64, error) { return 0, nil },
		countFollowingFn: func(_ context.Context, _ uint) (int64, error) { return 0, nil },
	}
}

// commentRepoStub is a stub for repository.CommentRepository.
type commentRepoStub struct {
	createFn     func(context.Context, *models.Comment) error
	getByIDFn    func(context.Context, uint) (*models.Comment, error)
	listByPostFn func(context.Context, uint) ([]models.Comment, error)
}

func (s *commentRepoStub) Create(ctx context.Context, c *models.Comment) error {
	return s.createFn(ctx, c)
}
func (s *commentRepoStub) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	return s.getByIDFn(ctx, id)
}
func (s *commentRepoStub) ListByPost(ctx context.Context, postID uint) ([]models.Comment, error) {
	return s.listByPostFn(ctx, postID)
}

func noopCommentRepo() *commentRepoStub {
	return &commentRepoStub{
		createFn: func(_ context.Context, c *models.Comment) error { c.ID = 1; return nil },
		getByIDFn: func(_ context.Context, id uint) (*models.Comment, error) {
			return nil, models.NewNotFoundError("Comment", id)
		},
		listByPostFn: func(_ context.Context, _ uint) ([]models.Comment, error) { return nil, nil },
	}
}

// imageStoreStub records saved uploads.
type imageStoreStub struct {
	saveFn func(context.Context, ImageUpload) (string, error)
}

func (s *imageStoreStub) Save(ctx context.Context, in ImageUpload) (string, error) {
	return s.saveFn(ctx, in)
}

// assertErrorCode asserts that err is an AppError with the given code.
func assertErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
}
