package service

import (
	"context"

	"yatube/internal/models"
	"yatube/internal/observability"
	"yatube/internal/pagination"
	"yatube/internal/repository"
)

// FollowService manages follow edges and the follow feed.
type FollowService struct {
	userRepo   repository.UserRepository
	followRepo repository.FollowRepository
	postRepo   repository.PostRepository
	pageSize   int
}

// NewFollowService returns a new FollowService.
func NewFollowService(
	userRepo repository.UserRepository,
	followRepo repository.FollowRepository,
	postRepo repository.PostRepository,
	pageSize int,
) *FollowService {
	if pageSize <= 0 {
		pageSize = pagination.DefaultPageSize
	}
	return &FollowService{
		userRepo:   userRepo,
		followRepo: followRepo,
		postRepo:   postRepo,
		pageSize:   pageSize,
	}
}

func (s *FollowService) author(ctx context.Context, username string) (*models.User, error) {
	author, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if author == nil {
		return nil, models.NewNotFoundError("User", username)
	}
	return author, nil
}

// Follow makes userID follow the author. Following yourself or an author
// you already follow changes nothing.
func (s *FollowService) Follow(ctx context.Context, userID uint, username string) error {
	if userID == 0 {
		return models.NewUnauthorizedError("Authentication required")
	}
	author, err := s.author(ctx, username)
	if err != nil {
		return err
	}
	if author.ID == userID {
		observability.FollowEvents.WithLabelValues("follow", "self").Inc()
		return nil
	}

	created, err := s.followRepo.Create(ctx, userID, author.ID)
	if err != nil {
		observability.FollowEvents.WithLabelValues("follow", "error").Inc()
		return err
	}
	if created {
		observability.FollowEvents.WithLabelValues("follow", "created").Inc()
	} else {
		observability.FollowEvents.WithLabelValues("follow", "exists").Inc()
	}
	return nil
}

// Unfollow removes the edge if present.
func (s *FollowService) Unfollow(ctx context.Context, userID uint, username string) error {
	if userID == 0 {
		return models.NewUnauthorizedError("Authentication required")
	}
	author, err := s.author(ctx, username)
	if err != nil {
		return err
	}

	removed, err := s.followRepo.Delete(ctx, userID, author.ID)
	if err != nil {
		observability.FollowEvents.WithLabelValues("unfollow", "error").Inc()
		return err
	}
	if removed {
		observability.FollowEvents.WithLabelValues("unfollow", "removed").Inc()
	} else {
		observability.FollowEvents.WithLabelValues("unfollow", "absent").Inc()
	}
	return nil
}

// Feed returns a page of posts by authors userID follows, newest first.
func (s *FollowService) Feed(ctx context.Context, userID uint, rawPage string) (*PostPage, error) {
	if userID == 0 {
		return nil, models.NewUnauthorizedError("Authentication required")
	}
	return listPostPage(ctx, s.postRepo, repository.PostFilter{FollowerID: &userID}, rawPage, s.pageSize)
}
