package service

import (
	"context"
	"strings"

	"yatube/internal/models"
	"yatube/internal/repository"
	"yatube/internal/validation"
)

// GroupService lists groups and lets administrators manage them.
type GroupService struct {
	groupRepo repository.GroupRepository
}

type CreateGroupInput struct {
	Title       string `json:"title"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
}

func NewGroupService(groupRepo repository.GroupRepository) *GroupService {
	return &GroupService{groupRepo: groupRepo}
}

func (s *GroupService) ListGroups(ctx context.Context) ([]models.Group, error) {
	return s.groupRepo.List(ctx)
}

// GetGroup looks a group up by slug.
func (s *GroupService) GetGroup(ctx context.Context, slug string) (*models.Group, error) {
	return s.groupRepo.GetBySlug(ctx, slug)
}

// CreateGroup validates and stores a new group.
func (s *GroupService) CreateGroup(ctx context.Context, in CreateGroupInput) (*models.Group, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Slug = strings.TrimSpace(in.Slug)

	fe := validation.FieldErrors{}
	fe.Check("title", validation.ValidateGroupTitle(in.Title))
	fe.Check("slug", validation.ValidateGroupSlug(in.Slug))
	if err := fe.Err(); err != nil {
		return nil, err
	}

	group := &models.Group{Title: in.Title, Slug: in.Slug, Description: in.Description}
	if err := s.groupRepo.Create(ctx, group); err != nil {
		return nil, err
	}
	return group, nil
}

// DeleteGroup removes the group; its posts stay, without a group.
func (s *GroupService) DeleteGroup(ctx context.Context, slug string) error {
	return s.groupRepo.DeleteBySlug(ctx, slug)
}
