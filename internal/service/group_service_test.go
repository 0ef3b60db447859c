package service

import (
	"context"
	"testing"

	"yatube/internal/models"
	"yatube/internal/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroupService_CreateGroup(t *testing.T) {
	t.Parallel()
	groups := noopGroupRepo()
	svc := NewGroupService(groups)

	group, err := svc.CreateGroup(context.Background(), CreateGroupInput{Title: " Cats ", Slug: "cats", Description: "meow"})
	require.NoError(t, err)
	assert.Equal(t, "Cats", group.Title)

	_, err = svc.CreateGroup(context.Background(), CreateGroupInput{Title: "", Slug: "bad slug"})
	assertErrorCode(t, err, models.CodeValidation)
	fields := validation.Fields(err)
	assert.Contains(t, fields, "title")
	assert.Contains(t, fields, "slug")
}

func TestGroupService_DeleteGroup(t *testing.T) {
	t.Parallel()
	groups := noopGroupRepo()
	var deleted string
	groups.deleteBySlugFn = func(_ context.Context, slug string) error {
		deleted = slug
		return nil
	}
	require.NoError(t, NewGroupService(groups).DeleteGroup(context.Background(), "cats"))
	assert.Equal(t, "cats", deleted)
}

func TestGroupService_GetGroup(t *testing.T) {
	t.Parallel()
	groups := noopGroupRepo()
	groups.getBySlugFn = func(_ context.Context, slug string) (*models.Group, error) {
		if slug != "cats" {
			return nil, models.NewNotFoundError("Group", slug)
		}
		return &models.Group{ID: 4, Title: "Cats", Slug: "cats"}, nil
	}
	svc := NewGroupService(groups)

	group, err := svc.GetGroup(context.Background(), "cats")
	require.NoError(t, err)
	assert.Equal(t, uint(4), group.ID)

	_, err = svc.GetGroup(context.Background(), "dogs")
	assertErrorCode(t, err, models.CodeNotFound)
}
