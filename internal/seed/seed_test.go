package seed

import (
	"testing"

	"yatube/internal/models"
	"yatube/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func fastOptions() Options {
	opts := DefaultOptions()
	opts.Users = 6
	opts.Posts = 25
	opts.Factory = FactoryOptions{Seed: 42, BcryptCost: bcrypt.MinCost}
	return opts
}

func TestLoadGroupFixtures(t *testing.T) {
	fixtures, err := LoadGroupFixtures()
	require.NoError(t, err)
	require.NotEmpty(t, fixtures)
	for _, f := range fixtures {
		assert.NotEmpty(t, f.Title)
		assert.NotEmpty(t, f.Slug)
	}
}

func TestParseGroupFixtures_Rejects(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"missing slug", "- title: Cats\n"},
		{"duplicate slug", "- {title: A, slug: a}\n- {title: B, slug: a}\n"},
		{"not a list", "title: Cats\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseGroupFixtures([]byte(tt.raw))
			assert.Error(t, err)
		})
	}
}

func TestGroups_IsIdempotent(t *testing.T) {
	db := testutil.NewTestDB(t)

	first, err := Groups(db)
	require.NoError(t, err)
	second, err := Groups(db)
	require.NoError(t, err)

	require.Equal(t, len(first), len(second))
	assert.Equal(t, first[0].ID, second[0].ID)

	var count int64
	require.NoError(t, db.Model(&models.Group{}).Count(&count).Error)
	assert.Equal(t, int64(len(first)), count)
}

func TestGroups_UpdatesExistingTitle(t *testing.T) {
	db := testutil.NewTestDB(t)
	fixtures, err := LoadGroupFixtures()
	require.NoError(t, err)
	require.NoError(t, db.Create(&models.Group{Title: "old", Slug: fixtures[0].Slug}).Error)

	_, err = Groups(db)
	require.NoError(t, err)

	var g models.Group
	require.NoError(t, db.Where("slug = ?", fixtures[0].Slug).First(&g).Error)
	assert.Equal(t, fixtures[0].Title, g.Title)
}

func TestSeeder_Run(t *testing.T) {
	db := testutil.NewTestDB(t)

	sum, err := NewSeeder(db).Run(fastOptions())
	require.NoError(t, err)
	assert.Equal(t, 6, sum.Users)
	assert.Equal(t, 25, sum.Posts)

	var users []models.User
	require.NoError(t, db.Find(&users).Error)
	require.Len(t, users, 6)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(users[0].Password), []byte(DefaultPassword)))

	var follows []models.Follow
	require.NoError(t, db.Find(&follows).Error)
	assert.Len(t, follows, sum.Follows)
	for _, f := range follows {
		assert.NotEqual(t, f.UserID, f.AuthorID)
	}

	var comments int64
	require.NoError(t, db.Model(&models.Comment{}).Count(&comments).Error)
	assert.Equal(t, int64(sum.Comments), comments)
}

func TestSeeder_CleanRunReplacesData(t *testing.T) {
	db := testutil.NewTestDB(t)
	s := NewSeeder(db)

	_, err := s.Run(fastOptions())
	require.NoError(t, err)
	_, err = s.Run(fastOptions())
	require.NoError(t, err)

	var posts int64
	require.NoError(t, db.Model(&models.Post{}).Count(&posts).Error)
	assert.Equal(t, int64(25), posts)
}

func TestFactory_CreateFollowSkipsSelfAndDuplicates(t *testing.T) {
	db := testutil.NewTestDB(t)
	f, err := NewFactory(db, FactoryOptions{Seed: 1, BcryptCost: bcrypt.MinCost})
	require.NoError(t, err)
	a := testutil.CreateUser(t, db, "leo")
	b := testutil.CreateUser(t, db, "mia")

	created, err := f.CreateFollow(a, a)
	require.NoError(t, err)
	assert.False(t, created)

	created, err = f.CreateFollow(a, b)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = f.CreateFollow(a, b)
	require.NoError(t, err)
	assert.False(t, created)
}
