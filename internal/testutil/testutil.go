// Package testutil provides shared database fixtures for tests.
package testutil

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"yatube/internal/config"
	"yatube/internal/database"
	"yatube/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TestPassword is the plain-text password of every user created by CreateUser.
const TestPassword = "s3cret-pass"

// TestConfig returns a test configuration backed by a private in-memory SQLite database.
func TestConfig() *config.Config {
	return &config.Config{
		Env:                  "test",
		Port:                 "8000",
		JWTSecret:            "test-secret-key-that-is-long-enough-123",
		DBDriver:             "sqlite",
		SQLitePath:           fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
		DBAutoMigrate:        true,
		PageSize:             10,
		IndexCacheSeconds:    20,
		ImageMaxUploadSizeMB: 5,
	}
}

// NewTestDB opens a migrated database that lives until the test ends.
func NewTestDB(t testing.TB) *gorm.DB {
	t.Helper()
	return NewTestDBWithConfig(t, TestConfig())
}

// NewTestDBWithConfig opens and migrates the database described by cfg.
func NewTestDBWithConfig(t testing.TB, cfg *config.Config) *gorm.DB {
	t.Helper()
	db, err := database.Connect(cfg)
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

var passwordHash = sync.OnceValues(func() ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
})

func hashedTestPassword(t testing.TB) string {
	h, err := passwordHash()
	require.NoError(t, err)
	return string(h)
}

// CreateUser persists a user whose password is TestPassword.
func CreateUser(t testing.TB, db *gorm.DB, username string) *models.User {
	t.Helper()
	if username == "" {
		username = gofakeit.Username() + gofakeit.DigitN(4)
	}
	user := &models.User{
		Username:  username,
		Email:     fmt.Sprintf("%s@%s", username, gofakeit.DomainName()),
		FirstName: gofakeit.FirstName(),
		LastName:  gofakeit.LastName(),
		Password:  hashedTestPassword(t),
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// CreateGroup persists a group with the given slug.
func CreateGroup(t testing.TB, db *gorm.DB, slug string) *models.Group {
	t.Helper()
	group := &models.Group{
		Title:       gofakeit.BookTitle(),
		Slug:        slug,
		Description: gofakeit.Sentence(8),
	}
	require.NoError(t, db.Create(group).Error)
	return group
}

// CreatePost persists a post by author, optionally in group.
func CreatePost(t testing.TB, db *gorm.DB, author *models.User, group *models.Group, text string) *models.Post {
	t.Helper()
	if text == "" {
		text = gofakeit.Sentence(10)
	}
	post := &models.Post{Text: text, AuthorID: author.ID}
	if group != nil {
		post.GroupID = &group.ID
	}
	require.NoError(t, db.Omit(clause.Associations).Create(post).Error)
	post.Author = *author
	post.Group = group
	return post
}

// CreatePostAt persists a post with an explicit publication time.
func CreatePostAt(t testing.TB, db *gorm.DB, author *models.User, text string, at time.Time) *models.Post {
	t.Helper()
	post := &models.Post{Text: text, AuthorID: author.ID, CreatedAt: at}
	require.NoError(t, db.Omit(clause.Associations).Create(post).Error)
	post.Author = *author
	return post
}

// CreateFollow makes user follow author.
func CreateFollow(t testing.TB, db *gorm.DB, user, author *models.User) *models.Follow {
	t.Helper()
	follow := &models.Follow{UserID: user.ID, AuthorID: author.ID}
	require.NoError(t, db.Omit(clause.Associations).Create(follow).Error)
	return follow
}
