// Package seed fills a development database with groups from the YAML
// fixtures and fake users, posts, comments and follows.
package seed

import (
	"fmt"
	"log/slog"

	"yatube/internal/middleware"
	"yatube/internal/models"

	"gorm.io/gorm"
)

// Options configure a seeding run.
type Options struct {
	Users int
	Posts int
	// MaxCommentsPerPost bounds the random number of comments on each post.
	MaxCommentsPerPost int
	// FollowsPerUser is how many random authors every user follows.
	FollowsPerUser int
	Clean          bool
	Factory        FactoryOptions
}

// DefaultOptions is what cmd/seed uses without flags.
func DefaultOptions() Options {
	return Options{
		Users:              20,
		Posts:              120,
		MaxCommentsPerPost: 4,
		FollowsPerUser:     3,
		Clean:              true,
	}
}

// Summary counts what a run created.
type Summary struct {
	Groups   int
	Users    int
	Posts    int
	Comments int
	Follows  int
}

// Seeder runs a full seeding pass against one database.
type Seeder struct {
	db *gorm.DB
}

// NewSeeder creates a Seeder.
func NewSeeder(db *gorm.DB) *Seeder {
	return &Seeder{db: db}
}

// ClearAll removes every row the seeder can create, children first.
func (s *Seeder) ClearAll() error {
	tx := s.db.Session(&gorm.Session{AllowGlobalUpdate: true})
	for _, m := range []any{&models.Comment{}, &models.Follow{}, &models.Post{}, &models.Group{}, &models.User{}} {
		if err := tx.Delete(m).Error; err != nil {
			return fmt.Errorf("clear %T: %w", m, err)
		}
	}
	middleware.Logger.Info("seed: existing data cleared")
	return nil
}

// Run seeds groups, then users, posts, comments and follows.
func (s *Seeder) Run(opts Options) (Summary, error) {
	var sum Summary
	if opts.Clean {
		if err := s.ClearAll(); err != nil {
			return sum, err
		}
	}

	groups, err := Groups(s.db)
	if err != nil {
		return sum, err
	}
	sum.Groups = len(groups)

	f, err := NewFactory(s.db, opts.Factory)
	if err != nil {
		return sum, err
	}

	users := make([]*models.User, 0, opts.Users)
	for i := 0; i < opts.Users; i++ {
		u, err := f.CreateUser()
		if err != nil {
			return sum, fmt.Errorf("create user: %w", err)
		}
		users = append(users, u)
	}
	sum.Users = len(users)
	if len(users) == 0 {
		return sum, nil
	}

	posts := make([]*models.Post, 0, opts.Posts)
	for i := 0; i < opts.Posts; i++ {
		author := users[f.rng.Intn(len(users))]
		var group *models.Group
		// roughly a third of the posts stay outside any group
		if len(groups) > 0 && f.rng.Intn(3) > 0 {
			group = &groups[f.rng.Intn(len(groups))]
		}
		posts = append(posts, f.BuildPost(author, group))
	}
	if err := f.CreatePosts(posts); err != nil {
		return sum, fmt.Errorf("create posts: %w", err)
	}
	sum.Posts = len(posts)

	if opts.MaxCommentsPerPost > 0 {
		for _, p := range posts {
			for n := f.rng.Intn(opts.MaxCommentsPerPost + 1); n > 0; n-- {
				if _, err := f.CreateComment(p, users[f.rng.Intn(len(users))]); err != nil {
					return sum, fmt.Errorf("create comment: %w", err)
				}
				sum.Comments++
			}
		}
	}

	for _, u := range users {
		for i := 0; i < opts.FollowsPerUser; i++ {
			created, err := f.CreateFollow(u, users[f.rng.Intn(len(users))])
			if err != nil {
				return sum, fmt.Errorf("create follow: %w", err)
			}
			if created {
				sum.Follows++
			}
		}
	}

	middleware.Logger.Info("seed: completed",
		slog.Int("groups", sum.Groups),
		slog.Int("users", sum.Users),
		slog.Int("posts", sum.Posts),
		slog.Int("comments", sum.Comments),
		slog.Int("follows", sum.Follows),
	)
	return sum, nil
}
