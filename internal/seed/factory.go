package seed

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"yatube/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultPassword is the password of every generated user.
const DefaultPassword = "password123"

// Factory builds domain entities with gofakeit and persists them.
type Factory struct {
	db      *gorm.DB
	faker   *gofakeit.Faker
	rng     *rand.Rand
	maxDays int
	hash    string
}

// FactoryOptions tune the generated data.
type FactoryOptions struct {
	// Seed makes output reproducible. Zero picks a time-based seed.
	Seed int64
	// MaxDays spreads post dates over this many days back from now.
	MaxDays int
	// BcryptCost defaults to bcrypt.DefaultCost.
	BcryptCost int
}

// NewFactory creates a Factory bound to db.
func NewFactory(db *gorm.DB, opts FactoryOptions) (*Factory, error) {
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if opts.MaxDays <= 0 {
		opts.MaxDays = 90
	}
	cost := opts.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), cost)
	if err != nil {
		return nil, fmt.Errorf("hash seed password: %w", err)
	}
	//nolint:gosec // weak randomness is fine for fixtures
	rng := rand.New(rand.NewSource(seed))
	return &Factory{
		db:      db,
		faker:   gofakeit.New(seed),
		rng:     rng,
		maxDays: opts.MaxDays,
		hash:    string(hash),
	}, nil
}

func (f *Factory) pastTime() time.Time {
	back := time.Duration(f.rng.Intn(f.maxDays))*24*time.Hour +
		time.Duration(f.rng.Intn(24))*time.Hour +
		time.Duration(f.rng.Intn(60))*time.Minute
	return time.Now().Add(-back)
}

// CreateUser persists a user with a unique username and DefaultPassword.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	first, last := f.faker.FirstName(), f.faker.LastName()
	username := strings.ToLower(fmt.Sprintf("%s_%s%d", first, last, f.faker.Number(100, 9999)))
	username = strings.NewReplacer(" ", "", "'", "").Replace(username)
	user := &models.User{
		Username:  username,
		Email:     username + "@" + f.faker.DomainName(),
		FirstName: first,
		LastName:  last,
		Password:  f.hash,
	}
	for _, o := range overrides {
		o(user)
	}
	if err := f.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// BuildPost returns an unsaved post by author, in group when group is non-nil.
func (f *Factory) BuildPost(author *models.User, group *models.Group) *models.Post {
	post := &models.Post{
		Text:      f.faker.Paragraph(1, f.rng.Intn(4)+1, 12, "\n"),
		AuthorID:  author.ID,
		CreatedAt: f.pastTime(),
	}
	if group != nil {
		post.GroupID = &group.ID
	}
	return post
}

// CreatePosts persists posts in one batch.
func (f *Factory) CreatePosts(posts []*models.Post) error {
	if len(posts) == 0 {
		return nil
	}
	return f.db.Omit(clause.Associations).CreateInBatches(posts, 100).Error
}

// CreateComment persists a comment by author on post, dated after the post.
func (f *Factory) CreateComment(post *models.Post, author *models.User) (*models.Comment, error) {
	at := post.CreatedAt.Add(time.Duration(f.rng.Intn(72)+1) * time.Hour)
	if at.After(time.Now()) {
		at = time.Now()
	}
	comment := &models.Comment{
		PostID:    post.ID,
		AuthorID:  author.ID,
		Text:      f.faker.Sentence(f.rng.Intn(12) + 3),
		CreatedAt: at,
	}
	if err := f.db.Omit(clause.Associations).Create(comment).Error; err != nil {
		return nil, err
	}
	return comment, nil
}

// CreateFollow makes user follow author. Self-follows and existing pairs are skipped.
func (f *Factory) CreateFollow(user, author *models.User) (bool, error) {
	if user.ID == author.ID {
		return false, nil
	}
	follow := &models.Follow{UserID: user.ID, AuthorID: author.ID}
	res := f.db.Omit(clause.Associations).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(follow)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
