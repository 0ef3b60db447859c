package seed

import (
	"embed"
	"fmt"

	"yatube/internal/models"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

//go:embed fixtures/groups.yml
var fixturesFS embed.FS

// GroupFixture is one entry of fixtures/groups.yml.
type GroupFixture struct {
	Title       string `yaml:"title"`
	Slug        string `yaml:"slug"`
	Description string `yaml:"description"`
}

// LoadGroupFixtures reads the built-in group list.
func LoadGroupFixtures() ([]GroupFixture, error) {
	raw, err := fixturesFS.ReadFile("fixtures/groups.yml")
	if err != nil {
		return nil, err
	}
	return ParseGroupFixtures(raw)
}

// ParseGroupFixtures decodes a YAML list of groups. Every entry needs a title and a slug.
func ParseGroupFixtures(raw []byte) ([]GroupFixture, error) {
	var fixtures []GroupFixture
	if err := yaml.Unmarshal(raw, &fixtures); err != nil {
		return nil, fmt.Errorf("parse group fixtures: %w", err)
	}
	seen := make(map[string]bool, len(fixtures))
	for i, f := range fixtures {
		if f.Title == "" || f.Slug == "" {
			return nil, fmt.Errorf("group fixture %d: title and slug are required", i)
		}
		if seen[f.Slug] {
			return nil, fmt.Errorf("group fixture %d: duplicate slug %q", i, f.Slug)
		}
		seen[f.Slug] = true
	}
	return fixtures, nil
}

// Groups upserts the built-in groups by slug and returns them as stored.
func Groups(db *gorm.DB) ([]models.Group, error) {
	fixtures, err := LoadGroupFixtures()
	if err != nil {
		return nil, err
	}

	groups := make([]models.Group, 0, len(fixtures))
	err = db.Transaction(func(tx *gorm.DB) error {
		for _, f := range fixtures {
			group := models.Group{Title: f.Title, Slug: f.Slug, Description: f.Description}
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "slug"}},
				DoUpdates: clause.AssignmentColumns([]string{"title", "description"}),
			}).Create(&group).Error; err != nil {
				return err
			}
			// the upsert leaves ID unset on some drivers when the row already existed
			if err := tx.Where("slug = ?", f.Slug).First(&group).Error; err != nil {
				return err
			}
			groups = append(groups, group)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("seed groups: %w", err)
	}
	return groups, nil
}
