// Package bootstrap wires the runtime dependencies shared by the commands.
package bootstrap

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"yatube/internal/cache"
	"yatube/internal/config"
	"yatube/internal/database"
	"yatube/internal/middleware"
	"yatube/internal/models"
	"yatube/internal/seed"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	SeedGroups bool
}

// InitRuntime connects to the database and Redis, bootstraps the development
// admin and optionally upserts the built-in groups. The Redis client is nil
// when Redis is unreachable.
func InitRuntime(cfg *config.Config, opts Options) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)
	r := cache.GetClient()

	if err := ensureDevAdmin(cfg, db); err != nil {
		return nil, nil, fmt.Errorf("failed to bootstrap development admin: %w", err)
	}

	if opts.SeedGroups {
		if _, err := seed.Groups(db); err != nil {
			return nil, nil, fmt.Errorf("failed to seed built-in groups: %w", err)
		}
	}

	return db, r, nil
}

func ensureDevAdmin(cfg *config.Config, db *gorm.DB) error {
	return ensureDevAdminWithCost(cfg, db, bcrypt.DefaultCost)
}

func ensureDevAdminWithCost(cfg *config.Config, db *gorm.DB, cost int) error {
	if cfg == nil || db == nil {
		return nil
	}
	if !strings.EqualFold(cfg.Env, "development") || !cfg.DevBootstrapAdmin {
		return nil
	}

	username := strings.TrimSpace(cfg.DevAdminUsername)
	if username == "" {
		username = "admin"
	}
	email := strings.ToLower(strings.TrimSpace(cfg.DevAdminEmail))
	if email == "" {
		email = "admin@yatube.local"
	}
	if cfg.DevAdminPassword == "" {
		return errors.New("DEV_ADMIN_PASSWORD must be set when DEV_BOOTSTRAP_ADMIN is enabled")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(cfg.DevAdminPassword), cost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		var admin models.User
		findErr := tx.Where("username = ?", username).First(&admin).Error
		switch {
		case errors.Is(findErr, gorm.ErrRecordNotFound):
			admin = models.User{
				Username: username,
				Email:    email,
				Password: string(hashed),
				IsAdmin:  true,
			}
			return tx.Create(&admin).Error
		case findErr != nil:
			return findErr
		default:
			// an existing account keeps its password; it is only promoted
			return tx.Model(&models.User{}).Where("id = ?", admin.ID).Update("is_admin", true).Error
		}
	})
	if err != nil {
		return err
	}

	middleware.Logger.Info("development admin ensured", slog.String("username", username))
	return nil
}
