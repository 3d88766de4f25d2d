// server/internal/database/seeder.go
package database

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"reagent-inventory-api-server/config"
	"reagent-inventory-api-server/internal/auth"
	"reagent-inventory-api-server/internal/models"
	"reagent-inventory-api-server/internal/store"
)

// SeedAdmin creates the bootstrap admin account if it does not exist yet.
// Without a configured password nothing is seeded.
func SeedAdmin(ctx context.Context, users store.UserStore, cfg config.AdminConfig, log zerolog.Logger) error {
	if cfg.Password == "" {
		log.Info().Msg("admin password not configured, seeding skipped")
		return nil
	}

	_, err := users.FindByEmail(ctx, cfg.Email)
	if err == nil {
		log.Info().Str("email", cfg.Email).Msg("admin already exists, seeding skipped")
		return nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return err
	}

	log.Info().Str("email", cfg.Email).Msg("admin not found, seeding")
	hashedPassword, err := auth.HashPassword(cfg.Password)
	if err != nil {
		return err
	}

	_, err = users.Create(ctx, models.User{
		Email:     cfg.Email,
		Name:      "Administrator",
		Password:  hashedPassword,
		Role:      models.RoleAdmin,
		Status:    models.StatusActive,
		CreatedAt: time.Now(),
	})
	if errors.Is(err, models.ErrDuplicate) {
		// another replica seeded it first
		return nil
	}
	if err != nil {
		return err
	}

	log.Info().Str("email", cfg.Email).Msg("admin seeded successfully")
	return nil
}
