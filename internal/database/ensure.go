package database

import (
	"context"
	"fmt"
	"regexp"

	"yatube/internal/config"
	"yatube/internal/middleware"

	"github.com/jackc/pgx/v5"
)

var dbNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// EnsureDatabase creates the configured PostgreSQL database when it does not exist yet.
// It connects to the "postgres" maintenance database to do so.
func EnsureDatabase(ctx context.Context, cfg *config.Config) (bool, error) {
	if cfg.DBDriver != "postgres" {
		return false, nil
	}
	if !dbNamePattern.MatchString(cfg.DBName) {
		return false, fmt.Errorf("refusing to create database with unsafe name %q", cfg.DBName)
	}

	conn, err := pgx.Connect(ctx, PostgresDSN(cfg, "postgres"))
	if err != nil {
		return false, fmt.Errorf("connect maintenance database: %w", err)
	}
	defer conn.Close(ctx)

	var exists bool
	err = conn.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM pg_database WHERE datname = $1)", cfg.DBName).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check database existence: %w", err)
	}
	if exists {
		return false, nil
	}

	if _, err := conn.Exec(ctx, "CREATE DATABASE "+pgx.Identifier{cfg.DBName}.Sanitize()); err != nil {
		return false, fmt.Errorf("create database %s: %w", cfg.DBName, err)
	}
	middleware.Logger.InfoContext(ctx, "database created", "name", cfg.DBName)
	return true, nil
}
