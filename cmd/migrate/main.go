// Command migrate creates the database when asked and applies the schema.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"yatube/internal/config"
	"yatube/internal/database"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	createDB := flag.Bool("create-db", false, "Create the PostgreSQL database when it does not exist")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if *createDB {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		created, err := database.EnsureDatabase(ctx, cfg)
		if err != nil {
			return fmt.Errorf("ensure database: %w", err)
		}
		if created {
			log.Printf("database %q created", cfg.DBName)
		}
	}

	// Connect applies the schema itself only when auto-migrate is enabled.
	cfg.DBAutoMigrate = false
	db, err := database.Connect(cfg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}()

	if err := database.ApplySchema(db); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	log.Println("schema applied")
	return nil
}
