// Command seed populates the database with built-in groups and fake content.
package main

import (
	"flag"
	"log"

	"yatube/internal/config"
	"yatube/internal/database"
	"yatube/internal/seed"
)

func main() {
	defaults := seed.DefaultOptions()
	numUsers := flag.Int("users", defaults.Users, "Number of users to create")
	numPosts := flag.Int("posts", defaults.Posts, "Number of posts to create")
	maxComments := flag.Int("comments", defaults.MaxCommentsPerPost, "Maximum comments per post")
	follows := flag.Int("follows", defaults.FollowsPerUser, "Authors each user follows")
	shouldClean := flag.Bool("clean", defaults.Clean, "Clean database before seeding")
	groupsOnly := flag.Bool("groups-only", false, "Only upsert the built-in groups")
	randSeed := flag.Int64("seed", 0, "Random seed for reproducible data (0 = time based)")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.IsProduction() {
		log.Fatal("Refusing to seed a production database")
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if *groupsOnly {
		groups, err := seed.Groups(db)
		if err != nil {
			log.Fatalf("Group seeding failed: %v", err)
		}
		log.Printf("%d groups available", len(groups))
		return
	}

	sum, err := seed.NewSeeder(db).Run(seed.Options{
		Users:              *numUsers,
		Posts:              *numPosts,
		MaxCommentsPerPost: *maxComments,
		FollowsPerUser:     *follows,
		Clean:              *shouldClean,
		Factory:            seed.FactoryOptions{Seed: *randSeed},
	})
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Printf("Seeded %d groups, %d users, %d posts, %d comments, %d follows",
		sum.Groups, sum.Users, sum.Posts, sum.Comments, sum.Follows)
	log.Printf("All seeded users have the password: %s", seed.DefaultPassword)
}
