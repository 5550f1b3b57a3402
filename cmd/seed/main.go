// Command seed populates the database with development data.
package main

import (
	"context"
	"flag"
	"log"

	"stride/internal/avatars"
	"stride/internal/config"
	"stride/internal/database"
	"stride/internal/repository"
	"stride/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 50, "Number of users to create")
	numPosts := flag.Int("posts", 200, "Number of posts to create")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	catalogPath := flag.String("avatars", "avatars.yml", "Avatar catalog file")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	ctx := context.Background()

	catalog, err := avatars.LoadCatalog(*catalogPath)
	if err != nil {
		log.Fatalf("Failed to load avatar catalog: %v", err)
	}
	if err := repository.NewAvatarRepository(db).Upsert(ctx, catalog); err != nil {
		log.Fatalf("Failed to sync avatar catalog: %v", err)
	}

	if err := seed.Seed(db, seed.Options{
		NumUsers:    *numUsers,
		NumPosts:    *numPosts,
		ShouldClean: *shouldClean,
	}); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Println("All done. Log in as dev@example.com with the shared seed password.")
}
