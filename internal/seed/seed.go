// Package seed populates the database with development data: users with
// avatars, activity posts, comment and reply trees, follows, and bookmarks.
package seed

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"stride/internal/models"

	"gorm.io/gorm"
)

// Options configures the seeder.
type Options struct {
	NumUsers    int
	NumPosts    int
	ShouldClean bool
}

// Seed fills the database with a connected social mesh. Every user follows a
// few others, posts carry discussion trees with nested replies, and some
// posts are bookmarked, so every feed has something to show.
func Seed(db *gorm.DB, opts Options) error {
	log.Printf("seeding database: %d users, %d posts", opts.NumUsers, opts.NumPosts)

	if opts.ShouldClean {
		if err := clearData(db); err != nil {
			log.Printf("warning: could not clear existing data: %v", err)
		}
	}

	f := NewFactory(db)
	//nolint:gosec // Weak randomness is fine for seed data.
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	users, err := createUsers(f, opts.NumUsers)
	if err != nil {
		return err
	}
	log.Printf("created %d users", len(users))

	posts, err := createPosts(f, rng, users, opts.NumPosts)
	if err != nil {
		return err
	}
	log.Printf("created %d posts", len(posts))

	if err := createThreads(f, rng, users, posts); err != nil {
		return err
	}
	if err := createFollows(f, rng, users); err != nil {
		return err
	}
	if err := createBookmarks(f, rng, users, posts); err != nil {
		return err
	}

	log.Println("database seeding completed")
	return nil
}

func clearData(db *gorm.DB) error {
	sql := `TRUNCATE TABLE replies, comments, bookmarks, user_relationships, posts, users RESTART IDENTITY CASCADE;`
	return db.Exec(sql).Error
}

func createUsers(f *Factory, count int) ([]*models.User, error) {
	users := make([]*models.User, 0, count)

	// A fixed login for developers, always first.
	dev, err := f.CreateUser(func(u *models.User) {
		u.Email = "dev@example.com"
		u.DisplayName = "Dev User"
	})
	if err != nil {
		return nil, fmt.Errorf("create dev user: %w", err)
	}
	users = append(users, dev)

	for len(users) < count {
		user, err := f.CreateUser()
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, nil
}

func createPosts(f *Factory, rng *rand.Rand, users []*models.User, count int) ([]*models.Post, error) {
	posts := make([]*models.Post, 0, count)
	for i := 0; i < count; i++ {
		owner := users[rng.Intn(len(users))]
		post, err := f.CreatePost(owner)
		if err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, nil
}

// createThreads grows a comment and reply tree under roughly half the posts.
// Reply trees go up to three levels deep so nested hierarchies show up in
// development.
func createThreads(f *Factory, rng *rand.Rand, users []*models.User, posts []*models.Post) error {
	for _, post := range posts {
		if rng.Intn(2) == 0 {
			continue
		}
		numComments := rng.Intn(3) + 1
		for i := 0; i < numComments; i++ {
			comment, err := f.CreateComment(users[rng.Intn(len(users))], post)
			if err != nil {
				return err
			}

			numReplies := rng.Intn(3)
			for j := 0; j < numReplies; j++ {
				reply, err := f.CreateReply(users[rng.Intn(len(users))], comment, nil)
				if err != nil {
					return err
				}
				if rng.Intn(2) == 0 {
					nested, err := f.CreateReply(users[rng.Intn(len(users))], comment, reply)
					if err != nil {
						return err
					}
					if rng.Intn(3) == 0 {
						if _, err := f.CreateReply(users[rng.Intn(len(users))], comment, nested); err != nil {
							return err
						}
					}
				}
			}
		}
	}
	return nil
}

func createFollows(f *Factory, rng *rand.Rand, users []*models.User) error {
	if len(users) < 2 {
		return nil
	}
	for i, follower := range users {
		// A ring of follows guarantees every home feed has content.
		next := users[(i+1)%len(users)]
		seen := map[uint]struct{}{follower.ID: {}, next.ID: {}}
		if err := f.CreateFollow(follower, next); err != nil {
			return err
		}

		extras := rng.Intn(3)
		for j := 0; j < extras; j++ {
			target := users[rng.Intn(len(users))]
			if _, dup := seen[target.ID]; dup {
				continue
			}
			seen[target.ID] = struct{}{}
			if err := f.CreateFollow(follower, target); err != nil {
				return err
			}
		}
	}
	return nil
}

func createBookmarks(f *Factory, rng *rand.Rand, users []*models.User, posts []*models.Post) error {
	if len(posts) == 0 {
		return nil
	}
	for _, user := range users {
		numBookmarks := rng.Intn(3)
		seen := map[uint]struct{}{}
		for i := 0; i < numBookmarks; i++ {
			post := posts[rng.Intn(len(posts))]
			if _, dup := seen[post.ID]; dup {
				continue
			}
			seen[post.ID] = struct{}{}
			if err := f.CreateBookmark(user, post); err != nil {
				return err
			}
		}
	}
	return nil
}
