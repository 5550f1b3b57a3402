package seed

import (
	"fmt"
	"math/rand"
	"time"

	"stride/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Factory builds and persists fake domain records for development seeding and
// integration tests.
type Factory struct {
	db  *gorm.DB
	rng *rand.Rand
}

func NewFactory(db *gorm.DB) *Factory {
	gofakeit.Seed(time.Now().UnixNano())
	//nolint:gosec // Weak randomness is fine for seed data.
	return &Factory{db: db, rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

var placeTemplates = []string{
	"Long ride through %s, legs felt great.",
	"Hill repeats near %s. Brutal but worth it.",
	"Trail walk around %s with the dog.",
}

var distanceTemplates = []string{
	"Morning run, %d km at a steady pace.",
	"Easy recovery swim, %d laps.",
	"Interval session at the track: %d x 400m.",
	"Evening yoga and stretching after yesterday's %d km.",
}

func (f *Factory) activity() string {
	if f.rng.Intn(2) == 0 {
		tpl := placeTemplates[f.rng.Intn(len(placeTemplates))]
		return fmt.Sprintf(tpl, gofakeit.City())
	}
	tpl := distanceTemplates[f.rng.Intn(len(distanceTemplates))]
	return fmt.Sprintf(tpl, f.rng.Intn(20)+3)
}

var seedAvatarNames = []string{"runner", "cyclist", "swimmer", "hiker", "climber"}

// CreateUser persists a user with fake but plausible fields. All seed users
// share the same password so developers can log in as any of them.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte("Str1de-password!"), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash seed password: %w", err)
	}

	user := &models.User{
		Email:       gofakeit.Email(),
		Password:    string(hashed),
		DisplayName: gofakeit.Name(),
		Description: gofakeit.Sentence(8),
		AvatarName:  seedAvatarNames[f.rng.Intn(len(seedAvatarNames))],
	}
	for _, o := range overrides {
		o(user)
	}

	if err := f.db.Create(user).Error; err != nil {
		return nil, fmt.Errorf("create seed user: %w", err)
	}
	return user, nil
}

// CreatePost persists an activity post for the user. Roughly a third of the
// seeded posts are already completed.
func (f *Factory) CreatePost(user *models.User, overrides ...func(*models.Post)) (*models.Post, error) {
	post := &models.Post{
		Activity: f.activity(),
		UserID:   user.ID,
		IsActive: f.rng.Intn(3) != 0,
	}
	for _, o := range overrides {
		o(post)
	}

	if err := f.db.Create(post).Error; err != nil {
		return nil, fmt.Errorf("create seed post: %w", err)
	}
	return post, nil
}

// CreateComment persists a comment on a post.
func (f *Factory) CreateComment(user *models.User, post *models.Post) (*models.Comment, error) {
	comment := &models.Comment{
		Message: gofakeit.Sentence(f.rng.Intn(10) + 3),
		PostID:  post.ID,
		UserID:  user.ID,
	}
	if err := f.db.Create(comment).Error; err != nil {
		return nil, fmt.Errorf("create seed comment: %w", err)
	}
	return comment, nil
}

// CreateReply persists a reply under a comment. A nil parent makes a
// top-level reply; otherwise the reply nests under the parent while keeping
// the root comment id.
func (f *Factory) CreateReply(user *models.User, comment *models.Comment, parent *models.Reply) (*models.Reply, error) {
	reply := &models.Reply{
		Message:   gofakeit.Sentence(f.rng.Intn(8) + 2),
		CommentID: comment.ID,
		UserID:    user.ID,
	}
	if parent != nil {
		reply.CommentID = parent.CommentID
		reply.ParentReplyID = &parent.ID
	}
	if err := f.db.Create(reply).Error; err != nil {
		return nil, fmt.Errorf("create seed reply: %w", err)
	}
	return reply, nil
}

// CreateFollow persists a follow edge between two users.
func (f *Factory) CreateFollow(follower, followed *models.User) error {
	rel := &models.Relationship{
		UserID:           follower.ID,
		RelatedUserID:    followed.ID,
		RelationshipType: models.RelationshipFollowing,
	}
	if err := f.db.Create(rel).Error; err != nil {
		return fmt.Errorf("create seed follow: %w", err)
	}
	return nil
}

// CreateBookmark persists a bookmark.
func (f *Factory) CreateBookmark(user *models.User, post *models.Post) error {
	bookmark := &models.Bookmark{UserID: user.ID, PostID: post.ID}
	if err := f.db.Create(bookmark).Error; err != nil {
		return fmt.Errorf("create seed bookmark: %w", err)
	}
	return nil
}
