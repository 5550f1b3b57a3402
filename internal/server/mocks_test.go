package server

import (
	"context"

	"stride/internal/models"
	"stride/internal/service"
	"stride/internal/thread"

	"github.com/stretchr/testify/mock"
)

// Testify mocks for the repository interfaces, shared by the handler tests.

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) Update(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) Search(ctx context.Context, query string, limit, offset int) ([]*models.User, error) {
	args := m.Called(ctx, query, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.User), args.Error(1)
}

type MockPostRepository struct {
	mock.Mock
}

func (m *MockPostRepository) Create(ctx context.Context, post *models.Post) error {
	args := m.Called(ctx, post)
	return args.Error(0)
}

func (m *MockPostRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Post), args.Error(1)
}

func (m *MockPostRepository) Update(ctx context.Context, post *models.Post) error {
	args := m.Called(ctx, post)
	return args.Error(0)
}

func (m *MockPostRepository) Complete(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockPostRepository) Delete(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockPostRepository) ListFollowed(ctx context.Context, userID uint, limit, offset int) ([]*models.Post, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Post), args.Error(1)
}

func (m *MockPostRepository) ListAll(ctx context.Context, limit, offset int) ([]*models.Post, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Post), args.Error(1)
}

func (m *MockPostRepository) ListByOwner(ctx context.Context, ownerID uint, limit, offset int) ([]*models.Post, error) {
	args := m.Called(ctx, ownerID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Post), args.Error(1)
}

func (m *MockPostRepository) ListBookmarked(ctx context.Context, userID uint, limit, offset int) ([]*models.Post, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Post), args.Error(1)
}

type MockCommentRepository struct {
	mock.Mock
}

func (m *MockCommentRepository) Create(ctx context.Context, comment *models.Comment) error {
	args := m.Called(ctx, comment)
	return args.Error(0)
}

func (m *MockCommentRepository) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Comment), args.Error(1)
}

func (m *MockCommentRepository) ListByPost(ctx context.Context, postID uint) ([]*models.Comment, error) {
	args := m.Called(ctx, postID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Comment), args.Error(1)
}

func (m *MockCommentRepository) CountByPostIDs(ctx context.Context, postIDs []uint) (map[uint]int64, error) {
	args := m.Called(ctx, postIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[uint]int64), args.Error(1)
}

func (m *MockCommentRepository) Delete(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockReplyRepository struct {
	mock.Mock
}

func (m *MockReplyRepository) Create(ctx context.Context, reply *models.Reply) error {
	args := m.Called(ctx, reply)
	return args.Error(0)
}

func (m *MockReplyRepository) GetByID(ctx context.Context, id uint) (*models.Reply, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Reply), args.Error(1)
}

func (m *MockReplyRepository) ListTopLevel(ctx context.Context, commentID uint) ([]*models.Reply, error) {
	args := m.Called(ctx, commentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Reply), args.Error(1)
}

func (m *MockReplyRepository) ListChildren(ctx context.Context, parentReplyID uint) ([]*models.Reply, error) {
	args := m.Called(ctx, parentReplyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Reply), args.Error(1)
}

func (m *MockReplyRepository) ListByRootComment(ctx context.Context, commentID uint) ([]*models.Reply, error) {
	args := m.Called(ctx, commentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Reply), args.Error(1)
}

func (m *MockReplyRepository) CountByCommentIDs(ctx context.Context, commentIDs []uint) (map[uint]int64, error) {
	args := m.Called(ctx, commentIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[uint]int64), args.Error(1)
}

func (m *MockReplyRepository) CountByPostIDs(ctx context.Context, postIDs []uint) (map[uint]int64, error) {
	args := m.Called(ctx, postIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[uint]int64), args.Error(1)
}

type MockRelationshipRepository struct {
	mock.Mock
}

func (m *MockRelationshipRepository) Follow(ctx context.Context, userID, relatedUserID uint) error {
	args := m.Called(ctx, userID, relatedUserID)
	return args.Error(0)
}

func (m *MockRelationshipRepository) Unfollow(ctx context.Context, userID, relatedUserID uint) error {
	args := m.Called(ctx, userID, relatedUserID)
	return args.Error(0)
}

func (m *MockRelationshipRepository) IsFollowing(ctx context.Context, userID, relatedUserID uint) (bool, error) {
	args := m.Called(ctx, userID, relatedUserID)
	return args.Bool(0), args.Error(1)
}

func (m *MockRelationshipRepository) GetRelationshipMap(ctx context.Context, userID uint, relatedUserIDs []uint) (map[uint]models.RelationshipType, error) {
	args := m.Called(ctx, userID, relatedUserIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[uint]models.RelationshipType), args.Error(1)
}

func (m *MockRelationshipRepository) CountFollowers(ctx context.Context, userID uint) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRelationshipRepository) CountFollowing(ctx context.Context, userID uint) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

type MockBookmarkRepository struct {
	mock.Mock
}

func (m *MockBookmarkRepository) Bookmark(ctx context.Context, userID, postID uint) error {
	args := m.Called(ctx, userID, postID)
	return args.Error(0)
}

func (m *MockBookmarkRepository) Unbookmark(ctx context.Context, userID, postID uint) error {
	args := m.Called(ctx, userID, postID)
	return args.Error(0)
}

func (m *MockBookmarkRepository) IsBookmarked(ctx context.Context, userID, postID uint) (bool, error) {
	args := m.Called(ctx, userID, postID)
	return args.Bool(0), args.Error(1)
}

func (m *MockBookmarkRepository) GetBookmarkedPostIDs(ctx context.Context, userID uint, postIDs []uint) ([]uint, error) {
	args := m.Called(ctx, userID, postIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uint), args.Error(1)
}

type MockAvatarRepository struct {
	mock.Mock
}

func (m *MockAvatarRepository) Upsert(ctx context.Context, avatars []models.Avatar) error {
	args := m.Called(ctx, avatars)
	return args.Error(0)
}

func (m *MockAvatarRepository) GetByName(ctx context.Context, name string) (*models.Avatar, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Avatar), args.Error(1)
}

func (m *MockAvatarRepository) GetAll(ctx context.Context) (map[string]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]string), args.Error(1)
}

// testMocks bundles one mock per repository.
type testMocks struct {
	users     *MockUserRepository
	posts     *MockPostRepository
	comments  *MockCommentRepository
	replies   *MockReplyRepository
	rels      *MockRelationshipRepository
	bookmarks *MockBookmarkRepository
	avatars   *MockAvatarRepository
}

// newTestServer builds a Server whose services run over mock repositories.
func newTestServer() (*Server, *testMocks) {
	m := &testMocks{
		users:     new(MockUserRepository),
		posts:     new(MockPostRepository),
		comments:  new(MockCommentRepository),
		replies:   new(MockReplyRepository),
		rels:      new(MockRelationshipRepository),
		bookmarks: new(MockBookmarkRepository),
		avatars:   new(MockAvatarRepository),
	}

	resolver := thread.NewResolver(m.comments, m.replies)
	s := &Server{
		userRepo:     m.users,
		postRepo:     m.posts,
		commentRepo:  m.comments,
		replyRepo:    m.replies,
		relRepo:      m.rels,
		bookmarkRepo: m.bookmarks,
		avatarRepo:   m.avatars,

		feedService:   service.NewFeedService(m.users, m.posts, m.comments, m.rels, m.bookmarks, resolver),
		postService:   service.NewPostService(m.posts, m.comments, m.replies, nil),
		socialService: service.NewSocialService(m.users, m.posts, m.rels, m.bookmarks),
		userService:   service.NewUserService(m.users, m.rels, m.avatars),
	}
	return s, m
}
