package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"stride/internal/cache"
	"stride/internal/config"
	"stride/internal/models"
	"stride/internal/service"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// withUser injects the authenticated user id the way AuthRequired would.
func withUser(app *fiber.App, userID uint) {
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("userID", userID)
		return c.Next()
	})
}

func decodeFeed(t *testing.T, resp *http.Response) service.Feed {
	t.Helper()
	var feed service.Feed
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&feed))
	return feed
}

func TestHomeFeed_AnnotatedAndPartitioned(t *testing.T) {
	s, m := newTestServer()

	posts := []*models.Post{
		{ID: 1, Activity: "morning run", UserID: 7, IsActive: true},
		{ID: 2, Activity: "evening swim", UserID: 9, IsActive: false},
	}
	m.posts.On("ListFollowed", mock.Anything, uint(9), 20, 0).Return(posts, nil)
	m.rels.On("GetRelationshipMap", mock.Anything, uint(9), mock.Anything).
		Return(map[uint]models.RelationshipType{7: models.RelationshipFollowing}, nil)
	m.bookmarks.On("GetBookmarkedPostIDs", mock.Anything, uint(9), mock.Anything).
		Return([]uint{1}, nil)
	m.comments.On("CountByPostIDs", mock.Anything, mock.Anything).
		Return(map[uint]int64{1: 2}, nil)
	m.replies.On("CountByPostIDs", mock.Anything, mock.Anything).
		Return(map[uint]int64{1: 3}, nil)

	app := fiber.New()
	withUser(app, 9)
	app.Get("/feeds/home", s.HomeFeed)

	req := httptest.NewRequest(http.MethodGet, "/feeds/home", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	feed := decodeFeed(t, resp)

	require.Len(t, feed.Ongoing, 1)
	require.Len(t, feed.Completed, 1)

	ongoing := feed.Ongoing[0]
	assert.EqualValues(t, 1, ongoing.Post.ID)
	assert.Equal(t, models.RelationshipFollowing, ongoing.RelationshipType)
	assert.True(t, ongoing.Bookmarked)
	assert.EqualValues(t, 5, ongoing.CommentsAndReplies)

	completed := feed.Completed[0]
	assert.True(t, completed.IsOwn)
	assert.Empty(t, completed.RelationshipType)
}

func TestHomeFeed_StorageFailureReturns503(t *testing.T) {
	s, m := newTestServer()
	m.posts.On("ListFollowed", mock.Anything, uint(9), 20, 0).
		Return(nil, gorm.ErrInvalidDB)

	app := fiber.New()
	withUser(app, 9)
	app.Get("/feeds/home", s.HomeFeed)

	req := httptest.NewRequest(http.MethodGet, "/feeds/home", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestExploreFeed_AnonymousViewerSkipsAnnotationReads(t *testing.T) {
	s, m := newTestServer()

	posts := []*models.Post{{ID: 4, Activity: "trail walk", UserID: 2, IsActive: true}}
	m.posts.On("ListAll", mock.Anything, 20, 0).Return(posts, nil)
	m.comments.On("CountByPostIDs", mock.Anything, mock.Anything).
		Return(map[uint]int64{}, nil)
	m.replies.On("CountByPostIDs", mock.Anything, mock.Anything).
		Return(map[uint]int64{}, nil)

	app := fiber.New()
	app.Get("/feeds/explore", s.ExploreFeed)

	req := httptest.NewRequest(http.MethodGet, "/feeds/explore", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	feed := decodeFeed(t, resp)
	require.Len(t, feed.Ongoing, 1)
	assert.False(t, feed.Ongoing[0].Bookmarked)
	assert.Empty(t, feed.Ongoing[0].RelationshipType)
	assert.False(t, feed.Ongoing[0].IsOwn)

	m.rels.AssertNotCalled(t, "GetRelationshipMap", mock.Anything, mock.Anything, mock.Anything)
	m.bookmarks.AssertNotCalled(t, "GetBookmarkedPostIDs", mock.Anything, mock.Anything, mock.Anything)
}

func TestProfileFeed_UnknownOwnerReturns404(t *testing.T) {
	s, m := newTestServer()
	m.users.On("GetByID", mock.Anything, uint(999)).Return(nil, gorm.ErrRecordNotFound)

	app := fiber.New()
	withUser(app, 9)
	app.Get("/users/:id/posts", s.ProfileFeed)

	req := httptest.NewRequest(http.MethodGet, "/users/999/posts", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestBookmarkFeed_ListsSavedPosts(t *testing.T) {
	s, m := newTestServer()

	posts := []*models.Post{{ID: 11, Activity: "hill repeats", UserID: 3, IsActive: true}}
	m.posts.On("ListBookmarked", mock.Anything, uint(9), 20, 0).Return(posts, nil)
	m.rels.On("GetRelationshipMap", mock.Anything, uint(9), mock.Anything).
		Return(map[uint]models.RelationshipType{}, nil)
	m.bookmarks.On("GetBookmarkedPostIDs", mock.Anything, uint(9), mock.Anything).
		Return([]uint{11}, nil)
	m.comments.On("CountByPostIDs", mock.Anything, mock.Anything).
		Return(map[uint]int64{}, nil)
	m.replies.On("CountByPostIDs", mock.Anything, mock.Anything).
		Return(map[uint]int64{}, nil)

	app := fiber.New()
	withUser(app, 9)
	app.Get("/feeds/bookmarks", s.BookmarkFeed)

	req := httptest.NewRequest(http.MethodGet, "/feeds/bookmarks", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	feed := decodeFeed(t, resp)
	require.Len(t, feed.Ongoing, 1)
	assert.True(t, feed.Ongoing[0].Bookmarked)
}

func TestGetPostDetail_NotFound(t *testing.T) {
	s, m := newTestServer()
	m.posts.On("GetByID", mock.Anything, uint(77)).Return(nil, gorm.ErrRecordNotFound)

	app := fiber.New()
	app.Get("/posts/:id", s.GetPostDetail)

	req := httptest.NewRequest(http.MethodGet, "/posts/77", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Contains(t, body["error"], "Post")
}

func TestGetPostDetail_InvalidID(t *testing.T) {
	s, _ := newTestServer()

	app := fiber.New()
	app.Get("/posts/:id", s.GetPostDetail)

	req := httptest.NewRequest(http.MethodGet, "/posts/banana", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetCommentDetail_ReturnsRepliesWithSubtreeSizes(t *testing.T) {
	s, m := newTestServer()

	comment := &models.Comment{ID: 5, Message: "nice pace", PostID: 1, UserID: 2}
	parentID := uint(21)
	m.comments.On("GetByID", mock.Anything, uint(5)).Return(comment, nil)
	m.replies.On("ListByRootComment", mock.Anything, uint(5)).Return([]*models.Reply{
		{ID: 21, Message: "thanks", CommentID: 5, UserID: 1},
		{ID: 22, Message: "same route?", CommentID: 5, UserID: 3, ParentReplyID: &parentID},
	}, nil)

	app := fiber.New()
	app.Get("/comments/:id", s.GetCommentDetail)

	req := httptest.NewRequest(http.MethodGet, "/comments/5", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var detail service.CommentDetail
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&detail))
	assert.EqualValues(t, 5, detail.Comment.ID)
	require.Len(t, detail.Replies, 1)
	assert.EqualValues(t, 21, detail.Replies[0].Reply.ID)
	assert.Equal(t, 1, detail.Replies[0].DescendantCount)
}

func TestGetCommentDetail_SignedInViewerSeesRelationships(t *testing.T) {
	s, m := newTestServer()
	s.config = &config.Config{JWTSecret: testJWTSecret}

	comment := &models.Comment{ID: 5, Message: "nice pace", PostID: 1, UserID: 2}
	m.comments.On("GetByID", mock.Anything, uint(5)).Return(comment, nil)
	m.replies.On("ListByRootComment", mock.Anything, uint(5)).Return([]*models.Reply{
		{ID: 21, Message: "thanks", CommentID: 5, UserID: 3},
	}, nil)
	m.rels.On("GetRelationshipMap", mock.Anything, uint(9), []uint{3}).
		Return(map[uint]models.RelationshipType{3: models.RelationshipFollowing}, nil)

	token, err := s.generateToken(9)
	require.NoError(t, err)

	app := fiber.New()
	app.Get("/comments/:id", s.GetCommentDetail)

	req := httptest.NewRequest(http.MethodGet, "/comments/5", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var detail service.CommentDetail
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&detail))
	require.Len(t, detail.Replies, 1)
	assert.Equal(t, models.RelationshipFollowing, detail.Replies[0].RelationshipType)
}

func TestGetCommentDetail_CacheServesAnonymousViewersOnly(t *testing.T) {
	s, m := newTestServer()
	s.config = &config.Config{JWTSecret: testJWTSecret}

	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()
	s.redis = redis.NewClient(&redis.Options{Addr: mr.Addr()})

	stale := service.CommentDetail{Comment: models.Comment{ID: 5, Message: "cached copy"}}
	raw, err := json.Marshal(stale)
	require.NoError(t, err)
	require.NoError(t, mr.Set(cache.ThreadKey(5), string(raw)))

	comment := &models.Comment{ID: 5, Message: "nice pace", PostID: 1, UserID: 2}
	m.comments.On("GetByID", mock.Anything, uint(5)).Return(comment, nil)
	m.replies.On("ListByRootComment", mock.Anything, uint(5)).Return([]*models.Reply{}, nil)

	token, err := s.generateToken(9)
	require.NoError(t, err)

	app := fiber.New()
	app.Get("/comments/:id", s.GetCommentDetail)

	// Anonymous viewers read the cached rendering.
	req := httptest.NewRequest(http.MethodGet, "/comments/5", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var anon service.CommentDetail
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&anon))
	assert.Equal(t, "cached copy", anon.Comment.Message)

	// Signed-in viewers bypass the cache so annotations are never stale.
	req = httptest.NewRequest(http.MethodGet, "/comments/5", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var signedIn service.CommentDetail
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&signedIn))
	assert.Equal(t, "nice pace", signedIn.Comment.Message)
}

func TestGetReplyDetail_NotFound(t *testing.T) {
	s, m := newTestServer()
	m.replies.On("GetByID", mock.Anything, uint(404)).Return(nil, gorm.ErrRecordNotFound)

	app := fiber.New()
	app.Get("/replies/:id", s.GetReplyDetail)

	req := httptest.NewRequest(http.MethodGet, "/replies/404", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
