package server

import (
	"encoding/json"
	"errors"
	"time"

	"stride/internal/cache"
	"stride/internal/observability"
	"stride/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// HomeFeed handles GET /api/feeds/home
// @Summary Home feed
// @Description Posts by the viewer and the users they follow, split into ongoing and completed
// @Tags feeds
// @Produce json
// @Param limit query int false "Page size (max 100)"
// @Param offset query int false "Page offset"
// @Success 200 {object} service.Feed
// @Failure 401 {object} object{error=string}
// @Failure 503 {object} object{error=string}
// @Router /feeds/home [get]
func (s *Server) HomeFeed(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	page := parsePagination(c, 20)

	// First page is cached briefly; deeper pages hit storage directly.
	cacheable := page.Offset == 0 && page.Limit == 20 &&
		s.featureFlags.Enabled("home_feed_cache", userID)
	if cacheable {
		var cached service.Feed
		if s.cacheGet(c, cache.HomeFeedKey(userID), &cached) {
			return c.JSON(cached)
		}
	}

	feed, err := s.feedService.HomeFeed(c.Context(), userID, page.Limit, page.Offset)
	if err != nil {
		return respondServiceError(c, err)
	}

	if cacheable {
		s.cacheSet(c, cache.HomeFeedKey(userID), feed, cache.HomeFeedTTL)
	}
	return c.JSON(feed)
}

// ExploreFeed handles GET /api/feeds/explore
// @Summary Explore feed
// @Description Recent posts from all users; annotations require a valid token
// @Tags feeds
// @Produce json
// @Param limit query int false "Page size (max 100)"
// @Param offset query int false "Page offset"
// @Success 200 {object} service.Feed
// @Failure 503 {object} object{error=string}
// @Router /feeds/explore [get]
func (s *Server) ExploreFeed(c *fiber.Ctx) error {
	viewerID := s.optionalUserID(c)
	page := parsePagination(c, 20)

	feed, err := s.feedService.ExploreFeed(c.Context(), viewerID, page.Limit, page.Offset)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(feed)
}

// ProfileFeed handles GET /api/users/:id/posts
// @Summary Profile feed
// @Description One user's posts as seen by the viewer
// @Tags feeds
// @Produce json
// @Param id path int true "User ID"
// @Param limit query int false "Page size (max 100)"
// @Param offset query int false "Page offset"
// @Success 200 {object} service.Feed
// @Failure 400 {object} object{error=string}
// @Failure 404 {object} object{error=string}
// @Router /users/{id}/posts [get]
func (s *Server) ProfileFeed(c *fiber.Ctx) error {
	viewerID := c.Locals("userID").(uint)
	ownerID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	page := parsePagination(c, 20)

	feed, err := s.feedService.ProfileFeed(c.Context(), viewerID, ownerID, page.Limit, page.Offset)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(feed)
}

// BookmarkFeed handles GET /api/feeds/bookmarks
// @Summary Bookmark feed
// @Description The viewer's bookmarked posts
// @Tags feeds
// @Produce json
// @Param limit query int false "Page size (max 100)"
// @Param offset query int false "Page offset"
// @Success 200 {object} service.Feed
// @Failure 401 {object} object{error=string}
// @Router /feeds/bookmarks [get]
func (s *Server) BookmarkFeed(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	page := parsePagination(c, 20)

	feed, err := s.feedService.BookmarkFeed(c.Context(), userID, page.Limit, page.Offset)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(feed)
}

// GetPostDetail handles GET /api/posts/:id
// @Summary Post detail
// @Description A single annotated post with its comments and thread sizes
// @Tags posts
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {object} service.PostDetail
// @Failure 400 {object} object{error=string}
// @Failure 404 {object} object{error=string}
// @Router /posts/{id} [get]
func (s *Server) GetPostDetail(c *fiber.Ctx) error {
	viewerID := s.optionalUserID(c)
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	detail, err := s.feedService.GetPostDetail(c.Context(), viewerID, postID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(detail)
}

// GetCommentDetail handles GET /api/comments/:id
// @Summary Comment detail
// @Description A comment with its direct replies, their subtree sizes, and the viewer's relationship to each replier
// @Tags comments
// @Produce json
// @Param id path int true "Comment ID"
// @Success 200 {object} service.CommentDetail
// @Failure 400 {object} object{error=string}
// @Failure 404 {object} object{error=string}
// @Router /comments/{id} [get]
func (s *Server) GetCommentDetail(c *fiber.Ctx) error {
	viewerID := s.optionalUserID(c)
	commentID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	// Only the viewer-neutral rendering is cacheable; signed-in viewers get
	// relationship annotations and always hit storage.
	cacheable := viewerID == 0
	if cacheable {
		var cached service.CommentDetail
		if s.cacheGet(c, cache.ThreadKey(commentID), &cached) {
			return c.JSON(cached)
		}
	}

	detail, err := s.feedService.GetCommentDetail(c.Context(), viewerID, commentID)
	if err != nil {
		return respondServiceError(c, err)
	}

	if cacheable {
		s.cacheSet(c, cache.ThreadKey(commentID), detail, cache.ThreadTTL)
	}
	return c.JSON(detail)
}

// GetReplyDetail handles GET /api/replies/:id
// @Summary Reply detail
// @Description A reply with its direct children, their subtree sizes, and the viewer's relationship to each replier
// @Tags replies
// @Produce json
// @Param id path int true "Reply ID"
// @Success 200 {object} service.ReplyDetail
// @Failure 400 {object} object{error=string}
// @Failure 404 {object} object{error=string}
// @Router /replies/{id} [get]
func (s *Server) GetReplyDetail(c *fiber.Ctx) error {
	viewerID := s.optionalUserID(c)
	replyID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	detail, err := s.feedService.GetReplyDetail(c.Context(), viewerID, replyID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(detail)
}

// cacheGet loads a cached JSON value. Cache errors are recorded and treated
// as misses.
func (s *Server) cacheGet(c *fiber.Ctx, key string, dest any) bool {
	if s.redis == nil {
		return false
	}
	raw, err := s.redis.Get(c.Context(), key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			observability.CacheErrors.WithLabelValues("get").Inc()
		}
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		observability.CacheErrors.WithLabelValues("decode").Inc()
		return false
	}
	return true
}

// cacheSet stores a JSON value with a TTL. Failures only cost freshness.
func (s *Server) cacheSet(c *fiber.Ctx, key string, value any, ttl time.Duration) {
	if s.redis == nil {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := s.redis.Set(c.Context(), key, raw, ttl).Err(); err != nil {
		observability.CacheErrors.WithLabelValues("set").Inc()
	}
}
