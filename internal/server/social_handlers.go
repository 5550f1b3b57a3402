package server

import (
	"github.com/gofiber/fiber/v2"
)

// Follow handles POST /api/users/:id/follow
// @Summary Follow user
// @Description Follow another user; following again is a no-op
// @Tags social
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} object{message=string}
// @Failure 400 {object} object{error=string}
// @Failure 404 {object} object{error=string}
// @Router /users/{id}/follow [post]
func (s *Server) Follow(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	targetID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.socialService.Follow(c.Context(), userID, targetID); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Following"})
}

// Unfollow handles DELETE /api/users/:id/follow
// @Summary Unfollow user
// @Description Stop following a user; unfollowing a non-followed user is a no-op
// @Tags social
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} object{message=string}
// @Failure 400 {object} object{error=string}
// @Router /users/{id}/follow [delete]
func (s *Server) Unfollow(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	targetID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.socialService.Unfollow(c.Context(), userID, targetID); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Unfollowed"})
}

// Bookmark handles POST /api/posts/:id/bookmark
// @Summary Bookmark post
// @Description Save a post; bookmarking again is a no-op
// @Tags social
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {object} object{message=string}
// @Failure 404 {object} object{error=string}
// @Router /posts/{id}/bookmark [post]
func (s *Server) Bookmark(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.socialService.Bookmark(c.Context(), userID, postID); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Bookmarked"})
}

// Unbookmark handles DELETE /api/posts/:id/bookmark
// @Summary Remove bookmark
// @Description Remove a saved post; removing an absent bookmark is a no-op
// @Tags social
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {object} object{message=string}
// @Router /posts/{id}/bookmark [delete]
func (s *Server) Unbookmark(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.socialService.Unbookmark(c.Context(), userID, postID); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Bookmark removed"})
}
