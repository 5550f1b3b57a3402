package server

import (
	"stride/internal/models"
	"stride/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreatePost handles POST /api/posts
// @Summary Create post
// @Description Start a new activity post
// @Tags posts
// @Accept json
// @Produce json
// @Param request body object{activity=string} true "Post body"
// @Success 201 {object} models.Post
// @Failure 400 {object} object{error=string}
// @Failure 401 {object} object{error=string}
// @Router /posts [post]
func (s *Server) CreatePost(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	var req struct {
		Activity string `json:"activity"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	post, err := s.postService.CreatePost(c.Context(), service.CreatePostInput{
		UserID:   userID,
		Activity: req.Activity,
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(post)
}

// CompleteActivity handles POST /api/posts/:id/complete
// @Summary Complete activity
// @Description Mark an ongoing activity as completed; repeating is a no-op
// @Tags posts
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {object} models.Post
// @Failure 403 {object} object{error=string}
// @Failure 404 {object} object{error=string}
// @Router /posts/{id}/complete [post]
func (s *Server) CompleteActivity(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	post, err := s.postService.CompleteActivity(c.Context(), userID, postID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(post)
}

// DeletePost handles DELETE /api/posts/:id
// @Summary Delete post
// @Description Remove a post and its threads; owner only
// @Tags posts
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {object} object{message=string}
// @Failure 403 {object} object{error=string}
// @Failure 404 {object} object{error=string}
// @Router /posts/{id} [delete]
func (s *Server) DeletePost(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.postService.DeletePost(c.Context(), userID, postID); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Post deleted"})
}

// CreateComment handles POST /api/posts/:id/comments
// @Summary Create comment
// @Description Comment on a post
// @Tags comments
// @Accept json
// @Produce json
// @Param id path int true "Post ID"
// @Param request body object{message=string} true "Comment body"
// @Success 201 {object} models.Comment
// @Failure 400 {object} object{error=string}
// @Failure 404 {object} object{error=string}
// @Router /posts/{id}/comments [post]
func (s *Server) CreateComment(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Message string `json:"message"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	comment, err := s.postService.CreateComment(c.Context(), service.CreateCommentInput{
		UserID:  userID,
		PostID:  postID,
		Message: req.Message,
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(comment)
}

// CreateReply handles POST /api/comments/:id/replies
// @Summary Create reply
// @Description Reply directly under a comment
// @Tags replies
// @Accept json
// @Produce json
// @Param id path int true "Comment ID"
// @Param request body object{message=string} true "Reply body"
// @Success 201 {object} models.Reply
// @Failure 400 {object} object{error=string}
// @Failure 404 {object} object{error=string}
// @Router /comments/{id}/replies [post]
func (s *Server) CreateReply(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	commentID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Message string `json:"message"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	reply, err := s.postService.CreateReply(c.Context(), service.CreateReplyInput{
		UserID:    userID,
		CommentID: commentID,
		Message:   req.Message,
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(reply)
}

// CreateNestedReply handles POST /api/replies/:id/replies
// @Summary Create nested reply
// @Description Reply under another reply; the new reply keeps the root comment
// @Tags replies
// @Accept json
// @Produce json
// @Param id path int true "Parent reply ID"
// @Param request body object{message=string} true "Reply body"
// @Success 201 {object} models.Reply
// @Failure 400 {object} object{error=string}
// @Failure 404 {object} object{error=string}
// @Router /replies/{id}/replies [post]
func (s *Server) CreateNestedReply(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	parentID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Message string `json:"message"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	reply, err := s.postService.CreateReply(c.Context(), service.CreateReplyInput{
		UserID:        userID,
		ParentReplyID: &parentID,
		Message:       req.Message,
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(reply)
}
