package server

import (
	"stride/internal/models"
	"stride/internal/service"

	"github.com/gofiber/fiber/v2"
)

// maxProfilePictureBytes caps raw uploads before image processing.
const maxProfilePictureBytes = 5 << 20

// GetMyProfile handles GET /api/users/me
// @Summary Own profile
// @Description The authenticated user's profile with social counts
// @Tags users
// @Produce json
// @Success 200 {object} service.Profile
// @Failure 401 {object} object{error=string}
// @Router /users/me [get]
func (s *Server) GetMyProfile(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	profile, err := s.userService.GetProfile(c.Context(), userID, userID)
	if err != nil {
		return respondServiceError(c, err)
	}
	profile.User.Password = ""
	return c.JSON(profile)
}

// GetUserProfile handles GET /api/users/:id
// @Summary User profile
// @Description A user's profile with social counts and the viewer's relationship
// @Tags users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} service.Profile
// @Failure 400 {object} object{error=string}
// @Failure 404 {object} object{error=string}
// @Router /users/{id} [get]
func (s *Server) GetUserProfile(c *fiber.Ctx) error {
	viewerID := c.Locals("userID").(uint)
	userID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	profile, err := s.userService.GetProfile(c.Context(), viewerID, userID)
	if err != nil {
		return respondServiceError(c, err)
	}
	profile.User.Password = ""
	return c.JSON(profile)
}

// UpdateMyProfile handles PUT /api/users/me
// @Summary Update profile
// @Description Update display name, description, or avatar
// @Tags users
// @Accept json
// @Produce json
// @Param request body object{display_name=string,description=string,avatar=string} true "Profile fields"
// @Success 200 {object} models.User
// @Failure 400 {object} object{error=string}
// @Failure 401 {object} object{error=string}
// @Router /users/me [put]
func (s *Server) UpdateMyProfile(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	var req struct {
		DisplayName string  `json:"display_name"`
		Description *string `json:"description"`
		Avatar      string  `json:"avatar"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	user, err := s.userService.UpdateProfile(c.Context(), service.UpdateProfileInput{
		UserID:      userID,
		DisplayName: req.DisplayName,
		Description: req.Description,
		AvatarName:  req.Avatar,
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	user.Password = ""
	return c.JSON(user)
}

// UploadProfilePicture handles PUT /api/users/me/picture
// @Summary Upload profile picture
// @Description Replace the profile picture; the image is re-encoded server side
// @Tags users
// @Accept octet-stream
// @Produce json
// @Success 200 {object} object{message=string}
// @Failure 400 {object} object{error=string}
// @Failure 401 {object} object{error=string}
// @Router /users/me/picture [put]
func (s *Server) UploadProfilePicture(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	body := c.Body()
	if len(body) == 0 {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Image data is required"))
	}
	if len(body) > maxProfilePictureBytes {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Image too large (max 5 MB)"))
	}

	if _, err := s.userService.UpdateProfile(c.Context(), service.UpdateProfileInput{
		UserID:         userID,
		ProfilePicture: body,
	}); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Profile picture updated"})
}

// SearchUsers handles GET /api/users/search
// @Summary Search users
// @Description Find users by display name or email prefix
// @Tags users
// @Produce json
// @Param q query string true "Search query"
// @Param limit query int false "Page size (max 100)"
// @Param offset query int false "Page offset"
// @Success 200 {array} service.UserSearchResult
// @Failure 400 {object} object{error=string}
// @Router /users/search [get]
func (s *Server) SearchUsers(c *fiber.Ctx) error {
	viewerID := c.Locals("userID").(uint)
	page := parsePagination(c, 20)

	results, err := s.userService.SearchUsers(c.Context(), viewerID, c.Query("q"), page.Limit, page.Offset)
	if err != nil {
		return respondServiceError(c, err)
	}
	for i := range results {
		results[i].User.Password = ""
	}
	return c.JSON(results)
}

// ListAvatars handles GET /api/avatars
// @Summary List avatars
// @Description The avatar catalog as name to image path
// @Tags users
// @Produce json
// @Success 200 {object} map[string]string
// @Router /avatars [get]
func (s *Server) ListAvatars(c *fiber.Ctx) error {
	avatars, err := s.userService.ListAvatars(c.Context())
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(avatars)
}
