package server

import "github.com/gofiber/fiber/v2"

// GetFeatureFlags handles GET /api/flags
// @Summary Feature flags
// @Description Configured feature flags and their evaluated state for the current user
// @Tags meta
// @Produce json
// @Success 200 {object} object{raw=object,evaluated=object}
// @Security BearerAuth
// @Router /flags [get]
func (s *Server) GetFeatureFlags(c *fiber.Ctx) error {
	userID, _ := c.Locals("userID").(uint)

	if s.featureFlags == nil {
		return c.JSON(fiber.Map{
			"raw":       map[string]string{},
			"evaluated": map[string]bool{},
		})
	}

	return c.JSON(fiber.Map{
		"raw":       s.featureFlags.Raw(),
		"evaluated": s.featureFlags.Snapshot(userID),
	})
}
