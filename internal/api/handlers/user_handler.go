package handlers

import (
	"github.com/gofiber/fiber/v2"
	config "github.com/publora/publora/configs"
	"github.com/publora/publora/internal/service"
)

type UserHandler struct {
	s   service.UserService
	cfg *config.Config
}

func NewUserHandler(s service.UserService, cfg *config.Config) *UserHandler {
	return &UserHandler{s: s, cfg: cfg}
}

func (h *UserHandler) GetUserInfo(c *fiber.Ctx) error {
	userInfo, err := h.s.GetUserInfo(c.Context(), GetUserID(c))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(userInfo)
}

// RemoveUser deletes the authenticated user's account. The session cookie is
// cleared so the next request lands back on login.
func (h *UserHandler) RemoveUser(c *fiber.Ctx) error {
	if err := h.s.RemoveUser(c.Context(), GetUserID(c)); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	c.Cookie(&fiber.Cookie{
		Name:     h.cfg.CookieName,
		Value:    "",
		MaxAge:   -1,
		HTTPOnly: true,
	})
	return c.JSON(fiber.Map{"status": "deleted"})
}
