package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "membersite/internal/log"
	"membersite/internal/services"
)

type AdminHandler struct {
	Auth *services.AuthService
}

// GET /admin lists every account; guarded by RequireUser and RequireAdmin.
func (h *AdminHandler) Users(c *fiber.Ctx) error {
	users, err := h.Auth.ListUsers(c.UserContext())
	if err != nil {
		applog.Error(c, "admin.users.list.fail", err, nil)
		return err
	}
	return render(c, "admin", fiber.Map{"Users": users})
}
