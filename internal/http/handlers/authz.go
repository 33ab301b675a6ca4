package handlers

import (
	"github.com/gofiber/fiber/v2"

	"membersite/internal/domain"
	applog "membersite/internal/log"
	"membersite/internal/metrics"
	"membersite/internal/session"
)

// AttachUser exposes the caller's identity to templates when logged in.
func AttachUser(auth *session.Authenticator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if id, ok := auth.Current(c); ok {
			c.Locals(LocalsUser, id)
		}
		return c.Next()
	}
}

// RequireUser enforces that a user is logged in; otherwise redirect to login.
func RequireUser(auth *session.Authenticator, m *metrics.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := auth.Current(c)
		if !ok {
			m.AccessDenied.WithLabelValues("anonymous").Inc()
			return c.Redirect("/login")
		}
		c.Locals(LocalsUser, id)
		return c.Next()
	}
}

// RequireAdmin must be chained after RequireUser. It trusts the role copied
// into the session at login; a missing identity is denied the same way as a
// standard user.
func RequireAdmin(m *metrics.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := c.Locals(LocalsUser).(domain.Identity)
		if !ok || !id.Role.IsAdmin() {
			m.AccessDenied.WithLabelValues("not_admin").Inc()
			applog.Security(c, "access.denied.admin", map[string]any{"email": id.Email})
			return renderStatus(c, fiber.StatusForbidden, "error", fiber.Map{"Message": "Error 403: Not Authorized"})
		}
		return c.Next()
	}
}
