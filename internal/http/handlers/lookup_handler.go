package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"membersite/internal/log"
	"membersite/internal/metrics"
	"membersite/internal/services"
	"membersite/internal/validate"
)

// LookupHandler demonstrates the structured-injection guard: the user
// parameter must be a plain string before it is used in an exact-match query.
type LookupHandler struct {
	Auth    *services.AuthService
	Metrics *metrics.Metrics
}

// GET /lookup?user=
func (h *LookupHandler) Lookup(c *fiber.Ctx) error {
	name, n, err := h.Auth.Lookup(c.UserContext(), queryValues(c))
	if err != nil {
		var ve *validate.ValidationError
		if errors.As(err, &ve) {
			return rejectInput(c, h.Metrics, "lookup", ve)
		}
		return err
	}
	if name == "" {
		return render(c, "lookup", fiber.Map{"Help": true})
	}
	log.Info(c, "lookup.query", map[string]any{"user": name, "matches": n})
	return render(c, "lookup", fiber.Map{"Name": name})
}
