package handlers

import (
	"net/url"

	"github.com/gofiber/fiber/v2"

	"membersite/internal/domain"
)

// LocalsUser is the fiber Locals key holding the caller's domain.Identity.
const LocalsUser = "user"

func render(c *fiber.Ctx, tmpl string, data fiber.Map) error {
	if data == nil {
		data = fiber.Map{}
	}
	if u, ok := c.Locals(LocalsUser).(domain.Identity); ok {
		data["User"] = u
	}
	tok, _ := c.Locals("csrf").(string)
	if tok == "" {
		// csrf middleware only sets Locals on safe methods
		tok = c.Cookies("csrf_")
	}
	if tok != "" {
		data["CSRFToken"] = tok
	}
	return c.Render(tmpl, data)
}

func renderStatus(c *fiber.Ctx, status int, tmpl string, data fiber.Map) error {
	c.Status(status)
	return render(c, tmpl, data)
}

// formValues collects the raw request body fields, keeping repeated and
// bracketed keys so the validator can see their shape.
func formValues(c *fiber.Ctx) url.Values {
	v := url.Values{}
	c.Request().PostArgs().VisitAll(func(k, val []byte) {
		v.Add(string(k), string(val))
	})
	if mf, err := c.MultipartForm(); err == nil {
		for k, vs := range mf.Value {
			v[k] = append(v[k], vs...)
		}
	}
	return v
}

func queryValues(c *fiber.Ctx) url.Values {
	v := url.Values{}
	c.Request().URI().QueryArgs().VisitAll(func(k, val []byte) {
		v.Add(string(k), string(val))
	})
	return v
}
