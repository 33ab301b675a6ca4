package handlers

import (
	"math/rand/v2"

	"github.com/gofiber/fiber/v2"

	"membersite/internal/domain"
	"membersite/internal/validate"
)

var memberImages = []string{"cat1.svg", "cat2.svg", "cat3.svg"}

var cats = map[string]string{
	"1": "cat1.svg",
	"2": "cat2.svg",
	"3": "cat3.svg",
}

// PageHandler serves the content pages around the auth core.
type PageHandler struct{}

// GET /
func (h *PageHandler) Home(c *fiber.Ctx) error {
	if u, ok := c.Locals(LocalsUser).(domain.Identity); ok {
		return render(c, "homeloggedin", fiber.Map{"Name": u.Name})
	}
	return render(c, "index", nil)
}

// GET /members
func (h *PageHandler) Members(c *fiber.Ctx) error {
	u, _ := c.Locals(LocalsUser).(domain.Identity)
	return render(c, "members", fiber.Map{
		"Name":  u.Name,
		"Image": memberImages[rand.IntN(len(memberImages))],
	})
}

func (h *PageHandler) LoggedIn(c *fiber.Ctx) error {
	return render(c, "loggedin", nil)
}

func (h *PageHandler) LoggedInInfo(c *fiber.Ctx) error {
	return render(c, "loggedin-info", nil)
}

// GET /about?color=
func (h *PageHandler) About(c *fiber.Ctx) error {
	data := fiber.Map{}
	if color, ok := validate.Color(c.Query("color")); ok {
		data["Color"] = color
	}
	return render(c, "about", data)
}

// GET /contact?missing=1
func (h *PageHandler) Contact(c *fiber.Ctx) error {
	return render(c, "contact", fiber.Map{"Missing": c.Query("missing") != ""})
}

// POST /submitEmail
func (h *PageHandler) SubmitEmail(c *fiber.Ctx) error {
	in, err := validate.Contact.Validate(formValues(c))
	if err != nil {
		return c.Redirect("/contact?missing=1")
	}
	return render(c, "submitEmail", fiber.Map{"Email": in["email"]})
}

// GET /cat/:id
func (h *PageHandler) Cat(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	img, known := cats[id]
	if !ok || !known {
		return h.NotFound(c)
	}
	return render(c, "cat", fiber.Map{"Cat": id, "Image": img})
}

// NotFound terminates the chain for any unmatched route.
func (h *PageHandler) NotFound(c *fiber.Ctx) error {
	return renderStatus(c, fiber.StatusNotFound, "404", nil)
}
