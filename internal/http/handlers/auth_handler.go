package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"membersite/internal/log"
	"membersite/internal/metrics"
	"membersite/internal/services"
	"membersite/internal/session"
	"membersite/internal/validate"
)

// Shown for every failed login regardless of cause.
const badCredsMessage = "Invalid email/password combination"

const injectionMessage = "A NoSQL injection attack was detected!!"

type AuthHandler struct {
	Auth     *services.AuthService
	Sessions *session.Authenticator
	Metrics  *metrics.Metrics
}

func (h *AuthHandler) SignupForm(c *fiber.Ctx) error {
	return render(c, "signup", nil)
}

func (h *AuthHandler) LoginForm(c *fiber.Ctx) error {
	return render(c, "login", nil)
}

// POST /submitUser
func (h *AuthHandler) SubmitUser(c *fiber.Ctx) error {
	id, err := h.Auth.Signup(c.UserContext(), formValues(c))
	if err != nil {
		var ve *validate.ValidationError
		if errors.As(err, &ve) {
			h.Metrics.Signups.WithLabelValues("invalid").Inc()
			return rejectInput(c, h.Metrics, "auth.signup", ve)
		}
		h.Metrics.Signups.WithLabelValues("error").Inc()
		return err
	}
	if err := h.Sessions.Begin(c, id); err != nil {
		return err
	}
	h.Metrics.Signups.WithLabelValues("success").Inc()
	log.Audit(c, "auth.signup.success", map[string]any{"email": id.Email, "name": id.Name})
	return c.Redirect("/")
}

// POST /loggingin
func (h *AuthHandler) LoggingIn(c *fiber.Ctx) error {
	form := formValues(c)
	id, err := h.Auth.Login(c.UserContext(), form)
	if err != nil {
		var ve *validate.ValidationError
		switch {
		case errors.As(err, &ve):
			h.Metrics.Logins.WithLabelValues("invalid").Inc()
			return rejectInput(c, h.Metrics, "auth.login", ve)
		case errors.Is(err, services.ErrBadCredentials):
			h.Metrics.Logins.WithLabelValues("bad_credentials").Inc()
			fields := map[string]any{"email": form.Get("email")}
			if err != services.ErrBadCredentials {
				// wrapped: the stored hash could not be parsed
				fields["err"] = err.Error()
			}
			log.Security(c, "auth.login.fail", fields)
			return renderStatus(c, fiber.StatusUnauthorized, "loggingin", fiber.Map{"Message": badCredsMessage})
		default:
			h.Metrics.Logins.WithLabelValues("error").Inc()
			return err
		}
	}
	if err := h.Sessions.Begin(c, id); err != nil {
		return err
	}
	h.Metrics.Logins.WithLabelValues("success").Inc()
	log.Audit(c, "auth.login.success", map[string]any{"email": id.Email, "role": string(id.Role)})
	return c.Redirect("/loggedin")
}

// LoginThrottled re-renders the login form, with a usable csrf token, once
// the login limiter trips.
func (h *AuthHandler) LoginThrottled(c *fiber.Ctx) error {
	h.Metrics.Logins.WithLabelValues("throttled").Inc()
	log.Security(c, "rate.login.hit", nil)
	return renderStatus(c, fiber.StatusTooManyRequests, "login", fiber.Map{"Err": "Too many attempts. Please try again later."})
}

// GET /logout
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	id, wasIn := h.Sessions.Current(c)
	if err := h.Sessions.Destroy(c); err != nil {
		return err
	}
	c.Locals(LocalsUser, nil)
	if wasIn {
		log.Audit(c, "auth.logout", map[string]any{"email": id.Email})
	}
	return render(c, "loggedout", nil)
}

// rejectInput renders a validation failure. Operator-shaped input gets the
// explicit injection message; anything else names the broken rule.
func rejectInput(c *fiber.Ctx, m *metrics.Metrics, action string, ve *validate.ValidationError) error {
	if ve.Injection {
		m.Rejections.WithLabelValues(ve.Field, "injection").Inc()
		log.Security(c, "injection.detected", map[string]any{"action": action, "field": ve.Field})
		return renderStatus(c, fiber.StatusBadRequest, "error", fiber.Map{"Message": injectionMessage, "Injection": true})
	}
	m.Rejections.WithLabelValues(ve.Field, "rule").Inc()
	log.Info(c, "validation.reject", map[string]any{"action": action, "field": ve.Field, "reason": ve.Reason})
	return renderStatus(c, fiber.StatusBadRequest, "error", fiber.Map{"Message": ve.Reason})
}
