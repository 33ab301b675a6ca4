// Package server assembles the fiber application: middleware order, route
// table and the error pages.
package server

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/encryptcookie"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/jmoiron/sqlx"

	"membersite/internal/config"
	"membersite/internal/http/handlers"
	applog "membersite/internal/log"
	"membersite/internal/metrics"
	"membersite/internal/secure"
	"membersite/internal/services"
	"membersite/internal/session"
	"membersite/web"
)

const genericError = "Something went wrong. Please try again."

type Deps struct {
	Config   config.Config
	Auth     *services.AuthService
	Sessions *session.Authenticator
	Metrics  *metrics.Metrics
	// DB is pinged by /healthz when set.
	DB *sqlx.DB
}

func New(d Deps) (*fiber.App, error) {
	cfg := d.Config
	if d.Metrics == nil {
		d.Metrics = metrics.New()
	}

	app := fiber.New(fiber.Config{
		Views:                 web.Engine(),
		BodyLimit:             cfg.HTTP.BodyLimit,
		ErrorHandler:          errorHandler,
		DisableStartupMessage: true,
	})

	// ---------- Middlewares ----------
	app.Use(requestid.New())
	app.Use(applog.Access())
	app.Use(helmet.New())

	secret := cfg.Session.Secret
	if secret == "" {
		// dev mode only; Validate refuses an empty secret otherwise
		secret = "membersite-dev-secret"
	}
	cookieKey, err := secure.CookieKey(secret)
	if err != nil {
		return nil, err
	}
	app.Use(encryptcookie.New(encryptcookie.Config{
		Key:    cookieKey,
		Except: []string{"csrf_"},
	}))

	app.Use(limiter.New(limiter.Config{
		Max:        cfg.HTTP.RateMax,
		Expiration: cfg.HTTP.RateWindow,
		Next: func(c *fiber.Ctx) bool {
			p := c.Path()
			return strings.HasPrefix(p, "/static/") || p == "/healthz" || p == "/metrics"
		},
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.global.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).Render("error", fiber.Map{"Message": "Too many requests. Please slow down."})
		},
	}))
	app.Use(csrf.New(csrf.Config{
		KeyLookup:      "form:csrf",
		CookieName:     "csrf_",
		CookieSameSite: "Lax",
		CookieSecure:   cfg.HTTP.CookieSecure,
		CookieHTTPOnly: true,
		ContextKey:     "csrf",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			applog.Security(c, "csrf.fail", map[string]any{"reason": err.Error()})
			return c.Status(fiber.StatusForbidden).Render("error", fiber.Map{"Message": "Security check failed. Please refresh and try again."})
		},
	}))
	app.Use(handlers.AttachUser(d.Sessions))

	// ---------- Static assets ----------
	app.Use("/static", filesystem.New(filesystem.Config{Root: web.Static()}))

	// ---------- App handlers ----------
	h := handlers.NewDeps(d.Auth, d.Sessions, d.Metrics)
	requireUser := handlers.RequireUser(d.Sessions, d.Metrics)

	app.Get("/", h.PageHandler.Home)
	app.Get("/about", h.PageHandler.About)
	app.Get("/contact", h.PageHandler.Contact)
	app.Post("/submitEmail", h.PageHandler.SubmitEmail)
	app.Get("/cat/:id", h.PageHandler.Cat)

	// Auth routes (login throttled)
	app.Get("/signup", h.AuthHandler.SignupForm)
	app.Post("/submitUser", h.AuthHandler.SubmitUser)
	app.Get("/login", h.AuthHandler.LoginForm)
	app.Post("/loggingin", limiter.New(limiter.Config{
		Max:        cfg.HTTP.LoginMax,
		Expiration: cfg.HTTP.LoginWindow,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP() + "|login"
		},
		LimitReached: h.AuthHandler.LoginThrottled,
	}), h.AuthHandler.LoggingIn)
	app.Get("/logout", h.AuthHandler.Logout)

	// Members
	app.Get("/members", requireUser, h.PageHandler.Members)
	app.Get("/loggedin", requireUser, h.PageHandler.LoggedIn)
	app.Get("/loggedin/info", requireUser, h.PageHandler.LoggedInInfo)

	// Admin
	app.Get("/admin", requireUser, handlers.RequireAdmin(d.Metrics), h.AdminHandler.Users)

	// Lookup
	app.Get("/lookup", h.LookupHandler.Lookup)
	app.Get("/nosql-injection", h.LookupHandler.Lookup)

	// Health, metrics & 404
	app.Get("/healthz", healthz(d.DB))
	if cfg.Metrics.Enabled {
		app.Get("/metrics", d.Metrics.Handler())
	}
	app.Use(h.PageHandler.NotFound)

	return app, nil
}

func healthz(db *sqlx.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if db != nil {
			if err := db.PingContext(c.UserContext()); err != nil {
				applog.Error(c, "health.db.fail", err, nil)
				return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"ok": false})
			}
		}
		return c.JSON(fiber.Map{"ok": true})
	}
}

// errorHandler logs server faults and shows a page without internal detail.
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	msg := genericError
	var fe *fiber.Error
	if errors.As(err, &fe) && fe.Code < fiber.StatusInternalServerError {
		code, msg = fe.Code, fe.Message
	}
	c.Status(code)
	if code >= fiber.StatusInternalServerError {
		applog.Error(c, "server.error", err, nil)
	}
	if code == fiber.StatusNotFound {
		err = c.Render("404", fiber.Map{})
	} else {
		err = c.Render("error", fiber.Map{"Message": msg})
	}
	if err != nil {
		return c.SendString(msg)
	}
	return nil
}

// ShutdownTimeout bounds graceful shutdown in serve.
const ShutdownTimeout = 10 * time.Second
