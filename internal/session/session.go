// Package session tracks who is logged in on top of fiber's session
// middleware. State per browser:
//
//	anonymous -> authenticated   Begin (signup or login), expiry = now + TTL
//	authenticated -> destroyed   Destroy (logout)
//	authenticated -> expired     implicit once now > expiry
//
// Expired sessions read exactly like anonymous ones. The role is copied in at
// Begin and not re-read from the store, so a role change takes effect on the
// next login.
package session

import (
	"time"

	"github.com/gofiber/fiber/v2"
	fibersession "github.com/gofiber/fiber/v2/middleware/session"
	"github.com/google/uuid"

	"membersite/internal/domain"
)

const (
	CookieName = "sid"

	keyAuthenticated = "authenticated"
	keyName          = "name"
	keyEmail         = "email"
	keyRole          = "role"
	keyExpiry        = "expiry"
)

type Config struct {
	TTL          time.Duration
	CookieSecure bool
}

type Authenticator struct {
	store *fibersession.Store
	ttl   time.Duration
	// Now is swapped in tests to move past expiry.
	Now func() time.Time
}

// New wires the authenticator to storage, which must outlive the process
// (SQL table or redis) for sessions to survive restarts.
func New(storage fiber.Storage, cfg Config) *Authenticator {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	store := fibersession.New(fibersession.Config{
		Storage:        storage,
		Expiration:     ttl,
		KeyLookup:      "cookie:" + CookieName,
		CookiePath:     "/",
		CookieHTTPOnly: true,
		CookieSecure:   cfg.CookieSecure,
		CookieSameSite: fiber.CookieSameSiteLaxMode,
		KeyGenerator:   uuid.NewString,
	})
	return &Authenticator{store: store, ttl: ttl, Now: time.Now}
}

// Begin moves the caller's session to authenticated under a fresh id.
func (a *Authenticator) Begin(c *fiber.Ctx, id domain.Identity) error {
	sess, err := a.store.Get(c)
	if err != nil {
		return err
	}
	if err := sess.Regenerate(); err != nil {
		return err
	}
	sess.Set(keyAuthenticated, true)
	sess.Set(keyName, id.Name)
	sess.Set(keyEmail, id.Email)
	sess.Set(keyRole, string(id.Role.Normalize()))
	sess.Set(keyExpiry, a.Now().Add(a.ttl).Unix())
	return sess.Save()
}

// Current reports the identity of an authenticated, unexpired session.
func (a *Authenticator) Current(c *fiber.Ctx) (domain.Identity, bool) {
	sess, err := a.store.Get(c)
	if err != nil || sess.Fresh() {
		return domain.Identity{}, false
	}
	if ok, _ := sess.Get(keyAuthenticated).(bool); !ok {
		return domain.Identity{}, false
	}
	exp, _ := sess.Get(keyExpiry).(int64)
	if exp == 0 || a.Now().Unix() > exp {
		return domain.Identity{}, false
	}
	name, _ := sess.Get(keyName).(string)
	email, _ := sess.Get(keyEmail).(string)
	role, _ := sess.Get(keyRole).(string)
	return domain.Identity{Name: name, Email: email, Role: domain.Role(role).Normalize()}, true
}

// Destroy deletes the stored record and expires the cookie.
func (a *Authenticator) Destroy(c *fiber.Ctx) error {
	sess, err := a.store.Get(c)
	if err != nil {
		return err
	}
	return sess.Destroy()
}
