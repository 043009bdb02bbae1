package auth

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

// SessionCookie is the cookie holding the session token for browser clients.
const SessionCookie = "storeit_session"

// SetSessionCookie stores tok in an HttpOnly cookie.
func SetSessionCookie(c *fiber.Ctx, tok Token, secure bool) {
	c.Cookie(&fiber.Cookie{
		Name:     SessionCookie,
		Value:    tok.AccessToken,
		Path:     "/",
		Expires:  tok.ExpiresAt,
		HTTPOnly: true,
		Secure:   secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// ClearSessionCookie expires the session cookie.
func ClearSessionCookie(c *fiber.Ctx, secure bool) {
	c.Cookie(&fiber.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		Secure:   secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// LocalAccountID is the fiber Locals key set by the session middleware.
const LocalAccountID = "account_id"
