package middleware

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/storeit/storeit/internal/auth"
)

// RequireSession validates the session token from the session cookie or a
// bearer header and stores the account id in Locals. When redirect is
// non-empty, unauthenticated requests are redirected there instead of
// receiving 401, which suits HTML pages.
func RequireSession(sessions *auth.Service, redirect string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Cookies(auth.SessionCookie)
		if token == "" {
			authz := c.Get(fiber.HeaderAuthorization)
			if strings.HasPrefix(strings.ToLower(authz), "bearer ") {
				token = strings.TrimSpace(authz[len("Bearer "):])
			}
		}
		if token == "" {
			return deny(c, redirect, "missing session")
		}
		claims, err := sessions.Parse(token)
		if err != nil {
			return deny(c, redirect, "invalid session")
		}
		c.Locals(auth.LocalAccountID, claims.Subject)
		return c.Next()
	}
}

func deny(c *fiber.Ctx, redirect, msg string) error {
	if redirect != "" {
		return c.Redirect(redirect, http.StatusSeeOther)
	}
	return fiber.NewError(http.StatusUnauthorized, msg)
}
