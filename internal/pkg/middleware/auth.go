package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jHLuno/telfera/internal/pkg/apperr"
	"github.com/jHLuno/telfera/internal/pkg/usercontext"
)

// RequireAPIAuth ensures a logged-in session for API routes and returns JSON 401 instead of redirect.
func RequireAPIAuth(c *fiber.Ctx) error {
	if !usercontext.IsLoggedIn(c) {
		return apperr.Respond(c, apperr.Unauthenticated(""))
	}
	return c.Next()
}

// RequireRole admits only the given roles. Authenticated users without the
// role get 403, anonymous ones 401.
func RequireRole(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		uc := usercontext.GetUserContext(c)
		if !uc.IsLoggedIn {
			return apperr.Respond(c, apperr.Unauthenticated(""))
		}
		for _, r := range roles {
			if uc.Role == r {
				return c.Next()
			}
		}
		return apperr.Respond(c, apperr.Forbidden())
	}
}
