package router

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"

	"github.com/jHLuno/telfera/internal/pkg/apperr"
	"github.com/jHLuno/telfera/internal/pkg/env"
)

// registerCSRFProtectedRoutes serves the plain HTML contact form. The site
// fetches a token from /contact/token and posts it back as _csrf.
func (h HttpRouter) registerCSRFProtectedRoutes(app *fiber.App) {
	csrfConf := csrf.Config{
		KeyLookup:      "form:_csrf",
		ContextKey:     "csrf",
		CookieName:     "csrf_",
		CookieSameSite: "Lax",
		Expiration:     1 * time.Hour,
		CookieSecure:   !env.IsDev(),
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return apperr.Respond(c, apperr.Forbidden())
		},
	}

	group := app.Group("/contact", csrf.New(csrfConf))
	group.Get("/token", func(c *fiber.Ctx) error {
		return apperr.OK(c, fiber.StatusOK, fiber.Map{"token": c.Locals("csrf")})
	})
	group.Post("", h.lead.HandleContactForm)
}
