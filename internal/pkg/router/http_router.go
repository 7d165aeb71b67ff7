package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jHLuno/telfera/app/controllers"
	"github.com/jHLuno/telfera/internal/pkg/middleware"
	"github.com/jHLuno/telfera/internal/pkg/session"
)

type HttpRouter struct {
	deps   Dependencies
	health *controllers.HealthController
	lead   *controllers.LeadController
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	// init session
	if session.GetSessionStore() == nil {
		session.NewSessionStore()
	}

	// Apply UserContext middleware globally as first middleware
	app.Use(middleware.UserContextMiddleware(h.deps.Users))

	h.registerPublicRoutes(app)
	h.registerCSRFProtectedRoutes(app)
}

func NewHttpRouter(deps Dependencies) *HttpRouter {
	return &HttpRouter{
		deps:   deps,
		health: controllers.NewHealthController(deps.DB, deps.Redis),
		lead:   controllers.NewLeadController(deps.Leads, deps.Captcha, deps.Limiter),
	}
}
