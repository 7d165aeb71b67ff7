package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"

	"github.com/jHLuno/telfera/app/controllers"
	"github.com/jHLuno/telfera/app/models"
	"github.com/jHLuno/telfera/internal/pkg/clientip"
	"github.com/jHLuno/telfera/internal/pkg/env"
	"github.com/jHLuno/telfera/internal/pkg/middleware"
	"github.com/jHLuno/telfera/internal/pkg/ratelimit"
)

type ApiRouter struct {
	deps      Dependencies
	lead      *controllers.LeadController
	auth      *controllers.AuthController
	adminLead *controllers.AdminLeadController
	adminUser *controllers.AdminUserController
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api")

	// Public site, possibly served from another origin. Submissions are
	// throttled by the lead service itself.
	public := api.Group("", cors.New(cors.Config{
		AllowOrigins: env.GetEnv("CORS_ALLOW_ORIGINS", "https://telfera.kz"),
		AllowMethods: "GET,POST,OPTIONS",
	}))
	public.Post("/leads", h.lead.HandleSubmit)
	public.Get("/flash", h.lead.HandleFlash)

	auth := api.Group("/auth")
	auth.Post("/login", h.auth.HandleLogin)
	auth.Post("/logout", middleware.RequireAPIAuth, h.auth.HandleLogout)
	auth.Get("/me", middleware.RequireAPIAuth, h.auth.HandleMe)

	h.registerAdminRoutes(api)
}

func (h ApiRouter) registerAdminRoutes(api fiber.Router) {
	limiter := h.deps.Limiter
	if limiter == nil {
		limiter = ratelimit.NewMemoryLimiter()
	}

	admin := api.Group("/admin",
		middleware.RequireAPIAuth,
		middleware.RequireRole(models.ROLE_MANAGER, models.ROLE_ADMIN),
		ratelimit.Middleware(limiter, ratelimit.ScopeAPI, ratelimit.API, clientip.FromCtx),
	)

	admin.Get("/leads", h.adminLead.HandleList)
	admin.Post("/leads", h.adminLead.HandleCreate)
	admin.Get("/leads/latest", h.adminLead.HandleLatest)
	admin.Get("/leads/stats", h.adminLead.HandleStats)
	admin.Get("/leads/:id", h.adminLead.HandleGet)
	admin.Get("/leads/:id/history", h.adminLead.HandleHistory)
	admin.Patch("/leads/:id/status", h.adminLead.HandleStatus)
	admin.Post("/leads/:id/status", h.adminLead.HandleStatus)
	admin.Patch("/leads/:id/assign", h.adminLead.HandleAssign)
	admin.Delete("/leads/:id", h.adminLead.HandleDelete)

	// role checks for these live in the access policy
	admin.Get("/audit", h.adminLead.HandleAuditTrail)
	admin.Get("/users", h.adminUser.HandleList)
	admin.Post("/users", h.adminUser.HandleCreate)
	admin.Patch("/users/:id", h.adminUser.HandleUpdate)
	admin.Delete("/users/:id", h.adminUser.HandleDelete)
}

func NewApiRouter(deps Dependencies) *ApiRouter {
	return &ApiRouter{
		deps:      deps,
		lead:      controllers.NewLeadController(deps.Leads, deps.Captcha, deps.Limiter),
		auth:      controllers.NewAuthController(deps.Users),
		adminLead: controllers.NewAdminLeadController(deps.Leads, deps.Trail),
		adminUser: controllers.NewAdminUserController(deps.Users),
	}
}
