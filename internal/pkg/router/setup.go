package router

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/jHLuno/telfera/internal/pkg/apperr"
	"github.com/jHLuno/telfera/internal/pkg/audit"
	"github.com/jHLuno/telfera/internal/pkg/hcaptcha"
	"github.com/jHLuno/telfera/internal/pkg/leads"
	"github.com/jHLuno/telfera/internal/pkg/metrics"
	"github.com/jHLuno/telfera/internal/pkg/ratelimit"
	"github.com/jHLuno/telfera/internal/pkg/users"
)

type Router interface {
	InstallRouter(app *fiber.App)
}

// Dependencies are the services the HTTP layer is built on.
type Dependencies struct {
	DB      *gorm.DB
	Redis   *redis.Client // nil when running without Redis
	Leads   *leads.Service
	Users   *users.Service
	Trail   *audit.Trail
	Captcha *hcaptcha.Verifier
	Limiter ratelimit.Limiter
	// DocsFile is the OpenAPI document served under /docs/api
	DocsFile string
	// Quiet disables the access log
	Quiet bool
}

// New builds the fiber application with every route installed.
func New(deps Dependencies) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "telfera",
		BodyLimit:    1 << 20,
		ErrorHandler: errorHandler,
	})
	app.Use(recover.New(), metrics.Middleware())
	if !deps.Quiet {
		app.Use(logger.New())
	}

	InstallRouter(app, deps)
	return app
}

func InstallRouter(app *fiber.App, deps Dependencies) {
	// HttpRouter initializes the session store and the UserContext
	// middleware the API routes depend on, so it goes first.
	setup(app, NewHttpRouter(deps), NewApiRouter(deps))
}

func setup(app *fiber.App, router ...Router) {
	for _, r := range router {
		r.InstallRouter(app)
	}
}

// errorHandler renders errors that escaped the handlers in the API error shape
func errorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		switch fe.Code {
		case fiber.StatusNotFound:
			return apperr.Respond(c, apperr.NotFound("Страница не найдена"))
		case fiber.StatusForbidden:
			return apperr.Respond(c, apperr.Forbidden())
		case fiber.StatusRequestEntityTooLarge, fiber.StatusBadRequest, fiber.StatusMethodNotAllowed:
			return c.Status(fe.Code).JSON(fiber.Map{
				"success": false,
				"error":   apperr.Body{Kind: apperr.KindValidation, Message: fe.Message},
			})
		}
	}
	log.Errorw("[Router] unhandled error", "path", c.Path(), "error", err)
	return apperr.Respond(c, apperr.Internal(err))
}
