package router

import (
	"os"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/basicauth"

	"github.com/jHLuno/telfera/internal/pkg/env"
	"github.com/jHLuno/telfera/internal/pkg/metrics"
)

func (h HttpRouter) registerPublicRoutes(app *fiber.App) {
	app.Get("/health", h.health.HandleHealth)

	// Prometheus scrape endpoint, only with credentials configured
	user, password := env.GetEnv("METRICS_USER", ""), env.GetEnv("METRICS_PASSWORD", "")
	if user != "" && password != "" {
		app.Get("/metrics", basicauth.New(basicauth.Config{
			Users: map[string]string{user: password},
			Realm: "Metrics",
		}), metrics.Handler())
	} else {
		log.Info("[Router] METRICS_USER/METRICS_PASSWORD not set, /metrics disabled")
	}

	// SWAGGER / OPENAPI
	if h.deps.DocsFile != "" {
		if _, err := os.Stat(h.deps.DocsFile); err != nil {
			log.Warnf("[Router] API docs not served: %v", err)
			return
		}
		app.Use(swagger.New(swagger.Config{
			BasePath: "/docs/",
			FilePath: h.deps.DocsFile,
			Path:     "api",
			Title:    "Telfera CRM API",
		}))
	}
}
