package ratelimit

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/jHLuno/telfera/internal/pkg/apperr"
	"github.com/jHLuno/telfera/internal/pkg/metrics"
)

// Middleware limits a route group per client. identify returns the client
// identifier, usually the proxy-aware client IP.
func Middleware(l Limiter, scope string, cfg Config, identify func(c *fiber.Ctx) string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		res := l.Check(c.UserContext(), Key(scope, identify(c)), cfg)

		c.Set("X-RateLimit-Limit", strconv.Itoa(cfg.Limit))
		c.Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))

		if !res.Allowed {
			metrics.RateLimitDenied(scope)
			return apperr.Respond(c, apperr.RateLimited(res.ResetInSeconds()))
		}
		return c.Next()
	}
}
