package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	before := testutil.ToFloat64(leadsSubmitted.WithLabelValues("created"))
	LeadSubmitted("created")
	assert.Equal(t, before+1, testutil.ToFloat64(leadsSubmitted.WithLabelValues("created")))

	before = testutil.ToFloat64(rateLimitDenied.WithLabelValues("lead"))
	RateLimitDenied("lead")
	assert.Equal(t, before+1, testutil.ToFloat64(rateLimitDenied.WithLabelValues("lead")))
}

func TestMiddlewareAndHandler(t *testing.T) {
	app := fiber.New()
	app.Use(Middleware())
	app.Get("/leads/:id", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusTeapot) })
	app.Get("/metrics", Handler())

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/leads/:id", "418"))

	resp, err := app.Test(httptest.NewRequest("GET", "/leads/5b7c", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTeapot, resp.StatusCode)
	assert.Equal(t, before+1, testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/leads/:id", "418")))

	resp, err = app.Test(httptest.NewRequest("GET", "/metrics", nil))
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "telfera_http_requests_total")
}
