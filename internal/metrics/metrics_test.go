package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := New()
	m.RecordAdded("inventory")
	m.RecordAdded("inventory")
	m.RecordDeleted("waste_log")
	m.RecordReset()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.added.WithLabelValues("inventory")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.deleted.WithLabelValues("waste_log")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.resets))
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordAdded("inventory")
		m.RecordDeleted("inventory")
		m.RecordReset()
	})
}

func TestMiddlewareAndHandler(t *testing.T) {
	m := New()
	app := fiber.New()
	app.Use(m.Middleware())
	app.Get("/ok", func(c *fiber.Ctx) error { return c.SendString("ok") })
	app.Get("/missing", func(c *fiber.Ctx) error { return fiber.ErrNotFound })
	app.Get("/metrics", m.Handler())

	for _, target := range []string{"/ok", "/ok", "/missing"} {
		_, err := app.Test(httptest.NewRequest(http.MethodGet, target, nil))
		require.NoError(t, err)
	}
	assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues("GET", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("GET", "404")))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "food_dashboard_http_requests_total")
}
